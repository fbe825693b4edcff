package models

import (
	"errors"
	"testing"
	"time"
)

func paidBooking(status PaymentStatus, payments ...Payment) *Booking {
	return &Booking{
		BookingCode:   "BK-202603141234",
		EventDateTime: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
		EventDate:     "2026-03-14",
		TotalPrice:    MoneyFromBaht(24000),
		PaymentStatus: status,
		Payments:      payments,
	}
}

func TestStatusAfterPayment(t *testing.T) {
	tests := []struct {
		name    string
		booking *Booking
		amount  Money
		typ     PaymentType
		want    PaymentStatus
	}{
		{
			name:    "deposit from pending",
			booking: paidBooking(StatusPendingDeposit),
			amount:  MoneyFromBaht(7200),
			typ:     PaymentDeposit,
			want:    StatusDepositPaid,
		},
		{
			name:    "second deposit leaves status alone",
			booking: paidBooking(StatusDepositPaid, Payment{Amount: MoneyFromBaht(7200)}),
			amount:  MoneyFromBaht(100),
			typ:     PaymentDeposit,
			want:    StatusDepositPaid,
		},
		{
			name:    "full payment from pending",
			booking: paidBooking(StatusPendingDeposit),
			amount:  MoneyFromBaht(24000),
			typ:     PaymentFull,
			want:    StatusFullPayment,
		},
		{
			name:    "partial balance stays deposit-paid",
			booking: paidBooking(StatusDepositPaid, Payment{Amount: MoneyFromBaht(7200)}),
			amount:  MoneyFromBaht(1000),
			typ:     PaymentBalance,
			want:    StatusDepositPaid,
		},
		{
			name:    "balance reaching the total completes",
			booking: paidBooking(StatusDepositPaid, Payment{Amount: MoneyFromBaht(7200)}),
			amount:  MoneyFromBaht(16800),
			typ:     PaymentBalance,
			want:    StatusFullPayment,
		},
		{
			name:    "overpaying balance still completes",
			booking: paidBooking(StatusDepositPaid, Payment{Amount: MoneyFromBaht(7200)}),
			amount:  MoneyFromBaht(20000),
			typ:     PaymentBalance,
			want:    StatusFullPayment,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.booking.StatusAfterPayment(tt.amount, tt.typ)
			if err != nil {
				t.Fatalf("StatusAfterPayment: %v", err)
			}
			if got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusAfterPaymentErrors(t *testing.T) {
	if _, err := paidBooking(StatusCancelled).StatusAfterPayment(MoneyFromBaht(100), PaymentDeposit); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancelled booking error = %v, want ErrInvalidState", err)
	}
	if _, err := paidBooking(StatusPendingDeposit).StatusAfterPayment(MoneyFromBaht(0), PaymentDeposit); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero amount error = %v, want ErrInvalidArgument", err)
	}
	if _, err := paidBooking(StatusPendingDeposit).StatusAfterPayment(MoneyFromBaht(100), PaymentType("tip")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown type error = %v, want ErrInvalidArgument", err)
	}
}

func TestCanCancel(t *testing.T) {
	if !paidBooking(StatusPendingDeposit).CanCancel() {
		t.Error("pending-deposit booking should be cancellable")
	}
	for _, s := range []PaymentStatus{StatusDepositPaid, StatusFullPayment, StatusCancelled} {
		if paidBooking(s).CanCancel() {
			t.Errorf("%s booking should not be cancellable", s)
		}
	}
}

func TestCanReviseMenus(t *testing.T) {
	if !paidBooking(StatusPendingDeposit).CanReviseMenus() || !paidBooking(StatusDepositPaid).CanReviseMenus() {
		t.Error("menus should be revisable before full payment")
	}
	if paidBooking(StatusFullPayment).CanReviseMenus() || paidBooking(StatusCancelled).CanReviseMenus() {
		t.Error("menus must freeze once the booking is terminal")
	}
}

func TestCheckStatusOverride(t *testing.T) {
	clean := paidBooking(StatusDepositPaid)
	if err := clean.CheckStatusOverride(StatusPendingDeposit); err != nil {
		t.Errorf("rewind without payments should be allowed, got %v", err)
	}

	withPayments := paidBooking(StatusDepositPaid, Payment{Amount: MoneyFromBaht(7200)})
	if err := withPayments.CheckStatusOverride(StatusPendingDeposit); !errors.Is(err, ErrInvalidState) {
		t.Errorf("rewind with payments error = %v, want ErrInvalidState", err)
	}
	if err := withPayments.CheckStatusOverride(PaymentStatus("archived")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown status error = %v, want ErrInvalidArgument", err)
	}
}
