package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks how far a booking has moved through the payment
// lifecycle. Transitions only move forward; cancelled is the single exit
// from any non-terminal state.
type PaymentStatus string

const (
	StatusPendingDeposit PaymentStatus = "pending-deposit"
	StatusDepositPaid    PaymentStatus = "deposit-paid"
	StatusFullPayment    PaymentStatus = "full-payment"
	StatusCancelled      PaymentStatus = "cancelled"
)

// ValidPaymentStatus reports whether s is one of the four lifecycle states.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case StatusPendingDeposit, StatusDepositPaid, StatusFullPayment, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further business mutation is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusFullPayment || s == StatusCancelled
}

// PaymentType classifies a ledger entry.
type PaymentType string

const (
	PaymentDeposit PaymentType = "deposit"
	PaymentBalance PaymentType = "balance"
	PaymentFull    PaymentType = "full-payment"
)

func ValidPaymentType(t PaymentType) bool {
	return t == PaymentDeposit || t == PaymentBalance || t == PaymentFull
}

// Payment is one entry in a booking's append-only ledger. Entries are never
// edited or removed once recorded.
type Payment struct {
	PaidAt         time.Time   `bson:"paid_at" json:"paid_at"`
	Amount         Money       `bson:"amount" json:"amount"`
	PaymentType    PaymentType `bson:"payment_type" json:"payment_type"`
	ProofReference string      `bson:"proof_reference,omitempty" json:"proof_reference,omitempty"`
}

// StatusLog is the activity trail kept alongside the ledger; one entry per
// status change.
type StatusLog struct {
	Status    PaymentStatus `bson:"status" json:"status"`
	Message   string        `bson:"message,omitempty" json:"message,omitempty"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

// CustomerSnapshot is the customer's contact info frozen at booking time.
// Later profile edits never change it.
type CustomerSnapshot struct {
	CustomerID primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone" json:"phone"`
	Email      string             `bson:"email" json:"email"`
}

// PackageSnapshot freezes the chosen package's name and per-table price at
// booking time, so repricing the catalog never reprices history.
type PackageSnapshot struct {
	PackageID      primitive.ObjectID `bson:"package_id" json:"package_id"`
	Name           string             `bson:"package_name" json:"package_name"`
	PricePerTable  Money              `bson:"price_per_table" json:"price_per_table"`
	MaxSelect      int                `bson:"max_select" json:"max_select"`
	ExtraMenuPrice Money              `bson:"extra_menu_price" json:"extra_menu_price"`
}

// Coordinates is an optional lat/lng pair attached to the event location.
type Coordinates struct {
	Latitude  float64 `bson:"lat" json:"lat"`
	Longitude float64 `bson:"lng" json:"lng"`
}

// EventLocation is the free-text address of the event plus optional
// geocoordinates for the driver route view.
type EventLocation struct {
	Address     string       `bson:"address" json:"address"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Booking is the central aggregate. Snapshots are immutable after creation;
// selected_menus, total_price, payment_status, payments, status_logs change
// through the service operations only, each guarded by the version field.
type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingCode   string             `bson:"booking_code" json:"booking_code"`
	Customer      CustomerSnapshot   `bson:"customer" json:"customer"`
	Package       PackageSnapshot    `bson:"package" json:"package"`
	EventDateTime time.Time          `bson:"event_datetime" json:"event_datetime"`
	// EventDate is the event's calendar day in the customer's zone, fixed
	// at creation. Capacity claim, release and the availability count all
	// key on this string; re-deriving the day from event_datetime after a
	// database round trip can shift it across timezones.
	EventDate       string        `bson:"event_date" json:"event_date"`
	TableCount      int           `bson:"table_count" json:"table_count"`
	SelectedMenus   []string      `bson:"selected_menus" json:"selected_menus"`
	Location        EventLocation `bson:"location" json:"location"`
	SpecialRequest  string        `bson:"special_request,omitempty" json:"special_request,omitempty"`
	ExtraMenuCount  int           `bson:"extra_menu_count" json:"extra_menu_count"`
	ExtraMenuCost   Money         `bson:"extra_menu_cost" json:"extra_menu_cost"`
	TotalPrice      Money         `bson:"total_price" json:"total_price"`
	DepositRequired Money         `bson:"deposit_required" json:"deposit_required"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"payment_status"`
	Payments        []Payment     `bson:"payments" json:"payments"`
	StatusLogs      []StatusLog   `bson:"status_logs" json:"status_logs"`
	// Slot is the per-date capacity ordinal claimed at creation.
	Slot      int       `bson:"slot" json:"-"`
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PaymentsTotal sums every recorded payment amount.
func (b *Booking) PaymentsTotal() Money {
	var sum Money
	for _, p := range b.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// StatusAfterPayment decides the payment status that recording (amount, typ)
// would leave the booking in. It never mutates b.
//
// Rules: a deposit moves pending-deposit to deposit-paid; a full payment
// always lands on full-payment; a balance payment lands on full-payment only
// once the running ledger sum reaches the total price.
func (b *Booking) StatusAfterPayment(amount Money, typ PaymentType) (PaymentStatus, error) {
	if b.PaymentStatus == StatusCancelled {
		return "", fmt.Errorf("%w: cannot record payment on a cancelled booking", ErrInvalidState)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: payment amount must be positive", ErrInvalidArgument)
	}
	if !ValidPaymentType(typ) {
		return "", fmt.Errorf("%w: unknown payment type %q", ErrInvalidArgument, typ)
	}
	switch typ {
	case PaymentDeposit:
		if b.PaymentStatus == StatusPendingDeposit {
			return StatusDepositPaid, nil
		}
		return b.PaymentStatus, nil
	case PaymentFull:
		return StatusFullPayment, nil
	default: // balance
		if b.PaymentsTotal().Add(amount).Cmp(b.TotalPrice) >= 0 {
			return StatusFullPayment, nil
		}
		return b.PaymentStatus, nil
	}
}

// CanCancel reports whether the customer may still cancel. Once any payment
// has started, cancellation goes through the out-of-band refund process.
func (b *Booking) CanCancel() bool {
	return b.PaymentStatus == StatusPendingDeposit
}

// CanReviseMenus reports whether the menu selection may still change.
func (b *Booking) CanReviseMenus() bool {
	return b.PaymentStatus == StatusPendingDeposit || b.PaymentStatus == StatusDepositPaid
}

// CheckStatusOverride validates an administrative status correction. Admins
// may set any of the four states, but a booking with recorded payments can
// never be pushed back to pending-deposit.
func (b *Booking) CheckStatusOverride(target PaymentStatus) error {
	if !ValidPaymentStatus(target) {
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidArgument, target)
	}
	if target == StatusPendingDeposit && len(b.Payments) > 0 {
		return fmt.Errorf("%w: booking has recorded payments and cannot return to pending-deposit", ErrInvalidState)
	}
	return nil
}
