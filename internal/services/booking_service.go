package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/helpers"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
)

// codeRetryLimit caps how many booking codes are tried before creation
// gives up with ErrCodeGenerationFailed.
const codeRetryLimit = 5

// casRetryLimit is how many times a lifecycle mutation re-reads and retries
// after losing an optimistic-version race.
const casRetryLimit = 2

type BookingService struct {
	bookingRepo models.BookingRepo
	packageRepo models.PackageRepo
	userRepo    models.UserRepo
	notifier    Notifier
	logger      *slog.Logger
	maxPerDay   int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewBookingService(
	bookingRepo models.BookingRepo,
	packageRepo models.PackageRepo,
	userRepo models.UserRepo,
	notifier Notifier,
	logger *slog.Logger,
	maxPerDay int,
) *BookingService {
	if maxPerDay < 1 {
		maxPerDay = 2
	}
	return &BookingService{
		bookingRepo: bookingRepo,
		packageRepo: packageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
		maxPerDay:   maxPerDay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource swaps the booking-code random source; tests seed it for
// deterministic codes.
func (bs *BookingService) SetRandSource(rng *rand.Rand) {
	bs.rngMu.Lock()
	defer bs.rngMu.Unlock()
	bs.rng = rng
}

func (bs *BookingService) newBookingCode(t time.Time) string {
	bs.rngMu.Lock()
	defer bs.rngMu.Unlock()
	return helpers.GenerateBookingCode(t, bs.rng)
}

type CreateBookingRequest struct {
	CustomerID      primitive.ObjectID
	PackageID       primitive.ObjectID
	EventDateTime   time.Time
	TableCount      int
	SelectedMenus   []string
	Location        models.EventLocation
	SpecialRequest  string
	DepositOverride *models.Money
}

// CreateBooking prices the request, claims a capacity slot for the event
// date, and inserts the booking in pending-deposit with a fresh unique
// booking code. A creation notification is published best-effort after the
// insert.
func (bs *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if req.TableCount < 1 {
		return nil, fmt.Errorf("%w: table count must be at least 1", models.ErrInvalidArgument)
	}
	if !req.EventDateTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: event date must be in the future", models.ErrInvalidArgument)
	}

	customer, err := bs.userRepo.GetUserByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	pkg, err := bs.packageRepo.GetPackageByID(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	snapshot := pkg.Snapshot()

	quote, err := QuoteBooking(snapshot, req.TableCount, len(req.SelectedMenus), req.DepositOverride)
	if err != nil {
		return nil, err
	}

	date := req.EventDateTime.Format("2006-01-02")
	slot, err := bs.bookingRepo.ClaimDateSlot(ctx, date, bs.maxPerDay)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &models.Booking{
		Customer:        customer.Snapshot(),
		Package:         snapshot,
		EventDateTime:   req.EventDateTime,
		EventDate:       date,
		TableCount:      req.TableCount,
		SelectedMenus:   req.SelectedMenus,
		Location:        req.Location,
		SpecialRequest:  req.SpecialRequest,
		ExtraMenuCount:  quote.ExtraMenuCount,
		ExtraMenuCost:   quote.ExtraMenuCost,
		TotalPrice:      quote.TotalPrice,
		DepositRequired: quote.DepositRequired,
		PaymentStatus:   models.StatusPendingDeposit,
		Payments:        []models.Payment{},
		StatusLogs: []models.StatusLog{
			{Status: models.StatusPendingDeposit, Message: "booking created", UpdatedAt: now},
		},
		Slot:      slot,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	inserted := false
	for attempt := 0; attempt < codeRetryLimit; attempt++ {
		booking.BookingCode = bs.newBookingCode(now)
		booking.ID = primitive.NilObjectID
		err = bs.bookingRepo.InsertBooking(ctx, booking)
		if err == nil {
			inserted = true
			break
		}
		if !errors.Is(err, models.ErrConflict) {
			break
		}
		bs.logger.Warn("booking code collision, retrying",
			"booking_code", booking.BookingCode, "attempt", attempt+1)
	}
	if !inserted {
		if releaseErr := bs.bookingRepo.ReleaseDateSlot(ctx, date, slot); releaseErr != nil {
			bs.logger.Error("failed to release date slot after insert failure",
				"date", date, "slot", slot, "error", releaseErr)
		}
		if err != nil && errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: exhausted %d attempts", models.ErrCodeGenerationFailed, codeRetryLimit)
		}
		return nil, err
	}

	bs.dispatch(ctx, "booking.created", booking)
	return booking, nil
}

// RecordPayment appends a ledger entry and advances the payment status per
// the lifecycle rules. The append and the status change land in one
// version-guarded update; a lost race is retried against the fresh document.
func (bs *BookingService) RecordPayment(ctx context.Context, bookingID primitive.ObjectID, amount models.Money, paymentType models.PaymentType, proofReference string) (*models.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		booking, err := bs.bookingRepo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		next, err := booking.StatusAfterPayment(amount, paymentType)
		if err != nil {
			return nil, err
		}

		payment := models.Payment{
			PaidAt:         time.Now(),
			Amount:         amount,
			PaymentType:    paymentType,
			ProofReference: proofReference,
		}
		var log *models.StatusLog
		if next != booking.PaymentStatus {
			log = &models.StatusLog{
				Status:    next,
				Message:   fmt.Sprintf("payment recorded: %s %s", paymentType, amount),
				UpdatedAt: payment.PaidAt,
			}
		}

		updated, err := bs.bookingRepo.AppendPayment(ctx, bookingID, booking.Version, payment, next, log)
		if errors.Is(err, models.ErrConflict) {
			lastErr = err
			continue
		}
		return updated, err
	}
	return nil, lastErr
}

// CancelBooking cancels a booking that has not started paying, releases its
// capacity slot and publishes a cancellation notification.
func (bs *BookingService) CancelBooking(ctx context.Context, bookingID primitive.ObjectID) (*models.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		booking, err := bs.bookingRepo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if !booking.CanCancel() {
			return nil, fmt.Errorf("%w: cannot cancel booking with status %s, only pending-deposit bookings can be cancelled",
				models.ErrInvalidState, booking.PaymentStatus)
		}

		log := models.StatusLog{
			Status:    models.StatusCancelled,
			Message:   "booking cancelled by customer",
			UpdatedAt: time.Now(),
		}
		updated, err := bs.bookingRepo.SetStatus(ctx, bookingID, booking.Version, models.StatusCancelled, log)
		if errors.Is(err, models.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		bs.releaseSlot(ctx, updated)
		bs.dispatch(ctx, "booking.cancelled", updated)
		return updated, nil
	}
	return nil, lastErr
}

// OverrideStatus is the administrative correction path. It bypasses the
// payment-triggered transitions but still refuses to rewind a booking with
// recorded payments to pending-deposit. Moving into cancelled frees the
// date slot; moving out of cancelled deliberately does not re-claim one.
func (bs *BookingService) OverrideStatus(ctx context.Context, bookingID primitive.ObjectID, target models.PaymentStatus, message string) (*models.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		booking, err := bs.bookingRepo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if err := booking.CheckStatusOverride(target); err != nil {
			return nil, err
		}

		if message == "" {
			message = "status set by administrator"
		}
		log := models.StatusLog{Status: target, Message: message, UpdatedAt: time.Now()}

		wasCancelled := booking.PaymentStatus == models.StatusCancelled
		updated, err := bs.bookingRepo.SetStatus(ctx, bookingID, booking.Version, target, log)
		if errors.Is(err, models.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		// Downstream consumers hear about every cancellation, whether the
		// customer or an administrator triggered it.
		if target == models.StatusCancelled && !wasCancelled {
			bs.releaseSlot(ctx, updated)
			bs.dispatch(ctx, "booking.cancelled", updated)
		}
		return updated, nil
	}
	return nil, lastErr
}

// ReviseMenus replaces the menu selection and reprices the booking. The
// deposit stays fixed from creation. The selection ceiling (free limit plus
// the policy bonus) gates how many items may be chosen; overage beyond the
// free limit is priced, not rejected.
func (bs *BookingService) ReviseMenus(ctx context.Context, bookingID primitive.ObjectID, menus []string) (*models.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		booking, err := bs.bookingRepo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if !booking.CanReviseMenus() {
			return nil, fmt.Errorf("%w: cannot revise menus on a booking with status %s",
				models.ErrInvalidState, booking.PaymentStatus)
		}

		ceiling := SelectionCeiling(booking.Package)
		if len(menus) > ceiling {
			return nil, fmt.Errorf("%w: at most %d menu items may be selected for this package",
				models.ErrInvalidArgument, ceiling)
		}

		quote, err := QuoteBooking(booking.Package, booking.TableCount, len(menus), nil)
		if err != nil {
			return nil, err
		}

		updated, err := bs.bookingRepo.ReviseMenus(ctx, bookingID, booking.Version,
			menus, quote.ExtraMenuCount, quote.ExtraMenuCost, quote.TotalPrice)
		if errors.Is(err, models.ErrConflict) {
			lastErr = err
			continue
		}
		return updated, err
	}
	return nil, lastErr
}

func (bs *BookingService) GetBooking(ctx context.Context, bookingID primitive.ObjectID) (*models.Booking, error) {
	return bs.bookingRepo.GetBookingByID(ctx, bookingID)
}

func (bs *BookingService) ListCustomerBookings(ctx context.Context, customerID primitive.ObjectID, status *models.PaymentStatus) ([]*models.Booking, error) {
	if status != nil && !models.ValidPaymentStatus(*status) {
		return nil, fmt.Errorf("%w: unknown payment status %q", models.ErrInvalidArgument, *status)
	}
	return bs.bookingRepo.ListBookingsByCustomer(ctx, customerID, status)
}

func (bs *BookingService) ListBookings(ctx context.Context, offset, limit int) ([]*models.Booking, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid offset or limit", models.ErrInvalidArgument)
	}
	return bs.bookingRepo.ListBookings(ctx, offset, limit)
}

// DateAvailability maps every day in [start, end] to its non-cancelled
// booking count, zero-filled so the calendar can paint closed days.
func (bs *BookingService) DateAvailability(ctx context.Context, start, end time.Time) (map[string]int, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date is before start date", models.ErrInvalidArgument)
	}
	counts, err := bs.bookingRepo.CountBookingsByDate(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if _, ok := counts[key]; !ok {
			counts[key] = 0
		}
	}
	return counts, nil
}

// MaxBookingsPerDay exposes the configured daily cap for calendar rendering.
func (bs *BookingService) MaxBookingsPerDay() int {
	return bs.maxPerDay
}

// releaseSlot hands back the capacity unit under the same event_date key it
// was claimed with.
func (bs *BookingService) releaseSlot(ctx context.Context, b *models.Booking) {
	if err := bs.bookingRepo.ReleaseDateSlot(ctx, b.EventDate, b.Slot); err != nil {
		bs.logger.Error("failed to release date slot",
			"booking_code", b.BookingCode, "date", b.EventDate, "slot", b.Slot, "error", err)
	}
}

// dispatch publishes a booking event exactly once, outside any update, and
// only logs a failure; notification problems never surface to the caller.
func (bs *BookingService) dispatch(ctx context.Context, event string, b *models.Booking) {
	if bs.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := bs.notifier.Notify(notifyCtx, NewBookingEvent(event, b)); err != nil {
		bs.logger.Error("booking notification failed",
			"event", event, "booking_code", b.BookingCode, "error", err)
	}
}
