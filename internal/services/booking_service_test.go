package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
)

// fakeBookingRepo is an in-memory BookingRepo with the same optimistic-version
// and unique-constraint semantics as the Mongo implementation.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
	codes    map[string]bool
	slots    map[string]map[int]bool

	// forceInsertConflicts makes the next N inserts fail as code
	// collisions regardless of the generated code.
	forceInsertConflicts int
	// forceCASConflicts makes the next N version-guarded updates lose
	// their race.
	forceCASConflicts int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[primitive.ObjectID]*models.Booking),
		codes:    make(map[string]bool),
		slots:    make(map[string]map[int]bool),
	}
}

func copyBooking(b *models.Booking) *models.Booking {
	c := *b
	c.SelectedMenus = append([]string(nil), b.SelectedMenus...)
	c.Payments = append([]models.Payment(nil), b.Payments...)
	c.StatusLogs = append([]models.StatusLog(nil), b.StatusLogs...)
	return &c
}

func (f *fakeBookingRepo) InsertBooking(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forceInsertConflicts > 0 {
		f.forceInsertConflicts--
		return fmt.Errorf("%w: booking code %s already exists", models.ErrConflict, booking.BookingCode)
	}
	if f.codes[booking.BookingCode] {
		return fmt.Errorf("%w: booking code %s already exists", models.ErrConflict, booking.BookingCode)
	}
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	f.codes[booking.BookingCode] = true
	stored := copyBooking(booking)
	// BSON datetimes come back in UTC with the original offset gone;
	// storing the same way keeps the fake honest about timezone handling.
	stored.EventDateTime = stored.EventDateTime.UTC()
	f.bookings[booking.ID] = stored
	return nil
}

func (f *fakeBookingRepo) GetBookingByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, id.Hex())
	}
	return copyBooking(b), nil
}

func (f *fakeBookingRepo) ListBookingsByCustomer(_ context.Context, customerID primitive.ObjectID, status *models.PaymentStatus) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Booking
	for _, b := range f.bookings {
		if b.Customer.CustomerID != customerID {
			continue
		}
		if status != nil && b.PaymentStatus != *status {
			continue
		}
		out = append(out, copyBooking(b))
	}
	return out, nil
}

func (f *fakeBookingRepo) ListBookings(_ context.Context, offset, limit int) ([]*models.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Booking
	for _, b := range f.bookings {
		out = append(out, copyBooking(b))
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeBookingRepo) casLocked(id primitive.ObjectID, version int64) (*models.Booking, error) {
	if f.forceCASConflicts > 0 {
		f.forceCASConflicts--
		return nil, fmt.Errorf("%w: booking %s was modified concurrently", models.ErrConflict, id.Hex())
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, id.Hex())
	}
	if b.Version != version {
		return nil, fmt.Errorf("%w: booking %s was modified concurrently", models.ErrConflict, id.Hex())
	}
	return b, nil
}

func (f *fakeBookingRepo) AppendPayment(_ context.Context, id primitive.ObjectID, version int64, payment models.Payment, status models.PaymentStatus, log *models.StatusLog) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.casLocked(id, version)
	if err != nil {
		return nil, err
	}
	b.Payments = append(b.Payments, payment)
	if log != nil {
		b.StatusLogs = append(b.StatusLogs, *log)
	}
	b.PaymentStatus = status
	b.Version++
	b.UpdatedAt = time.Now()
	return copyBooking(b), nil
}

func (f *fakeBookingRepo) SetStatus(_ context.Context, id primitive.ObjectID, version int64, status models.PaymentStatus, log models.StatusLog) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.casLocked(id, version)
	if err != nil {
		return nil, err
	}
	b.PaymentStatus = status
	b.StatusLogs = append(b.StatusLogs, log)
	b.Version++
	b.UpdatedAt = time.Now()
	return copyBooking(b), nil
}

func (f *fakeBookingRepo) ReviseMenus(_ context.Context, id primitive.ObjectID, version int64, menus []string, extraCount int, extraCost, total models.Money) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.casLocked(id, version)
	if err != nil {
		return nil, err
	}
	b.SelectedMenus = append([]string(nil), menus...)
	b.ExtraMenuCount = extraCount
	b.ExtraMenuCost = extraCost
	b.TotalPrice = total
	b.Version++
	b.UpdatedAt = time.Now()
	return copyBooking(b), nil
}

func (f *fakeBookingRepo) ClaimDateSlot(_ context.Context, date string, maxPerDay int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	day := f.slots[date]
	if day == nil {
		day = make(map[int]bool)
		f.slots[date] = day
	}
	for slot := 0; slot < maxPerDay; slot++ {
		if !day[slot] {
			day[slot] = true
			return slot, nil
		}
	}
	return 0, fmt.Errorf("%w: date %s is fully booked", models.ErrCapacityExceeded, date)
}

func (f *fakeBookingRepo) ReleaseDateSlot(_ context.Context, date string, slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if day := f.slots[date]; day != nil {
		delete(day, slot)
	}
	return nil
}

func (f *fakeBookingRepo) CountBookingsByDate(_ context.Context, start, end time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	startKey := start.Format("2006-01-02")
	endKey := end.Format("2006-01-02")
	counts := make(map[string]int)
	for _, b := range f.bookings {
		if b.PaymentStatus == models.StatusCancelled {
			continue
		}
		if b.EventDate < startKey || b.EventDate > endKey {
			continue
		}
		counts[b.EventDate]++
	}
	return counts, nil
}

func (f *fakeBookingRepo) claimedSlots(date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slots[date])
}

type fakePackageRepo struct {
	packages map[primitive.ObjectID]*models.MenuPackage
	// updates records every $set document handed to UpdatePackage.
	updates []map[string]interface{}
}

func (f *fakePackageRepo) GetPackageByID(_ context.Context, id primitive.ObjectID) (*models.MenuPackage, error) {
	p, ok := f.packages[id]
	if !ok {
		return nil, fmt.Errorf("%w: package %s", models.ErrNotFound, id.Hex())
	}
	return p, nil
}

func (f *fakePackageRepo) GetPackageByPrice(_ context.Context, price models.Money) (*models.MenuPackage, error) {
	for _, p := range f.packages {
		if p.Price.Equal(price) {
			return p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakePackageRepo) ListPackages(_ context.Context) ([]*models.MenuPackage, error) {
	var out []*models.MenuPackage
	for _, p := range f.packages {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePackageRepo) CreatePackage(_ context.Context, pkg *models.MenuPackage) (*models.MenuPackage, error) {
	if pkg.ID.IsZero() {
		pkg.ID = primitive.NewObjectID()
	}
	f.packages[pkg.ID] = pkg
	return pkg, nil
}

func (f *fakePackageRepo) UpdatePackage(_ context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.MenuPackage, error) {
	f.updates = append(f.updates, update)
	return f.GetPackageByID(context.Background(), id)
}

func (f *fakePackageRepo) DeletePackage(_ context.Context, id primitive.ObjectID) error {
	delete(f.packages, id)
	return nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id.Hex())
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, username)
}

type captureNotifier struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (n *captureNotifier) Notify(_ context.Context, event BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) eventNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var names []string
	for _, e := range n.events {
		names = append(names, e.Event)
	}
	return names
}

type testEnv struct {
	service    *BookingService
	bookings   *fakeBookingRepo
	notifier   *captureNotifier
	customerID primitive.ObjectID
	packageID  primitive.ObjectID
}

func newTestEnv(t *testing.T, maxPerDay int) *testEnv {
	t.Helper()

	bookings := newFakeBookingRepo()
	notifier := &captureNotifier{}

	customer := &models.User{
		ID:        primitive.NewObjectID(),
		Title:     "Mr.",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		Username:  "somchai",
		Email:     "somchai@example.com",
		Phone:     "0812345678",
		Role:      "customer",
	}
	users := &fakeUserRepo{users: map[primitive.ObjectID]*models.User{customer.ID: customer}}

	pkg := &models.MenuPackage{
		ID:             primitive.NewObjectID(),
		Name:           "Standard Set",
		Price:          models.MoneyFromBaht(2000),
		Menus:          []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
		MaxSelect:      8,
		ExtraMenuPrice: models.MoneyFromBaht(200),
	}
	packages := &fakePackageRepo{packages: map[primitive.ObjectID]*models.MenuPackage{pkg.ID: pkg}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewBookingService(bookings, packages, users, notifier, logger, maxPerDay)
	service.SetRandSource(rand.New(rand.NewSource(1)))

	return &testEnv{
		service:    service,
		bookings:   bookings,
		notifier:   notifier,
		customerID: customer.ID,
		packageID:  pkg.ID,
	}
}

func (e *testEnv) createRequest(menus int) CreateBookingRequest {
	selected := make([]string, menus)
	for i := range selected {
		selected[i] = fmt.Sprintf("menu-%d", i)
	}
	return CreateBookingRequest{
		CustomerID:    e.customerID,
		PackageID:     e.packageID,
		EventDateTime: time.Now().AddDate(0, 1, 0),
		TableCount:    10,
		SelectedMenus: selected,
		Location:      models.EventLocation{Address: "99 Moo 4, Nonthaburi"},
	}
}

var bookingCodePattern = regexp.MustCompile(`^BK-\d{8}\d{4}$`)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t, 2)

	booking, err := env.service.CreateBooking(context.Background(), env.createRequest(10))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if !bookingCodePattern.MatchString(booking.BookingCode) {
		t.Errorf("booking code %q does not match BK-YYYYMMDD####", booking.BookingCode)
	}
	if booking.PaymentStatus != models.StatusPendingDeposit {
		t.Errorf("status = %s, want pending-deposit", booking.PaymentStatus)
	}
	if booking.TotalPrice.String() != "24000.00" {
		t.Errorf("total = %s, want 24000.00", booking.TotalPrice)
	}
	if booking.DepositRequired.String() != "7200.00" {
		t.Errorf("deposit = %s, want 7200.00", booking.DepositRequired)
	}
	if len(booking.Payments) != 0 {
		t.Errorf("new booking has %d payments, want 0", len(booking.Payments))
	}
	if len(booking.StatusLogs) != 1 || booking.StatusLogs[0].Status != models.StatusPendingDeposit {
		t.Errorf("new booking should carry one pending-deposit status log, got %+v", booking.StatusLogs)
	}
	if booking.Customer.Name != "Mr. Somchai Jaidee" {
		t.Errorf("customer snapshot name = %q", booking.Customer.Name)
	}
	if got := env.notifier.eventNames(); len(got) != 1 || got[0] != "booking.created" {
		t.Errorf("notifier events = %v, want [booking.created]", got)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t, 2)

	req := env.createRequest(8)
	req.TableCount = 0
	if _, err := env.service.CreateBooking(context.Background(), req); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("zero tables error = %v, want ErrInvalidArgument", err)
	}

	req = env.createRequest(8)
	req.EventDateTime = time.Now().AddDate(0, 0, -1)
	if _, err := env.service.CreateBooking(context.Background(), req); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("past date error = %v, want ErrInvalidArgument", err)
	}

	req = env.createRequest(8)
	req.PackageID = primitive.NewObjectID()
	if _, err := env.service.CreateBooking(context.Background(), req); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown package error = %v, want ErrNotFound", err)
	}
}

func TestCreateBookingDailyCap(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.service.CreateBooking(ctx, env.createRequest(8)); err != nil {
			t.Fatalf("booking %d: %v", i+1, err)
		}
	}

	_, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if !errors.Is(err, models.ErrCapacityExceeded) {
		t.Fatalf("third booking error = %v, want ErrCapacityExceeded", err)
	}
}

func TestCancelFreesDailyCapacity(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	first, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := env.service.CreateBooking(ctx, env.createRequest(8)); !errors.Is(err, models.ErrCapacityExceeded) {
		t.Fatalf("expected the day to be full, got %v", err)
	}

	if _, err := env.service.CancelBooking(ctx, first.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	if _, err := env.service.CreateBooking(ctx, env.createRequest(8)); err != nil {
		t.Fatalf("booking after cancellation: %v", err)
	}
}

func TestCancelFreesCapacityAcrossTimezones(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	// An early-morning +07:00 event falls on the previous calendar day in
	// UTC, which is how the datetime comes back from the database. The
	// capacity key must survive that round trip.
	bangkok := time.FixedZone("ICT", 7*60*60)
	req := env.createRequest(8)
	req.EventDateTime = time.Date(2027, 3, 15, 2, 0, 0, 0, bangkok)

	booking, err := env.service.CreateBooking(ctx, req)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.EventDate != "2027-03-15" {
		t.Fatalf("event date = %q, want 2027-03-15", booking.EventDate)
	}

	if _, err := env.service.CancelBooking(ctx, booking.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if got := env.bookings.claimedSlots("2027-03-15"); got != 0 {
		t.Fatalf("claimed slots after cancel = %d, want 0", got)
	}

	// The day is usable again under the same key.
	again := env.createRequest(8)
	again.EventDateTime = time.Date(2027, 3, 15, 2, 0, 0, 0, bangkok)
	if _, err := env.service.CreateBooking(ctx, again); err != nil {
		t.Fatalf("booking after cross-timezone cancellation: %v", err)
	}
}

func TestCreateBookingCodeRetry(t *testing.T) {
	env := newTestEnv(t, 2)
	env.bookings.forceInsertConflicts = 2

	booking, err := env.service.CreateBooking(context.Background(), env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking with collisions: %v", err)
	}
	if !bookingCodePattern.MatchString(booking.BookingCode) {
		t.Errorf("booking code %q malformed after retries", booking.BookingCode)
	}
}

func TestCreateBookingCodeExhaustion(t *testing.T) {
	env := newTestEnv(t, 2)
	env.bookings.forceInsertConflicts = codeRetryLimit

	req := env.createRequest(8)
	_, err := env.service.CreateBooking(context.Background(), req)
	if !errors.Is(err, models.ErrCodeGenerationFailed) {
		t.Fatalf("error = %v, want ErrCodeGenerationFailed", err)
	}

	// The claimed slot must be handed back so the date is not burned.
	date := req.EventDateTime.Format("2006-01-02")
	if got := env.bookings.claimedSlots(date); got != 0 {
		t.Errorf("claimed slots after failure = %d, want 0", got)
	}
}

func TestRecordPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(10))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// Deposit moves pending-deposit to deposit-paid.
	updated, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(7200), models.PaymentDeposit, "slip-001")
	if err != nil {
		t.Fatalf("deposit payment: %v", err)
	}
	if updated.PaymentStatus != models.StatusDepositPaid {
		t.Errorf("status after deposit = %s, want deposit-paid", updated.PaymentStatus)
	}

	// A partial balance payment leaves the status alone.
	updated, err = env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(800), models.PaymentBalance, "")
	if err != nil {
		t.Fatalf("partial balance payment: %v", err)
	}
	if updated.PaymentStatus != models.StatusDepositPaid {
		t.Errorf("status after partial balance = %s, want deposit-paid", updated.PaymentStatus)
	}

	// The closing balance payment reaches the total and completes the booking.
	updated, err = env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(16000), models.PaymentBalance, "slip-002")
	if err != nil {
		t.Fatalf("closing balance payment: %v", err)
	}
	if updated.PaymentStatus != models.StatusFullPayment {
		t.Errorf("status after closing balance = %s, want full-payment", updated.PaymentStatus)
	}
	if len(updated.Payments) != 3 {
		t.Errorf("ledger has %d entries, want 3", len(updated.Payments))
	}
	if !updated.PaymentsTotal().Equal(updated.TotalPrice) {
		t.Errorf("ledger total = %s, want %s", updated.PaymentsTotal(), updated.TotalPrice)
	}
}

func TestRecordPaymentRejections(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(0), models.PaymentDeposit, ""); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("zero amount error = %v, want ErrInvalidArgument", err)
	}
	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(100), models.PaymentType("tip"), ""); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("unknown type error = %v, want ErrInvalidArgument", err)
	}

	if _, err := env.service.CancelBooking(ctx, booking.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(100), models.PaymentDeposit, ""); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("payment on cancelled error = %v, want ErrInvalidState", err)
	}
}

func TestRecordPaymentRetriesLostRace(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	env.bookings.forceCASConflicts = 1
	updated, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(6000), models.PaymentDeposit, "")
	if err != nil {
		t.Fatalf("RecordPayment after lost race: %v", err)
	}
	if updated.PaymentStatus != models.StatusDepositPaid {
		t.Errorf("status = %s, want deposit-paid", updated.PaymentStatus)
	}
	if len(updated.Payments) != 1 {
		t.Errorf("ledger has %d entries, want exactly 1", len(updated.Payments))
	}
}

func TestCancelBookingOnlyFromPendingDeposit(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(6000), models.PaymentDeposit, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	_, err = env.service.CancelBooking(ctx, booking.ID)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("cancel after deposit error = %v, want ErrInvalidState", err)
	}
}

func TestOverrideStatus(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	updated, err := env.service.OverrideStatus(ctx, booking.ID, models.StatusFullPayment, "paid in cash on site")
	if err != nil {
		t.Fatalf("OverrideStatus: %v", err)
	}
	if updated.PaymentStatus != models.StatusFullPayment {
		t.Errorf("status = %s, want full-payment", updated.PaymentStatus)
	}
	last := updated.StatusLogs[len(updated.StatusLogs)-1]
	if last.Message != "paid in cash on site" {
		t.Errorf("status log message = %q", last.Message)
	}

	if _, err := env.service.OverrideStatus(ctx, booking.ID, models.PaymentStatus("refunded"), ""); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("unknown status error = %v, want ErrInvalidArgument", err)
	}
}

func TestOverrideStatusRefusesRewindAfterPayments(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(6000), models.PaymentDeposit, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	_, err = env.service.OverrideStatus(ctx, booking.ID, models.StatusPendingDeposit, "")
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("rewind error = %v, want ErrInvalidState", err)
	}
}

func TestOverrideStatusToCancelledFreesCapacity(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(6000), models.PaymentDeposit, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	// Paid bookings cannot be customer-cancelled, but the admin path can
	// cancel them and must hand the day back.
	if _, err := env.service.OverrideStatus(ctx, booking.ID, models.StatusCancelled, "customer refunded offline"); err != nil {
		t.Fatalf("OverrideStatus: %v", err)
	}
	if _, err := env.service.CreateBooking(ctx, env.createRequest(8)); err != nil {
		t.Fatalf("booking after admin cancellation: %v", err)
	}

	// An admin cancellation notifies downstream just like a customer one.
	cancelled := 0
	for _, name := range env.notifier.eventNames() {
		if name == "booking.cancelled" {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Errorf("booking.cancelled events = %d, want 1", cancelled)
	}
}

func TestReviseMenusReprices(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	originalDeposit := booking.DepositRequired

	menus := make([]string, 10)
	for i := range menus {
		menus[i] = fmt.Sprintf("menu-%d", i)
	}
	updated, err := env.service.ReviseMenus(ctx, booking.ID, menus)
	if err != nil {
		t.Fatalf("ReviseMenus: %v", err)
	}

	if updated.ExtraMenuCount != 2 {
		t.Errorf("extra menu count = %d, want 2", updated.ExtraMenuCount)
	}
	if updated.TotalPrice.String() != "24000.00" {
		t.Errorf("total after revision = %s, want 24000.00", updated.TotalPrice)
	}
	// The deposit is fixed at creation and never follows a revision.
	if !updated.DepositRequired.Equal(originalDeposit) {
		t.Errorf("deposit changed from %s to %s", originalDeposit, updated.DepositRequired)
	}
}

func TestReviseMenusCeiling(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// Free limit 8, default bonus 2: an 11th selection is refused.
	menus := make([]string, 11)
	for i := range menus {
		menus[i] = fmt.Sprintf("menu-%d", i)
	}
	_, err = env.service.ReviseMenus(ctx, booking.ID, menus)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("over-ceiling error = %v, want ErrInvalidArgument", err)
	}
}

func TestReviseMenusBlockedAfterFullPayment(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	booking, err := env.service.CreateBooking(ctx, env.createRequest(8))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := env.service.RecordPayment(ctx, booking.ID, models.MoneyFromBaht(20000), models.PaymentFull, ""); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	_, err = env.service.ReviseMenus(ctx, booking.ID, []string{"menu-0"})
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("revision after full payment error = %v, want ErrInvalidState", err)
	}
}

func TestDateAvailability(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	req := env.createRequest(8)
	if _, err := env.service.CreateBooking(ctx, req); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	start := req.EventDateTime.AddDate(0, 0, -1)
	end := req.EventDateTime.AddDate(0, 0, 1)
	counts, err := env.service.DateAvailability(ctx, start, end)
	if err != nil {
		t.Fatalf("DateAvailability: %v", err)
	}

	if len(counts) != 3 {
		t.Errorf("availability has %d days, want 3 (zero-filled)", len(counts))
	}
	if got := counts[req.EventDateTime.Format("2006-01-02")]; got != 1 {
		t.Errorf("event date count = %d, want 1", got)
	}
	if got := counts[start.Format("2006-01-02")]; got != 0 {
		t.Errorf("empty day count = %d, want 0", got)
	}

	if _, err := env.service.DateAvailability(ctx, end, start); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("inverted range error = %v, want ErrInvalidArgument", err)
	}
}
