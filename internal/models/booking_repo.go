package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BookingColName = "bookings"
	SlotColName    = "booking_slots"
)

// BookingRepo is the persistence boundary for the booking aggregate. Every
// mutation takes the version the caller read; the store applies it only if
// the document still carries that version, otherwise it returns ErrConflict
// so the service can re-read and retry. InsertBooking relies on the unique
// booking_code index and reports a collision as ErrConflict.
type BookingRepo interface {
	InsertBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID primitive.ObjectID, status *PaymentStatus) ([]*Booking, error)
	ListBookings(ctx context.Context, offset, limit int) ([]*Booking, int, error)
	AppendPayment(ctx context.Context, id primitive.ObjectID, version int64, payment Payment, status PaymentStatus, log *StatusLog) (*Booking, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, version int64, status PaymentStatus, log StatusLog) (*Booking, error)
	ReviseMenus(ctx context.Context, id primitive.ObjectID, version int64, menus []string, extraCount int, extraCost, total Money) (*Booking, error)
	ClaimDateSlot(ctx context.Context, date string, maxPerDay int) (int, error)
	ReleaseDateSlot(ctx context.Context, date string, slot int) error
	CountBookingsByDate(ctx context.Context, start, end time.Time) (map[string]int, error)
}

// dateSlot claims one unit of per-day capacity. The unique (event_date,
// slot) index makes the claim race-safe: of two concurrent inserts for the
// same ordinal exactly one succeeds.
type dateSlot struct {
	EventDate string    `bson:"event_date"`
	Slot      int       `bson:"slot"`
	ClaimedAt time.Time `bson:"claimed_at"`
}

// EnsureIndexes creates the unique constraints the booking core depends on.
// Called once at startup; index creation is idempotent.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	bookings, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return err
	}
	if _, err := bookings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_code", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create booking_code index: %v", err)
	}

	slots, err := mdb.GetCollection(ctx, CateringDbName, SlotColName)
	if err != nil {
		return err
	}
	if _, err := slots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_date", Value: 1}, {Key: "slot", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create booking_slots index: %v", err)
	}

	users, err := mdb.GetCollection(ctx, CateringDbName, UserColName)
	if err != nil {
		return err
	}
	for _, field := range []string{"username", "email", "phone"} {
		if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}); err != nil {
			return fmt.Errorf("failed to create users.%s index: %v", field, err)
		}
	}

	packages, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return err
	}
	if _, err := packages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "price", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create packages.price index: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) InsertBooking(ctx context.Context, booking *Booking) error {
	col, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: booking code %s already exists", ErrConflict, booking.BookingCode)
		}
		return fmt.Errorf("error inserting booking: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var booking Booking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking: %v", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) ListBookingsByCustomer(ctx context.Context, customerID primitive.ObjectID, status *PaymentStatus) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{"customer.customer_id": customerID}
	if status != nil {
		filter["payment_status"] = *status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %v", err)
	}
	defer cursor.Close(ctx)

	var bookings []*Booking
	for cursor.Next(ctx) {
		var b Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %v", err)
		}
		bookings = append(bookings, &b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return bookings, nil
}

func (mdb *MongodbRepo) ListBookings(ctx context.Context, offset, limit int) ([]*Booking, int, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %v", err)
	}

	total, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing bookings: %v", err)
	}
	defer cursor.Close(ctx)

	var bookings []*Booking
	for cursor.Next(ctx) {
		var b Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, 0, fmt.Errorf("error decoding booking: %v", err)
		}
		bookings = append(bookings, &b)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %v", err)
	}
	return bookings, int(total), nil
}

// casUpdate runs a FindOneAndUpdate guarded by the optimistic version and
// distinguishes a missing document from a lost race.
func (mdb *MongodbRepo) casUpdate(ctx context.Context, id primitive.ObjectID, version int64, update bson.M) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updated_at"] = time.Now()
	update["$inc"] = bson.M{"version": 1}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id, "version": version}

	var booking Booking
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, countErr := col.CountDocuments(ctx, bson.M{"_id": id})
		if countErr == nil && n == 0 {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("%w: booking %s was modified concurrently", ErrConflict, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error updating booking: %v", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) AppendPayment(ctx context.Context, id primitive.ObjectID, version int64, payment Payment, status PaymentStatus, log *StatusLog) (*Booking, error) {
	push := bson.M{"payments": payment}
	if log != nil {
		push = bson.M{"payments": payment, "status_logs": *log}
	}
	return mdb.casUpdate(ctx, id, version, bson.M{
		"$push": push,
		"$set":  bson.M{"payment_status": status},
	})
}

func (mdb *MongodbRepo) SetStatus(ctx context.Context, id primitive.ObjectID, version int64, status PaymentStatus, log StatusLog) (*Booking, error) {
	return mdb.casUpdate(ctx, id, version, bson.M{
		"$push": bson.M{"status_logs": log},
		"$set":  bson.M{"payment_status": status},
	})
}

func (mdb *MongodbRepo) ReviseMenus(ctx context.Context, id primitive.ObjectID, version int64, menus []string, extraCount int, extraCost, total Money) (*Booking, error) {
	return mdb.casUpdate(ctx, id, version, bson.M{
		"$set": bson.M{
			"selected_menus":   menus,
			"extra_menu_count": extraCount,
			"extra_menu_cost":  extraCost,
			"total_price":      total,
		},
	})
}

func (mdb *MongodbRepo) ClaimDateSlot(ctx context.Context, date string, maxPerDay int) (int, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, SlotColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %v", err)
	}

	for slot := 0; slot < maxPerDay; slot++ {
		_, err := col.InsertOne(ctx, dateSlot{EventDate: date, Slot: slot, ClaimedAt: time.Now()})
		if err == nil {
			return slot, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return 0, fmt.Errorf("error claiming date slot: %v", err)
	}
	return 0, fmt.Errorf("%w: date %s is fully booked", ErrCapacityExceeded, date)
}

func (mdb *MongodbRepo) ReleaseDateSlot(ctx context.Context, date string, slot int) error {
	col, err := mdb.GetCollection(ctx, CateringDbName, SlotColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.DeleteOne(ctx, bson.M{"event_date": date, "slot": slot}); err != nil {
		return fmt.Errorf("error releasing date slot: %v", err)
	}
	return nil
}

// CountBookingsByDate counts non-cancelled bookings per calendar day over
// [start, end] inclusive, for the availability calendar. It groups on the
// stored event_date key, the same string the slot claim uses, so the
// calendar and the capacity check can never disagree about which day a
// booking occupies.
func (mdb *MongodbRepo) CountBookingsByDate(ctx context.Context, start, end time.Time) (map[string]int, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"payment_status": bson.M{"$ne": StatusCancelled},
			"event_date": bson.M{
				"$gte": start.Format("2006-01-02"),
				"$lte": end.Format("2006-01-02"),
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$event_date",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating bookings by date: %v", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int)
	for cursor.Next(ctx) {
		var row struct {
			Date  string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("error decoding date count: %v", err)
		}
		counts[row.Date] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return counts, nil
}
