package services

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
)

// BookingEvent is the message pushed to the notification sink when a
// booking is created or cancelled. It carries enough for the downstream
// chat-message consumer to render a notification without touching the
// database.
type BookingEvent struct {
	Event         string `json:"event"`
	BookingID     string `json:"booking_id"`
	BookingCode   string `json:"booking_code"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PackageName   string `json:"package_name"`
	EventDateTime string `json:"event_datetime"`
	TableCount    int    `json:"table_count"`
	TotalPrice    string `json:"total_price"`
	OccurredAt    string `json:"occurred_at"`
}

// Notifier is the external messaging collaborator. Delivery is best effort:
// callers log a returned error and move on, never rolling back the booking
// transition that triggered it.
type Notifier interface {
	Notify(ctx context.Context, event BookingEvent) error
}

const bookingEventQueue = "booking.events"

// AmqpNotifier publishes booking events to a durable RabbitMQ queue. A
// connection is dialed per publish; this keeps the publisher stateless and
// the failure mode simple, which is all a fire-and-forget sink needs.
type AmqpNotifier struct {
	url string
}

func NewAmqpNotifier(url string) *AmqpNotifier {
	return &AmqpNotifier{url: url}
}

func (n *AmqpNotifier) Notify(ctx context.Context, event BookingEvent) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(bookingEventQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",
		bookingEventQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// NoopNotifier is used when no broker is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, event BookingEvent) error { return nil }

// NewBookingEvent flattens a booking into its notification payload.
func NewBookingEvent(event string, b *models.Booking) BookingEvent {
	return BookingEvent{
		Event:         event,
		BookingID:     b.ID.Hex(),
		BookingCode:   b.BookingCode,
		CustomerName:  b.Customer.Name,
		CustomerPhone: b.Customer.Phone,
		PackageName:   b.Package.Name,
		EventDateTime: b.EventDateTime.Format(time.RFC3339),
		TableCount:    b.TableCount,
		TotalPrice:    b.TotalPrice.String(),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
