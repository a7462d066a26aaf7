package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"albergo/internal/app/policies"
	"albergo/internal/domain/booking"
	"albergo/internal/infra/broker/kafka"
)

// Worker consumes booking events from the broker and drives the notifier.
// It never returns an error to the consumer group: a notification that
// cannot be delivered is logged and dropped, it must not wedge the stream.
type Worker struct {
	Bookings booking.Repository
	Notifier policies.Notifier
	Logger   *slog.Logger
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type eventData struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
	GuestID   string `json:"guest_id"`
	HostID    string `json:"host_id"`
	Status    string `json:"status"`
}

func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		w.logger().Warn("notification event undecodable, dropping", "topic", msg.Topic, "error", err)
		return nil
	}
	var data eventData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.BookingID == "" {
		w.logger().Warn("notification event missing booking id, dropping", "type", env.Type)
		return nil
	}

	b, err := w.Bookings.ByID(ctx, booking.BookingID(data.BookingID))
	if err != nil {
		if !errors.Is(err, booking.ErrNotFound) {
			w.logger().Warn("booking lookup for notification failed", "booking_id", data.BookingID, "error", err)
			return nil
		}
		// Degraded-create bookings never reached storage; notify from the
		// event snapshot instead.
		b = &booking.Booking{
			ID:        booking.BookingID(data.BookingID),
			Reference: data.Reference,
			GuestID:   data.GuestID,
			HostID:    data.HostID,
			Status:    booking.Status(data.Status),
		}
	}

	if w.Notifier == nil {
		return nil
	}
	if err := w.Notifier.Notify(ctx, b); err != nil {
		w.logger().Warn("notification delivery failed", "booking_id", b.ID, "error", err)
	}
	return nil
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
