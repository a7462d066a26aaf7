package policies

import (
	"context"

	"albergo/internal/domain/booking"
)

// Notifier delivers guest and host notifications for a booking. Delivery is
// strictly best-effort: the dispatcher task logs and swallows failures, and
// the booking engine never waits on it.
type Notifier interface {
	Notify(ctx context.Context, b *booking.Booking) error
}
