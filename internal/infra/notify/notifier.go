package notify

import (
	"context"
	"fmt"
	"log/slog"

	"albergo/internal/domain/booking"
)

// EmailNotifier renders and hands off guest/host emails. Actual delivery is
// an external concern; this adapter records what would be sent and where.
type EmailNotifier struct {
	Logger *slog.Logger
	From   string
}

func (n *EmailNotifier) Notify(ctx context.Context, b *booking.Booking) error {
	guestSubject, hostSubject := subjectsFor(b)
	n.logger().Info("notification dispatched",
		"reference", b.Reference,
		"guest_id", b.GuestID,
		"guest_subject", guestSubject,
		"host_id", b.HostID,
		"host_subject", hostSubject,
		"from", n.From,
	)
	return nil
}

func subjectsFor(b *booking.Booking) (guest, host string) {
	switch b.Status {
	case booking.StatusPending:
		return fmt.Sprintf("Reservation request %s sent", b.Reference),
			fmt.Sprintf("New reservation request %s", b.Reference)
	case booking.StatusConfirmed, booking.StatusConfirmedOfflineSync:
		return fmt.Sprintf("Your stay %s is confirmed", b.Reference),
			fmt.Sprintf("Booking %s confirmed", b.Reference)
	case booking.StatusCancelled:
		return fmt.Sprintf("Booking %s was cancelled", b.Reference),
			fmt.Sprintf("Booking %s was cancelled", b.Reference)
	case booking.StatusCompleted:
		return fmt.Sprintf("Thanks for your stay %s", b.Reference),
			fmt.Sprintf("Stay %s completed", b.Reference)
	default:
		return fmt.Sprintf("Update on booking %s", b.Reference),
			fmt.Sprintf("Update on booking %s", b.Reference)
	}
}

func (n *EmailNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}
