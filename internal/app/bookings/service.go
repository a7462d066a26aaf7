package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"albergo/internal/app/apperrors"
	"albergo/internal/app/outbox"
	"albergo/internal/app/policies"
	"albergo/internal/domain/booking"
	"albergo/internal/domain/listings"
	"albergo/internal/domain/pricing"
	"albergo/internal/domain/shared/daterange"
)

var (
	ErrSelfBooking       = errors.New("bookings: guests cannot book their own listing")
	ErrListingInactive   = errors.New("bookings: listing is not accepting reservations")
	ErrTooManyGuests     = errors.New("bookings: guest count exceeds listing capacity")
	ErrStayTooShort      = errors.New("bookings: stay is shorter than the listing minimum")
	ErrStayTooLong       = errors.New("bookings: stay is longer than the listing maximum")
	ErrDatesUnavailable  = errors.New("bookings: requested dates overlap an existing booking")
	ErrPaymentNotSettled = errors.New("bookings: payment has not settled yet")
)

// PricingConfig holds the platform-wide percentages applied to every quote,
// in basis points.
type PricingConfig struct {
	ServiceFeeBps int64
	TaxBps        int64
	CommissionBps int64
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		ServiceFeeBps: pricing.DefaultServiceFeeBps,
		TaxBps:        pricing.DefaultTaxBps,
		CommissionBps: pricing.DefaultCommissionBps,
	}
}

// Service owns the booking lifecycle: it validates reservation requests,
// checks availability, freezes the price, persists the booking, and guards
// every later transition. All durable state lives behind the injected
// repositories; the service itself keeps no mutable state.
type Service struct {
	Bookings booking.Repository
	Listings listings.Repository
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Locks    policies.ReservationLocks
	Payments policies.Payments
	Pricing  PricingConfig
	Logger   *slog.Logger

	// Overridable for tests.
	Now          func() time.Time
	NewID        func() string
	NewReference func(time.Time) string
}

type CreateParams struct {
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          booking.Guests
	SpecialRequests string
}

// Outcome tags how a create request was satisfied.
type Outcome string

const (
	// OutcomePersisted means the booking reached the persistence gateway.
	OutcomePersisted Outcome = "PERSISTED"
	// OutcomeDegraded means the gateway was unreachable and the engine
	// answered with a locally synthesized record that needs reconciliation.
	OutcomeDegraded Outcome = "DEGRADED"
)

type CreateResult struct {
	Booking *booking.Booking
	Outcome Outcome
}

// Create runs the full reservation flow. On success the booking is pending,
// or confirmed immediately when the listing is instant-bookable. At most one
// of two concurrent overlapping requests for the same listing can succeed:
// the per-listing lock serializes check-then-insert, and the storage layer's
// write-conflict detection backstops it.
func (s *Service) Create(ctx context.Context, params CreateParams) (CreateResult, error) {
	dr, err := daterange.New(params.CheckIn, params.CheckOut)
	if err != nil {
		return CreateResult{}, apperrors.Invalid(err)
	}
	if err := params.Guests.Validate(); err != nil {
		return CreateResult{}, apperrors.Invalid(err)
	}

	listing, err := s.Listings.ByID(ctx, listings.ListingID(params.ListingID))
	if err != nil {
		if errors.Is(err, listings.ErrNotFound) {
			return CreateResult{}, apperrors.NotFound(err)
		}
		return CreateResult{}, apperrors.Internal(err)
	}
	if !listing.Bookable() {
		return CreateResult{}, apperrors.Invalid(ErrListingInactive)
	}
	if params.GuestID == string(listing.Host) {
		return CreateResult{}, apperrors.Invalid(ErrSelfBooking)
	}
	if params.Guests.Counted() > listing.MaxGuests {
		return CreateResult{}, apperrors.Invalid(ErrTooManyGuests)
	}
	nights := dr.Nights()
	if nights < listing.MinNightsOrDefault() {
		return CreateResult{}, apperrors.Invalid(ErrStayTooShort)
	}
	if listing.MaxNights > 0 && nights > listing.MaxNights {
		return CreateResult{}, apperrors.Invalid(ErrStayTooLong)
	}

	if s.Locks != nil {
		release, err := s.Locks.Acquire(ctx, params.ListingID)
		if err != nil {
			return CreateResult{}, apperrors.Conflict(fmt.Errorf("reservation lock: %w", err))
		}
		defer release(ctx)
	}

	available, err := s.isAvailable(ctx, listing.ID, dr)
	if err != nil {
		return CreateResult{}, apperrors.Internal(err)
	}
	if !available {
		return CreateResult{}, apperrors.Conflict(ErrDatesUnavailable)
	}

	// The only moment the live listing rate is read; the breakdown is
	// frozen on the booking from here on.
	quote, err := pricing.Calculate(pricing.Params{
		Nights:        nights,
		NightlyRate:   listing.NightlyRate(),
		CleaningFee:   listing.CleaningFee(),
		ServiceFeeBps: s.Pricing.ServiceFeeBps,
		TaxBps:        s.Pricing.TaxBps,
		CommissionBps: s.Pricing.CommissionBps,
	})
	if err != nil {
		return CreateResult{}, apperrors.Invalid(err)
	}

	now := s.now()
	b, err := booking.NewBooking(booking.CreateParams{
		ID:              booking.BookingID(s.newID()),
		Reference:       s.newReference(now),
		ListingID:       listing.ID,
		GuestID:         params.GuestID,
		HostID:          string(listing.Host),
		Range:           dr,
		Guests:          params.Guests,
		Price:           quote,
		InstantBook:     listing.InstantBook,
		SpecialRequests: params.SpecialRequests,
		Now:             now,
	})
	if err != nil {
		return CreateResult{}, apperrors.Invalid(err)
	}

	if err := s.Bookings.Save(ctx, b); err != nil {
		if errors.Is(err, booking.ErrWriteConflict) {
			return CreateResult{}, apperrors.Conflict(ErrDatesUnavailable)
		}
		return s.degradedCreate(ctx, b, err)
	}

	if err := s.Listings.IncrementBookings(ctx, listing.ID); err != nil {
		s.logger().Warn("booking counter increment failed", "listing_id", listing.ID, "error", err)
	}
	s.drainEvents(ctx, b)
	return CreateResult{Booking: b, Outcome: OutcomePersisted}, nil
}

// degradedCreate is the documented storage-outage path: the engine reports a
// successful booking with a clearly tagged offline status instead of losing
// the reservation, and callers reconcile later.
func (s *Service) degradedCreate(ctx context.Context, b *booking.Booking, cause error) (CreateResult, error) {
	s.logger().Error("persistence gateway unreachable, degrading booking create",
		"booking_id", b.ID, "reference", b.Reference, "error", cause)
	b.DegradeToOfflineSync(s.now())
	s.drainEvents(ctx, b)
	return CreateResult{Booking: b, Outcome: OutcomeDegraded}, nil
}

// Confirm approves a pending reservation. Host action.
func (s *Service) Confirm(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error) {
	return s.transition(ctx, id, func(b *booking.Booking) error {
		return b.Confirm(actor, s.now())
	})
}

// Cancel cancels a pending or confirmed booking, recording who did it and why.
func (s *Service) Cancel(ctx context.Context, actor booking.Actor, id, reason string) (*booking.Booking, error) {
	return s.transition(ctx, id, func(b *booking.Booking) error {
		return b.Cancel(actor, reason, s.now())
	})
}

// Complete closes a confirmed stay once checkout has passed. Host or admin.
func (s *Service) Complete(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error) {
	return s.transition(ctx, id, func(b *booking.Booking) error {
		return b.Complete(actor, s.now())
	})
}

// ConfirmPayment asks the payment provider whether the referenced payment
// settled and advances the booking's payment axis accordingly. The booking is
// loaded and the actor authorized first, so a bogus id or a stranger never
// reaches the provider.
func (s *Service) ConfirmPayment(ctx context.Context, actor booking.Actor, id, paymentRef string) (*booking.Booking, error) {
	if s.Payments == nil {
		return nil, apperrors.Internal(errors.New("bookings: payments port not configured"))
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actor) {
		return nil, apperrors.Forbidden(booking.ErrActorNotAllowed)
	}
	outcome, err := s.Payments.ConfirmationStatus(ctx, paymentRef)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("payment confirmation: %w", err))
	}
	switch outcome {
	case policies.PaymentOutcomePaid:
		b.MarkPaid(s.now())
	case policies.PaymentOutcomeFailed:
		b.MarkPaymentFailed(s.now())
	default:
		return nil, apperrors.Invalid(ErrPaymentNotSettled)
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		if errors.Is(err, booking.ErrWriteConflict) {
			return nil, apperrors.Conflict(err)
		}
		return nil, apperrors.Internal(err)
	}
	s.drainEvents(ctx, b)
	return b, nil
}

// GetByID returns a booking to its guest, its host, or an admin.
func (s *Service) GetByID(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actor) {
		return nil, apperrors.Forbidden(booking.ErrActorNotAllowed)
	}
	return b, nil
}

func (s *Service) ListForGuest(ctx context.Context, guestID string) ([]*booking.Booking, error) {
	items, err := s.Bookings.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) ListForHost(ctx context.Context, hostID string, status booking.Status) ([]*booking.Booking, error) {
	items, err := s.Bookings.ListByHost(ctx, hostID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if status == "" {
		return items, nil
	}
	filtered := items[:0:0]
	for _, b := range items {
		if b.Status == status {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// transition loads a booking, applies the guarded mutation, and persists the
// result. Every operation except create fails closed on storage errors.
func (s *Service) transition(ctx context.Context, id string, mutate func(*booking.Booking) error) (*booking.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(b); err != nil {
		switch {
		case errors.Is(err, booking.ErrActorNotAllowed):
			return nil, apperrors.Forbidden(err)
		case errors.Is(err, booking.ErrInvalidTransition),
			errors.Is(err, booking.ErrStayNotEnded):
			return nil, apperrors.Invalid(err)
		default:
			return nil, apperrors.Internal(err)
		}
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		if errors.Is(err, booking.ErrWriteConflict) {
			return nil, apperrors.Conflict(err)
		}
		return nil, apperrors.Internal(err)
	}
	s.drainEvents(ctx, b)
	return b, nil
}

func (s *Service) load(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := s.Bookings.ByID(ctx, booking.BookingID(id))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, apperrors.NotFound(err)
		}
		return nil, apperrors.Internal(err)
	}
	return b, nil
}

// drainEvents hands recorded domain events to the outbox. The booking has
// already won at this point, so outbox trouble is logged, never propagated.
func (s *Service) drainEvents(ctx context.Context, b *booking.Booking) {
	evs := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, evs); err != nil {
		s.logger().Warn("outbox write failed, notifications may be delayed",
			"booking_id", b.ID, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) newReference(now time.Time) string {
	if s.NewReference != nil {
		return s.NewReference(now)
	}
	return booking.NewReference(now)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
