package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"albergo/internal/domain/listings"
	"albergo/internal/domain/pricing"
	"albergo/internal/domain/shared/daterange"
	"albergo/internal/domain/shared/events"
)

var (
	ErrNotFound = errors.New("booking: not found")
	// ErrWriteConflict is returned by repositories when an insert or update
	// loses a race (duplicate key, stale version). The engine translates it
	// into the same conflict outcome as a detected date overlap.
	ErrWriteConflict     = errors.New("booking: write conflict")
	ErrInvalidGuests     = errors.New("booking: guest composition is invalid")
	ErrInvalidTransition = errors.New("booking: invalid state transition")
	ErrActorNotAllowed   = errors.New("booking: actor may not perform this operation")
	ErrStayNotEnded      = errors.New("booking: stay has not ended yet")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	// StatusConfirmedOfflineSync marks a booking the engine accepted while
	// the persistence gateway was unreachable. It exists only on the
	// degraded create path and needs reconciliation before it can move
	// through the normal transition graph.
	StatusConfirmedOfflineSync Status = "CONFIRMED_OFFLINE_SYNC"
)

// PaymentStatus is an independent axis from the booking lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

type Role string

const (
	RoleGuest Role = "GUEST"
	RoleHost  Role = "HOST"
	RoleAdmin Role = "ADMIN"
)

// Actor identifies who is invoking a lifecycle operation. Authentication is
// established upstream; the engine only checks the relationship to the booking.
type Actor struct {
	ID   string
	Role Role
}

// Guests describes the stay party. Infants do not count against the
// listing's capacity.
type Guests struct {
	Adults   int  `json:"adults" bson:"adults"`
	Children int  `json:"children" bson:"children"`
	Infants  int  `json:"infants" bson:"infants"`
	ExtraBed bool `json:"extra_bed" bson:"extra_bed"`
}

// Counted returns the number of guests that occupy listing capacity.
func (g Guests) Counted() int {
	return g.Adults + g.Children
}

func (g Guests) Validate() error {
	if g.Adults < 1 || g.Children < 0 || g.Infants < 0 {
		return ErrInvalidGuests
	}
	return nil
}

// Cancellation records who cancelled a booking and why.
type Cancellation struct {
	By     string    `json:"by" bson:"by"`
	Role   Role      `json:"role" bson:"role"`
	Reason string    `json:"reason" bson:"reason"`
	At     time.Time `json:"at" bson:"at"`
}

// Booking is the central aggregate. HostID is copied from the listing at
// creation and stays immutable even if the listing later changes hands; the
// price breakdown is frozen the same way.
type Booking struct {
	ID              BookingID
	Reference       string
	ListingID       listings.ListingID
	GuestID         string
	HostID          string
	Range           daterange.DateRange
	Nights          int
	Guests          Guests
	Price           pricing.Breakdown
	Status          Status
	Payment         PaymentStatus
	Cancellation    *Cancellation
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	// ActiveByListing returns bookings in {pending, confirmed} for a listing;
	// cancelled and completed stays never block new reservations.
	ActiveByListing(ctx context.Context, id listings.ListingID) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID string) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	Reference       string
	ListingID       listings.ListingID
	GuestID         string
	HostID          string
	Range           daterange.DateRange
	Guests          Guests
	Price           pricing.Breakdown
	InstantBook     bool
	SpecialRequests string
	Now             time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("booking: id is required")
	}
	if strings.TrimSpace(params.Reference) == "" {
		return nil, errors.New("booking: reference is required")
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, errors.New("booking: guest id is required")
	}
	if strings.TrimSpace(params.HostID) == "" {
		return nil, errors.New("booking: host id is required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if err := params.Guests.Validate(); err != nil {
		return nil, err
	}
	if err := params.Price.Reconcile(); err != nil {
		return nil, err
	}
	status := StatusPending
	if params.InstantBook {
		status = StatusConfirmed
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:              params.ID,
		Reference:       params.Reference,
		ListingID:       params.ListingID,
		GuestID:         params.GuestID,
		HostID:          params.HostID,
		Range:           params.Range,
		Nights:          params.Range.Nights(),
		Guests:          params.Guests,
		Price:           params.Price,
		Status:          status,
		Payment:         PaymentPending,
		SpecialRequests: params.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(Created{
		BookingID: b.ID,
		Reference: b.Reference,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Status:    b.Status,
		Range:     b.Range,
		Total:     b.Price.Total,
		At:        now,
	})
	return b, nil
}

// Confirm moves a pending booking to confirmed. Only the booking's host may
// approve a reservation request.
func (b *Booking) Confirm(actor Actor, now time.Time) error {
	if actor.ID != b.HostID {
		return ErrActorNotAllowed
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(Confirmed{BookingID: b.ID, Reference: b.Reference, ListingID: b.ListingID, GuestID: b.GuestID, HostID: b.HostID, At: b.UpdatedAt})
	return nil
}

// Cancel is legal from pending or confirmed, for the guest, the host, or an
// admin. Completed and cancelled bookings stay where they are.
func (b *Booking) Cancel(actor Actor, reason string, now time.Time) error {
	if actor.ID != b.GuestID && actor.ID != b.HostID && actor.Role != RoleAdmin {
		return ErrActorNotAllowed
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	at := now.UTC()
	b.Status = StatusCancelled
	b.Cancellation = &Cancellation{By: actor.ID, Role: actor.Role, Reason: reason, At: at}
	b.UpdatedAt = at
	b.Record(Cancelled{BookingID: b.ID, Reference: b.Reference, ListingID: b.ListingID, GuestID: b.GuestID, HostID: b.HostID, By: actor.ID, Reason: reason, At: at})
	return nil
}

// Complete closes out a confirmed stay after checkout has passed. Host or
// admin only.
func (b *Booking) Complete(actor Actor, now time.Time) error {
	if actor.ID != b.HostID && actor.Role != RoleAdmin {
		return ErrActorNotAllowed
	}
	if b.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	at := now.UTC()
	if at.Before(b.Range.CheckOut) {
		return ErrStayNotEnded
	}
	b.Status = StatusCompleted
	b.UpdatedAt = at
	b.Record(Completed{BookingID: b.ID, Reference: b.Reference, ListingID: b.ListingID, GuestID: b.GuestID, HostID: b.HostID, At: at})
	return nil
}

// DegradeToOfflineSync tags a booking the engine accepted while the
// persistence gateway was unreachable. The created event is re-recorded so
// consumers see the offline status, not the one the booking had before the
// save failed.
func (b *Booking) DegradeToOfflineSync(now time.Time) {
	at := now.UTC()
	b.Status = StatusConfirmedOfflineSync
	b.UpdatedAt = at
	b.ClearEvents()
	b.Record(Created{
		BookingID: b.ID,
		Reference: b.Reference,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Status:    b.Status,
		Range:     b.Range,
		Total:     b.Price.Total,
		At:        at,
	})
}

// Active reports whether the booking blocks its dates on the calendar.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsParty reports whether the actor may read this booking.
func (b *Booking) IsParty(actor Actor) bool {
	return actor.ID == b.GuestID || actor.ID == b.HostID || actor.Role == RoleAdmin
}

func (b *Booking) MarkPaid(now time.Time) {
	b.Payment = PaymentPaid
	b.UpdatedAt = now.UTC()
	b.Record(PaymentSettled{BookingID: b.ID, Reference: b.Reference, GuestID: b.GuestID, Status: b.Payment, At: b.UpdatedAt})
}

func (b *Booking) MarkPaymentFailed(now time.Time) {
	b.Payment = PaymentFailed
	b.UpdatedAt = now.UTC()
	b.Record(PaymentSettled{BookingID: b.ID, Reference: b.Reference, GuestID: b.GuestID, Status: b.Payment, At: b.UpdatedAt})
}

func (b *Booking) MarkRefunded(now time.Time) {
	b.Payment = PaymentRefunded
	b.UpdatedAt = now.UTC()
	b.Record(PaymentSettled{BookingID: b.ID, Reference: b.Reference, GuestID: b.GuestID, Status: b.Payment, At: b.UpdatedAt})
}
