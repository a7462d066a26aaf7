package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"albergo/internal/domain/shared/events"
	"albergo/internal/domain/shared/money"
)

var (
	ErrNotFound = errors.New("listings: not found")
	// ErrWriteConflict is returned by repositories when a save loses a race
	// against a concurrent update, mirroring the booking repository contract.
	ErrWriteConflict   = errors.New("listings: write conflict")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrGuestsLimit     = errors.New("listings: max guests must be at least 1")
	ErrNightsRange     = errors.New("listings: min nights must be <= max nights")
	ErrNightlyRate     = errors.New("listings: nightly rate must be positive")
	ErrCleaningFee     = errors.New("listings: cleaning fee must be non-negative")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrInvalidCurrency = errors.New("listings: currency code must be 3 letters")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing is the bookable unit. The booking engine reads it but never
// mutates anything beyond the informational bookings counter.
type Listing struct {
	ID               ListingID
	Host             HostID
	Title            string
	Description      string
	Currency         string
	NightlyRateCents int64
	CleaningFeeCents int64
	MaxGuests        int
	MinNights        int
	MaxNights        int
	InstantBook      bool
	State            ListingState
	BookingsCount    int64
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	// IncrementBookings bumps the informational counter. Best effort: it is
	// not transactional with the booking insert.
	IncrementBookings(ctx context.Context, id ListingID) error
}

type CreateParams struct {
	ID               ListingID
	Host             HostID
	Title            string
	Description      string
	Currency         string
	NightlyRateCents int64
	CleaningFeeCents int64
	MaxGuests        int
	MinNights        int
	MaxNights        int
	InstantBook      bool
	Now              time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if len(params.Currency) != 3 {
		return nil, ErrInvalidCurrency
	}
	if params.NightlyRateCents <= 0 {
		return nil, ErrNightlyRate
	}
	if params.CleaningFeeCents < 0 {
		return nil, ErrCleaningFee
	}
	if params.MaxGuests < 1 {
		return nil, ErrGuestsLimit
	}
	if params.MaxNights > 0 && params.MinNights > params.MaxNights {
		return nil, ErrNightsRange
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:               params.ID,
		Host:             params.Host,
		Title:            strings.TrimSpace(params.Title),
		Description:      params.Description,
		Currency:         strings.ToUpper(params.Currency),
		NightlyRateCents: params.NightlyRateCents,
		CleaningFeeCents: params.CleaningFeeCents,
		MaxGuests:        params.MaxGuests,
		MinNights:        params.MinNights,
		MaxNights:        params.MaxNights,
		InstantBook:      params.InstantBook,
		State:            ListingDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return l, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if l.State != ListingDraft && l.State != ListingSuspended {
		return ErrInvalidState
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	return nil
}

func (l *Listing) Suspend(now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	return nil
}

// Bookable reports whether new reservations may target this listing.
func (l *Listing) Bookable() bool {
	return l.State == ListingActive
}

// MinNightsOrDefault keeps zero-configured listings bookable for one night.
func (l *Listing) MinNightsOrDefault() int {
	if l.MinNights < 1 {
		return 1
	}
	return l.MinNights
}

func (l *Listing) NightlyRate() money.Money {
	return money.Money{Amount: l.NightlyRateCents, Currency: l.Currency}
}

func (l *Listing) CleaningFee() money.Money {
	return money.Money{Amount: l.CleaningFeeCents, Currency: l.Currency}
}
