package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"albergo/internal/app/apperrors"
	domain "albergo/internal/domain/listings"
)

var ErrNotOwner = errors.New("listings: actor does not own this listing")

// Service covers the host-facing listing operations the booking engine
// depends on: creating a listing, publishing it so it becomes bookable, and
// taking it off the market.
type Service struct {
	Listings domain.Repository

	Now   func() time.Time
	NewID func() string
}

type CreateParams struct {
	HostID           string
	Title            string
	Description      string
	Currency         string
	NightlyRateCents int64
	CleaningFeeCents int64
	MaxGuests        int
	MinNights        int
	MaxNights        int
	InstantBook      bool
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domain.Listing, error) {
	l, err := domain.NewListing(domain.CreateParams{
		ID:               domain.ListingID(s.newID()),
		Host:             domain.HostID(params.HostID),
		Title:            params.Title,
		Description:      params.Description,
		Currency:         params.Currency,
		NightlyRateCents: params.NightlyRateCents,
		CleaningFeeCents: params.CleaningFeeCents,
		MaxGuests:        params.MaxGuests,
		MinNights:        params.MinNights,
		MaxNights:        params.MaxNights,
		InstantBook:      params.InstantBook,
		Now:              s.now(),
	})
	if err != nil {
		return nil, apperrors.Invalid(err)
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Publish(ctx context.Context, hostID, id string) (*domain.Listing, error) {
	return s.mutate(ctx, hostID, id, func(l *domain.Listing) error {
		return l.Activate(s.now())
	})
}

func (s *Service) Unpublish(ctx context.Context, hostID, id string) (*domain.Listing, error) {
	return s.mutate(ctx, hostID, id, func(l *domain.Listing) error {
		return l.Suspend(s.now())
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.Listings.ByID(ctx, domain.ListingID(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFound(err)
		}
		return nil, apperrors.Internal(err)
	}
	return l, nil
}

func (s *Service) mutate(ctx context.Context, hostID, id string, fn func(*domain.Listing) error) (*domain.Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if string(l.Host) != hostID {
		return nil, apperrors.Forbidden(ErrNotOwner)
	}
	if err := fn(l); err != nil {
		return nil, apperrors.Invalid(err)
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) save(ctx context.Context, l *domain.Listing) error {
	if err := s.Listings.Save(ctx, l); err != nil {
		if errors.Is(err, domain.ErrWriteConflict) {
			return apperrors.Conflict(err)
		}
		return apperrors.Internal(err)
	}
	return nil
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
