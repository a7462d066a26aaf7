package bookings

import (
	"context"
	"time"

	"albergo/internal/app/apperrors"
	"albergo/internal/domain/listings"
	"albergo/internal/domain/shared/daterange"
)

// IsAvailable answers whether a listing is free for the requested interval.
// Only pending and confirmed bookings block dates; a listing with no active
// bookings is trivially available for any valid range.
func (s *Service) IsAvailable(ctx context.Context, listingID string, checkIn, checkOut time.Time) (bool, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return false, apperrors.Invalid(err)
	}
	if _, err := s.Listings.ByID(ctx, listings.ListingID(listingID)); err != nil {
		if err == listings.ErrNotFound {
			return false, apperrors.NotFound(err)
		}
		return false, apperrors.Internal(err)
	}
	available, err := s.isAvailable(ctx, listings.ListingID(listingID), dr)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return available, nil
}

// isAvailable is the read-then-decide core shared with Create. Create wraps
// it in the per-listing reservation lock; the storage layer's write-conflict
// detection covers deployments running without one.
func (s *Service) isAvailable(ctx context.Context, id listings.ListingID, dr daterange.DateRange) (bool, error) {
	active, err := s.Bookings.ActiveByListing(ctx, id)
	if err != nil {
		return false, err
	}
	for _, existing := range active {
		if existing.Range.Overlaps(dr) {
			return false, nil
		}
	}
	return true, nil
}
