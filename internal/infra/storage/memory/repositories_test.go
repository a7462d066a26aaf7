package memory

import (
	"context"
	"errors"
	"testing"

	"albergo/internal/domain/booking"
	"albergo/internal/domain/listings"
)

func TestBookingSaveRejectsStaleVersion(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	b := &booking.Booking{ID: "bk-1", Reference: "ALB-2025-00000001"}
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("first save: %v", err)
	}

	stale := &booking.Booking{ID: "bk-1", Reference: "ALB-2025-00000001", Version: 0}
	if err := repo.Save(ctx, stale); !errors.Is(err, booking.ErrWriteConflict) {
		t.Errorf("stale save: expected ErrWriteConflict, got %v", err)
	}
}

func TestBookingSaveRejectsDuplicateReference(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, &booking.Booking{ID: "bk-1", Reference: "ALB-2025-00000001"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	err := repo.Save(ctx, &booking.Booking{ID: "bk-2", Reference: "ALB-2025-00000001"})
	if !errors.Is(err, booking.ErrWriteConflict) {
		t.Errorf("duplicate reference: expected ErrWriteConflict, got %v", err)
	}
}

func TestListingSaveRejectsStaleVersion(t *testing.T) {
	repo := NewListingRepository()
	ctx := context.Background()

	l := &listings.Listing{ID: "ls-1", Host: "host-1", Title: "Canal-side loft"}
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("first save: %v", err)
	}

	stale := &listings.Listing{ID: "ls-1", Host: "host-1", Title: "Canal-side loft", Version: 0}
	if err := repo.Save(ctx, stale); !errors.Is(err, listings.ErrWriteConflict) {
		t.Errorf("stale save: expected ErrWriteConflict, got %v", err)
	}
}
