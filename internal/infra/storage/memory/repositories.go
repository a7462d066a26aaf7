package memory

import (
	"context"
	"sort"
	"sync"

	appoutbox "albergo/internal/app/outbox"
	"albergo/internal/domain/booking"
	"albergo/internal/domain/listings"
)

// In-memory adapters used by tests and local development. They honor the
// same contracts as the Mongo gateway, including write-conflict detection
// on stale versions and reference uniqueness.

type BookingRepository struct {
	mu    sync.RWMutex
	items map[booking.BookingID]*booking.Booking
	refs  map[string]booking.BookingID
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items: make(map[booking.BookingID]*booking.Booking),
		refs:  make(map[string]booking.BookingID),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[b.ID]; ok {
		if existing.Version != b.Version {
			return booking.ErrWriteConflict
		}
	} else if _, taken := r.refs[b.Reference]; taken {
		return booking.ErrWriteConflict
	}
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	r.refs[b.Reference] = b.ID
	return nil
}

func (r *BookingRepository) ActiveByListing(ctx context.Context, id listings.ListingID) ([]*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range r.items {
		if b.ListingID == id && b.Active() {
			out = append(out, cloneBooking(b))
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*booking.Booking, error) {
	return r.list(func(b *booking.Booking) bool { return b.GuestID == guestID })
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string) ([]*booking.Booking, error) {
	return r.list(func(b *booking.Booking) bool { return b.HostID == hostID })
}

func (r *BookingRepository) list(match func(*booking.Booking) bool) ([]*booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range r.items {
		if match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sortByCreated(out)
	return out, nil
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	clone := *b
	if b.Cancellation != nil {
		c := *b.Cancellation
		clone.Cancellation = &c
	}
	clone.ClearEvents()
	return &clone
}

func sortByCreated(items []*booking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

type ListingRepository struct {
	mu    sync.RWMutex
	items map[listings.ListingID]*listings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[listings.ListingID]*listings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, listings.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *ListingRepository) Save(ctx context.Context, l *listings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[l.ID]; ok && existing.Version != l.Version {
		return listings.ErrWriteConflict
	}
	l.Version++
	clone := *l
	clone.ClearEvents()
	r.items[l.ID] = &clone
	return nil
}

func (r *ListingRepository) IncrementBookings(ctx context.Context, id listings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return listings.ErrNotFound
	}
	l.BookingsCount++
	return nil
}

type Outbox struct {
	mu      sync.Mutex
	Records []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Records = append(o.Records, record)
	return nil
}

func (o *Outbox) All() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.Records))
	copy(out, o.Records)
	return out
}
