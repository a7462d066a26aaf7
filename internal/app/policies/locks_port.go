package policies

import "context"

// ReleaseFunc releases a previously acquired reservation lock.
type ReleaseFunc func(ctx context.Context)

// ReservationLocks serializes check-then-insert per listing so two
// concurrent overlapping reservation requests cannot both pass the
// availability check. When no lock manager is wired the engine falls back
// to plain read-then-decide.
type ReservationLocks interface {
	Acquire(ctx context.Context, listingID string) (ReleaseFunc, error)
}
