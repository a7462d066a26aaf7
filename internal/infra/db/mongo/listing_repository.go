package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "albergo/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("listings")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "state", Value: 1}},
	})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainlistings.ErrWriteConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainlistings.ErrWriteConflict
	}
	l.Version = doc.Version
	return nil
}

// IncrementBookings bumps the informational counter outside any version
// check; losing an increment is acceptable, losing a booking is not.
func (r *ListingRepository) IncrementBookings(ctx context.Context, id domainlistings.ListingID) error {
	_, err := r.col.UpdateByID(ctx, string(id), bson.M{"$inc": bson.M{"bookings_count": 1}})
	return err
}

type listingDocument struct {
	ID               string `bson:"_id"`
	HostID           string `bson:"host_id"`
	Title            string `bson:"title"`
	Description      string `bson:"description,omitempty"`
	Currency         string `bson:"currency"`
	NightlyRateCents int64  `bson:"nightly_rate_cents"`
	CleaningFeeCents int64  `bson:"cleaning_fee_cents"`
	MaxGuests        int    `bson:"max_guests"`
	MinNights        int    `bson:"min_nights"`
	MaxNights        int    `bson:"max_nights"`
	InstantBook      bool   `bson:"instant_book"`
	State            string `bson:"state"`
	BookingsCount    int64  `bson:"bookings_count"`
	CreatedAt        int64  `bson:"created_at"`
	UpdatedAt        int64  `bson:"updated_at"`
	Version          int64  `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:               string(l.ID),
		HostID:           string(l.Host),
		Title:            l.Title,
		Description:      l.Description,
		Currency:         l.Currency,
		NightlyRateCents: l.NightlyRateCents,
		CleaningFeeCents: l.CleaningFeeCents,
		MaxGuests:        l.MaxGuests,
		MinNights:        l.MinNights,
		MaxNights:        l.MaxNights,
		InstantBook:      l.InstantBook,
		State:            string(l.State),
		BookingsCount:    l.BookingsCount,
		CreatedAt:        l.CreatedAt.UnixMilli(),
		UpdatedAt:        l.UpdatedAt.UnixMilli(),
		Version:          l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:               domainlistings.ListingID(d.ID),
		Host:             domainlistings.HostID(d.HostID),
		Title:            d.Title,
		Description:      d.Description,
		Currency:         d.Currency,
		NightlyRateCents: d.NightlyRateCents,
		CleaningFeeCents: d.CleaningFeeCents,
		MaxGuests:        d.MaxGuests,
		MinNights:        d.MinNights,
		MaxNights:        d.MaxNights,
		InstantBook:      d.InstantBook,
		State:            domainlistings.ListingState(d.State),
		BookingsCount:    d.BookingsCount,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
}
