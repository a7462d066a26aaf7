package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "albergo/internal/domain/booking"
	"albergo/internal/domain/listings"
	domainpricing "albergo/internal/domain/pricing"
	domainrange "albergo/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with a version CAS filter. A stale version or a duplicate
// reference both surface as ErrWriteConflict so the engine can answer with
// the same conflict it reports for a detected overlap.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrWriteConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrWriteConflict
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ActiveByListing(ctx context.Context, id listings.ListingID) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"listing_id": string(id),
		"status": bson.M{"$in": []string{
			string(domainbooking.StatusPending),
			string(domainbooking.StatusConfirmed),
		}},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}}))
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"host_id": hostID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID              string                      `bson:"_id"`
	Reference       string                      `bson:"reference"`
	ListingID       string                      `bson:"listing_id"`
	GuestID         string                      `bson:"guest_id"`
	HostID          string                      `bson:"host_id"`
	Range           rangeDocument               `bson:"range"`
	Nights          int                         `bson:"nights"`
	Guests          domainbooking.Guests        `bson:"guests"`
	Price           domainpricing.Breakdown     `bson:"price"`
	Status          string                      `bson:"status"`
	Payment         string                      `bson:"payment"`
	Cancellation    *domainbooking.Cancellation `bson:"cancellation,omitempty"`
	SpecialRequests string                      `bson:"special_requests,omitempty"`
	CreatedAt       int64                       `bson:"created_at"`
	UpdatedAt       int64                       `bson:"updated_at"`
	Version         int64                       `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		Reference:       b.Reference,
		ListingID:       string(b.ListingID),
		GuestID:         b.GuestID,
		HostID:          b.HostID,
		Range:           rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Nights:          b.Nights,
		Guests:          b.Guests,
		Price:           b.Price,
		Status:          string(b.Status),
		Payment:         string(b.Payment),
		Cancellation:    b.Cancellation,
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		Reference:       d.Reference,
		ListingID:       listings.ListingID(d.ListingID),
		GuestID:         d.GuestID,
		HostID:          d.HostID,
		Range:           domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Nights:          d.Nights,
		Guests:          d.Guests,
		Price:           d.Price,
		Status:          domainbooking.Status(d.Status),
		Payment:         domainbooking.PaymentStatus(d.Payment),
		Cancellation:    d.Cancellation,
		SpecialRequests: d.SpecialRequests,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
