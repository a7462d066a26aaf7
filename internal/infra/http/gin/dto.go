package ginserver

import (
	"time"

	"albergo/internal/domain/booking"
	"albergo/internal/domain/listings"
	"albergo/internal/domain/pricing"
)

type bookingResponse struct {
	ID              string            `json:"id"`
	Reference       string            `json:"reference"`
	ListingID       string            `json:"listing_id"`
	GuestID         string            `json:"guest_id"`
	HostID          string            `json:"host_id"`
	CheckIn         time.Time         `json:"check_in"`
	CheckOut        time.Time         `json:"check_out"`
	Nights          int               `json:"nights"`
	Guests          booking.Guests    `json:"guests"`
	Price           pricing.Breakdown `json:"price"`
	Status          string            `json:"status"`
	Payment         string            `json:"payment"`
	Cancellation    *cancellationView `json:"cancellation,omitempty"`
	SpecialRequests string            `json:"special_requests,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type cancellationView struct {
	By     string    `json:"by"`
	Role   string    `json:"role"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

func mapBooking(b *booking.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              string(b.ID),
		Reference:       b.Reference,
		ListingID:       string(b.ListingID),
		GuestID:         b.GuestID,
		HostID:          b.HostID,
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Nights:          b.Nights,
		Guests:          b.Guests,
		Price:           b.Price,
		Status:          string(b.Status),
		Payment:         string(b.Payment),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.Cancellation != nil {
		resp.Cancellation = &cancellationView{
			By:     b.Cancellation.By,
			Role:   string(b.Cancellation.Role),
			Reason: b.Cancellation.Reason,
			At:     b.Cancellation.At,
		}
	}
	return resp
}

func mapBookings(items []*booking.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, mapBooking(b))
	}
	return out
}

type listingResponse struct {
	ID               string    `json:"id"`
	HostID           string    `json:"host_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Currency         string    `json:"currency"`
	NightlyRateCents int64     `json:"nightly_rate_cents"`
	CleaningFeeCents int64     `json:"cleaning_fee_cents"`
	MaxGuests        int       `json:"max_guests"`
	MinNights        int       `json:"min_nights"`
	MaxNights        int       `json:"max_nights"`
	InstantBook      bool      `json:"instant_book"`
	State            string    `json:"state"`
	BookingsCount    int64     `json:"bookings_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func mapListing(l *listings.Listing) listingResponse {
	return listingResponse{
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
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
