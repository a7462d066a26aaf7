package booking

import (
	"time"

	"albergo/internal/domain/listings"
	"albergo/internal/domain/shared/daterange"
	"albergo/internal/domain/shared/money"
)

type Created struct {
	BookingID BookingID           `json:"booking_id"`
	Reference string              `json:"reference"`
	ListingID listings.ListingID  `json:"listing_id"`
	GuestID   string              `json:"guest_id"`
	HostID    string              `json:"host_id"`
	Status    Status              `json:"status"`
	Range     daterange.DateRange `json:"range"`
	Total     money.Money         `json:"total"`
	At        time.Time           `json:"at"`
}

func (e Created) EventName() string     { return "booking.created" }
func (e Created) AggregateID() string   { return string(e.BookingID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	BookingID BookingID          `json:"booking_id"`
	Reference string             `json:"reference"`
	ListingID listings.ListingID `json:"listing_id"`
	GuestID   string             `json:"guest_id"`
	HostID    string             `json:"host_id"`
	At        time.Time          `json:"at"`
}

func (e Confirmed) EventName() string     { return "booking.confirmed" }
func (e Confirmed) AggregateID() string   { return string(e.BookingID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BookingID BookingID          `json:"booking_id"`
	Reference string             `json:"reference"`
	ListingID listings.ListingID `json:"listing_id"`
	GuestID   string             `json:"guest_id"`
	HostID    string             `json:"host_id"`
	By        string             `json:"by"`
	Reason    string             `json:"reason"`
	At        time.Time          `json:"at"`
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.BookingID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type Completed struct {
	BookingID BookingID          `json:"booking_id"`
	Reference string             `json:"reference"`
	ListingID listings.ListingID `json:"listing_id"`
	GuestID   string             `json:"guest_id"`
	HostID    string             `json:"host_id"`
	At        time.Time          `json:"at"`
}

func (e Completed) EventName() string     { return "booking.completed" }
func (e Completed) AggregateID() string   { return string(e.BookingID) }
func (e Completed) OccurredAt() time.Time { return e.At }

type PaymentSettled struct {
	BookingID BookingID     `json:"booking_id"`
	Reference string        `json:"reference"`
	GuestID   string        `json:"guest_id"`
	Status    PaymentStatus `json:"status"`
	At        time.Time     `json:"at"`
}

func (e PaymentSettled) EventName() string     { return "booking.payment_settled" }
func (e PaymentSettled) AggregateID() string   { return string(e.BookingID) }
func (e PaymentSettled) OccurredAt() time.Time { return e.At }
