package ginserver

import (
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"albergo/internal/app/bookings"
	"albergo/internal/domain/booking"
)

type BookingHandler struct {
	Service *bookings.Service
}

type createBookingRequest struct {
	ListingID       string    `json:"listing_id" binding:"required"`
	CheckIn         time.Time `json:"check_in" binding:"required"`
	CheckOut        time.Time `json:"check_out" binding:"required"`
	Adults          int       `json:"adults" binding:"required,min=1"`
	Children        int       `json:"children" binding:"min=0"`
	Infants         int       `json:"infants" binding:"min=0"`
	ExtraBed        bool      `json:"extra_bed"`
	SpecialRequests string    `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.Service.Create(c.Request.Context(), bookings.CreateParams{
		ListingID: req.ListingID,
		GuestID:   actor.ID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests: booking.Guests{
			Adults:   req.Adults,
			Children: req.Children,
			Infants:  req.Infants,
			ExtraBed: req.ExtraBed,
		},
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"booking": mapBooking(result.Booking),
		"outcome": string(result.Outcome),
	})
}

func (h BookingHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	b, err := h.Service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapBooking(b))
}

func (h BookingHandler) Confirm(c *gin.Context) {
	h.applyTransition(c, func(actor booking.Actor, id string) (*booking.Booking, error) {
		return h.Service.Confirm(c.Request.Context(), actor, id)
	})
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)
	h.applyTransition(c, func(actor booking.Actor, id string) (*booking.Booking, error) {
		return h.Service.Cancel(c.Request.Context(), actor, id, req.Reason)
	})
}

func (h BookingHandler) Complete(c *gin.Context) {
	h.applyTransition(c, func(actor booking.Actor, id string) (*booking.Booking, error) {
		return h.Service.Complete(c.Request.Context(), actor, id)
	})
}

type confirmPaymentRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}

func (h BookingHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.Service.ConfirmPayment(c.Request.Context(), actor, c.Param("id"), req.PaymentRef)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapBooking(b))
}

func (h BookingHandler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	items, err := h.Service.ListForGuest(c.Request.Context(), actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": mapBookings(items)})
}

func (h BookingHandler) ListForHost(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	status := booking.Status(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	items, err := h.Service.ListForHost(c.Request.Context(), actor.ID, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": mapBookings(items)})
}

func (h BookingHandler) applyTransition(c *gin.Context, op func(booking.Actor, string) (*booking.Booking, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	b, err := op(actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapBooking(b))
}
