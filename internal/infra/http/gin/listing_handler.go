package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"albergo/internal/app/bookings"
	applistings "albergo/internal/app/listings"
)

type ListingHandler struct {
	Service  *applistings.Service
	Bookings *bookings.Service
}

type createListingRequest struct {
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	Currency         string `json:"currency" binding:"required,len=3"`
	NightlyRateCents int64  `json:"nightly_rate_cents" binding:"required,gt=0"`
	CleaningFeeCents int64  `json:"cleaning_fee_cents" binding:"min=0"`
	MaxGuests        int    `json:"max_guests" binding:"required,min=1"`
	MinNights        int    `json:"min_nights" binding:"min=0"`
	MaxNights        int    `json:"max_nights" binding:"min=0"`
	InstantBook      bool   `json:"instant_book"`
}

func (h ListingHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.Service.Create(c.Request.Context(), applistings.CreateParams{
		HostID:           actor.ID,
		Title:            req.Title,
		Description:      req.Description,
		Currency:         req.Currency,
		NightlyRateCents: req.NightlyRateCents,
		CleaningFeeCents: req.CleaningFeeCents,
		MaxGuests:        req.MaxGuests,
		MinNights:        req.MinNights,
		MaxNights:        req.MaxNights,
		InstantBook:      req.InstantBook,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapListing(l))
}

func (h ListingHandler) Get(c *gin.Context) {
	l, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapListing(l))
}

func (h ListingHandler) Publish(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	l, err := h.Service.Publish(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapListing(l))
}

func (h ListingHandler) Unpublish(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	l, err := h.Service.Unpublish(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapListing(l))
}

// Availability answers the calendar probe: can this range be reserved now.
func (h ListingHandler) Availability(c *gin.Context) {
	checkIn, err := time.Parse(time.RFC3339, c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be RFC3339"})
		return
	}
	checkOut, err := time.Parse(time.RFC3339, c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be RFC3339"})
		return
	}
	available, err := h.Bookings.IsAvailable(c.Request.Context(), c.Param("id"), checkIn, checkOut)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": c.Param("id"), "available": available})
}
