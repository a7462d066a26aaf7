package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"albergo/internal/domain/booking"
)

// Identity is established upstream (gateway/auth service) and forwarded in
// trusted headers; the engine only cares about who the actor is relative to
// a booking.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

func actorFrom(c *gin.Context) (booking.Actor, bool) {
	id := strings.TrimSpace(c.GetHeader(headerUserID))
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user identity required"})
		return booking.Actor{}, false
	}
	role := booking.RoleGuest
	switch strings.ToUpper(strings.TrimSpace(c.GetHeader(headerUserRole))) {
	case string(booking.RoleHost):
		role = booking.RoleHost
	case string(booking.RoleAdmin):
		role = booking.RoleAdmin
	}
	return booking.Actor{ID: id, Role: role}, true
}
