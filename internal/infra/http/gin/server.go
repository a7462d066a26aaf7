package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"albergo/internal/infra/config"
	"albergo/internal/infra/obs"
)

type Handlers struct {
	Booking BookingHandler
	Listing ListingHandler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Role"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.POST("/bookings", h.Booking.Create)
	api.GET("/bookings/:id", h.Booking.Get)
	api.POST("/bookings/:id/confirm", h.Booking.Confirm)
	api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	api.POST("/bookings/:id/complete", h.Booking.Complete)
	api.POST("/bookings/:id/payment", h.Booking.ConfirmPayment)
	api.GET("/me/bookings", h.Booking.ListMine)
	api.GET("/host/bookings", h.Booking.ListForHost)

	api.GET("/listings/:id", h.Listing.Get)
	api.GET("/listings/:id/availability", h.Listing.Availability)
	hostGroup := api.Group("/host/listings")
	hostGroup.POST("", h.Listing.Create)
	hostGroup.POST("/:id/publish", h.Listing.Publish)
	hostGroup.POST("/:id/unpublish", h.Listing.Unpublish)

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
