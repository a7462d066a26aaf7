package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	appbookings "albergo/internal/app/bookings"
	applistings "albergo/internal/app/listings"
	appoutbox "albergo/internal/app/outbox"
	"albergo/internal/infra/broker/kafka"
	"albergo/internal/infra/config"
	mongodb "albergo/internal/infra/db/mongo"
	ginserver "albergo/internal/infra/http/gin"
	"albergo/internal/infra/lock"
	"albergo/internal/infra/notify"
	"albergo/internal/infra/obs"
	"albergo/internal/infra/outbox"
	"albergo/internal/infra/payments"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	mongoClient, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Close(closeCtx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}()

	bookingRepo := mongodb.NewBookingRepository(mongoClient.DB)
	listingRepo := mongodb.NewListingRepository(mongoClient.DB)
	outboxStore := outbox.NewStore(mongoClient.DB)

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	bookingService := &appbookings.Service{
		Bookings: bookingRepo,
		Listings: listingRepo,
		Outbox:   outboxStore,
		Encoder:  appoutbox.JSONEventEncoder{},
		Pricing: appbookings.PricingConfig{
			ServiceFeeBps: cfg.ServiceFeeBps,
			TaxBps:        cfg.TaxBps,
			CommissionBps: cfg.CommissionBps,
		},
		Logger: logger,
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		bookingService.Locks = lock.NewRedisLocks(redisClient, cfg.LockTTL)
	} else {
		logger.Warn("REDIS_ADDR unset, relying on storage write-conflict detection only")
	}
	if cfg.StripeKey != "" {
		bookingService.Payments = payments.New(cfg.StripeKey)
	}

	listingService := &applistings.Service{Listings: listingRepo}

	outboxWorker := &outbox.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	go func() {
		if err := outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	notifyWorker := &notify.Worker{
		Bookings: bookingRepo,
		Notifier: &notify.EmailNotifier{Logger: logger, From: getenv("NOTIFY_FROM", "bookings@albergo.app")},
		Logger:   logger,
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.NotifyGroupID, nil, notifyWorker)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	go func() {
		topics := []string{cfg.KafkaTopicPrefix + "booking.events.v1"}
		if err := consumer.Run(ctx, topics); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", "error", err)
		}
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return mongoClient.Ping(pingCtx)
		},
	}, ginserver.Handlers{
		Booking: ginserver.BookingHandler{Service: bookingService},
		Listing: ginserver.ListingHandler{Service: listingService, Bookings: bookingService},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
