package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/cache"
	"freight-booking/internal/core/config"
	"freight-booking/internal/core/database"
	"freight-booking/internal/core/logger"
	"freight-booking/internal/core/server"
	bookingadapter "freight-booking/internal/features/bookings/adapters"
	bookinghandler "freight-booking/internal/features/bookings/handler"
	bookingservice "freight-booking/internal/features/bookings/service"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/identifiers"
	"freight-booking/internal/features/notifications"
	quoteadapter "freight-booking/internal/features/quotes/adapters"
	quotehandler "freight-booking/internal/features/quotes/handler"
	quoteservice "freight-booking/internal/features/quotes/service"
	shipmentadapter "freight-booking/internal/features/shipments/adapters"
	shipmenthandler "freight-booking/internal/features/shipments/handler"
	shipmentservice "freight-booking/internal/features/shipments/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title Freight Booking API
// @version 1.0
// @description Booking and shipment lifecycle, quotes and notifications for a freight forwarder.
// @contact.name API Support
// @contact.email support@freight-booking.local
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("notify_transport", cfg.Notifications.Transport),
	)

	// Storage
	db, err := database.Open(cfg.Database)
	if err != nil {
		l.Fatal("Database connection failed", zap.Error(err))
	}
	if err := bookingadapter.Migrate(db); err != nil {
		l.Fatal("Bookings migration failed", zap.Error(err))
	}
	if err := shipmentadapter.Migrate(db); err != nil {
		l.Fatal("Shipments migration failed", zap.Error(err))
	}
	bookingRepo := bookingadapter.NewGormBookingRepository(db)
	shipmentRepo := shipmentadapter.NewGormShipmentRepository(db)

	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL, "freight")
	if err != nil {
		l.Fatal("Redis configuration invalid", zap.Error(err))
	}
	defer redisCache.Close()

	// Business numbers
	generator := identifiers.New(map[identifiers.Kind]identifiers.Scope{
		identifiers.KindBooking:          {Source: bookingRepo, Field: "number"},
		identifiers.KindInvoice:          {Source: bookingRepo, Field: "invoice_number"},
		identifiers.KindConsolidation:    {Source: bookingRepo, Field: "consolidation_number"},
		identifiers.KindWarehouseReceipt: {Source: bookingRepo, Field: "warehouse_receipt_number"},
		identifiers.KindShipment:         {Source: shipmentRepo, Field: "number"},
	}, []identifiers.TrackingLookup{bookingRepo, shipmentRepo}, identifiers.Options{
		TrackingPrefix: cfg.Identifiers.TrackingPrefix,
		MaxAttempts:    cfg.Identifiers.MaxAttempts,
	})

	// Notifications
	transport, err := notifications.NewTransport(cfg.Notifications)
	if err != nil {
		l.Fatal("Notification transport failed", zap.Error(err))
	}
	if closer, ok := transport.(io.Closer); ok {
		defer closer.Close()
	}
	dispatcher := notifications.NewDispatcher(notifications.DefaultRegistry(), transport, notifications.DispatcherConfig{
		From:        cfg.Notifications.From,
		MaxAttempts: cfg.Notifications.MaxAttempts,
		Backoff:     cfg.Notifications.Backoff,
	})
	queue := notifications.NewQueue(dispatcher, notifications.QueueConfig{
		SendDelay:   cfg.Notifications.SendDelay,
		MaxRequeues: cfg.Notifications.MaxRequeues,
	})
	notifier := notifications.NewLifecycleNotifier(queue)

	// Services & handlers
	calculator := charges.Default()
	bookingSvc := bookingservice.NewBookingService(bookingRepo, generator, calculator, notifier)
	shipmentSvc := shipmentservice.NewShipmentService(shipmentRepo, generator, bookingSvc, notifier)
	quoteSvc := quoteservice.NewQuoteService(quoteadapter.NewRedisQuoteRepository(redisCache), calculator, queue, cfg.Redis.QuoteTTL)

	srv := server.New(cfg)
	srv.AddHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	srv.AddHealthCheck("redis", redisCache.Ping)

	api := srv.App.Group("/api/v1", auth.JWTMiddleware(cfg.Auth.JWTSecret))
	bookinghandler.NewBookingHandler(bookingSvc).Register(api)
	shipmenthandler.NewShipmentHandler(shipmentSvc).Register(api)
	quotehandler.NewQuoteHandler(quoteSvc).Register(api)

	// Run the HTTP server and the notification worker until a signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		return queue.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("Shutting down", zap.Int("pending_notifications", queue.Len()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("Server stopped with error", zap.Error(err))
	}
	l.Info("Application stopped")
}
