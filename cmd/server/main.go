package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/workflow"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Record store
	st, err := openStore(cfg)
	if err != nil {
		slog.Error("store init failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// PostgreSQL-backed log sink (ERROR+ async batch), also used by the memory driver
	pgLogHandler := logging.NewPGHandler(st)
	logging.WithSink(pgLogHandler)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(st, cfg.LogRetentionDays, cleanupDone)

	// Evidence storage
	blobs, err := blob.NewDiskStore(cfg.BlobRoot, cfg.BlobPublicBaseURL, cfg.MaxUploadBytes)
	if err != nil {
		slog.Error("blob store init failed", "root", cfg.BlobRoot, "error", err)
		os.Exit(1)
	}

	// Realtime fan-out
	bus := openBus(cfg)

	// Services
	wf := workflow.New(workflow.Mode(cfg.WorkflowMode))
	authService := services.NewAuthService(st, cfg)
	complaintService := services.NewComplaintService(st, blobs, bus)
	trackingService := services.NewTrackingService(st, bus)
	caseService := services.NewCaseService(st, st, blobs, bus, wf, services.NewExportService())

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(st, string(wf.Mode()))
	legalHandler := handlers.NewLegalHandler(cfg.AppName)
	complaintHandler := handlers.NewComplaintHandler(complaintService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	staffHandler := handlers.NewStaffHandler(caseService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app. The body limit leaves room for the form fields around the upload.
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, st, authHandler, healthHandler, legalHandler, complaintHandler, trackingHandler, staffHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "workflow", wf.Mode())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if err := bus.Close(); err != nil {
		slog.Error("realtime bus close error", "error", err)
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := st.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("server stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.UsesMemoryStore() {
		slog.Warn("using in-memory store, records are lost on restart")
		return store.NewMemoryStore(), nil
	}

	if cfg.DBPassword == "" {
		return nil, errors.New("DB_PASSWORD environment variable is required")
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

// openBus prefers Redis so every replica sees every change, and falls back
// to in-process delivery.
func openBus(cfg *config.Config) realtime.Bus {
	if cfg.RedisURL == "" {
		return realtime.NewLocalBus()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bus, err := realtime.NewRedisBus(ctx, cfg.RedisURL, cfg.EventChannel)
	if err != nil {
		slog.Error("redis unavailable, falling back to in-process events", "error", err)
		return realtime.NewLocalBus()
	}
	slog.Info("realtime events via redis", "channel", cfg.EventChannel)
	return bus
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
