package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	staffStore store.StaffStore,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	legalHandler *handlers.LegalHandler,
	complaintHandler *handlers.ComplaintHandler,
	trackingHandler *handlers.TrackingHandler,
	staffHandler *handlers.StaffHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)
	api.Get("/legal/privacy", legalHandler.PrivacyPolicy)

	// Complainant surface, no account
	api.Post("/complaints", limiter.New(limiter.Config{
		Max:               5,
		Expiration:        10 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}), complaintHandler.Submit)

	// Tracking guesses are throttled harder than general traffic
	track := api.Group("/track")
	track.Use(limiter.New(limiter.Config{
		Max:               cfg.TrackRateLimit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	track.Post("/", trackingHandler.Track)
	track.Post("/receipt", trackingHandler.Receipt)
	track.Get("/:id", trackingHandler.Get)
	track.Get("/:id/events", trackingHandler.Events)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", middleware.JWTProtected(cfg), middleware.StaffContext(staffStore), authHandler.Me)

	staff := api.Group("/staff", middleware.JWTProtected(cfg), middleware.StaffContext(staffStore))
	staff.Get("/complaints", middleware.Require(policy.ActionRead), staffHandler.List)
	staff.Get("/complaints/:id", middleware.Require(policy.ActionRead), staffHandler.Get)
	staff.Put("/complaints/:id/status", middleware.Require(policy.ActionMutateStatus), staffHandler.SetStatus)
	staff.Put("/complaints/:id/assignment", middleware.Require(policy.ActionAssign), staffHandler.Assign)
	staff.Post("/complaints/:id/updates", middleware.Require(policy.ActionAppendUpdate), staffHandler.AddPublicUpdate)
	staff.Post("/complaints/:id/notes", middleware.Require(policy.ActionAddNote), staffHandler.AddNote)
	staff.Get("/complaints/:id/notes", middleware.Require(policy.ActionRead), staffHandler.ListNotes)
	staff.Get("/complaints/:id/audit", middleware.Require(policy.ActionReadAudit), staffHandler.Audit)
	staff.Get("/complaints/:id/attachment", middleware.Require(policy.ActionRead), staffHandler.Attachment)
	staff.Get("/export", middleware.Require(policy.ActionExport), staffHandler.Export)
	staff.Get("/users", middleware.Require(policy.ActionListStaff), staffHandler.Users)
	staff.Get("/events", middleware.Require(policy.ActionRead), staffHandler.Events)
}
