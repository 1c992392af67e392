package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/satyadur/nexora-api/internal/config"
	"github.com/satyadur/nexora-api/internal/handler"
	"github.com/satyadur/nexora-api/internal/middleware"
	"github.com/satyadur/nexora-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	EvaluationHandler *handler.EvaluationHandler
	DashboardHandler  *handler.DashboardHandler
	StudentHandler    *handler.StudentHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.StudentHandler != nil {
		students := app.Group("/api/v1/students", jwtMiddleware, middleware.RequireRole("teacher", "admin"))
		deps.StudentHandler.Register(students)
	}

	if deps.AssignmentHandler != nil {
		assignments := app.Group("/api/v1/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware, middleware.RateLimit("submissions", 60, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}

	// Grading sessions are teacher-only. The limiter absorbs autosave bursts
	// from the grading UI without letting a stuck client hammer the engine.
	if deps.EvaluationHandler != nil {
		evaluations := app.Group("/api/v1/evaluations", jwtMiddleware, middleware.RequireRole("teacher", "admin"), middleware.RateLimit("evaluations", 240, time.Minute))
		deps.EvaluationHandler.Register(evaluations)
	}

	if deps.DashboardHandler != nil {
		dashboard := app.Group("/api/v1/dashboard", jwtMiddleware, middleware.RequireRole("teacher", "admin"))
		deps.DashboardHandler.Register(dashboard)
	}

	if deps.ActivityHandler != nil {
		activity := app.Group("/api/v1/activity", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ActivityHandler.Register(activity)
	}
}
