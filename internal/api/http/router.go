package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/http/handlers"
	"github.com/spec-kit/feedback-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Products       *handlers.ProductsHandler
	Feedback       *handlers.FeedbackHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Reads, registration, and feedback
// submission stay open; catalog mutations and feedback triage require an
// admin token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Users.LegacyLogin)

	api := app.Group("/api")

	api.Post("/users/register", cfg.Users.Register)
	api.Post("/users/login", cfg.Users.Login)

	adminOnly := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAdmin()}

	products := api.Group("/products")
	products.Get("/", cfg.Products.List)
	products.Get("/:id", cfg.Products.Get)
	products.Post("/upload", append(adminOnly, cfg.Products.Create)...)
	products.Put("/:id", append(adminOnly, cfg.Products.Update)...)
	products.Delete("/:id", append(adminOnly, cfg.Products.Delete)...)

	feedback := api.Group("/feedback")
	feedback.Get("/", cfg.Feedback.List)
	feedback.Get("/user/:userId", cfg.Feedback.ListByUser)
	feedback.Post("/", cfg.Feedback.Create)
	feedback.Put("/:id", cfg.Feedback.Update)
	feedback.Patch("/:id", append(adminOnly, cfg.Feedback.Patch)...)
	feedback.Delete("/:id", append(adminOnly, cfg.Feedback.Delete)...)
	feedback.Get("/:id/history", append(adminOnly, cfg.Feedback.History)...)
}
