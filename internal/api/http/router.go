package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-gateway/internal/api/http/handlers"
	"github.com/spec-kit/admin-gateway/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	AdminPath string
	Health    *handlers.HealthHandler
	Users     *handlers.UsersHandler
	Admin     *handlers.AdminHandler
	App       *handlers.AppHandler
	Gate      *auth.GateMiddleware
}

// RegisterRoutes installs the access gate in front of every route and wires handlers.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/", cfg.App.Home)

	api := app.Group("/api")
	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)
	app.Post("/forgot-password", cfg.Users.RequestPasswordReset)
	app.Post("/reset-password", cfg.Users.ConfirmPasswordReset)
	app.Post("/logout", cfg.Users.Logout)
	app.Get("/account", cfg.App.Account)

	app.Get(cfg.AdminPath, cfg.Admin.Login)
	admin := app.Group(cfg.AdminPath)
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/metrics", cfg.Admin.Metrics)
}
