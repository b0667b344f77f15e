package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-gateway/internal/auth"
	"github.com/spec-kit/admin-gateway/internal/observability"
)

// AdminHandler serves the admin area. Everything except Login sits behind the verification chain.
type AdminHandler struct {
	loginPath string
	adminPath string
	metrics   *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminPath, loginPath string, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{adminPath: adminPath, loginPath: loginPath, metrics: metrics}
}

// Login handles GET /admin, where denied admin requests land.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"message":    "sign in with the administrator account to continue",
			"login_path": auth.LoginRedirect(h.loginPath, h.adminPath+"/dashboard"),
		},
	})
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	via := ""
	if outcome, ok := auth.OutcomeFromContext(c); ok {
		via = string(outcome.Via)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"granted_via": via,
		},
	})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
