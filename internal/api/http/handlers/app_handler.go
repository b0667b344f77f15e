package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-gateway/internal/auth"
	apperrors "github.com/spec-kit/admin-gateway/pkg/util"
)

// AppHandler serves the home page and the signed-in application pages.
type AppHandler struct {
	serviceName string
	version     string
}

// NewAppHandler constructs handler.
func NewAppHandler(serviceName, version string) *AppHandler {
	return &AppHandler{serviceName: serviceName, version: version}
}

// Home handles GET /.
func (h *AppHandler) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"service": h.serviceName,
			"version": h.version,
		},
	})
}

// Account handles GET /account.
func (h *AppHandler) Account(c *fiber.Ctx) error {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"email": sess.Identity},
	})
}
