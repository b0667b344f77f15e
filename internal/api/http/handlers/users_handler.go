package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-gateway/internal/api/dto"
	"github.com/spec-kit/admin-gateway/internal/auth"
	"github.com/spec-kit/admin-gateway/internal/domain"
	"github.com/spec-kit/admin-gateway/internal/service"
	apperrors "github.com/spec-kit/admin-gateway/pkg/util"
)

// CookieSettings controls the cookies the account endpoints set and clear.
type CookieSettings struct {
	SessionCookieName string
	AdminCookieName   string
	AdminPath         string
	Secure            bool
	// ExposeResetToken returns reset tokens in the response body; development only.
	ExposeResetToken bool
}

// UsersHandler exposes the account endpoints behind the public paths.
type UsersHandler struct {
	auth    *service.AuthService
	cookies CookieSettings
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, cookies CookieSettings) *UsersHandler {
	return &UsersHandler{auth: authService, cookies: cookies}
}

// Register handles POST /register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.RegisterUser(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user": userResponse(user)},
	})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, value, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookies.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp) / time.Second),
		Secure:   h.cookies.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	target := req.RedirectTo
	if target == "" {
		target = c.Query(auth.RedirectParam)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":    userResponse(user),
			"session": dto.SessionResponse{ExpiresAt: exp, RedirectTo: SafeRedirect(target)},
		},
	})
}

// Logout handles POST /logout. The admin token cookie is cleared with the session.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), c.Cookies(h.cookies.SessionCookieName)); err != nil {
		return err
	}
	h.expireCookie(c, h.cookies.SessionCookieName, "/")
	if h.cookies.AdminCookieName != "" {
		h.expireCookie(c, h.cookies.AdminCookieName, h.cookies.AdminPath)
	}
	return c.SendStatus(http.StatusNoContent)
}

// RequestPasswordReset handles POST /forgot-password.
func (h *UsersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	data := fiber.Map{"status": "accepted"}
	if h.cookies.ExposeResetToken && token != nil {
		data["reset_token"] = token.Token
		data["expires_at"] = token.ExpiresAt
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /reset-password.
func (h *UsersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *UsersHandler) expireCookie(c *fiber.Ctx, name, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   h.cookies.Secure,
		HTTPOnly: true,
	})
}

// SafeRedirect keeps post-login redirects on this site; anything else becomes "/".
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/"
	}
	return target
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}
