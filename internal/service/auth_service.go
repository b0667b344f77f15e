package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-gateway/internal/auth"
	"github.com/spec-kit/admin-gateway/internal/config"
	"github.com/spec-kit/admin-gateway/internal/domain"
	"github.com/spec-kit/admin-gateway/internal/repository"
	apperrors "github.com/spec-kit/admin-gateway/pkg/util"
)

const minPasswordLength = 8

// SessionIssuer creates and destroys application sessions.
type SessionIssuer interface {
	Create(ctx context.Context, user *domain.User) (string, time.Time, error)
	Destroy(ctx context.Context, cookieValue string) error
}

// AuthService coordinates registration, login and password recovery.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	sessions   SessionIssuer
	privileged string
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Sessions          SessionIssuer
	Logger            *zap.Logger
	// PrivilegedIdentity is reserved: it can only be provisioned with EnsurePrivilegedUser.
	PrivilegedIdentity string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		sessions:   deps.Sessions,
		privileged: normalizeEmail(deps.PrivilegedIdentity),
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   cfg.PasswordResetTTL(),
		now:        time.Now,
	}
}

// RegisterUser creates a new account. The privileged identity is refused as if it were
// already registered.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}
	if s.privileged != "" && email == s.privileged {
		s.logger.Warn("public registration of the privileged identity refused")
		return nil, apperrors.NewConflict("email already registered", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}
	return s.createUser(ctx, name, email, password)
}

// EnsurePrivilegedUser creates the privileged account with password unless it already
// exists. It reports whether an account was created.
func (s *AuthService) EnsurePrivilegedUser(ctx context.Context, name, password string) (*domain.User, bool, error) {
	if s.privileged == "" {
		return nil, false, apperrors.NewValidationError("privileged identity not configured", nil)
	}
	if err := validateRegistration(name, s.privileged, password); err != nil {
		return nil, false, err
	}

	existing, err := s.users.GetByEmail(ctx, s.privileged)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.NewInternalError(err)
	}

	user, err := s.createUser(ctx, name, s.privileged, password)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("provisioned privileged account", zap.String("user_id", user.ID))
	return user, true, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Login verifies credentials and opens a session. It returns the session cookie value.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, apperrors.NewForbidden("account suspended")
	}

	value, exp, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, value, exp, nil
}

// Logout ends the session referenced by the cookie value.
func (s *AuthService) Logout(ctx context.Context, cookieValue string) error {
	if cookieValue == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, cookieValue); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// RequestPasswordReset persists a reset token for the account. Unknown emails
// return a nil token and no error so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Debug("password reset requested for unknown email")
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewValidationError("invalid reset token", nil)
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if token.UsedAt != nil || !s.now().Before(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, token.UserID, hash); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return auth.NormalizeIdentity(email)
}

func validateRegistration(name, email, password string) error {
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		details["email"] = "invalid"
	}
	if len(password) < minPasswordLength {
		details["password"] = "too short"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}
