package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-gateway/internal/auth"
	"github.com/spec-kit/admin-gateway/internal/domain"
)

// Manager creates and resolves application sessions. It is the session provider
// consulted by the admin gate.
type Manager struct {
	store      Store
	signer     *CookieSigner
	cookieName string
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

var _ auth.SessionProvider = (*Manager)(nil)

// NewManager constructs a manager.
func NewManager(store Store, signer *CookieSigner, cookieName string, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, signer: signer, cookieName: cookieName, ttl: ttl, logger: logger, now: time.Now}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Create starts a session for user and returns the signed cookie value.
func (m *Manager) Create(ctx context.Context, user *domain.User) (string, time.Time, error) {
	now := m.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return "", time.Time{}, fmt.Errorf("save session: %w", err)
	}
	value, err := m.signer.Sign(sess.ID, now, sess.ExpiresAt)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return value, sess.ExpiresAt, nil
}

// Destroy removes the session referenced by the cookie value. Unknown or invalid
// cookies are ignored.
func (m *Manager) Destroy(ctx context.Context, cookieValue string) error {
	id, err := m.signer.Parse(cookieValue)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// CurrentSession implements auth.SessionProvider. A missing, forged, unknown or
// expired session is reported as no session; only store failures are errors.
func (m *Manager) CurrentSession(ctx context.Context, req auth.Request) (*auth.Session, error) {
	value := req.Cookie(m.cookieName)
	if value == "" {
		return nil, nil
	}
	id, err := m.signer.Parse(value)
	if err != nil {
		m.logger.Debug("ignoring invalid session cookie", zap.Error(err))
		return nil, nil
	}
	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(m.now()) {
		return nil, nil
	}
	return &auth.Session{Identity: sess.Email}, nil
}
