package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-gateway/internal/domain"
)

type cookieRequest map[string]string

func (r cookieRequest) Path() string              { return "/admin/dashboard" }
func (r cookieRequest) Cookie(name string) string { return r[name] }
func (r cookieRequest) UserAgent() string         { return "" }

func newTestManager(t *testing.T) (*Manager, func()) {
	t.Helper()
	mr, client := newTestRedis(t)
	m := NewManager(NewRedisStore(client), NewCookieSigner("secret"), "sid", time.Hour, nil)
	return m, mr.Close
}

func TestManagerCreateAndResolve(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	value, exp, err := m.Create(ctx, &domain.User{ID: "u1", Email: "owner@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sess, err := m.CurrentSession(ctx, cookieRequest{"sid": value})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "owner@example.com", sess.Identity)

	require.NoError(t, m.Destroy(ctx, value))
	sess, err = m.CurrentSession(ctx, cookieRequest{"sid": value})
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestManagerNoSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for name, req := range map[string]cookieRequest{
		"no cookie":     {},
		"forged cookie": {"sid": "eyJhbGciOiJIUzI1NiJ9.e30.bogus"},
		"wrong name":    {"session": "x"},
	} {
		t.Run(name, func(t *testing.T) {
			sess, err := m.CurrentSession(ctx, req)
			assert.NoError(t, err)
			assert.Nil(t, sess)
		})
	}

	t.Run("unknown session id", func(t *testing.T) {
		value, err := m.signer.Sign("missing", time.Now(), time.Now().Add(time.Hour))
		require.NoError(t, err)
		sess, err := m.CurrentSession(ctx, cookieRequest{"sid": value})
		assert.NoError(t, err)
		assert.Nil(t, sess)
	})
}

func TestManagerStoreFailureIsError(t *testing.T) {
	m, stop := newTestManager(t)
	ctx := context.Background()

	value, _, err := m.Create(ctx, &domain.User{ID: "u1", Email: "owner@example.com"})
	require.NoError(t, err)

	stop()

	sess, err := m.CurrentSession(ctx, cookieRequest{"sid": value})
	assert.Error(t, err)
	assert.Nil(t, sess)
}

func TestManagerExpiredRecord(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	value, _, err := m.Create(ctx, &domain.User{ID: "u1", Email: "owner@example.com"})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	sess, err := m.CurrentSession(ctx, cookieRequest{"sid": value})
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestManagerDestroyIgnoresInvalidCookie(t *testing.T) {
	m, _ := newTestManager(t)
	assert.NoError(t, m.Destroy(context.Background(), "garbage"))
}
