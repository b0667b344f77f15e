package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/admin-gateway/internal/config"
	"github.com/spec-kit/admin-gateway/internal/service"
	apperrors "github.com/spec-kit/admin-gateway/pkg/util"
)

type authFixture struct {
	svc      *service.AuthService
	users    *fakeUsers
	resets   *fakeResets
	sessions *fakeSessions
}

func newAuthFixture() *authFixture {
	f := &authFixture{users: newFakeUsers(), resets: newFakeResets(), sessions: &fakeSessions{}}
	f.svc = service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost, PasswordResetTTLMinutes: 30}, service.AuthDependencies{
		UserRepo:           f.users,
		PasswordResetRepo:  f.resets,
		Sessions:           f.sessions,
		PrivilegedIdentity: " Admin@Example.com",
	})
	return f
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestRegisterUser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.svc.RegisterUser(ctx, "Owner", "  Owner@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err = f.svc.RegisterUser(ctx, "Again", "owner@example.com", "correct-horse")
	requireCode(t, err, "CONFLICT")
}

func TestRegisterUserRefusesPrivilegedIdentity(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	for _, email := range []string{"admin@example.com", "  ADMIN@example.com"} {
		_, err := f.svc.RegisterUser(ctx, "Impostor", email, "correct-horse")
		requireCode(t, err, "CONFLICT")
	}
	_, err := f.users.GetByEmail(ctx, "admin@example.com")
	assert.Error(t, err, "no account may be created")
}

func TestEnsurePrivilegedUser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, created, err := f.svc.EnsurePrivilegedUser(ctx, "Administrator", "battery-staple")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin@example.com", user.Email)

	again, created, err := f.svc.EnsurePrivilegedUser(ctx, "Administrator", "another-password")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	_, _, _, err = f.svc.Login(ctx, "Admin@Example.com", "battery-staple")
	require.NoError(t, err, "the first password stays in force")

	_, _, err = f.svc.EnsurePrivilegedUser(ctx, "Administrator", "short")
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestEnsurePrivilegedUserWithoutIdentity(t *testing.T) {
	svc := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{UserRepo: newFakeUsers()})
	_, _, err := svc.EnsurePrivilegedUser(context.Background(), "Administrator", "battery-staple")
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestRegisterUserValidation(t *testing.T) {
	f := newAuthFixture()
	for name, in := range map[string][3]string{
		"no name":        {"", "a@b.co", "longenough"},
		"bad email":      {"A", "not-an-email", "longenough"},
		"short password": {"A", "a@b.co", "short"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RegisterUser(context.Background(), in[0], in[1], in[2])
			requireCode(t, err, "VALIDATION_FAILED")
		})
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	_, err := f.svc.RegisterUser(ctx, "Owner", "owner@example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("success opens a session", func(t *testing.T) {
		user, value, exp, err := f.svc.Login(ctx, "OWNER@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "cookie-for-"+user.ID, value)
		assert.True(t, exp.After(time.Now()))
		assert.Equal(t, []string{"owner@example.com"}, f.sessions.created)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := f.svc.Login(ctx, "owner@example.com", "wrong-horse")
		requireCode(t, err, "UNAUTHORIZED")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, _, err := f.svc.Login(ctx, "nobody@example.com", "correct-horse")
		requireCode(t, err, "UNAUTHORIZED")
	})
}

func TestLogout(t *testing.T) {
	f := newAuthFixture()
	require.NoError(t, f.svc.Logout(context.Background(), ""))
	require.NoError(t, f.svc.Logout(context.Background(), "cookie"))
	assert.Equal(t, []string{"cookie"}, f.sessions.destroyed)
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user, err := f.svc.RegisterUser(ctx, "Owner", "owner@example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("unknown email yields no token", func(t *testing.T) {
		token, err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, token)
	})

	token, err := f.svc.RequestPasswordReset(ctx, "owner@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, user.ID, token.UserID)

	requireCode(t, f.svc.ConfirmPasswordReset(ctx, token.Token, "short"), "VALIDATION_FAILED")
	requireCode(t, f.svc.ConfirmPasswordReset(ctx, "unknown", "battery-staple"), "VALIDATION_FAILED")

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, token.Token, "battery-staple"))
	_, _, _, err = f.svc.Login(ctx, "owner@example.com", "battery-staple")
	require.NoError(t, err)

	requireCode(t, f.svc.ConfirmPasswordReset(ctx, token.Token, "another-pass"), "VALIDATION_FAILED")
}
