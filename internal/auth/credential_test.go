package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/admin-gateway/internal/auth"
)

func TestCredentialValidator(t *testing.T) {
	v := auth.NewCredentialValidator(adminEmail, clock(fixedNow))
	now := fixedNow.UnixMilli()

	cases := []struct {
		name    string
		cred    auth.AdminCredential
		valid   bool
		grants  bool
		wantErr error
	}{
		{
			name:   "fresh credential for admin",
			cred:   auth.AdminCredential{Authenticated: true, Identity: adminEmail, IssuedAt: now, ExpiresAt: now + 1},
			valid:  true,
			grants: true,
		},
		{
			name:    "expires exactly now",
			cred:    auth.AdminCredential{Authenticated: true, Identity: adminEmail, IssuedAt: now - 10, ExpiresAt: now},
			wantErr: auth.ErrExpiredCredential,
		},
		{
			name:    "expired",
			cred:    auth.AdminCredential{Authenticated: true, Identity: adminEmail, ExpiresAt: now - 1},
			wantErr: auth.ErrExpiredCredential,
		},
		{
			name:    "not authenticated",
			cred:    auth.AdminCredential{Authenticated: false, Identity: adminEmail, ExpiresAt: now + 1000},
			wantErr: auth.ErrNotAuthenticated,
		},
		{
			name:    "valid but other identity",
			cred:    auth.AdminCredential{Authenticated: true, Identity: "intruder@example.com", ExpiresAt: now + 1000},
			valid:   true,
			wantErr: auth.ErrWrongIdentity,
		},
		{
			name:    "valid but no identity",
			cred:    auth.AdminCredential{Authenticated: true, ExpiresAt: now + 1000},
			valid:   true,
			wantErr: auth.ErrWrongIdentity,
		},
		{
			name:    "identity differs only by case",
			cred:    auth.AdminCredential{Authenticated: true, Identity: "Owner@example.com", ExpiresAt: now + 1000},
			valid:   true,
			wantErr: auth.ErrWrongIdentity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, v.IsCurrentlyValid(tc.cred))
			assert.Equal(t, tc.grants, v.GrantsAdminAccess(tc.cred))
			err := v.Check(tc.cred)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestExpiredNeverGrants(t *testing.T) {
	v := auth.NewCredentialValidator(adminEmail, clock(fixedNow))
	for _, offset := range []time.Duration{0, -time.Millisecond, -time.Hour, -365 * 24 * time.Hour} {
		for _, authenticated := range []bool{true, false} {
			for _, identity := range []string{adminEmail, "other@example.com", ""} {
				c := auth.AdminCredential{Authenticated: authenticated, Identity: identity, ExpiresAt: fixedNow.Add(offset).UnixMilli()}
				assert.False(t, v.GrantsAdminAccess(c))
			}
		}
	}
}

func TestNewAdminCredential(t *testing.T) {
	c := auth.NewAdminCredential(adminEmail, fixedNow, time.Hour)
	assert.True(t, c.Authenticated)
	assert.Equal(t, adminEmail, c.Identity)
	assert.Equal(t, fixedNow.UnixMilli(), c.IssuedAt)
	assert.Equal(t, fixedNow.Add(time.Hour).UnixMilli(), c.ExpiresAt)
}

func TestIsPrivileged(t *testing.T) {
	v := auth.NewCredentialValidator(adminEmail, nil)
	assert.True(t, v.IsPrivileged(adminEmail))
	assert.False(t, v.IsPrivileged(" "+adminEmail))
	assert.False(t, v.IsPrivileged("  "+adminEmail+"\n"))
	assert.False(t, v.IsPrivileged("Owner@Example.com"))
	assert.False(t, v.IsPrivileged(""))
	assert.False(t, v.IsPrivileged("someone@example.com"))

	empty := auth.NewCredentialValidator("", nil)
	assert.False(t, empty.IsPrivileged(""))
}

func TestPaddedIdentityNeverGrants(t *testing.T) {
	v := auth.NewCredentialValidator(adminEmail, clock(fixedNow))
	cred := auth.NewAdminCredential("  "+adminEmail+"\n", fixedNow, time.Hour)
	assert.False(t, v.GrantsAdminAccess(cred))
	assert.ErrorIs(t, v.Check(cred), auth.ErrWrongIdentity)
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, adminEmail, auth.NormalizeIdentity("  Owner@Example.COM \n"))
	assert.Empty(t, auth.NormalizeIdentity("   "))
}
