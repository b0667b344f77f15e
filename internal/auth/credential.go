package auth

import (
	"strings"
	"time"
)

// AdminCredential is the decoded payload of an admin token. Timestamps are epoch milliseconds.
type AdminCredential struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"email,omitempty"`
	IssuedAt      int64  `json:"issuedAt"`
	ExpiresAt     int64  `json:"expiresAt"`
}

// NewAdminCredential mints an authenticated credential for identity valid for ttl from now.
func NewAdminCredential(identity string, now time.Time, ttl time.Duration) AdminCredential {
	return AdminCredential{
		Authenticated: true,
		Identity:      identity,
		IssuedAt:      now.UnixMilli(),
		ExpiresAt:     now.Add(ttl).UnixMilli(),
	}
}

// CredentialValidator decides whether a decoded credential grants admin access.
type CredentialValidator struct {
	identity string
	now      func() time.Time
}

// NewCredentialValidator binds the validator to the single privileged identity, which is
// compared as given; callers normalize it once with NormalizeIdentity.
// A nil clock defaults to time.Now.
func NewCredentialValidator(privilegedIdentity string, now func() time.Time) *CredentialValidator {
	if now == nil {
		now = time.Now
	}
	return &CredentialValidator{identity: privilegedIdentity, now: now}
}

// NormalizeIdentity is the canonical form of an identity: trimmed and lower-cased,
// matching how account emails are stored.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// IsCurrentlyValid reports whether the credential is authenticated and not yet expired.
func (v *CredentialValidator) IsCurrentlyValid(c AdminCredential) bool {
	err := v.check(c)
	return err == nil || err == ErrWrongIdentity
}

// GrantsAdminAccess reports whether the credential is valid and belongs to the privileged identity.
func (v *CredentialValidator) GrantsAdminAccess(c AdminCredential) bool {
	return v.check(c) == nil
}

// Check returns nil when the credential grants access, otherwise the rejection reason.
func (v *CredentialValidator) Check(c AdminCredential) error {
	return v.check(c)
}

func (v *CredentialValidator) check(c AdminCredential) error {
	if !c.Authenticated {
		return ErrNotAuthenticated
	}
	if v.now().UnixMilli() >= c.ExpiresAt {
		return ErrExpiredCredential
	}
	if !v.IsPrivileged(c.Identity) {
		return ErrWrongIdentity
	}
	return nil
}

// IsPrivileged reports whether identity is exactly the configured privileged principal.
// An empty identity never matches.
func (v *CredentialValidator) IsPrivileged(identity string) bool {
	return identity != "" && identity == v.identity
}
