package auth_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-gateway/internal/auth"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	creds := []auth.AdminCredential{
		auth.NewAdminCredential(adminEmail, fixedNow, auth.DefaultGateConfig(adminEmail).AdminTokenTTL),
		{Authenticated: true, Identity: "someone+tag@example.org", IssuedAt: 1, ExpiresAt: 2},
		{Authenticated: false, Identity: "x", IssuedAt: 0, ExpiresAt: 0},
		{Authenticated: true, IssuedAt: 1700000000000, ExpiresAt: 1700003600000},
	}
	for _, c := range creds {
		token, err := auth.EncodeToken(c)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(token, auth.TokenPrefix))

		got, err := auth.DecodeToken(token)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestDecodeRejectsMissingPrefix(t *testing.T) {
	valid := mustEncode(auth.NewAdminCredential(adminEmail, fixedNow, time.Hour))
	inputs := []string{
		"",
		"admtk",
		strings.TrimPrefix(valid, auth.TokenPrefix),
		"ADMTK_" + strings.TrimPrefix(valid, auth.TokenPrefix),
		" " + valid,
		"Bearer " + valid,
	}
	for _, in := range inputs {
		_, err := auth.DecodeToken(in)
		assert.ErrorIs(t, err, auth.ErrMalformedToken, "input %q", in)
	}
}

func TestDecodeRejectsSegmentCount(t *testing.T) {
	valid := mustEncode(auth.NewAdminCredential(adminEmail, fixedNow, time.Hour))
	for _, in := range []string{
		auth.TokenPrefix,
		auth.TokenPrefix + "abc",
		auth.TokenPrefix + "abc-",
		auth.TokenPrefix + "-abc",
		valid + "-extra",
	} {
		_, err := auth.DecodeToken(in)
		assert.ErrorIs(t, err, auth.ErrMalformedToken, "input %q", in)
	}
}

func TestDecodeDetectsSingleByteCorruption(t *testing.T) {
	token := mustEncode(auth.NewAdminCredential(adminEmail, fixedNow, time.Hour))
	body := strings.TrimPrefix(token, auth.TokenPrefix)
	sep := strings.LastIndex(body, "-")
	payload, sum := body[:sep], body[sep+1:]

	for i := 0; i < len(payload); i++ {
		replacement := byte('A')
		if payload[i] == 'A' {
			replacement = 'B'
		}
		mutated := payload[:i] + string(replacement) + payload[i+1:]
		_, err := auth.DecodeToken(auth.TokenPrefix + mutated + "-" + sum)
		require.ErrorIs(t, err, auth.ErrMalformedToken, "mutation at %d", i)
	}
}

func TestDecodeRejectsTamperedChecksum(t *testing.T) {
	token := mustEncode(auth.NewAdminCredential(adminEmail, fixedNow, time.Hour))
	_, err := auth.DecodeToken(token + "0")
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
}

// sealed builds a token with a correct checksum around an arbitrary payload.
func sealed(payload string) string {
	return auth.TokenPrefix + payload + "-" + auth.IntegrityHash(payload)
}

func TestDecodeRejectsBadPayloadBehindValidChecksum(t *testing.T) {
	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"not base64":              "!!!!",
		"not json":                b64("hello"),
		"json array":              b64(`[true]`),
		"json null":               b64(`null`),
		"missing authenticated":   b64(`{"email":"a@b.c","issuedAt":1,"expiresAt":2}`),
		"missing issuedAt":        b64(`{"authenticated":true,"expiresAt":2}`),
		"missing expiresAt":       b64(`{"authenticated":true,"issuedAt":1}`),
		"authenticated as string": b64(`{"authenticated":"true","issuedAt":1,"expiresAt":2}`),
		"expiresAt as float":      b64(`{"authenticated":true,"issuedAt":1,"expiresAt":2.5}`),
		"expiresAt as string":     b64(`{"authenticated":true,"issuedAt":1,"expiresAt":"2"}`),
		"trailing data":           b64(`{"authenticated":true,"issuedAt":1,"expiresAt":2}{}`),
		"upper-case keys":         b64(`{"AUTHENTICATED":true,"EMAIL":"owner@example.com","ISSUEDAT":1,"EXPIRESAT":2}`),
		"miscased expiresAt":      b64(`{"authenticated":true,"issuedAt":1,"ExpiresAt":2}`),
		"miscased duplicate":      b64(`{"authenticated":false,"Authenticated":true,"issuedAt":1,"expiresAt":2}`),
		"unknown field":           b64(`{"authenticated":true,"issuedAt":1,"expiresAt":2,"role":"admin"}`),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.DecodeToken(sealed(payload))
			assert.ErrorIs(t, err, auth.ErrMalformedToken)
		})
	}
}

func TestDecodeAllowsMissingIdentity(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"authenticated":true,"issuedAt":1,"expiresAt":2}`))
	got, err := auth.DecodeToken(sealed(payload))
	require.NoError(t, err)
	assert.Equal(t, auth.AdminCredential{Authenticated: true, IssuedAt: 1, ExpiresAt: 2}, got)
}

// The checksum is unkeyed: anyone who knows the format can mint a decodable token.
func TestDecodeAcceptsForgedTokenWithRecomputedChecksum(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"authenticated":true,"email":"owner@example.com","issuedAt":1,"expiresAt":9999999999999}`))
	got, err := auth.DecodeToken(sealed(payload))
	require.NoError(t, err)
	assert.Equal(t, adminEmail, got.Identity)
}
