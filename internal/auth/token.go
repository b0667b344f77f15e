package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// TokenPrefix marks an encoded admin token.
	TokenPrefix = "admtk_"

	checksumSeparator = "-"
	tokenSegments     = 2
)

// EncodeToken serializes the credential as prefix + base64(json) + "-" + IntegrityHash(base64).
func EncodeToken(c AdminCredential) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	payload := base64.StdEncoding.EncodeToString(raw)
	return TokenPrefix + payload + checksumSeparator + IntegrityHash(payload), nil
}

// wirePayload mirrors AdminCredential with pointers so absent fields are detectable.
type wirePayload struct {
	Authenticated *bool   `json:"authenticated"`
	Identity      *string `json:"email"`
	IssuedAt      *int64  `json:"issuedAt"`
	ExpiresAt     *int64  `json:"expiresAt"`
}

// payloadKeys are the only JSON keys a token payload may carry, spelled exactly.
var payloadKeys = map[string]bool{
	"authenticated": true,
	"email":         true,
	"issuedAt":      true,
	"expiresAt":     true,
}

// DecodeToken parses an encoded admin token. The checksum is verified before the
// payload is base64-decoded or parsed. Unknown or miscased keys and missing required
// fields are rejected; any failure yields ErrMalformedToken.
func DecodeToken(token string) (AdminCredential, error) {
	if !strings.HasPrefix(token, TokenPrefix) {
		return AdminCredential{}, fmt.Errorf("%w: missing prefix", ErrMalformedToken)
	}

	parts := strings.Split(strings.TrimPrefix(token, TokenPrefix), checksumSeparator)
	if len(parts) != tokenSegments || parts[0] == "" || parts[1] == "" {
		return AdminCredential{}, fmt.Errorf("%w: expected %d segments", ErrMalformedToken, tokenSegments)
	}

	payload, sum := parts[0], parts[1]
	if IntegrityHash(payload) != sum {
		return AdminCredential{}, fmt.Errorf("%w: checksum mismatch", ErrMalformedToken)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return AdminCredential{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&fields); err != nil {
		return AdminCredential{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if dec.More() {
		return AdminCredential{}, fmt.Errorf("%w: trailing data", ErrMalformedToken)
	}
	for key := range fields {
		if !payloadKeys[key] {
			return AdminCredential{}, fmt.Errorf("%w: unexpected field %q", ErrMalformedToken, key)
		}
	}

	// Keys are now known to be exact, so the case-insensitive matching of
	// encoding/json cannot pick up a differently spelled field.
	var wire wirePayload
	strict := json.NewDecoder(bytes.NewReader(raw))
	strict.DisallowUnknownFields()
	if err := strict.Decode(&wire); err != nil {
		return AdminCredential{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if wire.Authenticated == nil || wire.IssuedAt == nil || wire.ExpiresAt == nil {
		return AdminCredential{}, fmt.Errorf("%w: missing required fields", ErrMalformedToken)
	}

	cred := AdminCredential{
		Authenticated: *wire.Authenticated,
		IssuedAt:      *wire.IssuedAt,
		ExpiresAt:     *wire.ExpiresAt,
	}
	if wire.Identity != nil {
		cred.Identity = *wire.Identity
	}
	return cred, nil
}
