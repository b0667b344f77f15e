package auth

import "errors"

var (
	// ErrMalformedToken covers wrong prefix, bad segment count, checksum mismatch and unparsable payloads.
	ErrMalformedToken = errors.New("malformed admin token")
	// ErrEncodingFailure is returned when a credential cannot be serialized.
	ErrEncodingFailure = errors.New("admin token encoding failed")

	ErrNotAuthenticated  = errors.New("credential not authenticated")
	ErrExpiredCredential = errors.New("credential expired")
	ErrWrongIdentity     = errors.New("credential minted for another identity")

	// ErrProviderUnavailable wraps session provider failures inside the chain.
	ErrProviderUnavailable = errors.New("session provider unavailable")
)

// reasonOf maps a rejection error to a short label used in logs and metrics.
func reasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrExpiredCredential):
		return "expired"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrWrongIdentity):
		return "wrong_identity"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	default:
		return "unknown"
	}
}
