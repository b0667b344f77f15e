package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is the transport-neutral view of an inbound request the gate needs.
type Request interface {
	Path() string
	Cookie(name string) string
	UserAgent() string
}

// Session is what the session provider reports for an authenticated caller.
type Session struct {
	Identity string
}

// SessionProvider resolves the caller's current session.
// A nil session with a nil error means the caller has no session.
type SessionProvider interface {
	CurrentSession(ctx context.Context, req Request) (*Session, error)
}

// Method identifies which verification step granted access.
type Method string

const (
	MethodSession   Method = "session"
	MethodToken     Method = "token"
	MethodEmergency Method = "emergency"
)

// Cookie is a directive to set a cookie on the response.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	MaxAge   time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Outcome is the result of running the chain: Granted is false for Denied.
type Outcome struct {
	Granted   bool
	Via       Method
	SetCookie *Cookie
}

// StepKind tags a single step's result.
type StepKind int

const (
	StepFallThrough StepKind = iota
	StepGranted
	StepProviderError
)

// StepResult is returned by each verification step.
type StepResult struct {
	Kind      StepKind
	SetCookie *Cookie
	Err       error
}

func granted(cookie *Cookie) StepResult { return StepResult{Kind: StepGranted, SetCookie: cookie} }

func fallThrough(err error) StepResult { return StepResult{Kind: StepFallThrough, Err: err} }

// Step is one independent way a request can prove admin privilege.
type Step interface {
	Method() Method
	Check(ctx context.Context, req Request) StepResult
}

// VerificationChain evaluates its steps in order; the first grant wins.
type VerificationChain struct {
	steps  []Step
	logger *zap.Logger
}

// NewVerificationChain builds the session → token → emergency chain for cfg.
func NewVerificationChain(cfg GateConfig, sessions SessionProvider, logger *zap.Logger) *VerificationChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := NewCredentialValidator(cfg.PrivilegedIdentity, cfg.Now)
	return NewVerificationChainWithSteps(logger,
		&SessionCheck{cfg: cfg, sessions: sessions, validator: validator},
		&TokenCheck{cfg: cfg, validator: validator},
		&EmergencyCheck{cfg: cfg},
	)
}

// NewVerificationChainWithSteps builds a chain from explicit steps.
func NewVerificationChainWithSteps(logger *zap.Logger, steps ...Step) *VerificationChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationChain{steps: steps, logger: logger}
}

// Verify runs the chain for req and returns Granted from the first succeeding step or Denied.
func (vc *VerificationChain) Verify(ctx context.Context, req Request) Outcome {
	for _, step := range vc.steps {
		res := step.Check(ctx, req)
		switch res.Kind {
		case StepGranted:
			return Outcome{Granted: true, Via: step.Method(), SetCookie: res.SetCookie}
		case StepProviderError:
			vc.logger.Warn("admin verification step failed",
				zap.String("step", string(step.Method())),
				zap.String("path", req.Path()),
				zap.Error(res.Err))
		default:
			if res.Err != nil {
				vc.logger.Debug("admin verification step rejected",
					zap.String("step", string(step.Method())),
					zap.String("path", req.Path()),
					zap.String("reason", reasonOf(res.Err)))
			}
		}
	}
	return Outcome{}
}

// SessionCheck grants access when the provider reports a session for the privileged identity,
// and mints a fresh admin token cookie.
type SessionCheck struct {
	cfg       GateConfig
	sessions  SessionProvider
	validator *CredentialValidator
}

func (s *SessionCheck) Method() Method { return MethodSession }

func (s *SessionCheck) Check(ctx context.Context, req Request) StepResult {
	if s.sessions == nil {
		return fallThrough(nil)
	}
	if s.cfg.SessionLookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SessionLookupTimeout)
		defer cancel()
	}

	sess, err := s.sessions.CurrentSession(ctx, req)
	if err != nil {
		return StepResult{Kind: StepProviderError, Err: fmt.Errorf("%w: %v", ErrProviderUnavailable, err)}
	}
	if sess == nil {
		return fallThrough(nil)
	}
	if !s.validator.IsPrivileged(sess.Identity) {
		return fallThrough(ErrWrongIdentity)
	}

	cred := NewAdminCredential(sess.Identity, s.cfg.now(), s.cfg.AdminTokenTTL)
	token, err := EncodeToken(cred)
	if err != nil {
		// The session alone is sufficient; the next request repeats the session check.
		return granted(nil)
	}
	return granted(&Cookie{
		Name:     s.cfg.AdminCookieName,
		Value:    token,
		Path:     s.cfg.AdminPath,
		MaxAge:   s.cfg.AdminTokenTTL,
		HTTPOnly: true,
		Secure:   s.cfg.Production,
		SameSite: SameSiteStrict,
	})
}

// TokenCheck grants access for a well-formed, unexpired admin token minted for the privileged identity.
type TokenCheck struct {
	cfg       GateConfig
	validator *CredentialValidator
}

func (t *TokenCheck) Method() Method { return MethodToken }

func (t *TokenCheck) Check(_ context.Context, req Request) StepResult {
	raw := req.Cookie(t.cfg.AdminCookieName)
	if raw == "" {
		return fallThrough(nil)
	}
	cred, err := DecodeToken(raw)
	if err != nil {
		return fallThrough(err)
	}
	if err := t.validator.Check(cred); err != nil {
		return fallThrough(err)
	}
	return granted(nil)
}

// EmergencyCheck grants access when the emergency cookie carries the shared secret and the
// user agent contains the configured marker. The cookie is re-issued with a short TTL.
type EmergencyCheck struct {
	cfg GateConfig
}

func (e *EmergencyCheck) Method() Method { return MethodEmergency }

func (e *EmergencyCheck) Check(_ context.Context, req Request) StepResult {
	if e.cfg.EmergencySecret == "" || e.cfg.EmergencyUserAgentMarker == "" {
		return fallThrough(nil)
	}
	value := req.Cookie(e.cfg.EmergencyCookieName)
	if value == "" {
		return fallThrough(nil)
	}
	if subtle.ConstantTimeCompare([]byte(value), []byte(e.cfg.EmergencySecret)) != 1 {
		return fallThrough(nil)
	}
	if !strings.Contains(req.UserAgent(), e.cfg.EmergencyUserAgentMarker) {
		return fallThrough(nil)
	}
	return granted(&Cookie{
		Name:     e.cfg.EmergencyCookieName,
		Value:    e.cfg.EmergencySecret,
		Path:     e.cfg.AdminPath,
		MaxAge:   e.cfg.EmergencyTTL,
		HTTPOnly: true,
		Secure:   true,
		SameSite: SameSiteStrict,
	})
}
