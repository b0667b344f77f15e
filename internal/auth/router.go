package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SameSiteStrict is the SameSite mode used for every cookie the gate sets.
const SameSiteStrict = "Strict"

// RedirectParam carries the originally requested path to the login page.
const RedirectParam = "redirectTo"

// GateConfig is the immutable configuration of the access gate.
type GateConfig struct {
	PrivilegedIdentity string

	AdminPath   string
	LoginPath   string
	PublicPaths []string

	AdminCookieName string
	AdminTokenTTL   time.Duration

	EmergencyCookieName      string
	EmergencySecret          string
	EmergencyUserAgentMarker string
	EmergencyTTL             time.Duration

	SessionLookupTimeout time.Duration
	Production           bool

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultGateConfig returns the stock paths, cookie names and TTLs for identity.
func DefaultGateConfig(identity string) GateConfig {
	return GateConfig{
		PrivilegedIdentity:  identity,
		AdminPath:           "/admin",
		LoginPath:           "/login",
		PublicPaths:         []string{"/", "/login", "/register", "/forgot-password", "/reset-password", "/api", "/admin"},
		AdminCookieName:     "admin_token",
		AdminTokenTTL:       time.Hour,
		EmergencyCookieName: "admin_emergency",
		EmergencyTTL:        5 * time.Minute,
	}
}

// Validate rejects configurations the gate cannot run with.
func (c GateConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.PrivilegedIdentity) == "":
		return errors.New("privileged identity is required")
	case !strings.HasPrefix(c.AdminPath, "/") || c.AdminPath == "/":
		return errors.New("admin path must be a non-root absolute path")
	case !strings.HasPrefix(c.LoginPath, "/"):
		return errors.New("login path must be absolute")
	case c.AdminCookieName == "" || c.EmergencyCookieName == "":
		return errors.New("cookie names are required")
	case c.AdminCookieName == c.EmergencyCookieName:
		return errors.New("admin and emergency cookies must differ")
	case c.AdminTokenTTL <= 0 || c.EmergencyTTL <= 0:
		return errors.New("cookie TTLs must be positive")
	}
	return nil
}

func (c GateConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// PathClass is the routing category of a request path.
type PathClass string

const (
	PathAdminLogin     PathClass = "admin_login"
	PathAdminProtected PathClass = "admin_protected"
	PathPublic         PathClass = "public"
	PathApp            PathClass = "app"
)

// Decision is what the HTTP layer must do with a request.
type Decision struct {
	Class      PathClass
	Allow      bool
	RedirectTo string
	Cookies    []Cookie

	// Outcome is set for admin-protected paths.
	Outcome *Outcome
	// Session is set when an app path was allowed.
	Session *Session
}

// RequestRouter classifies request paths and dispatches them to the right check.
type RequestRouter struct {
	cfg      GateConfig
	chain    *VerificationChain
	sessions SessionProvider
	logger   *zap.Logger
}

// NewRequestRouter validates cfg and wires the verification chain.
func NewRequestRouter(cfg GateConfig, sessions SessionProvider, logger *zap.Logger) (*RequestRouter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.AdminPath = strings.TrimSuffix(cfg.AdminPath, "/")
	cfg.PrivilegedIdentity = NormalizeIdentity(cfg.PrivilegedIdentity)
	return &RequestRouter{
		cfg:      cfg,
		chain:    NewVerificationChain(cfg, sessions, logger),
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Config returns the router's configuration.
func (rr *RequestRouter) Config() GateConfig {
	return rr.cfg
}

// Classify returns the category of path. The admin area is matched without regard to
// case so that no spelling of it reaches a router that folds case without the chain.
func (rr *RequestRouter) Classify(path string) PathClass {
	if path == "" {
		path = "/"
	}
	folded, admin := strings.ToLower(path), strings.ToLower(rr.cfg.AdminPath)
	if folded == admin || folded == admin+"/" {
		return PathAdminLogin
	}
	if strings.HasPrefix(folded, admin+"/") {
		return PathAdminProtected
	}
	for _, p := range rr.cfg.PublicPaths {
		if matchesPath(path, p) {
			return PathPublic
		}
	}
	return PathApp
}

func matchesPath(path, pattern string) bool {
	if path == pattern {
		return true
	}
	if pattern == "/" {
		return false
	}
	return strings.HasPrefix(path, strings.TrimSuffix(pattern, "/")+"/")
}

// Decide classifies req and runs the checks its class requires.
func (rr *RequestRouter) Decide(ctx context.Context, req Request) Decision {
	class := rr.Classify(req.Path())
	switch class {
	case PathAdminLogin, PathPublic:
		return Decision{Class: class, Allow: true}
	case PathAdminProtected:
		outcome := rr.chain.Verify(ctx, req)
		if !outcome.Granted {
			return Decision{Class: class, RedirectTo: rr.cfg.AdminPath, Outcome: &outcome}
		}
		d := Decision{Class: class, Allow: true, Outcome: &outcome}
		if outcome.SetCookie != nil {
			d.Cookies = append(d.Cookies, *outcome.SetCookie)
		}
		return d
	default:
		return rr.decideApp(ctx, req)
	}
}

func (rr *RequestRouter) decideApp(ctx context.Context, req Request) Decision {
	var sess *Session
	if rr.sessions != nil {
		if rr.cfg.SessionLookupTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, rr.cfg.SessionLookupTimeout)
			defer cancel()
		}
		var err error
		sess, err = rr.sessions.CurrentSession(ctx, req)
		if err != nil {
			rr.logger.Warn("session lookup failed", zap.String("path", req.Path()), zap.Error(err))
			sess = nil
		}
	}
	if sess == nil {
		return Decision{Class: PathApp, RedirectTo: LoginRedirect(rr.cfg.LoginPath, req.Path())}
	}
	return Decision{Class: PathApp, Allow: true, Session: sess}
}

// LoginRedirect builds the login URL carrying the original path for post-login continuation.
func LoginRedirect(loginPath, original string) string {
	q := url.Values{}
	q.Set(RedirectParam, original)
	return loginPath + "?" + q.Encode()
}
