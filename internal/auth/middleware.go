package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-gateway/internal/events"
	"github.com/spec-kit/admin-gateway/internal/observability"
)

const (
	outcomeKey = "admin_outcome"
	sessionKey = "app_session"
)

// GateMiddleware applies RequestRouter decisions to fiber requests.
type GateMiddleware struct {
	router     *RequestRouter
	logger     *zap.Logger
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// NewGateMiddleware constructs middleware. dispatcher and metrics may be nil.
func NewGateMiddleware(router *RequestRouter, logger *zap.Logger, dispatcher events.Dispatcher, metrics *observability.Metrics) *GateMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateMiddleware{router: router, logger: logger, dispatcher: dispatcher, metrics: metrics}
}

// Handle enforces access control for every request.
func (m *GateMiddleware) Handle(c *fiber.Ctx) error {
	req := NewFiberRequest(c)
	decision := m.router.Decide(c.UserContext(), req)

	m.metrics.RecordAccessDecision(string(decision.Class), decisionLabel(decision))
	m.publish(c, decision)

	if !decision.Allow {
		return c.Redirect(decision.RedirectTo, fiber.StatusTemporaryRedirect)
	}

	for i := range decision.Cookies {
		setCookie(c, decision.Cookies[i])
	}
	if decision.Outcome != nil {
		c.Locals(outcomeKey, decision.Outcome)
	}
	if decision.Session != nil {
		c.Locals(sessionKey, decision.Session)
	}
	return c.Next()
}

func (m *GateMiddleware) publish(c *fiber.Ctx, d Decision) {
	if m.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Path:      c.Path(),
		Timestamp: time.Now().UTC(),
	}
	switch {
	case d.Class == PathAdminProtected && d.Allow:
		event.Type = events.EventAdminAccessGranted
		if d.Outcome.Via == MethodEmergency {
			event.Type = events.EventEmergencyAccessUsed
		}
		event.Payload = events.AdminAccessPayload{
			Via:          string(d.Outcome.Via),
			CookieMinted: len(d.Cookies) > 0,
			UserAgent:    c.Get(fiber.HeaderUserAgent),
			RemoteIP:     c.IP(),
		}
	case d.Class == PathAdminProtected:
		event.Type = events.EventAdminAccessDenied
		event.Payload = events.AdminAccessPayload{
			UserAgent: c.Get(fiber.HeaderUserAgent),
			RemoteIP:  c.IP(),
		}
	case d.Class == PathApp && !d.Allow:
		event.Type = events.EventAppSessionMissing
		event.Payload = events.RedirectPayload{Location: d.RedirectTo}
	default:
		return
	}
	if err := m.dispatcher.Publish(c.UserContext(), event); err != nil {
		m.logger.Warn("publish access event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func decisionLabel(d Decision) string {
	switch {
	case !d.Allow:
		return "redirect"
	case d.Outcome != nil:
		return "granted_" + string(d.Outcome.Via)
	default:
		return "allow"
	}
}

func setCookie(c *fiber.Ctx, ck Cookie) {
	c.Cookie(&fiber.Cookie{
		Name:     ck.Name,
		Value:    ck.Value,
		Path:     ck.Path,
		MaxAge:   int(ck.MaxAge / time.Second),
		Expires:  time.Now().Add(ck.MaxAge),
		Secure:   ck.Secure,
		HTTPOnly: ck.HTTPOnly,
		SameSite: ck.SameSite,
	})
}

// OutcomeFromContext returns the verification outcome of an admin-protected request.
func OutcomeFromContext(c *fiber.Ctx) (*Outcome, bool) {
	val := c.Locals(outcomeKey)
	if val == nil {
		return nil, false
	}
	outcome, ok := val.(*Outcome)
	return outcome, ok
}

// SessionFromContext returns the session that admitted an app request.
func SessionFromContext(c *fiber.Ctx) (*Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*Session)
	return sess, ok
}

type fiberRequest struct {
	c *fiber.Ctx
}

// NewFiberRequest adapts a fiber context to Request.
func NewFiberRequest(c *fiber.Ctx) Request {
	return fiberRequest{c: c}
}

func (r fiberRequest) Path() string              { return r.c.Path() }
func (r fiberRequest) Cookie(name string) string { return r.c.Cookies(name) }
func (r fiberRequest) UserAgent() string         { return r.c.Get(fiber.HeaderUserAgent) }
