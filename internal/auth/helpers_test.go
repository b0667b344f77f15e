package auth_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/spec-kit/admin-gateway/internal/auth"
)

const adminEmail = "owner@example.com"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

type testRequest struct {
	path      string
	cookies   map[string]string
	userAgent string
}

func (r testRequest) Path() string              { return r.path }
func (r testRequest) Cookie(name string) string { return r.cookies[name] }
func (r testRequest) UserAgent() string         { return r.userAgent }

// stubProvider returns a fixed session or error and counts lookups.
type stubProvider struct {
	session *auth.Session
	err     error
	calls   atomic.Int32
}

func (p *stubProvider) CurrentSession(_ context.Context, _ auth.Request) (*auth.Session, error) {
	p.calls.Add(1)
	return p.session, p.err
}

// blockingProvider waits for the context to end.
type blockingProvider struct{}

func (blockingProvider) CurrentSession(ctx context.Context, _ auth.Request) (*auth.Session, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testGateConfig() auth.GateConfig {
	cfg := auth.DefaultGateConfig(adminEmail)
	cfg.EmergencySecret = "break-glass"
	cfg.EmergencyUserAgentMarker = "OpsRescue/1"
	cfg.Now = clock(fixedNow)
	return cfg
}

func mustEncode(c auth.AdminCredential) string {
	token, err := auth.EncodeToken(c)
	if err != nil {
		panic(err)
	}
	return token
}
