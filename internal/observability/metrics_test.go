package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/admin/dashboard", "GET", 200, 3*time.Millisecond)
	m.RecordRequest("/admin/dashboard", "GET", 200, time.Millisecond)
	m.RecordError("/login", "POST", "UNAUTHORIZED")
	m.RecordAccessDecision("admin_protected", "denied")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/admin/dashboard|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/login|POST|UNAUTHORIZED"])
	assert.Equal(t, int64(1), snap.Decisions["admin_protected|denied"])

	m.RecordAccessDecision("admin_protected", "denied")
	assert.Equal(t, int64(1), snap.Decisions["admin_protected|denied"], "snapshot is a copy")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordAccessDecision("public", "allowed")
	assert.Empty(t, m.Snapshot().Decisions)
}
