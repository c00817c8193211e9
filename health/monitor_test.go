package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyChecker(component string) Checker {
	return CheckerFunc(func(_ context.Context) Status {
		return HealthyStatus(component)
	})
}

func unhealthyChecker(component, message string) Checker {
	return CheckerFunc(func(_ context.Context) Status {
		return UnhealthyStatus(component, message)
	})
}

func TestOverall_AllHealthy(t *testing.T) {
	m := NewMonitor()
	m.Register("nats", healthyChecker("nats"))
	m.Register("transport", healthyChecker("transport"))

	status := m.Overall(context.Background())
	assert.True(t, status.Healthy)
	require.Len(t, status.SubStatuses, 2)
	// Stable name ordering.
	assert.Equal(t, "nats", status.SubStatuses[0].Component)
	assert.Equal(t, "transport", status.SubStatuses[1].Component)
}

func TestOverall_OneUnhealthyFailsAggregate(t *testing.T) {
	m := NewMonitor()
	m.Register("nats", unhealthyChecker("nats", "connection lost"))
	m.Register("transport", healthyChecker("transport"))

	status := m.Overall(context.Background())
	assert.False(t, status.Healthy)
}

func TestOverall_EmptyMonitorIsHealthy(t *testing.T) {
	m := NewMonitor()
	status := m.Overall(context.Background())
	assert.True(t, status.Healthy)
	assert.Empty(t, status.SubStatuses)
}

func TestUnregister(t *testing.T) {
	m := NewMonitor()
	m.Register("nats", unhealthyChecker("nats", "down"))
	assert.False(t, m.Overall(context.Background()).Healthy)

	m.Unregister("nats")
	assert.True(t, m.Overall(context.Background()).Healthy)
}

func TestLivenessHandler(t *testing.T) {
	m := NewMonitor()
	m.Register("nats", unhealthyChecker("nats", "down"))

	recorder := httptest.NewRecorder()
	m.LivenessHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/healthz", nil))

	// Liveness ignores collaborator health.
	assert.Equal(t, 200, recorder.Code)
}

func TestReadinessHandler(t *testing.T) {
	m := NewMonitor()
	m.Register("nats", healthyChecker("nats"))

	recorder := httptest.NewRecorder()
	m.ReadinessHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/readyz", nil))
	require.Equal(t, 200, recorder.Code)

	var status Status
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, "fdrgateway", status.Component)

	m.Register("nats", unhealthyChecker("nats", "connection lost"))
	recorder = httptest.NewRecorder()
	m.ReadinessHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, 503, recorder.Code)
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		notWant string
	}{
		{"url", "dial https://fdr.internal.example.com/gateway failed", "[URL]", "fdr.internal"},
		{"nats url", "connect nats://10.0.0.5:4222 refused", "[URL]", "4222"},
		{"path", "read /etc/fdr/key.pem failed", "[PATH]", "key.pem"},
		{"ip and port", "dial 192.168.1.10:8443 refused", "[IP]", "192.168"},
		{"credential", "auth failed: token=abc123", "[REDACTED]", "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeMessage(tt.in)
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, tt.notWant)
		})
	}

	assert.Empty(t, sanitizeMessage(""))
}
