package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	_, m := NewRegistry()

	require.NotNil(t, m)
	assert.NotNil(t, m.APIRequests)
	assert.NotNil(t, m.APILatency)
	assert.NotNil(t, m.CredentialLookups)
	assert.NotNil(t, m.UnauthorizedNotifications)
	assert.NotNil(t, m.SessionRefreshes)
	assert.NotNil(t, m.CommandExecutions)
	assert.NotNil(t, m.CommandDuration)
}

func TestRecordAPIRequest(t *testing.T) {
	_, m := NewRegistry()

	m.RecordAPIRequest("GET", OutcomeSuccess, 20*time.Millisecond)
	m.RecordAPIRequest("GET", OutcomeSuccess, 30*time.Millisecond)
	m.RecordAPIRequest("POST", OutcomeNetworkError, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("POST", OutcomeNetworkError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.APILatency))
}

func TestRecordCredentialLookup(t *testing.T) {
	_, m := NewRegistry()

	m.RecordCredentialLookup(true)
	m.RecordCredentialLookup(false)
	m.RecordCredentialLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CredentialLookups.WithLabelValues("attached")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CredentialLookups.WithLabelValues("anonymous")))
}

func TestRecordUnauthorizedNotification(t *testing.T) {
	_, m := NewRegistry()

	m.RecordUnauthorizedNotification()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnauthorizedNotifications))
}

func TestRecordCommandAndRefresh(t *testing.T) {
	_, m := NewRegistry()

	m.RecordCommand("tasks list", true, 10*time.Millisecond)
	m.RecordSessionRefresh(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandExecutions.WithLabelValues("tasks list", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionRefreshes.WithLabelValues("false")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAPIRequest("GET", OutcomeSuccess, time.Millisecond)
		m.RecordCredentialLookup(true)
		m.RecordUnauthorizedNotification()
		m.RecordSessionRefresh(true)
		m.RecordCommand("ask", false, time.Millisecond)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg, m := NewRegistry()
	m.RecordAPIRequest("DELETE", OutcomeUnauthorized, time.Millisecond)

	path := filepath.Join(t.TempDir(), "todoask.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `todoask_api_requests_total{method="DELETE",outcome="unauthorized"} 1`))

	assert.NoError(t, WriteTextfile("", reg))
}

func TestRecordHTTPRequest(t *testing.T) {
	_, m := NewRegistry()

	m.RecordHTTPRequest("GET", "/tasks", 401, time.Millisecond)
	m.RecordHTTPRequest("GET", "/tasks", 401, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/tasks", "401")))
}

func TestHandler(t *testing.T) {
	reg, m := NewServerRegistry()
	m.RecordHTTPRequest("POST", "/ask", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `todoask_devserver_requests_total{method="POST",route="/ask",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
