package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for API calls. They mirror apiclient.Outcome names.
const (
	OutcomeSuccess      = "success"
	OutcomeServerError  = "server_error"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNetworkError = "network_error"
)

// Metrics holds all Prometheus metrics for todoask
type Metrics struct {
	// API client metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Credential resolution: "attached" or "anonymous"
	CredentialLookups *prometheus.CounterVec

	// Unauthorized responses that reached the notifier
	UnauthorizedNotifications prometheus.Counter

	// Identity session refreshes
	SessionRefreshes *prometheus.CounterVec

	// CLI command metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Development server metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoask_api_requests_total",
				Help: "Total number of backend API calls by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		APILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todoask_api_request_duration_seconds",
				Help:    "Backend API call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"method"},
		),
		CredentialLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoask_credential_lookups_total",
				Help: "Credential resolutions before an API call",
			},
			[]string{"result"},
		),
		UnauthorizedNotifications: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "todoask_unauthorized_notifications_total",
				Help: "Unauthorized responses surfaced to the user",
			},
		),
		SessionRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoask_session_refreshes_total",
				Help: "Identity session refresh attempts",
			},
			[]string{"success"},
		),
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoask_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todoask_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todoask_devserver_requests_total",
				Help: "Requests served by the development server",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todoask_devserver_request_duration_seconds",
				Help:    "Development server request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordAPIRequest records one API call
func (m *Metrics) RecordAPIRequest(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, outcome).Inc()
	m.APILatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCredentialLookup records whether a bearer token was attached
func (m *Metrics) RecordCredentialLookup(attached bool) {
	if m == nil {
		return
	}
	result := "anonymous"
	if attached {
		result = "attached"
	}
	m.CredentialLookups.WithLabelValues(result).Inc()
}

// RecordUnauthorizedNotification counts a notifier invocation
func (m *Metrics) RecordUnauthorizedNotification() {
	if m == nil {
		return
	}
	m.UnauthorizedNotifications.Inc()
}

// RecordSessionRefresh records an identity token refresh attempt
func (m *Metrics) RecordSessionRefresh(success bool) {
	if m == nil {
		return
	}
	m.SessionRefreshes.WithLabelValues(boolLabel(success)).Inc()
}

// RecordCommand records a CLI command execution
func (m *Metrics) RecordCommand(command string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(command, boolLabel(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordHTTPRequest records a request served by the development server
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
