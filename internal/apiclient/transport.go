package apiclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewTransport returns the default Doer: an http.Client whose transport
// propagates trace context. A zero timeout leaves requests unbounded except
// by the caller's context.
func NewTransport(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
