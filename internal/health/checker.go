// Package health runs dependency checks for the todoask CLI and the
// development server.
//
// The CLI's doctor command registers an HTTPChecker per backend and a
// SessionChecker; the devserver answers liveness and readiness probes from
// the same Manager.
//
//	m := health.NewManager(
//		health.NewHTTPChecker("task-service", taskURL, client),
//		health.NewSessionChecker(store),
//	)
//	report := m.Run(ctx)
package health

import (
	"context"
	"time"
)

// Checker is a single named dependency check. Check must honour the
// context deadline.
type Checker interface {
	Name() string
	Check(ctx context.Context) *Result
}

// CheckFunc turns fn into a Checker called name.
func CheckFunc(name string, fn func(ctx context.Context) *Result) Checker {
	return funcChecker{name: name, fn: fn}
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) *Result
}

func (f funcChecker) Name() string                      { return f.name }
func (f funcChecker) Check(ctx context.Context) *Result { return f.fn(ctx) }

// Status is the state of a checked component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	// StatusDegraded means the component works but needs attention, such as
	// an expired session that can still be refreshed.
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string { return string(s) }

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worse returns whichever of s and other is more severe.
func (s Status) Worse(other Status) Status {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

// Result is the outcome of one check.
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency" yaml:"latency"`
}

func Healthy(message string) *Result   { return &Result{Status: StatusHealthy, Message: message} }
func Degraded(message string) *Result  { return &Result{Status: StatusDegraded, Message: message} }
func Unhealthy(message string) *Result { return &Result{Status: StatusUnhealthy, Message: message} }

// With records a detail and returns r.
func (r *Result) With(key string, value any) *Result {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
	return r
}
