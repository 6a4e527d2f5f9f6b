package health

import (
	"context"
	"sync/atomic"
	"time"
)

// Probes answers liveness and readiness for a long-running process.
type Probes struct {
	*Manager

	version  string
	started  time.Time
	draining atomic.Bool
}

// NewProbes returns probes reporting version, with no readiness checks yet.
func NewProbes(version string) *Probes {
	return &Probes{Manager: NewManager(), version: version, started: time.Now()}
}

// Drain marks the process as shutting down. Readiness fails from then on
// and liveness reports degraded.
func (p *Probes) Drain() {
	p.draining.Store(true)
}

// Draining reports whether Drain was called.
func (p *Probes) Draining() bool {
	return p.draining.Load()
}

// ProbeResult is the JSON body of a probe endpoint.
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Liveness runs no dependency checks.
func (p *Probes) Liveness(context.Context) *ProbeResult {
	if p.Draining() {
		return p.result(StatusDegraded, nil)
	}
	return p.result(StatusHealthy, nil)
}

// Readiness runs every registered check.
func (p *Probes) Readiness(ctx context.Context) *ProbeResult {
	if p.Draining() {
		return p.result(StatusUnhealthy, nil)
	}
	report := p.Run(ctx)
	return p.result(report.Status, report.Checks)
}

func (p *Probes) result(status Status, checks map[string]*Result) *ProbeResult {
	return &ProbeResult{
		Status:    status,
		Version:   p.version,
		Uptime:    time.Since(p.started).Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}
