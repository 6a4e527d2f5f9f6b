package health

import (
	"context"
	"sync"
	"time"
)

// DefaultTimeout bounds each check when Manager.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Manager runs its checkers concurrently, each under its own deadline.
type Manager struct {
	// Timeout applies to every check. Zero means DefaultTimeout.
	Timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// NewManager returns a Manager with checkers registered in order.
func NewManager(checkers ...Checker) *Manager {
	m := &Manager{}
	m.Register(checkers...)
	return m
}

// Register appends checkers. Reports list them in registration order.
func (m *Manager) Register(checkers ...Checker) {
	m.mu.Lock()
	m.checkers = append(m.checkers, checkers...)
	m.mu.Unlock()
}

// Report is the outcome of one Run.
type Report struct {
	Status Status
	// Names lists the checks in registration order.
	Names  []string
	Checks map[string]*Result
}

// Run executes every check and folds the results into the worst status.
// A report with no checks is healthy.
func (m *Manager) Run(ctx context.Context) *Report {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	results := make([]*Result, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runCheck(ctx, c, timeout)
		}()
	}
	wg.Wait()

	report := &Report{
		Status: StatusHealthy,
		Names:  make([]string, len(checkers)),
		Checks: make(map[string]*Result, len(checkers)),
	}
	for i, c := range checkers {
		report.Names[i] = c.Name()
		report.Checks[c.Name()] = results[i]
		report.Status = report.Status.Worse(results[i].Status)
	}
	return report
}

func runCheck(ctx context.Context, c Checker, timeout time.Duration) *Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := c.Check(ctx)
	if result == nil {
		result = Unhealthy("check returned no result")
	}
	if result.Latency == 0 {
		result.Latency = time.Since(start)
	}
	return result
}
