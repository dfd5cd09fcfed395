// Package health runs named dependency checks (index, Redis, Kafka,
// PostgreSQL) in parallel and aggregates them into a Report for the status
// command and the readiness endpoint.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/resilience"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
	// StatusDisabled marks an optional dependency that is not configured.
	// It never affects the overall status.
	StatusDisabled Status = "disabled"
)

// Check probes one component.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the outcome of one Run.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Names returns the component names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PingCheck turns a ping function into a Check bounded by timeout. A
// failing ping reports down, or degraded when optional is set.
func PingCheck(name string, timeout time.Duration, optional bool, ping func(ctx context.Context) error) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := resilience.WithTimeout(ctx, timeout, name, ping); err != nil {
			status := StatusDown
			if optional {
				status = StatusDegraded
			}
			return ComponentHealth{Status: status, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// Disabled reports a dependency that is switched off in configuration.
func Disabled(reason string) Check {
	return func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDisabled, Message: reason}
	}
}

// severity orders statuses for aggregation. Disabled components never
// lower the overall status.
var severity = map[Status]int{
	StatusDisabled: 0,
	StatusUp:       0,
	StatusDegraded: 1,
	StatusDown:     2,
}

// Checker holds the registered checks of one process.
type Checker struct {
	mu     sync.RWMutex
	names  []string
	checks map[string]Check
	logger *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds or replaces the check called name.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.checks[name]; !ok {
		c.names = append(c.names, name)
	}
	c.checks[name] = check
}

// Run probes every component concurrently. The overall status is the most
// severe component status.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	names := slices.Clone(c.names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = c.checks[name]
	}
	c.mu.RUnlock()

	results := make([]ComponentHealth, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			start := time.Now()
			results[i] = check(ctx)
			results[i].Latency = time.Since(start).Round(time.Millisecond).String()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(names)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for i, name := range names {
		report.Components[name] = results[i]
		if severity[results[i].Status] > severity[report.Status] {
			report.Status = results[i].Status
		}
	}
	return report
}

// ReadyHandler serves the Report as JSON; anything but "up" answers 503.
// The request context bounds the checks.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		code := http.StatusOK
		if report.Status != StatusUp {
			code = http.StatusServiceUnavailable
			c.logger.Warn("readiness check failed", "status", report.Status)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			c.logger.Warn("writing readiness report", "error", err)
		}
	}
}
