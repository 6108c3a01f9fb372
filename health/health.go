package health

import (
	"context"
	"regexp"
	"time"
)

// A Status reports the condition of the whole app or one subsystem.
type Status string

const (
	// Overall statuses.
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"

	// Per-subsystem statuses.
	StatusDisabled  Status = "disabled"
	StatusConnected Status = "connected"
	StatusError     Status = "error"
)

// DefaultProbeTimeout bounds each subsystem probe unless configured otherwise.
const DefaultProbeTimeout = 2 * time.Second

// A Probe performs one bounded, low-cost connectivity check.
// Probes serve health reporting only, never request serving.
type Probe func(ctx context.Context) error

// A SubsystemStatus reports one subsystem within a Report.
type SubsystemStatus struct {
	Enabled bool   `json:"enabled"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}

// A Report is the aggregated health of the app,
// built fresh on every check and never persisted.
//
// Subsystems always carries every registered name;
// a switched-off subsystem reports disabled rather than going missing,
// so the response shape never varies with configuration.
type Report struct {
	Overall    Status                     `json:"status"`
	Subsystems map[string]SubsystemStatus `json:"subsystems"`
}

type subsystem struct {
	name     string
	enabled  bool
	required bool
	probe    Probe
}

// An Aggregator combines per-subsystem probes into a single Report.
type Aggregator struct {
	probeTimeout time.Duration
	subsystems   []subsystem
}

// An AggregatorOpt configures the provided *Aggregator.
type AggregatorOpt func(*Aggregator)

// WithProbeTimeout bounds each probe by d instead of DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) AggregatorOpt {
	return func(a *Aggregator) {
		if d > 0 {
			a.probeTimeout = d
		}
	}
}

// NewAggregator constructs an Aggregator with the options passed in.
func NewAggregator(opts ...AggregatorOpt) *Aggregator {
	a := &Aggregator{probeTimeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Register adds a subsystem to the Aggregator.
// Registration order is reporting order.
//
// A disabled subsystem is recorded but never probed.
// A required subsystem that is disabled marks the whole app unhealthy;
// optional subsystems can only degrade it.
func (a *Aggregator) Register(name string, enabled, required bool, probe Probe) {
	a.subsystems = append(a.subsystems, subsystem{
		name:     name,
		enabled:  enabled,
		required: required,
		probe:    probe,
	})
}

// Check probes every enabled subsystem and aggregates the results.
//
// Each probe is bounded by the configured timeout, so Check returns within
// a bounded budget even if a probe hangs. A probe failure downgrades the
// overall status to degraded, never to unhealthy; only a required
// subsystem that is entirely absent does that.
func (a *Aggregator) Check(ctx context.Context) Report {
	r := Report{
		Overall:    StatusHealthy,
		Subsystems: make(map[string]SubsystemStatus, len(a.subsystems)),
	}

	for _, sub := range a.subsystems {
		if !sub.enabled {
			r.Subsystems[sub.name] = SubsystemStatus{Enabled: false, Status: StatusDisabled}
			if sub.required {
				r.Overall = StatusUnhealthy
			}
			continue
		}

		if err := a.runProbe(ctx, sub.probe); err != nil {
			r.Subsystems[sub.name] = SubsystemStatus{
				Enabled: true,
				Status:  StatusError,
				Error:   redactError(err),
			}
			if r.Overall == StatusHealthy {
				r.Overall = StatusDegraded
			}
			continue
		}

		r.Subsystems[sub.name] = SubsystemStatus{Enabled: true, Status: StatusConnected}
	}

	return r
}

// runProbe bounds probe by the configured timeout.
// The select abandons a hung probe rather than waiting it out.
func (a *Aggregator) runProbe(ctx context.Context, probe Probe) error {
	if probe == nil {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- probe(probeCtx) }()

	select {
	case err := <-done:
		return err
	case <-probeCtx.Done():
		return probeCtx.Err()
	}
}

var urlCredsRegex = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^@\s]+@`)

// redactError strips credentials embedded in URL-shaped error text
// before it enters a Report.
func redactError(err error) string {
	return urlCredsRegex.ReplaceAllString(err.Error(), "${1}***@")
}
