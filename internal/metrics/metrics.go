// Package metrics exposes governance run statistics in Prometheus form.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/apigov/internal/engine"
	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
)

// Metrics holds all Prometheus metrics for apigov
type Metrics struct {
	Runs        *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	Changes    *prometheus.CounterVec
	Unresolved prometheus.Counter
	Approvals  *prometheus.CounterVec

	OverrideRejections prometheus.Counter
	StaleOverrides     prometheus.Counter

	// RequiredBump is 1 for the bump the last run required, 0 otherwise.
	RequiredBump *prometheus.GaugeVec
	// VersionConsistent is 1 when the declared bump satisfied the required one.
	VersionConsistent prometheus.Gauge

	// Errors counts failures by error code from structured errors
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apigov_runs_total",
				Help: "Total number of governance runs by enforcement mode and verdict",
			},
			[]string{"enforcement", "verdict"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apigov_run_duration_seconds",
				Help:    "Governance run duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"command"},
		),
		Changes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apigov_changes_total",
				Help: "Total number of classified changes by category",
			},
			[]string{"category"},
		),
		Unresolved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apigov_unresolved_breaking_changes_total",
				Help: "Breaking changes approved neither by deprecation nor by override",
			},
		),
		Approvals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apigov_approvals_total",
				Help: "Approved breaking changes by approval source",
			},
			[]string{"source"},
		),
		OverrideRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apigov_override_rejections_total",
				Help: "Override entries discarded during validation",
			},
		),
		StaleOverrides: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apigov_stale_overrides_total",
				Help: "Valid override entries that matched no breaking change",
			},
		),
		RequiredBump: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apigov_required_bump",
				Help: "Version bump required by the last run (1 for the required level)",
			},
			[]string{"bump"},
		),
		VersionConsistent: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apigov_version_consistent",
				Help: "1 when the declared version bump satisfies the required one",
			},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apigov_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// ObserveOutcome records one completed governance run.
func (m *Metrics) ObserveOutcome(command string, out *engine.Outcome, duration time.Duration) {
	m.Runs.WithLabelValues(string(out.Config.Enforcement), string(out.Decision.Verdict)).Inc()
	m.RunDuration.WithLabelValues(command).Observe(duration.Seconds())

	counts := out.Classification.Counts()
	m.Changes.WithLabelValues(string(governance.Breaking)).Add(float64(counts.Breaking))
	m.Changes.WithLabelValues(string(governance.Additive)).Add(float64(counts.Additive))
	m.Changes.WithLabelValues(string(governance.DocsOnly)).Add(float64(counts.DocsOnly))
	m.Changes.WithLabelValues(string(governance.Refactor)).Add(float64(counts.Refactor))

	m.Unresolved.Add(float64(len(out.Decision.Unresolved)))
	for _, a := range out.Approvals {
		if a.Deprecated {
			m.Approvals.WithLabelValues("deprecation").Inc()
		}
		if a.Override != nil {
			m.Approvals.WithLabelValues("override").Inc()
		}
	}

	m.OverrideRejections.Add(float64(len(out.Rejected)))
	m.StaleOverrides.Add(float64(len(out.StaleOverrides)))

	for _, b := range []governance.Bump{governance.BumpNone, governance.BumpPatch, governance.BumpMinor, governance.BumpMajor} {
		m.RequiredBump.WithLabelValues(b.String()).Set(boolGauge(b == out.Bump))
	}
	if out.Version != nil {
		m.VersionConsistent.Set(boolGauge(out.Version.Consistent))
	}
}

// RecordError counts err under its error code, or "unknown".
func (m *Metrics) RecordError(err error) {
	if err == nil {
		return
	}
	code := "unknown"
	if c, ok := goverrors.CodeOf(err); ok {
		code = string(c)
	}
	m.Errors.WithLabelValues(code).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
