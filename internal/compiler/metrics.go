package compiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quill-lang/quill/internal/diag"
)

const (
	namespaceQuill    = "quill"
	subsystemAnalysis = "analysis"

	LabelOutcome = "outcome"
	LabelCode    = "code"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics collects per-unit compilation statistics.
type Metrics struct {
	units    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the compiler collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		units: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceQuill,
			Subsystem: subsystemAnalysis,
			Name:      "units_total",
			Help:      "number of compilation units analyzed, by outcome",
		}, []string{LabelOutcome}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceQuill,
			Subsystem: subsystemAnalysis,
			Name:      "diagnostics_total",
			Help:      "number of error diagnostics reported, by code",
		}, []string{LabelCode}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceQuill,
			Subsystem: subsystemAnalysis,
			Name:      "duration_seconds",
			Help:      "time spent parsing and analyzing one unit",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

// NoopMetrics returns collectors registered nowhere.
func NoopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func (m *Metrics) UnitAnalyzed(result *Result, took time.Duration) {
	outcome := OutcomeOK
	if result.Failed() {
		outcome = OutcomeFailed
	}
	m.units.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())

	for _, d := range result.Diagnostics {
		if d.Severity == diag.SeverityError {
			m.failures.WithLabelValues(string(d.Code)).Inc()
		}
	}
}
