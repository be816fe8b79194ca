package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the onboarding module. All methods are
// safe on a nil receiver.
type Metrics struct {
	// Section submissions by role and outcome
	Submissions *prometheus.CounterVec

	// Advisory mapping warnings by field table
	TransformWarnings *prometheus.CounterVec

	// Remote API call latencies by operation
	RemoteLatency *prometheus.HistogramVec

	// Sections marked complete by role and section key
	SectionsCompleted *prometheus.CounterVec

	// Progress reconciliations by role and whether the step fell inside the schema
	ProgressSyncs *prometheus.CounterVec

	// Progress events by publish outcome
	EventsPublished *prometheus.CounterVec
}

// Submission outcomes.
const (
	OutcomeSaved          = "saved"
	OutcomeInvalid        = "invalid"
	OutcomeRejected       = "rejected"
	OutcomeRemoteFailed   = "remote_failed"
	OutcomeReconcileError = "reconcile_failed"
)

// New creates onboarding metrics registered with reg. A nil reg creates
// unregistered collectors, which keeps tests free of global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_onboarding_submissions_total",
			Help: "Section submissions by role and outcome",
		}, []string{"role", "outcome"}),

		TransformWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_onboarding_transform_warnings_total",
			Help: "Critical backend fields left empty when building a submission",
		}, []string{"table"}),

		RemoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keystone_onboarding_remote_duration_seconds",
			Help:    "Duration of onboarding backend calls by operation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		SectionsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_onboarding_sections_completed_total",
			Help: "Sections marked complete by role and section",
		}, []string{"role", "section"}),

		ProgressSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_onboarding_progress_syncs_total",
			Help: "Server progress reconciliations by role and placement",
		}, []string{"role", "in_schema"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_onboarding_events_total",
			Help: "Progress events by publish outcome",
		}, []string{"op", "outcome"}),
	}
}

func (m *Metrics) IncrementSubmission(role, outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(role, outcome).Inc()
	}
}

// AddTransformWarnings records n mapping warnings for table.
func (m *Metrics) AddTransformWarnings(table string, n int) {
	if m != nil && n > 0 {
		m.TransformWarnings.WithLabelValues(table).Add(float64(n))
	}
}

// ObserveRemoteLatency records the duration of one backend call.
func (m *Metrics) ObserveRemoteLatency(operation string, d time.Duration) {
	if m != nil {
		m.RemoteLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementSectionCompleted(role, section string) {
	if m != nil {
		m.SectionsCompleted.WithLabelValues(role, section).Inc()
	}
}

func (m *Metrics) IncrementProgressSync(role string, inSchema bool) {
	if m != nil {
		label := "false"
		if inSchema {
			label = "true"
		}
		m.ProgressSyncs.WithLabelValues(role, label).Inc()
	}
}

// IncrementEvent records the outcome of publishing one progress event.
func (m *Metrics) IncrementEvent(op, outcome string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(op, outcome).Inc()
	}
}
