package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger holds the Prometheus metrics of the transport plan ledger.
// A nil *Ledger is valid and records nothing.
type Ledger struct {
	PlansCreated        prometheus.Counter
	PlanRowFailures     prometheus.Counter
	CertificatesIssued  prometheus.Counter
	CertificateFailures *prometheus.CounterVec
	LifecycleOutcomes   *prometheus.CounterVec
	ListRows            prometheus.Histogram
}

// New registers the ledger metrics on reg.
func New(reg prometheus.Registerer) *Ledger {
	f := promauto.With(reg)
	return &Ledger{
		PlansCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_transport_plans_created_total",
			Help: "Transport plan rows written by create submissions",
		}),
		PlanRowFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_transport_plan_row_failures_total",
			Help: "Transport plan rows rejected by the store during create",
		}),
		CertificatesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_certificates_issued_total",
			Help: "Certificates created automatically alongside plans",
		}),
		CertificateFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_certificate_failures_total",
			Help: "Automatic certificate creations that failed and were skipped",
		}, []string{"stage"}), // stage: lock, allocate, write
		LifecycleOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_transport_plan_lifecycle_total",
			Help: "Lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		ListRows: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "backoffice_transport_plan_list_rows",
			Help:    "Rows returned per plan listing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Ledger) AddPlansCreated(n int) {
	if m != nil {
		m.PlansCreated.Add(float64(n))
	}
}

func (m *Ledger) IncPlanRowFailure() {
	if m != nil {
		m.PlanRowFailures.Inc()
	}
}

func (m *Ledger) IncCertificateIssued() {
	if m != nil {
		m.CertificatesIssued.Inc()
	}
}

func (m *Ledger) IncCertificateFailure(stage string) {
	if m != nil {
		m.CertificateFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Ledger) IncLifecycle(operation, outcome string) {
	if m != nil {
		m.LifecycleOutcomes.WithLabelValues(operation, outcome).Inc()
	}
}

func (m *Ledger) ObserveListRows(n int) {
	if m != nil {
		m.ListRows.Observe(float64(n))
	}
}
