package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks submissions, authority latency and catalog cache efficiency.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	AuthorityDuration  *prometheus.HistogramVec
	CatalogLookups     *prometheus.CounterVec
	RecordSaveFailures prometheus.Counter
}

// New registers every metric on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "emision_submissions_total",
			Help: "Document submissions by kind and outcome",
		}, []string{"kind", "outcome"}),
		AuthorityDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emision_authority_request_duration_seconds",
			Help:    "Duration of document submissions to the tax authority",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"kind", "status"}),
		CatalogLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "emision_catalog_lookups_total",
			Help: "Catalog code lookups by cache result (hit, miss, error)",
		}, []string{"result"}),
		RecordSaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "emision_record_save_failures_total",
			Help: "Authorized documents that could not be stored",
		}),
	}
}

// ObserveSubmission counts one terminal outcome.
func (m *Metrics) ObserveSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind, outcome).Inc()
}

// ObserveAuthority records the duration of one authority call.
// Call with time.Now() taken before the request.
func (m *Metrics) ObserveAuthority(kind, status string, start time.Time) {
	if m == nil {
		return
	}
	m.AuthorityDuration.WithLabelValues(kind, status).Observe(time.Since(start).Seconds())
}

// ObserveCatalogLookup counts a cache hit, miss or error.
func (m *Metrics) ObserveCatalogLookup(result string) {
	if m == nil {
		return
	}
	m.CatalogLookups.WithLabelValues(result).Inc()
}

// IncrementRecordSaveFailures counts a failed saveDocument call.
func (m *Metrics) IncrementRecordSaveFailures() {
	if m == nil {
		return
	}
	m.RecordSaveFailures.Inc()
}
