package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's counters. They are registered on the given
// registerer so callers (and tests) control exposure.
type Metrics struct {
	RowsLoaded    *prometheus.CounterVec
	RowsRejected  *prometheus.CounterVec
	RowsPublished *prometheus.CounterVec
	StageFailures *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RowsLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutripipe_rows_loaded_total",
			Help: "Rows accepted from the raw source files, per entity.",
		}, []string{"entity"}),
		RowsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutripipe_rows_rejected_total",
			Help: "Rows rejected during ingestion type coercion, per entity.",
		}, []string{"entity"}),
		RowsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutripipe_rows_published_total",
			Help: "Rows published per snapshot table.",
		}, []string{"table"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutripipe_stage_failures_total",
			Help: "Stage-fatal failures, per stage.",
		}, []string{"stage"}),
	}
}
