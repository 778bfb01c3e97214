package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	RecordsRead      prometheus.Counter
	Accepted         prometheus.Counter
	Rejected         prometheus.Counter
	Duplicate        prometheus.Counter
	AlreadyProcessed prometheus.Counter
	Failed           prometheus.Counter

	SubmitAttempts   prometheus.Counter
	SubmitRetries    prometheus.Counter
	SubmitLatencySec prometheus.Histogram
	LedgerSize       prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	read := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_records_read_total"})
	accepted := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_records_accepted_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_records_rejected_total"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_records_duplicate_total"})
	already := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_records_already_processed_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_records_failed_total"})

	attempts := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_submit_attempts_total"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{Name: "ovp_submit_retries_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ovp_submit_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	ledgerSize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ovp_ledger_entries"})

	r.MustRegister(read, accepted, rejected, duplicate, already, failed, attempts, retries, latency, ledgerSize)
	return &Registry{
		reg:              r,
		RecordsRead:      read,
		Accepted:         accepted,
		Rejected:         rejected,
		Duplicate:        duplicate,
		AlreadyProcessed: already,
		Failed:           failed,
		SubmitAttempts:   attempts,
		SubmitRetries:    retries,
		SubmitLatencySec: latency,
		LedgerSize:       ledgerSize,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
