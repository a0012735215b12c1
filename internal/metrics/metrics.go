// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cargotrack"

// Recorder implements tracker.Recorder.
type Recorder struct {
	syncs        *prometheus.CounterVec
	syncDuration prometheus.Histogram
	writes       *prometheus.CounterVec
	entities     *prometheus.GaugeVec
	exports      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "Completed sync cycles by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_writes_total",
			Help:      "Remote writes by operation, collection and result.",
		}, []string{"op", "kind", "result"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities in the local snapshot after the last sync.",
		}, []string{"kind"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Snapshot exports by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(r.syncs, r.syncDuration, r.writes, r.entities, r.exports)
	return r
}

func (r *Recorder) ObserveSync(d time.Duration, err error) {
	r.syncs.WithLabelValues(result(err)).Inc()
	r.syncDuration.Observe(d.Seconds())
}

func (r *Recorder) ObserveWrite(op string, kind models.Kind, err error) {
	r.writes.WithLabelValues(op, string(kind), result(err)).Inc()
}

func (r *Recorder) SetEntities(counts map[models.Kind]int) {
	for _, k := range models.Kinds {
		r.entities.WithLabelValues(string(k)).Set(float64(counts[k]))
	}
}

func (r *Recorder) ObserveExport(err error) {
	r.exports.WithLabelValues(result(err)).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
