package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for content and index operations.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	contentOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentstore",
			Name:      "content_operations_total",
			Help:      "Total number of content service operations.",
		},
		[]string{"op", "outcome"},
	)

	contentOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentstore",
			Name:      "content_operation_duration_seconds",
			Help:      "Content service operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	indexWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentstore",
			Name:      "search_index_writes_total",
			Help:      "Total number of search index writes, one per saved element.",
		},
		[]string{"backend", "outcome"},
	)

	indexedFieldsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentstore",
			Name:      "search_indexed_fields_total",
			Help:      "Total number of field keyword documents written to the search index.",
		},
		[]string{"backend"},
	)

	pluginNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentstore",
			Name:      "plugin_notifications_total",
			Help:      "Total number of content notifications sent to plugins.",
		},
		[]string{"plugin", "outcome"},
	)
)

// ObserveContentOp records one content service operation that started at start.
func ObserveContentOp(op, outcome string, start time.Time) {
	contentOpsTotal.WithLabelValues(op, outcome).Inc()
	contentOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveIndexWrite records one IndexElementFields call against backend.
func ObserveIndexWrite(backend string, fields int, err error) {
	if err != nil {
		indexWritesTotal.WithLabelValues(backend, OutcomeError).Inc()
		return
	}
	indexWritesTotal.WithLabelValues(backend, OutcomeOK).Inc()
	indexedFieldsTotal.WithLabelValues(backend).Add(float64(fields))
}

func ObservePluginNotification(plugin string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	pluginNotificationsTotal.WithLabelValues(plugin, outcome).Inc()
}
