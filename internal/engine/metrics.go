package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeFailure = "failure"
	outcomeAborted = "aborted"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operations   *prometheus.CounterVec
	items        *prometheus.CounterVec
	historyDepth prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them on the default /metrics handler;
// tests use a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_batch_operations_total",
			Help: "Batch operations executed, by operation, entity type and outcome",
		}, []string{"op", "entity", "outcome"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_batch_items_total",
			Help: "Records processed by batch operations, by operation and status",
		}, []string{"op", "status"}),
		historyDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rollcall_history_depth",
			Help: "Number of undoable operations in the history",
		}),
	}
}

func (m *Metrics) observe(res Result) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(res.OperationType), string(res.EntityType), outcome(res)).Inc()
	m.items.WithLabelValues(string(res.OperationType), "succeeded").Add(float64(res.SuccessCount))
	m.items.WithLabelValues(string(res.OperationType), "failed").Add(float64(res.FailureCount))
}

func (m *Metrics) setHistoryDepth(n int) {
	if m == nil {
		return
	}
	m.historyDepth.Set(float64(n))
}

func outcome(res Result) string {
	switch {
	case res.Metadata.Aborted:
		return outcomeAborted
	case res.Success:
		return outcomeSuccess
	case res.SuccessCount > 0:
		return outcomePartial
	default:
		return outcomeFailure
	}
}
