package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/testutil"
)

func TestMetrics_RecordsOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	e := newTestEngine(WithMetrics(m))
	store := testutil.SchoolStore(t)

	next, _ := e.Edit(store, entity.Goals, []string{"g1", "g2"}, record.Object{
		"status": record.String("done"),
	}, Options{Validate: rejectIDs("g2")})
	e.Edit(next, entity.Goals, []string{"g1", "g2"}, nil, Options{Transactional: true, Validate: rejectIDs("g2")})

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.operations.WithLabelValues("edit", "goals", "partial")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.operations.WithLabelValues("edit", "goals", "aborted")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.items.WithLabelValues("edit", "succeeded")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.items.WithLabelValues("edit", "failed")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.historyDepth))

	e.Undo(next)
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.historyDepth))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.operations.WithLabelValues("undo", "goals", "success")))

	e.Undo(next)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.operations.WithLabelValues("undo", "", "failure")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe(Result{OperationType: OpEdit})
		m.setHistoryDepth(3)
	})
}

func TestMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.setHistoryDepth(2)

	count, err := promtestutil.GatherAndCount(reg, "rollcall_history_depth")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
