package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("deposit", "ok", time.Now())
	m.ObserveOperation("deposit", "ok", time.Now())
	m.AddDeposit(1_000, 10)
	m.IncrementCompensations("refunded")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.DepositedAmount))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.FeesAccrued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compensations.WithLabelValues("refunded")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("transfer", "ok", time.Now())
		m.AddDeposit(1, 1)
		m.IncrementCommitConflicts()
		m.IncrementRateLimited()
	})
}
