package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	DepositedAmount   prometheus.Counter
	FeesAccrued       prometheus.Counter
	FeesCollected     prometheus.Counter
	CommitConflicts   prometheus.Counter
	RateLimited       prometheus.Counter
	Compensations     *prometheus.CounterVec
	ExpansionsCreated *prometheus.CounterVec
}

// New registers the ledger metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_operations_total",
			Help: "Ledger operations by name and outcome code",
		}, []string{"operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custody_ledger_operation_duration_seconds",
			Help:    "Ledger operation latency including store round-trips",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		DepositedAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "custody_ledger_deposited_units_total",
			Help: "Gross units deposited across all assets",
		}),
		FeesAccrued: f.NewCounter(prometheus.CounterOpts{
			Name: "custody_ledger_fees_accrued_units_total",
			Help: "Deposit fees added to the fee vault",
		}),
		FeesCollected: f.NewCounter(prometheus.CounterOpts{
			Name: "custody_ledger_fees_collected_units_total",
			Help: "Fees drained from the fee vault by the collector",
		}),
		CommitConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "custody_ledger_commit_conflicts_total",
			Help: "Commits rejected because a record changed since it was read",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "custody_ledger_rate_limited_total",
			Help: "Operations refused by the per-identity anti-spam guard",
		}),
		Compensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_compensations_total",
			Help: "External transfers reversed after a failed commit or payout",
		}, []string{"result"}),
		ExpansionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_expansions_created_total",
			Help: "Expansion records created by phase",
		}, []string{"phase"}),
	}
}

func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddDeposit(gross, fee uint64) {
	if m == nil {
		return
	}
	m.DepositedAmount.Add(float64(gross))
	m.FeesAccrued.Add(float64(fee))
}

func (m *Metrics) AddFeesCollected(amount uint64) {
	if m == nil {
		return
	}
	m.FeesCollected.Add(float64(amount))
}

func (m *Metrics) IncrementCommitConflicts() {
	if m == nil {
		return
	}
	m.CommitConflicts.Inc()
}

func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Metrics) IncrementCompensations(result string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementExpansions(phase string) {
	if m == nil {
		return
	}
	m.ExpansionsCreated.WithLabelValues(phase).Inc()
}
