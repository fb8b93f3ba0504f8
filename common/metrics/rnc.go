package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RNC-specific metrics (spec.md section 5, scheduling and error taxonomy).
var (
	// UEsByState tracks how many UEs sit in each RRC connection state.
	UEsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rnc_ues_by_state",
			Help: "Number of UEs currently in each RRC connection state",
		},
		[]string{"state"},
	)

	RLCResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rnc_rlc_resets_total",
			Help: "Total number of AM RLC RESET procedures initiated",
		},
		[]string{"rb_id"},
	)

	RLCPollTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rnc_rlc_poll_timeouts_total",
			Help: "Total number of AM RLC PDUs whose retransmission count passed MaxDAT",
		},
		[]string{"rb_id"},
	)

	TFCSelectionMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rnc_tfc_selection_misses_total",
			Help: "Total number of MAC scheduling ticks where no TFC matched the ready data",
		},
	)

	CellUpdateForcedResetTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rnc_cellupdate_forced_reset_total",
			Help: "Total number of AM RLC resets forced by a cell update received in CELL_DCH",
		},
	)

	RabAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rnc_rab_allocations_total",
			Help: "Total number of allocateRabForPdp outcomes",
		},
		[]string{"result"},
	)

	TransactionRollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rnc_transaction_rollbacks_total",
			Help: "Total number of RRC transactions rolled back after their deadline expired",
		},
	)
)

// SetUEsByState replaces the current per-state UE gauge readings.
func SetUEsByState(counts map[string]int) {
	for state, n := range counts {
		UEsByState.WithLabelValues(state).Set(float64(n))
	}
}

// RecordRLCReset records an AM RLC RESET on a given radio bearer.
func RecordRLCReset(rbID string) {
	RLCResetsTotal.WithLabelValues(rbID).Inc()
}

// RecordRLCPollTimeout records an AM RLC PDU whose retransmission count
// passed MaxDAT (the AM entity then starts a RESET).
func RecordRLCPollTimeout(rbID string) {
	RLCPollTimeoutsTotal.WithLabelValues(rbID).Inc()
}

// RecordTFCSelectionMiss records a MAC tick where no TFC fit the ready data.
func RecordTFCSelectionMiss() {
	TFCSelectionMissesTotal.Inc()
}

// RecordCellUpdateForcedReset records an AM RLC reset forced by a cell
// update.
func RecordCellUpdateForcedReset() {
	CellUpdateForcedResetTotal.Inc()
}

// RecordRabAllocation records the outcome of a RAB allocation attempt.
func RecordRabAllocation(result string) {
	RabAllocationsTotal.WithLabelValues(result).Inc()
}

// RecordTransactionRollback records an expired-transaction rollback.
func RecordTransactionRollback() {
	TransactionRollbacksTotal.Inc()
}
