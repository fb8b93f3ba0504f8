package rrc

import (
	"context"
	"time"

	"github.com/your-org/umts-radio-core/common/metrics"
	"github.com/your-org/umts-radio-core/internal/config"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Reaper is the periodic inactivity sweep of spec.md section 5
// ("pager/reaper"): a UE idle past Inactivity.Release is sent
// RRCConnectionRelease and moved to idle; one idle past Inactivity.Delete
// is fully removed from the table. It also rolls back transactions that
// outlived their deadline.
type Reaper struct {
	controller *Controller
	ues        *ue.Table
	timers     config.InactivityConfig
	interval   time.Duration
	logger     *zap.Logger
	tracer     trace.Tracer
	stopChan   chan struct{}
}

func NewReaper(controller *Controller, ues *ue.Table, timers config.InactivityConfig, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		controller: controller,
		ues:        ues,
		timers:     timers,
		interval:   interval,
		logger:     logger,
		tracer:     otel.Tracer("rrc-reaper"),
		stopChan:   make(chan struct{}),
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			r.sweep(now)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reaper) Stop() {
	close(r.stopChan)
}

func (r *Reaper) sweep(now time.Time) {
	_, span := r.tracer.Start(context.Background(), "Reaper.sweep")
	defer span.End()

	stateCounts := map[string]int{}
	for _, u := range r.ues.All() {
		r.rollbackExpiredTransactions(u, now)
		stateCounts[u.State().String()]++

		idle := u.IdleSince(now)
		switch {
		case idle >= r.timers.Delete:
			r.logger.Info("reaping idle UE", zap.Uint32("urnti", u.URNTI), zap.Duration("idle", idle))
			r.ues.Remove(u.URNTI)
		case idle >= r.timers.Release && u.State() != ue.IdleMode:
			r.logger.Info("releasing idle UE connection", zap.Uint32("urnti", u.URNTI), zap.Duration("idle", idle))
			r.controller.freeAllPdpContexts(u)
			if _, hasSRB2 := u.DchBearers[2]; hasSRB2 {
				r.controller.emitDCCH(u, 2, "RRCConnectionRelease", RRCConnectionRelease{})
			} else {
				r.controller.emitCCCH("RRCConnectionRelease", RRCConnectionRelease{})
			}
			r.controller.HandleConnectionReleaseComplete(u)
		}
	}
	metrics.SetUEsByState(stateCounts)
}

// rollbackExpiredTransactions closes any transaction past its deadline
// without having moved the UE to its next-state, leaving the UE in its
// current state (spec.md section 5, "Cancellation and timeouts").
func (r *Reaper) rollbackExpiredTransactions(u *ue.UE, now time.Time) {
	for _, tx := range u.ExpiredTransactions(now) {
		r.logger.Warn("rolling back expired transaction",
			zap.Uint32("urnti", u.URNTI), zap.Uint8("tx_id", tx.ID), zap.String("kind", tx.Kind))
		u.CloseTransaction(tx.ID)
		metrics.RecordTransactionRollback()
	}
}
