package rrc

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/umts-radio-core/common/metrics"
	"github.com/your-org/umts-radio-core/internal/chconfig"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/sgsnclient"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.uber.org/zap"
)

// AllocateRabForPdp drives a RAB allocation to its Pending state (spec.md
// section 4.4). It is idempotent for an allocated RAB: if the RB is
// already RabAllocated it returns at once without re-asking the
// collaborator; a pending or failed RAB is asked for again. The actual
// bandwidth-tree pick happens on the SGSN side of the sgsnclient.Client
// boundary; this core's job is to attach the CELL_DCH master config, a
// MAC-D, and emit RadioBearerSetup once that pick comes back.
func (c *Controller) AllocateRabForPdp(u *ue.UE, rbID int, qosBytesPerSec int, now time.Time) {
	if existing, ok := u.Rab(rbID); ok && existing.Status == ue.RabAllocated {
		return
	}

	u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabPending})

	result, err := c.sgsn.AllocateRabForPdp(context.Background(), u.URNTI, rbID, qosBytesPerSec)
	if err != nil {
		c.logger.Error("sgsn AllocateRabForPdp failed", zap.Uint32("urnti", u.URNTI), zap.Int("rb_id", rbID), zap.Error(err))
		u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabFailure})
		return
	}
	if result.Status == sgsnclient.RabFailure {
		u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabFailure})
		metrics.RecordRabAllocation("failure")
		c.logger.Warn("RAB allocation refused", zap.Uint32("urnti", u.URNTI), zap.Int("rb_id", rbID), zap.String("cause", string(result.Cause)))
		return
	}
	metrics.RecordRabAllocation("pending")

	cfg, err := c.chreg.Get(chconfig.NameCellDCHPacket)
	if err != nil {
		c.logger.Error("no CELL_DCH packet master config", zap.Error(err))
		return
	}
	c.attachBearers(u, u.DchBearers, cfg, now)

	if u.MACD == nil {
		u.MACD = mac.NewMacD(u.URNTI)
	}
	for _, rbc := range cfg.RadioBearers {
		multiplexed := true
		for _, trch := range cfg.TransportChannels {
			if trch.ID == rbc.TrChID {
				multiplexed = trch.Multiplexed
			}
		}
		u.MACD.BindBearer(u.DchBearers[rbc.RBID], rbc.TrChID, multiplexed)
	}
	if c.scheduler != nil {
		c.scheduler.Register(macdKey(u.URNTI), u.MACD)
	}

	u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabPending, UplinkBps: result.UplinkBps, DownlinkBps: result.DownlinkBps})

	tx := u.OpenTransaction("RadioBearerSetup", []int{rbID}, ue.CellDCH, now, now.Add(c.timers.T300))
	c.emitDCCH(u, 2, "RadioBearerSetup", RadioBearerSetup{TransactionID: tx.ID, RBID: rbID})
}

func macdKey(urnti uint32) string {
	return fmt.Sprintf("macd:%08x", urnti)
}

func (c *Controller) HandleRadioBearerSetupComplete(u *ue.UE, msg RadioBearerSetupComplete) {
	tx, ok := u.Transaction(msg.TransactionID)
	if !ok {
		c.logger.Warn("RadioBearerSetupComplete for unknown transaction", zap.Uint32("urnti", u.URNTI), zap.Uint8("tx_id", msg.TransactionID))
		return
	}
	u.SetState(tx.NextState)
	for _, rbID := range tx.RBMask {
		if info, ok := u.Rab(rbID); ok {
			u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabAllocated, UplinkBps: info.UplinkBps, DownlinkBps: info.DownlinkBps})
			metrics.RecordRabAllocation("allocated")
		}
	}
	u.CloseTransaction(msg.TransactionID)
}

func (c *Controller) HandleRadioBearerSetupFailure(u *ue.UE, msg RadioBearerSetupFailure) {
	tx, ok := u.Transaction(msg.TransactionID)
	if !ok {
		return
	}
	for _, rbID := range tx.RBMask {
		u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabFailure})
		delete(u.DchBearers, rbID)
	}
	if c.scheduler != nil && u.State() != ue.CellDCH {
		c.scheduler.Unregister(macdKey(u.URNTI))
		u.MACD = nil
	}
	u.CloseTransaction(msg.TransactionID)
}

// DeactivateRabs tears down the named RABs (spec.md section 4.4). If
// this releases the last RAB the UE falls back to CELL_FACH.
func (c *Controller) DeactivateRabs(u *ue.UE, rbMask []int, now time.Time) {
	releasing := make(map[int]bool, len(rbMask))
	for _, rbID := range rbMask {
		releasing[rbID] = true
	}
	remaining := 0
	for rbID := range u.DchBearers {
		if rbID >= ue.RBDataFrom && !releasing[rbID] {
			remaining++
		}
	}
	next := ue.CellDCH
	if remaining == 0 {
		next = ue.CellFACH
	}
	for _, rbID := range rbMask {
		u.SetRab(&ue.RabInfo{RBID: rbID, Status: ue.RabDeactPending})
	}
	tx := u.OpenTransaction("RadioBearerRelease", rbMask, next, now, now.Add(c.timers.T300))
	c.emitDCCH(u, 2, "RadioBearerRelease", RadioBearerRelease{TransactionID: tx.ID, RBMask: rbMask})
}

func (c *Controller) HandleRadioBearerReleaseComplete(u *ue.UE, msg RadioBearerReleaseComplete) {
	tx, ok := u.Transaction(msg.TransactionID)
	if !ok {
		return
	}
	for _, rbID := range tx.RBMask {
		u.DeleteRab(rbID)
		delete(u.DchBearers, rbID)
	}
	u.SetState(tx.NextState)
	if c.scheduler != nil && tx.NextState != ue.CellDCH {
		c.scheduler.Unregister(macdKey(u.URNTI))
		u.MACD = nil
	}
	u.CloseTransaction(msg.TransactionID)
}

func (c *Controller) HandleRadioBearerReleaseFailure(u *ue.UE, msg RadioBearerReleaseFailure) {
	c.logger.Warn("RadioBearerReleaseFailure", zap.Uint32("urnti", u.URNTI), zap.String("cause", msg.Cause))
	u.CloseTransaction(msg.TransactionID)
}

// StartIntegrityProtection installs the integrity key and emits
// SecurityModeCommand on SRB2; the command itself is the first message
// protected under the new key (spec.md section 4.4).
func (c *Controller) StartIntegrityProtection(u *ue.UE, kc []byte, fresh uint32) {
	u.Integrity.Start(kc, fresh)
	c.emitDCCH(u, 2, "SecurityModeCommand", SecurityModeCommand{Fresh: fresh})
}
