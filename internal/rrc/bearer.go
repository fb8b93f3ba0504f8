package rrc

import (
	"strconv"
	"time"

	"github.com/your-org/umts-radio-core/common/metrics"
	"github.com/your-org/umts-radio-core/internal/chconfig"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/rlc"
	"go.uber.org/zap"
)

// Bearer wires one RB's RLC entity (or entity pair, for the asymmetric
// TM/UM SRB0 case) into the *mac.RadioBearer pull/push shape MAC expects
// (spec.md section 3, "Radio Bearer" and section 5's pull-based
// MAC/RLC interface). When both directions are AM, a single AMEntity
// backs the bearer since transmit and receive share one mutex and react
// to each other's status PDUs (spec.md section 5, "Shared resources"
// (iii)).
type Bearer struct {
	cfg chconfig.RBConfig

	am *rlc.AMEntity

	umTx *rlc.UMTransmitter
	umRx *rlc.UMReceiver

	tmTx *rlc.TMTransmitter
	tmRx *rlc.TMReceiver
}

// NewBearer builds the RLC entity(ies) for one RB under a master config.
// deliver is called with every SDU the receive side reassembles;
// notifyStopped fires if an AM entity exhausts MaxRST resets.
func NewBearer(cfg chconfig.RBConfig, rlcCfg rlc.Config, deliver func(rlc.SDU), notifyStopped func(), logger *zap.Logger) *Bearer {
	b := &Bearer{cfg: cfg}

	if cfg.UplinkMode == rlc.ModeAM && cfg.DownlinkMode == rlc.ModeAM {
		amCfg := rlcCfg
		amCfg.Mode = rlc.ModeAM
		amCfg.Label = strconv.Itoa(cfg.RBID)
		b.am = rlc.NewAMEntity(amCfg, deliver, notifyStopped, logger)
		return b
	}

	if cfg.DownlinkMode == rlc.ModeUM {
		umCfg := rlcCfg
		umCfg.Mode = rlc.ModeUM
		b.umTx = rlc.NewUMTransmitter(umCfg, logger)
	} else if cfg.DownlinkMode == rlc.ModeTM {
		b.tmTx = rlc.NewTMTransmitter()
	}

	if cfg.UplinkMode == rlc.ModeUM {
		umCfg := rlcCfg
		umCfg.Mode = rlc.ModeUM
		b.umRx = rlc.NewUMReceiver(umCfg, deliver, logger)
	} else if cfg.UplinkMode == rlc.ModeTM {
		b.tmRx = rlc.NewTMReceiver(deliver)
	}

	return b
}

// WriteSDU enqueues an outbound (downlink) SDU on the transmit side.
func (b *Bearer) WriteSDU(sdu rlc.SDU) {
	switch {
	case b.am != nil:
		b.am.WriteSDU(sdu)
	case b.umTx != nil:
		b.umTx.WriteSDU(sdu)
	case b.tmTx != nil:
		b.tmTx.WriteSDU(sdu)
	}
}

func (b *Bearer) pull(now time.Time) []byte {
	switch {
	case b.am != nil:
		return b.am.Pull(now)
	case b.umTx != nil:
		return b.umTx.Pull()
	case b.tmTx != nil:
		return b.tmTx.Pull()
	default:
		return nil
	}
}

func (b *Bearer) push(now time.Time, pdu []byte) {
	switch {
	case b.am != nil:
		b.am.Receive(now, pdu)
	case b.umRx != nil:
		b.umRx.Receive(pdu)
	case b.tmRx != nil:
		b.tmRx.Receive(pdu)
	}
}

// RadioBearer adapts this bearer to the mac package's pull/push shape.
func (b *Bearer) RadioBearer() *mac.RadioBearer {
	return &mac.RadioBearer{RBID: b.cfg.RBID, Pull: b.pull, Push: b.push}
}

func (b *Bearer) TriggerReset(now time.Time) {
	if b.am != nil {
		b.am.TriggerReset(now)
		metrics.RecordRLCReset(strconv.Itoa(b.cfg.RBID))
	}
}
