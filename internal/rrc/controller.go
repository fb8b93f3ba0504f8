package rrc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/your-org/umts-radio-core/common/metrics"
	"github.com/your-org/umts-radio-core/internal/chconfig"
	"github.com/your-org/umts-radio-core/internal/config"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/rlc"
	"github.com/your-org/umts-radio-core/internal/sgsnclient"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OutboundCCCH and OutboundDCCH are the hooks a Controller uses to put an
// encoded message on the air; cmd/nodeb wires these to a *mac.MacC /
// rrc.Bearer respectively.
type OutboundCCCH func(encoded []byte)
type OutboundDCCH func(urnti uint32, rbID int, encoded []byte)

// Controller is the per-node RRC state machine described in spec.md
// section 4.4.
type Controller struct {
	ues      *ue.Table
	chreg    *chconfig.Registry
	sgsn     sgsnclient.Client
	scheduler *mac.Scheduler
	macC     *mac.MacC
	codec    Codec
	timers   config.TimersConfig

	sendCCCH OutboundCCCH
	sendDCCH OutboundDCCH

	logger *zap.Logger
	tracer trace.Tracer

	// bearerObjs keeps the *Bearer behind each RB's *mac.RadioBearer
	// adapter reachable for operations the adapter doesn't expose (a
	// forced RLC reset on Cell Update), keyed by U-RNTI then RB id.
	bearerObjMu sync.Mutex
	bearerObjs  map[uint32]map[int]*Bearer
}

func NewController(ues *ue.Table, chreg *chconfig.Registry, sgsn sgsnclient.Client, scheduler *mac.Scheduler, macC *mac.MacC, timers config.TimersConfig, sendCCCH OutboundCCCH, sendDCCH OutboundDCCH, logger *zap.Logger) *Controller {
	return &Controller{
		ues:       ues,
		chreg:     chreg,
		sgsn:      sgsn,
		scheduler: scheduler,
		macC:      macC,
		codec:     JSONCodec{},
		timers:    timers,
		sendCCCH:  sendCCCH,
		sendDCCH:  sendDCCH,
		logger:     logger,
		tracer:     otel.Tracer("rrc-controller"),
		bearerObjs: make(map[uint32]map[int]*Bearer),
	}
}

func (c *Controller) rememberBearer(urnti uint32, rbID int, b *Bearer) {
	c.bearerObjMu.Lock()
	defer c.bearerObjMu.Unlock()
	m, ok := c.bearerObjs[urnti]
	if !ok {
		m = make(map[int]*Bearer)
		c.bearerObjs[urnti] = m
	}
	m[rbID] = b
}

// amBearersOf returns every *Bearer currently known for a UE, for
// operations (like a forced reset) that need the underlying RLC entity
// rather than the mac.RadioBearer pull/push adapter.
func (c *Controller) amBearersOf(u *ue.UE) []*Bearer {
	c.bearerObjMu.Lock()
	defer c.bearerObjMu.Unlock()
	m := c.bearerObjs[u.URNTI]
	out := make([]*Bearer, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	return out
}

// WriteDownlinkSDU enqueues an SDU on a UE's RB transmit queue, for
// wiring emitDCCH's encoded output into the actual RLC entity; cmd/nodeb
// uses this as its OutboundDCCH hook.
func (c *Controller) WriteDownlinkSDU(urnti uint32, rbID int, data []byte) {
	c.bearerObjMu.Lock()
	b, ok := c.bearerObjs[urnti][rbID]
	c.bearerObjMu.Unlock()
	if !ok {
		c.logger.Warn("WriteDownlinkSDU: no bearer for RB", zap.Uint32("urnti", urnti), zap.Int("rb_id", rbID))
		return
	}
	b.WriteSDU(rlc.SDU{Bytes: data})
}

func (c *Controller) emitCCCH(kind string, msg any) {
	b, err := c.codec.Encode(kind, msg)
	if err != nil {
		c.logger.Error("failed to encode CCCH message", zap.String("kind", kind), zap.Error(err))
		return
	}
	c.sendCCCH(b)
}

func (c *Controller) emitDCCH(u *ue.UE, rbID int, kind string, msg any) {
	zeroed, err := c.codec.Encode(kind, msg)
	if err != nil {
		c.logger.Error("failed to encode DCCH message", zap.String("kind", kind), zap.Error(err))
		return
	}
	if u.Integrity.Started() {
		macI, _ := u.Integrity.Protect(rbID, zeroed, 1)
		c.logger.Debug("protected outbound DCCH message", zap.String("kind", kind), zap.Uint32("mac_i", macI))
	}
	c.sendDCCH(u.URNTI, rbID, zeroed)
}

// HandleConnectionRequest processes an RRCConnectionRequest on CCCH
// (spec.md section 4.4). A returning external identity reuses its
// previously assigned U-RNTI (spec.md section 3, scenario 2).
func (c *Controller) HandleConnectionRequest(req RRCConnectionRequest, now time.Time) {
	_, span := c.tracer.Start(context.Background(), "Controller.HandleConnectionRequest")
	defer span.End()

	u, existed := c.ues.FindOrCreateByExternalID(req.UeID.Key(), now)
	u.SetState(ue.IdleMode)
	u.Integrity.Stop()
	u.Touch(now)

	cfg, err := c.chreg.Get(chconfig.NameCellFACH)
	if err != nil {
		c.logger.Error("no CELL_FACH master config", zap.Error(err))
		return
	}
	c.attachBearers(u, u.FachBearers, cfg, now)

	tx := u.OpenTransaction("ConnectionSetup", nil, ue.CellFACH, now, now.Add(c.timers.T300))

	span.SetAttributes(
		attribute.Bool("duplicate_attach", existed),
		attribute.Int64("urnti", int64(u.URNTI)),
	)

	c.emitCCCH("RRCConnectionSetup", RRCConnectionSetup{
		URNTI:         u.URNTI,
		CRNTI:         u.CRNTI,
		TransactionID: tx.ID,
		TargetState:   ue.CellFACH,
	})
}

// attachBearers instantiates (or reuses) the RLC entity for every RB a
// master config names, registering each with MAC-C's common-bearer pool
// for FACH-backed configs (spec.md section 3, invariant ii: re-entering
// a state must not lose buffered PDUs when mode/PDU size are unchanged).
func (c *Controller) attachBearers(u *ue.UE, into map[int]*mac.RadioBearer, cfg *chconfig.MasterConfig, now time.Time) {
	for _, rbc := range cfg.RadioBearers {
		if _, ok := into[rbc.RBID]; ok {
			continue
		}
		liWidth := 7
		if rbc.PDUSizeBytes > 126 {
			liWidth = 15
		}
		rlcCfg := rlc.Config{
			PDUSizeBytes:            rbc.PDUSizeBytes,
			LIWidthBits:             liWidth,
			TransmissionBufferBytes: 1 << 20,
			TransmissionWindow:      chconfig.AMTransmissionWindow,
			MaxDAT:                  4,
			MaxRST:                  3,
			TimerPoll:               c.timers.Poll,
			TimerPollProhibit:       c.timers.PollProhibit,
			TimerStatusProhibit:     c.timers.StatusProhibit,
			TimerRST:                c.timers.RST,
			LastTransmitPDUPoll:     true,
		}
		rbID := rbc.RBID
		deliver := func(sdu rlc.SDU) { c.onUplinkSDU(u, rbID, sdu) }
		notifyStopped := func() { c.logger.Warn("RLC entity stopped", zap.Uint32("urnti", u.URNTI), zap.Int("rb_id", rbID)) }
		b := NewBearer(rbc, rlcCfg, deliver, notifyStopped, c.logger)
		rb := b.RadioBearer()
		into[rbc.RBID] = rb
		c.rememberBearer(u.URNTI, rbc.RBID, b)
		if cfg.Name == chconfig.NameCellFACH || cfg.Name == chconfig.NameIdleCCCH {
			c.macC.RegisterCommonBearer(u.URNTI, rb)
		}
	}
}

// onUplinkSDU dispatches a reassembled uplink SDU by RB: SRB1 carries
// RRCConnectionSetupComplete, SRB2/3 carry direct-transfer NAS and other
// DCCH messages, data RBs forward straight to the SGSN high side.
func (c *Controller) onUplinkSDU(u *ue.UE, rbID int, sdu rlc.SDU) {
	u.Touch(time.Now())
	if rbID >= ue.RBDataFrom {
		if c.sgsn != nil {
			_ = c.sgsn.WriteHighSide(context.Background(), u.URNTI, rbID, sdu.Bytes, "uplink user data")
		}
		return
	}
	kind, payload, err := c.codec.Decode(sdu.Bytes)
	if err != nil {
		c.logger.Error("malformed DCCH message", zap.Uint32("urnti", u.URNTI), zap.Int("rb_id", rbID), zap.Error(err))
		return
	}
	c.dispatchDCCH(u, kind, payload)
}

// HandleCellUpdate responds to a CellUpdate on CCCH, preserving UE
// state (spec.md section 4.4). spec.md section 9 notes that the source
// this core is modeled on forces an AM RLC reset on Cell Update as a
// pragmatic workaround for a sequence-number desync it never fully
// root-caused, and recommends surfacing that as a metric rather than
// silently repeating the workaround; this core does the same but counts
// every occurrence via CellUpdateForcedReset.
func (c *Controller) HandleCellUpdate(req CellUpdate, now time.Time) {
	u, ok := c.ues.FindByURNTI(req.URNTI)
	if !ok {
		c.emitCCCH("RRCConnectionRelease", RRCConnectionRelease{})
		return
	}
	u.Touch(now)

	wasCellDCH := u.State() == ue.CellDCH
	if wasCellDCH {
		c.forceResetOnCellUpdate(u, now)
	}

	if _, ok := u.DchBearers[2]; ok && wasCellDCH {
		c.emitDCCH(u, 2, "CellUpdateConfirm", CellUpdateConfirm{URNTI: u.URNTI})
		return
	}
	c.emitCCCH("CellUpdateConfirm", CellUpdateConfirm{URNTI: u.URNTI})
}

// forceResetOnCellUpdate resets every AM bearer bound under the UE's
// current master config on Cell Update, mirroring the pragmatic
// workaround spec.md section 9 describes, and increments the metric it
// recommends in place of silently repeating it.
func (c *Controller) forceResetOnCellUpdate(u *ue.UE, now time.Time) {
	for _, b := range c.amBearersOf(u) {
		if b.am == nil {
			continue
		}
		b.TriggerReset(now)
		metrics.RecordCellUpdateForcedReset()
	}
}

// HandleConnectionSetupComplete closes the ConnectionSetup transaction
// and moves the UE to CELL_FACH.
func (c *Controller) HandleConnectionSetupComplete(urnti uint32, msg RRCConnectionSetupComplete) {
	u, ok := c.ues.FindByURNTI(urnti)
	if !ok {
		return
	}
	u.CloseTransaction(msg.TransactionID)
	u.SetState(ue.CellFACH)
}

// dispatchDCCH routes a decoded DCCH payload by message kind (the NAS
// protocol-discriminator routing spec.md section 4.4 describes is
// itself performed inside uplinkDirectTransfer's NAS payload; RRC-level
// messages are routed here by kind).
func (c *Controller) dispatchDCCH(u *ue.UE, kind string, payload []byte) {
	switch kind {
	case "RRCConnectionReleaseComplete":
		c.HandleConnectionReleaseComplete(u)
	case "RRCConnectionSetupComplete":
		var m RRCConnectionSetupComplete
		if decodeInto(payload, &m) {
			c.HandleConnectionSetupComplete(u.URNTI, m)
		}
	case "RadioBearerSetupComplete":
		var m RadioBearerSetupComplete
		if decodeInto(payload, &m) {
			c.HandleRadioBearerSetupComplete(u, m)
		}
	case "RadioBearerSetupFailure":
		var m RadioBearerSetupFailure
		if decodeInto(payload, &m) {
			c.HandleRadioBearerSetupFailure(u, m)
		}
	case "RadioBearerReleaseComplete":
		var m RadioBearerReleaseComplete
		if decodeInto(payload, &m) {
			c.HandleRadioBearerReleaseComplete(u, m)
		}
	case "RadioBearerReleaseFailure":
		var m RadioBearerReleaseFailure
		if decodeInto(payload, &m) {
			c.HandleRadioBearerReleaseFailure(u, m)
		}
	case "UplinkDirectTransfer":
		var m UplinkDirectTransfer
		if decodeInto(payload, &m) {
			c.dispatchNAS(u, m.NAS)
		}
	case "InitialDirectTransfer":
		var m InitialDirectTransfer
		if decodeInto(payload, &m) {
			c.dispatchNAS(u, m.NAS)
		}
	case "RrcStatus":
		var m RrcStatus
		if decodeInto(payload, &m) {
			c.HandleRrcStatus(u, m)
		}
	case "SecurityModeComplete":
		c.logger.Info("security mode complete", zap.Uint32("urnti", u.URNTI))
	case "SecurityModeFailure":
		var m SecurityModeFailure
		if decodeInto(payload, &m) {
			c.logger.Warn("security mode failure", zap.Uint32("urnti", u.URNTI), zap.String("cause", m.Cause))
		}
	case "SignallingConnectionReleaseIndication":
		c.HandleSignallingConnectionReleaseIndication(u)
	case "MeasurementReport":
		// ignored (spec.md section 6)
	case "UeCapabilityInformation":
		var m UeCapabilityInformation
		if decodeInto(payload, &m) {
			u.Capability = m.Capability
		}
	default:
		c.logger.Warn("unrecognized DCCH message kind", zap.String("kind", kind))
	}
}

// HandleUplinkCCCH decodes a RACH-delivered CCCH PDU and routes it to the
// matching handler; cmd/nodeb wires this as MacC.OnUplinkCCCH.
func (c *Controller) HandleUplinkCCCH(pdu []byte, now time.Time) {
	kind, payload, err := c.codec.Decode(pdu)
	if err != nil {
		c.logger.Error("malformed CCCH message", zap.Error(err))
		return
	}
	switch kind {
	case "RRCConnectionRequest":
		var m RRCConnectionRequest
		if decodeInto(payload, &m) {
			c.HandleConnectionRequest(m, now)
		}
	case "CellUpdate":
		var m CellUpdate
		if decodeInto(payload, &m) {
			c.HandleCellUpdate(m, now)
		}
	case "URAUpdate":
		c.logger.Debug("URA update received")
	default:
		c.logger.Warn("unrecognized CCCH message kind", zap.String("kind", kind))
	}
}

func (c *Controller) HandleRrcStatus(u *ue.UE, msg RrcStatus) {
	c.logger.Error("RRC status from UE",
		zap.Uint32("urnti", u.URNTI),
		zap.String("error_type", msg.ErrorType),
	)
}

// HandleSignallingConnectionReleaseIndication frees every PDP context the
// UE holds and releases the signalling connection (spec.md section 8,
// scenario 6); MAC-D is actually torn down once the UE's
// RRCConnectionReleaseComplete arrives.
func (c *Controller) HandleSignallingConnectionReleaseIndication(u *ue.UE) {
	c.freeAllPdpContexts(u)
	c.emitDCCH(u, 2, "RRCConnectionRelease", RRCConnectionRelease{})
}

func (c *Controller) freeAllPdpContexts(u *ue.UE) {
	var mask []int
	for rbID := ue.RBDataFrom; rbID <= ue.RBDataTo; rbID++ {
		if info, ok := u.Rab(rbID); ok && (info.Status == ue.RabAllocated || info.Status == ue.RabPending) {
			mask = append(mask, rbID)
		}
	}
	for _, rbID := range mask {
		u.DeleteRab(rbID)
		delete(u.DchBearers, rbID)
	}
}

// HandleConnectionReleaseComplete detaches MAC-D and returns the UE to
// idle once it has confirmed the release (spec.md section 8, scenarios
// 5 and 6).
func (c *Controller) HandleConnectionReleaseComplete(u *ue.UE) {
	if c.scheduler != nil && u.MACD != nil {
		c.scheduler.Unregister(macdKey(u.URNTI))
	}
	u.MACD = nil
	u.SetState(ue.IdleMode)
	u.Integrity.Stop()
}

// SmCause aliases the sgsnclient cause enum for RRC-local use.
type SmCause = sgsnclient.SmCause

// decodeInto unmarshals a codec payload into a typed message, logging
// nothing itself; callers log on failure with their own context.
func decodeInto(payload []byte, v any) bool {
	return json.Unmarshal(payload, v) == nil
}
