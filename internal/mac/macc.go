package mac

import "time"

// UplinkCCCHHandler is invoked once per received uplink CCCH PDU, with the
// RACH transport block payload past the MAC header.
type UplinkCCCHHandler func(pdu []byte)

// UplinkDCCHHandler is invoked once per received uplink DCCH/DTCH PDU
// carried on RACH, before a dedicated channel has been assigned.
type UplinkDCCHHandler func(idType UEIDType, ueid uint32, ct uint8, pdu []byte)

// MacC implements the MAC-c entity (spec.md section 4.3): common-channel
// multiplexing over RACH (uplink) and FACH (downlink). CCCH (RB0) always
// drains first, and a TTI that carries a CCCH PDU carries nothing else.
// Otherwise the TTI goes to the next UE's common DCCH bearer in
// round-robin order across UEs, on the FACH that the U-RNTI-mod-FACH-count
// selection picks for that UE.
type MacC struct {
	RACHTrChID int
	FACHTrChID []int

	OnUplinkCCCH UplinkCCCHHandler
	OnUplinkDCCH UplinkDCCHHandler

	ccchDownlink [][]byte

	// commonBearers are RB1-3 signalling bearers still riding RACH/FACH,
	// keyed by U-RNTI, before a dedicated channel is assigned.
	commonBearers map[uint32]*RadioBearer
	ueOrder       []uint32
	nextUE        int
}

func NewMacC(rachTrChID int, fachTrChID []int) *MacC {
	return &MacC{
		RACHTrChID:    rachTrChID,
		FACHTrChID:    fachTrChID,
		commonBearers: make(map[uint32]*RadioBearer),
	}
}

// QueueDownlinkCCCH enqueues one CCCH PDU (e.g. RRC CONNECTION SETUP) for
// the next available FACH opportunity.
func (m *MacC) QueueDownlinkCCCH(pdu []byte) {
	m.ccchDownlink = append(m.ccchDownlink, pdu)
}

// RegisterCommonBearer adds a U-RNTI's common-channel DCCH bearer to the
// FACH round-robin, used while a UE is in CELL_FACH without a dedicated
// channel (spec.md section 4.1 UE states).
func (m *MacC) RegisterCommonBearer(urnti uint32, rb *RadioBearer) {
	if _, exists := m.commonBearers[urnti]; !exists {
		m.ueOrder = append(m.ueOrder, urnti)
	}
	m.commonBearers[urnti] = rb
}

// CommonBearer returns the RB registered for a UE's common-channel DCCH
// traffic, for routing an uplink PDU WriteLow handed off to OnUplinkDCCH.
func (m *MacC) CommonBearer(urnti uint32) (*RadioBearer, bool) {
	rb, ok := m.commonBearers[urnti]
	return rb, ok
}

func (m *MacC) UnregisterCommonBearer(urnti uint32) {
	delete(m.commonBearers, urnti)
	for i, u := range m.ueOrder {
		if u == urnti {
			m.ueOrder = append(m.ueOrder[:i], m.ueOrder[i+1:]...)
			break
		}
	}
}

// Service drains one CCCH PDU if one is queued; otherwise it walks the
// FACH selection — U-RNTI mod len(FACHTrChID) picks which FACH a UE's
// data may use this TTI — and pulls from the next eligible common bearer.
func (m *MacC) Service(now time.Time) map[int][]byte {
	out := make(map[int][]byte)
	if len(m.ccchDownlink) > 0 {
		pdu := m.ccchDownlink[0]
		m.ccchDownlink = m.ccchDownlink[1:]
		hdr := EncodeDownlinkCCCH()
		out[m.fachFor(0)] = append(hdr, pdu...)
		return out
	}
	if len(m.ueOrder) == 0 || len(m.FACHTrChID) == 0 {
		return out
	}
	for i := 0; i < len(m.ueOrder); i++ {
		idx := (m.nextUE + i) % len(m.ueOrder)
		urnti := m.ueOrder[idx]
		rb := m.commonBearers[urnti]
		if rb == nil || rb.Pull == nil {
			continue
		}
		fach := m.fachFor(urnti)
		pdu := rb.Pull(now)
		if pdu == nil {
			continue
		}
		hdr := EncodeDownlinkDCCH(DownlinkDCCHHeader{CRNTI: uint16(urnti), CT: uint8(rb.RBID - 1)})
		out[fach] = append(hdr, pdu...)
		m.nextUE = (idx + 1) % len(m.ueOrder)
		break
	}
	return out
}

// fachFor selects a FACH TrCh by U-RNTI mod number_of_FACH (spec.md
// section 4.3, "FACH selection").
func (m *MacC) fachFor(urnti uint32) int {
	if len(m.FACHTrChID) == 0 {
		return m.RACHTrChID
	}
	return m.FACHTrChID[int(urnti)%len(m.FACHTrChID)]
}

// WriteLow demultiplexes one uplink RACH transport block.
func (m *MacC) WriteLow(now time.Time, trchID int, tb []byte) {
	dec, rest, ok := DecodeUplink(tb)
	if !ok {
		return
	}
	if dec.CCCH {
		if m.OnUplinkCCCH != nil {
			m.OnUplinkCCCH(rest)
		}
		return
	}
	if m.OnUplinkDCCH != nil {
		m.OnUplinkDCCH(dec.DCCH.UEIDType, dec.DCCH.UEID, dec.DCCH.CT, rest)
	}
}
