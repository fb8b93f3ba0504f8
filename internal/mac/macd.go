package mac

import "time"

// MacD implements the MAC-d entity (spec.md section 4.3): one per UE,
// multiplexing that UE's dedicated radio bearers onto the DCH(s) assigned
// to it. A DCH carrying a single RB needs no C/T field; a DCH shared by
// several RBs gets a 4-bit C/T header built from the bearer's RB id.
type MacD struct {
	URNTI uint32

	// bearers are this UE's dedicated RBs, indexed by RB id (1-15).
	bearers map[int]*RadioBearer

	// trchOf maps an RB id to the DCH TrCh id it's bound to.
	trchOf map[int]int

	// multiplexed marks which DCH TrCh ids carry more than one RB and so
	// need the C/T field.
	multiplexed map[int]bool

	tfcSelect func(now time.Time, blocksReady []int) (tfIndex []int, ok bool)
}

func NewMacD(urnti uint32) *MacD {
	return &MacD{
		URNTI:       urnti,
		bearers:     make(map[int]*RadioBearer),
		trchOf:      make(map[int]int),
		multiplexed: make(map[int]bool),
	}
}

func (m *MacD) BindBearer(rb *RadioBearer, trchID int, multiplexed bool) {
	m.bearers[rb.RBID] = rb
	m.trchOf[rb.RBID] = trchID
	m.multiplexed[trchID] = multiplexed
}

func (m *MacD) UnbindBearer(rbID int) {
	trchID := m.trchOf[rbID]
	delete(m.bearers, rbID)
	delete(m.trchOf, rbID)
	stillUsed := false
	for rb, t := range m.trchOf {
		if t == trchID && rb != rbID {
			stillUsed = true
		}
	}
	if !stillUsed {
		delete(m.multiplexed, trchID)
	}
}

// Service pulls at most one PDU per bound bearer and frames it with the
// DCH header appropriate to whether its TrCh is shared.
func (m *MacD) Service(now time.Time) map[int][]byte {
	out := make(map[int][]byte)
	for rbID, rb := range m.bearers {
		if rb.Pull == nil {
			continue
		}
		pdu := rb.Pull(now)
		if pdu == nil {
			continue
		}
		trchID := m.trchOf[rbID]
		hdr := EncodeDedicated(m.multiplexed[trchID], uint8(rbID-1))
		out[trchID] = append(hdr, pdu...)
	}
	return out
}

// WriteLow demultiplexes one uplink DCH transport block by its known
// TrCh-to-RB binding; a C/T field is read off only when that TrCh is
// shared by more than one RB.
func (m *MacD) WriteLow(now time.Time, trchID int, tb []byte) {
	multiplexed := m.multiplexed[trchID]
	ct, rest, ok := DecodeDedicated(multiplexed, tb)
	if !ok {
		return
	}
	var rbID int
	if multiplexed {
		rbID = int(ct) + 1
	} else {
		for rb, t := range m.trchOf {
			if t == trchID {
				rbID = rb
				break
			}
		}
	}
	rb := m.bearers[rbID]
	if rb == nil || rb.Push == nil {
		return
	}
	rb.Push(now, rest)
}
