// Package rlc implements the three Radio Link Control entity flavours —
// Transparent, Unacknowledged, and Acknowledged Mode — described in
// spec.md section 4.2. Each entity is pull-based on the MAC side: MAC asks
// for a PDU once per TTI and gets nil if nothing is ready (spec.md
// section 5).
package rlc

import "time"

// Mode identifies one of the three RLC flavours a radio bearer can use in
// one direction.
type Mode int

const (
	ModeTM Mode = iota
	ModeUM
	ModeAM
)

func (m Mode) String() string {
	switch m {
	case ModeTM:
		return "TM"
	case ModeUM:
		return "UM"
	case ModeAM:
		return "AM"
	default:
		return "?"
	}
}

// DiscardMode is the discard flag an upper layer attaches to an SDU. The
// entities in this package carry it but do not consult it: an overflowing
// transmit buffer always drops its oldest queued SDU, and a PDU that
// exhausts MaxDAT always triggers a RESET.
type DiscardMode int

const (
	// NoDiscard means a PDU that exhausts MaxDAT retransmissions triggers
	// a RESET instead of being dropped.
	NoDiscard DiscardMode = iota
	Discard
)

// SDU is an opaque byte string handed to RLC by an upper layer.
type SDU struct {
	Bytes   []byte
	Discard DiscardMode
	MsgID   uint32
}

// EntityState reflects whether an RLC entity is usable. STOPPED is reached
// after MaxRST reset attempts are exhausted (spec.md section 4.2/7).
type EntityState int

const (
	StateActive EntityState = iota
	StateStopped
)

// Config holds the per-entity tunables a master channel config supplies.
// Zero-value fields that don't apply to a given Mode are ignored.
type Config struct {
	Mode Mode

	// PDU size in bytes; UM/AM only.
	PDUSizeBytes int

	// LIWidthBits is 7 or 15; UM/AM only. 15 is forced when PDUSizeBytes > 126.
	LIWidthBits int

	// AllowDownlinkStartOfSDU records whether the 0x7ffc/0x7c "start of
	// SDU" LI may be used on downlink PDUs. Defaults to false. The UM and
	// AM transmitters in this package never emit that LI and do not read
	// this field, so it has no effect on the PDUs they build (see
	// SPEC_FULL.md Open Questions).
	AllowDownlinkStartOfSDU bool

	// AM-only.
	TransmissionWindow int // VT(WS); must be <= SNS/2 - 1
	MaxDAT             int
	MaxRST             int
	TimerPoll          time.Duration
	TimerPollProhibit  time.Duration
	TimerPollPeriodic  time.Duration
	TimerStatusProhibit time.Duration
	TimerStatusPeriodic time.Duration
	TimerRST           time.Duration
	PollPDUs           int // poll every N PDUs sent
	PollSDUs           int // poll every N SDUs sent
	LastTransmitPDUPoll     bool
	LastRetransmitPDUPoll   bool

	// TransmissionBufferBytes bounds the transmit queue (UMTS.RLC.TransmissionBufferSize).
	TransmissionBufferBytes int

	// Label identifies the owning radio bearer in metrics and log lines;
	// purely cosmetic, never consulted for protocol behavior.
	Label string
}

// SNS returns the sequence-number space for this entity's mode.
func (c Config) SNS() int {
	switch c.Mode {
	case ModeUM:
		return 128
	case ModeAM:
		return 4096
	default:
		return 0
	}
}
