package rlc

// AM control PDU types (D/C=0), spec.md section 4.2.
const (
	CtrlStatus   = 0
	CtrlReset    = 1
	CtrlResetAck = 2
)

// amDataHeader is the 2-byte AM data PDU header: 1-bit D/C (always 1 for
// data), 12-bit SN, 1-bit Poll, 2-bit HE (only the low bit used, as an E
// flag) — spec.md section 4.2.
type amDataHeader struct {
	SN   uint16
	Poll bool
	E    bool
}

func encodeAMDataHeader(h amDataHeader) []byte {
	b0 := byte(1<<7) | byte(h.SN>>5) // D/C=1, top 7 bits of SN
	b1 := byte(h.SN<<3) & 0xf8
	if h.Poll {
		b1 |= 0x04
	}
	if h.E {
		b1 |= 0x01
	}
	return []byte{b0, b1}
}

func decodeAMDataHeader(b []byte) (amDataHeader, bool) {
	if len(b) < 2 {
		return amDataHeader{}, false
	}
	dc := b[0] >> 7
	if dc != 1 {
		return amDataHeader{}, false
	}
	sn := (uint16(b[0]&0x7f) << 5) | uint16(b[1]>>3)
	poll := b[1]&0x04 != 0
	e := b[1]&0x01 != 0
	return amDataHeader{SN: sn, Poll: poll, E: e}, true
}

// amControlHeader is the control-PDU discriminator: D/C=0 plus a 3-bit
// type field in {STATUS, RESET, RESET_ACK}.
func encodeAMControlType(t int) byte {
	return byte(t&0x7) << 4 // D/C=0 in top bit, type in next 3 bits
}

func decodeAMControlType(b byte) (int, bool) {
	if b>>7 != 0 {
		return 0, false
	}
	return int((b >> 4) & 0x7), true
}
