// Package mac implements the MAC-c (common) and MAC-d (dedicated)
// multiplexers described in spec.md section 4.3: header encode/decode,
// logical-to-transport-channel multiplexing, TFC selection, and the
// single TTI-tick scheduler that drives every registered entity.
package mac

// Target-channel type field values (spec.md section 4.3).
const (
	TCTFCommonCCCH    = 0x00 // 2-bit, uplink RACH CCCH
	TCTFCommonDCCH    = 0x01 // 2-bit, uplink RACH DCCH/DTCH
	TCTFDownlinkCCCH8 = 0x40 // 8-bit, downlink FACH CCCH
	TCTFDownlinkDCCH2 = 0x02 // 2-bit, downlink FACH DCCH/DTCH
)

// UEIDType selects which RNTI a DCCH/DTCH header carries.
type UEIDType uint8

const (
	UEIDTypeURNTI UEIDType = 0 // 32-bit
	UEIDTypeCRNTI UEIDType = 1 // 16-bit
)

// UplinkCCCHHeader is the RACH CCCH (SRB0) header: 2-bit TCTF only.
type UplinkCCCHHeader struct{}

func EncodeUplinkCCCH() []byte {
	w := &bitWriter{}
	w.writeBits(TCTFCommonCCCH, 2)
	return w.bytes()
}

// UplinkDCCHHeader is the RACH DCCH/DTCH header: TCTF, UE-id-type, UE-id,
// and a 4-bit C/T field used directly as RB id - 1.
type UplinkDCCHHeader struct {
	UEIDType UEIDType
	UEID     uint32
	CT       uint8 // RB id - 1
}

func EncodeUplinkDCCH(h UplinkDCCHHeader) []byte {
	w := &bitWriter{}
	w.writeBits(TCTFCommonDCCH, 2)
	w.writeBits(uint64(h.UEIDType), 2)
	if h.UEIDType == UEIDTypeURNTI {
		w.writeBits(uint64(h.UEID), 32)
	} else {
		w.writeBits(uint64(h.UEID), 16)
	}
	w.writeBits(uint64(h.CT), 4)
	return w.bytes()
}

// DecodedUplinkHeader is the union of the two uplink header shapes,
// discriminated by CCCH.
type DecodedUplinkHeader struct {
	CCCH bool
	DCCH UplinkDCCHHeader
}

func DecodeUplink(b []byte) (DecodedUplinkHeader, []byte, bool) {
	r := newBitReader(b)
	tctf, ok := r.readBits(2)
	if !ok {
		return DecodedUplinkHeader{}, nil, false
	}
	if tctf == TCTFCommonCCCH {
		return DecodedUplinkHeader{CCCH: true}, r.remainingBytes(), true
	}
	idType, ok := r.readBits(2)
	if !ok {
		return DecodedUplinkHeader{}, nil, false
	}
	var ueid uint64
	if UEIDType(idType) == UEIDTypeURNTI {
		ueid, ok = r.readBits(32)
	} else {
		ueid, ok = r.readBits(16)
	}
	if !ok {
		return DecodedUplinkHeader{}, nil, false
	}
	ct, ok := r.readBits(4)
	if !ok {
		return DecodedUplinkHeader{}, nil, false
	}
	return DecodedUplinkHeader{DCCH: UplinkDCCHHeader{UEIDType: UEIDType(idType), UEID: uint32(ueid), CT: uint8(ct)}}, r.remainingBytes(), true
}

// DownlinkCCCHHeader is the FACH CCCH header: a full 8-bit TCTF.
func EncodeDownlinkCCCH() []byte {
	return []byte{TCTFDownlinkCCCH8}
}

// DownlinkDCCHHeader is the FACH DCCH/DTCH header: 2-bit TCTF, 2-bit
// UE-id-type (downlink always carries C-RNTI per spec.md section 4.3),
// 16-bit C-RNTI, 4-bit C/T.
type DownlinkDCCHHeader struct {
	CRNTI uint16
	CT    uint8
}

func EncodeDownlinkDCCH(h DownlinkDCCHHeader) []byte {
	w := &bitWriter{}
	w.writeBits(TCTFDownlinkDCCH2, 2)
	w.writeBits(uint64(UEIDTypeCRNTI), 2)
	w.writeBits(uint64(h.CRNTI), 16)
	w.writeBits(uint64(h.CT), 4)
	return w.bytes()
}

type DecodedDownlinkHeader struct {
	CCCH bool
	DCCH DownlinkDCCHHeader
}

func DecodeDownlink(b []byte) (DecodedDownlinkHeader, []byte, bool) {
	if len(b) >= 1 && b[0] == TCTFDownlinkCCCH8 {
		return DecodedDownlinkHeader{CCCH: true}, b[1:], true
	}
	r := newBitReader(b)
	if _, ok := r.readBits(2); !ok {
		return DecodedDownlinkHeader{}, nil, false
	}
	if _, ok := r.readBits(2); !ok {
		return DecodedDownlinkHeader{}, nil, false
	}
	crnti, ok := r.readBits(16)
	if !ok {
		return DecodedDownlinkHeader{}, nil, false
	}
	ct, ok := r.readBits(4)
	if !ok {
		return DecodedDownlinkHeader{}, nil, false
	}
	return DecodedDownlinkHeader{DCCH: DownlinkDCCHHeader{CRNTI: uint16(crnti), CT: uint8(ct)}}, r.remainingBytes(), true
}

// DedicatedHeader is the DCH header: 4 bits of C/T when the TrCh is
// multiplexed, zero bits otherwise.
func EncodeDedicated(multiplexed bool, ct uint8) []byte {
	if !multiplexed {
		return nil
	}
	w := &bitWriter{}
	w.writeBits(uint64(ct), 4)
	return w.bytes()
}

func DecodeDedicated(multiplexed bool, b []byte) (ct uint8, rest []byte, ok bool) {
	if !multiplexed {
		return 0, b, true
	}
	r := newBitReader(b)
	v, ok := r.readBits(4)
	if !ok {
		return 0, nil, false
	}
	return uint8(v), r.remainingBytes(), true
}
