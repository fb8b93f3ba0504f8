package rlc

import (
	"time"

	"github.com/your-org/umts-radio-core/internal/sn"
)

// Receive dispatches one inbound AM PDU to the data, STATUS, RESET, or
// RESET_ACK handler.
func (a *AMEntity) Receive(now time.Time, pdu []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateStopped || len(pdu) < 2 {
		return
	}

	if hdr, ok := decodeAMDataHeader(pdu); ok {
		a.receiveData(hdr, pdu[2:])
		return
	}

	ctrlType, ok := decodeAMControlType(pdu[0])
	if !ok {
		return
	}
	switch ctrlType {
	case CtrlStatus:
		a.receiveStatusPDU(pdu[1:])
	case CtrlReset:
		a.receiveReset(now, pdu[1:])
	case CtrlResetAck:
		a.receiveResetAck(now, pdu[1:])
	}
}

// amRxRecord is one buffered inbound data PDU awaiting in-sequence
// delivery: the payload with its LI-chain bytes already stripped, plus the
// decoded LI chain itself, needed to split the payload back into its
// constituent SDU(s) once it's this PDU's turn at VR(R).
type amRxRecord struct {
	rest []byte
	lis  []LI
}

// receiveData reassembles an in-sequence data PDU, buffering out-of-order
// arrivals and discarding malformed LI chains (spec.md section 7: "Peer
// protocol violation").
func (a *AMEntity) receiveData(hdr amDataHeader, rest []byte) {
	var lis []LI
	if hdr.E {
		decoded, consumed := decodeLIChain(rest, a.cfg.LIWidthBits)
		lis = decoded
		rest = rest[consumed:]
	}

	if sn.Delta(amSNS, hdr.SN, a.vrH) >= 0 {
		a.vrH = sn.Add(amSNS, hdr.SN, 1)
	}

	if _, dup := a.rxBuf[hdr.SN]; !dup && !sn.Less(amSNS, hdr.SN, a.vrR) {
		a.rxBuf[hdr.SN] = amRxRecord{rest: rest, lis: lis}
		a.deliverInSequence()
	}

	if hdr.Poll {
		a.requestStatus()
	}
}

// deliverInSequence walks rxBuf forward from VR(R), splitting each
// consecutive PDU's payload along its LI chain into the SDU(s) it carries
// and advancing VR(R). A fragment left incomplete at the end of one PDU
// carries forward in rxPartial until the PDU that completes it arrives.
func (a *AMEntity) deliverInSequence() {
	for {
		rec, ok := a.rxBuf[a.vrR]
		if !ok {
			return
		}
		delete(a.rxBuf, a.vrR)
		a.vrR = sn.Add(amSNS, a.vrR, 1)
		a.rxPartial, a.rxSynced = reassembleLIChain(rec.rest, rec.lis, a.rxPartial, a.rxSynced, a.cfg.LIWidthBits, a.emit)
	}
}

func (a *AMEntity) emit(b []byte) {
	if len(b) == 0 || a.deliver == nil {
		return
	}
	cp := append([]byte(nil), b...)
	a.deliver(SDU{Bytes: cp})
}

func (a *AMEntity) requestStatus() {
	a.statusPending = true
	if a.statusSN == 0 {
		a.statusSN = a.vrR
	}
}

// buildStatusPDU emits a LIST (of missing runs in [VR(R),VR(H))) followed
// by an ACK(VR(H)). If the full range doesn't fit in one PDU, mStatusSN
// advances and statusPending stays true so the caller keeps reporting on
// later opportunities.
func (a *AMEntity) buildStatusPDU(now time.Time) []byte {
	var runs []MissingRun
	cursor := a.statusSN
	reported := 0
	maxRuns := (a.cfg.PDUSizeBytes - 4) / 3
	if maxRuns < 1 {
		maxRuns = 1
	}

	for cursor != a.vrH && reported < maxRuns {
		if _, have := a.rxBuf[cursor]; !have {
			start := cursor
			length := 0
			for cursor != a.vrH {
				if _, have := a.rxBuf[cursor]; have {
					break
				}
				cursor = sn.Add(amSNS, cursor, 1)
				length++
			}
			runs = append(runs, MissingRun{SN: start, Length: length})
			reported++
		} else {
			cursor = sn.Add(amSNS, cursor, 1)
		}
	}

	a.statusSN = cursor
	if cursor == a.vrH {
		a.statusPending = false
		a.statusSN = 0
	}
	a.statusProhibitUntil = now.Add(a.cfg.TimerStatusProhibit)

	sufis := encodeListAck(runs, a.vrH)
	return encodeStatusPDU(sufis)
}

func encodeStatusPDU(sufis []Sufi) []byte {
	out := []byte{encodeAMControlType(CtrlStatus)}
	for _, s := range sufis {
		switch s.Type {
		case SufiList:
			out = append(out, 0x01, byte(len(s.Runs)))
			for _, r := range s.Runs {
				out = append(out, byte(r.SN>>8), byte(r.SN), byte(r.Length))
			}
		case SufiAck:
			out = append(out, 0x02, byte(s.AckSN>>8), byte(s.AckSN))
		}
	}
	return out
}

func decodeStatusPDU(b []byte) []Sufi {
	var out []Sufi
	i := 0
	for i < len(b) {
		switch b[i] {
		case 0x01:
			if i+1 >= len(b) {
				return out
			}
			count := int(b[i+1])
			i += 2
			var runs []MissingRun
			for r := 0; r < count && i+2 < len(b); r++ {
				snv := uint16(b[i])<<8 | uint16(b[i+1])
				length := int(b[i+2])
				runs = append(runs, MissingRun{SN: snv, Length: length})
				i += 3
			}
			out = append(out, Sufi{Type: SufiList, Runs: runs})
		case 0x02:
			if i+2 >= len(b) {
				return out
			}
			snv := uint16(b[i+1])<<8 | uint16(b[i+2])
			out = append(out, Sufi{Type: SufiAck, AckSN: snv})
			i += 3
		default:
			// WINDOW/BITMAP/RLIST/POLL/MRW/MRW_ACK and anything unknown:
			// skip one byte and keep scanning, per spec.md's "decoded
			// (some ignored) but never emitted by this core" note.
			i++
		}
	}
	return out
}

// receiveStatusPDU accumulates new NACKs from a LIST SUFI before applying
// the ACK, per spec.md section 4.2. VT(A) advances towards the ACK's SN
// but stops at the first SN this same STATUS NACKed, so a NACKed PDU
// stays in txBuf until it is retransmitted and acknowledged.
func (a *AMEntity) receiveStatusPDU(b []byte) {
	sufis := decodeStatusPDU(b)
	nacked := make(map[uint16]bool)
	for _, s := range sufis {
		if s.Type == SufiList {
			for _, run := range s.Runs {
				snv := run.SN
				for k := 0; k < run.Length; k++ {
					if _, have := a.txBuf[snv]; have {
						a.retransmitQueue[snv] = true
						nacked[snv] = true
					}
					snv = sn.Add(amSNS, snv, 1)
				}
			}
		}
	}
	for _, s := range sufis {
		if s.Type == SufiAck {
			for a.vtA != s.AckSN && sn.Less(amSNS, a.vtA, s.AckSN) {
				if nacked[a.vtA] {
					break
				}
				delete(a.txBuf, a.vtA)
				delete(a.retransmitQueue, a.vtA)
				a.vtA = sn.Add(amSNS, a.vtA, 1)
			}
		}
	}
}

func (a *AMEntity) HFNAdvance() { a.hfn++ }
