package rlc

import (
	"sync"
	"time"

	"github.com/your-org/umts-radio-core/common/metrics"
	"github.com/your-org/umts-radio-core/internal/sn"
	"go.uber.org/zap"
)

const amSNS = 4096

type amTxRecord struct {
	payload []byte // header-less body: LI chain (if hasLI) + data, rebuilt header prepended on send
	hasLI   bool   // true if payload begins with an encoded LI chain; sets the header E bit
	dat     int    // VT(DAT): retransmission count for this PDU
}

// AMEntity is the Acknowledged Mode entity: transmitter and receiver
// halves sharing one mutex because both react to an inbound STATUS PDU
// (spec.md section 4.2, section 5 iii).
type AMEntity struct {
	mu    sync.Mutex
	cfg   Config
	log   *zap.Logger
	state EntityState

	// Transmitter.
	vtS     uint16
	vtA     uint16
	txBuf   map[uint16]*amTxRecord
	pending []*umPendingSDU
	bufBytes int
	sduSincePoll int
	pduSincePoll int
	pollProhibitUntil time.Time
	pollTimerDeadline time.Time
	lastTxSN    uint16
	haveLastTx  bool
	lastWasRetransmit bool

	// Receiver.
	vrR     uint16
	vrH     uint16
	rxBuf   map[uint16]amRxRecord
	rxPartial []byte // bytes of an SDU fragment not yet completed
	rxSynced  bool   // false only until a fragment boundary has been proven
	statusSN        uint16
	statusPending   bool
	statusProhibitUntil time.Time

	// SNs the receiver has explicitly NACKed via a LIST SUFI and that are
	// still awaiting retransmission.
	retransmitQueue map[uint16]bool

	// One-shot control PDUs (RESET_ACK) queued for the next Pull.
	pendingControl [][]byte

	// Reset.
	rsn           uint8
	resetInFlight bool
	resetDeadline time.Time
	resetAttempts int
	peerRSN       uint8
	havePeerRSN   bool

	hfn uint32 // advances on successful reset completion, shared tx/rx

	deliver       func(SDU)
	notifyStopped func()
}

func NewAMEntity(cfg Config, deliver func(SDU), notifyStopped func(), log *zap.Logger) *AMEntity {
	return &AMEntity{
		cfg:           cfg,
		log:           log,
		txBuf:           make(map[uint16]*amTxRecord),
		rxBuf:           make(map[uint16]amRxRecord),
		rxSynced:        true,
		retransmitQueue: make(map[uint16]bool),
		deliver:       deliver,
		notifyStopped: notifyStopped,
	}
}

// HFN returns the current hyper-frame number, used by integrity protection
// to compute COUNT-I for this bearer.
func (a *AMEntity) HFN() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hfn
}

func (a *AMEntity) State() EntityState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// vtms is the upper edge of the transmission window: VT(A) + VT(WS).
func (a *AMEntity) vtms() uint16 {
	return sn.Add(amSNS, a.vtA, a.cfg.TransmissionWindow)
}

// WriteSDU enqueues an SDU for transmission, applying the overflow policy
// if the buffer is full.
func (a *AMEntity) WriteSDU(sdu SDU) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateStopped {
		return
	}
	if a.cfg.TransmissionBufferBytes > 0 && a.bufBytes+len(sdu.Bytes) > a.cfg.TransmissionBufferBytes {
		if len(a.pending) > 0 {
			dropped := a.pending[0]
			a.pending = a.pending[1:]
			a.bufBytes -= len(dropped.bytes) - dropped.offset
			if a.log != nil {
				a.log.Warn("AM transmit buffer overflow, dropping oldest SDU")
			}
		}
	}
	a.pending = append(a.pending, &umPendingSDU{bytes: sdu.Bytes})
	a.bufBytes += len(sdu.Bytes)
}

// Pull returns the next PDU to send, in priority order: a queued RESET or
// RESET_ACK control PDU, a due STATUS PDU, a polled retransmission, or
// fresh/retransmitted data. Returns nil if there is nothing to send this
// TTI.
func (a *AMEntity) Pull(now time.Time) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateStopped {
		return nil
	}

	if len(a.pendingControl) > 0 {
		pdu := a.pendingControl[0]
		a.pendingControl = a.pendingControl[1:]
		return pdu
	}

	if a.resetInFlight {
		if !now.Before(a.resetDeadline) {
			return a.retransmitReset(now)
		}
	}

	if a.statusPending && !now.Before(a.statusProhibitUntil) {
		return a.buildStatusPDU(now)
	}

	return a.buildDataOpportunity(now)
}

func (a *AMEntity) buildDataOpportunity(now time.Time) []byte {
	// A PDU the peer NACKed goes out before any fresh data, oldest SN
	// first. A PDU whose retransmission count would pass MaxDAT starts a
	// RESET instead.
	pollDue := a.pollDue(now)

	if rec, snv, ok := a.oldestPendingRetransmit(); ok {
		rec.dat++
		if rec.dat > a.cfg.MaxDAT && a.cfg.MaxDAT > 0 {
			metrics.RecordRLCPollTimeout(a.cfg.Label)
			a.initiateReset(now)
			return a.retransmitReset(now)
		}
		return a.sendRecord(snv, rec, pollDue || a.cfg.LastRetransmitPDUPoll, now)
	}

	if len(a.pending) > 0 && sn.Less(amSNS, a.vtS, a.vtms()) {
		payloadCap := a.cfg.PDUSizeBytes - 2 // 2-byte AM header
		before := len(a.pending)
		data, lis := buildSingleSDUFragment(&a.pending, &a.bufBytes, payloadCap, a.cfg.LIWidthBits)
		a.sduSincePoll += before - len(a.pending)
		hasLI := len(lis) > 0
		body := data
		if hasLI {
			body = append(encodeLIChain(lis, a.cfg.LIWidthBits), data...)
		}
		snv := a.vtS
		rec := &amTxRecord{payload: body, hasLI: hasLI}
		a.txBuf[snv] = rec
		a.vtS = sn.Add(amSNS, a.vtS, 1)
		isLast := len(a.pending) == 0
		poll := pollDue || (isLast && a.cfg.LastTransmitPDUPoll)
		return a.sendRecord(snv, rec, poll, now)
	}

	if pollDue && a.haveLastTx {
		if rec, ok := a.txBuf[a.lastTxSN]; ok {
			return a.sendRecord(a.lastTxSN, rec, true, now)
		}
	}

	return nil
}

func (a *AMEntity) oldestPendingRetransmit() (*amTxRecord, uint16, bool) {
	// A PDU is a retransmit candidate once a LIST SUFI in the peer's STATUS
	// has NACKed it (receiveStatusPDU puts it in retransmitQueue) and it is
	// still in txBuf. This core retransmits on explicit NACK only; of the
	// candidates, the one with the lowest SN relative to VT(A) is returned
	// and removed from the queue.
	var best uint16
	found := false
	for snv := range a.retransmitQueue {
		if _, ok := a.txBuf[snv]; !ok {
			continue
		}
		if !found || sn.Less(amSNS, snv, best) {
			best, found = snv, true
		}
	}
	if !found {
		return nil, 0, false
	}
	delete(a.retransmitQueue, best)
	return a.txBuf[best], best, true
}

func (a *AMEntity) sendRecord(snv uint16, rec *amTxRecord, poll bool, now time.Time) []byte {
	hdr := encodeAMDataHeader(amDataHeader{SN: snv, Poll: poll, E: rec.hasLI})
	out := append(append([]byte(nil), hdr...), rec.payload...)
	a.lastTxSN = snv
	a.haveLastTx = true
	a.pduSincePoll++
	if poll {
		a.sduSincePoll = 0
		a.pduSincePoll = 0
		a.pollProhibitUntil = now.Add(a.cfg.TimerPollProhibit)
		a.pollTimerDeadline = now.Add(a.cfg.TimerPoll)
	}
	return out
}

func (a *AMEntity) pollDue(now time.Time) bool {
	if now.Before(a.pollProhibitUntil) {
		return false
	}
	if a.cfg.PollPDUs > 0 && a.pduSincePoll >= a.cfg.PollPDUs {
		return true
	}
	if a.cfg.PollSDUs > 0 && a.sduSincePoll >= a.cfg.PollSDUs {
		return true
	}
	if a.haveLastTx && a.cfg.TimerPoll > 0 && !a.pollTimerDeadline.IsZero() && !now.Before(a.pollTimerDeadline) {
		return a.vtA != a.vtS // unacknowledged PDUs remain
	}
	return false
}
