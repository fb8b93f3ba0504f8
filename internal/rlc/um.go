package rlc

import (
	"sync"

	"github.com/your-org/umts-radio-core/internal/sn"
	"go.uber.org/zap"
)

const umSNS = 128

// umPendingSDU is one SDU queued for transmission, partially or fully
// consumed into PDUs already built.
type umPendingSDU struct {
	bytes  []byte
	offset int
}

// UMTransmitter concatenates SDUs into fixed-size PDUs, fragmenting across
// PDU boundaries as needed and inserting length-indicator fields at SDU
// boundaries (spec.md section 4.2, "UM (Unacknowledged Mode)").
type UMTransmitter struct {
	mu      sync.Mutex
	cfg     Config
	nextSN  uint16
	pending []*umPendingSDU
	bufBytes int
	log     *zap.Logger
}

func NewUMTransmitter(cfg Config, log *zap.Logger) *UMTransmitter {
	return &UMTransmitter{cfg: cfg, log: log}
}

// WriteSDU enqueues an SDU, applying the configured overflow policy if the
// transmission buffer is full (spec.md section 4.2, "Overflow policy").
func (t *UMTransmitter) WriteSDU(sdu SDU) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.TransmissionBufferBytes > 0 && t.bufBytes+len(sdu.Bytes) > t.cfg.TransmissionBufferBytes {
		if len(t.pending) > 0 && t.pending[0].offset == 0 {
			dropped := t.pending[0]
			t.pending = t.pending[1:]
			t.bufBytes -= len(dropped.bytes)
			if t.log != nil {
				t.log.Warn("UM transmit buffer overflow, dropping oldest SDU", zap.Int("bytes", len(dropped.bytes)))
			}
		}
	}
	t.pending = append(t.pending, &umPendingSDU{bytes: sdu.Bytes})
	t.bufBytes += len(sdu.Bytes)
}

// Pull builds and returns one UM PDU, or nil if there is nothing to send.
func (t *UMTransmitter) Pull() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return nil
	}

	payloadCap := t.cfg.PDUSizeBytes - 1 // header byte
	payload, lis := buildFragmentedPayload(&t.pending, &t.bufBytes, payloadCap, t.cfg.LIWidthBits)

	e := byte(0)
	if len(lis) > 0 {
		e = 1
	}
	header := byte(t.nextSN<<1) | e

	out := []byte{header}
	out = append(out, encodeLIChain(lis, t.cfg.LIWidthBits)...)
	out = append(out, payload...)

	t.nextSN = sn.Add(umSNS, t.nextSN, 1)
	return out
}

func (t *UMTransmitter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
	t.bufBytes = 0
	t.nextSN = 0
}

// UMReceiver reassembles PDUs into SDUs, delivering each in order. A
// forward SN jump of more than one discards any partially assembled SDU
// until the start of the next SDU is proven.
type UMReceiver struct {
	mu       sync.Mutex
	cfg      Config
	expectSN uint16
	have     bool
	partial  []byte
	synced   bool
	deliver  func(SDU)
	log      *zap.Logger
}

func NewUMReceiver(cfg Config, deliver func(SDU), log *zap.Logger) *UMReceiver {
	return &UMReceiver{cfg: cfg, deliver: deliver, log: log, synced: true}
}

// Receive processes one inbound UM PDU.
func (r *UMReceiver) Receive(pdu []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(pdu) < 1 {
		return
	}
	header := pdu[0]
	snv := uint16(header >> 1)
	e := header&1 == 1
	rest := pdu[1:]

	var lis []LI
	if e {
		decoded, consumed := decodeLIChain(rest, r.cfg.LIWidthBits)
		lis = decoded
		rest = rest[consumed:]
	}

	if r.have {
		jump := sn.Delta(umSNS, snv, r.expectSN)
		if jump != 0 {
			if r.log != nil {
				r.log.Error("UM sequence number jump, discarding partial SDU", zap.Int("jump", jump))
			}
			r.partial = nil
			r.synced = false
		}
	}
	r.expectSN = sn.Add(umSNS, snv, 1)
	r.have = true

	r.reassemble(rest, lis)
}

func (r *UMReceiver) reassemble(payload []byte, lis []LI) {
	r.partial, r.synced = reassembleLIChain(payload, lis, r.partial, r.synced, r.cfg.LIWidthBits, r.emit)
}

func (r *UMReceiver) emit(b []byte) {
	if len(b) == 0 || r.deliver == nil {
		return
	}
	cp := append([]byte(nil), b...)
	r.deliver(SDU{Bytes: cp})
}

func (r *UMReceiver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.have = false
	r.partial = nil
	r.synced = false
}
