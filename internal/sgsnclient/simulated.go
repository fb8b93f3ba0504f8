package sgsnclient

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// pdpContext tracks one UE's allocated RABs under the simulated SGSN.
type pdpContext struct {
	urnti    uint32
	rabs     map[int]RabResult
	kc       []byte
	received [][]byte
}

// Simulated is an in-memory SGSN/GGSN stand-in for tests and standalone
// runs, the same role SimulatedDataPlane plays for the UPF elsewhere in
// this stack: a real interface implementation with no external network
// dependency.
type Simulated struct {
	mu       sync.RWMutex
	contexts map[uint32]*pdpContext
	logger   *zap.Logger

	// bandwidthLadder is the smallest-node-first bandwidth tree this
	// simulation picks from (spec.md section 4.4, "pick the smallest DCH
	// channel-tree node whose bandwidth >= requirement").
	bandwidthLadder []uint64
}

func NewSimulated(logger *zap.Logger) *Simulated {
	return &Simulated{
		contexts: make(map[uint32]*pdpContext),
		logger:   logger,
		bandwidthLadder: []uint64{
			16_000, 32_000, 64_000, 128_000, 384_000,
		},
	}
}

func (s *Simulated) FindMs(ctx context.Context, urnti uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contexts[urnti]
	return ok, nil
}

func (s *Simulated) getOrCreate(urnti uint32) *pdpContext {
	c, ok := s.contexts[urnti]
	if !ok {
		c = &pdpContext{urnti: urnti, rabs: make(map[int]RabResult)}
		s.contexts[urnti] = c
	}
	return c
}

// AllocateRabForPdp is idempotent: re-requesting an already-allocated RB
// returns its existing status (spec.md section 4.4).
func (s *Simulated) AllocateRabForPdp(ctx context.Context, urnti uint32, rbID int, qosBytesPerSec int) (RabResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreate(urnti)
	if existing, ok := c.rabs[rbID]; ok {
		return existing, nil
	}

	requiredBps := uint64(qosBytesPerSec) * 8
	var chosen uint64
	for _, bw := range s.bandwidthLadder {
		if bw >= requiredBps {
			chosen = bw
			break
		}
	}
	if chosen == 0 {
		result := RabResult{Status: RabFailure, Cause: CauseInsufficientResources}
		c.rabs[rbID] = result
		return result, nil
	}

	result := RabResult{Status: RabAllocated, UplinkBps: chosen, DownlinkBps: chosen}
	c.rabs[rbID] = result
	s.logger.Info("simulated RAB allocated",
		zap.Uint32("urnti", urnti),
		zap.Int("rb_id", rbID),
		zap.Uint64("bps", chosen),
	)
	return result, nil
}

func (s *Simulated) StartIntegrityProtection(ctx context.Context, urnti uint32, kc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getOrCreate(urnti)
	c.kc = append([]byte(nil), kc...)
	return nil
}

func (s *Simulated) WriteHighSide(ctx context.Context, urnti uint32, rbID int, data []byte, descr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getOrCreate(urnti)
	c.received = append(c.received, append([]byte(nil), data...))
	s.logger.Debug("simulated high-side SDU received",
		zap.Uint32("urnti", urnti),
		zap.Int("rb_id", rbID),
		zap.String("descr", descr),
	)
	return nil
}

// Received returns every SDU written to the high side for a UE, for test
// assertions.
func (s *Simulated) Received(urnti uint32) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contexts[urnti]
	if !ok {
		return nil
	}
	return c.received
}
