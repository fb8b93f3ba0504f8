package mac

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DownlinkSink receives the transport blocks a TTI produced, keyed by
// TrCh id, for handoff to the PHY layer.
type DownlinkSink func(trchID int, tb []byte)

// Scheduler drives every registered MacEngine once per TTI from a single
// goroutine (spec.md section 5: MAC-c and MAC-d share one scheduling
// thread; there is no per-entity goroutine).
type Scheduler struct {
	mu      sync.RWMutex
	engines map[string]MacEngine

	tti      time.Duration
	sink     DownlinkSink
	logger   *zap.Logger
	tracer   trace.Tracer
	stopChan chan struct{}
}

func NewScheduler(tti time.Duration, sink DownlinkSink, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		engines:  make(map[string]MacEngine),
		tti:      tti,
		sink:     sink,
		logger:   logger,
		tracer:   otel.Tracer("mac-scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Register adds a MAC entity (MacC or a per-UE MacD) to the scheduling
// set under a stable key, e.g. "common" or the UE's U-RNTI string.
func (s *Scheduler) Register(key string, e MacEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[key] = e
}

func (s *Scheduler) Unregister(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, key)
}

// Run ticks every TTI until ctx is cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tti)
	defer ticker.Stop()

	s.logger.Info("MAC scheduler started", zap.Duration("tti", s.tti))
	for {
		select {
		case now := <-ticker.C:
			s.tick(now)
		case <-s.stopChan:
			s.logger.Info("MAC scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("MAC scheduler context done")
			return
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) tick(now time.Time) {
	_, span := s.tracer.Start(context.Background(), "Scheduler.tick")
	defer span.End()

	s.mu.RLock()
	keys := make([]string, 0, len(s.engines))
	snapshot := make(map[string]MacEngine, len(s.engines))
	for k, e := range s.engines {
		keys = append(keys, k)
		snapshot[k] = e
	}
	s.mu.RUnlock()

	blocks := 0
	for _, k := range keys {
		out := snapshot[k].Service(now)
		for trchID, tb := range out {
			if s.sink != nil {
				s.sink(trchID, tb)
			}
			blocks++
		}
	}

	span.SetAttributes(
		attribute.Int("engines", len(keys)),
		attribute.Int("blocks_sent", blocks),
	)
}

// WriteLow routes one uplink transport block to the engine owning it.
func (s *Scheduler) WriteLow(key string, now time.Time, trchID int, tb []byte) {
	s.mu.RLock()
	e := s.engines[key]
	s.mu.RUnlock()
	if e == nil {
		return
	}
	e.WriteLow(now, trchID, tb)
}
