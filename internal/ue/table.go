package ue

import (
	"sync"
	"time"
)

// Table is the global UE registry keyed by U-RNTI, with a secondary
// index by C-RNTI (for MAC uplink lookup) and by external identity, so a
// returning duplicate attach reuses the same U-RNTI (spec.md section 3:
// "if the same external identity returns, the previously assigned
// U-RNTI is reused"). Guarded by one mutex (spec.md section 5, "the
// global UE table is guarded by one mutex").
type Table struct {
	mu         sync.RWMutex
	byURNTI    map[uint32]*UE
	byCRNTI    map[uint16]*UE
	byExternal map[string]*UE

	srncID  uint16
	nextSRNTI uint32
}

// NewTable creates a registry for the given serving-RNC id (the high
// 12 bits of every U-RNTI this core allocates).
func NewTable(srncID uint16) *Table {
	return &Table{
		byURNTI:    make(map[uint32]*UE),
		byCRNTI:    make(map[uint16]*UE),
		byExternal: make(map[string]*UE),
		srncID:     srncID,
		nextSRNTI:  1,
	}
}

// allocateURNTI composes a fresh U-RNTI as (srnc 12 bits << 20) |
// (per-cell serial 20 bits), matching the worked example in spec.md
// section 8 scenario 1: srnc=1, srnti=1 => 0x00100001.
func (t *Table) allocateURNTI() uint32 {
	srnti := t.nextSRNTI
	t.nextSRNTI++
	return uint32(t.srncID&0xfff)<<20 | (srnti & 0xfffff)
}

// FindOrCreateByExternalID returns the existing UE for this external
// identity if one exists (duplicate-attach case), otherwise allocates a
// fresh U-RNTI/C-RNTI pair and registers a new UE.
func (t *Table) FindOrCreateByExternalID(externalID string, now time.Time) (*UE, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byExternal[externalID]; ok {
		return existing, true
	}

	urnti := t.allocateURNTI()
	u := New(urnti, externalID, now)
	t.byURNTI[urnti] = u
	t.byCRNTI[u.CRNTI] = u
	t.byExternal[externalID] = u
	return u, false
}

func (t *Table) FindByURNTI(urnti uint32) (*UE, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.byURNTI[urnti]
	return u, ok
}

func (t *Table) FindByCRNTI(crnti uint16) (*UE, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.byCRNTI[crnti]
	return u, ok
}

func (t *Table) Remove(urnti uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.byURNTI[urnti]
	if !ok {
		return
	}
	delete(t.byURNTI, urnti)
	delete(t.byCRNTI, u.CRNTI)
	delete(t.byExternal, u.ExternalID)
}

func (t *Table) All() []*UE {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*UE, 0, len(t.byURNTI))
	for _, u := range t.byURNTI {
		out = append(out, u)
	}
	return out
}

func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byURNTI)
}

func (t *Table) CountInState(s State) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, u := range t.byURNTI {
		if u.State() == s {
			n++
		}
	}
	return n
}
