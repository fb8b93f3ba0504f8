// Package ue holds per-UE state: RNTIs, radio-bearer tables for the
// CELL_FACH and CELL_DCH configurations, the transaction ring, the RAB
// status table, and the registry keyed by those identities (spec.md
// section 3, Data Model).
package ue

import (
	"sync"
	"time"

	"github.com/your-org/umts-radio-core/internal/integrity"
	"github.com/your-org/umts-radio-core/internal/mac"
)

// State is a UE's RRC connection state.
type State int

const (
	IdleMode State = iota
	CellFACH
	CellDCH
	CellPCH
	URAPCH
)

func (s State) String() string {
	switch s {
	case IdleMode:
		return "IdleMode"
	case CellFACH:
		return "CELL_FACH"
	case CellDCH:
		return "CELL_DCH"
	case CellPCH:
		return "CELL_PCH"
	case URAPCH:
		return "URA_PCH"
	default:
		return "?"
	}
}

// Radio bearer id ranges (spec.md section 3, "Radio Bearer").
const (
	RBCCCH    = 0
	RBSRBFrom = 1
	RBSRBTo   = 4
	RBDataFrom = 5
	RBDataTo   = 15
)

// RabStatus tracks a data RB's allocation lifecycle under the SGSN
// interface (spec.md section 4.4).
type RabStatus int

const (
	RabIdle RabStatus = iota
	RabPending
	RabAllocated
	RabDeactPending
	RabFailure
)

// RabInfo is one entry of a UE's per-RAB status table.
type RabInfo struct {
	RBID         int
	Status       RabStatus
	UplinkBps    uint64
	DownlinkBps  uint64
}

// Transaction is one slot of a UE's 4-entry transaction ring (spec.md
// section 3, invariant v).
type Transaction struct {
	ID       uint8 // 2-bit transaction id
	Kind     string
	RBMask   []int
	NextState State
	Opened   time.Time
	Deadline time.Time
}

const transactionRingSize = 4

// UE is one attached (or idle-but-known) user equipment.
type UE struct {
	URNTI      uint32
	CRNTI      uint16
	ExternalID string // IMSI / P-TMSI+RAI / IMEI used for duplicate-attach detection

	mu    sync.Mutex
	state State

	// FachBearers and DchBearers are this UE's radio bearers under the
	// CELL_FACH-backed and CELL_DCH-backed master configurations
	// respectively, keyed by RB id. Re-entering a state reuses the same
	// *mac.RadioBearer (and underlying RLC entity) when mode and PDU size
	// are unchanged, preserving buffered PDUs (spec.md section 3,
	// invariant ii).
	FachBearers map[int]*mac.RadioBearer
	DchBearers  map[int]*mac.RadioBearer

	// MACD is attached only while State == CellDCH (spec.md section 3,
	// invariant i).
	MACD       *mac.MacD
	DCHHandle  string

	Integrity *integrity.Context

	transactions [transactionRingSize]*Transaction
	nextTxSlot   int

	Rabs map[int]*RabInfo

	Capability []byte

	CreatedAt      time.Time
	LastActivityAt time.Time
}

func New(urnti uint32, externalID string, now time.Time) *UE {
	return &UE{
		URNTI:          urnti,
		CRNTI:          uint16(urnti),
		ExternalID:     externalID,
		state:          IdleMode,
		FachBearers:    make(map[int]*mac.RadioBearer),
		DchBearers:     make(map[int]*mac.RadioBearer),
		Integrity:      integrity.NewContext(),
		Rabs:           make(map[int]*RabInfo),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

func (u *UE) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *UE) SetState(s State) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = s
}

func (u *UE) Touch(now time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.LastActivityAt = now
}

func (u *UE) IdleSince(now time.Time) time.Duration {
	u.mu.Lock()
	defer u.mu.Unlock()
	return now.Sub(u.LastActivityAt)
}

// OpenTransaction stores a new transaction in the next ring slot,
// overwriting the oldest one if all four are full (spec.md section 3,
// invariant v).
func (u *UE) OpenTransaction(kind string, rbMask []int, next State, now, deadline time.Time) *Transaction {
	u.mu.Lock()
	defer u.mu.Unlock()
	tx := &Transaction{
		ID:        uint8(u.nextTxSlot),
		Kind:      kind,
		RBMask:    rbMask,
		NextState: next,
		Opened:    now,
		Deadline:  deadline,
	}
	u.transactions[u.nextTxSlot] = tx
	u.nextTxSlot = (u.nextTxSlot + 1) % transactionRingSize
	return tx
}

// Transaction returns the open transaction with the given id, if any slot
// still holds it.
func (u *UE) Transaction(id uint8) (*Transaction, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, tx := range u.transactions {
		if tx != nil && tx.ID == id {
			return tx, true
		}
	}
	return nil, false
}

func (u *UE) CloseTransaction(id uint8) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, tx := range u.transactions {
		if tx != nil && tx.ID == id {
			u.transactions[i] = nil
			return
		}
	}
}

// ExpiredTransactions returns open transactions past their deadline, for
// the reaper to roll back (spec.md section 5, "Cancellation and
// timeouts").
func (u *UE) ExpiredTransactions(now time.Time) []*Transaction {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []*Transaction
	for _, tx := range u.transactions {
		if tx != nil && now.After(tx.Deadline) {
			out = append(out, tx)
		}
	}
	return out
}

func (u *UE) SetRab(info *RabInfo) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Rabs[info.RBID] = info
}

func (u *UE) Rab(rbID int) (*RabInfo, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	r, ok := u.Rabs[rbID]
	return r, ok
}

func (u *UE) DeleteRab(rbID int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.Rabs, rbID)
}
