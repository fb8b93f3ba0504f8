package rrc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/umts-radio-core/internal/chconfig"
	"github.com/your-org/umts-radio-core/internal/config"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/sgsnclient"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.uber.org/zap"
)

type capturedCCCH struct {
	mu  sync.Mutex
	msg [][]byte
}

func (c *capturedCCCH) recv(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = append(c.msg, b)
}

func (c *capturedCCCH) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msg) == 0 {
		return nil
	}
	return c.msg[len(c.msg)-1]
}

type capturedDCCH struct {
	mu  sync.Mutex
	msg [][]byte
}

func (c *capturedDCCH) recv(urnti uint32, rbID int, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = append(c.msg, b)
}

func newTestController(t *testing.T) (*Controller, *ue.Table, *capturedCCCH, *capturedDCCH) {
	t.Helper()
	ues := ue.NewTable(1)
	chreg := chconfig.NewRegistry(false)
	sgsn := sgsnclient.NewSimulated(zap.NewNop())
	scheduler := mac.NewScheduler(10*time.Millisecond, func(int, []byte) {}, zap.NewNop())
	macC := mac.NewMacC(0, []int{1})

	ccch := &capturedCCCH{}
	dcch := &capturedDCCH{}

	timers := config.Default().UMTS.Timers
	c := NewController(ues, chreg, sgsn, scheduler, macC, timers, ccch.recv, dcch.recv, zap.NewNop())
	return c, ues, ccch, dcch
}

func TestConnectionRequestAllocatesURNTIAndOpensTransaction(t *testing.T) {
	c, ues, ccch, _ := newTestController(t)
	now := time.Unix(0, 0)

	c.HandleConnectionRequest(RRCConnectionRequest{UeID: AsnUeId{IMSI: "001010000000001"}}, now)

	require.Equal(t, 1, ues.Count())
	u, ok := ues.FindByURNTI(0x00100001)
	require.True(t, ok)
	assert.NotNil(t, ccch.last())
	_, hasTx := u.Transaction(0)
	assert.True(t, hasTx)
}

func TestDuplicateConnectionRequestReusesUE(t *testing.T) {
	c, ues, _, _ := newTestController(t)
	now := time.Unix(0, 0)

	c.HandleConnectionRequest(RRCConnectionRequest{UeID: AsnUeId{IMSI: "001010000000001"}}, now)
	c.HandleConnectionRequest(RRCConnectionRequest{UeID: AsnUeId{IMSI: "001010000000001"}}, now)

	assert.Equal(t, 1, ues.Count())
}

func TestAllocateRabForPdpReachesCellDCHAfterSetupComplete(t *testing.T) {
	c, ues, _, dcch := newTestController(t)
	now := time.Unix(0, 0)

	c.HandleConnectionRequest(RRCConnectionRequest{UeID: AsnUeId{IMSI: "001010000000001"}}, now)
	u, _ := ues.FindByURNTI(0x00100001)
	u.SetState(ue.CellFACH)

	c.AllocateRabForPdp(u, 5, 16000, now)
	assert.NotNil(t, dcch.last())

	rab, ok := u.Rab(5)
	require.True(t, ok)
	assert.Equal(t, ue.RabPending, rab.Status)
	assert.Equal(t, uint64(128_000), rab.UplinkBps)

	tx := findTransactionByKind(t, u, "RadioBearerSetup")

	c.HandleRadioBearerSetupComplete(u, RadioBearerSetupComplete{TransactionID: tx.ID})

	assert.Equal(t, ue.CellDCH, u.State())
	rab, ok = u.Rab(5)
	require.True(t, ok)
	assert.Equal(t, ue.RabAllocated, rab.Status)
}

func TestAllocateRabForPdpIsIdempotentAtController(t *testing.T) {
	c, ues, _, _ := newTestController(t)
	now := time.Unix(0, 0)

	c.HandleConnectionRequest(RRCConnectionRequest{UeID: AsnUeId{IMSI: "001010000000001"}}, now)
	u, _ := ues.FindByURNTI(0x00100001)

	c.AllocateRabForPdp(u, 5, 16000, now)
	tx1 := findTransactionByKind(t, u, "RadioBearerSetup")
	c.HandleRadioBearerSetupComplete(u, RadioBearerSetupComplete{TransactionID: tx1.ID})

	before := rab5Status(u)
	c.AllocateRabForPdp(u, 5, 16000, now)
	assert.Equal(t, before, rab5Status(u))
}

func rab5Status(u *ue.UE) ue.RabStatus {
	r, _ := u.Rab(5)
	return r.Status
}

func findTransactionByKind(t *testing.T, u *ue.UE, kind string) *ue.Transaction {
	t.Helper()
	for id := uint8(0); id < 4; id++ {
		if tx, ok := u.Transaction(id); ok && tx.Kind == kind {
			return tx
		}
	}
	t.Fatalf("no open transaction of kind %q", kind)
	return nil
}

func TestSignallingConnectionReleaseEmitsRelease(t *testing.T) {
	c, ues, _, dcch := newTestController(t)
	now := time.Unix(0, 0)
	c.HandleConnectionRequest(RRCConnectionRequest{UeID: AsnUeId{IMSI: "001010000000001"}}, now)
	u, _ := ues.FindByURNTI(0x00100001)

	c.HandleSignallingConnectionReleaseIndication(u)
	assert.NotNil(t, dcch.last())
}
