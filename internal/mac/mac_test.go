package mac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/umts-radio-core/internal/transport"
)

func TestUplinkCCCHHeaderRoundTrip(t *testing.T) {
	b := EncodeUplinkCCCH()
	b = append(b, []byte("rrc-payload")...)
	dec, rest, ok := DecodeUplink(b)
	require.True(t, ok)
	assert.True(t, dec.CCCH)
	assert.Equal(t, []byte("rrc-payload"), rest)
}

func TestUplinkDCCHHeaderRoundTrip(t *testing.T) {
	h := UplinkDCCHHeader{UEIDType: UEIDTypeCRNTI, UEID: 0x1234, CT: 2}
	b := EncodeUplinkDCCH(h)
	b = append(b, []byte("x")...)
	dec, rest, ok := DecodeUplink(b)
	require.True(t, ok)
	assert.False(t, dec.CCCH)
	assert.Equal(t, h, dec.DCCH)
	assert.Equal(t, []byte("x"), rest)
}

func TestDownlinkHeaderRoundTrip(t *testing.T) {
	ccch := EncodeDownlinkCCCH()
	dec, rest, ok := DecodeDownlink(append(ccch, []byte("abc")...))
	require.True(t, ok)
	assert.True(t, dec.CCCH)
	assert.Equal(t, []byte("abc"), rest)

	h := DownlinkDCCHHeader{CRNTI: 0xabcd, CT: 5}
	dcch := EncodeDownlinkDCCH(h)
	dec2, rest2, ok := DecodeDownlink(append(dcch, []byte("y")...))
	require.True(t, ok)
	assert.False(t, dec2.CCCH)
	assert.Equal(t, h, dec2.DCCH)
	assert.Equal(t, []byte("y"), rest2)
}

func TestDedicatedHeaderRoundTrip(t *testing.T) {
	b := EncodeDedicated(true, 3)
	b = append(b, []byte("z")...)
	ct, rest, ok := DecodeDedicated(true, b)
	require.True(t, ok)
	assert.Equal(t, uint8(3), ct)
	assert.Equal(t, []byte("z"), rest)

	b2 := EncodeDedicated(false, 0)
	assert.Nil(t, b2)
}

func TestSelectTFCPrefersMoreBytesWithinCapacity(t *testing.T) {
	tfSets := []transport.TransportFormatSet{
		{Formats: []transport.TransportFormat{{BlockCount: 0, BlockSizeBits: 0}, {BlockCount: 1, BlockSizeBits: 336}, {BlockCount: 2, BlockSizeBits: 336}}},
	}
	tfcs := transport.TransportFormatCombinationSet{TrChFormatCounts: []int{3}}
	for i := 0; i < 3; i++ {
		tfcs.Combinations = append(tfcs.Combinations, tfcs.NewCombination([]int{i}))
	}

	tfc, ok := SelectTFC(tfcs, tfSets, []int{2})
	require.True(t, ok)
	assert.Equal(t, 2, tfc.TFIndex[0])

	tfc, ok = SelectTFC(tfcs, tfSets, []int{1})
	require.True(t, ok)
	assert.Equal(t, 1, tfc.TFIndex[0])

	_, ok = SelectTFC(tfcs, tfSets, []int{-1})
	assert.False(t, ok)
}

func TestMacCCCCHDrainsBeforeDCCH(t *testing.T) {
	m := NewMacC(0, []int{1, 2})
	called := false
	rb := &RadioBearer{RBID: 1, Pull: func(now time.Time) []byte { called = true; return []byte("dcch") }}
	m.RegisterCommonBearer(7, rb)
	m.QueueDownlinkCCCH([]byte("ccch"))

	out := m.Service(time.Now())
	require.Len(t, out, 1)
	assert.False(t, called)

	out = m.Service(time.Now())
	require.Len(t, out, 1)
	assert.True(t, called)
}

func TestMacCUplinkDemux(t *testing.T) {
	m := NewMacC(0, nil)
	var gotCCCH []byte
	var gotDCCH []byte
	m.OnUplinkCCCH = func(pdu []byte) { gotCCCH = pdu }
	m.OnUplinkDCCH = func(idType UEIDType, ueid uint32, ct uint8, pdu []byte) { gotDCCH = pdu }

	m.WriteLow(time.Now(), 0, append(EncodeUplinkCCCH(), []byte("a")...))
	assert.Equal(t, []byte("a"), gotCCCH)

	h := UplinkDCCHHeader{UEIDType: UEIDTypeURNTI, UEID: 99, CT: 1}
	m.WriteLow(time.Now(), 0, append(EncodeUplinkDCCH(h), []byte("b")...))
	assert.Equal(t, []byte("b"), gotDCCH)
}

func TestMacDBindAndServiceSingleRB(t *testing.T) {
	m := NewMacD(42)
	var pushed []byte
	rb := &RadioBearer{
		RBID: 5,
		Pull: func(now time.Time) []byte { return []byte("data") },
		Push: func(now time.Time, pdu []byte) { pushed = pdu },
	}
	m.BindBearer(rb, 10, false)

	out := m.Service(time.Now())
	require.Contains(t, out, 10)
	assert.Equal(t, []byte("data"), out[10])

	m.WriteLow(time.Now(), 10, []byte("uplink"))
	assert.Equal(t, []byte("uplink"), pushed)
}

func TestMacDMultiplexedUsesCTField(t *testing.T) {
	m := NewMacD(1)
	rbA := &RadioBearer{RBID: 5, Pull: func(now time.Time) []byte { return []byte("A") }}
	rbB := &RadioBearer{RBID: 6, Pull: func(now time.Time) []byte { return nil }}
	m.BindBearer(rbA, 10, true)
	m.BindBearer(rbB, 10, true)

	out := m.Service(time.Now())
	require.Contains(t, out, 10)
	ct, rest, ok := DecodeDedicated(true, out[10])
	require.True(t, ok)
	assert.Equal(t, uint8(4), ct) // RB 5 -> CT 4
	assert.Equal(t, []byte("A"), rest)
}
