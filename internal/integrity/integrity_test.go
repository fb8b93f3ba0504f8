package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountMonotonicUntilStop(t *testing.T) {
	c := NewContext()
	c.Start([]byte("k"), 0x1234)

	var last uint32
	for i := 0; i < 20; i++ {
		before := c.Count(2)
		_, count := c.Protect(2, []byte("msg"), 1)
		assert.Equal(t, before, count)
		if i > 0 {
			require.Greater(t, count, last)
		}
		last = count
	}

	c.Stop()
	assert.Equal(t, uint32(0), c.Count(2))
}

func TestVerifyInboundRejectsTamperedMessage(t *testing.T) {
	c := NewContext()
	c.Start([]byte("k"), 1)

	macI, _ := c.Protect(3, []byte("hello"), 0)
	assert.True(t, c.VerifyInbound(3, []byte("hello"), 0, macI))

	c2 := NewContext()
	c2.Start([]byte("k"), 1)
	assert.False(t, c2.VerifyInbound(3, []byte("tampered"), 0, macI))
}

func TestRRCSNWrapAdvancesHFN(t *testing.T) {
	c := NewContext()
	c.Start([]byte("k"), 0)
	for i := 0; i < 16; i++ {
		c.Protect(1, []byte("x"), 1)
	}
	b := c.bearer(1)
	assert.Equal(t, uint32(1), b.hfn)
	assert.Equal(t, uint8(0), b.rrcSN)
}
