package chconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsArePreloaded(t *testing.T) {
	r := NewRegistry(false)
	for _, name := range []string{NameIdleCCCH, NameCellFACH, NameCellDCHPacket, NameCellDCHVoice} {
		c, err := r.Get(name)
		require.NoError(t, err)
		assert.NotEmpty(t, c.RadioBearers)
	}
}

func TestGetUnknownNameErrors(t *testing.T) {
	r := NewRegistry(false)
	_, err := r.Get("nonexistent")
	assert.Error(t, err)
}

func TestPutOverridesDefault(t *testing.T) {
	r := NewRegistry(false)
	r.Put(&MasterConfig{Name: NameCellFACH, RadioBearers: []RBConfig{{RBID: 1}}})
	c, err := r.Get(NameCellFACH)
	require.NoError(t, err)
	assert.Len(t, c.RadioBearers, 1)
}
