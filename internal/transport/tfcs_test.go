package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCTFCRoundTrip(t *testing.T) {
	s := TransportFormatCombinationSet{TrChFormatCounts: []int{3, 4, 2}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 2; k++ {
				tuple := []int{i, j, k}
				ctfc := s.ComputeCTFC(tuple)
				assert.Equal(t, tuple, s.DecodeCTFC(ctfc))
			}
		}
	}
}

func TestBlockSetValidate(t *testing.T) {
	tfSets := []TransportFormatSet{
		{Formats: []TransportFormat{{BlockSizeBits: 0, BlockCount: 0}, {BlockSizeBits: 336, BlockCount: 1}}},
	}
	tfc := TransportFormatCombination{TFIndex: []int{1}}
	bs := BlockSet{Blocks: []Block{NewBlock(336)}}
	assert.NoError(t, bs.Validate(tfc, tfSets))

	bad := BlockSet{Blocks: []Block{NewBlock(100)}}
	assert.ErrorIs(t, bad.Validate(tfc, tfSets), ErrInvalidSize)
}
