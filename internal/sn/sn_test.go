package sn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeltaAddRoundTrip(t *testing.T) {
	for _, sns := range []int{128, 4096} {
		for a := 0; a < sns; a += sns / 16 {
			for k := -sns/2 + 1; k <= sns/2; k++ {
				added := Add(sns, uint16(a), k)
				assert.Equal(t, k, Delta(sns, added, uint16(a)))
			}
		}
	}
}

func TestDeltaRange(t *testing.T) {
	sns := 128
	for a := 0; a < sns; a++ {
		for b := 0; b < sns; b++ {
			d := Delta(sns, uint16(a), uint16(b))
			assert.True(t, d > -sns/2 && d <= sns/2)
		}
	}
}

func TestInWindow(t *testing.T) {
	assert.True(t, InWindow(4096, 10, 5, 10))
	assert.False(t, InWindow(4096, 20, 5, 10))
	assert.True(t, InWindow(4096, 0, 4090, 10))
}
