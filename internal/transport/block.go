// Package transport implements the PHY-boundary carrier types: a single
// Transport Block, a Transport Block Set, and the Transport Format /
// Transport Format Set / Combination (Set) model used to select one at
// each TTI. See spec.md section 4.1 and section 3.
package transport

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when a block's bit length does not match the
// Transport Format the caller says it belongs to.
var ErrInvalidSize = errors.New("transport: invalid block size")

// Block is a fixed-size bit-vector exchanged with PHY at a TTI boundary.
// Bits are stored byte-packed, most-significant-bit first; BitLen may be
// smaller than len(Bits)*8 for a size that is not byte-aligned.
type Block struct {
	Bits   []byte
	BitLen int

	frameNumber uint32
	hasFrame    bool
	tag         string
}

// NewBlock constructs a zeroed block of the given bit length.
func NewBlock(bitLen int) Block {
	return Block{Bits: make([]byte, (bitLen+7)/8), BitLen: bitLen}
}

// NewBlockFromBits wraps an existing byte slice as a block.
func NewBlockFromBits(bits []byte, bitLen int) Block {
	return Block{Bits: bits, BitLen: bitLen}
}

// SetSchedule stamps the block with the radio-frame number it is scheduled
// for.
func (b *Block) SetSchedule(frameNumber uint32) {
	b.frameNumber = frameNumber
	b.hasFrame = true
}

// Time returns the scheduled frame number, if any.
func (b Block) Time() (uint32, bool) {
	return b.frameNumber, b.hasFrame
}

// Tag sets a log-only descriptive label.
func (b *Block) Tag(tag string) { b.tag = tag }

// String implements fmt.Stringer for log lines.
func (b Block) String() string {
	if b.tag != "" {
		return fmt.Sprintf("tb(%s,%db)", b.tag, b.BitLen)
	}
	return fmt.Sprintf("tb(%db)", b.BitLen)
}

// BlockSet carries one Block per TrCh for one TFC selection, plus the
// compact TFCI that identifies which combination was chosen.
type BlockSet struct {
	TFCI   uint16
	Blocks []Block
}

// Iter yields the contained blocks in TrCh order.
func (s BlockSet) Iter() []Block { return s.Blocks }

// Validate checks every block in the set against the TF the given TFC
// selects for each TrCh, returning ErrInvalidSize on the first mismatch.
func (s BlockSet) Validate(tfc TransportFormatCombination, tfSets []TransportFormatSet) error {
	if len(s.Blocks) != len(tfc.TFIndex) {
		return fmt.Errorf("%w: block count %d != trch count %d", ErrInvalidSize, len(s.Blocks), len(tfc.TFIndex))
	}
	for i, tfIdx := range tfc.TFIndex {
		tf := tfSets[i].Formats[tfIdx]
		want := tf.BlockCount * tf.BlockSizeBits
		got := s.Blocks[i].BitLen
		if tf.BlockCount > 0 && got != want {
			return fmt.Errorf("%w: trch %d wants %d bits, got %d", ErrInvalidSize, i, want, got)
		}
	}
	return nil
}
