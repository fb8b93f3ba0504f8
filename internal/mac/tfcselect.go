package mac

import "github.com/your-org/umts-radio-core/internal/transport"

// SelectTFC implements spec.md section 4.3's downlink TFC selection:
// among combinations where every TrCh's block count is covered by the
// data actually ready, pick the one with the largest total byte count,
// ties broken by higher TFC index (spec.md section 8, "TFC selection
// optimality").
func SelectTFC(tfcs transport.TransportFormatCombinationSet, tfSets []transport.TransportFormatSet, blocksReady []int) (transport.TransportFormatCombination, bool) {
	bestIdx := -1
	bestBytes := -1

	for i, tfc := range tfcs.Combinations {
		matches := true
		totalBytes := 0
		for trch, tfIdx := range tfc.TFIndex {
			tf := tfSets[trch].Formats[tfIdx]
			if tf.BlockCount > blocksReady[trch] {
				matches = false
				break
			}
			totalBytes += tf.BlockCount * tf.BlockSizeBits / 8
		}
		if !matches {
			continue
		}
		if totalBytes > bestBytes || (totalBytes == bestBytes && i > bestIdx) {
			bestBytes = totalBytes
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return transport.TransportFormatCombination{}, false
	}
	return tfcs.Combinations[bestIdx], true
}
