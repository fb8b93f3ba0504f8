package transport

// CodingType enumerates the semi-static FEC choice shared by every TF on a
// TrCh (spec.md section 3).
type CodingType int

const (
	CodingConvolutionalHalf CodingType = iota
	CodingConvolutionalThird
	CodingTurbo
)

// TTIMillis is the semi-static TTI length, one of {10,20,40,80} ms.
type TTIMillis int

// TrChKind distinguishes the three transport-channel flavours in play.
type TrChKind int

const (
	TrChRACH TrChKind = iota
	TrChFACH
	TrChDCH
)

// TransportFormat fixes a transport-block size and a block count for one
// TTI opportunity on a TrCh.
type TransportFormat struct {
	BlockSizeBits int
	BlockCount    int
}

// TransportFormatSet is the list of TFs a TrCh may use, plus the
// semi-static parameters shared across all of them.
type TransportFormatSet struct {
	Formats  []TransportFormat
	TTI      TTIMillis
	Coding   CodingType
	CRCSize  int // one of {0,8,12,16,24}
	RateMatchAttr int
}

// TransportChannel describes one TrCh bound between MAC and PHY.
type TransportChannel struct {
	ID          int
	Kind        TrChKind
	TFS         TransportFormatSet
	Multiplexed bool // MAC multiplexes several logical channels on this TrCh
	BoundRB     int  // valid only when !Multiplexed
}

// TransportFormatCombination selects one TF index per TrCh in the
// simultaneous TrCh set, identified on-air by a compact CTFC integer.
type TransportFormatCombination struct {
	TFIndex []int
	CTFC    int
}

// TransportFormatCombinationSet is the list of TFCs configured for a cell's
// simultaneous TrCh set.
type TransportFormatCombinationSet struct {
	TrChFormatCounts []int // L_j = TF count of TrCh j, in TrCh order
	Combinations     []TransportFormatCombination
}

// weights returns P_i = product of L_j for j<i, used by both ComputeCTFC
// and DecodeCTFC.
func (s TransportFormatCombinationSet) weights() []int {
	p := make([]int, len(s.TrChFormatCounts))
	acc := 1
	for i, l := range s.TrChFormatCounts {
		p[i] = acc
		acc *= l
	}
	return p
}

// ComputeCTFC computes CTFC = sum_i tfIndex_i * P_i for a tuple of TF
// indices, one per TrCh.
func (s TransportFormatCombinationSet) ComputeCTFC(tfIndex []int) int {
	p := s.weights()
	ctfc := 0
	for i, idx := range tfIndex {
		ctfc += idx * p[i]
	}
	return ctfc
}

// DecodeCTFC inverts ComputeCTFC, recovering the per-TrCh TF index tuple.
func (s TransportFormatCombinationSet) DecodeCTFC(ctfc int) []int {
	p := s.weights()
	out := make([]int, len(s.TrChFormatCounts))
	for i := len(s.TrChFormatCounts) - 1; i >= 0; i-- {
		out[i] = ctfc / p[i]
		ctfc -= out[i] * p[i]
	}
	return out
}

// NewCombination builds a TFC from a TF-index tuple, computing its CTFC.
func (s *TransportFormatCombinationSet) NewCombination(tfIndex []int) TransportFormatCombination {
	return TransportFormatCombination{TFIndex: append([]int(nil), tfIndex...), CTFC: s.ComputeCTFC(tfIndex)}
}
