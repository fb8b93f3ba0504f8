package rlc

// SUFI (Super-Field) elements carried inside an AM STATUS PDU, spec.md
// section 4.2. This core only ever emits LIST and ACK; the rest are
// decoded (some acted on, most ignored) because a compliant peer may send
// them.
type SufiType int

const (
	SufiList SufiType = iota
	SufiAck
	SufiWindow
	SufiBitmap
	SufiRlist
	SufiPoll
	SufiMrw
	SufiMrwAck
)

// MissingRun is one (sn, length) negative-acknowledgement run inside a
// LIST SUFI.
type MissingRun struct {
	SN     uint16
	Length int
}

// Sufi is a decoded status element. Only the fields relevant to its Type
// are populated.
type Sufi struct {
	Type     SufiType
	Runs     []MissingRun // SufiList
	AckSN    uint16       // SufiAck
	WindowSz int          // SufiWindow
}

// encodeListAck builds the LIST+ACK pair this core emits in a STATUS PDU:
// LIST first (one entry per missing run), then ACK with the advancing
// lsn. A real encoder would also bound the number of runs per PDU and
// continue across multiple STATUS PDUs in the [VR(R), VR(H)) range; the
// chunking is done by the AM entity's status-builder, not here.
func encodeListAck(runs []MissingRun, ackSN uint16) []Sufi {
	out := make([]Sufi, 0, 2)
	if len(runs) > 0 {
		out = append(out, Sufi{Type: SufiList, Runs: runs})
	}
	out = append(out, Sufi{Type: SufiAck, AckSN: ackSN})
	return out
}
