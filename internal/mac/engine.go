package mac

import "time"

// RadioBearer is the pull-based interface an RLC entity exposes to MAC-d
// for one radio bearer (spec.md section 5): MAC pulls at most one PDU per
// TTI and pushes uplink PDUs back down as they arrive. Pull/Push close
// over whichever RLC mode (TM/UM/AM) the bearer actually runs, since the
// three RLC entity types don't share a Go method signature.
type RadioBearer struct {
	RBID int
	Pull func(now time.Time) []byte
	Push func(now time.Time, pdu []byte)
}

// MacEngine is the shared capability every MAC entity (common or
// dedicated) exposes to the scheduler: service one TTI and return the
// transport blocks ready for the PHY keyed by TrCh id, and accept a
// transport block the PHY delivered on the uplink (spec.md section 9
// design note on sharing the scheduler across MAC-c/MAC-d).
type MacEngine interface {
	Service(now time.Time) map[int][]byte
	WriteLow(now time.Time, trchID int, tb []byte)
}
