// Package sn implements the modulo sequence-number arithmetic shared by
// RLC-UM (7-bit, SNS=128) and RLC-AM (12-bit, SNS=4096).
package sn

// Add returns (a + k) mod sns.
func Add(sns int, a uint16, k int) uint16 {
	v := (int(a) + k) % sns
	if v < 0 {
		v += sns
	}
	return uint16(v)
}

// Delta returns the signed distance from b to a, i.e. the k such that
// Add(sns, b, k) == a, in the half-open half-window range (-sns/2, sns/2].
func Delta(sns int, a, b uint16) int {
	d := (int(a) - int(b)) % sns
	if d < 0 {
		d += sns
	}
	if d > sns/2 {
		d -= sns
	}
	return d
}

// InWindow reports whether sn lies in [lo, lo+width) modulo sns.
func InWindow(sns int, snv, lo uint16, width int) bool {
	d := Delta(sns, snv, lo)
	return d >= 0 && d < width
}

// Less reports whether a precedes b in the half-window sense used for
// comparing VR(R)/VR(H)-style cursors.
func Less(sns int, a, b uint16) bool {
	return Delta(sns, a, b) < 0
}
