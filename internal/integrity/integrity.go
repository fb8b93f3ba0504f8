// Package integrity implements the F9-style RRC integrity protection
// described in spec.md section 4.6: a per-bearer COUNT-I built from a
// hyper-frame number and a 4-bit RRC sequence number, and a keyed MAC-I
// over the protected message.
//
// 3GPP's real F9 is KASUMI in f9 mode (TS 35.201/202); there is no
// third-party Go package for it anywhere in the example corpus (the
// nearest precedent, udm/internal/crypto/milenage.go, reaches for stdlib
// crypto/aes for the same reason: no vetted MILENAGE/KASUMI library
// exists in the ecosystem either). This core follows that precedent and
// builds its keyed MAC from stdlib crypto/hmac + crypto/sha256, truncated
// to 32 bits — the same "MAC over COUNT/message/direction/bearer, keyed"
// shape as F9, without claiming bit-compatibility with real air-interface
// equipment.
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

const rrcSNBits = 4
const rrcSNMask = (1 << rrcSNBits) - 1

// bearerCounter is one RB's (HFN, RRC-SN) pair.
type bearerCounter struct {
	hfn   uint32
	rrcSN uint8
}

// Context tracks integrity state across every protected bearer of one UE
// (spec.md section 3: "the UE owns ... an integrity-protection context").
type Context struct {
	mu      sync.Mutex
	key     []byte
	started bool
	fresh   uint32
	bearers map[int]*bearerCounter
}

func NewContext() *Context {
	return &Context{bearers: make(map[int]*bearerCounter)}
}

// Start installs the ciphering/integrity key and a fresh start value,
// arming protection for every subsequent outbound DCCH message (spec.md
// section 4.4, startIntegrityProtection).
func (c *Context) Start(key []byte, fresh uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = append([]byte(nil), key...)
	c.fresh = fresh
	c.started = true
}

// Stop clears the key and resets every bearer's counters; called when the
// UE returns to idle (spec.md section 3, invariant iv).
func (c *Context) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = nil
	c.started = false
	c.bearers = make(map[int]*bearerCounter)
}

func (c *Context) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Count returns the current COUNT-I for a bearer without advancing it:
// (HFN << 4) | RRC-SN.
func (c *Context) Count(rbID int) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bearer(rbID)
	return b.hfn<<rrcSNBits | uint32(b.rrcSN)
}

func (c *Context) bearer(rbID int) *bearerCounter {
	b, ok := c.bearers[rbID]
	if !ok {
		b = &bearerCounter{}
		c.bearers[rbID] = b
	}
	return b
}

// Protect runs the two-pass encode described in spec.md section 4.6: the
// caller encodes the message once with a zeroed MAC-I slot to get
// msgWithZeroMAC, Protect computes the MAC-I over it and advances the
// bearer's RRC-SN (wrapping HFN on RRC-SN overflow), and the caller
// re-encodes with the returned MAC-I written into the slot.
func (c *Context) Protect(rbID int, msgWithZeroMAC []byte, direction uint8) (macI uint32, count uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bearer(rbID)
	count = b.hfn<<rrcSNBits | uint32(b.rrcSN)
	macI = c.computeMAC(count, msgWithZeroMAC, direction, rbID)

	b.rrcSN++
	if b.rrcSN > rrcSNMask {
		b.rrcSN = 0
		b.hfn++
	}
	return macI, count
}

// VerifyInbound checks an inbound message's MAC-I against the bearer's
// current COUNT-I. It never advances the count, whether or not the MAC-I
// matches (spec.md section 7: "Integrity violation (inbound)" drops
// without advancing RRC-SN).
func (c *Context) VerifyInbound(rbID int, msgWithZeroMAC []byte, direction uint8, macI uint32) bool {
	c.mu.Lock()
	b := c.bearer(rbID)
	count := b.hfn<<rrcSNBits | uint32(b.rrcSN)
	c.mu.Unlock()

	want := c.computeMAC(count, msgWithZeroMAC, direction, rbID)
	return want == macI
}

func (c *Context) computeMAC(count uint32, msg []byte, direction uint8, bearer int) uint32 {
	h := hmac.New(sha256.New, c.key)
	var hdr [10]byte
	binary.BigEndian.PutUint32(hdr[0:4], count)
	hdr[4] = direction
	hdr[5] = byte(bearer)
	binary.BigEndian.PutUint32(hdr[6:10], c.fresh)
	h.Write(hdr[:])
	h.Write(msg)
	sum := h.Sum(nil)
	return binary.BigEndian.Uint32(sum[:4])
}
