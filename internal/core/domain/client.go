package domain

import "time"

// NeedSet is a 4-bit set indicating which of EAPOL messages #1..#4 are still
// missing for a client's in-progress handshake. Bit i means "message (i+1)
// still needed". This encoding is load-bearing: bit 0 ("need message #1") is
// tested directly by the state machine to decide whether a round has a
// start_counter yet.
type NeedSet uint8

const (
	// NeedAll is the initial state of a freshly created client: all four
	// messages are still needed.
	NeedAll NeedSet = 0b1111

	// NeedAfterFirst is the state right after message #1 is accepted:
	// message #1 is satisfied, #2/#3/#4 are still needed.
	NeedAfterFirst NeedSet = 0b1110

	// NeedNone means the handshake is complete.
	NeedNone NeedSet = 0
)

// bit returns the NeedSet bit for a zero-based message sequence (0 = msg #1).
func bit(sequence int) NeedSet {
	return 1 << uint(sequence)
}

// NeedsFirst reports whether message #1 has not yet been seen this round.
func (n NeedSet) NeedsFirst() bool {
	return n&1 != 0
}

// Clear returns n with the bit for the given sequence (0-indexed message
// number) cleared.
func (n NeedSet) Clear(sequence int) NeedSet {
	return n &^ bit(sequence)
}

// Complete reports whether every message has been observed.
func (n NeedSet) Complete() bool {
	return n == NeedNone
}

// Client holds the per-(target,station) handshake-tracking state. A Client
// is never removed once created; it is reset in place on a new message #1
// or on the reconnection-grace condition.
type Client struct {
	// NeedBits tracks which of messages #1..#4 are still missing.
	NeedBits NeedSet

	// StartCounter is the EAPOL replay counter observed in message #1 of
	// the in-progress round. Only meaningful when !NeedBits.NeedsFirst().
	StartCounter uint64

	// HandshakeAt is the wall-clock time at which NeedBits last
	// transitioned to NeedNone. Zero until that has happened at least once.
	HandshakeAt time.Time
}

// NewClient returns a freshly observed client: all four messages needed.
func NewClient() *Client {
	return &Client{NeedBits: NeedAll}
}

// ResetForFirstMessage applies the unconditional reset triggered by message
// #1: the round restarts around the new replay counter.
func (c *Client) ResetForFirstMessage(replayCounter uint64) {
	c.StartCounter = replayCounter
	c.NeedBits = NeedAfterFirst
}

// ResetForReconnection applies the reconnection-grace reset: a fresh round
// starts from scratch, including message #1.
func (c *Client) ResetForReconnection() {
	c.NeedBits = NeedAll
}

// PastReconnectionGrace reports whether a completed client's handshake is
// old enough (strictly more than the grace window) that a new EAPOL frame
// should be treated as a reconnection rather than a retransmission.
func (c *Client) PastReconnectionGrace(now time.Time, grace time.Duration) bool {
	return c.NeedBits.Complete() && now.Sub(c.HandshakeAt) > grace
}
