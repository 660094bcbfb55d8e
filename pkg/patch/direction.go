package patch

import (
	"time"

	"github.com/dvmgo/dvmfne/pkg/cryptolayer"
)

// ActivityEntry is one completed call's summary, written when a
// direction's call state is released (spec.md §4.7: "writes an
// activity-log entry with call duration").
type ActivityEntry struct {
	TGID     uint32
	SrcID    uint32
	StreamID uint32
	Started  time.Time
	Duration time.Duration
}

// Direction tracks one side (src→dst, or dst→src for a two-way patch)
// of an in-progress call: the keystream used to decrypt/re-encrypt
// IMBE codewords, and the call timer/stream bookkeeping HostPatch
// keeps per direction so that call state on one leg never leaks
// into the other.
type Direction struct {
	TGID uint32
	Slot int

	TEK *cryptolayer.Keystream

	InProgress bool
	StreamID   uint32
	SrcID      uint32
	StartedAt  time.Time

	onActivity func(ActivityEntry)
}

func NewDirection(tgid uint32, slot int) *Direction {
	return &Direction{TGID: tgid, Slot: slot}
}

// OnActivity registers the callback fired when this direction's call
// state is released.
func (d *Direction) OnActivity(fn func(ActivityEntry)) { d.onActivity = fn }

// SetTEK installs the traffic-encryption key for this direction. A nil
// TEK means traffic flows unencrypted (or is passed through still
// encrypted, per Engine's src/dst re-encryption decision).
func (d *Direction) SetTEK(tek *cryptolayer.Keystream) { d.TEK = tek }

// StartCall begins tracking a new call on this direction, arming a
// fresh per-direction MI so re-encrypted output never reuses a
// keystream across calls.
func (d *Direction) StartCall(streamID, srcID uint32, mi [9]byte) {
	d.InProgress = true
	d.StreamID = streamID
	d.SrcID = srcID
	d.StartedAt = time.Now()
	if d.TEK != nil {
		d.TEK.SetMI(mi)
	}
}

// EndCall releases direction state on a terminator (spec.md §4.7:
// "clears MI, resets keystream, clears the stream ID, stops the call
// timer, writes an activity-log entry").
func (d *Direction) EndCall() {
	if !d.InProgress {
		return
	}
	entry := ActivityEntry{
		TGID:     d.TGID,
		SrcID:    d.SrcID,
		StreamID: d.StreamID,
		Started:  d.StartedAt,
		Duration: time.Since(d.StartedAt),
	}
	d.InProgress = false
	d.StreamID = 0
	d.SrcID = 0
	if d.TEK != nil {
		d.TEK.SetMI([9]byte{})
	}
	if d.onActivity != nil {
		d.onActivity(entry)
	}
}

// StepMI advances this direction's per-call MI state between LDU1 and
// LDU2, per spec.md §4.7's "MI state is kept per direction".
func (d *Direction) StepMI() {
	if d.TEK == nil {
		return
	}
	d.TEK.SetMI(cryptolayer.StepMI(d.TEK.MI()))
}
