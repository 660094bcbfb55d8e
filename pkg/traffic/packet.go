// Package traffic is the traffic-frame relay DESIGN.md describes: it reads
// the NetFuncProtocol body spec.md §6 describes, decodes enough of the
// DMR/P25 frame to learn the call's destination TGID, drives
// pkg/routing.Router's grant/ACL/forward pipeline, and regenerates FEC
// on every frame re-emitted to a permitted peer (spec.md §4.6's
// control-flow summary, §2). Grounded on pkg/protocol/dmrd.go's
// explicit slot/src/dst header fields carried alongside the opaque
// burst payload (the teacher's Homebrew DMRD layout), generalized to
// also carry a P25 analogue.
package traffic

import (
	"fmt"

	"github.com/dvmgo/dvmfne/pkg/dmr"
)

// DMR slot-byte layout (spec.md §3's callType/slot/dataType fields),
// grounded on pkg/protocol/constants.go's SlotTimeslotMask/
// SlotCallTypeMask/SlotDataTypeMask bit positions.
const (
	dmrSlotTimeslotMask = 0x80
	dmrSlotCallTypeMask = 0x40
	dmrSlotDataTypeMask = 0x0F
)

// DMRPacketLen is the fixed NetFuncProtocol/NetProtocolSubfuncDMR body
// size: slot byte(1) + SrcID(3) + DstID(3) + burst(33).
const DMRPacketLen = 1 + 3 + 3 + dmr.BurstLen

// DMRPacket is one DMR traffic datagram's body: the repeater-supplied
// routing fields (slot, call type, src/dst) alongside the raw 33-byte
// over-the-air burst the FEC codecs operate on.
type DMRPacket struct {
	Slot       int // 1 or 2
	Individual bool
	SrcID      uint32
	DstID      uint32
	Burst      []byte // 33 bytes
}

// ParseDMRPacket decodes a DMR traffic body.
func ParseDMRPacket(body []byte) (*DMRPacket, error) {
	if len(body) < DMRPacketLen {
		return nil, fmt.Errorf("traffic: short DMR packet (%d bytes)", len(body))
	}
	slotByte := body[0]
	p := &DMRPacket{
		Slot:       1,
		Individual: slotByte&dmrSlotCallTypeMask != 0,
		SrcID:      uint32(body[1])<<16 | uint32(body[2])<<8 | uint32(body[3]),
		DstID:      uint32(body[4])<<16 | uint32(body[5])<<8 | uint32(body[6]),
		Burst:      append([]byte(nil), body[7:7+dmr.BurstLen]...),
	}
	if slotByte&dmrSlotTimeslotMask != 0 {
		p.Slot = 2
	}
	return p, nil
}

// Encode packs a DMRPacket back into a traffic body.
func (p *DMRPacket) Encode() []byte {
	out := make([]byte, DMRPacketLen)
	if p.Slot == 2 {
		out[0] |= dmrSlotTimeslotMask
	}
	if p.Individual {
		out[0] |= dmrSlotCallTypeMask
	}
	out[1], out[2], out[3] = byte(p.SrcID>>16), byte(p.SrcID>>8), byte(p.SrcID)
	out[4], out[5], out[6] = byte(p.DstID>>16), byte(p.DstID>>8), byte(p.DstID)
	copy(out[7:], p.Burst)
	return out
}

// P25HeaderLen is the fixed routing-field prefix on a
// NetProtocolSubfuncP25 body: SrcID(3) + DstID(3), followed by the
// sync+NID+DUID-body wire unit pkg/p25.DecodeFrameHeader parses.
const P25HeaderLen = 6

// P25Packet is one P25 traffic datagram's body.
type P25Packet struct {
	SrcID uint32
	DstID uint32
	Frame []byte // sync(6) + NID(8) + DUID-specific body
}

// ParseP25Packet decodes a P25 traffic body.
func ParseP25Packet(body []byte) (*P25Packet, error) {
	if len(body) < P25HeaderLen {
		return nil, fmt.Errorf("traffic: short P25 packet (%d bytes)", len(body))
	}
	return &P25Packet{
		SrcID: uint32(body[0])<<16 | uint32(body[1])<<8 | uint32(body[2]),
		DstID: uint32(body[3])<<16 | uint32(body[4])<<8 | uint32(body[5]),
		Frame: append([]byte(nil), body[P25HeaderLen:]...),
	}, nil
}

// Encode packs a P25Packet back into a traffic body.
func (p *P25Packet) Encode() []byte {
	out := make([]byte, P25HeaderLen, P25HeaderLen+len(p.Frame))
	out[0], out[1], out[2] = byte(p.SrcID>>16), byte(p.SrcID>>8), byte(p.SrcID)
	out[3], out[4], out[5] = byte(p.DstID>>16), byte(p.DstID>>8), byte(p.DstID)
	return append(out, p.Frame...)
}

// streamKey identifies one in-progress call's routing context, scoped
// per spec.md §3's "exactly one stream ID is active at a time per
// (peer, protocol, logical-slot)" invariant.
type streamKey struct {
	PeerID uint32
	Slot   int
}
