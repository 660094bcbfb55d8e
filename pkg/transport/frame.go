package transport

import (
	"encoding/binary"
	"fmt"
)

// RTPHeader is the 12-byte header prefixing every datagram.
type RTPHeader struct {
	VersionFlags uint8
	PayloadType  uint8
	SeqNo        uint16
	Timestamp    uint32
	SSRC         uint32
}

// Frame is a fully parsed datagram: RTP header, framing header, and
// body (spec.md §4.5/§6).
type Frame struct {
	RTP         RTPHeader
	Function    NetFunc
	Subfunction uint8
	PeerID      uint32
	StreamID    uint32
	Body        []byte
}

// ParseFrame decodes the RTP header and framing header, leaving
// whatever trails as Body (still AES-wrapped if the peer's envelope is
// enabled; callers unwrap via Unwrap before interpreting it).
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) < RTPHeaderLen+FrameHeaderLen {
		return nil, fmt.Errorf("transport: short datagram (%d bytes)", len(data))
	}
	f := &Frame{
		RTP: RTPHeader{
			VersionFlags: data[0],
			PayloadType:  data[1],
			SeqNo:        binary.BigEndian.Uint16(data[2:4]),
			Timestamp:    binary.BigEndian.Uint32(data[4:8]),
			SSRC:         binary.BigEndian.Uint32(data[8:12]),
		},
		Function:    NetFunc(data[12]),
		Subfunction: data[13],
		PeerID:      binary.BigEndian.Uint32(data[14:18]),
		StreamID:    binary.BigEndian.Uint32(data[18:22]),
	}
	f.Body = append([]byte(nil), data[RTPHeaderLen+FrameHeaderLen:]...)
	return f, nil
}

// Encode packs the frame back into wire bytes.
func (f *Frame) Encode() []byte {
	out := make([]byte, RTPHeaderLen+FrameHeaderLen+len(f.Body))
	out[0] = f.RTP.VersionFlags
	out[1] = f.RTP.PayloadType
	binary.BigEndian.PutUint16(out[2:4], f.RTP.SeqNo)
	binary.BigEndian.PutUint32(out[4:8], f.RTP.Timestamp)
	binary.BigEndian.PutUint32(out[8:12], f.RTP.SSRC)
	out[12] = byte(f.Function)
	out[13] = f.Subfunction
	binary.BigEndian.PutUint32(out[14:18], f.PeerID)
	binary.BigEndian.PutUint32(out[18:22], f.StreamID)
	copy(out[22:], f.Body)
	return out
}

// IsEndOfCall reports whether this frame's RTP sequence number is the
// end-of-call sentinel.
func (f *Frame) IsEndOfCall() bool {
	return f.RTP.SeqNo == RTPEndOfCallSeq
}

// SeqTracker tracks the next-expected RTP sequence number for one
// (peer, stream) pair, logging out-of-order arrivals without rejecting
// them (spec.md §5's ordering guarantees).
type SeqTracker struct {
	next uint16
}

// Observe records seq and reports whether it arrived in order. An
// end-of-call sentinel always resets the tracker.
func (s *SeqTracker) Observe(seq uint16) (inOrder bool) {
	if seq == RTPEndOfCallSeq {
		s.next = 0
		return true
	}
	inOrder = seq == s.next
	s.next = seq + 1
	return inOrder
}
