package p25

import (
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// PDU packet-data constants (spec.md §4.3).
const (
	PDUConfirmedBlockLen   = 16
	PDUUnconfirmedBlockLen = 12
	pduHeaderCRCMask       = 0x0000
)

// PDUHeader is the decoded PDU header common to both confirmed and
// unconfirmed transport.
type PDUHeader struct {
	Confirmed bool
	Blocks    uint8
	SAP       uint8
	DstLLID   uint32
	SrcLLID   uint32
}

// DecodePDUHeader verifies the header's CRC-CCITT-16 and unpacks it.
func DecodePDUHeader(header []byte) (*PDUHeader, error) {
	if len(header) < 12 {
		return nil, codecerr.New(codecerr.StagePDU, codecerr.ReasonShortInput, "short PDU header")
	}
	body := header[:10]
	wireCRC := uint16(header[10])<<8 | uint16(header[11])
	if !edac.VerifyCRCMasked(body, wireCRC, pduHeaderCRCMask) {
		return nil, codecerr.New(codecerr.StagePDU, codecerr.ReasonCRCMismatch, "PDU header CRC mismatch")
	}
	return &PDUHeader{
		Confirmed: body[0]&0x80 != 0,
		SAP:       body[0] & 0x3F,
		Blocks:    body[1],
		DstLLID:   uint32(body[2])<<16 | uint32(body[3])<<8 | uint32(body[4]),
		SrcLLID:   uint32(body[5])<<16 | uint32(body[6])<<8 | uint32(body[7]),
	}, nil
}

// EncodePDUHeader is the inverse of DecodePDUHeader.
func EncodePDUHeader(h *PDUHeader) []byte {
	body := make([]byte, 10)
	body[0] = h.SAP & 0x3F
	if h.Confirmed {
		body[0] |= 0x80
	}
	body[1] = h.Blocks
	body[2], body[3], body[4] = byte(h.DstLLID>>16), byte(h.DstLLID>>8), byte(h.DstLLID)
	body[5], body[6], body[7] = byte(h.SrcLLID>>16), byte(h.SrcLLID>>8), byte(h.SrcLLID)
	crc := edac.EncodeCRCMasked(body, pduHeaderCRCMask)
	out := make([]byte, 12)
	copy(out, body)
	out[10] = byte(crc >> 8)
	out[11] = byte(crc)
	return out
}

// PDUAckClass/PDUAckType identify the acknowledgement a confirmed-mode
// PDU receiver sends back per block (spec.md §8 scenario S6): ACK on a
// clean CRC-9, RETRY (ack class ACK_RETRY) on a failed one so the
// sender knows which block index to resend.
type PDUAckClass uint8

const (
	PDUAckClassAck      PDUAckClass = 0x00
	PDUAckClassNack     PDUAckClass = 0x01
	PDUAckClassAckRetry PDUAckClass = 0x02
)

type PDUAckType uint8

const (
	PDUAckTypeAck   PDUAckType = 0x00
	PDUAckTypeRetry PDUAckType = 0x01
)

// PDUBlock is one reassembled data block: confirmed blocks carry a
// trailing 9-bit CRC covering the first 14 bytes of their 16-byte block; unconfirmed
// blocks carry none.
type PDUBlock struct {
	SeqNo     uint8
	Data      []byte
	Confirmed bool
}

// DecodePDUBlock validates (for confirmed blocks) the trailing CRC-9
// and returns the reassembled block. Confirmed blocks that fail CRC
// are flagged retransmit-eligible by returning an error the caller can
// use to request the block again; the data is still returned so a
// partial reassembly can proceed if the policy allows it.
func DecodePDUBlock(raw []byte, confirmed bool) (*PDUBlock, error) {
	if confirmed {
		if len(raw) < PDUConfirmedBlockLen {
			return nil, codecerr.New(codecerr.StagePDU, codecerr.ReasonShortInput, "short confirmed PDU block")
		}
		payload := raw[:PDUConfirmedBlockLen-2]
		wireCRC := uint16(raw[PDUConfirmedBlockLen-2])<<8 | uint16(raw[PDUConfirmedBlockLen-1])
		wireCRC &= 0x1FF
		if edac.CRC9(payload) != wireCRC {
			return &PDUBlock{Data: append([]byte(nil), payload...), Confirmed: true},
				codecerr.New(codecerr.StagePDU, codecerr.ReasonCRCMismatch, "confirmed PDU block CRC-9 mismatch")
		}
		return &PDUBlock{Data: append([]byte(nil), payload...), Confirmed: true}, nil
	}
	if len(raw) < PDUUnconfirmedBlockLen {
		return nil, codecerr.New(codecerr.StagePDU, codecerr.ReasonShortInput, "short unconfirmed PDU block")
	}
	return &PDUBlock{Data: append([]byte(nil), raw[:PDUUnconfirmedBlockLen]...)}, nil
}

// EncodePDUBlock packs a block, appending a CRC-9 for confirmed mode.
func EncodePDUBlock(b *PDUBlock) []byte {
	if b.Confirmed {
		out := make([]byte, PDUConfirmedBlockLen)
		copy(out, b.Data)
		crc := edac.CRC9(out[:PDUConfirmedBlockLen-2])
		out[PDUConfirmedBlockLen-2] = byte(crc >> 8)
		out[PDUConfirmedBlockLen-1] = byte(crc)
		return out
	}
	out := make([]byte, PDUUnconfirmedBlockLen)
	copy(out, b.Data)
	return out
}

// ReassemblePDU orders blocks by sequence number, per spec.md §4.3's
// "re-assembles them by block sequence number" requirement.
func ReassemblePDU(blocks []*PDUBlock) []byte {
	ordered := make([]*PDUBlock, len(blocks))
	copy(ordered, blocks)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].SeqNo < ordered[j-1].SeqNo; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	var out []byte
	for _, b := range ordered {
		out = append(out, b.Data...)
	}
	return out
}

// PDUReceiver accumulates the blocks of one confirmed-mode PDU,
// tracking which sequence numbers still need a retry per spec.md's
// confirmed-mode retransmit eligibility (§4.3, §8 scenario S6).
type PDUReceiver struct {
	Header *PDUHeader
	blocks map[uint8]*PDUBlock
}

// NewPDUReceiver starts a reassembly for a decoded confirmed PDU
// header.
func NewPDUReceiver(h *PDUHeader) *PDUReceiver {
	return &PDUReceiver{Header: h, blocks: make(map[uint8]*PDUBlock)}
}

// AcceptBlock decodes one raw block at seqNo and records the
// per-block acknowledgement the receiver owes the sender: ACK on a
// clean CRC-9, ACK_RETRY/RETRY on a failed one (the block is not
// stored until it arrives with a valid CRC).
func (r *PDUReceiver) AcceptBlock(seqNo uint8, raw []byte) (PDUAckClass, PDUAckType) {
	b, err := DecodePDUBlock(raw, true)
	if err != nil {
		return PDUAckClassAckRetry, PDUAckTypeRetry
	}
	b.SeqNo = seqNo
	r.blocks[seqNo] = b
	return PDUAckClassAck, PDUAckTypeAck
}

// Complete reports whether every block 0..Header.Blocks-1 has arrived
// with a valid CRC, and if so the reassembled payload in sequence
// order.
func (r *PDUReceiver) Complete() ([]byte, bool) {
	if r.Header == nil {
		return nil, false
	}
	ordered := make([]*PDUBlock, 0, r.Header.Blocks)
	for i := uint8(0); i < r.Header.Blocks; i++ {
		b, ok := r.blocks[i]
		if !ok {
			return nil, false
		}
		ordered = append(ordered, b)
	}
	return ReassemblePDU(ordered), true
}
