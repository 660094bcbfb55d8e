package dmr

import (
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// DataHeader is a decoded DMR data header (spec.md §4.2). Fields cover
// the common layout shared by the UDT/unconfirmed/confirmed/response
// variants; DPF selects which of them are meaningful, mirroring
// original_source/dmr/data/DataHeader.h's single-struct-many-DPF shape.
type DataHeader struct {
	DPF      DPF
	GI       bool // group (true) vs individual destination
	SAP      uint8
	FullMessage bool
	FSN      uint8 // fragment sequence number
	Ns       uint8 // send sequence number (confirmed data)
	PadCount uint8
	Blocks   uint8
	SrcID    uint32
	DstID    uint32

	// ResponseClass/ResponseType are populated only for DPFResponse.
	ResponseClass uint8
	ResponseType  uint8

	// Raw carries DPFProprietary/DPFDefinedRaw payload untouched.
	Raw []byte
}

// decodeDataHeaderCore unpacks the 12-byte systematic layout common to
// all DPF variants once FEC/CRC have already been stripped.
func decodeDataHeaderCore(b [12]byte) *DataHeader {
	h := &DataHeader{
		DPF: DPF(b[0] & 0x0F),
		GI:  b[0]&0x80 != 0,
	}
	switch h.DPF {
	case DPFResponse:
		h.SAP = b[1] & 0x3F
		h.ResponseClass = (b[2] >> 6) & 0x03
		h.ResponseType = b[2] & 0x1F
		h.DstID = uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
		h.SrcID = uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8])
		h.Blocks = b[9] & 0x7F
	case DPFUnconfirmedData, DPFConfirmedData:
		h.SAP = b[1] & 0x3F
		h.FullMessage = b[2]&0x80 != 0
		h.FSN = b[2] & 0x0F
		if h.DPF == DPFConfirmedData {
			h.Ns = (b[2] >> 4) & 0x07
		}
		h.DstID = uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
		h.SrcID = uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8])
		h.Blocks = b[9] & 0x7F
		h.PadCount = ((b[0]>>4)&0x07)<<2 | (b[1]>>6)&0x03
	case DPFUDT:
		h.SAP = b[1] & 0x3F
		h.DstID = uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
		h.SrcID = uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8])
		h.Blocks = b[9] & 0x0F
	case DPFDefinedShort, DPFDefinedRaw, DPFProprietary:
		h.Raw = append([]byte(nil), b[1:]...)
	}
	return h
}

func encodeDataHeaderCore(h *DataHeader) [12]byte {
	var b [12]byte
	b[0] = byte(h.DPF) & 0x0F
	if h.GI {
		b[0] |= 0x80
	}
	switch h.DPF {
	case DPFResponse:
		b[1] = h.SAP & 0x3F
		b[2] = ((h.ResponseClass & 0x03) << 6) | (h.ResponseType & 0x1F)
		b[3], b[4], b[5] = byte(h.DstID>>16), byte(h.DstID>>8), byte(h.DstID)
		b[6], b[7], b[8] = byte(h.SrcID>>16), byte(h.SrcID>>8), byte(h.SrcID)
		b[9] = h.Blocks & 0x7F
	case DPFUnconfirmedData, DPFConfirmedData:
		// PadCount's 5 bits sit in the spare bits of bytes 0 and 1;
		// bytes 10-11 carry the CRC.
		b[0] |= ((h.PadCount >> 2) & 0x07) << 4
		b[1] = h.SAP&0x3F | (h.PadCount&0x03)<<6
		b[2] = h.FSN & 0x0F
		if h.FullMessage {
			b[2] |= 0x80
		}
		if h.DPF == DPFConfirmedData {
			b[2] |= (h.Ns & 0x07) << 4
		}
		b[3], b[4], b[5] = byte(h.DstID>>16), byte(h.DstID>>8), byte(h.DstID)
		b[6], b[7], b[8] = byte(h.SrcID>>16), byte(h.SrcID>>8), byte(h.SrcID)
		b[9] = h.Blocks & 0x7F
	case DPFUDT:
		b[1] = h.SAP & 0x3F
		b[3], b[4], b[5] = byte(h.DstID>>16), byte(h.DstID>>8), byte(h.DstID)
		b[6], b[7], b[8] = byte(h.SrcID>>16), byte(h.SrcID>>8), byte(h.SrcID)
		b[9] = h.Blocks & 0x0F
	case DPFDefinedShort, DPFDefinedRaw, DPFProprietary:
		copy(b[1:], h.Raw)
	}
	return b
}

// DecodeDataHeader BPTC-decodes a 196-bit wire block, strips the header
// CRC mask (if non-zero), verifies CRC-CCITT-16, and populates a
// DataHeader by DPF variant. A wire CRC of exactly zero is accepted
// without verification, per spec.md §4.2.
func DecodeDataHeader(block []byte) (*DataHeader, error) {
	payload, err := edac.DecodeBPTC196(block)
	if err != nil {
		return nil, err
	}
	if len(payload) < 12 {
		return nil, codecerr.New(codecerr.StageDataHeader, codecerr.ReasonShortInput, "short data header payload")
	}
	body := payload[:10]
	wireCRC := uint16(payload[10])<<8 | uint16(payload[11])
	if !edac.VerifyCRCMasked(body, wireCRC, DataHeaderCRCMask) {
		return nil, codecerr.New(codecerr.StageDataHeader, codecerr.ReasonCRCMismatch, "data header CRC mismatch")
	}
	var core [12]byte
	copy(core[:], payload[:12])
	return decodeDataHeaderCore(core), nil
}

// EncodeDataHeader is the inverse of DecodeDataHeader: it regenerates
// CRC-CCITT-16 and BPTC FEC rather than passing stale bits through, so
// errors never propagate between peers (spec.md §4.2's regeneration
// policy). Proprietary/defined-raw payloads are carried through
// untouched except for the regenerated CRC.
func EncodeDataHeader(h *DataHeader) []byte {
	core := encodeDataHeaderCore(h)
	body := core[:10]
	crc := edac.EncodeCRCMasked(body, DataHeaderCRCMask)
	payload := make([]byte, 12)
	copy(payload, body)
	payload[10] = byte(crc >> 8)
	payload[11] = byte(crc)
	return edac.EncodeBPTC196(payload)
}
