package dmr

import (
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// FullLC is a decoded Full Link Control payload (9 bytes before FEC):
// voice call header, terminator, or talker-alias/GPS extension
// (spec.md §4.2, original_source/src/common/dmr/lc/LC.h layout).
type FullLC struct {
	FLCO     FLCO
	FID      uint8
	SvcOpts  uint8
	DstID    uint32
	SrcID    uint32
}

func lcMaskForDataType(dataType DataType) (uint16, error) {
	switch dataType {
	case DataTypeVoiceLCHeader:
		return VoiceLCHeaderCRCMask, nil
	case DataTypeTerminatorWithLC:
		return TerminatorWithLCCRCMask, nil
	default:
		return 0, codecerr.New(codecerr.StageFullLC, codecerr.ReasonBadOpcode, "data type has no full LC mask")
	}
}

// DecodeFullLC BPTC-decodes a 196-bit wire block, recovers the RS(12,9)
// codeword, and corrects/verifies it before unpacking the 9-byte LC
// payload. dataType selects the 16-bit XOR mask applied to the last two
// RS parity bytes (spec.md §4.2): voice headers and terminators share a
// wire format but use different masks so one can't be mistaken for
// the other.
func DecodeFullLC(block []byte, dataType DataType) (*FullLC, error) {
	mask, err := lcMaskForDataType(dataType)
	if err != nil {
		return nil, err
	}
	payload, err := edac.DecodeBPTC196(block)
	if err != nil {
		return nil, err
	}
	if len(payload) < 12 {
		return nil, codecerr.New(codecerr.StageFullLC, codecerr.ReasonShortInput, "short full LC payload")
	}
	codeword := append([]byte(nil), payload[:12]...)
	codeword[10] ^= byte(mask >> 8)
	codeword[11] ^= byte(mask)
	data, err := edac.RS129.Decode(codeword)
	if err != nil {
		return nil, err
	}
	return &FullLC{
		FLCO:    FLCO(data[0] & 0x3F),
		FID:     data[1],
		SvcOpts: data[2],
		DstID:   uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]),
		SrcID:   uint32(data[6])<<16 | uint32(data[7])<<8 | uint32(data[8]),
	}, nil
}

// EncodeFullLC packs a FullLC into 9 bytes, RS(12,9) encodes it, and
// BPTC-wraps the result — full regeneration, per spec.md §4.2's policy
// that forwarded frames never pass FEC through unchanged.
func EncodeFullLC(lc *FullLC, dataType DataType) ([]byte, error) {
	mask, err := lcMaskForDataType(dataType)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 9)
	data[0] = byte(lc.FLCO) & 0x3F
	data[1] = lc.FID
	data[2] = lc.SvcOpts
	data[3], data[4], data[5] = byte(lc.DstID>>16), byte(lc.DstID>>8), byte(lc.DstID)
	data[6], data[7], data[8] = byte(lc.SrcID>>16), byte(lc.SrcID>>8), byte(lc.SrcID)
	codeword := edac.RS129.Encode(data)
	codeword[10] ^= byte(mask >> 8)
	codeword[11] ^= byte(mask)
	return edac.EncodeBPTC196(codeword), nil
}

// PrivacyLC is a decoded Privacy Indicator LC: algorithm ID, key ID, and
// a 32-bit message indicator that seeds the per-burst keystream
// (spec.md §4.2, §4.9).
type PrivacyLC struct {
	AlgID uint8
	KeyID uint8
	MI    uint32
	DstID uint32
}

// DecodePrivacyLC BPTC-decodes then CRC-CCITT-16 (PI mask) verifies a
// privacy LC block.
func DecodePrivacyLC(block []byte) (*PrivacyLC, error) {
	payload, err := edac.DecodeBPTC196(block)
	if err != nil {
		return nil, err
	}
	if len(payload) < 11 {
		return nil, codecerr.New(codecerr.StagePrivacyLC, codecerr.ReasonShortInput, "short privacy LC payload")
	}
	body := payload[:9]
	wireCRC := uint16(payload[9])<<8 | uint16(payload[10])
	if !edac.VerifyCRCMasked(body, wireCRC, PIHeaderCRCMask) {
		return nil, codecerr.New(codecerr.StagePrivacyLC, codecerr.ReasonCRCMismatch, "privacy LC CRC mismatch")
	}
	return &PrivacyLC{
		AlgID: body[0],
		KeyID: body[1],
		MI:    uint32(body[2])<<24 | uint32(body[3])<<16 | uint32(body[4])<<8 | uint32(body[5]),
		DstID: uint32(body[6])<<16 | uint32(body[7])<<8 | uint32(body[8]),
	}, nil
}

// EncodePrivacyLC is the inverse of DecodePrivacyLC.
func EncodePrivacyLC(lc *PrivacyLC) []byte {
	body := make([]byte, 9)
	body[0] = lc.AlgID
	body[1] = lc.KeyID
	body[2], body[3], body[4], body[5] = byte(lc.MI>>24), byte(lc.MI>>16), byte(lc.MI>>8), byte(lc.MI)
	body[6], body[7], body[8] = byte(lc.DstID>>16), byte(lc.DstID>>8), byte(lc.DstID)
	crc := edac.EncodeCRCMasked(body, PIHeaderCRCMask)
	payload := make([]byte, 11)
	copy(payload, body)
	payload[9] = byte(crc >> 8)
	payload[10] = byte(crc)
	return edac.EncodeBPTC196(payload)
}
