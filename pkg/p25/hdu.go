package p25

import (
	"github.com/dvmgo/dvmfne/pkg/bitutil"
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// HDU is the decoded Header Data Unit preceding a voice call: the
// destination TGID, manufacturer ID, crypto algorithm/key IDs, and the
// 9-byte message indicator that seeds the call's keystream
// (spec.md §4.3).
type HDU struct {
	DstID uint32
	MFID  uint8
	AlgID uint8
	KeyID uint16
	MI    [9]byte
}

// hduPayloadLen is the 20-byte RS(36,20) data portion: MI(9) + MFID(1)
// + AlgID(1) + KeyID(2) + DstID(3) + reserved(4).
const hduPayloadLen = 20

// DecodeHDU strips status symbols, RS(36,20) corrects the result, and
// unpacks the HDU fields.
func DecodeHDU(frame []byte) (*HDU, error) {
	bits := StripStatusSymbols(frame)
	payload := bitutil.BitsToBytes(bits)
	if len(payload) < 36 {
		return nil, codecerr.New(codecerr.StageHDU, codecerr.ReasonShortInput, "short HDU frame")
	}
	data, err := edac.RS3620.Decode(payload[:36])
	if err != nil {
		return nil, err
	}
	if len(data) < hduPayloadLen {
		return nil, codecerr.New(codecerr.StageHDU, codecerr.ReasonShortInput, "short HDU payload")
	}
	h := &HDU{
		MFID:  data[9],
		AlgID: data[10],
		KeyID: uint16(data[11])<<8 | uint16(data[12]),
		DstID: uint32(data[13])<<16 | uint32(data[14])<<8 | uint32(data[15]),
	}
	copy(h.MI[:], data[0:9])
	return h, nil
}

// EncodeHDU is the inverse of DecodeHDU, fully regenerating RS(36,20)
// parity and status symbols (spec.md §4.3's per-frame regeneration
// policy).
func EncodeHDU(h *HDU) []byte {
	data := make([]byte, 20)
	copy(data[0:9], h.MI[:])
	data[9] = h.MFID
	data[10] = h.AlgID
	data[11], data[12] = byte(h.KeyID>>8), byte(h.KeyID)
	data[13], data[14], data[15] = byte(h.DstID>>16), byte(h.DstID>>8), byte(h.DstID)
	codeword := edac.RS3620.Encode(data)
	bits := bitutil.BytesToBits(codeword)
	return InsertStatusSymbols(bits, 0)
}
