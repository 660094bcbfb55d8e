package p25

import (
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// IMBECodewordLen is the raw length of one IMBE codeword as carried on
// the wire; this package treats codewords as opaque payload (spec.md's
// Non-goals exclude vocoding) and only re-keystreams or forwards them.
const IMBECodewordLen = 11

// LDULC is the RS(24,12,13)-protected link control block interleaved
// with voice frames across an LDU1/LDU2 pair (spec.md §4.3).
type LDULC struct {
	LCO   uint8
	MFID  uint8
	DstID uint32
	SrcID uint32
}

// LDU1 carries 9 IMBE codewords plus the RS-protected voice LC block.
type LDU1 struct {
	IMBE [9][IMBECodewordLen]byte
	LC   LDULC
}

// LDU2 carries 9 IMBE codewords plus the RS-protected MI/algorithm
// update block.
type LDU2 struct {
	IMBE  [9][IMBECodewordLen]byte
	AlgID uint8
	KeyID uint16
	MI    [9]byte
}

// DecodeLDU1LC RS(24,12)-corrects the 24-byte LC block extracted from
// an LDU1 frame (the caller is responsible for deinterleaving it from
// the surrounding IMBE codewords per the standard's low-speed-data
// interleave; this package operates on the already-deinterleaved
// block, matching how pkg/edac's codecs take pre-framed input).
func DecodeLDU1LC(block []byte) (*LDULC, error) {
	if len(block) < 24 {
		return nil, codecerr.New(codecerr.StageLDU, codecerr.ReasonShortInput, "short LDU1 LC block")
	}
	data, err := edac.RS2412.Decode(block[:24])
	if err != nil {
		return nil, err
	}
	if len(data) < 9 {
		return nil, codecerr.New(codecerr.StageLDU, codecerr.ReasonShortInput, "short LDU1 LC payload")
	}
	return &LDULC{
		LCO:   data[0],
		MFID:  data[1],
		DstID: uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]),
		SrcID: uint32(data[6])<<16 | uint32(data[7])<<8 | uint32(data[8]),
	}, nil
}

// EncodeLDU1LC is the inverse of DecodeLDU1LC.
func EncodeLDU1LC(lc *LDULC) []byte {
	data := make([]byte, 12)
	data[0] = lc.LCO
	data[1] = lc.MFID
	data[3], data[4], data[5] = byte(lc.DstID>>16), byte(lc.DstID>>8), byte(lc.DstID)
	data[6], data[7], data[8] = byte(lc.SrcID>>16), byte(lc.SrcID>>8), byte(lc.SrcID)
	return edac.RS2412.Encode(data)
}

// DecodeLDU2LC RS(24,12)-corrects the MI/algorithm update block carried
// in an LDU2 frame.
func DecodeLDU2LC(block []byte) (algID uint8, keyID uint16, mi [9]byte, err error) {
	if len(block) < 24 {
		return 0, 0, mi, codecerr.New(codecerr.StageLDU, codecerr.ReasonShortInput, "short LDU2 LC block")
	}
	data, decErr := edac.RS2412.Decode(block[:24])
	if decErr != nil {
		return 0, 0, mi, decErr
	}
	if len(data) < 12 {
		return 0, 0, mi, codecerr.New(codecerr.StageLDU, codecerr.ReasonShortInput, "short LDU2 LC payload")
	}
	copy(mi[:], data[0:9])
	algID = data[9]
	keyID = uint16(data[10])<<8 | uint16(data[11])
	return algID, keyID, mi, nil
}

// EncodeLDU2LC is the inverse of DecodeLDU2LC.
func EncodeLDU2LC(algID uint8, keyID uint16, mi [9]byte) []byte {
	data := make([]byte, 12)
	copy(data[0:9], mi[:])
	data[9] = algID
	data[10], data[11] = byte(keyID>>8), byte(keyID)
	return edac.RS2412.Encode(data)
}
