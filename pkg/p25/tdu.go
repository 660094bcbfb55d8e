package p25

import (
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// TDU is the simple end-of-call terminator: NID only, no payload.

// TDULC carries terminating link control, RS(24,12)-protected like an
// LDU1 voice LC block (spec.md §4.3).
type TDULC struct {
	LCO   uint8
	MFID  uint8
	DstID uint32
	SrcID uint32
}

// DecodeTDULC RS(24,12)-corrects a TDULC block.
func DecodeTDULC(block []byte) (*TDULC, error) {
	if len(block) < 24 {
		return nil, codecerr.New(codecerr.StageTDU, codecerr.ReasonShortInput, "short TDULC block")
	}
	data, err := edac.RS2412.Decode(block[:24])
	if err != nil {
		return nil, err
	}
	return &TDULC{
		LCO:   data[0],
		MFID:  data[1],
		DstID: uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]),
		SrcID: uint32(data[6])<<16 | uint32(data[7])<<8 | uint32(data[8]),
	}, nil
}

// EncodeTDULC is the inverse of DecodeTDULC.
func EncodeTDULC(lc *TDULC) []byte {
	data := make([]byte, 12)
	data[0] = lc.LCO
	data[1] = lc.MFID
	data[3], data[4], data[5] = byte(lc.DstID>>16), byte(lc.DstID>>8), byte(lc.DstID)
	data[6], data[7], data[8] = byte(lc.SrcID>>16), byte(lc.SrcID>>8), byte(lc.SrcID)
	return edac.RS2412.Encode(data)
}
