package p25

import (
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// TSBKO is the Trunking Signalling Block Opcode.
type TSBKO uint8

const (
	TSBKOIOSPGrpVCh    TSBKO = 0x00
	TSBKOIOSPUUVCh     TSBKO = 0x04
	TSBKOIOSPUUAns     TSBKO = 0x05
	TSBKOIOSPStsUpdt   TSBKO = 0x18
	TSBKOIOSPCallAlrt  TSBKO = 0x1F
	TSBKOIOSPAckRsp    TSBKO = 0x20
	TSBKOIOSPExtFnct   TSBKO = 0x24
	TSBKOIOSPGrpAff    TSBKO = 0x28
	TSBKOIOSPURegistr  TSBKO = 0x2C
	TSBKOOSPQueRsp     TSBKO = 0x21
	TSBKOOSPDenyRsp    TSBKO = 0x27
	TSBKOOSPSyncBcast  TSBKO = 0x30
	TSBKOOSPAuthDmd    TSBKO = 0x31
	TSBKOOSPSysSrvBcst TSBKO = 0x38
	TSBKOOSPRFSSSts    TSBKO = 0x3A
	TSBKOOSPNetSts     TSBKO = 0x3B
	TSBKOOSPIdenUp     TSBKO = 0x3D
	TSBKODVMGitHash    TSBKO = 0x3F
)

// tsbkCRCMask is TIA-102's CRC-CCITT-16 mask applied to TSBK/PDU header
// CRCs, distinct from the DMR masks pkg/dmr uses.
const tsbkCRCMask = 0x0000

// TSBK is a single decoded trunking control block (spec.md §4.3). A
// TSDU frame carries one TSBK, or up to three concatenated under one
// sync as a Multi-Block Format (MBF) burst.
type TSBK struct {
	LastBlock bool
	Opcode    TSBKO
	MFID      uint8
	DstID     uint32
	SrcID     uint32
}

// DecodeTSBK Viterbi-decodes one trellis-3/4 block, verifies its
// CRC-CCITT-16, and unpacks the common addressed layout.
func DecodeTSBK(block []byte) (*TSBK, error) {
	payload, err := edac.DecodeTrellis34(block)
	if err != nil {
		return nil, err
	}
	if len(payload) < 12 {
		return nil, codecerr.New(codecerr.StageTSBK, codecerr.ReasonShortInput, "short TSBK payload")
	}
	body := payload[:10]
	wireCRC := uint16(payload[10])<<8 | uint16(payload[11])
	if !edac.VerifyCRCMasked(body, wireCRC, tsbkCRCMask) {
		return nil, codecerr.New(codecerr.StageTSBK, codecerr.ReasonCRCMismatch, "TSBK CRC mismatch")
	}
	return &TSBK{
		LastBlock: body[0]&0x80 != 0,
		Opcode:    TSBKO(body[0] & 0x3F),
		MFID:      body[1],
		DstID:     uint32(body[2])<<16 | uint32(body[3])<<8 | uint32(body[4]),
		SrcID:     uint32(body[5])<<16 | uint32(body[6])<<8 | uint32(body[7]),
	}, nil
}

// EncodeTSBK is the inverse of DecodeTSBK, regenerating CRC and
// trellis parity.
func EncodeTSBK(t *TSBK) []byte {
	body := make([]byte, 10)
	body[0] = byte(t.Opcode) & 0x3F
	if t.LastBlock {
		body[0] |= 0x80
	}
	body[1] = t.MFID
	body[2], body[3], body[4] = byte(t.DstID>>16), byte(t.DstID>>8), byte(t.DstID)
	body[5], body[6], body[7] = byte(t.SrcID>>16), byte(t.SrcID>>8), byte(t.SrcID)
	crc := edac.EncodeCRCMasked(body, tsbkCRCMask)
	payload := make([]byte, 12)
	copy(payload, body)
	payload[10] = byte(crc >> 8)
	payload[11] = byte(crc)
	return edac.EncodeTrellis34(payload)
}

// DecodeTSDU decodes a trunking control burst that may concatenate up
// to three TSBKs (MBF) under one sync, stopping at the first block with
// LastBlock set.
func DecodeTSDU(blocks [][]byte) ([]*TSBK, error) {
	if len(blocks) == 0 || len(blocks) > 3 {
		return nil, codecerr.New(codecerr.StageTSBK, codecerr.ReasonShortInput, "TSDU must carry 1-3 blocks")
	}
	out := make([]*TSBK, 0, len(blocks))
	for _, b := range blocks {
		tsbk, err := DecodeTSBK(b)
		if err != nil {
			return nil, err
		}
		out = append(out, tsbk)
		if tsbk.LastBlock {
			break
		}
	}
	return out, nil
}

// EncodeTSDU re-encodes a sequence of TSBKs, forcing LastBlock on the
// final entry so receivers know where the burst ends.
func EncodeTSDU(tsbks []*TSBK) [][]byte {
	out := make([][]byte, len(tsbks))
	for i, t := range tsbks {
		last := *t
		last.LastBlock = i == len(tsbks)-1
		out[i] = EncodeTSBK(&last)
	}
	return out
}
