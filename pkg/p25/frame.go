package p25

import (
	"github.com/dvmgo/dvmfne/pkg/bitutil"
	"github.com/dvmgo/dvmfne/pkg/codecerr"
	"github.com/dvmgo/dvmfne/pkg/edac"
)

// StartSyncLen/NIDLen/HeaderLen locate the fixed sync+NID preamble
// every P25 wire unit carries before its DUID-specific body (spec.md
// §4.1/§6).
const (
	StartSyncLen = 6
	NIDLen       = 8
	HeaderLen    = StartSyncLen + NIDLen
)

// DecodeFrameHeader matches the start sync (tolerating bit errors per
// edac.MatchSync) and unpacks the NID, returning the DUID-specific body
// that follows.
func DecodeFrameHeader(data []byte) (*NID, []byte, error) {
	if len(data) < HeaderLen {
		return nil, nil, codecerr.New(codecerr.StageNID, codecerr.ReasonShortInput, "short P25 frame")
	}
	if _, ok := edac.MatchSync(StartSync, data[:StartSyncLen]); !ok {
		return nil, nil, edac.ErrSyncNotFound
	}
	nid, err := DecodeNID(data[StartSyncLen : StartSyncLen+NIDLen])
	if err != nil {
		return nil, nil, err
	}
	return nid, append([]byte(nil), data[HeaderLen:]...), nil
}

// EncodeFrameHeader packs the start sync, NID, and body into a
// complete wire unit.
func EncodeFrameHeader(n *NID, body []byte) []byte {
	out := make([]byte, 0, HeaderLen+len(body))
	out = append(out, StartSync...)
	out = append(out, EncodeNID(n)...)
	out = append(out, body...)
	return out
}

// FrameLen is the fixed LDU1/LDU2 body size: 1728 bits of IMBE/LC/LSD
// content interleaved with status symbols (spec.md §3/§6).
const FrameLen = 216

// imbeRegionLen/lcRegionLen are the sizes of the two fields carried in
// an LDU body once status symbols are stripped: nine IMBE codewords
// followed by the RS(24,12)-protected LC/MI block. The remaining bits
// are low-speed data, opaque to the core per spec.md's Non-goals, and
// are not modelled here.
const (
	imbeRegionLen = 9 * IMBECodewordLen // 99
	lcRegionLen   = 24
)

func ldudata(body []byte) ([]byte, error) {
	bits := StripStatusSymbols(body)
	data := bitutil.BitsToBytes(bits)
	if len(data) < imbeRegionLen+lcRegionLen {
		return nil, codecerr.New(codecerr.StageLDU, codecerr.ReasonShortInput, "short LDU body")
	}
	return data, nil
}

func packLDU(imbe *[9][IMBECodewordLen]byte, lcBlock []byte) []byte {
	data := make([]byte, 0, imbeRegionLen+len(lcBlock))
	for i := range imbe {
		data = append(data, imbe[i][:]...)
	}
	data = append(data, lcBlock...)
	bits := bitutil.BytesToBits(data)
	return InsertStatusSymbols(bits, 0)
}

// DecodeLDU1 splits a status-symbol-framed LDU1 body into its nine
// IMBE codewords and RS(24,12)-corrected voice LC block (the inverse
// of EncodeLDU1, completing the deinterleave DecodeLDU1LC's docstring
// says callers are responsible for).
func DecodeLDU1(body []byte) (*LDU1, error) {
	data, err := ldudata(body)
	if err != nil {
		return nil, err
	}
	lc, err := DecodeLDU1LC(data[imbeRegionLen : imbeRegionLen+lcRegionLen])
	if err != nil {
		return nil, err
	}
	out := &LDU1{LC: *lc}
	for i := 0; i < 9; i++ {
		copy(out.IMBE[i][:], data[i*IMBECodewordLen:(i+1)*IMBECodewordLen])
	}
	return out, nil
}

// EncodeLDU1 is the inverse of DecodeLDU1, regenerating RS parity and
// status symbols on every forwarded frame (spec.md §4.3's full-
// regeneration policy).
func EncodeLDU1(l *LDU1) []byte {
	return packLDU(&l.IMBE, EncodeLDU1LC(&l.LC))
}

// DecodeLDU2 is DecodeLDU1's counterpart for the MI/algorithm update
// body.
func DecodeLDU2(body []byte) (*LDU2, error) {
	data, err := ldudata(body)
	if err != nil {
		return nil, err
	}
	algID, keyID, mi, err := DecodeLDU2LC(data[imbeRegionLen : imbeRegionLen+lcRegionLen])
	if err != nil {
		return nil, err
	}
	out := &LDU2{AlgID: algID, KeyID: keyID, MI: mi}
	for i := 0; i < 9; i++ {
		copy(out.IMBE[i][:], data[i*IMBECodewordLen:(i+1)*IMBECodewordLen])
	}
	return out, nil
}

// EncodeLDU2 is the inverse of DecodeLDU2.
func EncodeLDU2(l *LDU2) []byte {
	return packLDU(&l.IMBE, EncodeLDU2LC(l.AlgID, l.KeyID, l.MI))
}
