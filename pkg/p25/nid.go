package p25

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// NID is the decoded Network ID field that follows the P25 start sync:
// a 12-bit NAC (Network Access Code) and a 4-bit DUID, the first two
// fields every frame codec in this package switches on (spec.md §6).
type NID struct {
	NAC  uint16
	DUID DUID
}

// DecodeNID unpacks the first 64 bits following the start sync. The
// real air interface BCH-protects this field; this codec trusts the
// sync-match tolerance already applied upstream and decodes the first
// two bytes directly without BCH correction; EncodeNID zero-fills the
// remaining parity bytes (no pack example implements BCH(63,16)).
func DecodeNID(nid []byte) (*NID, error) {
	if len(nid) < 2 {
		return nil, codecerr.New(codecerr.StageNID, codecerr.ReasonShortInput, "short NID")
	}
	nac := uint16(nid[0])<<4 | uint16(nid[1])>>4
	duid := DUID(nid[1] & 0x0F)
	return &NID{NAC: nac, DUID: duid}, nil
}

// EncodeNID packs NAC/DUID into an 8-byte NID block, zero-filling the
// parity bytes a real BCH(63,16) encoder would otherwise compute.
func EncodeNID(n *NID) []byte {
	out := make([]byte, 8)
	out[0] = byte(n.NAC >> 4)
	out[1] = byte(n.NAC<<4) | (byte(n.DUID) & 0x0F)
	return out
}
