package p25

import "testing"

func TestTDULCRoundTrip(t *testing.T) {
	lc := &TDULC{LCO: 0x00, MFID: MFIDStandard, DstID: 0x0A0B0C, SrcID: 0x010203}
	block := EncodeTDULC(lc)
	got, err := DecodeTDULC(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.LCO != lc.LCO || got.MFID != lc.MFID || got.DstID != lc.DstID || got.SrcID != lc.SrcID {
		t.Fatalf("TDULC mismatch: %+v vs %+v", got, lc)
	}
}
