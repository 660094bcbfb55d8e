package p25

import "testing"

func TestTSBKRoundTrip(t *testing.T) {
	tsbk := &TSBK{
		LastBlock: true,
		Opcode:    TSBKOIOSPGrpVCh,
		MFID:      MFIDStandard,
		DstID:     0x0A0B0C,
		SrcID:     0x010203,
	}
	block := EncodeTSBK(tsbk)
	got, err := DecodeTSBK(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.Opcode != tsbk.Opcode || got.LastBlock != tsbk.LastBlock || got.MFID != tsbk.MFID {
		t.Fatalf("TSBK fields mismatch: %+v vs %+v", got, tsbk)
	}
	if got.DstID != tsbk.DstID || got.SrcID != tsbk.SrcID {
		t.Fatalf("address mismatch: got src=%x dst=%x want src=%x dst=%x", got.SrcID, got.DstID, tsbk.SrcID, tsbk.DstID)
	}
}

func TestDecodeTSDUStopsAtLastBlock(t *testing.T) {
	first := &TSBK{Opcode: TSBKOIOSPGrpAff, LastBlock: false}
	second := &TSBK{Opcode: TSBKOIOSPStsUpdt, LastBlock: true}
	blocks := [][]byte{EncodeTSBK(first), EncodeTSBK(second)}
	got, err := DecodeTSDU(blocks)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 decoded TSBKs, got %d", len(got))
	}
	if !got[1].LastBlock {
		t.Fatal("expected second block to carry LastBlock")
	}
}

func TestDecodeTSDURejectsTooManyBlocks(t *testing.T) {
	blocks := make([][]byte, 4)
	if _, err := DecodeTSDU(blocks); err == nil {
		t.Fatal("expected error for a 4-block TSDU")
	}
}
