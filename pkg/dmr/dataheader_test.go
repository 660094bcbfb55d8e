package dmr

import "testing"

func TestDataHeaderUnconfirmedRoundTrip(t *testing.T) {
	h := &DataHeader{
		DPF:      DPFUnconfirmedData,
		GI:       true,
		SAP:      0x04,
		SrcID:    0x010203,
		DstID:    0x0A0B0C,
		Blocks:   5,
		PadCount: 3,
		FSN:      7,
	}
	block := EncodeDataHeader(h)
	got, err := DecodeDataHeader(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.DPF != h.DPF || got.GI != h.GI || got.SAP != h.SAP {
		t.Fatalf("header mismatch: %+v vs %+v", got, h)
	}
	if got.SrcID != h.SrcID || got.DstID != h.DstID {
		t.Fatalf("address mismatch: got src=%x dst=%x want src=%x dst=%x", got.SrcID, got.DstID, h.SrcID, h.DstID)
	}
	if got.Blocks != h.Blocks || got.PadCount != h.PadCount || got.FSN != h.FSN {
		t.Fatalf("field mismatch: %+v vs %+v", got, h)
	}
}

func TestDataHeaderConfirmedRoundTrip(t *testing.T) {
	h := &DataHeader{
		DPF:   DPFConfirmedData,
		SAP:   0x01,
		SrcID: 0x112233,
		DstID: 0x445566,
		Ns:    3,
		FSN:   2,
	}
	block := EncodeDataHeader(h)
	got, err := DecodeDataHeader(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.Ns != h.Ns || got.FSN != h.FSN {
		t.Fatalf("sequence fields mismatch: %+v vs %+v", got, h)
	}
}

func TestDataHeaderRejectsCorruptCRC(t *testing.T) {
	h := &DataHeader{DPF: DPFUnconfirmedData, SrcID: 1, DstID: 2}
	block := EncodeDataHeader(h)
	// Invert every byte of the block, far more damage than BPTC's
	// single-error correction can undo, forcing a CRC mismatch.
	corrupt := make([]byte, len(block))
	copy(corrupt, block)
	for i := range corrupt {
		corrupt[i] ^= 0xFF
	}
	if _, err := DecodeDataHeader(corrupt); err == nil {
		t.Fatal("expected decode error on heavily corrupted block")
	}
}
