package dmr

import "testing"

func TestCSBKGrantRoundTrip(t *testing.T) {
	c := &CSBK{
		Opcode:    CSBKOTVGrant,
		LastBlock: true,
		FID:       FIDETSI,
		DstID:     0x112233,
		SrcID:     0x445566,
	}
	block := EncodeCSBK(c)
	got, err := DecodeCSBK(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.Opcode != c.Opcode || got.LastBlock != c.LastBlock || got.FID != c.FID {
		t.Fatalf("csbk fields mismatch: %+v vs %+v", got, c)
	}
	if got.DstID != c.DstID || got.SrcID != c.SrcID {
		t.Fatalf("address mismatch: got src=%x dst=%x want src=%x dst=%x", got.SrcID, got.DstID, c.SrcID, c.DstID)
	}
	if !GrantOpcode(got.Opcode) {
		t.Fatal("expected TVGrant to be classified as a grant opcode")
	}
}

func TestCSBKBroadcastRoundTrip(t *testing.T) {
	c := &CSBK{
		Opcode:    CSBKOBroadcast,
		FID:       FIDETSI,
		BcastType: AnncSiteParms,
	}
	block := EncodeCSBK(c)
	got, err := DecodeCSBK(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.BcastType != c.BcastType {
		t.Fatalf("broadcast subtype mismatch: got %v want %v", got.BcastType, c.BcastType)
	}
}

func TestNonGrantOpcodeIsNotClassifiedAsGrant(t *testing.T) {
	if GrantOpcode(CSBKOAloha) {
		t.Fatal("ALOHA must not be classified as a grant opcode")
	}
}
