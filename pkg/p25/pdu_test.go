package p25

import "testing"

func TestPDUHeaderRoundTrip(t *testing.T) {
	h := &PDUHeader{
		Confirmed: true,
		SAP:       0x03,
		Blocks:    4,
		DstLLID:   0x0A0B0C,
		SrcLLID:   0x010203,
	}
	wire := EncodePDUHeader(h)
	got, err := DecodePDUHeader(wire)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.Confirmed != h.Confirmed || got.SAP != h.SAP || got.Blocks != h.Blocks {
		t.Fatalf("header fields mismatch: %+v vs %+v", got, h)
	}
	if got.DstLLID != h.DstLLID || got.SrcLLID != h.SrcLLID {
		t.Fatalf("address mismatch: %+v vs %+v", got, h)
	}
}

func TestConfirmedPDUBlockRoundTrip(t *testing.T) {
	data := make([]byte, PDUConfirmedBlockLen-2)
	for i := range data {
		data[i] = byte(i + 1)
	}
	block := &PDUBlock{Data: data, Confirmed: true}
	wire := EncodePDUBlock(block)
	got, err := DecodePDUBlock(wire, true)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	for i := range data {
		if got.Data[i] != data[i] {
			t.Fatalf("byte %d mismatch: got %#x want %#x", i, got.Data[i], data[i])
		}
	}
}

func TestConfirmedPDUBlockDetectsCorruption(t *testing.T) {
	data := make([]byte, PDUConfirmedBlockLen-2)
	block := &PDUBlock{Data: data, Confirmed: true}
	wire := EncodePDUBlock(block)
	wire[0] ^= 0xFF
	if _, err := DecodePDUBlock(wire, true); err == nil {
		t.Fatal("expected CRC-9 mismatch on corrupted confirmed block")
	}
}

func TestReassemblePDUOrdersBySequence(t *testing.T) {
	blocks := []*PDUBlock{
		{SeqNo: 2, Data: []byte("C")},
		{SeqNo: 0, Data: []byte("A")},
		{SeqNo: 1, Data: []byte("B")},
	}
	got := string(ReassemblePDU(blocks))
	if got != "ABC" {
		t.Fatalf("expected reassembly ABC, got %s", got)
	}
}
