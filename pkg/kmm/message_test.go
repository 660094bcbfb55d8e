package kmm

import "testing"

func TestMessageRoundTrip(t *testing.T) {
	m := &Message{MessageID: MessageModifyKeyCmd, ResponseKind: ResponseImmediate, MAC: MACNone, Body: []byte{1, 2, 3}}
	out, err := DecodeMessage(m.Encode())
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if out.MessageID != m.MessageID || out.ResponseKind != m.ResponseKind || len(out.Body) != 3 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestModifyKeyCmdRoundTrip(t *testing.T) {
	cmd := &ModifyKeyCmd{
		DecryptInstruction: DecryptInstructMI,
		Items: []*KeyItem{
			{AlgID: 0x84, KeyID: 1, SLN: 100, Format: KeyFormatTEK, Key: []byte{0xAA, 0xBB, 0xCC}},
			{AlgID: 0x84, KeyID: 2, SLN: 101, Format: KeyFormatTEK, Key: make([]byte, 32)},
		},
	}
	out, err := DecodeModifyKeyCmd(cmd.Encode())
	if err != nil {
		t.Fatalf("DecodeModifyKeyCmd: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 key items, got %d", len(out.Items))
	}
	if out.Items[0].KeyID != 1 || out.Items[1].KeyID != 2 {
		t.Fatalf("key IDs mismatched after round trip: %+v", out.Items)
	}
	if out.Items[0].SLN != 100 || len(out.Items[1].Key) != 32 {
		t.Fatalf("key item fields mismatched after round trip: %+v", out.Items)
	}
}

func TestNAKBodyRoundTrip(t *testing.T) {
	n := &NAKBody{RefusedMessageID: MessageInventoryCmd, Status: StatusInvalidKID}
	out, err := DecodeNAKBody(n.Encode())
	if err != nil {
		t.Fatalf("DecodeNAKBody: %v", err)
	}
	if out.RefusedMessageID != MessageInventoryCmd || out.Status != StatusInvalidKID {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	cmd := &InventoryCmdBody{Type: InventoryListActiveKeyIDs, AlgID: 0x84, KeyID: 7}
	out, err := DecodeInventoryCmdBody(cmd.Encode())
	if err != nil {
		t.Fatalf("DecodeInventoryCmdBody: %v", err)
	}
	if out.AlgID != 0x84 || out.KeyID != 7 {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	rsp := &InventoryRspBody{Type: InventoryListActiveKeyIDs, Items: []*KeyItem{{AlgID: 0x84, KeyID: 7, Key: []byte{1, 2}}}}
	gotRsp, err := DecodeInventoryRspBody(rsp.Encode())
	if err != nil {
		t.Fatalf("DecodeInventoryRspBody: %v", err)
	}
	if len(gotRsp.Items) != 1 || gotRsp.Items[0].KeyID != 7 {
		t.Fatalf("inventory response round trip mismatch: %+v", gotRsp)
	}
}

func TestDecodeMessageRejectsShortFrame(t *testing.T) {
	if _, err := DecodeMessage([]byte{0x13, 0x00}); err == nil {
		t.Fatal("expected short-frame error")
	}
}

func TestDecodeKeyItemRejectsTruncatedKey(t *testing.T) {
	// header claims 10 bytes of key material but only provides 2
	short := []byte{0x84, 0x00, 0x01, 0x00, 0x64, 0x80, 10, 0xAA, 0xBB}
	if _, err := DecodeModifyKeyCmd(append([]byte{DecryptInstructMI, 1}, short...)); err == nil {
		t.Fatal("expected truncated key item error")
	}
}
