package kmm

import "testing"

type fakeSender struct {
	sent []*Message
}

func (f *fakeSender) SendKMM(msg *Message) { f.sent = append(f.sent, msg) }

func TestRequestKeySendsInventoryCmd(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, nil)

	var received []byte
	m.RequestKey(0x84, 5, func(key []byte) { received = key })

	if len(sender.sent) != 1 || sender.sent[0].MessageID != MessageInventoryCmd {
		t.Fatalf("expected one INVENTORY_CMD sent, got %+v", sender.sent)
	}

	body, err := DecodeInventoryCmdBody(sender.sent[0].Body)
	if err != nil {
		t.Fatalf("DecodeInventoryCmdBody: %v", err)
	}
	if body.AlgID != 0x84 || body.KeyID != 5 {
		t.Fatalf("expected request narrowed to algID/keyID, got %+v", body)
	}
	if received != nil {
		t.Fatal("callback should not fire until a response arrives")
	}
}

func TestInventoryResponseResolvesPendingCallback(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, nil)

	var received []byte
	m.RequestKey(0x84, 5, func(key []byte) { received = key })

	rsp := &InventoryRspBody{Type: InventoryListActiveKeyIDs, Items: []*KeyItem{{AlgID: 0x84, KeyID: 5, Key: []byte{1, 2, 3}}}}
	m.HandleMessage(&Message{MessageID: MessageInventoryRsp, Body: rsp.Encode()})

	if string(received) != string([]byte{1, 2, 3}) {
		t.Fatalf("expected callback to receive the key item's key, got %v", received)
	}
}

func TestModifyKeyCmdResolvesPendingCallback(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, nil)

	var received []byte
	m.RequestKey(0x84, 5, func(key []byte) { received = key })

	cmd := &ModifyKeyCmd{DecryptInstruction: DecryptInstructNone, Items: []*KeyItem{{AlgID: 0x84, KeyID: 5, Key: []byte{9, 9, 9}}}}
	m.HandleMessage(&Message{MessageID: MessageModifyKeyCmd, Body: cmd.Encode()})

	if string(received) != string([]byte{9, 9, 9}) {
		t.Fatalf("expected MODIFY_KEY_CMD delivery to resolve the pending request, got %v", received)
	}
}

func TestModifyKeyCmdForUnrequestedKeyDoesNotPanic(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, nil)

	cmd := &ModifyKeyCmd{Items: []*KeyItem{{AlgID: 0x84, KeyID: 99, Key: []byte{1}}}}
	m.HandleMessage(&Message{MessageID: MessageModifyKeyCmd, Body: cmd.Encode()})
}

func TestRegCmdRepliesWithRegRsp(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, nil)

	reg := &RegBody{RSI: 0x001234}
	m.HandleMessage(&Message{MessageID: MessageRegCmd, Body: reg.Encode()})

	if len(sender.sent) != 1 || sender.sent[0].MessageID != MessageRegRsp {
		t.Fatalf("expected one REG_RSP sent, got %+v", sender.sent)
	}
	out, err := DecodeRegBody(sender.sent[0].Body)
	if err != nil {
		t.Fatalf("DecodeRegBody: %v", err)
	}
	if out.RSI != 0x001234 {
		t.Fatalf("expected REG_RSP to echo the registering RSI, got %#x", out.RSI)
	}
}

func TestNAKDoesNotPanicWithoutLogger(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, nil)

	nak := &NAKBody{RefusedMessageID: MessageInventoryCmd, Status: StatusInvalidKID}
	m.HandleMessage(&Message{MessageID: MessageNAK, Body: nak.Encode()})
}
