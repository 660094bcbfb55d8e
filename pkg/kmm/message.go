package kmm

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// Message is a decoded KMM PDU payload: messageID(1) responseKind(1)
// mac(1) body(...), carried inside a P25 PDU whose SAP is
// SAPUnencryptedKMM or SAPEncryptedKMM (spec.md §4.8).
type Message struct {
	MessageID    MessageType
	ResponseKind ResponseKind
	MAC          MAC
	Body         []byte
}

// DecodeMessage unpacks a reassembled KMM PDU payload.
func DecodeMessage(raw []byte) (*Message, error) {
	if len(raw) < 3 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "KMM message shorter than fixed header")
	}
	return &Message{
		MessageID:    MessageType(raw[0]),
		ResponseKind: ResponseKind(raw[1]),
		MAC:          MAC(raw[2]),
		Body:         append([]byte(nil), raw[3:]...),
	}, nil
}

// Encode packs a Message back into a KMM PDU payload.
func (m *Message) Encode() []byte {
	out := make([]byte, 3+len(m.Body))
	out[0] = byte(m.MessageID)
	out[1] = byte(m.ResponseKind)
	out[2] = byte(m.MAC)
	copy(out[3:], m.Body)
	return out
}

// ModifyKeyCmd is MODIFY_KEY_CMD's body: a decryption instruction and
// one or more key items (spec.md §4.8's "key delivery in").
type ModifyKeyCmd struct {
	DecryptInstruction uint8
	Items              []*KeyItem
}

// DecodeModifyKeyCmd parses a MODIFY_KEY_CMD body.
func DecodeModifyKeyCmd(body []byte) (*ModifyKeyCmd, error) {
	if len(body) < 2 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "MODIFY_KEY_CMD shorter than fixed header")
	}
	cmd := &ModifyKeyCmd{DecryptInstruction: body[0]}
	count := int(body[1])
	off := 2
	for i := 0; i < count; i++ {
		ki, n, err := decodeKeyItem(body[off:])
		if err != nil {
			return nil, err
		}
		cmd.Items = append(cmd.Items, ki)
		off += n
	}
	return cmd, nil
}

// Encode packs a ModifyKeyCmd body.
func (c *ModifyKeyCmd) Encode() []byte {
	out := []byte{c.DecryptInstruction, byte(len(c.Items))}
	for _, ki := range c.Items {
		out = append(out, encodeKeyItem(ki)...)
	}
	return out
}

// NAKBody is NAK's body: the message type being refused and a status
// code from KMM_Status (spec.md §4.8).
type NAKBody struct {
	RefusedMessageID MessageType
	Status           Status
}

func DecodeNAKBody(body []byte) (*NAKBody, error) {
	if len(body) < 2 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "NAK body shorter than fixed header")
	}
	return &NAKBody{RefusedMessageID: MessageType(body[0]), Status: Status(body[1])}, nil
}

func (n *NAKBody) Encode() []byte {
	return []byte{byte(n.RefusedMessageID), byte(n.Status)}
}

// HelloBody is HELLO's body: an RSI and a hello flag.
type HelloBody struct {
	RSI  uint32
	Flag HelloFlag
}

func DecodeHelloBody(body []byte) (*HelloBody, error) {
	if len(body) < 4 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "HELLO body shorter than fixed header")
	}
	return &HelloBody{
		RSI:  uint32(body[0])<<16 | uint32(body[1])<<8 | uint32(body[2]),
		Flag: HelloFlag(body[3]),
	}, nil
}

func (h *HelloBody) Encode() []byte {
	return []byte{byte(h.RSI >> 16), byte(h.RSI >> 8), byte(h.RSI), byte(h.Flag)}
}

// RegBody is REG_CMD/REG_RSP's shared body shape: the registering
// unit's RSI (the "registration pair" spec.md §4.8 names).
type RegBody struct {
	RSI uint32
}

func DecodeRegBody(body []byte) (*RegBody, error) {
	if len(body) < 3 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "registration body shorter than fixed header")
	}
	return &RegBody{RSI: uint32(body[0])<<16 | uint32(body[1])<<8 | uint32(body[2])}, nil
}

func (r *RegBody) Encode() []byte {
	return []byte{byte(r.RSI >> 16), byte(r.RSI >> 8), byte(r.RSI)}
}

// InventoryCmdBody is INVENTORY_CMD's body: the inventory type being
// asked for, narrowed to a specific algorithm/key ID when the patch
// engine is the one requesting a TEK it doesn't yet hold.
type InventoryCmdBody struct {
	Type  InventoryType
	AlgID uint8
	KeyID uint16
}

func DecodeInventoryCmdBody(body []byte) (*InventoryCmdBody, error) {
	if len(body) < 4 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "INVENTORY_CMD body shorter than fixed header")
	}
	return &InventoryCmdBody{
		Type:  InventoryType(body[0]),
		AlgID: body[1],
		KeyID: uint16(body[2])<<8 | uint16(body[3]),
	}, nil
}

func (c *InventoryCmdBody) Encode() []byte {
	return []byte{byte(c.Type), c.AlgID, byte(c.KeyID >> 8), byte(c.KeyID)}
}

// InventoryRspBody is INVENTORY_RSP's body: the matching key items,
// reusing the same KeyItem encoding MODIFY_KEY_CMD carries.
type InventoryRspBody struct {
	Type  InventoryType
	Items []*KeyItem
}

func DecodeInventoryRspBody(body []byte) (*InventoryRspBody, error) {
	if len(body) < 2 {
		return nil, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "INVENTORY_RSP body shorter than fixed header")
	}
	rsp := &InventoryRspBody{Type: InventoryType(body[0])}
	count := int(body[1])
	off := 2
	for i := 0; i < count; i++ {
		ki, n, err := decodeKeyItem(body[off:])
		if err != nil {
			return nil, err
		}
		rsp.Items = append(rsp.Items, ki)
		off += n
	}
	return rsp, nil
}

func (r *InventoryRspBody) Encode() []byte {
	out := []byte{byte(r.Type), byte(len(r.Items))}
	for _, ki := range r.Items {
		out = append(out, encodeKeyItem(ki)...)
	}
	return out
}
