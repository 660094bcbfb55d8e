package kmm

import (
	"sync"

	"github.com/dvmgo/dvmfne/pkg/logger"
)

// Sender emits a KMM message toward the FNE's key-management facility.
// Satisfied by whatever carries KMM PDUs on the wire (a P25 PDU
// transmit path); kept narrow so Manager can be exercised without one.
type Sender interface {
	SendKMM(msg *Message)
}

type pendingKey struct {
	algID uint8
	keyID uint16
}

// Manager is the FNE-side KMM endpoint the patch engine's
// KeyRequester interface talks to (spec.md §4.8): it turns a
// (algorithm, key ID) request into an INVENTORY_CMD, resolves the
// matching callback when the INVENTORY_RSP or an unsolicited
// MODIFY_KEY_CMD delivers the key item, and logs NAKs with their
// KMM_Status reason.
type Manager struct {
	mu      sync.Mutex
	pending map[pendingKey]func(key []byte)

	sender Sender
	log    *logger.Logger
}

func NewManager(sender Sender, log *logger.Logger) *Manager {
	return &Manager{
		pending: make(map[pendingKey]func(key []byte)),
		sender:  sender,
		log:     log,
	}
}

// RequestKey implements pkg/patch.KeyRequester: it sends an
// INVENTORY_CMD narrowed to algID/keyID and remembers onReceived so a
// later INVENTORY_RSP or MODIFY_KEY_CMD can resolve it.
func (m *Manager) RequestKey(algID uint8, keyID uint16, onReceived func(key []byte)) {
	m.mu.Lock()
	m.pending[pendingKey{algID, keyID}] = onReceived
	m.mu.Unlock()

	body := (&InventoryCmdBody{Type: InventoryListActiveKeyIDs, AlgID: algID, KeyID: keyID}).Encode()
	m.sender.SendKMM(&Message{MessageID: MessageInventoryCmd, ResponseKind: ResponseImmediate, Body: body})
}

// HandleMessage dispatches an incoming KMM message: MODIFY_KEY_CMD (key
// delivery in), INVENTORY_RSP (the response to our own request), NAK
// (delivery failed), HELLO, and the registration pair. Anything else
// is outside the core's handled set and is dropped.
func (m *Manager) HandleMessage(msg *Message) {
	switch msg.MessageID {
	case MessageModifyKeyCmd:
		m.handleModifyKey(msg.Body)
	case MessageInventoryRsp:
		m.handleInventoryRsp(msg.Body)
	case MessageNAK:
		m.handleNAK(msg.Body)
	case MessageHello:
		m.handleHello(msg.Body)
	case MessageRegCmd:
		m.handleRegCmd(msg.Body)
	}
}

func (m *Manager) resolve(ki *KeyItem) {
	m.mu.Lock()
	cb, ok := m.pending[pendingKey{ki.AlgID, ki.KeyID}]
	if ok {
		delete(m.pending, pendingKey{ki.AlgID, ki.KeyID})
	}
	m.mu.Unlock()
	if ok {
		cb(ki.Key)
	}
}

func (m *Manager) handleModifyKey(body []byte) {
	cmd, err := DecodeModifyKeyCmd(body)
	if err != nil {
		if m.log != nil {
			m.log.Error("malformed MODIFY_KEY_CMD", logger.Error(err))
		}
		return
	}
	for _, ki := range cmd.Items {
		m.resolve(ki)
	}
}

func (m *Manager) handleInventoryRsp(body []byte) {
	rsp, err := DecodeInventoryRspBody(body)
	if err != nil {
		if m.log != nil {
			m.log.Error("malformed INVENTORY_RSP", logger.Error(err))
		}
		return
	}
	for _, ki := range rsp.Items {
		m.resolve(ki)
	}
}

func (m *Manager) handleNAK(body []byte) {
	nak, err := DecodeNAKBody(body)
	if err != nil {
		if m.log != nil {
			m.log.Error("malformed NAK", logger.Error(err))
		}
		return
	}
	if m.log != nil {
		m.log.Warn("KMM request refused",
			logger.String("refused_message", messageName(nak.RefusedMessageID)),
			logger.String("status", nak.Status.String()))
	}
}

func (m *Manager) handleHello(body []byte) {
	if _, err := DecodeHelloBody(body); err != nil && m.log != nil {
		m.log.Error("malformed HELLO", logger.Error(err))
	}
}

func (m *Manager) handleRegCmd(body []byte) {
	reg, err := DecodeRegBody(body)
	if err != nil {
		if m.log != nil {
			m.log.Error("malformed REG_CMD", logger.Error(err))
		}
		return
	}
	m.sender.SendKMM(&Message{MessageID: MessageRegRsp, ResponseKind: ResponseNone, Body: (&RegBody{RSI: reg.RSI}).Encode()})
}

func messageName(t MessageType) string {
	switch t {
	case MessageHello:
		return "HELLO"
	case MessageInventoryCmd:
		return "INVENTORY_CMD"
	case MessageInventoryRsp:
		return "INVENTORY_RSP"
	case MessageModifyKeyCmd:
		return "MODIFY_KEY_CMD"
	case MessageRegCmd:
		return "REG_CMD"
	case MessageRegRsp:
		return "REG_RSP"
	default:
		return "unknown"
	}
}
