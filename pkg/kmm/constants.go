// Package kmm implements the P25 Key Management Message subset the FNE
// needs for TEK delivery (spec.md §4.8): MODIFY_KEY_CMD in, NAK with a
// KMM_Status reason, HELLO, the SU registration pair, and the
// INVENTORY_CMD/INVENTORY_RSP request the patch engine uses to ask for
// a key it doesn't yet hold. Constants are transcribed from
// original_source/src/common/p25/P25Defines.h's KMM_* namespaces — no
// pack example carries a KMM codec of its own.
package kmm

// SAP values a KMM PDU is carried under.
const (
	SAPUnencryptedKMM = 0x28
	SAPEncryptedKMM   = 0x29
)

// MessageType is the KMM message type field (KMM_MessageType).
type MessageType uint8

const (
	MessageNull MessageType = 0x00

	MessageChangeRSICmd MessageType = 0x03
	MessageChangeRSIRsp MessageType = 0x04
	MessageChangeoverCmd MessageType = 0x05
	MessageChangeoverRsp MessageType = 0x06

	MessageHello MessageType = 0x0C

	MessageInventoryCmd MessageType = 0x0D
	MessageInventoryRsp MessageType = 0x0E

	MessageModifyKeyCmd MessageType = 0x13

	MessageNAK       MessageType = 0x16
	MessageNoService MessageType = 0x17

	MessageZeroizeCmd MessageType = 0x21
	MessageZeroizeRsp MessageType = 0x22

	MessageDeregCmd MessageType = 0x23
	MessageDeregRsp MessageType = 0x24
	MessageRegCmd   MessageType = 0x25
	MessageRegRsp   MessageType = 0x26
)

// ResponseKind is the KMM_ResponseKind field.
type ResponseKind uint8

const (
	ResponseNone      ResponseKind = 0x00
	ResponseDelayed   ResponseKind = 0x01
	ResponseImmediate ResponseKind = 0x02
)

// MAC is the KMM_MAC message-authentication field.
type MAC uint8

const (
	MACNone MAC = 0x00
	MACEnh  MAC = 0x02
	MACDES  MAC = 0x03
)

// InventoryType is the KMM_InventoryType field an INVENTORY_CMD carries.
type InventoryType uint8

const (
	InventoryNull                  InventoryType = 0x00
	InventoryListActiveKeysetIDs   InventoryType = 0x01
	InventoryListInactiveKeysetIDs InventoryType = 0x02
	InventoryListActiveKeyIDs      InventoryType = 0x03
	InventoryListInactiveKeyIDs    InventoryType = 0x04
)

// HelloFlag is the KMM_HelloFlag field.
type HelloFlag uint8

const (
	HelloIdentOnly         HelloFlag = 0x00
	HelloRekeyRequestUKEK  HelloFlag = 0x01
	HelloRekeyRequestNoKEK HelloFlag = 0x02
)

// Status is the KMM_Status field a NAK carries.
type Status uint8

const (
	StatusCmdPerformed    Status = 0x00
	StatusCmdNotPerformed Status = 0x01

	StatusItemNotExist   Status = 0x02
	StatusInvalidMsgID   Status = 0x03
	StatusInvalidMAC     Status = 0x04

	StatusOutOfMemory    Status = 0x05
	StatusFailedToDecrypt Status = 0x06

	StatusInvalidMsgNumber Status = 0x07
	StatusInvalidKID       Status = 0x08
	StatusInvalidAlgID     Status = 0x09
	StatusInvalidMFID      Status = 0x0A

	StatusMIAllZero Status = 0x0C
	StatusKeyFail   Status = 0x0D

	StatusUnknown Status = 0xFF
)

func (s Status) String() string {
	switch s {
	case StatusCmdPerformed:
		return "command performed"
	case StatusCmdNotPerformed:
		return "command was not performed"
	case StatusItemNotExist:
		return "item does not exist"
	case StatusInvalidMsgID:
		return "invalid message ID"
	case StatusInvalidMAC:
		return "invalid message authentication code"
	case StatusOutOfMemory:
		return "out of memory"
	case StatusFailedToDecrypt:
		return "failed to decrypt message"
	case StatusInvalidMsgNumber:
		return "invalid message number"
	case StatusInvalidKID:
		return "invalid key ID"
	case StatusInvalidAlgID:
		return "invalid algorithm ID"
	case StatusInvalidMFID:
		return "invalid manufacturer ID"
	case StatusMIAllZero:
		return "message indicator all zero"
	case StatusKeyFail:
		return "key identified by algorithm/key ID is erased"
	default:
		return "unknown"
	}
}

// Decryption instruction field values.
const (
	DecryptInstructNone = 0x00
	DecryptInstructMI   = 0x40
)

// Key format field bits (KEY_FORMAT_*).
const (
	KeyFormatTEK       = 0x80
	KeyFormatKEKExists = 0x40
	KeyFormatDelete    = 0x20
)
