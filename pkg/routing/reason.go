package routing

// ReasonCode is the enumeration of grant/ACL failure reasons carried
// back to peers in CSBK/TSBK response opcodes (spec.md §4.6, §7).
type ReasonCode uint8

const (
	ReasonNone                     ReasonCode = 0x00
	ReasonTSAckRsnMsg              ReasonCode = 0x01
	ReasonTSDenyRsnTgtBusy         ReasonCode = 0x02
	ReasonTSDenyRsnTgtGroupNotValid ReasonCode = 0x03
	ReasonTSQueuedRsnNoResource    ReasonCode = 0x04
	ReasonTSDenyRsnPermError       ReasonCode = 0x05
	ReasonTSDenyRsnAclReject       ReasonCode = 0x06
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonTSAckRsnMsg:
		return "TS_ACK_RSN_MSG"
	case ReasonTSDenyRsnTgtBusy:
		return "TS_DENY_RSN_TGT_BUSY"
	case ReasonTSDenyRsnTgtGroupNotValid:
		return "TS_DENY_RSN_TGT_GROUP_NOT_VALID"
	case ReasonTSQueuedRsnNoResource:
		return "TS_QUEUED_RSN_NO_RESOURCE"
	case ReasonTSDenyRsnPermError:
		return "TS_DENY_RSN_PERM_ERROR"
	case ReasonTSDenyRsnAclReject:
		return "TS_DENY_RSN_ACL_REJECT"
	default:
		return "UNKNOWN"
	}
}
