// Package dmr implements the DMR (ETSI TS-102 361) air-interface frame
// codecs the FNE router uses to decode, validate, and re-encode bursts
// forwarded between peers: data headers, Full/Privacy link control, CSBKs,
// and the sync/EMB framing that carries them. Grounded on
// pkg/protocol/constants.go's field-offset-and-Parse/Encode idiom, with
// FEC delegated to pkg/edac.
package dmr

// DPF identifies the Data Packet Format carried by a data header.
type DPF uint8

const (
	DPFUDT             DPF = 0x00
	DPFResponse        DPF = 0x01
	DPFUnconfirmedData DPF = 0x02
	DPFConfirmedData   DPF = 0x03
	DPFDefinedShort    DPF = 0x0D
	DPFDefinedRaw      DPF = 0x0E
	DPFProprietary     DPF = 0x0F
)

// DataType identifies the slot-level DMR burst content (spec.md §4.2).
type DataType uint8

const (
	DataTypeVoicePIHeader   DataType = 0x00
	DataTypeVoiceLCHeader   DataType = 0x01
	DataTypeTerminatorWithLC DataType = 0x02
	DataTypeCSBK            DataType = 0x03
	DataTypeMBCHeader       DataType = 0x04
	DataTypeMBCData         DataType = 0x05
	DataTypeDataHeader      DataType = 0x06
	DataTypeRate12Data      DataType = 0x07
	DataTypeRate34Data      DataType = 0x08
	DataTypeIdle            DataType = 0x09
	DataTypeRate1Data       DataType = 0x0A
)

// Feature IDs.
const (
	FIDETSI   = 0x00
	FIDDMRA   = 0x10
	FIDDVMOCS = 0x9C
)

// FLCO is the Full Link Control Opcode.
type FLCO uint8

const (
	FLCOGroup             FLCO = 0x00
	FLCOPrivate           FLCO = 0x03
	FLCOTalkerAliasHeader FLCO = 0x04
	FLCOTalkerAliasBlock1 FLCO = 0x05
	FLCOTalkerAliasBlock2 FLCO = 0x06
	FLCOTalkerAliasBlock3 FLCO = 0x07
	FLCOGPSInfo           FLCO = 0x08
)

// CSBKO is the Control Signalling Block Opcode.
type CSBKO uint8

const (
	CSBKONone      CSBKO = 0x00
	CSBKOUUVReq    CSBKO = 0x04
	CSBKOUUAnsRsp  CSBKO = 0x05
	CSBKOCTCSBK    CSBKO = 0x07
	CSBKOAloha     CSBKO = 0x19
	CSBKOAhoy      CSBKO = 0x1C
	CSBKORand      CSBKO = 0x1F
	CSBKOAckRsp    CSBKO = 0x20
	CSBKOExtFnct   CSBKO = 0x24
	CSBKONackRsp   CSBKO = 0x26
	CSBKOBroadcast CSBKO = 0x28
	CSBKOMaint     CSBKO = 0x2A
	CSBKOPClear    CSBKO = 0x2E
	CSBKOPVGrant   CSBKO = 0x30
	CSBKOTVGrant   CSBKO = 0x31
	CSBKOBTVGrant  CSBKO = 0x32
	CSBKOPDGrant   CSBKO = 0x33
	CSBKOTDGrant   CSBKO = 0x34
	CSBKOBSDwnAct  CSBKO = 0x38
	CSBKOPreCSBK   CSBKO = 0x3D
	CSBKODVMGitHash CSBKO = 0x3F
)

// BroadcastAnncType is the CSBK BROADCAST subtype byte.
type BroadcastAnncType uint8

const (
	AnncAnnWdTSCC     BroadcastAnncType = 0x00
	AnncCallTimerParms BroadcastAnncType = 0x01
	AnncVoteNow       BroadcastAnncType = 0x02
	AnncLocalTime     BroadcastAnncType = 0x03
	AnncMassReg       BroadcastAnncType = 0x04
	AnncChanFreq      BroadcastAnncType = 0x05
	AnncAdjSite       BroadcastAnncType = 0x06
	AnncSiteParms     BroadcastAnncType = 0x07
)

// CRC-CCITT-16 XOR masks applied before/after BPTC+CRC verification,
// distinguishing header/LC variants that would otherwise share a wire
// format (spec.md §4.2).
const (
	DataHeaderCRCMask       = 0xCCCC
	VoiceLCHeaderCRCMask    = 0x9696
	TerminatorWithLCCRCMask = 0x9999
	PIHeaderCRCMask         = 0x6969
	CSBKCRCMask             = 0xA5A5
)

// LC service option flags (byte 2 of a 9-byte Full/Privacy LC payload).
const (
	LCSvcOptEmergency = 0x80
	LCSvcOptPrivacy   = 0x40
	LCSvcOptBcast     = 0x08
	LCSvcOptOVCM      = 0x04
)
