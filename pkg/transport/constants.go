// Package transport implements the FNE wire framing (spec.md §4.5/§6):
// a 12-byte RTP header plus a fixed framing header identifying
// {function, subfunction, peer-id, stream-id}, with an optional
// AES-wrapped preshared-key envelope around the body. Grounded on
// pkg/protocol/auth.go's Parse/Encode-struct idiom and
// pkg/network/server.go's context-cancellable receive-loop shape,
// generalized from DMRD-only HBP framing to the RTP-framed, opcode-
// dispatched wire format spec.md describes.
package transport

// NetFunc identifies the top-level datagram function.
type NetFunc uint8

const (
	NetFuncProtocol    NetFunc = 0x00
	NetFuncRPTL        NetFunc = 0x01
	NetFuncRPTK        NetFunc = 0x02
	NetFuncRPTC        NetFunc = 0x03
	NetFuncPing        NetFunc = 0x04
	NetFuncPong        NetFunc = 0x05
	NetFuncGrantReq    NetFunc = 0x06
	NetFuncTransfer    NetFunc = 0x07
	NetFuncAnnounce    NetFunc = 0x08
	NetFuncMaster      NetFunc = 0x09
	NetFuncAck         NetFunc = 0x0A
	NetFuncNak         NetFunc = 0x0B
	NetFuncRptClosing  NetFunc = 0x0C
	NetFuncMstClosing  NetFunc = 0x0D
)

// NetProtocolSubfunc identifies the sub-protocol within a PROTOCOL
// function datagram.
type NetProtocolSubfunc uint8

const (
	NetProtocolSubfuncDMR  NetProtocolSubfunc = 0x00
	NetProtocolSubfuncP25  NetProtocolSubfunc = 0x01
	NetProtocolSubfuncNXDN NetProtocolSubfunc = 0x02
)

// NetAnncSubfunc identifies the announcement kind within an ANNOUNCE
// function datagram.
type NetAnncSubfunc uint8

const (
	NetAnncSubfuncGrpAffil     NetAnncSubfunc = 0x00
	NetAnncSubfuncGrpAffilBulk NetAnncSubfunc = 0x01
	NetAnncSubfuncUnitReg      NetAnncSubfunc = 0x02
	NetAnncSubfuncUnitDereg    NetAnncSubfunc = 0x03
)

// NetTransferSubfunc identifies the transfer kind within a TRANSFER
// function datagram.
type NetTransferSubfunc uint8

const (
	NetTransferSubfuncActivity NetTransferSubfunc = 0x00
	NetTransferSubfuncDiag     NetTransferSubfunc = 0x01
)

// NAK tags, logged with the peer ID and never carrying a payload
// (spec.md §4.4).
const (
	TagRepeaterLogin  = "TAG_REPEATER_LOGIN"
	TagRepeaterAuth   = "TAG_REPEATER_AUTH"
	TagRepeaterConfig = "TAG_REPEATER_CONFIG"
	TagRepeaterPing   = "TAG_REPEATER_PING"
	TagTransferActLog = "TAG_TRANSFER_ACT_LOG"
	TagTransferDiag   = "TAG_TRANSFER_DIAG_LOG"
	TagAnnounce       = "TAG_ANNOUNCE"
)

// RTPHeaderLen is the fixed RTP header size every datagram carries
// (spec.md §4.5).
const RTPHeaderLen = 12

// FrameHeaderLen is the fixed framing header size: function(1) +
// subfunction(1) + peer-id(4) + stream-id(4) = 10 bytes.
const FrameHeaderLen = 10

// RTPEndOfCallSeq is the sentinel sequence number marking a stream
// terminator; receipt resets the next-expected counter to zero
// (spec.md §4.5).
const RTPEndOfCallSeq = 0xFFFE

// AESWrappedPckKeyLen is the AES key-wrap header length for the
// optional preshared-key envelope (spec.md §4.5/§9). This wrap is
// distinct from in-band KMM TEKs and must never share key material
// with them.
const AESWrappedPckKeyLen = 16
