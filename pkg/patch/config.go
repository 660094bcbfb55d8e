// Package patch implements the talkgroup patch/cross-connect engine
// (spec.md §4.7): it bridges two TGIDs, optionally across DMR slots
// and across cryptographic keys, acting as a network peer rather than
// a routing-table entry. Grounded on original_source/src/patch's
// HostPatch (config shape, direction state, grant-demand/MMDVM
// reflector variant), re-expressed against pkg/transport's Frame
// idiom and pkg/cryptolayer's keystream API instead of HostPatch's
// direct libdvmhost calls.
package patch

// Mode distinguishes DMR from P25 patch legs, mirroring TX_MODE_DMR /
// TX_MODE_P25 in HostPatch.h.
type Mode uint8

const (
	ModeDMR Mode = 1
	ModeP25 Mode = 2
)

// Config is one patch engine's static configuration.
type Config struct {
	Mode Mode

	SrcTGID uint32
	SrcSlot int
	DstTGID uint32
	DstSlot int

	TwoWay bool

	// GrantDemand emits a pre-arm TDU with the remote-grant flag on
	// call start so downstream trunking controllers ready the
	// destination channel ahead of voice traffic.
	GrantDemand bool

	// MMDVMP25Reflector bridges to an external MMDVM-gateway P25 peer
	// using the REC62..REC73/REC80 per-IMBE record framing instead of
	// native DVM network frames.
	MMDVMP25Reflector bool

	SrcTEKAlgID uint8
	SrcTEKKeyID uint16
	DstTEKAlgID uint8
	DstTEKKeyID uint16
}
