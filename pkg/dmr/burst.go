package dmr

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// BurstLen is the fixed DMR physical-layer frame size (spec.md §3/§6):
// 264 bits = two 108-bit information halves framing a 48-bit
// sync/embedded-signalling field.
const BurstLen = 33

// SyncOffset/SyncLen locate the 7-byte sync/EMB field that splits the
// burst's two information halves; the slot-type/color-code byte sits
// immediately before it (spec.md §3, §6).
const (
	SyncOffset = 13
	SyncLen    = 7
)

// PayloadLeftMask/PayloadRightMask mark the outer nibbles of the first
// and last sync-field bytes that actually carry payload bits rather
// than sync, per spec.md §3/§6.
const (
	PayloadLeftMask  = 0xF0
	PayloadRightMask = 0x0F
)

// Sync words, masked so comparisons ignore the outer payload nibbles
// (spec.md §4.1: six distinct sync patterns, matched with up to
// MAX_SYNC_BYTES_ERRS tolerance via edac.MatchSyncMasked).
var (
	SyncBSSourcedVoice = []byte{0x07, 0x55, 0xFD, 0x7D, 0xF7, 0x5F, 0x70}
	SyncBSSourcedData  = []byte{0x0D, 0xFF, 0x57, 0xD7, 0x5D, 0xF5, 0xD0}
	SyncMSSourcedVoice = []byte{0x07, 0xF7, 0xD5, 0xDD, 0x57, 0xDF, 0xD0}
	SyncMSSourcedData  = []byte{0x0D, 0x5D, 0x7F, 0x77, 0xFD, 0x75, 0x70}
	SyncDirectSlot1    = []byte{0x05, 0xD5, 0x77, 0xF7, 0x75, 0xFF, 0x70}
	SyncDirectSlot2    = []byte{0x07, 0x7F, 0xF7, 0xD7, 0x57, 0xDD, 0x50}
)

// SyncMask marks the bits within the 7-byte sync field that are true
// sync (1) versus the two outer payload nibbles (0).
var SyncMask = []byte{0x0F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xF0}

// fecRegionLen is the size of the information-half region surrounding
// the slot-type byte and sync field: 33 - 1 - SyncLen = 25 bytes.
const fecRegionLen = BurstLen - 1 - SyncLen

// fecRegion concatenates the two information halves flanking the
// slot-type byte and sync field, the contiguous region BPTC/CSBK/LC
// blocks are carried in.
func fecRegion(burst []byte) []byte {
	out := make([]byte, 0, fecRegionLen)
	out = append(out, burst[:SyncOffset-1]...)
	out = append(out, burst[SyncOffset+SyncLen:]...)
	return out
}

// setFECRegion writes a fecRegionLen-byte region back into burst,
// leaving the slot-type byte and sync field untouched.
func setFECRegion(burst, region []byte) {
	copy(burst[:SyncOffset-1], region[:SyncOffset-1])
	copy(burst[SyncOffset+SyncLen:], region[SyncOffset-1:])
}

// Burst is one parsed 33-byte DMR physical-layer frame: sync pattern,
// color code / data type (from the slot-type byte), and the
// information halves the FEC-protected blocks live in.
type Burst struct {
	Sync      []byte
	ColorCode uint8
	DataType  DataType

	raw [BurstLen]byte
}

// NewBurst builds an empty burst ready to carry an encoded FEC block.
func NewBurst(sync []byte, colorCode uint8, dataType DataType) *Burst {
	return &Burst{Sync: append([]byte(nil), sync...), ColorCode: colorCode, DataType: dataType}
}

// ParseBurst extracts the sync field and slot-type byte from a 33-byte
// wire burst, leaving the FEC-protected block accessible via FECBlock.
func ParseBurst(data []byte) (*Burst, error) {
	if len(data) < BurstLen {
		return nil, codecerr.New(codecerr.StageFraming, codecerr.ReasonShortInput, "short DMR burst")
	}
	b := &Burst{}
	copy(b.raw[:], data[:BurstLen])
	b.Sync = append([]byte(nil), data[SyncOffset:SyncOffset+SyncLen]...)
	slotType := data[SyncOffset-1]
	b.ColorCode = slotType >> 4
	b.DataType = DataType(slotType & 0x0F)
	return b, nil
}

// Encode packs the sync field, slot-type byte, and whatever FEC block
// was written via SetFECBlock back into a 33-byte wire burst.
func (b *Burst) Encode() []byte {
	out := append([]byte(nil), b.raw[:]...)
	copy(out[SyncOffset:SyncOffset+SyncLen], b.Sync)
	out[SyncOffset-1] = b.ColorCode<<4 | byte(b.DataType)
	return out
}

// FECBlock returns the contiguous 25-byte region DecodeBPTC196 expects,
// trimmed from the burst's information halves.
func (b *Burst) FECBlock() []byte {
	region := fecRegion(b.raw[:])
	return region[:25]
}

// SetFECBlock writes an encoded FEC block (>=25 bytes) into the
// burst's information halves, padding to the full region length.
func (b *Burst) SetFECBlock(block []byte) {
	region := make([]byte, fecRegionLen)
	copy(region, block)
	setFECRegion(b.raw[:], region)
}
