package kmm

import "github.com/dvmgo/dvmfne/pkg/codecerr"

// KeyItem is one key record carried inside a MODIFY_KEY_CMD, grounded
// on original_source/src/patch/HostPatch.cpp's processTEKResponse,
// which reads a key item's algorithm ID, key ID, storage location
// number (sln), and key material off of it.
type KeyItem struct {
	AlgID  uint8
	KeyID  uint16
	SLN    uint16
	Format uint8
	Key    []byte
}

// decodeKeyItem unpacks one key item: algID(1) keyID(2) sln(2)
// format(1) keyLength(1) key(keyLength).
func decodeKeyItem(b []byte) (*KeyItem, int, error) {
	if len(b) < 7 {
		return nil, 0, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "key item shorter than fixed header")
	}
	keyLen := int(b[6])
	if len(b) < 7+keyLen {
		return nil, 0, codecerr.New(codecerr.Stage("kmm"), codecerr.Reason("short_frame"), "key item truncated before key material")
	}
	ki := &KeyItem{
		AlgID:  b[0],
		KeyID:  uint16(b[1])<<8 | uint16(b[2]),
		SLN:    uint16(b[3])<<8 | uint16(b[4]),
		Format: b[5],
		Key:    append([]byte(nil), b[7:7+keyLen]...),
	}
	return ki, 7 + keyLen, nil
}

// encodeKeyItem is the inverse of decodeKeyItem.
func encodeKeyItem(ki *KeyItem) []byte {
	out := make([]byte, 7+len(ki.Key))
	out[0] = ki.AlgID
	out[1] = byte(ki.KeyID >> 8)
	out[2] = byte(ki.KeyID)
	out[3] = byte(ki.SLN >> 8)
	out[4] = byte(ki.SLN)
	out[5] = ki.Format
	out[6] = byte(len(ki.Key))
	copy(out[7:], ki.Key)
	return out
}
