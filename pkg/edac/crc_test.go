package edac

import "testing"

func TestCRCMaskRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	masks := []uint16{DataHeaderCRCMask, VoiceLCHeaderCRCMask, TerminatorWithLCCRCMask, PIHeaderCRCMask, CSBKCRCMask}

	for _, mask := range masks {
		wire := EncodeCRCMasked(data, mask)
		if !VerifyCRCMasked(data, wire, mask) {
			t.Fatalf("mask %#04x: expected verify to succeed", mask)
		}
		if VerifyCRCMasked([]byte{0xFF, 0x02, 0x03, 0x04, 0x05}, wire, mask) {
			t.Fatalf("mask %#04x: corrupted data unexpectedly verified", mask)
		}
	}
}

func TestCRCZeroIsLegalConvention(t *testing.T) {
	if !VerifyCRCMasked([]byte{1, 2, 3}, 0, DataHeaderCRCMask) {
		t.Fatal("all-zero CRC must be accepted without verification")
	}
}

func TestCRC32RoundTrip(t *testing.T) {
	a := CRC32IEEE([]byte("hello p25 pdu"))
	b := CRC32IEEE([]byte("hello p25 pdu"))
	if a != b {
		t.Fatal("CRC32 not deterministic")
	}
	c := CRC32IEEE([]byte("hello p25 pdx"))
	if a == c {
		t.Fatal("CRC32 did not change for different input")
	}
}

func TestCRC9Range(t *testing.T) {
	crc := CRC9([]byte{0xAA, 0xBB, 0xCC})
	if crc > 0x1FF {
		t.Fatalf("CRC9 out of range: %#x", crc)
	}
}
