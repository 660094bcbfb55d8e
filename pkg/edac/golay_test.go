package edac

import "testing"

func TestGolay24RoundTrip(t *testing.T) {
	for _, data := range []uint32{0x000, 0x001, 0x0FF, 0x555, 0xAAA, 0xFFF} {
		code := Encode24(data)
		got := Decode24(code)
		if got != data {
			t.Fatalf("data %#03x: round trip got %#03x", data, got)
		}
	}
}

func TestGolay24CorrectsSingleBitError(t *testing.T) {
	data := uint32(0x1A3)
	code := Encode24(data)
	corrupted := code ^ (1 << 5)
	got := Decode24(corrupted)
	if got != data {
		t.Fatalf("expected single-bit error correction to recover %#03x, got %#03x", data, got)
	}
}
