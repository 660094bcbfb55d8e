package edac

import (
	"bytes"
	"testing"
)

func TestBPTC196CleanRoundTrip(t *testing.T) {
	payload := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x11, 0x22, 0x33, 0x44}
	block := EncodeBPTC196(payload)
	if len(block) != 25 {
		t.Fatalf("expected 25-byte packed block, got %d", len(block))
	}
	got, err := DecodeBPTC196(block)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !bytes.Equal(got[:len(payload)], payload) {
		t.Fatalf("round trip mismatch: got %x want %x", got[:len(payload)], payload)
	}
}

func TestBPTC196ShortBlockIsRejected(t *testing.T) {
	if _, err := DecodeBPTC196(make([]byte, 4)); err == nil {
		t.Fatal("expected error decoding a too-short block")
	}
}
