package traffic

import (
	"bytes"
	"testing"

	"github.com/dvmgo/dvmfne/pkg/dmr"
)

func TestDMRPacketRoundTrip(t *testing.T) {
	burst := bytes.Repeat([]byte{0x5A}, dmr.BurstLen)
	p := &DMRPacket{
		Slot:       2,
		Individual: true,
		SrcID:      0x102030,
		DstID:      0x0A0B0C,
		Burst:      burst,
	}

	body := p.Encode()
	if len(body) != DMRPacketLen {
		t.Fatalf("encoded body length = %d, want %d", len(body), DMRPacketLen)
	}

	got, err := ParseDMRPacket(body)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got.Slot != p.Slot || got.Individual != p.Individual {
		t.Fatalf("routing-field mismatch: got %+v want slot=%d individual=%v", got, p.Slot, p.Individual)
	}
	if got.SrcID != p.SrcID || got.DstID != p.DstID {
		t.Fatalf("address mismatch: got src=%x dst=%x want src=%x dst=%x", got.SrcID, got.DstID, p.SrcID, p.DstID)
	}
	if !bytes.Equal(got.Burst, burst) {
		t.Fatalf("burst mismatch: got %x want %x", got.Burst, burst)
	}
}

func TestDMRPacketSlot1Group(t *testing.T) {
	p := &DMRPacket{Slot: 1, Individual: false, Burst: make([]byte, dmr.BurstLen)}
	body := p.Encode()
	if body[0] != 0 {
		t.Fatalf("expected zero slot byte for slot 1 group call, got %#x", body[0])
	}
	got, err := ParseDMRPacket(body)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got.Slot != 1 || got.Individual {
		t.Fatalf("unexpected routing fields: %+v", got)
	}
}

func TestParseDMRPacketRejectsShortBody(t *testing.T) {
	if _, err := ParseDMRPacket(make([]byte, DMRPacketLen-1)); err == nil {
		t.Fatal("expected error parsing a short DMR packet")
	}
}

func TestP25PacketRoundTrip(t *testing.T) {
	frame := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	p := &P25Packet{SrcID: 0x0A0B0C, DstID: 0x102030, Frame: frame}

	body := p.Encode()
	got, err := ParseP25Packet(body)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got.SrcID != p.SrcID || got.DstID != p.DstID {
		t.Fatalf("address mismatch: got src=%x dst=%x want src=%x dst=%x", got.SrcID, got.DstID, p.SrcID, p.DstID)
	}
	if !bytes.Equal(got.Frame, frame) {
		t.Fatalf("frame mismatch: got %x want %x", got.Frame, frame)
	}
}

func TestParseP25PacketRejectsShortBody(t *testing.T) {
	if _, err := ParseP25Packet(make([]byte, P25HeaderLen-1)); err == nil {
		t.Fatal("expected error parsing a short P25 packet")
	}
}
