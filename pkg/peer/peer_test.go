package peer

import (
	"encoding/json"
	"net"
	"testing"
	"time"
)

func testAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 62031}
}

func TestNewPeerStartsInWaitingAuth(t *testing.T) {
	p := NewPeer(312000, testAddr(), 0xDEADBEEF)
	if p.GetState() != WaitingAuth {
		t.Fatalf("expected WaitingAuth, got %s", p.GetState())
	}
	if p.Salt != 0xDEADBEEF {
		t.Fatalf("expected salt 0xDEADBEEF, got %#x", p.Salt)
	}
}

func TestPeerStateTransitions(t *testing.T) {
	p := NewPeer(1, testAddr(), 0)
	states := []State{WaitingAuth, WaitingConfig, Running, Closing}
	for _, s := range states {
		p.SetState(s)
		if p.GetState() != s {
			t.Fatalf("expected state %s, got %s", s, p.GetState())
		}
	}
}

func TestPeerTimedOut(t *testing.T) {
	p := NewPeer(1, testAddr(), 0)
	p.LastPing = time.Now().Add(-30 * time.Second)
	if !p.TimedOut(5*time.Second, 5) {
		t.Fatal("expected peer to be timed out after 30s with pingTime=5s maxMissedPings=5")
	}
	p.TouchPing()
	if p.TimedOut(5*time.Second, 5) {
		t.Fatal("expected peer not timed out immediately after a ping")
	}
}

func TestConfigUnmarshalCapturesSoftwareAndExtra(t *testing.T) {
	var cfg Config
	if err := json.Unmarshal([]byte(`{"software":"test","rxFreq":"449000000"}`), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Software != "test" {
		t.Fatalf("expected software=test, got %q", cfg.Software)
	}
	if cfg.Extra["rxFreq"] != "449000000" {
		t.Fatalf("expected rxFreq preserved in Extra, got %+v", cfg.Extra)
	}
}

func TestObserveSeqDetectsOutOfOrderAndStreamChange(t *testing.T) {
	p := NewPeer(1, testAddr(), 0)
	if !p.ObserveSeq(100, 0) {
		t.Fatal("first frame of a new stream should be in order")
	}
	if !p.ObserveSeq(100, 1) {
		t.Fatal("seq 1 should follow seq 0 in order")
	}
	if p.ObserveSeq(100, 9) {
		t.Fatal("seq 9 should be flagged out of order")
	}
	if !p.ObserveSeq(200, 0) {
		t.Fatal("a new stream ID should reset sequence tracking to in-order at 0")
	}
}
