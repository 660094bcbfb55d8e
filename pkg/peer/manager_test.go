package peer

import (
	"testing"
	"time"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager()
	p := m.Create(1, testAddr(), 0xDEADBEEF)
	if got := m.Get(1); got != p {
		t.Fatal("Get should return the peer created by Create")
	}
	if m.Count() != 1 {
		t.Fatalf("expected count 1, got %d", m.Count())
	}
}

func TestManagerCreateReplacesExisting(t *testing.T) {
	m := NewManager()
	m.Create(1, testAddr(), 1)
	m.Create(1, testAddr(), 2)
	if m.Count() != 1 {
		t.Fatalf("expected count 1 after reconnect, got %d", m.Count())
	}
	if m.Get(1).Salt != 2 {
		t.Fatal("reconnect should replace the prior peer record with a fresh salt")
	}
}

func TestManagerRemove(t *testing.T) {
	m := NewManager()
	m.Create(1, testAddr(), 0)
	m.Remove(1)
	if m.Get(1) != nil {
		t.Fatal("expected peer to be gone after Remove")
	}
}

func TestManagerSweepTimeouts(t *testing.T) {
	m := NewManager()
	stale := m.Create(1, testAddr(), 0)
	stale.LastPing = time.Now().Add(-30 * time.Second)
	fresh := m.Create(2, testAddr(), 0)
	fresh.TouchPing()

	removed := m.SweepTimeouts(5*time.Second, 5)
	if len(removed) != 1 || removed[0] != 1 {
		t.Fatalf("expected peer 1 removed, got %v", removed)
	}
	if m.Get(1) != nil {
		t.Fatal("peer 1 should have been removed from the manager")
	}
	if m.Get(2) == nil {
		t.Fatal("peer 2 should still be present")
	}
}

func TestManagerAllReturnsAllPeers(t *testing.T) {
	m := NewManager()
	m.Create(1, testAddr(), 0)
	m.Create(2, testAddr(), 0)
	if len(m.All()) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(m.All()))
	}
}

