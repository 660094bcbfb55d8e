package peer

import (
	"net"
	"sync"
	"time"
)

// Manager is the thread-safe table of live peer sessions, keyed by
// 32-bit peer ID (spec.md §3).
type Manager struct {
	mu    sync.RWMutex
	peers map[uint32]*Peer
}

func NewManager() *Manager {
	return &Manager{peers: make(map[uint32]*Peer)}
}

// Create installs a new peer record in WaitingAuth, replacing any
// existing record for the same ID (a reconnect restarts the handshake).
func (m *Manager) Create(id uint32, addr *net.UDPAddr, salt uint32) *Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := NewPeer(id, addr, salt)
	m.peers[id] = p
	return p
}

func (m *Manager) Get(id uint32) *Peer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peers[id]
}

func (m *Manager) Remove(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, id)
}

func (m *Manager) All() []*Peer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, p)
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}

// SweepTimeouts removes every peer whose last ping exceeds pingTime ×
// maxMissedPings and returns their IDs, so the caller (routing) can
// wipe their affiliation entries in the same maintenance tick
// (spec.md §4.4, §8 property 7).
func (m *Manager) SweepTimeouts(pingTime time.Duration, maxMissedPings int) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []uint32
	for id, p := range m.peers {
		if p.TimedOut(pingTime, maxMissedPings) {
			delete(m.peers, id)
			removed = append(removed, id)
		}
	}
	return removed
}
