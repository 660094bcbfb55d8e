package peer

import (
	"encoding/json"
	"net"
	"sync"
	"time"
)

// State is a peer session's position in the login/auth/config/running
// lifecycle (spec.md §4.4).
type State int

const (
	WaitingLogin State = iota
	WaitingAuth
	WaitingConfig
	Running
	Closing
)

func (s State) String() string {
	switch s {
	case WaitingLogin:
		return "waiting_login"
	case WaitingAuth:
		return "waiting_auth"
	case WaitingConfig:
		return "waiting_config"
	case Running:
		return "running"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Config is the JSON configuration blob a peer sends in RPTC. Software
// is the only field the protocol mandates; everything else is carried
// through as opaque extra data for routing/capability decisions.
type Config struct {
	Software string                 `json:"software"`
	Channels []string               `json:"channels,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

// UnmarshalJSON captures Software/Channels into named fields and
// everything else into Extra, so unrecognised capability flags survive
// round-tripping without a schema change.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["software"].(string); ok {
		c.Software = v
	}
	delete(raw, "software")
	if v, ok := raw["channels"].([]interface{}); ok {
		for _, ch := range v {
			if s, ok := ch.(string); ok {
				c.Channels = append(c.Channels, s)
			}
		}
	}
	delete(raw, "channels")
	c.Extra = raw
	return nil
}

// Peer is one authenticated (or authenticating) session: identity,
// network endpoint, auth/config state, and the volatile stream-tracking
// fields spec.md §3's glossary describes.
type Peer struct {
	ID      uint32
	Address *net.UDPAddr
	State   State

	Salt          uint32
	LastPing      time.Time
	PingCount     uint64
	LastSeqRecv   uint16
	NextSeqExpect uint16
	StreamID      uint32

	Config Config

	CreatedAt time.Time

	mu sync.RWMutex
}

// NewPeer creates a peer record in WaitingAuth with a freshly issued
// salt, mirroring the (∅) --RPTL--> WaitingAuth transition (spec.md §4.4).
func NewPeer(id uint32, addr *net.UDPAddr, salt uint32) *Peer {
	now := time.Now()
	return &Peer{
		ID:        id,
		Address:   addr,
		State:     WaitingAuth,
		Salt:      salt,
		LastPing:  now,
		CreatedAt: now,
	}
}

func (p *Peer) SetState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.State = s
}

func (p *Peer) GetState() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State
}

func (p *Peer) TouchPing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LastPing = time.Now()
	p.PingCount++
}

// TimedOut reports whether this peer has exceeded pingTime ×
// maxMissedPings since its last ping (spec.md §4.4).
func (p *Peer) TimedOut(pingTime time.Duration, maxMissedPings int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.LastPing) > pingTime*time.Duration(maxMissedPings)
}

func (p *Peer) SetConfig(cfg Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Config = cfg
}

// ObserveSeq updates the peer's RTP sequence tracking for its current
// stream and reports whether seq arrived in order.
func (p *Peer) ObserveSeq(streamID uint32, seq uint16) (inOrder bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if streamID != p.StreamID {
		p.StreamID = streamID
		p.NextSeqExpect = 0
	}
	inOrder = seq == p.NextSeqExpect
	p.NextSeqExpect = seq + 1
	p.LastSeqRecv = seq
	return inOrder
}
