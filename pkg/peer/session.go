package peer

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"net"
	"time"

	"github.com/dvmgo/dvmfne/pkg/logger"
	"github.com/dvmgo/dvmfne/pkg/transport"
)

// AuthProvider resolves the password expected for a given peer ID.
// Returning ok=false denies login outright (unknown peer, per
// config.UseACL-style gating).
type AuthProvider interface {
	PasswordFor(peerID uint32) (password string, ok bool)
}

// Sender is the outbound half of transport.Server that Session needs;
// satisfied by *transport.Server, and fakeable in tests.
type Sender interface {
	Send(peerID uint32, addr *net.UDPAddr, f *transport.Frame) error
}

// Session drives the WaitingAuth/WaitingConfig/Running/Closing state
// machine described in spec.md §4.4, translating transport.Frame
// traffic into peer state transitions and ACK/NAK replies. It
// implements transport.Handler.
type Session struct {
	manager    *Manager
	auth       AuthProvider
	server     Sender
	log        *logger.Logger
	randUint32 func() uint32
	onRunning  func(p *Peer)
	onClosed   func(peerID uint32)
}

func NewSession(manager *Manager, auth AuthProvider, server Sender, log *logger.Logger) *Session {
	return &Session{
		manager:    manager,
		auth:       auth,
		server:     server,
		log:        log.WithComponent("peer.session"),
		randUint32: randomUint32,
	}
}

// OnRunning registers a callback fired when a peer completes the
// handshake and transitions to Running (routing wires affiliation
// setup here).
func (s *Session) OnRunning(fn func(p *Peer)) { s.onRunning = fn }

// OnClosed registers a callback fired when a peer is destroyed, by
// RPT_CLOSING, auth failure, or ping timeout.
func (s *Session) OnClosed(fn func(peerID uint32)) { s.onClosed = fn }

func randomUint32() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}

// HandleFrame dispatches a parsed frame by NetFunc to the matching
// handshake step.
func (s *Session) HandleFrame(f *transport.Frame, addr *net.UDPAddr) {
	switch f.Function {
	case transport.NetFuncRPTL:
		s.handleRPTL(f, addr)
	case transport.NetFuncRPTK:
		s.handleRPTK(f, addr)
	case transport.NetFuncRPTC:
		s.handleRPTC(f, addr)
	case transport.NetFuncPing:
		s.handlePing(f, addr)
	case transport.NetFuncRptClosing:
		s.handleClosing(f, addr)
	default:
		s.log.Debug("frame for unhandled function", logger.Int("function", int(f.Function)))
	}
}

func (s *Session) handleRPTL(f *transport.Frame, addr *net.UDPAddr) {
	salt := s.randUint32()
	p := s.manager.Create(f.PeerID, addr, salt)

	s.log.Info("peer login", logger.Int("peer_id", int(p.ID)))

	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, salt)
	s.reply(p.ID, addr, transport.NetFuncAck, body)
}

func (s *Session) handleRPTK(f *transport.Frame, addr *net.UDPAddr) {
	p := s.manager.Get(f.PeerID)
	if p == nil || p.GetState() != WaitingAuth {
		s.nak(f.PeerID, addr, transport.TagRepeaterLogin)
		return
	}

	password, ok := s.auth.PasswordFor(f.PeerID)
	if !ok {
		s.destroyWithNAK(p, addr, transport.TagRepeaterAuth)
		return
	}

	saltBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(saltBytes, p.Salt)
	expected := sha256.Sum256(append(saltBytes, []byte(password)...))

	if len(f.Body) != len(expected) || subtle.ConstantTimeCompare(f.Body, expected[:]) != 1 {
		s.destroyWithNAK(p, addr, transport.TagRepeaterAuth)
		return
	}

	p.SetState(WaitingConfig)
	s.reply(p.ID, addr, transport.NetFuncAck, nil)
}

func (s *Session) handleRPTC(f *transport.Frame, addr *net.UDPAddr) {
	p := s.manager.Get(f.PeerID)
	if p == nil || p.GetState() != WaitingConfig {
		s.nak(f.PeerID, addr, transport.TagRepeaterConfig)
		return
	}

	var cfg Config
	if err := json.Unmarshal(f.Body, &cfg); err != nil || cfg.Software == "" {
		s.destroyWithNAK(p, addr, transport.TagRepeaterConfig)
		return
	}

	p.SetConfig(cfg)
	p.SetState(Running)
	p.TouchPing()

	s.log.Info("peer running", logger.Int("peer_id", int(p.ID)), logger.String("software", cfg.Software))

	s.reply(p.ID, addr, transport.NetFuncAck, nil)
	if s.onRunning != nil {
		s.onRunning(p)
	}
}

func (s *Session) handlePing(f *transport.Frame, addr *net.UDPAddr) {
	p := s.manager.Get(f.PeerID)
	if p == nil || p.GetState() != Running {
		s.nak(f.PeerID, addr, transport.TagRepeaterPing)
		return
	}
	p.TouchPing()
	s.reply(p.ID, addr, transport.NetFuncPong, nil)
}

func (s *Session) handleClosing(f *transport.Frame, addr *net.UDPAddr) {
	p := s.manager.Get(f.PeerID)
	if p == nil {
		return
	}
	p.SetState(Closing)
	s.manager.Remove(p.ID)
	if s.onClosed != nil {
		s.onClosed(p.ID)
	}
}

// destroyWithNAK removes the peer record and sends a tagged NAK,
// implementing "mismatch or wrong length → NAK and peer destroyed"
// (spec.md §4.4).
func (s *Session) destroyWithNAK(p *Peer, addr *net.UDPAddr, tag string) {
	s.manager.Remove(p.ID)
	s.nak(p.ID, addr, tag)
	if s.onClosed != nil {
		s.onClosed(p.ID)
	}
}

func (s *Session) nak(peerID uint32, addr *net.UDPAddr, tag string) {
	s.log.Warn("nak", logger.Int("peer_id", int(peerID)), logger.String("tag", tag))
	s.reply(peerID, addr, transport.NetFuncNak, []byte(tag))
}

func (s *Session) reply(peerID uint32, addr *net.UDPAddr, fn transport.NetFunc, body []byte) {
	frame := &transport.Frame{
		RTP:      transport.RTPHeader{VersionFlags: 0x80},
		Function: fn,
		PeerID:   peerID,
		Body:     body,
	}
	if err := s.server.Send(peerID, addr, frame); err != nil {
		s.log.Error("send failed", logger.Error(err))
	}
}

// MaintenanceTick runs one periodic maintenance pass: sweeping timed
// out peers (spec.md §4.4, §4.6's periodic tick) at pingTime cadence.
func (s *Session) MaintenanceTick(pingTime time.Duration, maxMissedPings int) []uint32 {
	removed := s.manager.SweepTimeouts(pingTime, maxMissedPings)
	for _, id := range removed {
		s.log.Info("peer timed out", logger.Int("peer_id", int(id)))
		if s.onClosed != nil {
			s.onClosed(id)
		}
	}
	return removed
}
