package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dvmgo/dvmfne/pkg/logger"
)

// Handler dispatches a parsed Frame arriving from addr. Implementations
// (pkg/peer's session manager, in the running server) own all
// peer-session and routing semantics; this package only owns framing,
// the receive loop, and the outgoing queue.
type Handler interface {
	HandleFrame(f *Frame, addr *net.UDPAddr)
}

// Server is the UDP transport for the FNE wire protocol: it owns the
// socket, the context-cancellable receive loop, and per-peer
// outgoing queues, dispatching parsed frames to a Handler (generalized
// from pkg/network/server.go's receiveLoop/handlePacket shape to the
// RTP+framing wire format spec.md §4.5/§6 describes).
type Server struct {
	addr            *net.UDPAddr
	conn            *net.UDPConn
	log             *logger.Logger
	handler         Handler
	envelope        *Envelope
	cleanupInterval time.Duration
	queuesMu        sync.Mutex
	queues          map[uint32]*OutQueue
	queueCapacity   int
}

// NewServer builds a Server bound to addr, dispatching to handler.
// envelope may be nil if the preshared-key wrap is disabled.
func NewServer(addr *net.UDPAddr, handler Handler, envelope *Envelope, log *logger.Logger) *Server {
	return &Server{
		addr:            addr,
		handler:         handler,
		envelope:        envelope,
		log:             log.WithComponent("transport.server"),
		cleanupInterval: 10 * time.Second,
		queues:          make(map[uint32]*OutQueue),
		queueCapacity:   256,
	}
}

// Start binds the UDP socket and runs the receive loop until ctx is
// cancelled; only a bind failure returns early. Read errors are logged
// and the loop keeps reading.
func (s *Server) Start(ctx context.Context) error {
	conn, err := net.ListenUDP("udp", s.addr)
	if err != nil {
		return err
	}
	s.conn = conn
	defer s.conn.Close()

	s.log.Info("transport listening", logger.String("addr", conn.LocalAddr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.receiveLoop(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// receiveLoop reads datagrams, unwraps the envelope if configured,
// parses the frame, and dispatches it to the handler on its own
// goroutine so one slow peer never stalls the socket.
func (s *Server) receiveLoop(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.log.Error("udp read failed", logger.Error(err))
			continue
		}

		datagram := append([]byte(nil), buf[:n]...)
		go s.handlePacket(datagram, addr)
	}
}

func (s *Server) handlePacket(datagram []byte, addr *net.UDPAddr) {
	if s.envelope != nil {
		unwrapped, err := s.envelope.Unwrap(datagram)
		if err != nil {
			s.log.Debug("dropping undecryptable datagram", logger.String("addr", addr.String()))
			return
		}
		datagram = unwrapped
	}

	f, err := ParseFrame(datagram)
	if err != nil {
		s.log.Debug("dropping malformed frame", logger.String("addr", addr.String()))
		return
	}

	s.handler.HandleFrame(f, addr)
}

// Send wraps the frame (if an envelope is configured) and appends it to
// the peer's OutQueue, then drains that queue and writes each datagram
// to addr on the caller's goroutine, so a stalled socket write blocks
// the caller. When the queue is full the new datagram is dropped with
// a warning and Send returns nil.
func (s *Server) Send(peerID uint32, addr *net.UDPAddr, f *Frame) error {
	wire := f.Encode()
	if s.envelope != nil {
		wrapped, err := s.envelope.Wrap(wire)
		if err != nil {
			return err
		}
		wire = wrapped
	}

	q := s.queueFor(peerID)
	if !q.Enqueue(wire) {
		s.log.Warn("out queue full, dropping datagram", logger.Int("peer_id", int(peerID)))
		return nil
	}

	for _, datagram := range q.Drain() {
		if _, err := s.conn.WriteToUDP(datagram, addr); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) queueFor(peerID uint32) *OutQueue {
	s.queuesMu.Lock()
	defer s.queuesMu.Unlock()
	if q, ok := s.queues[peerID]; ok {
		return q
	}
	q := NewOutQueue(s.queueCapacity)
	s.queues[peerID] = q
	return q
}
