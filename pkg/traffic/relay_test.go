package traffic

import (
	"net"
	"testing"

	"github.com/dvmgo/dvmfne/pkg/dmr"
	"github.com/dvmgo/dvmfne/pkg/logger"
	"github.com/dvmgo/dvmfne/pkg/p25"
	"github.com/dvmgo/dvmfne/pkg/peer"
	"github.com/dvmgo/dvmfne/pkg/routing"
	"github.com/dvmgo/dvmfne/pkg/transport"
)

// capturingSender records every frame sent to a peer, standing in for
// transport.Server in tests.
type capturingSender struct {
	sent []sentFrame
}

type sentFrame struct {
	peerID uint32
	frame  *transport.Frame
}

func (s *capturingSender) Send(peerID uint32, addr *net.UDPAddr, f *transport.Frame) error {
	s.sent = append(s.sent, sentFrame{peerID: peerID, frame: f})
	return nil
}

func newTestRelay(t *testing.T, tgid uint32) (*Relay, *routing.Router, *peer.Manager, *capturingSender) {
	t.Helper()
	router := routing.NewRouter(routing.NewChannelPool([]routing.Channel{{ID: 1}, {ID: 2}}))
	rule := routing.NewTGRule(tgid, 1)
	rule.Activate()
	router.Rules.Add(rule)

	peers := peer.NewManager()
	originPeer := peers.Create(1001, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50001}, 0)
	destPeer := peers.Create(2002, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50002}, 0)
	router.RegisterPeer(originPeer.ID)
	router.RegisterPeer(destPeer.ID)

	sender := &capturingSender{}
	log := logger.New(logger.Config{Level: "debug"})
	relay := NewRelay(router, peers, sender, log)
	return relay, router, peers, sender
}

func dmrTrafficFrame(peerID uint32, pkt *DMRPacket) *transport.Frame {
	return &transport.Frame{
		Function:    transport.NetFuncProtocol,
		Subfunction: uint8(transport.NetProtocolSubfuncDMR),
		PeerID:      peerID,
		StreamID:    42,
		Body:        pkt.Encode(),
	}
}

func TestRelayDMRCallStartForwardsToPermittedPeer(t *testing.T) {
	const tgid = 9000
	relay, _, _, sender := newTestRelay(t, tgid)

	burst := dmr.NewBurst(dmr.SyncBSSourcedVoice, 1, dmr.DataTypeVoiceLCHeader)
	lc := &dmr.FullLC{FLCO: dmr.FLCOGroup, FID: 0, DstID: tgid, SrcID: 0x102030}
	block, err := dmr.EncodeFullLC(lc, dmr.DataTypeVoiceLCHeader)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	burst.SetFECBlock(block)

	pkt := &DMRPacket{Slot: 1, SrcID: lc.SrcID, DstID: tgid, Burst: burst.Encode()}
	relay.HandleFrame(dmrTrafficFrame(1001, pkt), nil)

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 forwarded frame, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.peerID != 2002 {
		t.Fatalf("forwarded to peer %d, want 2002", got.peerID)
	}
	outPkt, err := ParseDMRPacket(got.frame.Body)
	if err != nil {
		t.Fatalf("unexpected parse error on forwarded frame: %v", err)
	}
	outBurst, err := dmr.ParseBurst(outPkt.Burst)
	if err != nil {
		t.Fatalf("unexpected burst parse error: %v", err)
	}
	outLC, err := dmr.DecodeFullLC(outBurst.FECBlock(), dmr.DataTypeVoiceLCHeader)
	if err != nil {
		t.Fatalf("unexpected LC decode error: %v", err)
	}
	if outLC.DstID != tgid || outLC.SrcID != lc.SrcID {
		t.Fatalf("forwarded LC mismatch: got %+v", outLC)
	}

	key := streamKey{PeerID: 1001, Slot: 1}
	if dst, ok := relay.activeDst(key); !ok || dst != tgid {
		t.Fatalf("expected active call tracked for %+v, got dst=%d ok=%v", key, dst, ok)
	}
}

func TestRelayDMRCallEndReleasesGrant(t *testing.T) {
	const tgid = 9001
	relay, router, _, sender := newTestRelay(t, tgid)

	startBurst := dmr.NewBurst(dmr.SyncBSSourcedVoice, 1, dmr.DataTypeVoiceLCHeader)
	lc := &dmr.FullLC{FLCO: dmr.FLCOGroup, DstID: tgid, SrcID: 0x102030}
	startBlock, _ := dmr.EncodeFullLC(lc, dmr.DataTypeVoiceLCHeader)
	startBurst.SetFECBlock(startBlock)
	relay.HandleFrame(dmrTrafficFrame(1001, &DMRPacket{Slot: 1, SrcID: lc.SrcID, DstID: tgid, Burst: startBurst.Encode()}), nil)

	if _, ok := router.Grants.Get(tgid); !ok {
		t.Fatal("expected grant to be recorded after call start")
	}

	sender.sent = nil
	endBurst := dmr.NewBurst(dmr.SyncBSSourcedVoice, 1, dmr.DataTypeTerminatorWithLC)
	endBlock, _ := dmr.EncodeFullLC(lc, dmr.DataTypeTerminatorWithLC)
	endBurst.SetFECBlock(endBlock)
	relay.HandleFrame(dmrTrafficFrame(1001, &DMRPacket{Slot: 1, SrcID: lc.SrcID, DstID: tgid, Burst: endBurst.Encode()}), nil)

	if len(sender.sent) != 1 {
		t.Fatalf("expected terminator to forward to 1 peer, got %d", len(sender.sent))
	}
	if _, ok := router.Grants.Get(tgid); ok {
		t.Fatal("expected grant to be released after call end")
	}
	key := streamKey{PeerID: 1001, Slot: 1}
	if _, ok := relay.activeDst(key); ok {
		t.Fatal("expected active call context to be cleared after call end")
	}
}

func p25TrafficFrame(peerID uint32, srcID, dstID uint32, nid *p25.NID, body []byte) *transport.Frame {
	pkt := &P25Packet{SrcID: srcID, DstID: dstID, Frame: p25.EncodeFrameHeader(nid, body)}
	return &transport.Frame{
		Function:    transport.NetFuncProtocol,
		Subfunction: uint8(transport.NetProtocolSubfuncP25),
		PeerID:      peerID,
		StreamID:    7,
		Body:        pkt.Encode(),
	}
}

func TestRelayP25CallStartForwardsHDU(t *testing.T) {
	const tgid = 9100
	relay, _, _, sender := newTestRelay(t, tgid)

	hdu := &p25.HDU{DstID: tgid, AlgID: 0x80}
	nid := &p25.NID{NAC: 0x293, DUID: p25.DUIDHDU}
	relay.HandleFrame(p25TrafficFrame(1001, 0x0A0B0C, tgid, nid, p25.EncodeHDU(hdu)), nil)

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 forwarded frame, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.peerID != 2002 {
		t.Fatalf("forwarded to peer %d, want 2002", got.peerID)
	}
	outPkt, err := ParseP25Packet(got.frame.Body)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	outNID, outBody, err := p25.DecodeFrameHeader(outPkt.Frame)
	if err != nil {
		t.Fatalf("unexpected frame header decode error: %v", err)
	}
	if outNID.NAC != nid.NAC || outNID.DUID != p25.DUIDHDU {
		t.Fatalf("NID mismatch on forwarded HDU: got %+v", outNID)
	}
	outHDU, err := p25.DecodeHDU(outBody)
	if err != nil {
		t.Fatalf("unexpected HDU decode error: %v", err)
	}
	if outHDU.DstID != tgid {
		t.Fatalf("forwarded HDU dst mismatch: got %d want %d", outHDU.DstID, tgid)
	}
}
