// Package traffic is the traffic-frame relay DESIGN.md describes: it
// reads the NetFuncProtocol body, decodes enough of the
// DMR/P25 frame to learn the call's destination TGID, drives
// pkg/routing.Router's grant/ACL/forward pipeline, and regenerates FEC
// on every frame re-emitted to a permitted peer. Grounded on
// pkg/protocol/dmrd.go's explicit slot/src/dst header fields carried
// alongside the opaque burst payload (the teacher's Homebrew DMRD
// layout), generalized to also carry a P25 analogue.
package traffic

import (
	"net"

	"github.com/dvmgo/dvmfne/pkg/dmr"
	"github.com/dvmgo/dvmfne/pkg/kmm"
	"github.com/dvmgo/dvmfne/pkg/logger"
	"github.com/dvmgo/dvmfne/pkg/p25"
	"github.com/dvmgo/dvmfne/pkg/patch"
	"github.com/dvmgo/dvmfne/pkg/peer"
	"github.com/dvmgo/dvmfne/pkg/routing"
	"github.com/dvmgo/dvmfne/pkg/transport"
)

// Sender is the subset of transport.Server the relay needs to deliver
// an outbound datagram to a specific peer address.
type Sender interface {
	Send(peerID uint32, addr *net.UDPAddr, f *transport.Frame) error
}

// patchOriginPeerID is a synthetic origin ID a patch engine's own
// output carries through Router.Forward's excludePeer parameter. No
// real peer is ever assigned ID 0 (spec.md §3's peer IDs are the radio
// network's non-zero DMR/P25 IDs), so it never accidentally excludes
// a real destination.
const patchOriginPeerID = 0

// Relay implements transport.Handler for NetFuncProtocol datagrams: it
// is the decode-to-TGID step DESIGN.md's traffic-frame relay section describes,
// connecting pkg/dmr/pkg/p25's frame codecs to pkg/routing.Router and,
// for TGIDs carrying a configured patch, to pkg/patch.Engine.
type Relay struct {
	router *routing.Router
	peers  *peer.Manager
	send   Sender
	log    *logger.Logger

	active map[streamKey]uint32 // (peer, slot) -> TGID of the in-progress call

	p25Patches map[uint32]*patch.Engine // keyed by the patch's source TGID
}

// NewRelay builds a Relay dispatching grants/forwards through router
// and addressing peers looked up in peers.
func NewRelay(router *routing.Router, peers *peer.Manager, send Sender, log *logger.Logger) *Relay {
	return &Relay{
		router:     router,
		peers:      peers,
		send:       send,
		log:        log.WithComponent("traffic"),
		active:     make(map[streamKey]uint32),
		p25Patches: make(map[uint32]*patch.Engine),
	}
}

// RegisterP25Patch feeds every decoded LDU1/LDU2/terminator on srcTGID
// into eng in addition to the TGID's normal routing, wiring a
// pkg/patch.Engine into the live traffic path (spec.md §4.7).
func (r *Relay) RegisterP25Patch(srcTGID uint32, eng *patch.Engine) {
	r.p25Patches[srcTGID] = eng
}

// NewP25FrameSender returns a patch.FrameSender that re-encodes the
// engine's output LDU1/LDU2/TDU frames and pushes them through the
// same grant/forward pipeline real traffic takes, addressed to
// whichever peers the destination TGID's rule currently permits.
func (r *Relay) NewP25FrameSender() patch.FrameSender {
	return &p25PatchSender{relay: r}
}

func (r *Relay) setActive(key streamKey, tgid uint32) {
	r.active[key] = tgid
}

func (r *Relay) activeDst(key streamKey) (uint32, bool) {
	tgid, ok := r.active[key]
	return tgid, ok
}

func (r *Relay) clearActive(key streamKey) {
	delete(r.active, key)
}

// HandleFrame implements transport.Handler, dispatching on the
// sub-protocol carried by a NetFuncProtocol datagram.
func (r *Relay) HandleFrame(f *transport.Frame, addr *net.UDPAddr) {
	switch transport.NetProtocolSubfunc(f.Subfunction) {
	case transport.NetProtocolSubfuncDMR:
		r.handleDMR(f, addr)
	case transport.NetProtocolSubfuncP25:
		r.handleP25(f, addr)
	default:
		r.log.Debug("traffic frame for unhandled sub-protocol",
			logger.Int("subfunction", int(f.Subfunction)))
	}
}

func (r *Relay) sendTo(peerID uint32, subfn transport.NetProtocolSubfunc, streamID uint32, body []byte) {
	p := r.peers.Get(peerID)
	if p == nil {
		return
	}
	frame := &transport.Frame{
		RTP:         transport.RTPHeader{VersionFlags: 0x80},
		Function:    transport.NetFuncProtocol,
		Subfunction: uint8(subfn),
		PeerID:      peerID,
		StreamID:    streamID,
		Body:        body,
	}
	if err := r.send.Send(peerID, p.Address, frame); err != nil {
		r.log.Error("traffic send failed", logger.Error(err), logger.Uint32("peer_id", peerID))
	}
}

// --- DMR ---

func (r *Relay) handleDMR(f *transport.Frame, addr *net.UDPAddr) {
	pkt, err := ParseDMRPacket(f.Body)
	if err != nil {
		r.log.Debug("dropping malformed DMR traffic frame", logger.Error(err))
		return
	}
	burst, err := dmr.ParseBurst(pkt.Burst)
	if err != nil {
		r.log.Debug("dropping unparseable DMR burst", logger.Error(err))
		return
	}
	key := streamKey{PeerID: f.PeerID, Slot: pkt.Slot}

	switch burst.DataType {
	case dmr.DataTypeVoiceLCHeader:
		r.dmrCallStart(f, pkt, burst, key)
	case dmr.DataTypeTerminatorWithLC:
		r.dmrCallEnd(f, pkt, burst, key)
	case dmr.DataTypeCSBK:
		r.dmrCSBK(f, addr, pkt, burst, key)
	default:
		r.dmrForwardActive(f, pkt, key)
	}
}

func (r *Relay) dmrCallStart(f *transport.Frame, pkt *DMRPacket, burst *dmr.Burst, key streamKey) {
	lc, err := dmr.DecodeFullLC(burst.FECBlock(), dmr.DataTypeVoiceLCHeader)
	if err != nil {
		r.log.Debug("dropping DMR voice header: FEC rejected", logger.Error(err))
		return
	}
	reason, _ := r.router.RequestGrant(f.PeerID, lc.SrcID, lc.DstID, pkt.Slot, lc.FLCO == dmr.FLCOPrivate)
	if reason != routing.ReasonNone && reason != routing.ReasonTSAckRsnMsg {
		r.log.Info("DMR grant denied",
			logger.Uint32("dst_id", lc.DstID), logger.String("reason", reason.String()))
		return
	}
	r.setActive(key, lc.DstID)
	r.forwardDMRLC(f, pkt, burst, dmr.DataTypeVoiceLCHeader, lc)
}

func (r *Relay) dmrCallEnd(f *transport.Frame, pkt *DMRPacket, burst *dmr.Burst, key streamKey) {
	lc, err := dmr.DecodeFullLC(burst.FECBlock(), dmr.DataTypeTerminatorWithLC)
	if err != nil {
		r.log.Debug("dropping DMR terminator: FEC rejected", logger.Error(err))
		return
	}
	r.forwardDMRLC(f, pkt, burst, dmr.DataTypeTerminatorWithLC, lc)
	r.router.ReleaseGrant(lc.DstID)
	r.clearActive(key)
}

// forwardDMRLC re-encodes lc per destination peer (rewriting DstID to
// match each peer's rule) and sends the resulting burst, regenerating
// FEC on every copy (spec.md §4.2's full-regeneration policy).
func (r *Relay) forwardDMRLC(f *transport.Frame, pkt *DMRPacket, burst *dmr.Burst, dataType dmr.DataType, lc *dmr.FullLC) {
	frames := r.router.Forward(pkt.DstID, f.PeerID, nil)
	for _, ff := range frames {
		out := *lc
		out.DstID = ff.TGID
		block, err := dmr.EncodeFullLC(&out, dataType)
		if err != nil {
			continue
		}
		r.sendDMRBurst(ff.PeerID, ff.Slot, pkt.SrcID, ff.TGID, pkt.Individual, burst, block, f.StreamID)
	}
}

func (r *Relay) dmrForwardActive(f *transport.Frame, pkt *DMRPacket, key streamKey) {
	dst, ok := r.activeDst(key)
	if !ok {
		r.log.Debug("dropping DMR burst with no active call context", logger.Uint32("peer_id", f.PeerID))
		return
	}
	frames := r.router.Forward(dst, f.PeerID, pkt.Burst)
	for _, ff := range frames {
		outPkt := &DMRPacket{Slot: ff.Slot, Individual: pkt.Individual, SrcID: pkt.SrcID, DstID: ff.TGID, Burst: ff.Body}
		r.sendTo(ff.PeerID, transport.NetProtocolSubfuncDMR, f.StreamID, outPkt.Encode())
	}
}

func (r *Relay) dmrCSBK(f *transport.Frame, addr *net.UDPAddr, pkt *DMRPacket, burst *dmr.Burst, key streamKey) {
	csbk, err := dmr.DecodeCSBK(burst.FECBlock())
	if err != nil {
		r.log.Debug("dropping DMR CSBK: FEC rejected", logger.Error(err))
		return
	}

	if csbk.Opcode == dmr.CSBKORand {
		r.dmrGrantRequest(f, addr, pkt, burst, key, csbk)
		return
	}

	// Grant opcodes and every other recognised CSBK (broadcast,
	// aloha, maintenance, ...) are control traffic the router passes
	// through unchanged to every peer permitted on the rule, rather
	// than something the relay itself originates.
	r.forwardDMRCSBK(f, pkt, burst, csbk, csbk.DstID)
}

// dmrGrantRequest answers a CSBKO_RAND channel request with an ACK or
// NACK CSBK addressed back to the requesting peer, recording the
// grant so subsequent voice frames on the same slot forward correctly.
func (r *Relay) dmrGrantRequest(f *transport.Frame, addr *net.UDPAddr, pkt *DMRPacket, burst *dmr.Burst, key streamKey, csbk *dmr.CSBK) {
	reason, _ := r.router.RequestGrant(f.PeerID, csbk.SrcID, csbk.DstID, pkt.Slot, false)
	ack := &dmr.CSBK{FID: csbk.FID, SrcID: csbk.DstID, DstID: csbk.SrcID}
	if reason == routing.ReasonNone || reason == routing.ReasonTSAckRsnMsg {
		ack.Opcode = dmr.CSBKOAckRsp
		r.setActive(key, csbk.DstID)
	} else {
		ack.Opcode = dmr.CSBKONackRsp
	}
	block := dmr.EncodeCSBK(ack)
	r.sendDMRBurst(f.PeerID, pkt.Slot, ack.SrcID, ack.DstID, pkt.Individual, burst, block, f.StreamID)
}

func (r *Relay) forwardDMRCSBK(f *transport.Frame, pkt *DMRPacket, burst *dmr.Burst, csbk *dmr.CSBK, dst uint32) {
	frames := r.router.Forward(dst, f.PeerID, nil)
	for _, ff := range frames {
		out := *csbk
		out.DstID = ff.TGID
		block := dmr.EncodeCSBK(&out)
		r.sendDMRBurst(ff.PeerID, ff.Slot, pkt.SrcID, ff.TGID, pkt.Individual, burst, block, f.StreamID)
	}
}

func (r *Relay) sendDMRBurst(peerID uint32, slot int, srcID, dstID uint32, individual bool, template *dmr.Burst, block []byte, streamID uint32) {
	out := dmr.NewBurst(template.Sync, template.ColorCode, template.DataType)
	out.SetFECBlock(block)
	pkt := &DMRPacket{Slot: slot, Individual: individual, SrcID: srcID, DstID: dstID, Burst: out.Encode()}
	r.sendTo(peerID, transport.NetProtocolSubfuncDMR, streamID, pkt.Encode())
}

// --- P25 ---

func (r *Relay) handleP25(f *transport.Frame, addr *net.UDPAddr) {
	pkt, err := ParseP25Packet(f.Body)
	if err != nil {
		r.log.Debug("dropping malformed P25 traffic frame", logger.Error(err))
		return
	}
	nid, body, err := p25.DecodeFrameHeader(pkt.Frame)
	if err != nil {
		r.log.Debug("dropping unparseable P25 frame", logger.Error(err))
		return
	}
	// P25 has no slot concept; all calls on a peer share one logical
	// context per spec.md §3.
	key := streamKey{PeerID: f.PeerID, Slot: 0}

	switch nid.DUID {
	case p25.DUIDHDU:
		r.p25CallStart(f, pkt, nid, body, key)
	case p25.DUIDLDU1:
		r.p25LDU1(f, pkt, nid, body, key)
	case p25.DUIDLDU2:
		r.p25LDU2(f, pkt, nid, body, key)
	case p25.DUIDTDU, p25.DUIDTDULC:
		r.p25CallEnd(f, pkt, nid, body, key)
	default:
		r.p25ForwardActive(f, pkt, nid, body, key)
	}
}

func (r *Relay) p25CallStart(f *transport.Frame, pkt *P25Packet, nid *p25.NID, body []byte, key streamKey) {
	hdu, err := p25.DecodeHDU(body)
	if err != nil {
		r.log.Debug("dropping P25 HDU: FEC rejected", logger.Error(err))
		return
	}
	reason, _ := r.router.RequestGrant(f.PeerID, pkt.SrcID, hdu.DstID, 0, false)
	if reason != routing.ReasonNone && reason != routing.ReasonTSAckRsnMsg {
		r.log.Info("P25 grant denied",
			logger.Uint32("dst_id", hdu.DstID), logger.String("reason", reason.String()))
		return
	}
	r.setActive(key, hdu.DstID)
	if eng := r.p25Patches[hdu.DstID]; eng != nil {
		eng.CallStart(f.StreamID, pkt.SrcID, hdu.MI)
	}

	frames := r.router.Forward(hdu.DstID, f.PeerID, nil)
	for _, ff := range frames {
		out := *hdu
		out.DstID = ff.TGID
		r.sendP25(ff.PeerID, pkt.SrcID, ff.TGID, nid, p25.EncodeHDU(&out), f.StreamID)
	}
}

func (r *Relay) p25LDU1(f *transport.Frame, pkt *P25Packet, nid *p25.NID, body []byte, key streamKey) {
	ldu1, err := p25.DecodeLDU1(body)
	if err != nil {
		r.log.Debug("dropping P25 LDU1: FEC rejected", logger.Error(err))
		return
	}
	dst, ok := r.activeDst(key)
	if !ok {
		dst = ldu1.LC.DstID
	}

	if eng := r.p25Patches[dst]; eng != nil {
		if err := eng.HandleLDU1(ldu1); err != nil {
			r.log.Debug("patch LDU1 re-key failed", logger.Error(err))
		}
	}

	frames := r.router.Forward(dst, f.PeerID, nil)
	for _, ff := range frames {
		out := *ldu1
		out.LC.DstID = ff.TGID
		r.sendP25(ff.PeerID, pkt.SrcID, ff.TGID, nid, p25.EncodeLDU1(&out), f.StreamID)
	}
}

func (r *Relay) p25LDU2(f *transport.Frame, pkt *P25Packet, nid *p25.NID, body []byte, key streamKey) {
	ldu2, err := p25.DecodeLDU2(body)
	if err != nil {
		r.log.Debug("dropping P25 LDU2: FEC rejected", logger.Error(err))
		return
	}
	dst, ok := r.activeDst(key)
	if !ok {
		r.log.Debug("dropping P25 LDU2 with no active call context", logger.Uint32("peer_id", f.PeerID))
		return
	}

	if eng := r.p25Patches[dst]; eng != nil {
		eng.UpdateSourceMI(ldu2.MI)
		if err := eng.HandleLDU2(ldu2); err != nil {
			r.log.Debug("patch LDU2 re-key failed", logger.Error(err))
		}
	}

	frames := r.router.Forward(dst, f.PeerID, nil)
	for _, ff := range frames {
		r.sendP25(ff.PeerID, pkt.SrcID, ff.TGID, nid, p25.EncodeLDU2(ldu2), f.StreamID)
	}
}

func (r *Relay) p25CallEnd(f *transport.Frame, pkt *P25Packet, nid *p25.NID, body []byte, key streamKey) {
	dst, ok := r.activeDst(key)
	if !ok {
		dst = pkt.DstID
	}
	if eng := r.p25Patches[dst]; eng != nil {
		eng.HandleTerminator()
	}

	frames := r.router.Forward(dst, f.PeerID, body)
	for _, ff := range frames {
		r.sendP25(ff.PeerID, pkt.SrcID, ff.TGID, nid, ff.Body, f.StreamID)
	}
	r.router.ReleaseGrant(dst)
	r.clearActive(key)
}

func (r *Relay) p25ForwardActive(f *transport.Frame, pkt *P25Packet, nid *p25.NID, body []byte, key streamKey) {
	dst, ok := r.activeDst(key)
	if !ok {
		dst = pkt.DstID
	}
	frames := r.router.Forward(dst, f.PeerID, body)
	for _, ff := range frames {
		r.sendP25(ff.PeerID, pkt.SrcID, ff.TGID, nid, ff.Body, f.StreamID)
	}
}

func (r *Relay) sendP25(peerID, srcID, dstID uint32, nid *p25.NID, body []byte, streamID uint32) {
	pkt := &P25Packet{SrcID: srcID, DstID: dstID, Frame: p25.EncodeFrameHeader(nid, body)}
	r.sendTo(peerID, transport.NetProtocolSubfuncP25, streamID, pkt.Encode())
}

// p25PatchSender implements patch.FrameSender by pushing the engine's
// output through the same router.Forward/FEC-regeneration path real
// voice traffic takes, using patchOriginPeerID as an origin that never
// matches (and so is never excluded from) a real destination peer.
type p25PatchSender struct {
	relay *Relay
}

func (s *p25PatchSender) SendTDU(tgid uint32, slot int, grantDemand bool) {
	duid := p25.DUIDTDU
	if grantDemand {
		duid = p25.DUIDTDULC
	}
	nid := &p25.NID{DUID: duid}
	var body []byte
	if grantDemand {
		body = p25.EncodeTDULC(&p25.TDULC{DstID: tgid})
	}
	frames := s.relay.router.Forward(tgid, patchOriginPeerID, nil)
	for _, ff := range frames {
		s.relay.sendP25(ff.PeerID, 0, ff.TGID, nid, body, 0)
	}
}

func (s *p25PatchSender) SendLDU1(tgid uint32, slot int, lc *p25.LDU1) {
	nid := &p25.NID{DUID: p25.DUIDLDU1}
	frames := s.relay.router.Forward(tgid, patchOriginPeerID, nil)
	for _, ff := range frames {
		out := *lc
		out.LC.DstID = ff.TGID
		s.relay.sendP25(ff.PeerID, lc.LC.SrcID, ff.TGID, nid, p25.EncodeLDU1(&out), 0)
	}
}

// SendKMMToPeer addresses a KMM message to peerID as a single P25 PDU
// body (SAP 0x28/0x29 per spec.md §4.8), bypassing Router.Forward
// since a key-management message is addressed to one specific peer
// rather than a talkgroup's subscriber set. This skips the confirmed/
// unconfirmed PDU block-segmentation codecs since a KMM message fits
// in one PDU body.
func (r *Relay) SendKMMToPeer(peerID uint32, msg *kmm.Message) {
	nid := &p25.NID{DUID: p25.DUIDPDU}
	r.sendP25(peerID, 0, 0, nid, msg.Encode(), 0)
}

// KMMSender implements pkg/kmm.Sender over a Relay, falling back to a
// log line when no KMM target peer is configured.
type KMMSender struct {
	Relay  *Relay
	PeerID uint32
	Log    *logger.Logger
}

func (s *KMMSender) SendKMM(msg *kmm.Message) {
	if s.PeerID == 0 {
		s.Log.Debug("KMM message dropped: no kmm_peer_id configured",
			logger.Int("message_id", int(msg.MessageID)))
		return
	}
	s.Relay.SendKMMToPeer(s.PeerID, msg)
}

func (s *p25PatchSender) SendLDU2(tgid uint32, slot int, lc *p25.LDU2) {
	nid := &p25.NID{DUID: p25.DUIDLDU2}
	frames := s.relay.router.Forward(tgid, patchOriginPeerID, nil)
	for _, ff := range frames {
		s.relay.sendP25(ff.PeerID, 0, ff.TGID, nid, p25.EncodeLDU2(lc), 0)
	}
}
