package routing

import (
	"sync"
	"time"
)

// ForwardedFrame is one outbound frame produced by a route() call,
// addressed to a specific peer with any rule rewrite already applied.
type ForwardedFrame struct {
	PeerID uint32
	TGID   uint32
	Slot   int
	Body   []byte
}

// Router implements the `route(peer_id, protocol, frame) →
// Σ {peer_id → frame'}` contract (spec.md §4.6): grant acquisition,
// ACL validation, TG-rule lookup/forwarding/rewrite, and the periodic
// maintenance tick. Generalized from pkg/bridge.Router's named-bridge
// matching to a single per-TGID rule table plus an explicit grant
// table (the teacher had no grant/channel concept; DMR/P25 FNE
// routing needs one).
type Router struct {
	mu sync.RWMutex

	Rules         *RuleTable
	Grants        *GrantTable
	Channels      *ChannelPool
	Affiliations  *AffiliationTable
	Registrations *RegistrationTable
	ACL           *ACL

	// Authoritative marks this router as the sole source of grant
	// truth. When false, grants still fail closed rather than
	// bypassing grant state (see DESIGN.md Open Question decision).
	Authoritative bool

	// DisableGrantSrcIDCheck mirrors m_disableGrantSrcIdCheck: skips
	// the same-SRC check on grant retry for legacy interop.
	DisableGrantSrcIDCheck bool

	// AllCallTGIDs are destinations treated as "all-call": broadcast
	// directly, never granted (spec.md §4.6 step 1).
	AllCallTGIDs map[uint32]bool

	peerToSystem map[uint32]bool // registered/known peer set
}

func NewRouter(channels *ChannelPool) *Router {
	reg := NewRegistrationTable()
	aff := NewAffiliationTable()
	r := &Router{
		Rules:         NewRuleTable(),
		Channels:      channels,
		Affiliations:  aff,
		Registrations: reg,
		ACL:           NewACL(reg, aff),
		AllCallTGIDs:  make(map[uint32]bool),
		peerToSystem:  make(map[uint32]bool),
	}
	r.Grants = NewGrantTable(nil)
	return r
}

// OnGrantReleased registers the REST-style release callback fired when
// a grant is released by terminator or timer expiry (spec.md §4.6
// step 7).
func (r *Router) OnGrantReleased(fn func(g *Grant)) {
	r.Grants.release = fn
}

func (r *Router) RegisterPeer(peerID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peerToSystem[peerID] = true
}

func (r *Router) UnregisterPeer(peerID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peerToSystem, peerID)
	r.Affiliations.RemovePeer(peerID)
	r.Grants.ReleasePeer(peerID)
}

// RequestGrant runs the grant acquisition sequence for a voice call
// request on TG dst from src on originPeer (spec.md §4.6 steps 1-5).
// A nil Grant with ReasonNone means "all-call: broadcast directly, no
// grant recorded".
func (r *Router) RequestGrant(originPeer, src, dst uint32, slot int, individual bool) (ReasonCode, *Grant) {
	if r.AllCallTGIDs[dst] {
		return ReasonNone, nil
	}

	if code, ok := r.ACL.Validate(src, dst, individual); !ok {
		return code, nil
	}

	if existing, ok := r.Grants.Get(dst); ok {
		sameSrc := existing.SrcID == src || r.DisableGrantSrcIDCheck
		if sameSrc {
			r.Grants.Extend(dst)
			return ReasonTSAckRsnMsg, existing
		}
		return ReasonTSDenyRsnTgtBusy, nil
	}

	rule := r.Rules.Lookup(dst)
	if !individual {
		if rule == nil || !rule.IsActive() {
			return ReasonTSDenyRsnTgtGroupNotValid, nil
		}
		if rule.AffiliatedOnly && !r.Affiliations.HasAffiliation(dst) {
			return ReasonNone, nil // silent drop, no NAK
		}
	}

	ch, ok := r.Channels.Acquire()
	if !ok {
		return ReasonTSQueuedRsnNoResource, nil
	}

	g := &Grant{
		TGID:       dst,
		Channel:    ch,
		Slot:       slot,
		SrcID:      src,
		OriginPeer: originPeer,
		Individual: individual,
		GrantedAt:  time.Now(),
	}
	r.Grants.Acquire(g)
	return ReasonTSAckRsnMsg, g
}

// ReleaseGrant releases the grant for dst, freeing its channel back to
// the pool (spec.md §4.6 step 7).
func (r *Router) ReleaseGrant(dst uint32) {
	if g, ok := r.Grants.Get(dst); ok {
		r.Channels.Release(g.Channel)
	}
	r.Grants.Release(dst)
}

// Forward computes the per-peer forwarding set for a voice frame on
// dst, applying each permitted peer's rewrite (spec.md §4.6 step 6).
// excludePeer is the origin peer, which never receives its own frame
// back.
func (r *Router) Forward(dst uint32, excludePeer uint32, body []byte) []ForwardedFrame {
	rule := r.Rules.Lookup(dst)
	if rule == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ForwardedFrame
	for peerID := range r.peerToSystem {
		if peerID == excludePeer {
			continue
		}
		if !rule.Permits(peerID) {
			continue
		}
		rw := rule.RewriteFor(peerID)
		out = append(out, ForwardedFrame{PeerID: peerID, TGID: rw.TGID, Slot: rw.Slot, Body: body})
	}
	return out
}

// MaintenanceTick runs the routing half of the periodic maintenance
// pass (spec.md §4.6): currently a no-op beyond what GrantTable's own
// timers already do, kept as the extension point for periodic
// whitelist/blacklist and active/deactive TGID list updates.
func (r *Router) MaintenanceTick() {}
