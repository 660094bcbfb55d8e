package routing

import "testing"

func newTestRouter() *Router {
	pool := NewChannelPool([]Channel{{ID: 1}, {ID: 2}})
	return NewRouter(pool)
}

func TestGroupVoiceGrantScenario(t *testing.T) {
	r := newTestRouter()
	rule := NewTGRule(100, 1)
	rule.Active = true
	rule.Inclusion = []uint32{2, 3} // peer A(1) not in inclusion on purpose: A is origin
	r.Rules.Add(rule)
	r.RegisterPeer(1)
	r.RegisterPeer(2)
	r.RegisterPeer(3)

	reason, grant := r.RequestGrant(1, 10, 100, 1, false)
	if reason != ReasonTSAckRsnMsg || grant == nil {
		t.Fatalf("expected grant accepted, got reason=%v grant=%v", reason, grant)
	}

	frames := r.Forward(100, 1, []byte("voice"))
	gotPeers := map[uint32]bool{}
	for _, f := range frames {
		gotPeers[f.PeerID] = true
	}
	if !gotPeers[2] {
		t.Fatal("peer 2 (inclusion list) should receive the forwarded frame")
	}
	if gotPeers[1] {
		t.Fatal("origin peer should never receive its own forwarded frame")
	}

	r.ReleaseGrant(100)
	if _, ok := r.Grants.Get(100); ok {
		t.Fatal("grant should be released")
	}

	reasonRetry, g2 := r.RequestGrant(1, 10, 100, 1, false)
	if reasonRetry != ReasonTSAckRsnMsg || g2 == nil {
		t.Fatalf("retry from same SRC should succeed, got %v", reasonRetry)
	}

	reasonOther, g3 := r.RequestGrant(1, 11, 100, 1, false)
	if reasonOther != ReasonTSDenyRsnTgtBusy || g3 != nil {
		t.Fatalf("grant from different SRC during active grant should be denied busy, got %v", reasonOther)
	}
}

func TestAllCallBypassesGrant(t *testing.T) {
	r := newTestRouter()
	r.AllCallTGIDs[0xFFFF] = true
	reason, grant := r.RequestGrant(1, 10, 0xFFFF, 1, false)
	if reason != ReasonNone || grant != nil {
		t.Fatalf("all-call should bypass grant with no reason and no grant, got %v %v", reason, grant)
	}
}

func TestInactiveRuleDeniesGrant(t *testing.T) {
	r := newTestRouter()
	reason, grant := r.RequestGrant(1, 10, 999, 1, false)
	if reason != ReasonTSDenyRsnTgtGroupNotValid || grant != nil {
		t.Fatalf("expected group-not-valid for an unconfigured TG, got %v", reason)
	}
}

func TestAffiliatedOnlyRuleSilentlyDrops(t *testing.T) {
	r := newTestRouter()
	rule := NewTGRule(200, 1)
	rule.Active = true
	rule.AffiliatedOnly = true
	r.Rules.Add(rule)

	reason, grant := r.RequestGrant(1, 10, 200, 1, false)
	if reason != ReasonNone || grant != nil {
		t.Fatalf("expected silent drop (ReasonNone, nil grant), got %v %v", reason, grant)
	}
}

func TestNoResourceWhenChannelsExhausted(t *testing.T) {
	pool := NewChannelPool([]Channel{{ID: 1}})
	r := NewRouter(pool)
	rule := NewTGRule(100, 1)
	rule.Active = true
	r.Rules.Add(rule)
	rule2 := NewTGRule(101, 1)
	rule2.Active = true
	r.Rules.Add(rule2)

	if reason, g := r.RequestGrant(1, 10, 100, 1, false); reason != ReasonTSAckRsnMsg || g == nil {
		t.Fatalf("first grant should succeed, got %v", reason)
	}
	reason, grant := r.RequestGrant(1, 11, 101, 1, false)
	if reason != ReasonTSQueuedRsnNoResource || grant != nil {
		t.Fatalf("expected no-resource once the pool is exhausted, got %v", reason)
	}
}

func TestUnregisterPeerReleasesItsGrantsAndAffiliations(t *testing.T) {
	r := newTestRouter()
	rule := NewTGRule(100, 1)
	rule.Active = true
	r.Rules.Add(rule)
	r.Affiliations.Affiliate(1, 100)

	r.RequestGrant(1, 10, 100, 1, false)
	r.UnregisterPeer(1)

	if _, ok := r.Grants.Get(100); ok {
		t.Fatal("expected grant released when its origin peer disconnects")
	}
	if r.Affiliations.HasAffiliation(100) {
		t.Fatal("expected affiliation wiped when peer disconnects")
	}
}
