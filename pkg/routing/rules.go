package routing

import "sync"

// Rewrite describes how a forwarded frame's destination TG/slot should
// be rewritten for one specific peer (spec.md §4.6 step 6).
type Rewrite struct {
	TGID uint32
	Slot int
}

// TGRule is the per-destination-talkgroup routing policy: which peers
// may receive forwarded traffic, optional per-peer rewrites, and the
// activation/deactivation TGIDs that flip it active/inactive
// (generalized from pkg/bridge's BridgeRule to a single rule-per-TGID
// lookup instead of named per-system bridges).
type TGRule struct {
	TGID           uint32
	Slot           int
	Active         bool
	AffiliatedOnly bool

	Inclusion []uint32 // empty means "all peers except exclusion"
	Exclusion []uint32

	Rewrites map[uint32]Rewrite // peerID -> rewrite

	On      []uint32 // TGIDs whose activity activates this rule
	Off     []uint32 // TGIDs whose activity deactivates this rule
	Timeout int      // minutes before auto-deactivate, 0 = none

	mu sync.RWMutex
}

func NewTGRule(tgid uint32, slot int) *TGRule {
	return &TGRule{TGID: tgid, Slot: slot, Rewrites: make(map[uint32]Rewrite)}
}

func (r *TGRule) Activate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Active = true
}

func (r *TGRule) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Active = false
}

func (r *TGRule) IsActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Active
}

func (r *TGRule) ShouldActivate(tgid uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.On {
		if t == tgid {
			return true
		}
	}
	return false
}

func (r *TGRule) ShouldDeactivate(tgid uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.Off {
		if t == tgid {
			return true
		}
	}
	return false
}

// Permits reports whether peerID is allowed to receive frames forwarded
// under this rule: inclusion list (if non-empty) gates membership,
// exclusion always denies.
func (r *TGRule) Permits(peerID uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.Exclusion {
		if p == peerID {
			return false
		}
	}
	if len(r.Inclusion) == 0 {
		return true
	}
	for _, p := range r.Inclusion {
		if p == peerID {
			return true
		}
	}
	return false
}

// RewriteFor returns the per-peer TG/slot rewrite, if one is
// configured, else the rule's own TGID/slot unchanged.
func (r *TGRule) RewriteFor(peerID uint32) Rewrite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rw, ok := r.Rewrites[peerID]; ok {
		return rw
	}
	return Rewrite{TGID: r.TGID, Slot: r.Slot}
}

// RuleTable is the destination-TGID-keyed rule lookup (spec.md §4.6
// step 3: "Look up the TG rule").
type RuleTable struct {
	mu    sync.RWMutex
	rules map[uint32]*TGRule
}

func NewRuleTable() *RuleTable {
	return &RuleTable{rules: make(map[uint32]*TGRule)}
}

func (t *RuleTable) Add(rule *TGRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[rule.TGID] = rule
}

func (t *RuleTable) Lookup(tgid uint32) *TGRule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rules[tgid]
}

// Remove deletes the rule for tgid, if one exists.
func (t *RuleTable) Remove(tgid uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rules, tgid)
}

// All returns every configured rule, for REST listing and YAML commit.
func (t *RuleTable) All() []*TGRule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*TGRule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r)
	}
	return out
}

// ProcessActivation applies an On/Off TGID event across every rule,
// returning the rules that flipped active or inactive.
func (t *RuleTable) ProcessActivation(tgid uint32) (activated, deactivated []*TGRule) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rules {
		if r.ShouldActivate(tgid) {
			r.Activate()
			activated = append(activated, r)
		}
		if r.ShouldDeactivate(tgid) {
			r.Deactivate()
			deactivated = append(deactivated, r)
		}
	}
	return activated, deactivated
}
