package routing

import "sync"

// AffiliationTable tracks which peers currently hold a talkgroup
// affiliation (spec.md §4.6 step 3's "affiliated-only" check, and
// §4.4's "affiliations wiped" on peer timeout).
type AffiliationTable struct {
	mu   sync.RWMutex
	byTG map[uint32]map[uint32]bool // tgid -> set of peer IDs
}

func NewAffiliationTable() *AffiliationTable {
	return &AffiliationTable{byTG: make(map[uint32]map[uint32]bool)}
}

func (a *AffiliationTable) Affiliate(peerID, tgid uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.byTG[tgid]
	if !ok {
		set = make(map[uint32]bool)
		a.byTG[tgid] = set
	}
	set[peerID] = true
}

func (a *AffiliationTable) Deaffiliate(peerID, tgid uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if set, ok := a.byTG[tgid]; ok {
		delete(set, peerID)
		if len(set) == 0 {
			delete(a.byTG, tgid)
		}
	}
}

// HasAffiliation reports whether any peer holds an affiliation for tgid.
func (a *AffiliationTable) HasAffiliation(tgid uint32) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byTG[tgid]) > 0
}

// Snapshot returns the current tgid -> affiliated-peer-IDs view, for
// the REST affiliation-list endpoint (spec.md §6).
func (a *AffiliationTable) Snapshot() map[uint32][]uint32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[uint32][]uint32, len(a.byTG))
	for tgid, set := range a.byTG {
		peers := make([]uint32, 0, len(set))
		for peerID := range set {
			peers = append(peers, peerID)
		}
		out[tgid] = peers
	}
	return out
}

// RemovePeer wipes every affiliation entry for peerID, used on peer
// timeout or disconnect (spec.md §4.4).
func (a *AffiliationTable) RemovePeer(peerID uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for tgid, set := range a.byTG {
		delete(set, peerID)
		if len(set) == 0 {
			delete(a.byTG, tgid)
		}
	}
}

// RegistrationTable maps radio unit IDs to the peer they last
// registered through (spec.md §4.6's `m_verifyReg` check).
type RegistrationTable struct {
	mu       sync.RWMutex
	byRadio  map[uint32]uint32 // radio ID -> peer ID
}

func NewRegistrationTable() *RegistrationTable {
	return &RegistrationTable{byRadio: make(map[uint32]uint32)}
}

func (r *RegistrationTable) Register(radioID, peerID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRadio[radioID] = peerID
}

func (r *RegistrationTable) Deregister(radioID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRadio, radioID)
}

func (r *RegistrationTable) IsRegistered(radioID uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byRadio[radioID]
	return ok
}
