package routing

import (
	"sync"
	"time"
)

// GrantTimerDuration is the default hang-time / grant-timer window
// (spec.md §4.6 step 5, §3's glossary).
const GrantTimerDuration = 15 * time.Second

// Grant is one active channel assignment for a destination TGID
// (spec.md §3's glossary "Grant table").
type Grant struct {
	TGID       uint32
	Channel    Channel
	Slot       int
	SrcID      uint32
	OriginPeer uint32
	Individual bool
	GrantedAt  time.Time
}

// GrantTable holds at most one active grant per TGID, with a
// time.AfterFunc expiry timer per grant (grounded on
// pkg/bridge/timer.go's key->timer map idiom).
type GrantTable struct {
	mu      sync.Mutex
	grants  map[uint32]*Grant
	timers  map[uint32]*time.Timer
	release func(g *Grant)
}

func NewGrantTable(release func(g *Grant)) *GrantTable {
	return &GrantTable{
		grants:  make(map[uint32]*Grant),
		timers:  make(map[uint32]*time.Timer),
		release: release,
	}
}

func (t *GrantTable) Get(tgid uint32) (*Grant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.grants[tgid]
	return g, ok
}

// Acquire installs a new grant and arms its expiry timer.
func (t *GrantTable) Acquire(g *Grant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.grants[g.TGID] = g
	t.armTimer(g.TGID)
}

// Extend resets the grant timer for tgid, used on a same-SRC grant
// retry during an active call (spec.md §4.6 collision policy).
func (t *GrantTable) Extend(tgid uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.grants[tgid]; ok {
		t.armTimer(tgid)
	}
}

// armTimer must be called with t.mu held.
func (t *GrantTable) armTimer(tgid uint32) {
	if existing, ok := t.timers[tgid]; ok {
		existing.Stop()
	}
	t.timers[tgid] = time.AfterFunc(GrantTimerDuration, func() {
		t.Release(tgid)
	})
}

// Release removes the grant (terminator or timer expiry) and invokes
// the release callback (spec.md §4.6 step 7).
func (t *GrantTable) Release(tgid uint32) {
	t.mu.Lock()
	g, ok := t.grants[tgid]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.grants, tgid)
	if timer, ok := t.timers[tgid]; ok {
		timer.Stop()
		delete(t.timers, tgid)
	}
	t.mu.Unlock()

	if t.release != nil {
		t.release(g)
	}
}

// ReleasePeer releases every grant originated by peerID, used when a
// peer disconnects (spec.md §3's grant lifetime: "explicit release
// when an origin peer disconnects").
func (t *GrantTable) ReleasePeer(peerID uint32) {
	t.mu.Lock()
	var toRelease []uint32
	for tgid, g := range t.grants {
		if g.OriginPeer == peerID {
			toRelease = append(toRelease, tgid)
		}
	}
	t.mu.Unlock()
	for _, tgid := range toRelease {
		t.Release(tgid)
	}
}
