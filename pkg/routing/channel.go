package routing

import "sync"

// Channel identifies one RF channel. DMR timeslot assignment is
// carried separately on the Grant, since the same channel can host
// independent grants on its two slots.
type Channel struct {
	ID uint32
}

// ChannelPool is the set of RF channels available for grants
// (spec.md §4.6 step 4: "Ask the channel pool for an available RF
// channel and (for DMR) a slot").
type ChannelPool struct {
	mu    sync.Mutex
	all   []Channel
	inUse map[Channel]bool
}

func NewChannelPool(channels []Channel) *ChannelPool {
	return &ChannelPool{all: channels, inUse: make(map[Channel]bool)}
}

// Acquire returns the first free channel, or ok=false if none remain.
func (p *ChannelPool) Acquire() (ch Channel, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.all {
		if !p.inUse[c] {
			p.inUse[c] = true
			return c, true
		}
	}
	return Channel{}, false
}

func (p *ChannelPool) Release(ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inUse, ch)
}

func (p *ChannelPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := 0
	for _, c := range p.all {
		if !p.inUse[c] {
			free++
		}
	}
	return free
}
