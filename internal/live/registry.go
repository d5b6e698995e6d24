package live

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type subscription struct {
	ch  Channel
	seq uint64
}

// group holds the subscribers of one bus. Its mutex serialises every change
// to that bus's set; a retired group is never reused.
type group struct {
	mu      sync.Mutex
	members map[uuid.UUID]subscription
	retired bool
}

// Registry tracks which channels follow which bus.
type Registry struct {
	mu     sync.RWMutex
	groups map[int64]*group
	seq    atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[int64]*group),
	}
}

func (r *Registry) Subscribe(busID int64, ch Channel) {
	seq := r.seq.Add(1)
	for {
		g := r.groupFor(busID)
		g.mu.Lock()
		if g.retired {
			g.mu.Unlock()
			continue
		}
		if _, ok := g.members[ch.ID()]; !ok {
			g.members[ch.ID()] = subscription{ch: ch, seq: seq}
		}
		g.mu.Unlock()
		return
	}
}

// Unsubscribe removes ch from the bus group. It reports whether ch was
// subscribed.
func (r *Registry) Unsubscribe(busID int64, ch Channel) bool {
	r.mu.RLock()
	g, ok := r.groups[busID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	g.mu.Lock()
	_, found := g.members[ch.ID()]
	delete(g.members, ch.ID())
	empty := len(g.members) == 0 && !g.retired
	g.mu.Unlock()

	if empty {
		r.retire(busID, g)
	}
	return found
}

// ChannelsFor returns the current subscribers of a bus in subscription order.
func (r *Registry) ChannelsFor(busID int64) []Channel {
	r.mu.RLock()
	g, ok := r.groups[busID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	g.mu.Lock()
	subs := make([]subscription, 0, len(g.members))
	for _, s := range g.members {
		subs = append(subs, s)
	}
	g.mu.Unlock()

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].seq < subs[j].seq
	})

	out := make([]Channel, len(subs))
	for i, s := range subs {
		out[i] = s.ch
	}
	return out
}

// Count returns the number of subscriptions across all buses.
func (r *Registry) Count() int {
	r.mu.RLock()
	groups := make([]*group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	r.mu.RUnlock()

	total := 0
	for _, g := range groups {
		g.mu.Lock()
		total += len(g.members)
		g.mu.Unlock()
	}
	return total
}

// Prune drops channels that report themselves closed and returns how many
// were removed.
func (r *Registry) Prune() int {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.groups))
	for id := range r.groups {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	removed := 0
	for _, busID := range ids {
		for _, ch := range r.ChannelsFor(busID) {
			if ch.Closed() && r.Unsubscribe(busID, ch) {
				removed++
			}
		}
	}
	return removed
}

// CloseAll closes and forgets every subscriber. Used on shutdown.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	groups := r.groups
	r.groups = make(map[int64]*group)
	r.mu.Unlock()

	closed := 0
	for _, g := range groups {
		g.mu.Lock()
		g.retired = true
		for _, s := range g.members {
			s.ch.Close()
			closed++
		}
		g.members = nil
		g.mu.Unlock()
	}
	return closed
}

func (r *Registry) groupFor(busID int64) *group {
	r.mu.RLock()
	g, ok := r.groups[busID]
	r.mu.RUnlock()
	if ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok = r.groups[busID]; ok {
		return g
	}
	g = &group{members: make(map[uuid.UUID]subscription)}
	r.groups[busID] = g
	return g
}

// retire removes an empty group from the index. Lock order is registry
// before group.
func (r *Registry) retire(busID int64, g *group) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retired || len(g.members) > 0 {
		return
	}
	g.retired = true
	if r.groups[busID] == g {
		delete(r.groups, busID)
	}
}
