package live

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SubscribeKeepsOrder(t *testing.T) {
	r := NewRegistry()
	a, b, c := newFakeChannel(), newFakeChannel(), newFakeChannel()

	r.Subscribe(1, a)
	r.Subscribe(1, b)
	r.Subscribe(1, c)
	r.Subscribe(1, a)

	assert.Equal(t, []Channel{a, b, c}, r.ChannelsFor(1))
	assert.Equal(t, 3, r.Count())
}

func TestRegistry_BusesAreIsolated(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeChannel(), newFakeChannel()

	r.Subscribe(1, a)
	r.Subscribe(2, b)

	assert.Equal(t, []Channel{a}, r.ChannelsFor(1))
	assert.Equal(t, []Channel{b}, r.ChannelsFor(2))
	assert.Empty(t, r.ChannelsFor(3))
}

func TestRegistry_Unsubscribe(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeChannel(), newFakeChannel()
	r.Subscribe(1, a)
	r.Subscribe(1, b)

	assert.True(t, r.Unsubscribe(1, a))
	assert.False(t, r.Unsubscribe(1, a))
	assert.False(t, r.Unsubscribe(9, a))
	assert.Equal(t, []Channel{b}, r.ChannelsFor(1))

	assert.True(t, r.Unsubscribe(1, b))
	assert.Empty(t, r.ChannelsFor(1))
	assert.Equal(t, 0, r.Count())

	r.Subscribe(1, a)
	assert.Equal(t, []Channel{a}, r.ChannelsFor(1))
}

func TestRegistry_PruneRemovesClosedChannels(t *testing.T) {
	r := NewRegistry()
	live, dead := newFakeChannel(), newFakeChannel()
	r.Subscribe(1, live)
	r.Subscribe(1, dead)
	r.Subscribe(2, dead)
	dead.Close()

	assert.Equal(t, 2, r.Prune())
	assert.Equal(t, []Channel{live}, r.ChannelsFor(1))
	assert.Empty(t, r.ChannelsFor(2))
	assert.Equal(t, 0, r.Prune())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeChannel(), newFakeChannel()
	r.Subscribe(1, a)
	r.Subscribe(2, b)

	assert.Equal(t, 2, r.CloseAll())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	const buses, perBus = 8, 50

	keep := make([][]*fakeChannel, buses)
	var wg sync.WaitGroup
	for bus := 0; bus < buses; bus++ {
		keep[bus] = make([]*fakeChannel, perBus)
		for i := 0; i < perBus; i++ {
			keep[bus][i] = newFakeChannel()
		}
		wg.Add(1)
		go func(busID int64, channels []*fakeChannel) {
			defer wg.Done()
			for _, ch := range channels {
				transient := newFakeChannel()
				r.Subscribe(busID, transient)
				r.Subscribe(busID, ch)
				r.Unsubscribe(busID, transient)
				_ = r.ChannelsFor(busID)
			}
		}(int64(bus), keep[bus])
	}
	wg.Wait()

	require.Equal(t, buses*perBus, r.Count())
	for bus := 0; bus < buses; bus++ {
		assert.Len(t, r.ChannelsFor(int64(bus)), perBus)
	}
}
