package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bus-tracker/internal/service"
)

type fakeChannel struct {
	id uuid.UUID

	mu       sync.Mutex
	payloads [][]byte
	closed   bool
	failWith error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{id: uuid.New()}
}

func (f *fakeChannel) ID() uuid.UUID {
	return f.id
}

func (f *fakeChannel) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrChannelClosed
	}
	if f.failWith != nil {
		return f.failWith
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeChannel) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeChannel) Received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.payloads))
	for _, p := range f.payloads {
		out = append(out, string(p))
	}
	return out
}

func (f *fakeChannel) failSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

var errStorage = errors.New("storage unavailable")

// fakeBuilder knows a fixed set of buses; any other id is not found.
type fakeBuilder struct {
	builds atomic.Int64
	known  map[int64]bool
	fail   atomic.Bool
}

func newFakeBuilder(known ...int64) *fakeBuilder {
	b := &fakeBuilder{known: make(map[int64]bool)}
	for _, id := range known {
		b.known[id] = true
	}
	return b
}

func (b *fakeBuilder) Build(_ context.Context, busID int64) (*service.Snapshot, error) {
	b.builds.Add(1)
	if b.fail.Load() {
		return nil, errStorage
	}
	if !b.known[busID] {
		return nil, service.ErrBusNotFound
	}
	return &service.Snapshot{
		Type:     "FeatureCollection",
		Features: []service.Feature{},
		Meta: &service.Meta{
			Bus: service.BusSummary{ID: busID},
		},
	}, nil
}

func newTestDispatcher(builder SnapshotBuilder) (*Dispatcher, *Registry) {
	registry := NewRegistry()
	d := NewDispatcher(registry, builder, DispatcherConfig{Workers: 4}, nil, zerolog.Nop())
	return d, registry
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
