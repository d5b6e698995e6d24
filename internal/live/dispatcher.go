package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"bus-tracker/internal/service"
)

const (
	defaultWorkers      = 16
	defaultBuildTimeout = 10 * time.Second
)

type SnapshotBuilder interface {
	Build(ctx context.Context, busID int64) (*service.Snapshot, error)
}

// Recorder receives dispatcher measurements. A nil Recorder is allowed.
type Recorder interface {
	SnapshotBuilt(result string, d time.Duration)
	Pushed(result string)
	Subscribers(n int)
}

type DispatcherConfig struct {
	Workers      int
	BuildTimeout time.Duration
}

// Dispatcher builds snapshots and pushes them to the subscribers of a bus.
type Dispatcher struct {
	registry     *Registry
	builder      SnapshotBuilder
	log          zerolog.Logger
	metrics      Recorder
	buildTimeout time.Duration

	workers *pool.Pool

	mu      sync.Mutex
	wake    *sync.Cond
	closed  bool
	pending map[int64]struct{}
	queue   []notification
}

type notification struct {
	ctx   context.Context
	busID int64
}

func NewDispatcher(registry *Registry, builder SnapshotBuilder, cfg DispatcherConfig, metrics Recorder, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = defaultBuildTimeout
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	d := &Dispatcher{
		registry:     registry,
		builder:      builder,
		log:          log.With().Str("component", "dispatcher").Logger(),
		metrics:      metrics,
		buildTimeout: cfg.BuildTimeout,
		workers:      pool.New().WithMaxGoroutines(cfg.Workers),
		pending:      make(map[int64]struct{}),
	}
	d.wake = sync.NewCond(&d.mu)
	for range cfg.Workers {
		d.workers.Go(d.work)
	}
	return d
}

// Notify queues a broadcast for busID and returns at once. While one is
// queued and not yet started, further calls for the same bus are absorbed:
// the queued run reads current state anyway. The work outlives ctx's
// cancellation but keeps its values.
func (d *Dispatcher) Notify(ctx context.Context, busID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if _, queued := d.pending[busID]; queued {
		return
	}
	d.pending[busID] = struct{}{}
	d.queue = append(d.queue, notification{ctx: context.WithoutCancel(ctx), busID: busID})
	d.wake.Signal()
}

// work drains the queue until the dispatcher is closed and nothing is left.
func (d *Dispatcher) work() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.wake.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		n := d.queue[0]
		d.queue[0] = notification{}
		d.queue = d.queue[1:]
		delete(d.pending, n.busID)
		d.mu.Unlock()

		if err := d.Broadcast(n.ctx, n.busID); err != nil {
			d.log.Error().Err(err).Int64("bus_id", n.busID).Msg("broadcast failed")
		}
	}
}

// Broadcast builds one snapshot and pushes it to every channel subscribed to
// busID at push time. Channels that fail to accept it are dropped.
func (d *Dispatcher) Broadcast(ctx context.Context, busID int64) error {
	if len(d.registry.ChannelsFor(busID)) == 0 {
		return nil
	}

	snap, err := d.build(ctx, busID)
	if err != nil {
		if !service.IsBusNotFound(err) {
			return err
		}
		snap = service.NotFoundDocument()
	}

	payload, err := snap.Encode()
	if err != nil {
		return err
	}

	channels := d.registry.ChannelsFor(busID)
	for _, ch := range channels {
		d.deliver(busID, ch, payload)
	}

	d.log.Debug().
		Int64("bus_id", busID).
		Int("channels", len(channels)).
		Msg("snapshot broadcast")
	return nil
}

// Connect subscribes ch to busID and sends it a snapshot right away.
func (d *Dispatcher) Connect(ctx context.Context, busID int64, ch Channel) {
	d.registry.Subscribe(busID, ch)
	d.metrics.Subscribers(d.registry.Count())
	d.log.Info().
		Int64("bus_id", busID).
		Str("channel_id", ch.ID().String()).
		Msg("subscriber connected")

	d.Refresh(ctx, busID, ch)
}

// Refresh sends a freshly built snapshot to a single channel.
func (d *Dispatcher) Refresh(ctx context.Context, busID int64, ch Channel) {
	snap, err := d.build(ctx, busID)
	switch {
	case err == nil:
	case service.IsBusNotFound(err):
		snap = service.NotFoundDocument()
	default:
		d.log.Error().Err(err).Int64("bus_id", busID).Msg("snapshot build failed")
		snap = service.ErrorDocument(service.ErrorCodeSnapshotUnavailable)
	}

	payload, err := snap.Encode()
	if err != nil {
		d.log.Error().Err(err).Int64("bus_id", busID).Msg("snapshot encode failed")
		return
	}
	d.deliver(busID, ch, payload)
}

// Disconnect forgets ch and closes it.
func (d *Dispatcher) Disconnect(busID int64, ch Channel) {
	if d.registry.Unsubscribe(busID, ch) {
		d.log.Info().
			Int64("bus_id", busID).
			Str("channel_id", ch.ID().String()).
			Msg("subscriber disconnected")
	}
	ch.Close()
	d.metrics.Subscribers(d.registry.Count())
}

// Close stops accepting notifications and waits for queued broadcasts.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.wake.Broadcast()
	d.mu.Unlock()

	d.workers.Wait()
}

func (d *Dispatcher) build(ctx context.Context, busID int64) (*service.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, d.buildTimeout)
	defer cancel()

	start := time.Now()
	snap, err := d.builder.Build(ctx, busID)
	d.metrics.SnapshotBuilt(buildResult(err), time.Since(start))
	return snap, err
}

func (d *Dispatcher) deliver(busID int64, ch Channel, payload []byte) {
	err := ch.Send(payload)
	if err == nil {
		d.metrics.Pushed("ok")
		return
	}

	d.metrics.Pushed("dropped")
	if !errors.Is(err, ErrChannelClosed) {
		d.log.Warn().Err(err).
			Int64("bus_id", busID).
			Str("channel_id", ch.ID().String()).
			Msg("dropping subscriber")
	}
	d.Disconnect(busID, ch)
}

func buildResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case service.IsBusNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

type noopRecorder struct{}

func (noopRecorder) SnapshotBuilt(string, time.Duration) {}
func (noopRecorder) Pushed(string)                       {}
func (noopRecorder) Subscribers(int)                     {}
