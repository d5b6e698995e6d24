package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// originHeader carries the id of the instance that published an update.
const originHeader = "Bus-Tracker-Origin"

type LocalNotifier interface {
	Notify(ctx context.Context, busID int64)
}

// PublishRecorder counts publishes. A nil recorder is allowed.
type PublishRecorder interface {
	Published(err error)
}

// Fanout spreads update notifications to every instance through NATS, so a
// subscriber held by one process sees positions recorded by another.
type Fanout struct {
	origin  string
	nc      *nats.Conn
	prefix  string
	local   LocalNotifier
	metrics PublishRecorder
	log     zerolog.Logger
}

func NewFanout(nc *nats.Conn, prefix string, local LocalNotifier, metrics PublishRecorder, log zerolog.Logger) *Fanout {
	return &Fanout{
		origin:  uuid.NewString(),
		nc:      nc,
		prefix:  prefix,
		local:   local,
		metrics: metrics,
		log:     log.With().Str("component", "fanout").Logger(),
	}
}

// Notify wakes the local dispatcher, then announces busID on NATS for the
// other instances. Local delivery never depends on the broker.
func (f *Fanout) Notify(ctx context.Context, busID int64) {
	f.local.Notify(ctx, busID)

	msg := nats.NewMsg(UpdatedSubject(f.prefix, busID))
	msg.Header.Set(originHeader, f.origin)
	err := f.nc.PublishMsg(msg)
	if f.metrics != nil {
		f.metrics.Published(err)
	}
	if err != nil {
		f.log.Warn().Err(err).Int64("bus_id", busID).Msg("publish failed, remote instances not notified")
	}
}

// Serve relays announcements from other instances to the local dispatcher
// until ctx is done. Updates published by this instance are skipped.
func (f *Fanout) Serve(ctx context.Context) error {
	sub, err := f.nc.Subscribe(wildcard(f.prefix, updatedToken), func(msg *nats.Msg) {
		if msg.Header.Get(originHeader) == f.origin {
			return
		}
		busID, ok := busIDFromSubject(msg.Subject, f.prefix)
		if !ok {
			f.log.Warn().Str("subject", msg.Subject).Msg("ignoring malformed update subject")
			return
		}
		f.local.Notify(ctx, busID)
	})
	if err != nil {
		return fmt.Errorf("subscribe updates: %w", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			f.log.Debug().Err(err).Msg("unsubscribe updates")
		}
	}()

	f.log.Info().Str("subject", sub.Subject).Msg("fanout subscribed")
	<-ctx.Done()
	return ctx.Err()
}

func (f *Fanout) String() string {
	return "nats-fanout"
}
