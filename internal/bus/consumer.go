package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"bus-tracker/internal/model"
	"bus-tracker/internal/service"
)

const recordTimeout = 5 * time.Second

type PositionRecorder interface {
	RecordByCode(ctx context.Context, code string, lat, lon float64) (*model.PositionSample, error)
}

// IngestRecorder counts stored samples by source. A nil recorder is allowed.
type IngestRecorder interface {
	PositionRecorded(source string)
}

type positionMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type reply struct {
	Data  *model.PositionSample `json:"data,omitempty"`
	Error string                `json:"error,omitempty"`
}

var errMalformedPayload = fmt.Errorf("malformed position payload: %w", service.ErrInvalidInput)

// PositionConsumer stores GPS fixes that devices publish on
// <prefix>.<bus code>.position. Requests carrying a reply subject get the
// stored sample or the error back.
type PositionConsumer struct {
	nc       *nats.Conn
	prefix   string
	recorder PositionRecorder
	metrics  IngestRecorder
	log      zerolog.Logger
}

func NewPositionConsumer(nc *nats.Conn, prefix string, recorder PositionRecorder, metrics IngestRecorder, log zerolog.Logger) *PositionConsumer {
	return &PositionConsumer{
		nc:       nc,
		prefix:   prefix,
		recorder: recorder,
		metrics:  metrics,
		log:      log.With().Str("component", "position-consumer").Logger(),
	}
}

func (c *PositionConsumer) Serve(ctx context.Context) error {
	sub, err := c.nc.Subscribe(wildcard(c.prefix, positionToken), func(msg *nats.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe positions: %w", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.log.Debug().Err(err).Msg("unsubscribe positions")
		}
	}()

	c.log.Info().Str("subject", sub.Subject).Msg("position consumer subscribed")
	<-ctx.Done()
	return ctx.Err()
}

func (c *PositionConsumer) String() string {
	return "nats-position-consumer"
}

func (c *PositionConsumer) handle(ctx context.Context, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	sample, err := c.record(ctx, msg)
	if err != nil {
		event := c.log.Warn()
		if !errors.Is(err, service.ErrInvalidInput) && !errors.Is(err, service.ErrNotFound) {
			event = c.log.Error()
		}
		event.Err(err).Str("subject", msg.Subject).Msg("position dropped")
		c.respond(msg, reply{Error: err.Error()})
		return
	}

	if c.metrics != nil {
		c.metrics.PositionRecorded("nats")
	}
	c.respond(msg, reply{Data: sample})
}

func (c *PositionConsumer) record(ctx context.Context, msg *nats.Msg) (*model.PositionSample, error) {
	code, ok := middleToken(msg.Subject, c.prefix, positionToken)
	if !ok {
		return nil, fmt.Errorf("subject %q: %w", msg.Subject, service.ErrInvalidInput)
	}

	lat, lon, err := decodePosition(msg.Data)
	if err != nil {
		return nil, err
	}
	return c.recorder.RecordByCode(ctx, code, lat, lon)
}

func (c *PositionConsumer) respond(msg *nats.Msg, r reply) {
	if msg.Reply == "" {
		return
	}
	body, err := json.Marshal(r)
	if err != nil {
		c.log.Error().Err(err).Msg("encode reply")
		return
	}
	if err := msg.Respond(body); err != nil {
		c.log.Debug().Err(err).Msg("respond")
	}
}

func decodePosition(data []byte) (float64, float64, error) {
	var m positionMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return 0, 0, errMalformedPayload
	}
	if m.Latitude == nil || m.Longitude == nil {
		return 0, 0, errMalformedPayload
	}
	return *m.Latitude, *m.Longitude, nil
}
