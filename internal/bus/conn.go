package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ConnectionRecorder tracks connection state. A nil recorder is allowed.
type ConnectionRecorder interface {
	Connected(up bool)
}

// Connect dials NATS and keeps reconnecting in the background.
func Connect(url, name string, metrics ConnectionRecorder, log zerolog.Logger) (*nats.Conn, error) {
	setConnected := func(up bool) {
		if metrics != nil {
			metrics.Connected(up)
		}
	}

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			setConnected(false)
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			setConnected(true)
			log.Info().Str("url", c.ConnectedUrlRedacted()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			setConnected(false)
			log.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	setConnected(nc.IsConnected())
	return nc, nil
}
