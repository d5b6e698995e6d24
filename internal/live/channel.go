package live

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Channel is one subscriber connection able to receive pushed documents.
// Send must not block; Close must be safe to call more than once.
type Channel interface {
	ID() uuid.UUID
	Send(payload []byte) error
	Close()
	Closed() bool
}
