package bridge

import (
	"context"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Conn is one live, subscribed transport connection. Listen blocks until the
// transport fails or ctx is cancelled. A Conn is never reused after Listen
// returns; the subscriber closes it and dials a fresh one.
type Conn interface {
	Listen(ctx context.Context, onMessage func(payload []byte)) error
	Close() error
}

// Dialer establishes a fresh connection with an active subscription.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Handler receives each successfully decoded event from the bridge.
type Handler func(ev models.TradeEvent)
