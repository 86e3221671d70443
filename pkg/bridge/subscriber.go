package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Subscriber drives the receive side of the bridge: it dials the transport,
// pulls raw messages, decodes them, and hands each event to the handler. On
// any transport error it tears the connection down and redials with
// exponential backoff; the delay resets once a subscription succeeds.
type Subscriber struct {
	dialer  Dialer
	handler Handler
	logger  *zap.Logger

	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(ctx context.Context, d time.Duration) bool
}

func NewSubscriber(dialer Dialer, handler Handler, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		dialer:         dialer,
		handler:        handler,
		logger:         logger,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
		sleep:          sleepCtx,
	}
}

// Run blocks until ctx is cancelled. Exactly one Run loop exists per
// process.
func (s *Subscriber) Run(ctx context.Context) {
	delay := s.initialBackoff

	for ctx.Err() == nil {
		conn, err := s.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("bridge connect failed",
				zap.Error(err), zap.Duration("retry_in", delay))
			if !s.sleep(ctx, delay) {
				return
			}
			delay = nextDelay(delay, s.maxBackoff)
			continue
		}

		s.logger.Info("bridge subscribed")
		delay = s.initialBackoff

		err = conn.Listen(ctx, s.dispatch)
		// Tear down before any retry so a stale handle is never reused
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn("bridge connection close failed", zap.Error(cerr))
		}
		if ctx.Err() != nil {
			return
		}

		s.logger.Error("bridge connection lost",
			zap.Error(err), zap.Duration("retry_in", delay))
		if !s.sleep(ctx, delay) {
			return
		}
		delay = nextDelay(delay, s.maxBackoff)
	}
}

// dispatch decodes one raw message. A single undecodable message is dropped
// without touching the connection.
func (s *Subscriber) dispatch(payload []byte) {
	ev, err := models.DecodeTradeEvent(payload)
	if err != nil {
		s.logger.Warn("dropping undecodable bridge message", zap.Error(err))
		return
	}
	s.handler(ev)
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

// sleepCtx waits for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
