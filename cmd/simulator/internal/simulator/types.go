package simulator

import (
	"context"
	"time"

	"github.com/amitgarg31/tradesense-ai/pkg/models"
)

// Producer is the enqueue side of the task queue.
type Producer interface {
	EnqueueTrade(ctx context.Context, ev models.TradeEvent) (string, error)
}

// Rand abstracts the price-walk randomness; tests pin it.
type Rand interface {
	Float64() float64
}

// Clock abstracts time so tests run without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// SystemClock is the real clock used outside of tests.
func SystemClock() Clock { return systemClock{} }
