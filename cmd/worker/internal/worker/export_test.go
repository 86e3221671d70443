package worker

import (
	"context"
	"time"
)

// SetRetrySleep replaces the retry backoff sleep so tests drive the loop
// without waiting.
func SetRetrySleep(w *Worker, f func(ctx context.Context, d time.Duration) bool) {
	w.sleep = f
}
