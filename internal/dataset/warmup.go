package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

const (
	warmupBackoff    = 500 * time.Millisecond
	warmupMaxBackoff = 30 * time.Second
)

var errWarming = errors.New("datasets not loaded yet")

// Warmup loads a set of sources until every one of them succeeds, so the
// cache in front of the loader is primed before traffic arrives. It doubles
// as the readiness check for that condition.
type Warmup struct {
	mu    sync.Mutex
	ready bool
	err   error
}

// Run retries with backoff until all sources load or ctx is cancelled.
func (w *Warmup) Run(ctx context.Context, l Loader, srcs []Source, logger *slog.Logger) {
	backoff := warmupBackoff
	for {
		start := time.Now()
		_, err := LoadAll(ctx, l, srcs)
		w.mu.Lock()
		w.ready, w.err = err == nil, err
		w.mu.Unlock()
		if err == nil {
			logger.Info("datasets loaded", "sources", len(srcs), "duration", time.Since(start))
			return
		}
		if ctx.Err() != nil {
			return
		}
		logger.Warn("dataset warmup failed, retrying", "error", err, "backoff", backoff)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = sharedretry.NextBackoff(backoff, warmupMaxBackoff)
	}
}

// CheckReadiness reports the last load error until every source has loaded.
func (w *Warmup) CheckReadiness(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready {
		return nil
	}
	if w.err != nil {
		return w.err
	}
	return errWarming
}
