package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/climate-story/internal/cache"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
)

// CachedLoader wraps a Loader with an in-memory LRU keyed by source. Series
// are immutable once loaded, so every chart instance shares one copy.
type CachedLoader struct {
	inner Loader
	cache *cache.LRU[string, domain.Series]
}

// NewCachedLoader creates a cache decorator around a loader.
func NewCachedLoader(inner Loader, maxEntries int) *CachedLoader {
	return &CachedLoader{inner: inner, cache: cache.New[string, domain.Series](maxEntries)}
}

func (c *CachedLoader) Load(ctx context.Context, src Source) (domain.Series, error) {
	key := src.Name + "|" + src.Path + "|" + src.Sheet
	if s, ok := c.cache.Get(key); ok {
		return s, nil
	}
	s, err := c.inner.Load(ctx, src)
	if err != nil {
		return s, err
	}
	// Failures are not cached so a later mount can retry.
	if !s.Empty() {
		c.cache.Put(key, s)
	}
	return s, nil
}

// InstrumentedLoader records load outcomes and durations.
type InstrumentedLoader struct {
	inner   Loader
	metrics *observability.Metrics
}

// Instrument wraps l with load metrics.
func Instrument(l Loader, m *observability.Metrics) *InstrumentedLoader {
	return &InstrumentedLoader{inner: l, metrics: m}
}

func (l *InstrumentedLoader) Load(ctx context.Context, src Source) (domain.Series, error) {
	start := time.Now()
	s, err := l.inner.Load(ctx, src)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	l.metrics.DatasetLoads.WithLabelValues(src.Name, outcome).Inc()
	l.metrics.DatasetLoadDuration.WithLabelValues(src.Name).Observe(time.Since(start).Seconds())
	return s, err
}

// LoadAll loads every source and keys the results by source name. The first
// failure aborts the rest.
func LoadAll(ctx context.Context, l Loader, srcs []Source) (map[string]domain.Series, error) {
	out := make(map[string]domain.Series, len(srcs))
	for _, src := range srcs {
		s, err := l.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.Name, err)
		}
		out[src.Name] = s
	}
	return out, nil
}
