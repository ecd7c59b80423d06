package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
)

type countingLoader struct {
	calls int
	fail  bool
}

func (l *countingLoader) Load(_ context.Context, src Source) (domain.Series, error) {
	l.calls++
	if l.fail {
		return domain.Series{}, errors.New("unreachable")
	}
	return domain.NewSeries(src.Name, []domain.Record{{Key: 2000, Value: 1}}), nil
}

func TestCachedLoader_Hit(t *testing.T) {
	inner := &countingLoader{}
	l := NewCachedLoader(inner, 4)

	for range 3 {
		s, err := l.Load(context.Background(), anomalySource)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Len())
	}
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedLoader_DoesNotCacheErrors(t *testing.T) {
	inner := &countingLoader{fail: true}
	l := NewCachedLoader(inner, 4)

	_, err := l.Load(context.Background(), anomalySource)
	require.Error(t, err)
	inner.fail = false
	_, err = l.Load(context.Background(), anomalySource)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestInstrumentedLoader(t *testing.T) {
	m := observability.NewMetricsForTesting()
	inner := &countingLoader{}
	l := Instrument(inner, m)

	_, err := l.Load(context.Background(), anomalySource)
	require.NoError(t, err)
	inner.fail = true
	_, err = l.Load(context.Background(), anomalySource)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("anomalies", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("anomalies", "error")), 0)
}

func TestLoadAll(t *testing.T) {
	srcs := []Source{{Name: "antarctica"}, {Name: "greenland"}}
	static := Static{
		"antarctica": domain.NewSeries("antarctica", []domain.Record{{Key: 2002, Value: 0}}),
		"greenland":  domain.NewSeries("greenland", []domain.Record{{Key: 2002, Value: 0}}),
	}
	got, err := LoadAll(context.Background(), static, srcs)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	delete(static, "greenland")
	_, err = LoadAll(context.Background(), static, srcs)
	require.ErrorIs(t, err, domain.ErrEmptyDataset)
	assert.Contains(t, err.Error(), "greenland")
}
