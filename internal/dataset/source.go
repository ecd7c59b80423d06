package dataset

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/couchcryptid/climate-story/internal/domain"
)

// Source describes where a series lives and which columns feed a Record.
type Source struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet,omitempty"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
	Label string `yaml:"label,omitempty"`
	Code  string `yaml:"code,omitempty"`
}

// Format returns "xlsx" or "csv" from the path extension.
func (s Source) Format() string {
	if strings.EqualFold(path.Ext(s.Path), ".xlsx") {
		return "xlsx"
	}
	return "csv"
}

// Columns lists the columns the source reads.
func (s Source) Columns() []Column {
	cols := []Column{{Name: s.Key, Type: Int}, {Name: s.Value, Type: Float}}
	if s.Label != "" {
		cols = append(cols, Column{Name: s.Label, Type: String})
	}
	if s.Code != "" {
		cols = append(cols, Column{Name: s.Code, Type: String})
	}
	return cols
}

// Series converts a coerced table into a key-sorted series. Rows without a
// readable key are dropped; NaN values are kept for the aggregation step to
// exclude.
func (s Source) Series(t *Table) (domain.Series, error) {
	recs := make([]domain.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		key, ok := row.Int(s.Key)
		if !ok {
			continue
		}
		r := domain.Record{Key: key, Value: row.Float(s.Value)}
		if s.Label != "" {
			r.Label = row.String(s.Label)
		}
		if s.Code != "" {
			r.Code = row.String(s.Code)
		}
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		return domain.Series{}, fmt.Errorf("%s: %w", s.Name, domain.ErrEmptyDataset)
	}
	return domain.NewSeries(s.Name, recs), nil
}

// Loader fetches and parses a source.
type Loader interface {
	Load(ctx context.Context, src Source) (domain.Series, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src Source) (domain.Series, error)

func (f LoaderFunc) Load(ctx context.Context, src Source) (domain.Series, error) {
	return f(ctx, src)
}

// Static serves series from memory, keyed by source name.
type Static map[string]domain.Series

func (s Static) Load(_ context.Context, src Source) (domain.Series, error) {
	series, ok := s[src.Name]
	if !ok || series.Empty() {
		return domain.Series{}, fmt.Errorf("%s: %w", src.Name, domain.ErrEmptyDataset)
	}
	return series, nil
}
