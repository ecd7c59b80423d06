package dataset

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var anomalySource = Source{Name: "anomalies", Path: "anomalies.csv", Key: "year", Value: "anomaly", Label: "month"}

const anomalyCSV = `year,month,anomaly
1941,Jan,0.10
1940,Feb,n/a
1940,Jan,-0.25
,Mar,0.4

1941,Feb,
bad,Apr,0.3
`

func TestParseCSV_Coercion(t *testing.T) {
	tbl, err := ParseCSV(strings.NewReader(anomalyCSV), anomalySource.Columns())
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 6, "blank lines are skipped")

	assert.True(t, math.IsNaN(tbl.Rows[1].Float("anomaly")), "malformed number is NaN")
	assert.True(t, math.IsNaN(tbl.Rows[4].Float("anomaly")), "missing number is NaN")
	_, ok := tbl.Rows[3].Int("year")
	assert.False(t, ok)
	assert.Equal(t, "Feb", tbl.Rows[1].String("month"))
	assert.Equal(t, "", tbl.Rows[0].String("nope"))
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("year,value\n2000,1\n"), anomalySource.Columns())
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParseCSV(strings.NewReader(""), anomalySource.Columns())
	require.ErrorIs(t, err, domain.ErrEmptyDataset)
}

func TestParse_SeriesSortedAndKeyless(t *testing.T) {
	s, err := Parse(anomalySource, strings.NewReader(anomalyCSV))
	require.NoError(t, err)

	assert.Equal(t, "anomalies", s.Name)
	assert.True(t, s.Sorted())
	require.Equal(t, 4, s.Len(), "rows without a year are dropped")
	assert.Equal(t, []int{1940, 1941}, s.Keys())
	assert.Equal(t, "Feb", s.Records[0].Label, "same-key rows keep file order")

	groups := domain.GroupByKey(s)
	require.Len(t, groups, 2)
	assert.Equal(t, -0.25, groups[0].Mean, "NaN months are excluded")
	assert.Equal(t, 1, groups[0].Count)
}

func TestParse_HeaderOnly(t *testing.T) {
	_, err := Parse(anomalySource, strings.NewReader("year,month,anomaly\n"))
	require.ErrorIs(t, err, domain.ErrEmptyDataset)
}

func TestRow_IntRejectsNonIntegralKeys(t *testing.T) {
	const raw = "year,month,anomaly\n2000,Jan,1\n2001.0,Jan,1\n2000.5,Jan,1\n1e300,Jan,1\n-1e300,Jan,1\nInf,Jan,1\n"
	tbl, err := ParseCSV(strings.NewReader(raw), anomalySource.Columns())
	require.NoError(t, err)

	tests := []struct {
		name string
		key  int
		ok   bool
	}{
		{"integer", 2000, true},
		{"integral float", 2001, true},
		{"fractional", 0, false},
		{"too large", 0, false},
		{"too small", 0, false},
		{"infinite", 0, false},
	}
	require.Len(t, tbl.Rows, len(tests))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := tbl.Rows[i].Int("year")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}

	s, err := Parse(anomalySource, strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []int{2000, 2001}, s.Keys(), "unusable keys are dropped")
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	require.NoError(t, f.SetCellValue(sheet, "A1", "year"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "ppm"))
	require.NoError(t, f.SetCellValue(sheet, "A2", 1960))
	require.NoError(t, f.SetCellValue(sheet, "B2", 316.91))
	require.NoError(t, f.SetCellValue(sheet, "A3", 1959))
	require.NoError(t, f.SetCellValue(sheet, "B3", "x"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	src := Source{Name: "co2", Path: "co2.xlsx", Key: "year", Value: "ppm"}
	assert.Equal(t, "xlsx", src.Format())

	s, err := Parse(src, buf)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 1959, s.Records[0].Key)
	assert.True(t, math.IsNaN(s.Records[0].Value))
	assert.InDelta(t, 316.91, s.Records[1].Value, 1e-9)
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anomalies.csv"), []byte(anomalyCSV), 0o600))

	l := FileLoader{Dir: dir}
	s, err := l.Load(context.Background(), anomalySource)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())

	_, err = l.Load(context.Background(), Source{Name: "gone", Path: "gone.csv", Key: "year", Value: "v"})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPLoader_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/data/anomalies.csv", r.URL.Path)
		_, _ = w.Write([]byte(anomalyCSV))
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL+"/data/", 3, time.Second, nil)
	l.Delay = time.Millisecond
	s, err := l.Load(context.Background(), anomalySource)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPLoader_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL, 5, time.Second, nil)
	l.Delay = time.Millisecond
	_, err := l.Load(context.Background(), anomalySource)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestStatic(t *testing.T) {
	s := Static{"co2": domain.NewSeries("co2", []domain.Record{{Key: 1960, Value: 317}})}
	got, err := s.Load(context.Background(), Source{Name: "co2"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	_, err = s.Load(context.Background(), Source{Name: "missing"})
	require.ErrorIs(t, err, domain.ErrEmptyDataset)
}
