// Package dataset loads the static climate tables behind each chart.
//
// Sources are header-first tables (CSV or the first sheet of an XLSX
// workbook). Each source declares which columns it reads and how to coerce
// them. Coercion never fails: a malformed or missing numeric cell becomes NaN
// and a missing string cell becomes "". Rows whose key cannot be read are
// dropped, since a record without a year has no place on any axis.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-story/internal/domain"
)

// ErrMissingColumn is returned when a declared column is absent from the
// header row.
var ErrMissingColumn = errors.New("missing column")

// Coercion is the declared type of a column.
type Coercion string

const (
	Int    Coercion = "int"
	Float  Coercion = "float"
	String Coercion = "string"
)

// Column declares one column to read.
type Column struct {
	Name string   `yaml:"name"`
	Type Coercion `yaml:"type"`
}

// Row is one coerced table row.
type Row struct {
	nums map[string]float64
	strs map[string]string
}

// Float returns a numeric cell, NaN when absent or malformed.
func (r Row) Float(col string) float64 {
	v, ok := r.nums[col]
	if !ok {
		return math.NaN()
	}
	return v
}

// Int returns a numeric cell as an integer. ok is false when the cell is
// absent, malformed, fractional or outside the int range.
func (r Row) Int(col string) (int, bool) {
	v := r.Float(col)
	if math.IsNaN(v) || v != math.Trunc(v) || v < math.MinInt || v >= math.MaxInt {
		return 0, false
	}
	return int(v), true
}

// String returns a text cell, "" when absent.
func (r Row) String(col string) string { return r.strs[col] }

// Table is a coerced header-first table.
type Table struct {
	Columns []Column
	Rows    []Row
}

// coerce builds a table from raw string records. The first record is the
// header.
func coerce(records [][]string, cols []Column) (*Table, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range cols {
		if _, ok := idx[c.Name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c.Name)
		}
	}

	t := &Table{Columns: cols, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := Row{nums: map[string]float64{}, strs: map[string]string{}}
		for _, c := range cols {
			cell := get(rec, idx[c.Name])
			switch c.Type {
			case Int, Float:
				row.nums[c.Name] = parseNumber(cell)
			default:
				row.strs[c.Name] = cell
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func get(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
