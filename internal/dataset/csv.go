package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ParseCSV reads a header-first CSV and coerces the declared columns.
func ParseCSV(r io.Reader, cols []Column) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return coerce(records, cols)
}
