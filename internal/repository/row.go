package repository

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// SourceRow is one record of a source table. Values are keyed by the column
// names reported by the table.
type SourceRow struct {
	ID       int64
	Values   map[string]any
	Geometry orb.Geometry
}

// Float returns a column as a number. Absent, null and non-numeric values
// report false.
func (r *SourceRow) Float(column string) (float64, bool) {
	switch v := r.Values[column].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns a column as an integer, truncating fractional values
func (r *SourceRow) Int(column string) (int, bool) {
	f, ok := r.Float(column)
	return int(f), ok
}

// String returns a column as text. Numbers are formatted without exponent.
func (r *SourceRow) String(column string) (string, bool) {
	switch v := r.Values[column].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case nil:
		return "", false
	}
	if f, ok := r.Float(column); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
