// Package normalize turns raw spreadsheet rows into fixed-width rows.
//
// Rows coming back from the Sheets API are ragged: trailing cells are omitted
// when optional fields (notes, category split) are empty, and a stray export
// can carry extra cells. Normalization pins every row to exactly
// schema.Width values so the columnar transform downstream is well-defined.
package normalize

import (
	"fmt"
	"strconv"

	"github.com/sheetduck/sheetduck/pkg/schema"
)

// Value is a single normalized cell. A cell that was absent from the raw row
// is marked invalid and loads as NULL; an empty string present in the source
// stays a valid empty string.
type Value struct {
	Text  string
	Valid bool
}

// String returns a cell's text, or "" for a missing cell.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.Text
}

// Row is a normalized row of exactly schema.Width values.
type Row []Value

// Missing returns the missing-value marker.
func Missing() Value {
	return Value{}
}

// Text returns a present text cell.
func Text(s string) Value {
	return Value{Text: s, Valid: true}
}

// Normalize converts raw rows into fixed-width rows, preserving order.
//
// Each output row has exactly schema.Width values: position i takes the raw
// cell at i when present, the missing marker otherwise. Cells beyond position
// schema.Width-1 are dropped without error. An empty input yields an empty
// (non-nil error-free) output; zero rows is a fully supported dataset.
//
// No semantic validation happens here. Dates, times and amounts pass through
// as text; casting is deferred to query time.
func Normalize(rows [][]interface{}) []Row {
	normalized := make([]Row, 0, len(rows))
	for _, raw := range rows {
		normalized = append(normalized, normalizeRow(raw))
	}
	return normalized
}

// normalizeRow pins a single raw row to schema.Width cells.
func normalizeRow(raw []interface{}) Row {
	row := make(Row, schema.Width)
	for i := 0; i < schema.Width; i++ {
		if i < len(raw) {
			row[i] = coerce(raw[i])
		} else {
			row[i] = Missing()
		}
	}
	return row
}

// coerce renders a raw cell as text. The Sheets API hands cells back as
// interface{} values; anything non-string is formatted, and an explicit nil
// cell counts as missing.
func coerce(cell interface{}) Value {
	switch v := cell.(type) {
	case nil:
		return Missing()
	case string:
		return Text(v)
	case bool:
		return Text(strconv.FormatBool(v))
	case int:
		return Text(strconv.Itoa(v))
	case int64:
		return Text(strconv.FormatInt(v, 10))
	case float64:
		return Text(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return Text(fmt.Sprintf("%v", v))
	}
}
