// Package schema defines the fixed transaction table schema shared by the
// normalizer and the columnar loader.
//
// A Monzo spreadsheet export always carries the same 16 columns in the same
// order. Columns map positionally, not by header name: the loader never
// inspects a header row, it trusts this schema. Every column is loaded as
// variable-length text; typed access is layered on at query time (see the
// query package).
package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Width is the fixed number of columns in a transaction row.
const Width = 16

// TableName is the name the loaded table is registered under.
const TableName = "transactions"

// Field describes one column of the transaction table.
type Field struct {
	// Name is the column identifier
	Name string
	// DuckType is the DuckDB type used by the typed query-boundary view.
	// The loaded table itself is always VARCHAR.
	DuckType string
}

// Fields returns the transaction columns in export order.
func Fields() []Field {
	return []Field{
		{Name: "transaction_id", DuckType: "VARCHAR"},
		{Name: "date", DuckType: "DATE"},
		{Name: "time", DuckType: "TIME"},
		{Name: "type", DuckType: "VARCHAR"},
		{Name: "name", DuckType: "VARCHAR"},
		{Name: "emoji", DuckType: "VARCHAR"},
		{Name: "category", DuckType: "VARCHAR"},
		{Name: "amount", DuckType: "DECIMAL(10,2)"},
		{Name: "currency", DuckType: "VARCHAR"},
		{Name: "local_amount", DuckType: "DECIMAL(10,2)"},
		{Name: "local_currency", DuckType: "VARCHAR"},
		{Name: "notes_and_tags", DuckType: "VARCHAR"},
		{Name: "address", DuckType: "VARCHAR"},
		{Name: "receipt", DuckType: "VARCHAR"},
		{Name: "description", DuckType: "VARCHAR"},
		{Name: "category_split", DuckType: "VARCHAR"},
	}
}

// ColumnNames returns the 16 column names in export order.
func ColumnNames() []string {
	fields := Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Arrow returns the Arrow schema for the loaded table: every column is a
// nullable utf8 field. Missing trailing cells in short rows become nulls.
func Arrow() *arrow.Schema {
	fields := Fields()
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		arrowFields[i] = arrow.Field{
			Name:     f.Name,
			Type:     arrow.BinaryTypes.String,
			Nullable: true,
		}
	}
	return arrow.NewSchema(arrowFields, nil)
}
