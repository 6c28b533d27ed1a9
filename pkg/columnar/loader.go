// Package columnar re-shapes normalized rows into an Arrow table and
// registers it with DuckDB.
//
// The transform is the performance-critical half of the pipeline: rows are
// transposed once into column-major Arrow arrays, and the resulting record is
// handed to the engine by sharing buffers (an Arrow view registration), not
// by per-row INSERT statements. Registration cost is constant in the row
// count.
package columnar

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/sheetduck/sheetduck/pkg/duck"
	"github.com/sheetduck/sheetduck/pkg/errors"
	"github.com/sheetduck/sheetduck/pkg/logger"
	"github.com/sheetduck/sheetduck/pkg/normalize"
	"github.com/sheetduck/sheetduck/pkg/schema"
)

// Load re-shapes normalized rows into a column-major Arrow table and binds it
// under schema.TableName on the given database. The same database handle is
// usable for SQL queries against the table as soon as Load returns.
//
// Zero rows is not an error: the result is a valid empty table with the full
// 16-column schema. A row of the wrong width fails with a schema-mismatch
// error before anything is registered; Load never leaves a partial table
// behind.
//
// Loading twice on the same database replaces the previous table (see
// duck.DB.RegisterView).
func Load(ctx context.Context, db *duck.DB, rows []normalize.Row) error {
	return LoadColumns(ctx, db, rows, schema.ColumnNames())
}

// LoadColumns is Load with an explicit column list. The list must have
// exactly schema.Width names; it exists so tests and callers with a renamed
// schema keep the same defensive checks.
func LoadColumns(ctx context.Context, db *duck.DB, rows []normalize.Row, columns []string) error {
	if len(columns) != schema.Width {
		return errors.New(errors.ErrorTypeSchema, "wrong number of columns").
			WithDetail("expected", schema.Width).
			WithDetail("actual", len(columns))
	}
	for i, row := range rows {
		if len(row) != schema.Width {
			return errors.New(errors.ErrorTypeSchema, "row does not have the fixed width").
				WithDetail("row", i).
				WithDetail("expected", schema.Width).
				WithDetail("actual", len(row))
		}
	}

	record := buildRecord(rows, columns)
	defer record.Release()

	reader := NewReplayableReader(record)
	if err := db.RegisterView(ctx, reader, schema.TableName); err != nil {
		reader.Release()
		return err
	}

	logger.Info("registered transaction table",
		zap.String("table", schema.TableName),
		zap.Int("rows", len(rows)),
		zap.Int("columns", schema.Width))

	return nil
}

// buildRecord transposes row-major data into a column-major Arrow record.
// Missing cells become nulls; present cells keep their text, empty or not.
func buildRecord(rows []normalize.Row, columns []string) arrow.Record {
	arrowFields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		arrowFields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	arrowSchema := arrow.NewSchema(arrowFields, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), arrowSchema)
	defer builder.Release()

	for i := 0; i < schema.Width; i++ {
		col := builder.Field(i).(*array.StringBuilder)
		col.Reserve(len(rows))
		for _, row := range rows {
			if row[i].Valid {
				col.Append(row[i].Text)
			} else {
				col.AppendNull()
			}
		}
	}

	return builder.NewRecord()
}
