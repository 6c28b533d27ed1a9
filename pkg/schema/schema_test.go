package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNames(t *testing.T) {
	names := ColumnNames()
	require.Len(t, names, Width)

	expected := []string{
		"transaction_id", "date", "time", "type", "name", "emoji",
		"category", "amount", "currency", "local_amount", "local_currency",
		"notes_and_tags", "address", "receipt", "description", "category_split",
	}
	assert.Equal(t, expected, names)
}

func TestArrowSchema(t *testing.T) {
	s := Arrow()
	require.Equal(t, Width, len(s.Fields()))

	for _, f := range s.Fields() {
		assert.Equal(t, arrow.BinaryTypes.String, f.Type, "column %s", f.Name)
		assert.True(t, f.Nullable, "column %s", f.Name)
	}
}

func TestFieldsCarryQueryTypes(t *testing.T) {
	byName := make(map[string]string)
	for _, f := range Fields() {
		byName[f.Name] = f.DuckType
	}
	assert.Equal(t, "DATE", byName["date"])
	assert.Equal(t, "TIME", byName["time"])
	assert.Equal(t, "DECIMAL(10,2)", byName["amount"])
	assert.Equal(t, "VARCHAR", byName["category"])
}
