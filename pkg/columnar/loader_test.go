package columnar

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetduck/sheetduck/pkg/duck"
	"github.com/sheetduck/sheetduck/pkg/errors"
	"github.com/sheetduck/sheetduck/pkg/normalize"
	"github.com/sheetduck/sheetduck/pkg/schema"
	"github.com/sheetduck/sheetduck/pkg/testutil"
)

func openDB(t *testing.T) *duck.DB {
	t.Helper()
	ctx, cancel := testutil.TestContext(t)
	t.Cleanup(cancel)

	db, err := duck.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadSingleRow(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	rows := normalize.Normalize([][]interface{}{testutil.SampleTransaction()})
	require.NoError(t, Load(ctx, db, rows))

	var category, amount string
	err := db.SQL().QueryRowContext(ctx,
		`SELECT category, amount FROM transactions`).Scan(&category, &amount)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", category)
	assert.Equal(t, "-5.00", amount, "amount stays uncast text")
}

func TestLoadShortRowReadsBackNull(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	rows := normalize.Normalize([][]interface{}{{"tx_2", "01/01/2024"}})
	require.NoError(t, Load(ctx, db, rows))

	var txID string
	var timeVal sql.NullString
	err := db.SQL().QueryRowContext(ctx,
		`SELECT transaction_id, "time" FROM transactions`).Scan(&txID, &timeVal)
	require.NoError(t, err)
	assert.Equal(t, "tx_2", txID)
	assert.False(t, timeVal.Valid, "missing cell loads as NULL, not empty string")
}

func TestLoadEmptyStringStaysEmptyString(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	raw := testutil.SampleTransaction()
	raw[5] = "" // emoji present but empty
	rows := normalize.Normalize([][]interface{}{raw})
	require.NoError(t, Load(ctx, db, rows))

	var emoji sql.NullString
	err := db.SQL().QueryRowContext(ctx, `SELECT emoji FROM transactions`).Scan(&emoji)
	require.NoError(t, err)
	require.True(t, emoji.Valid)
	assert.Equal(t, "", emoji.String)
}

func TestLoadEmptyDataset(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	require.NoError(t, Load(ctx, db, nil))

	count, err := db.Count(ctx, schema.TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// All 16 columns present.
	rows, err := db.SQL().QueryContext(ctx, `SELECT * FROM transactions`)
	require.NoError(t, err)
	defer rows.Close()
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnNames(), cols)
	assert.False(t, rows.Next())
}

func TestLoadColumnAlignment(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	input := [][]interface{}{
		{"tx_a", "01/01/2024", "09:00:00", "Card payment", "Shop A"},
		{"tx_b", "02/01/2024", "10:00:00", "Card payment", "Shop B"},
		{"tx_c", "03/01/2024", "11:00:00", "Faster payment", "Shop C"},
	}
	rows := normalize.Normalize(input)
	require.NoError(t, Load(ctx, db, rows))

	result, err := db.SQL().QueryContext(ctx,
		`SELECT transaction_id, date, name FROM transactions`)
	require.NoError(t, err)
	defer result.Close()

	k := 0
	for result.Next() {
		var id, date, name string
		require.NoError(t, result.Scan(&id, &date, &name))
		assert.Equal(t, rows[k][0].Text, id, "row %d", k)
		assert.Equal(t, rows[k][1].Text, date, "row %d", k)
		assert.Equal(t, rows[k][4].Text, name, "row %d", k)
		k++
	}
	require.NoError(t, result.Err())
	assert.Equal(t, 3, k, "row order preserved and all rows present")
}

func TestLoadSupportsRepeatedQueries(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	rows := normalize.Normalize([][]interface{}{testutil.SampleTransaction()})
	require.NoError(t, Load(ctx, db, rows))

	for i := 0; i < 3; i++ {
		count, err := db.Count(ctx, schema.TableName)
		require.NoError(t, err, "query %d", i)
		assert.Equal(t, int64(1), count, "query %d", i)
	}
}

func TestLoadSurvivesEarlyTerminatedScan(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	input := [][]interface{}{
		{"tx_a", "01/01/2024"},
		{"tx_b", "02/01/2024"},
		{"tx_c", "03/01/2024"},
	}
	require.NoError(t, Load(ctx, db, normalize.Normalize(input)))

	// A satisfied LIMIT stops the scan before the stream is drained. Rows
	// must still all be there for the next query.
	var id string
	require.NoError(t, db.SQL().QueryRowContext(ctx,
		`SELECT transaction_id FROM transactions LIMIT 1`).Scan(&id))
	assert.Equal(t, "tx_a", id)

	count, err := db.Count(ctx, schema.TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLoadReplacesPreviousTable(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	first := normalize.Normalize([][]interface{}{
		{"tx_old_1"}, {"tx_old_2"},
	})
	require.NoError(t, Load(ctx, db, first))

	second := normalize.Normalize([][]interface{}{{"tx_new"}})
	require.NoError(t, Load(ctx, db, second))

	count, err := db.Count(ctx, schema.TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var id string
	require.NoError(t, db.SQL().QueryRowContext(ctx,
		`SELECT transaction_id FROM transactions`).Scan(&id))
	assert.Equal(t, "tx_new", id)
}

func TestLoadColumnsRejectsWrongColumnCount(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	err := LoadColumns(ctx, db, nil, []string{"only", "two"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestLoadColumnsRejectsMalformedRow(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := openDB(t)

	good := normalize.Normalize([][]interface{}{{"tx_1"}})[0]
	bad := normalize.Row{normalize.Text("short")} // hand-built, wrong width

	err := LoadColumns(ctx, db, []normalize.Row{good, bad}, schema.ColumnNames())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))

	// Nothing was registered.
	_, countErr := db.Count(ctx, schema.TableName)
	assert.Error(t, countErr)
}
