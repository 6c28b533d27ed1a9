package query

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetduck/sheetduck/pkg/columnar"
	"github.com/sheetduck/sheetduck/pkg/duck"
	"github.com/sheetduck/sheetduck/pkg/normalize"
	"github.com/sheetduck/sheetduck/pkg/testutil"
)

func TestTypedViewSQL(t *testing.T) {
	sqlText := TypedViewSQL()

	assert.Contains(t, sqlText, `CREATE OR REPLACE VIEW "transactions_typed"`)
	assert.Contains(t, sqlText, `FROM "transactions"`)
	assert.Contains(t, sqlText, `try_strptime("date", '%d/%m/%Y')`)
	assert.Contains(t, sqlText, `TRY_CAST("amount" AS DECIMAL(10,2))`)
	assert.Contains(t, sqlText, `TRY_CAST("time" AS TIME)`)
	// Plain text columns pass through uncast.
	assert.NotContains(t, sqlText, `TRY_CAST("category"`)
	assert.Equal(t, 1, strings.Count(sqlText, "CREATE OR REPLACE VIEW"))
}

// loadFixture loads a small known dataset and creates the typed view.
func loadFixture(t *testing.T) *duck.DB {
	t.Helper()
	ctx, cancel := testutil.TestContext(t)
	t.Cleanup(cancel)

	db, err := duck.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	input := [][]interface{}{
		{"tx_1", "05/01/2024", "09:15:00", "Card payment", "Costa Coffee", "", "Eating out", "-4.50", "GBP", "-4.50", "GBP", "", "", "", "COSTA", ""},
		{"tx_2", "06/01/2024", "18:30:00", "Card payment", "Tesco", "", "Groceries", "-25.67", "GBP", "-25.67", "GBP", "", "", "", "TESCO", ""},
		{"tx_3", "12/02/2024", "12:00:00", "Card payment", "Tesco", "", "Groceries", "-10.33", "GBP", "-10.33", "GBP", "", "", "", "TESCO", ""},
		{"tx_4", "25/02/2024", "08:00:00", "Faster payment", "ACME Corp", "", "Income", "2500.00", "GBP", "2500.00", "GBP", "", "", "", "SALARY", ""},
	}
	require.NoError(t, columnar.Load(ctx, db, normalize.Normalize(input)))
	require.NoError(t, CreateTypedView(ctx, db))
	return db
}

func TestTopCategories(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := loadFixture(t)

	categories, err := TopCategories(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, categories, 2, "income rows are not spend")

	assert.Equal(t, "Groceries", categories[0].Category)
	assert.Equal(t, int64(2), categories[0].Transactions)
	assert.True(t, categories[0].TotalSpent.Equal(decimal.RequireFromString("36.00")),
		"got %s", categories[0].TotalSpent)

	assert.Equal(t, "Eating out", categories[1].Category)
	assert.True(t, categories[1].TotalSpent.Equal(decimal.RequireFromString("4.50")))
}

func TestMonthlySummaries(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := loadFixture(t)

	months, err := MonthlySummaries(ctx, db, 12)
	require.NoError(t, err)
	require.Len(t, months, 2)

	// Most recent first.
	assert.Equal(t, "2024-02", months[0].Month)
	assert.True(t, months[0].Income.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, months[0].Expenses.Equal(decimal.RequireFromString("10.33")))

	assert.Equal(t, "2024-01", months[1].Month)
	assert.True(t, months[1].Expenses.Equal(decimal.RequireFromString("30.17")))
}

func TestTopMerchants(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := loadFixture(t)

	merchants, err := TopMerchants(ctx, db, 1)
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	assert.Equal(t, "Tesco", merchants[0].Name)
	assert.True(t, merchants[0].TotalSpent.Equal(decimal.RequireFromString("36.00")))
}

func TestTypedViewMalformedCellsBecomeNull(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	db, err := duck.Open(ctx)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	input := [][]interface{}{
		{"tx_bad", "not-a-date", "25:99:99", "Card payment", "Shop", "", "Misc", "not-a-number"},
	}
	require.NoError(t, columnar.Load(ctx, db, normalize.Normalize(input)))
	require.NoError(t, CreateTypedView(ctx, db))

	var dateNull, amountNull bool
	err = db.SQL().QueryRowContext(ctx,
		`SELECT date IS NULL, amount IS NULL FROM transactions_typed`).Scan(&dateNull, &amountNull)
	require.NoError(t, err)
	assert.True(t, dateNull)
	assert.True(t, amountNull)
}
