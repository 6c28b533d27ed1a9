// Package query is the typed query boundary over the loaded table.
//
// The transactions table itself is uniformly text; this package owns the cast
// expressions that give dates, times and amounts real types at query time. It
// builds a typed view and a handful of analytical summaries on top of it.
// Consumers who want raw text query the transactions table directly.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sheetduck/sheetduck/pkg/duck"
	"github.com/sheetduck/sheetduck/pkg/errors"
	"github.com/sheetduck/sheetduck/pkg/schema"
)

// TypedViewName is the name of the cast view created by CreateTypedView.
const TypedViewName = "transactions_typed"

// TypedViewSQL builds the CREATE VIEW statement that casts each column of the
// text table to its query-time type. Dates in a Monzo export are dd/mm/yyyy
// and times are HH:MM:SS; malformed cells become NULL via TRY_CAST rather
// than failing the whole view.
func TypedViewSQL() string {
	var exprs []string
	for _, f := range schema.Fields() {
		var expr string
		switch f.DuckType {
		case "VARCHAR":
			expr = fmt.Sprintf("%q", f.Name)
		case "DATE":
			expr = fmt.Sprintf("CAST(try_strptime(%q, '%%d/%%m/%%Y') AS DATE) AS %q", f.Name, f.Name)
		case "TIME":
			expr = fmt.Sprintf("TRY_CAST(%q AS TIME) AS %q", f.Name, f.Name)
		default:
			expr = fmt.Sprintf("TRY_CAST(%q AS %s) AS %q", f.Name, f.DuckType, f.Name)
		}
		exprs = append(exprs, expr)
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %q AS SELECT %s FROM %q",
		TypedViewName, strings.Join(exprs, ", "), schema.TableName)
}

// CreateTypedView creates (or replaces) the typed view on the database.
func CreateTypedView(ctx context.Context, db *duck.DB) error {
	if _, err := db.SQL().ExecContext(ctx, TypedViewSQL()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to create typed view").
			WithDetail("view", TypedViewName)
	}
	return nil
}

// CategorySpend summarizes spending within one category.
type CategorySpend struct {
	Category     string
	Transactions int64
	TotalSpent   decimal.Decimal
}

// TopCategories returns the highest-spend categories from the typed view,
// largest first. Only outgoing amounts count as spend.
func TopCategories(ctx context.Context, db *duck.DB, limit int) ([]CategorySpend, error) {
	query := fmt.Sprintf(`
		SELECT
			category,
			COUNT(*) AS transactions,
			CAST(SUM(ABS(amount)) AS VARCHAR) AS total_spent
		FROM %q
		WHERE amount < 0 AND category IS NOT NULL AND category != ''
		GROUP BY category
		ORDER BY SUM(ABS(amount)) DESC
		LIMIT %d`, TypedViewName, limit)

	rows, err := db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "category summary query failed")
	}
	defer rows.Close()

	var result []CategorySpend
	for rows.Next() {
		var cs CategorySpend
		var total string
		if err := rows.Scan(&cs.Category, &cs.Transactions, &total); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to scan category row")
		}
		cs.TotalSpent, err = decimal.NewFromString(total)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid decimal in category total").
				WithDetail("category", cs.Category).
				WithDetail("value", total)
		}
		result = append(result, cs)
	}
	return result, rows.Err()
}

// MonthlySummary aggregates one calendar month of activity.
type MonthlySummary struct {
	Month        string
	Transactions int64
	Expenses     decimal.Decimal
	Income       decimal.Decimal
}

// MonthlySummaries returns per-month expense and income totals from the typed
// view, most recent first.
func MonthlySummaries(ctx context.Context, db *duck.DB, limit int) ([]MonthlySummary, error) {
	query := fmt.Sprintf(`
		SELECT
			strftime(date, '%%Y-%%m') AS month,
			COUNT(*) AS transactions,
			CAST(SUM(CASE WHEN amount < 0 THEN ABS(amount) ELSE 0 END) AS VARCHAR) AS expenses,
			CAST(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END) AS VARCHAR) AS income
		FROM %q
		WHERE date IS NOT NULL
		GROUP BY strftime(date, '%%Y-%%m')
		ORDER BY month DESC
		LIMIT %d`, TypedViewName, limit)

	rows, err := db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "monthly summary query failed")
	}
	defer rows.Close()

	var result []MonthlySummary
	for rows.Next() {
		var ms MonthlySummary
		var expenses, income string
		if err := rows.Scan(&ms.Month, &ms.Transactions, &expenses, &income); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to scan monthly row")
		}
		if ms.Expenses, err = decimal.NewFromString(expenses); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid decimal in monthly expenses")
		}
		if ms.Income, err = decimal.NewFromString(income); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid decimal in monthly income")
		}
		result = append(result, ms)
	}
	return result, rows.Err()
}

// MerchantSpend summarizes spending at one merchant.
type MerchantSpend struct {
	Name         string
	Transactions int64
	TotalSpent   decimal.Decimal
}

// TopMerchants returns the merchants with the highest total spend.
func TopMerchants(ctx context.Context, db *duck.DB, limit int) ([]MerchantSpend, error) {
	query := fmt.Sprintf(`
		SELECT
			name,
			COUNT(*) AS transactions,
			CAST(SUM(ABS(amount)) AS VARCHAR) AS total_spent
		FROM %q
		WHERE amount < 0 AND name IS NOT NULL AND name != ''
		GROUP BY name
		ORDER BY SUM(ABS(amount)) DESC
		LIMIT %d`, TypedViewName, limit)

	rows, err := db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "merchant summary query failed")
	}
	defer rows.Close()

	var result []MerchantSpend
	for rows.Next() {
		var msp MerchantSpend
		var total string
		if err := rows.Scan(&msp.Name, &msp.Transactions, &total); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to scan merchant row")
		}
		msp.TotalSpent, err = decimal.NewFromString(total)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid decimal in merchant total").
				WithDetail("name", msp.Name)
		}
		result = append(result, msp)
	}
	return result, rows.Err()
}
