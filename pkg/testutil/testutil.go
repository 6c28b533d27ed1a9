// Package testutil provides testing utilities for sheetduck
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SampleTransaction returns one full-width raw transaction row for tests.
func SampleTransaction() []interface{} {
	return []interface{}{
		"tx_1", "01/01/2024", "10:00:00", "Card payment", "Shop A", "",
		"Groceries", "-5.00", "GBP", "-5.00", "GBP", "", "", "", "SHOP A", "",
	}
}
