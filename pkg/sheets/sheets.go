// Package sheets fetches transaction rows from a Google Sheets spreadsheet.
//
// This is the external tabular source feeding the pipeline. It hands rows
// onward exactly as the API returns them - ragged, untyped, header included -
// and leaves normalization to the normalize package. Authentication is static
// credentials only (a service account file or an API key); interactive OAuth
// flows are out of scope.
package sheets

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sheetduck/sheetduck/pkg/errors"
	"github.com/sheetduck/sheetduck/pkg/logger"
)

const (
	// EnvSpreadsheetID is the environment variable consulted when no
	// spreadsheet ID is configured explicitly.
	EnvSpreadsheetID = "SHEETDUCK_SPREADSHEET_ID"

	// DefaultSheet is the tab name of a Monzo export spreadsheet.
	DefaultSheet = "Personal Account Transactions"

	// DefaultRangeStart and DefaultRangeEnd cover the 16 export columns.
	DefaultRangeStart = "A"
	DefaultRangeEnd   = "P"
)

// Config configures a sheets client.
type Config struct {
	// SpreadsheetID identifies the spreadsheet. Falls back to the
	// SHEETDUCK_SPREADSHEET_ID environment variable when empty.
	SpreadsheetID string
	// Sheet is the tab name within the spreadsheet.
	Sheet string
	// RangeStart and RangeEnd are the column letters bounding the export.
	RangeStart string
	RangeEnd   string
	// CredentialsFile is a path to a service account JSON key.
	CredentialsFile string
	// APIKey authenticates instead of CredentialsFile when set.
	APIKey string
}

// Client reads rows from one spreadsheet range.
type Client struct {
	cfg  Config
	svc  *sheetsapi.Service
	data [][]interface{}
}

// NewClient validates the configuration and builds the Sheets API service.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = os.Getenv(EnvSpreadsheetID)
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New(errors.ErrorTypeConfig,
			"spreadsheet ID is required, set it in the config or the "+EnvSpreadsheetID+" environment variable")
	}
	if cfg.Sheet == "" {
		cfg.Sheet = DefaultSheet
	}
	if cfg.RangeStart == "" {
		cfg.RangeStart = DefaultRangeStart
	}
	if cfg.RangeEnd == "" {
		cfg.RangeEnd = DefaultRangeEnd
	}

	opts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope)}
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to build Sheets API service")
	}

	return &Client{cfg: cfg, svc: svc}, nil
}

// SpreadsheetID returns the resolved spreadsheet ID.
func (c *Client) SpreadsheetID() string {
	return c.cfg.SpreadsheetID
}

// RangeName returns the A1-notation range for the configured sheet,
// e.g. "Personal Account Transactions!A:P".
func (c *Client) RangeName() string {
	return RangeName(c.cfg.Sheet, c.cfg.RangeStart, c.cfg.RangeEnd)
}

// RangeName formats an A1-notation range from a sheet name and column bounds.
func RangeName(sheet, start, end string) string {
	return fmt.Sprintf("%s!%s:%s", sheet, start, end)
}

// Fetch retrieves the configured range from the spreadsheet. Results are
// cached on the client; use Refresh to force a re-fetch.
func (c *Client) Fetch(ctx context.Context) ([][]interface{}, error) {
	if c.data != nil {
		logger.Debug("returning cached spreadsheet data", zap.Int("rows", len(c.data)))
		return c.data, nil
	}
	return c.Refresh(ctx)
}

// Refresh retrieves the configured range, bypassing the cache.
func (c *Client) Refresh(ctx context.Context) ([][]interface{}, error) {
	ctx = context.WithValue(ctx, logger.SpreadsheetIDKey, c.cfg.SpreadsheetID)

	result, err := c.svc.Spreadsheets.Values.
		Get(c.cfg.SpreadsheetID, c.RangeName()).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to fetch spreadsheet values").
			WithDetail("spreadsheet_id", c.cfg.SpreadsheetID).
			WithDetail("range", c.RangeName())
	}

	c.data = result.Values
	if c.data == nil {
		c.data = [][]interface{}{}
	}

	logger.WithContext(ctx).Info("fetched spreadsheet data",
		zap.String("range", c.RangeName()),
		zap.Int("rows", len(c.data)))

	return c.data, nil
}

// StripHeader drops the leading header row if one is present. The Monzo
// export always carries a header; callers strip it before normalizing since
// the pipeline maps columns by position, never by header name.
func StripHeader(rows [][]interface{}) [][]interface{} {
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}
