package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sheetduck/sheetduck/internal/pipeline"
	"github.com/sheetduck/sheetduck/pkg/config"
	"github.com/sheetduck/sheetduck/pkg/logger"
	"github.com/sheetduck/sheetduck/pkg/query"
	"github.com/sheetduck/sheetduck/pkg/schema"
	"github.com/sheetduck/sheetduck/pkg/sheets"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var configFile, spreadsheetID, logLevel string

	root := &cobra.Command{
		Use:   "sheetduck",
		Short: "sheetduck - Monzo spreadsheet exports as a queryable DuckDB table",
		Long: `sheetduck loads a Monzo transaction export from a Google Sheets spreadsheet,
normalizes it into a fixed 16-column schema, and registers it as an in-memory
DuckDB table for ad-hoc SQL.`,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&spreadsheetID, "spreadsheet-id", "", "spreadsheet ID (overrides config and env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sheetduck v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "columns",
		Short: "Print the fixed transaction schema",
		Run: func(cmd *cobra.Command, args []string) {
			for _, f := range schema.Fields() {
				fmt.Printf("%-16s %s\n", f.Name, f.DuckType)
			}
		},
	})

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Fetch the spreadsheet and load it into DuckDB, printing summary stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), configFile, spreadsheetID, logLevel)
		},
	}
	root.AddCommand(loadCmd)

	queryCmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Fetch, load, and run a SQL query against the transactions table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), configFile, spreadsheetID, logLevel, args[0])
		},
	}
	root.AddCommand(queryCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, initializes logging from it, and builds the
// pipeline. An explicit --log-level wins over the config file.
func setup(ctx context.Context, configFile, spreadsheetID, logLevel string) (*pipeline.Pipeline, *config.Config, error) {
	cfg := config.New()
	if configFile != "" {
		if err := config.Load(configFile, cfg); err != nil {
			return nil, nil, err
		}
	}
	if spreadsheetID != "" {
		cfg.Source.SpreadsheetID = spreadsheetID
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
	}); err != nil {
		return nil, nil, err
	}

	client, err := sheets.NewClient(ctx, cfg.Sheets())
	if err != nil {
		return nil, nil, err
	}

	return pipeline.New(client), cfg, nil
}

func runLoad(ctx context.Context, configFile, spreadsheetID, logLevel string) error {
	defer func() { _ = logger.Sync() }()

	p, _, err := setup(ctx, configFile, spreadsheetID, logLevel)
	if err != nil {
		return err
	}

	db, err := p.Run(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	count, err := db.Count(ctx, schema.TableName)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d transactions into table %q\n", count, schema.TableName)

	if err := query.CreateTypedView(ctx, db); err != nil {
		return err
	}
	categories, err := query.TopCategories(ctx, db, 10)
	if err != nil {
		return err
	}
	if len(categories) > 0 {
		fmt.Println("\nTop spending categories:")
		for _, c := range categories {
			fmt.Printf("  %-20s £%s (%d transactions)\n", c.Category, c.TotalSpent.StringFixed(2), c.Transactions)
		}
	}

	return nil
}

func runQuery(ctx context.Context, configFile, spreadsheetID, logLevel, sqlText string) error {
	defer func() { _ = logger.Sync() }()

	p, _, err := setup(ctx, configFile, spreadsheetID, logLevel)
	if err != nil {
		return err
	}

	db, err := p.Run(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := query.CreateTypedView(ctx, db); err != nil {
		return err
	}

	rows, err := db.SQL().QueryContext(ctx, sqlText)
	if err != nil {
		logger.Error("query failed", zap.String("sql", sqlText), zap.Error(err))
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	enc := gojson.NewEncoder(os.Stdout)
	values := make([]interface{}, len(cols))
	scanArgs := make([]interface{}, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return rows.Err()
}
