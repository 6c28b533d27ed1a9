// Package pipeline orchestrates the load: fetch raw rows from the
// spreadsheet source, strip the header, normalize to the fixed width, and
// register the result as a DuckDB table.
//
// The pipeline is synchronous and single-pass; each Run fully completes the
// fetch, normalization, and registration before returning the database
// handle. The caller owns the handle and closes it when done.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sheetduck/sheetduck/pkg/columnar"
	"github.com/sheetduck/sheetduck/pkg/duck"
	"github.com/sheetduck/sheetduck/pkg/logger"
	"github.com/sheetduck/sheetduck/pkg/normalize"
	"github.com/sheetduck/sheetduck/pkg/schema"
	"github.com/sheetduck/sheetduck/pkg/sheets"
)

// Source supplies raw rows, header included. Implemented by *sheets.Client.
type Source interface {
	Fetch(ctx context.Context) ([][]interface{}, error)
}

// Pipeline wires a source to the normalizer and loader.
type Pipeline struct {
	source    Source
	hasHeader bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithoutHeader marks the source as delivering data rows only, with no
// leading header row to strip.
func WithoutHeader() Option {
	return func(p *Pipeline) { p.hasHeader = false }
}

// New creates a pipeline reading from the given source. The source is assumed
// to deliver a header row first unless WithoutHeader is set.
func New(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{source: source, hasHeader: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches, normalizes and loads the transactions, returning an open
// database with the table registered. On any error no database is returned
// and nothing is left registered. A spreadsheet with no data rows loads as a
// valid empty table.
func (p *Pipeline) Run(ctx context.Context) (*duck.DB, error) {
	raw, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if p.hasHeader {
		raw = sheets.StripHeader(raw)
	}

	rows := normalize.Normalize(raw)

	db, err := duck.Open(ctx)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, logger.TableKey, schema.TableName)
	if err := columnar.Load(ctx, db, rows); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.WithContext(ctx).Info("pipeline complete", zap.Int("rows", len(rows)))

	return db, nil
}
