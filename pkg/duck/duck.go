// Package duck wraps an embedded in-memory DuckDB database.
//
// The database handle is an explicitly passed, owned resource: the caller
// opens it, hands it to the loader, queries it, and closes it. Binding a
// table into the database is an explicit RegisterView call, never a side
// effect of another code path.
//
// The handle keeps both a database/sql pool and a native driver connection
// from the same connector. The native connection carries the Arrow interface
// used for zero-copy view registration; SQL queries run through the pool and
// see the registered views because DuckDB's catalog is shared across
// connections to the same database.
package duck

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"

	"github.com/sheetduck/sheetduck/pkg/errors"
	"github.com/sheetduck/sheetduck/pkg/logger"
)

// DB is an open in-memory DuckDB database.
type DB struct {
	connector *duckdb.Connector
	sqlDB     *sql.DB
	conn      driver.Conn
	arrow     *duckdb.Arrow

	mu       sync.Mutex
	releases map[string]func()
	closed   bool
}

// Open creates a new in-memory database.
func Open(ctx context.Context) (*DB, error) {
	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create DuckDB connector")
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		_ = connector.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to DuckDB")
	}

	ar, err := duckdb.NewArrowFromConn(conn)
	if err != nil {
		_ = conn.Close()
		_ = connector.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create Arrow interface")
	}

	db := &DB{
		connector: connector,
		sqlDB:     sql.OpenDB(connector),
		conn:      conn,
		arrow:     ar,
		releases:  make(map[string]func()),
	}

	logger.Debug("DuckDB connection created")
	return db, nil
}

// SQL returns the database/sql handle for running queries.
func (db *DB) SQL() *sql.DB {
	return db.sqlDB
}

// RegisterView binds an Arrow record reader under the given name. The engine
// holds a reference to the reader's buffers; no row data is copied.
//
// Registering a name that is already bound replaces the previous binding: the
// old view is dropped and its Arrow registration released before the new one
// is created. The replacement is atomic from the caller's point of view - on
// error the old binding is gone and no new one exists, and the error says so.
func (db *DB) RegisterView(ctx context.Context, reader array.RecordReader, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return errors.New(errors.ErrorTypeRegistration, "database is closed").
			WithDetail("view", name)
	}

	// Replace policy: drop any prior binding first.
	if release, ok := db.releases[name]; ok {
		if _, err := db.sqlDB.ExecContext(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %q", name)); err != nil {
			return errors.Wrap(err, errors.ErrorTypeRegistration, "failed to drop previous view").
				WithDetail("view", name)
		}
		release()
		delete(db.releases, name)
		logger.Debug("replaced previous view registration", zap.String("view", name))
	}

	release, err := db.arrow.RegisterView(reader, name)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeRegistration, "DuckDB rejected view registration").
			WithDetail("view", name)
	}
	db.releases[name] = release

	return nil
}

// Count returns the number of rows in the named table or view.
func (db *DB) Count(ctx context.Context, name string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %q", name)
	if err := db.sqlDB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeQuery, "count query failed").
			WithDetail("table", name)
	}
	return count, nil
}

// Close releases all view registrations and closes the database. The handle
// must not be used afterwards.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	for name, release := range db.releases {
		release()
		delete(db.releases, name)
	}

	var firstErr error
	if err := db.sqlDB.Close(); err != nil {
		firstErr = err
	}
	if err := db.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := db.connector.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		return errors.Wrap(firstErr, errors.ErrorTypeConnection, "failed to close DuckDB cleanly")
	}
	return nil
}
