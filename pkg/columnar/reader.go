package columnar

import (
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ReplayableReader is an array.RecordReader over a single materialized
// record that rewinds at the start of every scan.
//
// DuckDB consumes a registered Arrow stream front to back on every scan of
// the view. A plain reader is single-pass, so the second query against the
// table would see zero rows. DuckDB fetches the stream schema when it binds
// each query, before any batches are pulled, so Schema doubles as the rewind
// point. Rewinding there rather than at end-of-stream keeps the table intact
// even when a scan stops early, as a LIMIT that is satisfied mid-stream does.
//
// State changes are serialized with a mutex so interleaved scans stay
// memory-safe, but two scans consuming the stream concurrently would split
// the rows between them; issue queries against one registration sequentially.
type ReplayableReader struct {
	refCount int64
	schema   *arrow.Schema
	record   arrow.Record

	mu       sync.Mutex
	consumed bool
}

var _ array.RecordReader = (*ReplayableReader)(nil)

// NewReplayableReader wraps a record in a rewinding reader. The reader
// retains the record; callers keep their own reference.
func NewReplayableReader(record arrow.Record) *ReplayableReader {
	record.Retain()
	return &ReplayableReader{
		refCount: 1,
		schema:   record.Schema(),
		record:   record,
	}
}

// Schema returns the record's schema and rewinds the stream. DuckDB calls it
// once per query bind, so each scan starts from the beginning regardless of
// how far the previous scan got.
func (r *ReplayableReader) Schema() *arrow.Schema {
	r.mu.Lock()
	r.consumed = false
	r.mu.Unlock()
	return r.schema
}

// Next advances the stream. It returns true exactly once per pass.
func (r *ReplayableReader) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.consumed {
		return false
	}
	r.consumed = true
	return true
}

// Record returns the current record.
func (r *ReplayableReader) Record() arrow.Record {
	return r.record
}

// Err always returns nil; a materialized record cannot fail mid-stream.
func (r *ReplayableReader) Err() error {
	return nil
}

// Retain increments the reference count.
func (r *ReplayableReader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decrements the reference count, releasing the underlying record
// when it reaches zero.
func (r *ReplayableReader) Release() {
	if atomic.AddInt64(&r.refCount, -1) == 0 {
		r.record.Release()
		r.record = nil
	}
}
