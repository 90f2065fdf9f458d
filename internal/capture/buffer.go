// Package capture drives the client side of the telemetry pipeline: the
// press/release correlator feeds a small batch buffer which ships to the
// ingestion API
package capture

import (
	"context"

	"keycap/internal/core/correlate"
)

// DefaultBatchSize is how many resolved records accumulate before a flush
const DefaultBatchSize = 5

// Dispatcher ships one batch upstream
type Dispatcher interface {
	Dispatch(ctx context.Context, records []correlate.Record) error
}

// DispatchFunc adapts a function to the Dispatcher interface
type DispatchFunc func(ctx context.Context, records []correlate.Record) error

// Dispatch calls the underlying function
func (f DispatchFunc) Dispatch(ctx context.Context, records []correlate.Record) error {
	return f(ctx, records)
}

// Buffer accumulates resolved records until the batch size is reached or a
// section boundary forces a partial flush. The buffer is cleared before the
// dispatch call returns so a record can never ship twice; when the dispatch
// fails the original records are put back in order
type Buffer struct {
	limit   int
	records []correlate.Record
}

// NewBuffer builds a buffer with the given flush threshold.
// A non-positive limit falls back to DefaultBatchSize
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	return &Buffer{limit: limit}
}

// Add appends one record and reports whether the buffer is due for a flush
func (b *Buffer) Add(rec correlate.Record) (full bool) {
	b.records = append(b.records, rec)
	return len(b.records) >= b.limit
}

// Len reports how many records are pending
func (b *Buffer) Len() int { return len(b.records) }

// Flush ships everything pending through d. An empty buffer is a no-op.
// On error the records are restored ahead of anything added since
func (b *Buffer) Flush(ctx context.Context, d Dispatcher) error {
	if len(b.records) == 0 {
		return nil
	}
	taken := b.records
	b.records = nil

	if err := d.Dispatch(ctx, taken); err != nil {
		b.records = append(taken, b.records...)
		return err
	}
	return nil
}
