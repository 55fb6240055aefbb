// Package storage holds the batch loader behind the page sink. A Loader
// drains encoded rows from a channel and hands them to a CopyFn one batch at
// a time, so the sink's producer never waits on a round trip per row.
//
// Logging goes to the zerolog logger carried by ctx (zerolog.Ctx); each
// flush emits a debug progress line with running totals and rows/sec since
// the previous flush.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// CopyFn inserts one batch of rows, aligned to columns, and reports how many
// rows it wrote. rows is reused after the call returns.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// ErrShortWrite is returned when a CopyFn reports fewer rows than it was
// given without an error of its own.
var ErrShortWrite = errors.New("storage: short write")

// Result counts what a Loader wrote.
type Result struct {
	Rows    int64
	Batches int64
}

// Loader batches rows for one table.
type Loader struct {
	// Table is used for logging only.
	Table     string
	Columns   []string
	BatchSize int
	Copy      CopyFn
}

// Run reads in until it is closed, flushing every BatchSize rows and once
// more for the remainder. It stops at the first failed batch. When ctx is
// done it returns context.Cause(ctx) without flushing what is buffered.
func (l Loader) Run(ctx context.Context, in <-chan []any) (Result, error) {
	if l.BatchSize <= 0 {
		return Result{}, fmt.Errorf("storage: batch size must be > 0, got %d", l.BatchSize)
	}
	if l.Copy == nil {
		return Result{}, fmt.Errorf("storage: loader for %s has no copy function", l.Table)
	}

	log := zerolog.Ctx(ctx).With().Str("table", l.Table).Logger()
	var (
		res       Result
		batch     = make([][]any, 0, l.BatchSize)
		start     = time.Now()
		lastFlush = start
		lastRows  int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		want := int64(len(batch))
		n, err := l.Copy(ctx, l.Columns, batch)
		res.Rows += n
		batch = batch[:0]
		if err == nil && n < want {
			err = fmt.Errorf("%w: batch %d wrote %d of %d rows", ErrShortWrite, res.Batches+1, n, want)
		}
		if err != nil {
			log.Error().Err(err).Int64("inserted", n).Int64("total", res.Rows).Msg("loader: copy failed")
			return err
		}
		res.Batches++

		now := time.Now()
		rps := 0.0
		if d := now.Sub(lastFlush); d > 0 {
			rps = float64(res.Rows-lastRows) / d.Seconds()
		}
		log.Debug().
			Int64("batch", res.Batches).
			Float64("rps", rps).
			Int64("inserted", n).
			Int64("total", res.Rows).
			Dur("elapsed", now.Sub(start)).
			Msg("loader: batch flushed")
		lastFlush, lastRows = now, res.Rows
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return res, context.Cause(ctx)
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return res, err
				}
				log.Debug().Int64("batches", res.Batches).Int64("total", res.Rows).Msg("loader: input closed")
				return res, nil
			}
			batch = append(batch, row)
			if len(batch) == l.BatchSize {
				if err := flush(); err != nil {
					return res, err
				}
			}
		}
	}
}
