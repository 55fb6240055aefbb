package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"db2connector/internal/metrics"
	"db2connector/internal/predicate"
)

// Cursor iterates the rows of a pushed-down SELECT, decoding each value with
// its column's read function.
type Cursor struct {
	client  *SQLClient
	read    *ReadConnection
	rows    *sql.Rows
	columns []Column
	raw     []any
	dest    []any
	values  []any
	count   int64
	err     error
	start   time.Time
	closed  bool
}

// Query builds the SELECT for columns and constraints and runs it inside a
// read transaction. The cursor owns the connection until Close.
func (c *SQLClient) Query(ctx context.Context, catalog, schema, table string, columns []Column, constraints predicate.ConstraintSet) (*Cursor, error) {
	start := time.Now()
	stmt, err := c.BuildSQL(catalog, schema, table, columns, constraints)
	if err != nil {
		return nil, err
	}
	read, err := c.OpenReadConnection(ctx)
	if err != nil {
		metrics.RecordStep(c.dialect.Name, "query", err, time.Since(start))
		return nil, err
	}
	rows, err := read.Tx().QueryContext(ctx, stmt)
	if err != nil {
		_ = read.Close()
		err = jdbcError("query", err)
		metrics.RecordStep(c.dialect.Name, "query", err, time.Since(start))
		return nil, err
	}

	width := len(columns)
	if width == 0 {
		// SELECT null still returns one column per row.
		width = 1
	}
	cur := &Cursor{
		client:  c,
		read:    read,
		rows:    rows,
		columns: columns,
		raw:     make([]any, width),
		dest:    make([]any, width),
		values:  make([]any, len(columns)),
		start:   start,
	}
	for i := range cur.raw {
		cur.dest[i] = &cur.raw[i]
	}
	return cur, nil
}

// Next advances to the next row. It returns false at the end of the result
// or on error; check Err.
func (r *Cursor) Next() bool {
	if r.err != nil || r.closed {
		return false
	}
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			r.err = jdbcError("query", err)
		}
		return false
	}
	if err := r.rows.Scan(r.dest...); err != nil {
		r.err = jdbcError("query", err)
		return false
	}
	for i, col := range r.columns {
		v, err := col.Mapping.Read(r.raw[i])
		if err != nil {
			r.err = fmt.Errorf("client: column %s: %w", col.Name, err)
			return false
		}
		r.values[i] = v
	}
	r.count++
	return true
}

// Values returns the decoded values of the current row in column order. The
// slice is reused by the next call to Next.
func (r *Cursor) Values() []any { return r.values }

// Count returns the number of rows read so far.
func (r *Cursor) Count() int64 { return r.count }

// Err returns the first error met while iterating.
func (r *Cursor) Err() error { return r.err }

// Close releases the rows, the read transaction and the connection.
func (r *Cursor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	rowsErr := r.rows.Close()
	readErr := r.read.Close()
	metrics.RecordRows(r.client.dialect.Name, "read", r.count)
	metrics.RecordStep(r.client.dialect.Name, "query", r.err, time.Since(r.start))
	if rowsErr != nil {
		return jdbcError("query", rowsErr)
	}
	if readErr != nil {
		return jdbcError("query", readErr)
	}
	return nil
}
