package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"db2connector/internal/metrics"
	"db2connector/internal/storage"
	"db2connector/internal/typemap"
)

// tempTablePrefix starts the name of every staging table.
const tempTablePrefix = "tmp_conn_"

// ErrSinkClosed is returned by AppendRow once Finish or Abort has run.
var ErrSinkClosed = errors.New("client: page sink is closed")

// InsertHandle tracks one staged insert: rows are loaded into TempTable,
// a copy of the target's columns, and moved into the target on
// FinishInsert.
type InsertHandle struct {
	Spec      TableSpec
	TempTable string
	mappings  []typemap.WriteMapping
}

// BeginInsert resolves write mappings for the target columns and creates
// the empty staging table.
func (c *SQLClient) BeginInsert(ctx context.Context, spec TableSpec) (*InsertHandle, error) {
	if len(spec.Columns) == 0 {
		return nil, fmt.Errorf("client: insert into %s: no columns", spec.Table)
	}
	mappings := make([]typemap.WriteMapping, len(spec.Columns))
	for i, col := range spec.Columns {
		wm, err := c.ToWriteMapping(col.Type)
		if err != nil {
			return nil, fmt.Errorf("client: column %s: %w", col.Name, err)
		}
		mappings[i] = wm
	}

	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	temp, err := c.toRemoteCase(ctx, conn, tempTablePrefix+strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err != nil {
		return nil, jdbcError("begin_insert", err)
	}
	if err := c.CopyTableSchema(ctx, conn, spec.Catalog, spec.Schema, spec.Table, temp, spec.columnNames()); err != nil {
		return nil, err
	}
	c.log.Debug().Str("table", spec.Table).Str("temp", temp).Msg("staging table created")
	return &InsertHandle{Spec: spec, TempTable: temp, mappings: mappings}, nil
}

// FinishInsert moves the staged rows into the target table and drops the
// staging table. The staging table is dropped even when the move fails.
func (c *SQLClient) FinishInsert(ctx context.Context, h *InsertHandle) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(c.dialect.Name, "insert", err, time.Since(start)) }()

	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	cols := c.dialect.QuoteList(h.Spec.columnNames())
	stmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		c.dialect.QualifiedName(h.Spec.Catalog, h.Spec.Schema, h.Spec.Table),
		cols, cols,
		c.dialect.QualifiedName(h.Spec.Catalog, h.Spec.Schema, h.TempTable),
	)
	c.log.Debug().Str("sql", stmt).Msg("finish insert")
	_, execErr := conn.ExecContext(ctx, stmt)
	dropErr := c.dropTable(ctx, conn, h.Spec.Catalog, h.Spec.Schema, h.TempTable)
	if execErr != nil {
		if dropErr != nil {
			c.log.Warn().Err(dropErr).Str("temp", h.TempTable).Msg("staging table left behind")
		}
		return jdbcError("finish_insert", execErr)
	}
	return dropErr
}

// AbortInsert drops the staging table.
func (c *SQLClient) AbortInsert(ctx context.Context, h *InsertHandle) error {
	return c.DropTable(ctx, h.Spec.Catalog, h.Spec.Schema, h.TempTable)
}

// PageSink streams rows into a staging table. Rows are encoded with the
// target columns' write functions and inserted in batches by a loader
// goroutine on a dedicated connection.
type PageSink struct {
	client   *SQLClient
	handle   *InsertHandle
	conn     *sql.Conn
	rows     chan []any
	g        *errgroup.Group
	gctx     context.Context
	cancel   context.CancelFunc
	total    int64
	stopOnce sync.Once

	// mu guards rows against a send after close.
	mu     sync.RWMutex
	closed bool
}

// NewPageSink starts the loader for h.
func (c *SQLClient) NewPageSink(ctx context.Context, h *InsertHandle) (*PageSink, error) {
	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s := &PageSink{
		client: c,
		handle: h,
		conn:   conn,
		rows:   make(chan []any, c.cfg.InsertBatchSize),
		g:      g,
		gctx:   gctx,
		cancel: cancel,
	}

	insert := c.dialect.InsertSQL(
		c.dialect.QualifiedName(h.Spec.Catalog, h.Spec.Schema, h.TempTable),
		h.Spec.columnNames(),
	)
	loader := storage.Loader{
		Table:     h.TempTable,
		Columns:   h.Spec.columnNames(),
		BatchSize: c.cfg.InsertBatchSize,
		Copy:      s.copyFn(insert),
	}
	loadCtx := c.log.WithContext(gctx)
	g.Go(func() error {
		res, err := loader.Run(loadCtx, s.rows)
		s.total = res.Rows
		metrics.RecordBatches(c.dialect.Name, res.Batches)
		return err
	})
	return s, nil
}

// copyFn inserts one batch in its own transaction.
func (s *PageSink) copyFn(insert string) storage.CopyFn {
	return func(ctx context.Context, _ []string, rows [][]any) (n int64, err error) {
		tx, err := s.conn.BeginTx(ctx, nil)
		if err != nil {
			return 0, jdbcError("insert_batch", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return 0, jdbcError("insert_batch", err)
		}
		defer stmt.Close()
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return 0, jdbcError("insert_batch", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, jdbcError("insert_batch", err)
		}
		return int64(len(rows)), nil
	}
}

// AppendRow encodes one row of engine values, in column order, and queues
// it for insertion.
func (s *PageSink) AppendRow(values []any) error {
	cols := s.handle.Spec.Columns
	if len(values) != len(cols) {
		return fmt.Errorf("client: row has %d values, want %d", len(values), len(cols))
	}
	row := make([]any, len(values))
	for i, v := range values {
		dv, err := s.handle.mappings[i].Write(v)
		if err != nil {
			return fmt.Errorf("client: column %s: %w", cols[i].Name, err)
		}
		row[i] = s.client.dialect.Bind(cols[i].Type, dv)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.rows <- row:
		return nil
	case <-s.gctx.Done():
		return context.Cause(s.gctx)
	}
}

// AppendPage queues every row of a page.
func (s *PageSink) AppendPage(rows [][]any) error {
	for _, r := range rows {
		if err := s.AppendRow(r); err != nil {
			return err
		}
	}
	return nil
}

// Finish flushes the queued rows, waits for the loader and releases the
// connection. It returns the number of rows inserted into the staging
// table.
func (s *PageSink) Finish() (int64, error) {
	err := s.stop()
	if err == nil {
		metrics.RecordRows(s.client.dialect.Name, "inserted", s.total)
	}
	return s.total, err
}

// Abort stops the loader without flushing and releases the connection.
func (s *PageSink) Abort() {
	s.cancel()
	if err := s.stop(); err != nil && !errors.Is(err, context.Canceled) {
		s.client.log.Warn().Err(err).Msg("page sink aborted with error")
	}
}

func (s *PageSink) stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.rows)
		s.mu.Unlock()
		err = s.g.Wait()
		s.cancel()
		if cerr := s.conn.Close(); cerr != nil && err == nil {
			err = jdbcError("insert", cerr)
		}
	})
	return err
}
