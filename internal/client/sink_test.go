package client

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db2connector/internal/config"
	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

func eventsSpec(t *testing.T) TableSpec {
	t.Helper()
	v20, err := types.Varchar(20)
	require.NoError(t, err)
	return TableSpec{
		Table: "events",
		Columns: []TableColumn{
			{Name: "id", Type: types.BigInt},
			{Name: "name", Type: v20},
			{Name: "day", Type: types.Date},
			{Name: "at", Type: types.TimestampMillis},
		},
	}
}

func stagingTables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'tmp_conn_%'`)
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		out = append(out, n)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestStagedInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, db := newSQLiteClient(t, func(_ *dialect.Dialect, cfg *config.Config) { cfg.InsertBatchSize = 2 })
	spec := eventsSpec(t)
	require.NoError(t, c.CreateTable(ctx, spec))

	h, err := c.BeginInsert(ctx, spec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.TempTable, tempTablePrefix), h.TempTable)
	assert.NotContains(t, h.TempTable, "-")
	assert.Equal(t, []string{h.TempTable}, stagingTables(t, db))
	names, _ := tableColumns(t, db, h.TempTable)
	assert.Equal(t, []string{"id", "name", "day", "at"}, names)

	day := types.EpochDays(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	at := types.EpochMicros(time.Date(2024, 5, 6, 7, 8, 9, 120000000, time.UTC))

	sink, err := c.NewPageSink(ctx, h)
	require.NoError(t, err)
	require.NoError(t, sink.AppendRow([]any{int64(1), "ada", day, at}))
	require.NoError(t, sink.AppendPage([][]any{
		{int64(2), "it's", nil, nil},
		{int64(3), nil, day, at},
	}))
	err = sink.AppendRow([]any{int64(4)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row has 1 values, want 4")
	err = sink.AppendRow([]any{"four", "x", nil, nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column id")

	n, err := sink.Finish()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	var target int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM events`).Scan(&target))
	assert.Zero(t, target, "rows stay staged until FinishInsert")

	require.NoError(t, c.FinishInsert(ctx, h))
	assert.Empty(t, stagingTables(t, db))

	rows, err := db.Query(`SELECT id, name, day, at FROM events ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	type row struct {
		id            int64
		name, day, at sql.NullString
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.id, &r.name, &r.day, &r.at))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	str := func(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
	assert.Equal(t, []row{
		{1, str("ada"), str("2024-02-29"), str("2024-05-06 07:08:09.120")},
		{2, str("it's"), sql.NullString{}, sql.NullString{}},
		{3, sql.NullString{}, str("2024-02-29"), str("2024-05-06 07:08:09.120")},
	}, got)
	assertNoConnInUse(t, db)
}

func TestAbortInsertDropsStagingTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, db := newSQLiteClient(t)
	spec := eventsSpec(t)
	require.NoError(t, c.CreateTable(ctx, spec))

	h, err := c.BeginInsert(ctx, spec)
	require.NoError(t, err)
	sink, err := c.NewPageSink(ctx, h)
	require.NoError(t, err)
	require.NoError(t, sink.AppendRow([]any{int64(1), "x", nil, nil}))
	sink.Abort()
	sink.Abort()

	require.NoError(t, c.AbortInsert(ctx, h))
	assert.Empty(t, stagingTables(t, db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM events`).Scan(&n))
	assert.Zero(t, n)
	assertNoConnInUse(t, db)
}

func TestAppendAfterStopReturnsClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, db := newSQLiteClient(t)
	spec := eventsSpec(t)
	require.NoError(t, c.CreateTable(ctx, spec))
	h, err := c.BeginInsert(ctx, spec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.AbortInsert(ctx, h) })

	sink, err := c.NewPageSink(ctx, h)
	require.NoError(t, err)

	// Appenders racing Abort either queue their row or see the sink stop.
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				err := sink.AppendRow([]any{int64(w*100 + i), "x", nil, nil})
				if err != nil {
					assert.True(t, errors.Is(err, ErrSinkClosed) || errors.Is(err, context.Canceled), "%v", err)
					return
				}
			}
		}(w)
	}
	sink.Abort()
	wg.Wait()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, sink.AppendRow([]any{int64(1), "x", nil, nil}), ErrSinkClosed)
	}
	assert.ErrorIs(t, sink.AppendPage([][]any{{int64(2), "y", nil, nil}}), ErrSinkClosed)
	assertNoConnInUse(t, db)
}

func TestFinishInsertDropsStagingTableOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, db := newSQLiteClient(t)
	spec := eventsSpec(t)
	require.NoError(t, c.CreateTable(ctx, spec))

	h, err := c.BeginInsert(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, c.DropTable(ctx, "", "", "events"))

	err = c.FinishInsert(ctx, h)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJDBC)
	var ce *ConnectorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "finish_insert", ce.Op)
	assert.Empty(t, stagingTables(t, db))
	assertNoConnInUse(t, db)
}

func TestBeginInsertFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, db := newSQLiteClient(t)

	_, err := c.BeginInsert(ctx, TableSpec{Table: "events"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")

	_, err = c.BeginInsert(ctx, eventsSpec(t))
	assert.ErrorIs(t, err, ErrJDBC, "target table does not exist")
	assert.Empty(t, stagingTables(t, db))
	assertNoConnInUse(t, db)
}
