package client

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"db2connector/internal/ddl"
	"db2connector/internal/metrics"
)

// storesUpperCase asks the live connection how it stores unquoted
// identifiers: the probe selects a column aliased probe_case without quotes
// and the label the server reports back shows the folding.
func (c *SQLClient) storesUpperCase(ctx context.Context, conn *sql.Conn) (bool, error) {
	rows, err := conn.QueryContext(ctx, c.dialect.CaseProbeSQL)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return false, err
	}
	if len(cols) != 1 {
		return false, fmt.Errorf("case probe returned %d columns", len(cols))
	}
	label := cols[0]
	return label == strings.ToUpper(label) && label != strings.ToLower(label), nil
}

// toRemoteCase upper-cases name when the database folds identifiers to
// upper case.
func (c *SQLClient) toRemoteCase(ctx context.Context, conn *sql.Conn, name string) (string, error) {
	upper, err := c.storesUpperCase(ctx, conn)
	if err != nil {
		return "", err
	}
	if upper {
		return cases.Upper(language.English).String(name), nil
	}
	return name, nil
}

// RenameTable renames [catalog.][schema.]table to newTable within the same
// schema. The identifier case is checked on the connection used for the
// rename, per call.
func (c *SQLClient) RenameTable(ctx context.Context, catalog, schema, table, newTable string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(c.dialect.Name, "rename_table", err, time.Since(start)) }()

	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	target, err := c.toRemoteCase(ctx, conn, newTable)
	if err != nil {
		return jdbcError("rename_table", err)
	}
	stmt := c.dialect.RenameTableSQL(c.dialect.QualifiedName(catalog, schema, table), target)
	c.log.Debug().Str("sql", stmt).Msg("rename table")
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return jdbcError("rename_table", err)
	}
	return nil
}

// CopyTableSchema creates newTable, in the same catalog and schema, with the
// given columns of table in the given order and no rows. conn stays owned by
// the caller.
func (c *SQLClient) CopyTableSchema(ctx context.Context, conn *sql.Conn, catalog, schema, table, newTable string, columns []string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(c.dialect.Name, "copy_table_schema", err, time.Since(start)) }()

	if len(columns) == 0 {
		return fmt.Errorf("client: copy table schema of %s: no columns", table)
	}
	stmt := c.dialect.CopyTableSchemaSQL(
		c.dialect.QualifiedName(catalog, schema, newTable),
		columns,
		c.dialect.QualifiedName(catalog, schema, table),
	)
	c.log.Debug().Str("sql", stmt).Msg("copy table schema")
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return jdbcError("copy_table_schema", err)
	}
	return nil
}

// CreateTable creates a table whose column types come from the write
// mappings. Table and column names follow the database's identifier case.
func (c *SQLClient) CreateTable(ctx context.Context, spec TableSpec) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(c.dialect.Name, "create_table", err, time.Since(start)) }()

	def := ddl.TableDef{Catalog: spec.Catalog, Schema: spec.Schema, Table: spec.Table}
	for _, col := range spec.Columns {
		wm, err := c.ToWriteMapping(col.Type)
		if err != nil {
			return fmt.Errorf("client: column %s: %w", col.Name, err)
		}
		def.Columns = append(def.Columns, ddl.ColumnDef{Name: col.Name, SQLType: wm.DataType})
	}

	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	upper, err := c.storesUpperCase(ctx, conn)
	if err != nil {
		return jdbcError("create_table", err)
	}
	if upper {
		def = def.Upper()
	}

	stmt, err := ddl.BuildCreateTableSQL(c.dialect, def)
	if err != nil {
		return err
	}
	c.log.Debug().Str("sql", stmt).Msg("create table")
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return jdbcError("create_table", err)
	}
	return nil
}

// DropTable drops [catalog.][schema.]table.
func (c *SQLClient) DropTable(ctx context.Context, catalog, schema, table string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(c.dialect.Name, "drop_table", err, time.Since(start)) }()

	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return c.dropTable(ctx, conn, catalog, schema, table)
}

func (c *SQLClient) dropTable(ctx context.Context, conn *sql.Conn, catalog, schema, table string) error {
	stmt := ddl.BuildDropTableSQL(c.dialect, catalog, schema, table)
	c.log.Debug().Str("sql", stmt).Msg("drop table")
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return jdbcError("drop_table", err)
	}
	return nil
}
