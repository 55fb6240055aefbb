// Package client implements the connector's capability surface for one SQL
// dialect: statement assembly, type mapping with fallbacks, schema evolution
// (rename, copy schema, create, drop), reads through a record cursor and
// staged inserts through a page sink.
//
// Every database failure is returned as a *ConnectorError with code
// JDBCError; nothing is retried. Connections obtained for an operation are
// released on every exit path.
package client

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"db2connector/internal/config"
	"db2connector/internal/dialect"
	"db2connector/internal/metrics"
	"db2connector/internal/predicate"
	"db2connector/internal/querybuilder"
	"db2connector/internal/typemap"
	"db2connector/internal/types"
)

// Client is the set of operations a dialect connector provides.
type Client interface {
	BuildSQL(catalog, schema, table string, columns []Column, constraints predicate.ConstraintSet) (string, error)
	ToColumnMapping(h typemap.TypeHandle) (typemap.ColumnMapping, bool, error)
	ToWriteMapping(t types.Type) (typemap.WriteMapping, error)
	RenameTable(ctx context.Context, catalog, schema, table, newTable string) error
	CopyTableSchema(ctx context.Context, conn *sql.Conn, catalog, schema, table, newTable string, columns []string) error
	CreateTable(ctx context.Context, spec TableSpec) error
	DropTable(ctx context.Context, catalog, schema, table string) error
	OpenReadConnection(ctx context.Context) (*ReadConnection, error)
	Query(ctx context.Context, catalog, schema, table string, columns []Column, constraints predicate.ConstraintSet) (*Cursor, error)
	BeginInsert(ctx context.Context, spec TableSpec) (*InsertHandle, error)
	NewPageSink(ctx context.Context, h *InsertHandle) (*PageSink, error)
	FinishInsert(ctx context.Context, h *InsertHandle) error
	AbortInsert(ctx context.Context, h *InsertHandle) error
}

var _ Client = (*SQLClient)(nil)

// Column is a resolved column: its name, the native type the database
// reported and the mapping chosen for it.
type Column struct {
	Name    string
	Handle  typemap.TypeHandle
	Mapping typemap.ColumnMapping
}

// TableColumn is a column of a table to create or insert into.
type TableColumn struct {
	Name string
	Type types.Type
}

// TableSpec names a table and its columns in order.
type TableSpec struct {
	Catalog string
	Schema  string
	Table   string
	Columns []TableColumn
}

func (s TableSpec) columnNames() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// SQLClient implements Client over database/sql.
type SQLClient struct {
	factory ConnectionFactory
	dialect *dialect.Dialect
	mapper  *typemap.Mapper
	builder *querybuilder.Builder
	cfg     config.Config
	log     zerolog.Logger
}

// New returns a client for dialect d. d is copied; cfg.VarcharMaxLength,
// when positive, replaces the dialect's bounded-string capacity.
func New(factory ConnectionFactory, d dialect.Dialect, cfg config.Config, log zerolog.Logger) *SQLClient {
	if cfg.VarcharMaxLength > 0 {
		d.VarcharMaxLength = cfg.VarcharMaxLength
	}
	if cfg.InsertBatchSize <= 0 {
		cfg.InsertBatchSize = config.Default().InsertBatchSize
	}
	log = log.With().Str("dialect", d.Name).Logger()
	return &SQLClient{
		factory: factory,
		dialect: &d,
		mapper:  typemap.NewMapper(&d, cfg.ForcedVarcharTypes),
		builder: querybuilder.New(&d, querybuilder.WithLogger(log)),
		cfg:     cfg,
		log:     log,
	}
}

// Dialect returns the client's dialect.
func (c *SQLClient) Dialect() *dialect.Dialect { return c.dialect }

// ResolveColumn maps a native column and returns it ready for BuildSQL and
// Query. ok is false when the column has no mapping and is to be skipped.
func (c *SQLClient) ResolveColumn(name string, h typemap.TypeHandle) (Column, bool, error) {
	m, ok, err := c.ToColumnMapping(h)
	if err != nil || !ok {
		return Column{}, false, err
	}
	return Column{Name: name, Handle: h, Mapping: m}, true, nil
}

// ToColumnMapping maps a native type: forced-varchar overrides, then the
// dialect's mapping, then, when unsupported-type-handling is
// CONVERT_TO_VARCHAR, an unbounded varchar read as text.
func (c *SQLClient) ToColumnMapping(h typemap.TypeHandle) (typemap.ColumnMapping, bool, error) {
	m, ok, err := c.mapper.ToColumnMapping(h)
	if err != nil {
		return typemap.ColumnMapping{}, false, err
	}
	if ok {
		return m, true, nil
	}
	if c.cfg.UnsupportedTypeHandling == config.HandlingConvertToVarchar {
		c.log.Debug().Stringer("type", h).Msg("unsupported type read as varchar")
		return typemap.VarcharColumnMapping(), true, nil
	}
	return typemap.ColumnMapping{}, false, nil
}

// ToWriteMapping returns the DDL type and encoder for t. Types the dialect
// cannot store fail with a NotSupported ConnectorError.
func (c *SQLClient) ToWriteMapping(t types.Type) (typemap.WriteMapping, error) {
	wm, err := c.mapper.ToWriteMapping(t)
	if errors.Is(err, typemap.ErrNotSupported) {
		return typemap.WriteMapping{}, &ConnectorError{Code: NotSupported, Op: "to_write_mapping", Err: err}
	}
	return wm, err
}

// BuildSQL assembles the SELECT for columns filtered by constraints.
func (c *SQLClient) BuildSQL(catalog, schema, table string, columns []Column, constraints predicate.ConstraintSet) (string, error) {
	start := time.Now()
	stmt, err := c.builder.BuildSQL(catalog, schema, table, builderColumns(columns), constraints)
	metrics.RecordStep(c.dialect.Name, "build_sql", err, time.Since(start))
	return stmt, err
}

func builderColumns(columns []Column) []querybuilder.Column {
	out := make([]querybuilder.Column, len(columns))
	for i, col := range columns {
		out[i] = querybuilder.Column{Name: col.Name, Type: col.Mapping.Type, Write: col.Mapping.Write}
	}
	return out
}
