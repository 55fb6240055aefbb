package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"

	"db2connector/internal/config"
	"db2connector/internal/dialect"
)

// ConnectionFactory hands out dedicated connections. Callers close every
// connection they obtain.
type ConnectionFactory interface {
	Connect(ctx context.Context) (*sql.Conn, error)
	Close() error
}

// DBFactory is a ConnectionFactory over a database/sql pool.
type DBFactory struct {
	db *sql.DB
}

// NewConnectionFactory prepares the DSN for d (connection properties and,
// with connection-ssl, the dialect's TLS properties are applied here, once)
// and opens a pool. No connection is made until Connect.
func NewConnectionFactory(d *dialect.Dialect, cfg config.Config) (*DBFactory, error) {
	props := map[string]string{}
	if cfg.ConnectionSSL {
		maps.Copy(props, d.SSLProperties)
	}
	maps.Copy(props, cfg.ConnectionProperties)

	dsn, err := d.PrepareDSN(cfg.ConnectionURL, props)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	db, err := d.OpenDB(dsn)
	if err != nil {
		return nil, jdbcError("open", err)
	}
	return &DBFactory{db: db}, nil
}

// NewDBFactory wraps an existing pool.
func NewDBFactory(db *sql.DB) *DBFactory { return &DBFactory{db: db} }

// Connect reserves one connection from the pool.
func (f *DBFactory) Connect(ctx context.Context) (*sql.Conn, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, jdbcError("connect", err)
	}
	return conn, nil
}

// DB returns the underlying pool.
func (f *DBFactory) DB() *sql.DB { return f.db }

// Close closes the pool.
func (f *DBFactory) Close() error { return f.db.Close() }

// ReadConnection is a connection with an open transaction at the dialect's
// read isolation level (READ UNCOMMITTED for DB2).
type ReadConnection struct {
	conn *sql.Conn
	tx   *sql.Tx
}

// Tx returns the read transaction.
func (r *ReadConnection) Tx() *sql.Tx { return r.tx }

// Close ends the transaction and releases the connection.
func (r *ReadConnection) Close() error {
	rbErr := r.tx.Rollback()
	if errors.Is(rbErr, sql.ErrTxDone) {
		rbErr = nil
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return rbErr
}

// OpenReadConnection opens a connection and begins the read transaction. If
// the isolation level cannot be set the connection is closed before the
// error is returned.
func (c *SQLClient) OpenReadConnection(ctx context.Context) (*ReadConnection, error) {
	conn, err := c.factory.Connect(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{
		Isolation: c.dialect.ReadIsolation,
		ReadOnly:  c.dialect.ReadOnly,
	})
	if err != nil {
		_ = conn.Close()
		return nil, jdbcError("begin_read", err)
	}
	return &ReadConnection{conn: conn, tx: tx}, nil
}
