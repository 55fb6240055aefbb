package client

import (
	"errors"
	"fmt"

	"db2connector/internal/typemap"
)

// ErrorCode classifies connector errors.
type ErrorCode string

const (
	// JDBCError wraps any failure reported by the database or its driver.
	JDBCError ErrorCode = "JDBC_ERROR"
	// NotSupported marks a type or operation the dialect cannot express.
	NotSupported ErrorCode = "NOT_SUPPORTED"
)

var (
	// ErrJDBC matches every ConnectorError with code JDBCError.
	ErrJDBC = errors.New("jdbc error")
	// ErrNotSupported matches unsupported write types.
	ErrNotSupported = typemap.ErrNotSupported
)

// ConnectorError is the single error kind for transport and execution
// failures. The underlying driver error is kept as is.
type ConnectorError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// Is matches ErrJDBC and ErrNotSupported by code.
func (e *ConnectorError) Is(target error) bool {
	switch target {
	case ErrJDBC:
		return e.Code == JDBCError
	case ErrNotSupported:
		return e.Code == NotSupported
	}
	return false
}

func jdbcError(op string, err error) error {
	return &ConnectorError{Code: JDBCError, Op: op, Err: err}
}
