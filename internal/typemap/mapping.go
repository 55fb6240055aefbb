package typemap

import (
	"database/sql/driver"
	"errors"

	"db2connector/internal/types"
)

// ErrNotSupported is returned when a logical type has no write mapping in
// the dialect.
var ErrNotSupported = errors.New("not supported")

// ReadFunc converts a value scanned from the driver into the engine
// representation of the column's logical type. A nil input is NULL and
// yields nil.
type ReadFunc func(raw any) (any, error)

// WriteFunc converts an engine value into a value the driver accepts. A nil
// input is NULL and yields nil.
type WriteFunc func(v any) (driver.Value, error)

// ColumnMapping pairs a logical type with its read and write functions.
type ColumnMapping struct {
	Type  types.Type
	Read  ReadFunc
	Write WriteFunc
}

// WriteMapping pairs a native DDL type with the function that encodes values
// for it.
type WriteMapping struct {
	DataType string
	Write    WriteFunc
}
