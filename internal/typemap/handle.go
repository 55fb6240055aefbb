// Package typemap maps native column types reported by a database to the
// engine's logical types, and logical types back to native DDL for writes.
// Each mapping carries the functions that convert values between the
// database/sql wire form and the engine's in-memory representation.
package typemap

import "fmt"

// Native type codes as reported by JDBC-style column metadata.
const (
	Bit           = -7
	TinyInt       = -6
	SmallInt      = 5
	Integer       = 4
	BigInt        = -5
	Real          = 7
	Float         = 6
	Double        = 8
	Numeric       = 2
	Decimal       = 3
	Char          = 1
	Varchar       = 12
	LongVarchar   = -1
	Date          = 91
	Time          = 92
	Timestamp     = 93
	Binary        = -2
	Varbinary     = -3
	LongVarbinary = -4
	Boolean       = 16
	NChar         = -15
	NVarchar      = -9
	LongNVarchar  = -16
	Clob          = 2005
	Blob          = 2004
)

var codeNames = map[int]string{
	Bit:           "BIT",
	TinyInt:       "TINYINT",
	SmallInt:      "SMALLINT",
	Integer:       "INTEGER",
	BigInt:        "BIGINT",
	Real:          "REAL",
	Float:         "FLOAT",
	Double:        "DOUBLE",
	Numeric:       "NUMERIC",
	Decimal:       "DECIMAL",
	Char:          "CHAR",
	Varchar:       "VARCHAR",
	LongVarchar:   "LONGVARCHAR",
	Date:          "DATE",
	Time:          "TIME",
	Timestamp:     "TIMESTAMP",
	Binary:        "BINARY",
	Varbinary:     "VARBINARY",
	LongVarbinary: "LONGVARBINARY",
	Boolean:       "BOOLEAN",
	NChar:         "NCHAR",
	NVarchar:      "NVARCHAR",
	LongNVarchar:  "LONGNVARCHAR",
	Clob:          "CLOB",
	Blob:          "BLOB",
}

// CodeName returns the symbolic name of a native type code.
func CodeName(code int) string {
	if n, ok := codeNames[code]; ok {
		return n
	}
	return fmt.Sprintf("OTHER(%d)", code)
}

// TypeHandle describes a column as the database reports it.
type TypeHandle struct {
	JDBCType int
	// TypeName is the database's own name for the type (e.g. "XML",
	// "GRAPHIC"). Forced-varchar overrides match on it.
	TypeName string
	// ColumnSize is the declared length or numeric precision, if reported.
	ColumnSize *int
	// DecimalDigits is the scale or fractional-second precision, if
	// reported.
	DecimalDigits *int
}

// Int returns a pointer to n, for building TypeHandle literals.
func Int(n int) *int { return &n }

func (h TypeHandle) String() string {
	s := CodeName(h.JDBCType)
	if h.TypeName != "" {
		s += "/" + h.TypeName
	}
	if h.ColumnSize != nil {
		s += fmt.Sprintf(" size=%d", *h.ColumnSize)
	}
	if h.DecimalDigits != nil {
		s += fmt.Sprintf(" digits=%d", *h.DecimalDigits)
	}
	return s
}
