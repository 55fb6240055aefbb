// Package types defines the engine's logical column types and the in-memory
// representation of their values.
//
// A Type is a small comparable value: the Kind plus the parameters that
// matter for that kind (length for strings, precision for timestamps,
// precision/scale for decimals). Types are built with the constructors in
// this file, which reject parameters the engine cannot represent.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvariant marks an internal contract breach: malformed input that a
// well-behaved caller can never produce. It is never repaired silently.
var ErrInvariant = errors.New("invariant violation")

// ErrUnsupportedPrecision marks a timestamp precision outside what the
// engine or the dialect can carry.
var ErrUnsupportedPrecision = errors.New("unsupported precision")

// Kind enumerates the logical type families.
type Kind int

const (
	KindUnknown Kind = iota
	KindBoolean
	KindTinyInt
	KindSmallInt
	KindInteger
	KindBigInt
	KindReal
	KindDouble
	KindDecimal
	KindChar
	KindVarchar
	KindVarbinary
	KindDate
	KindTime
	KindTimestamp
)

var kindNames = map[Kind]string{
	KindBoolean:   "boolean",
	KindTinyInt:   "tinyint",
	KindSmallInt:  "smallint",
	KindInteger:   "integer",
	KindBigInt:    "bigint",
	KindReal:      "real",
	KindDouble:    "double",
	KindDecimal:   "decimal",
	KindChar:      "char",
	KindVarchar:   "varchar",
	KindVarbinary: "varbinary",
	KindDate:      "date",
	KindTime:      "time",
	KindTimestamp: "timestamp",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

const (
	// Unbounded is the Length of a varchar without a declared maximum.
	Unbounded = -1

	// MaxVarcharLength is the largest bounded varchar the engine models.
	MaxVarcharLength = 1<<31 - 1
	// MaxCharLength is the largest char(n) the engine models.
	MaxCharLength = 65536

	// MaxDecimalPrecision is the largest decimal precision.
	MaxDecimalPrecision = 38

	// DefaultTimestampPrecision is used when a native timestamp reports no
	// fractional digits (milliseconds).
	DefaultTimestampPrecision = 3
	// MaxShortTimestampPrecision is the largest precision whose values fit in
	// an int64 count of microseconds since the epoch.
	MaxShortTimestampPrecision = 6
	// MaxLongTimestampPrecision is the largest precision a time.Time can
	// carry (nanoseconds).
	MaxLongTimestampPrecision = 9
	// MaxTimestampPrecision is the largest precision the engine models
	// (picoseconds).
	MaxTimestampPrecision = 12

	// DefaultTimePrecision matches the millisecond TIME of the standard mapping.
	DefaultTimePrecision = 3
)

// Type is a logical column type.
type Type struct {
	Kind Kind
	// Length applies to Char, Varchar and Varbinary. Varchar and Varbinary
	// use Unbounded when no maximum is declared.
	Length int
	// Precision applies to Decimal, Time and Timestamp.
	Precision int
	// Scale applies to Decimal.
	Scale int
}

var (
	Boolean  = Type{Kind: KindBoolean}
	TinyInt  = Type{Kind: KindTinyInt}
	SmallInt = Type{Kind: KindSmallInt}
	Integer  = Type{Kind: KindInteger}
	BigInt   = Type{Kind: KindBigInt}
	Real     = Type{Kind: KindReal}
	Double   = Type{Kind: KindDouble}
	Date     = Type{Kind: KindDate}

	// UnboundedVarchar is varchar without a declared length.
	UnboundedVarchar = Type{Kind: KindVarchar, Length: Unbounded}
	// UnboundedVarbinary is varbinary without a declared length.
	UnboundedVarbinary = Type{Kind: KindVarbinary, Length: Unbounded}

	// TimestampMillis is timestamp(3), the default native mapping.
	TimestampMillis = Type{Kind: KindTimestamp, Precision: DefaultTimestampPrecision}
)

// Varchar returns varchar(length).
func Varchar(length int) (Type, error) {
	if length < 0 || length > MaxVarcharLength {
		return Type{}, fmt.Errorf("types: varchar length %d out of range [0, %d]", length, MaxVarcharLength)
	}
	return Type{Kind: KindVarchar, Length: length}, nil
}

// Char returns char(length).
func Char(length int) (Type, error) {
	if length < 0 || length > MaxCharLength {
		return Type{}, fmt.Errorf("types: char length %d out of range [0, %d]", length, MaxCharLength)
	}
	return Type{Kind: KindChar, Length: length}, nil
}

// Varbinary returns varbinary(length), or unbounded varbinary for Unbounded.
func Varbinary(length int) (Type, error) {
	if length != Unbounded && (length < 0 || length > MaxVarcharLength) {
		return Type{}, fmt.Errorf("types: varbinary length %d out of range", length)
	}
	return Type{Kind: KindVarbinary, Length: length}, nil
}

// Decimal returns decimal(precision, scale).
func Decimal(precision, scale int) (Type, error) {
	if precision <= 0 || precision > MaxDecimalPrecision {
		return Type{}, fmt.Errorf("types: decimal precision %d out of range [1, %d]", precision, MaxDecimalPrecision)
	}
	if scale < 0 || scale > precision {
		return Type{}, fmt.Errorf("types: decimal scale %d out of range [0, %d]", scale, precision)
	}
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}, nil
}

// Timestamp returns timestamp(precision). Precisions above
// MaxTimestampPrecision are rejected with ErrUnsupportedPrecision.
func Timestamp(precision int) (Type, error) {
	if precision < 0 || precision > MaxTimestampPrecision {
		return Type{}, fmt.Errorf("types: timestamp precision %d out of range [0, %d]: %w",
			precision, MaxTimestampPrecision, ErrUnsupportedPrecision)
	}
	return Type{Kind: KindTimestamp, Precision: precision}, nil
}

// Time returns time(precision).
func Time(precision int) (Type, error) {
	if precision < 0 || precision > MaxTimestampPrecision {
		return Type{}, fmt.Errorf("types: time precision %d out of range [0, %d]: %w",
			precision, MaxTimestampPrecision, ErrUnsupportedPrecision)
	}
	return Type{Kind: KindTime, Precision: precision}, nil
}

// IsUnbounded reports whether a varchar or varbinary has no declared length.
func (t Type) IsUnbounded() bool {
	return (t.Kind == KindVarchar || t.Kind == KindVarbinary) && t.Length == Unbounded
}

// IsShortTimestamp reports whether values of a timestamp type are carried as
// int64 epoch microseconds rather than LongTimestamp.
func (t Type) IsShortTimestamp() bool {
	return t.Kind == KindTimestamp && t.Precision <= MaxShortTimestampPrecision
}

// Orderable reports whether values of t have a total order usable in range
// predicates.
func (t Type) Orderable() bool {
	switch t.Kind {
	case KindUnknown:
		return false
	default:
		return true
	}
}

// String renders the type signature, e.g. "varchar(10)" or "timestamp(6)".
func (t Type) String() string {
	switch t.Kind {
	case KindVarchar, KindVarbinary:
		if t.Length == Unbounded {
			return t.Kind.String()
		}
		return fmt.Sprintf("%s(%d)", t.Kind, t.Length)
	case KindChar:
		return fmt.Sprintf("char(%d)", t.Length)
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case KindTime, KindTimestamp:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Precision)
	default:
		return t.Kind.String()
	}
}

// Parse parses a type signature such as "bigint", "varchar", "varchar(20)",
// "decimal(10,2)" or "timestamp(9)". Matching is case-insensitive and
// ignores surrounding whitespace.
func Parse(sig string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(sig))
	name, args, err := splitSignature(s)
	if err != nil {
		return Type{}, fmt.Errorf("types: parse %q: %w", sig, err)
	}

	switch name {
	case "boolean", "bool":
		return Boolean, noArgs(sig, args)
	case "tinyint":
		return TinyInt, noArgs(sig, args)
	case "smallint":
		return SmallInt, noArgs(sig, args)
	case "integer", "int":
		return Integer, noArgs(sig, args)
	case "bigint":
		return BigInt, noArgs(sig, args)
	case "real":
		return Real, noArgs(sig, args)
	case "double", "double precision":
		return Double, noArgs(sig, args)
	case "date":
		return Date, noArgs(sig, args)
	case "varchar":
		if len(args) == 0 {
			return UnboundedVarchar, nil
		}
		if len(args) != 1 {
			return Type{}, fmt.Errorf("types: parse %q: varchar takes one argument", sig)
		}
		return Varchar(args[0])
	case "varbinary":
		if len(args) == 0 {
			return UnboundedVarbinary, nil
		}
		if len(args) != 1 {
			return Type{}, fmt.Errorf("types: parse %q: varbinary takes one argument", sig)
		}
		return Varbinary(args[0])
	case "char":
		if len(args) == 0 {
			return Char(1)
		}
		if len(args) != 1 {
			return Type{}, fmt.Errorf("types: parse %q: char takes one argument", sig)
		}
		return Char(args[0])
	case "decimal", "numeric":
		switch len(args) {
		case 0:
			return Decimal(MaxDecimalPrecision, 0)
		case 1:
			return Decimal(args[0], 0)
		case 2:
			return Decimal(args[0], args[1])
		}
		return Type{}, fmt.Errorf("types: parse %q: decimal takes at most two arguments", sig)
	case "timestamp":
		if len(args) == 0 {
			return TimestampMillis, nil
		}
		if len(args) != 1 {
			return Type{}, fmt.Errorf("types: parse %q: timestamp takes one argument", sig)
		}
		return Timestamp(args[0])
	case "time":
		if len(args) == 0 {
			return Time(DefaultTimePrecision)
		}
		if len(args) != 1 {
			return Type{}, fmt.Errorf("types: parse %q: time takes one argument", sig)
		}
		return Time(args[0])
	}
	return Type{}, fmt.Errorf("types: parse %q: unknown type", sig)
}

func splitSignature(s string) (string, []int, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, errors.New("missing closing parenthesis")
	}
	name := strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]
	parts := strings.Split(inner, ",")
	args := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", nil, fmt.Errorf("bad argument %q", p)
		}
		args = append(args, n)
	}
	return name, args, nil
}

func noArgs(sig string, args []int) error {
	if len(args) > 0 {
		return fmt.Errorf("types: parse %q: type takes no arguments", sig)
	}
	return nil
}
