package typemap

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"db2connector/internal/types"
)

// StandardColumnMapping maps the common native types. It reports false for
// codes it does not know and for parameters the engine cannot represent.
func StandardColumnMapping(h TypeHandle) (ColumnMapping, bool, error) {
	switch h.JDBCType {
	case Bit, Boolean:
		return mappingFor(types.Boolean), true, nil
	case TinyInt:
		return mappingFor(types.TinyInt), true, nil
	case SmallInt:
		return mappingFor(types.SmallInt), true, nil
	case Integer:
		return mappingFor(types.Integer), true, nil
	case BigInt:
		return mappingFor(types.BigInt), true, nil
	case Real:
		return mappingFor(types.Real), true, nil
	case Float, Double:
		return mappingFor(types.Double), true, nil
	case Numeric, Decimal:
		if h.ColumnSize == nil {
			return ColumnMapping{}, false, nil
		}
		scale := 0
		if h.DecimalDigits != nil {
			scale = *h.DecimalDigits
		}
		t, err := types.Decimal(*h.ColumnSize, scale)
		if err != nil {
			return ColumnMapping{}, false, nil
		}
		return mappingFor(t), true, nil
	case Char, NChar:
		if h.ColumnSize == nil || *h.ColumnSize > types.MaxCharLength {
			return mappingFor(types.UnboundedVarchar), true, nil
		}
		t, err := types.Char(*h.ColumnSize)
		if err != nil {
			return ColumnMapping{}, false, nil
		}
		return mappingFor(t), true, nil
	case Varchar, NVarchar, LongVarchar, LongNVarchar:
		return mappingFor(varcharOfSize(h.ColumnSize)), true, nil
	case Binary, Varbinary, LongVarbinary:
		return mappingFor(types.UnboundedVarbinary), true, nil
	case Date:
		return mappingFor(types.Date), true, nil
	case Time:
		p := types.DefaultTimePrecision
		if h.DecimalDigits != nil {
			p = *h.DecimalDigits
		}
		if p > types.MaxShortTimestampPrecision {
			return ColumnMapping{}, false, nil
		}
		t, err := types.Time(p)
		if err != nil {
			return ColumnMapping{}, false, nil
		}
		return mappingFor(t), true, nil
	case Timestamp:
		return TimestampColumnMapping(h.DecimalDigits)
	}
	return ColumnMapping{}, false, nil
}

func varcharOfSize(size *int) types.Type {
	if size == nil || *size < 0 || *size > types.MaxVarcharLength {
		return types.UnboundedVarchar
	}
	t, _ := types.Varchar(*size)
	return t
}

// VarcharColumnMapping reads any scalar the driver returns as text. It backs
// forced-varchar overrides and the convert-to-varchar fallback.
func VarcharColumnMapping() ColumnMapping {
	t := types.UnboundedVarchar
	return ColumnMapping{Type: t, Read: readWith(t, readAnyAsString), Write: WriteFuncFor(t)}
}

func mappingFor(t types.Type) ColumnMapping {
	return ColumnMapping{Type: t, Read: ReadFuncFor(t), Write: WriteFuncFor(t)}
}

// ReadFuncFor returns the read function for values of t.
func ReadFuncFor(t types.Type) ReadFunc {
	switch t.Kind {
	case types.KindBoolean:
		return readWith(t, readBool)
	case types.KindTinyInt, types.KindSmallInt, types.KindInteger, types.KindBigInt:
		return readWith(t, func(raw any) (any, error) { return readInt(t, raw) })
	case types.KindReal, types.KindDouble:
		return readWith(t, func(raw any) (any, error) { return readFloat(t, raw) })
	case types.KindDecimal:
		return readWith(t, func(raw any) (any, error) { return readDecimal(t, raw) })
	case types.KindChar:
		return readWith(t, func(raw any) (any, error) {
			s, err := readString(raw)
			if err != nil {
				return nil, err
			}
			return strings.TrimRight(s.(string), " "), nil
		})
	case types.KindVarchar:
		return readWith(t, readString)
	case types.KindVarbinary:
		return readWith(t, readBinary)
	case types.KindDate:
		return readWith(t, readDate)
	case types.KindTime:
		return readWith(t, func(raw any) (any, error) { return readTime(t, raw) })
	case types.KindTimestamp:
		return readWith(t, func(raw any) (any, error) { return readTimestamp(t, raw) })
	}
	return readWith(t, func(raw any) (any, error) { return nil, fmt.Errorf("no reader") })
}

// WriteFuncFor returns the write function for values of t.
func WriteFuncFor(t types.Type) WriteFunc {
	switch t.Kind {
	case types.KindBoolean:
		return writeWith(t, func(v any) (driver.Value, error) { return as[bool](v) })
	case types.KindTinyInt, types.KindSmallInt, types.KindInteger, types.KindBigInt:
		return writeWith(t, func(v any) (driver.Value, error) { return as[int64](v) })
	case types.KindReal, types.KindDouble:
		return writeWith(t, func(v any) (driver.Value, error) { return as[float64](v) })
	case types.KindDecimal:
		return writeWith(t, func(v any) (driver.Value, error) {
			d, err := as[decimal.Decimal](v)
			if err != nil {
				return nil, err
			}
			return d.StringFixed(int32(t.Scale)), nil
		})
	case types.KindChar, types.KindVarchar:
		return writeWith(t, func(v any) (driver.Value, error) { return as[string](v) })
	case types.KindVarbinary:
		return writeWith(t, func(v any) (driver.Value, error) { return as[[]byte](v) })
	case types.KindDate:
		return writeWith(t, func(v any) (driver.Value, error) {
			days, err := as[int64](v)
			if err != nil {
				return nil, err
			}
			return types.DateFromEpochDays(days), nil
		})
	case types.KindTime:
		return writeWith(t, func(v any) (driver.Value, error) {
			micros, err := as[int64](v)
			if err != nil {
				return nil, err
			}
			return types.TimeFromMicrosOfDay(micros), nil
		})
	case types.KindTimestamp:
		if t.IsShortTimestamp() {
			return writeWith(t, writeShortTimestamp)
		}
		return writeWith(t, func(v any) (driver.Value, error) { return writeLongTimestamp(t, v) })
	}
	return writeWith(t, func(any) (driver.Value, error) { return nil, fmt.Errorf("no writer") })
}

func readWith(t types.Type, conv func(raw any) (any, error)) ReadFunc {
	return func(raw any) (any, error) {
		if raw == nil {
			return nil, nil
		}
		v, err := conv(raw)
		if err != nil {
			return nil, fmt.Errorf("typemap: read %s: %w", t, err)
		}
		return v, nil
	}
}

func writeWith(t types.Type, conv func(v any) (driver.Value, error)) WriteFunc {
	return func(v any) (driver.Value, error) {
		if v == nil {
			return nil, nil
		}
		out, err := conv(v)
		if err != nil {
			return nil, fmt.Errorf("typemap: write %s: %w", t, err)
		}
		return out, nil
	}
}

func as[T any](v any) (T, error) {
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("want %T, got %T", zero, v)
	}
	return x, nil
}

func text(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

func unexpected(raw any) error {
	return fmt.Errorf("unexpected driver value %T", raw)
}

func readBool(raw any) (any, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	}
	if s, ok := text(raw); ok {
		return types.ParseValue(types.Boolean, strings.TrimSpace(s))
	}
	return nil, unexpected(raw)
}

func readInt(t types.Type, raw any) (any, error) {
	var n int64
	switch x := raw.(type) {
	case int64:
		n = x
	case int32:
		n = int64(x)
	case int:
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return nil, fmt.Errorf("%v is not an integer", x)
		}
		n = int64(x)
	default:
		s, ok := text(raw)
		if !ok {
			return nil, unexpected(raw)
		}
		return types.ParseValue(t, strings.TrimSpace(s))
	}
	if lo, hi := intRange(t.Kind); n < lo || n > hi {
		return nil, fmt.Errorf("%d out of range for %s", n, t)
	}
	return n, nil
}

func intRange(k types.Kind) (int64, int64) {
	switch k {
	case types.KindTinyInt:
		return math.MinInt8, math.MaxInt8
	case types.KindSmallInt:
		return math.MinInt16, math.MaxInt16
	case types.KindInteger:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

func readFloat(t types.Type, raw any) (any, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	if s, ok := text(raw); ok {
		return types.ParseValue(t, strings.TrimSpace(s))
	}
	return nil, unexpected(raw)
}

func readDecimal(t types.Type, raw any) (any, error) {
	var d decimal.Decimal
	switch x := raw.(type) {
	case float64:
		d = decimal.NewFromFloat(x)
	case int64:
		d = decimal.NewFromInt(x)
	default:
		s, ok := text(raw)
		if !ok {
			return nil, unexpected(raw)
		}
		var err error
		if d, err = decimal.NewFromString(strings.TrimSpace(s)); err != nil {
			return nil, err
		}
	}
	return d.Round(int32(t.Scale)), nil
}

func readString(raw any) (any, error) {
	if s, ok := text(raw); ok {
		return s, nil
	}
	return nil, unexpected(raw)
}

func readAnyAsString(raw any) (any, error) {
	switch x := raw.(type) {
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	}
	return readString(raw)
}

func readBinary(raw any) (any, error) {
	switch x := raw.(type) {
	case []byte:
		return append([]byte(nil), x...), nil
	case string:
		return []byte(x), nil
	}
	return nil, unexpected(raw)
}

func readDate(raw any) (any, error) {
	if x, ok := raw.(time.Time); ok {
		return types.EpochDays(x), nil
	}
	s, ok := text(raw)
	if !ok {
		return nil, unexpected(raw)
	}
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	return types.ParseValue(types.Date, s)
}

func readTime(t types.Type, raw any) (any, error) {
	if x, ok := raw.(time.Time); ok {
		return types.MicrosOfDay(types.RoundToPrecision(x, t.Precision)), nil
	}
	if s, ok := text(raw); ok {
		return types.ParseValue(t, strings.TrimSpace(s))
	}
	return nil, unexpected(raw)
}

func readTimestamp(t types.Type, raw any) (any, error) {
	if x, ok := raw.(time.Time); ok {
		if t.IsShortTimestamp() {
			return types.ShortTimestamp(x, t.Precision), nil
		}
		return types.NewLongTimestamp(x, t.Precision), nil
	}
	if s, ok := text(raw); ok {
		return types.ParseValue(t, strings.TrimSpace(s))
	}
	return nil, unexpected(raw)
}

func writeShortTimestamp(v any) (driver.Value, error) {
	micros, err := as[int64](v)
	if err != nil {
		return nil, err
	}
	return types.TimeFromEpochMicros(micros), nil
}

// writeLongTimestamp renders the composite value as text so digits below the
// nanosecond survive the trip to the driver.
func writeLongTimestamp(t types.Type, v any) (driver.Value, error) {
	ts, err := as[types.LongTimestamp](v)
	if err != nil {
		return nil, err
	}
	return types.FormatTimestamp(ts.EpochMicros, ts.PicosOfMicro, t.Precision), nil
}
