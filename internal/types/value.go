package types

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// In-memory value representation per kind:
//
//	Boolean                         bool
//	TinyInt, SmallInt, Integer,
//	BigInt                          int64
//	Real, Double                    float64
//	Decimal                         decimal.Decimal
//	Char, Varchar                   string
//	Varbinary                       []byte
//	Date                            int64 days since 1970-01-01
//	Time                            int64 microseconds of day
//	Timestamp, precision <= 6       int64 microseconds since epoch (UTC)
//	Timestamp, precision > 6        LongTimestamp

// LongTimestamp is the composite encoding for timestamps whose precision does
// not fit in an int64 count of microseconds.
type LongTimestamp struct {
	EpochMicros  int64
	PicosOfMicro uint32
}

const (
	picosPerMicro = 1_000_000
	nanosPerMicro = 1_000
	microsPerDay  = 86_400_000_000
)

// Compare orders two LongTimestamps.
func (l LongTimestamp) Compare(o LongTimestamp) int {
	switch {
	case l.EpochMicros < o.EpochMicros:
		return -1
	case l.EpochMicros > o.EpochMicros:
		return 1
	case l.PicosOfMicro < o.PicosOfMicro:
		return -1
	case l.PicosOfMicro > o.PicosOfMicro:
		return 1
	}
	return 0
}

// Time converts to a UTC time.Time, dropping sub-nanosecond digits.
func (l LongTimestamp) Time() time.Time {
	return TimeFromEpochMicros(l.EpochMicros).Add(time.Duration(l.PicosOfMicro / 1000))
}

// EpochDays returns the number of days between 1970-01-01 and t's calendar
// date in t's location.
func EpochDays(t time.Time) int64 {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return floorDiv(u.Unix(), 86400)
}

// DateFromEpochDays is the inverse of EpochDays, at midnight UTC.
func DateFromEpochDays(days int64) time.Time {
	return time.Unix(days*86400, 0).UTC()
}

// EpochMicros returns t as microseconds since the epoch, truncating
// sub-microsecond digits.
func EpochMicros(t time.Time) int64 {
	return t.Unix()*1_000_000 + int64(t.Nanosecond()/nanosPerMicro)
}

// TimeFromEpochMicros returns the UTC time for an epoch microsecond count.
func TimeFromEpochMicros(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

// MicrosOfDay returns the wall-clock time of t as microseconds since midnight.
func MicrosOfDay(t time.Time) int64 {
	h, m, s := t.Clock()
	return (int64(h)*3600+int64(m)*60+int64(s))*1_000_000 + int64(t.Nanosecond()/nanosPerMicro)
}

// TimeFromMicrosOfDay returns 1970-01-01 at the given wall-clock time, UTC.
func TimeFromMicrosOfDay(micros int64) time.Time {
	return TimeFromEpochMicros(micros % microsPerDay)
}

// RoundToPrecision rounds t to the given number of fractional second digits
// (half up). Precisions of 9 or more return t unchanged.
func RoundToPrecision(t time.Time, precision int) time.Time {
	if precision >= MaxLongTimestampPrecision {
		return t
	}
	unit := time.Duration(math.Pow10(MaxLongTimestampPrecision - precision))
	return t.Round(unit)
}

// ShortTimestamp converts t into the int64 representation of timestamp(p),
// p <= 6.
func ShortTimestamp(t time.Time, precision int) int64 {
	return EpochMicros(RoundToPrecision(t.UTC(), precision))
}

// NewLongTimestamp converts t into the composite representation of
// timestamp(p), 6 < p <= 9.
func NewLongTimestamp(t time.Time, precision int) LongTimestamp {
	r := RoundToPrecision(t.UTC(), precision)
	micros := EpochMicros(r)
	picos := uint32(r.Nanosecond()%nanosPerMicro) * 1000
	return LongTimestamp{EpochMicros: micros, PicosOfMicro: picos}
}

// FormatTimestamp renders an epoch microsecond count plus picoseconds as
// "YYYY-MM-DD HH:MM:SS[.fff...]" with exactly precision fractional digits.
func FormatTimestamp(micros int64, picos uint32, precision int) string {
	t := TimeFromEpochMicros(micros)
	base := t.Format("2006-01-02 15:04:05")
	if precision <= 0 {
		return base
	}
	micro := floorMod(micros, 1_000_000)
	frac := fmt.Sprintf("%06d%06d", micro, picos)
	if precision > len(frac) {
		precision = len(frac)
	}
	return base + "." + frac[:precision]
}

// FormatDate renders epoch days as "YYYY-MM-DD".
func FormatDate(days int64) string {
	return DateFromEpochDays(days).Format("2006-01-02")
}

// FormatTime renders microseconds of day as "HH:MM:SS[.fff...]".
func FormatTime(micros int64, precision int) string {
	s := FormatTimestamp(floorMod(micros, microsPerDay), 0, precision)
	return s[strings.IndexByte(s, ' ')+1:]
}

// CheckValue reports whether v is a valid in-memory value for t.
func CheckValue(t Type, v any) error {
	ok := false
	switch t.Kind {
	case KindBoolean:
		_, ok = v.(bool)
	case KindTinyInt, KindSmallInt, KindInteger, KindBigInt, KindDate, KindTime:
		_, ok = v.(int64)
	case KindReal, KindDouble:
		var f float64
		f, ok = v.(float64)
		if ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return fmt.Errorf("types: %v is not a valid %s value", f, t)
		}
	case KindDecimal:
		_, ok = v.(decimal.Decimal)
	case KindChar, KindVarchar:
		_, ok = v.(string)
	case KindVarbinary:
		_, ok = v.([]byte)
	case KindTimestamp:
		if t.IsShortTimestamp() {
			_, ok = v.(int64)
		} else {
			_, ok = v.(LongTimestamp)
		}
	}
	if !ok {
		return fmt.Errorf("types: value %v (%T) is not a valid %s value", v, v, t)
	}
	return nil
}

// Compare orders two values of the same type. Both values must have passed
// CheckValue for t.
func Compare(t Type, a, b any) int {
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case []byte:
		return bytes.Compare(x, b.([]byte))
	case decimal.Decimal:
		return x.Cmp(b.(decimal.Decimal))
	case LongTimestamp:
		return x.Compare(b.(LongTimestamp))
	}
	panic(fmt.Sprintf("types: cannot compare %T values of %s", a, t))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
