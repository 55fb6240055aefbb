package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseValue converts the textual form of a value into its in-memory
// representation for t. Dates use YYYY-MM-DD, times HH:MM:SS[.f...],
// timestamps YYYY-MM-DD[ T]HH:MM:SS[.f...] with up to 12 fractional digits,
// varbinary values are hex.
func ParseValue(t Type, s string) (any, error) {
	switch t.Kind {
	case KindBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return b, nil
	case KindTinyInt, KindSmallInt, KindInteger, KindBigInt:
		n, err := strconv.ParseInt(s, 10, integerBits(t.Kind))
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return n, nil
	case KindReal, KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return f, nil
	case KindDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return d.Round(int32(t.Scale)), nil
	case KindChar, KindVarchar:
		return s, nil
	case KindVarbinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return b, nil
	case KindDate:
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return EpochDays(d), nil
	case KindTime:
		secs, frac, err := parseClock("1970-01-01 "+s, t.Precision)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		return secs*1_000_000 + frac/picosPerMicro, nil
	case KindTimestamp:
		secs, frac, err := parseClock(strings.Replace(s, "T", " ", 1), t.Precision)
		if err != nil {
			return nil, fmt.Errorf("types: parse %s value %q: %w", t, s, err)
		}
		micros := secs*1_000_000 + frac/picosPerMicro
		if t.IsShortTimestamp() {
			return micros, nil
		}
		return LongTimestamp{EpochMicros: micros, PicosOfMicro: uint32(frac % picosPerMicro)}, nil
	}
	return nil, fmt.Errorf("types: cannot parse values of %s", t)
}

func integerBits(k Kind) int {
	switch k {
	case KindTinyInt:
		return 8
	case KindSmallInt:
		return 16
	case KindInteger:
		return 32
	}
	return 64
}

// parseClock parses "YYYY-MM-DD HH:MM:SS[.fff...]" into epoch seconds and a
// fraction in picoseconds, rounded half up to precision digits.
func parseClock(s string, precision int) (int64, int64, error) {
	base, fracText, _ := strings.Cut(s, ".")
	t, err := time.Parse("2006-01-02 15:04:05", base)
	if err != nil {
		return 0, 0, err
	}
	if len(fracText) > MaxTimestampPrecision {
		return 0, 0, fmt.Errorf("more than %d fractional digits", MaxTimestampPrecision)
	}
	var frac int64
	if fracText != "" {
		frac, err = strconv.ParseInt(fracText+strings.Repeat("0", MaxTimestampPrecision-len(fracText)), 10, 64)
		if err != nil {
			return 0, 0, err
		}
	}
	secs := t.Unix()
	unit := int64(1)
	for i := precision; i < MaxTimestampPrecision; i++ {
		unit *= 10
	}
	frac = (frac + unit/2) / unit * unit
	if frac >= 1_000_000_000_000 {
		secs++
		frac -= 1_000_000_000_000
	}
	return secs, frac, nil
}
