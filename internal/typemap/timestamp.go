package typemap

import (
	"fmt"

	"db2connector/internal/types"
)

// TimestampColumnMapping maps a native timestamp with the reported number of
// fractional digits (millisecond precision when absent).
//
// Precisions up to 6 use the numeric (epoch microsecond) path. Precisions up
// to 9 use the composite LongTimestamp path. Anything above 9 cannot be
// carried by the driver's time values and fails with
// types.ErrUnsupportedPrecision.
func TimestampColumnMapping(decimalDigits *int) (ColumnMapping, bool, error) {
	p := types.DefaultTimestampPrecision
	if decimalDigits != nil {
		p = *decimalDigits
	}
	if p > types.MaxLongTimestampPrecision {
		return ColumnMapping{}, false, fmt.Errorf("typemap: timestamp precision %d above %d: %w",
			p, types.MaxLongTimestampPrecision, types.ErrUnsupportedPrecision)
	}
	t, err := types.Timestamp(p)
	if err != nil {
		return ColumnMapping{}, false, fmt.Errorf("typemap: %w", err)
	}
	return mappingFor(t), true, nil
}

// timestampWriteMapping renders TIMESTAMP(p). A precision above the
// dialect's maximum means the logical type was built wrong upstream.
func timestampWriteMapping(t types.Type, maxPrecision int, ddl func(int) string) (WriteMapping, error) {
	if t.Precision > maxPrecision {
		return WriteMapping{}, fmt.Errorf("typemap: timestamp precision %d exceeds dialect maximum %d: %w",
			t.Precision, maxPrecision, types.ErrInvariant)
	}
	return WriteMapping{DataType: ddl(t.Precision), Write: WriteFuncFor(t)}, nil
}
