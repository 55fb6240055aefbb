package typemap

import (
	"fmt"
	"strings"

	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

// Mapper resolves column and write mappings for one dialect.
type Mapper struct {
	dialect *dialect.Dialect
	forced  map[string]struct{}
}

// NewMapper returns a Mapper for d. Native type names listed in
// forcedVarcharTypes (case-insensitive) are always read as unbounded
// varchar.
func NewMapper(d *dialect.Dialect, forcedVarcharTypes []string) *Mapper {
	forced := make(map[string]struct{}, len(forcedVarcharTypes))
	for _, n := range forcedVarcharTypes {
		forced[strings.ToUpper(strings.TrimSpace(n))] = struct{}{}
	}
	return &Mapper{dialect: d, forced: forced}
}

// ToColumnMapping maps a native column type. Lookup order: forced-varchar
// override, native timestamp, standard mapping. The bool is false when no
// mapping exists; that is not an error.
func (m *Mapper) ToColumnMapping(h TypeHandle) (ColumnMapping, bool, error) {
	if _, ok := m.forced[strings.ToUpper(h.TypeName)]; ok && h.TypeName != "" {
		return VarcharColumnMapping(), true, nil
	}
	if h.JDBCType == Timestamp {
		return TimestampColumnMapping(h.DecimalDigits)
	}
	return StandardColumnMapping(h)
}

// ToWriteMapping returns the DDL type and encoder for a logical type.
func (m *Mapper) ToWriteMapping(t types.Type) (WriteMapping, error) {
	d := m.dialect
	switch t.Kind {
	case types.KindVarchar:
		return WriteMapping{DataType: m.varcharDataType(t), Write: WriteFuncFor(t)}, nil
	case types.KindTimestamp:
		return timestampWriteMapping(t, d.MaxTimestampPrecision, d.TimestampType)
	}
	if d.MapType != nil {
		if ddl, ok := d.MapType(t); ok {
			return WriteMapping{DataType: ddl, Write: WriteFuncFor(t)}, nil
		}
	}
	return WriteMapping{}, fmt.Errorf("typemap: %s: unsupported column type %s: %w", d.Name, t, ErrNotSupported)
}

func (m *Mapper) varcharDataType(t types.Type) string {
	limit := m.dialect.VarcharMaxLength
	switch {
	case t.IsUnbounded():
		return m.dialect.VarcharType(limit)
	case t.Length > limit:
		return m.dialect.LargeObjectType(t.Length)
	case t.Length < limit:
		return m.dialect.VarcharType(t.Length)
	default:
		return m.dialect.VarcharType(limit)
	}
}
