// Package sqlite registers the SQLite dialect backed by modernc.org/sqlite.
//
// SQLite has no native temporal types. Dates, times and timestamps are
// stored as ISO-8601 text in TEXT columns, both when bound as parameters and
// when rendered as literals, so comparisons in SQL order them the same way
// the engine does.
package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

const Name = "sqlite"

// maxLength is SQLite's default SQLITE_MAX_LENGTH.
const maxLength = 1_000_000_000

func init() { dialect.Register(Dialect()) }

// Dialect returns the SQLite conventions.
func Dialect() dialect.Dialect {
	return dialect.Dialect{
		Name:                  Name,
		DriverName:            "sqlite",
		QuoteOpen:             `"`,
		QuoteClose:            `"`,
		TrueCondition:         "TRUE",
		FalseCondition:        "FALSE",
		BoolTrue:              "1",
		BoolFalse:             "0",
		DateFormat:            "'%s'",
		TimeFormat:            "'%s'",
		TimestampFormat:       "'%s'",
		BinaryFormat:          "X'%s'",
		ReadIsolation:         sql.LevelDefault,
		ReadOnly:              false,
		VarcharMaxLength:      maxLength,
		MaxTimestampPrecision: types.MaxTimestampPrecision,
		CaseProbeSQL:          "SELECT 1 AS probe_case",
		BindTemporalAsText:    true,
		RenameTableFormat:     "ALTER TABLE %s RENAME TO %s",
		CopyTableSchemaFormat: "CREATE TABLE %s AS SELECT %s FROM %s WHERE 0 = 1",
		Placeholder:           dialect.QuestionMark,
		VarcharType:           dialect.Sized("VARCHAR(%d)"),
		LargeObjectType:       dialect.Fixed("TEXT"),
		TimestampType:         dialect.Fixed("TEXT"),
		MapType:               MapType,
		PrepareDSN:            PrepareDSN,
	}
}

// MapType maps logical types other than varchar and timestamp to SQLite
// column types, preferring the canonical affinities.
func MapType(t types.Type) (string, bool) {
	switch t.Kind {
	case types.KindBoolean, types.KindTinyInt, types.KindSmallInt, types.KindInteger, types.KindBigInt:
		return "INTEGER", true
	case types.KindReal, types.KindDouble:
		return "REAL", true
	case types.KindDecimal:
		// NUMERIC affinity would coerce to REAL and lose digits.
		return "TEXT", true
	case types.KindChar, types.KindDate, types.KindTime:
		return "TEXT", true
	case types.KindVarbinary:
		return "BLOB", true
	}
	return "", false
}

// PrepareDSN accepts a file path or file: URI and appends props as URI
// query parameters (e.g. _pragma=busy_timeout(5000)).
func PrepareDSN(dsn string, props map[string]string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("sqlite: DSN must not be empty")
	}
	if len(props) == 0 {
		return dsn, nil
	}
	var sb strings.Builder
	sb.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, k := range sortedKeys(props) {
		fmt.Fprintf(&sb, "%s%s=%s", sep, k, props[k])
		sep = "&"
	}
	return sb.String(), nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
