// Package postgres registers the PostgreSQL dialect backed by pgx.
package postgres

import (
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

const Name = "postgres"

// varcharMaxLength is the largest VARCHAR(n) PostgreSQL accepts.
const varcharMaxLength = 10485760

func init() { dialect.Register(Dialect()) }

// Dialect returns the PostgreSQL conventions.
func Dialect() dialect.Dialect {
	return dialect.Dialect{
		Name:                  Name,
		DriverName:            "pgx",
		QuoteOpen:             `"`,
		QuoteClose:            `"`,
		TrueCondition:         "TRUE",
		FalseCondition:        "FALSE",
		BoolTrue:              "TRUE",
		BoolFalse:             "FALSE",
		DateFormat:            "DATE '%s'",
		TimeFormat:            "TIME '%s'",
		TimestampFormat:       "TIMESTAMP '%s'",
		BinaryFormat:          `'\x%s'::bytea`,
		ReadIsolation:         sql.LevelReadUncommitted,
		ReadOnly:              true,
		VarcharMaxLength:      varcharMaxLength,
		MaxTimestampPrecision: types.MaxShortTimestampPrecision,
		CaseProbeSQL:          "SELECT 1 AS probe_case",
		SSLProperties:         map[string]string{"sslmode": "require"},
		RenameTableFormat:     "ALTER TABLE %s RENAME TO %s",
		CopyTableSchemaFormat: "CREATE TABLE %s AS (SELECT %s FROM %s) WITH NO DATA",
		Placeholder:           func(n int) string { return fmt.Sprintf("$%d", n) },
		VarcharType:           dialect.Sized("VARCHAR(%d)"),
		LargeObjectType:       dialect.Fixed("TEXT"),
		TimestampType:         dialect.Sized("TIMESTAMP(%d)"),
		MapType:               MapType,
		PrepareDSN:            PrepareDSN,
		Open:                  Open,
	}
}

// MapType maps logical types other than varchar and timestamp to
// PostgreSQL DDL.
func MapType(t types.Type) (string, bool) {
	switch t.Kind {
	case types.KindBoolean:
		return "BOOLEAN", true
	case types.KindTinyInt, types.KindSmallInt:
		return "SMALLINT", true
	case types.KindInteger:
		return "INTEGER", true
	case types.KindBigInt:
		return "BIGINT", true
	case types.KindReal:
		return "REAL", true
	case types.KindDouble:
		return "DOUBLE PRECISION", true
	case types.KindDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", t.Precision, t.Scale), true
	case types.KindChar:
		return fmt.Sprintf("CHAR(%d)", t.Length), true
	case types.KindVarbinary:
		return "BYTEA", true
	case types.KindDate:
		return "DATE", true
	case types.KindTime:
		return fmt.Sprintf("TIME(%d)", min(t.Precision, types.MaxShortTimestampPrecision)), true
	}
	return "", false
}

// PrepareDSN validates dsn with pgx and adds props as URL query parameters
// or keyword/value pairs, depending on the DSN form.
func PrepareDSN(dsn string, props map[string]string) (string, error) {
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("postgres dsn: %w", err)
	}
	if len(props) == 0 {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("postgres dsn: %w", err)
		}
		q := u.Query()
		for k, v := range props {
			if !q.Has(k) {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		if !strings.Contains(dsn, k+"=") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(dsn)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%s", k, props[k])
	}
	return strings.TrimSpace(sb.String()), nil
}

// Open builds a database/sql handle on top of a pgx connection config.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	return stdlib.OpenDB(*cfg), nil
}
