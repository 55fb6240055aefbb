// Package mysql registers the MySQL dialect backed by go-sql-driver/mysql.
package mysql

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

const Name = "mysql"

// varcharMaxLength is the longest utf8mb4 VARCHAR that fits MySQL's 65535
// byte row limit.
const varcharMaxLength = 16383

func init() { dialect.Register(Dialect()) }

// Dialect returns the MySQL conventions. MySQL treats backslash as an escape
// character inside string literals.
func Dialect() dialect.Dialect {
	return dialect.Dialect{
		Name:                  Name,
		DriverName:            "mysql",
		QuoteOpen:             "`",
		QuoteClose:            "`",
		TrueCondition:         "TRUE",
		FalseCondition:        "FALSE",
		BoolTrue:              "TRUE",
		BoolFalse:             "FALSE",
		EscapeBackslash:       true,
		DateFormat:            "DATE '%s'",
		TimeFormat:            "TIME '%s'",
		TimestampFormat:       "TIMESTAMP '%s'",
		BinaryFormat:          "X'%s'",
		ReadIsolation:         sql.LevelReadUncommitted,
		ReadOnly:              true,
		VarcharMaxLength:      varcharMaxLength,
		MaxTimestampPrecision: types.MaxShortTimestampPrecision,
		CaseProbeSQL:          "SELECT 1 AS probe_case",
		SSLProperties:         map[string]string{"tls": "true"},
		RenameTableFormat:     "RENAME TABLE %s TO %s",
		CopyTableSchemaFormat: "CREATE TABLE %s AS SELECT %s FROM %s WHERE 1 = 0",
		Placeholder:           dialect.QuestionMark,
		VarcharType:           dialect.Sized("VARCHAR(%d)"),
		LargeObjectType:       largeObjectType,
		TimestampType:         dialect.Sized("DATETIME(%d)"),
		MapType:               MapType,
		PrepareDSN:            PrepareDSN,
	}
}

func largeObjectType(length int) string {
	if length <= 16777215 {
		return "MEDIUMTEXT"
	}
	return "LONGTEXT"
}

// MapType maps logical types other than varchar and timestamp to MySQL DDL.
func MapType(t types.Type) (string, bool) {
	switch t.Kind {
	case types.KindBoolean:
		return "BOOLEAN", true
	case types.KindTinyInt:
		return "TINYINT", true
	case types.KindSmallInt:
		return "SMALLINT", true
	case types.KindInteger:
		return "INT", true
	case types.KindBigInt:
		return "BIGINT", true
	case types.KindReal:
		return "FLOAT", true
	case types.KindDouble:
		return "DOUBLE", true
	case types.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale), true
	case types.KindChar:
		if t.Length > 255 {
			return "", false
		}
		return fmt.Sprintf("CHAR(%d)", t.Length), true
	case types.KindVarbinary:
		return "LONGBLOB", true
	case types.KindDate:
		return "DATE", true
	case types.KindTime:
		return fmt.Sprintf("TIME(%d)", min(t.Precision, types.MaxShortTimestampPrecision)), true
	}
	return "", false
}

// PrepareDSN parses dsn, merges props into its parameters and turns on
// parseTime so DATE and DATETIME columns scan as time.Time.
func PrepareDSN(dsn string, props map[string]string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	for k, v := range props {
		if k == "tls" {
			if cfg.TLSConfig == "" {
				cfg.TLSConfig = v
			}
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		if _, ok := cfg.Params[k]; !ok {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}
