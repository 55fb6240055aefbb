// Package mssql registers the SQL Server dialect backed by go-mssqldb.
package mssql

import (
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

const Name = "mssql"

// nvarcharMaxLength is the largest NVARCHAR(n); longer strings use
// NVARCHAR(MAX).
const nvarcharMaxLength = 4000

func init() { dialect.Register(Dialect()) }

// Dialect returns the SQL Server conventions. SQL Server has no boolean
// predicates, so TRUE and FALSE are spelled 1=1 and 1=0.
func Dialect() dialect.Dialect {
	return dialect.Dialect{
		Name:            Name,
		DriverName:      "sqlserver",
		QuoteOpen:       "[",
		QuoteClose:      "]",
		TrueCondition:   "1=1",
		FalseCondition:  "1=0",
		BoolTrue:        "1",
		BoolFalse:       "0",
		StringPrefix:    "N",
		DateFormat:      "CAST('%s' AS DATE)",
		TimeFormat:      "CAST('%s' AS TIME)",
		TimestampFormat: "CAST('%s' AS DATETIME2)",
		BinaryFormat:    "0x%s",
		ReadIsolation:   sql.LevelReadUncommitted,
		// go-mssqldb rejects read-only transactions.
		ReadOnly:              false,
		VarcharMaxLength:      nvarcharMaxLength,
		MaxTimestampPrecision: 7,
		CaseProbeSQL:          "SELECT 1 AS probe_case",
		SSLProperties:         map[string]string{"encrypt": "true"},
		RenameTable:           renameTable,
		CopyTableSchemaFormat: "SELECT %[2]s INTO %[1]s FROM %[3]s WHERE 1 = 0",
		Placeholder:           func(n int) string { return fmt.Sprintf("@p%d", n) },
		VarcharType:           dialect.Sized("NVARCHAR(%d)"),
		LargeObjectType:       dialect.Fixed("NVARCHAR(MAX)"),
		TimestampType:         dialect.Sized("DATETIME2(%d)"),
		MapType:               MapType,
		PrepareDSN:            PrepareDSN,
	}
}

// renameTable uses sp_rename, which takes the old name as a (possibly
// qualified) string and the new name unqualified and unquoted.
func renameTable(d *dialect.Dialect, oldQualified, newName string) string {
	return fmt.Sprintf("EXEC sp_rename %s, %s", d.StringLiteral(oldQualified), d.StringLiteral(newName))
}

// MapType maps logical types other than varchar and timestamp to SQL Server
// DDL.
func MapType(t types.Type) (string, bool) {
	switch t.Kind {
	case types.KindBoolean:
		return "BIT", true
	case types.KindTinyInt:
		return "SMALLINT", true
	case types.KindSmallInt:
		return "SMALLINT", true
	case types.KindInteger:
		return "INT", true
	case types.KindBigInt:
		return "BIGINT", true
	case types.KindReal:
		return "REAL", true
	case types.KindDouble:
		return "FLOAT", true
	case types.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale), true
	case types.KindChar:
		if t.Length > nvarcharMaxLength {
			return "", false
		}
		return fmt.Sprintf("NCHAR(%d)", t.Length), true
	case types.KindVarbinary:
		if t.IsUnbounded() || t.Length > 8000 {
			return "VARBINARY(MAX)", true
		}
		return fmt.Sprintf("VARBINARY(%d)", t.Length), true
	case types.KindDate:
		return "DATE", true
	case types.KindTime:
		return fmt.Sprintf("TIME(%d)", min(t.Precision, 7)), true
	}
	return "", false
}

// PrepareDSN validates dsn with msdsn and adds props. URL DSNs get query
// parameters; ADO-style DSNs get key=value; pairs.
func PrepareDSN(dsn string, props map[string]string) (string, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("mssql dsn: %w", err)
	}
	if len(props) == 0 {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "sqlserver://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("mssql dsn: %w", err)
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
	lower := strings.ToLower(dsn)
	keys := make([]string, 0, len(props))
	for k := range props {
		if !strings.Contains(lower, strings.ToLower(k)+"=") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(dsn, ";"))
	for _, k := range keys {
		fmt.Fprintf(&sb, ";%s=%s", k, props[k])
	}
	return sb.String(), nil
}
