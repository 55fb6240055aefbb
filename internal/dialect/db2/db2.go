// Package db2 registers the IBM DB2 dialect.
//
// The database/sql driver ("go_ibm_db") needs the IBM CLI client libraries
// and is linked only into binaries built with the db2 build tag; this package
// carries the SQL conventions and DSN handling and has no cgo dependency.
package db2

import (
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"db2connector/internal/dialect"
	"db2connector/internal/types"
)

const (
	// Name is the dialect tag.
	Name = "db2"
	// DriverName is the database/sql driver registered by go_ibm_db.
	DriverName = "go_ibm_db"

	// DefaultVarcharMaxLength is the longest VARCHAR DB2 stores inline.
	DefaultVarcharMaxLength = 32672
	// MaxTimestampPrecision is DB2's largest TIMESTAMP(p).
	MaxTimestampPrecision = 12
	// maxCharLength is DB2's largest CHAR(n).
	maxCharLength = 254
)

func init() { dialect.Register(Dialect()) }

// Dialect returns the DB2 conventions.
func Dialect() dialect.Dialect {
	return dialect.Dialect{
		Name:                  Name,
		DriverName:            DriverName,
		QuoteOpen:             `"`,
		QuoteClose:            `"`,
		SelectSuffix:          " WITH UR",
		TrueCondition:         "TRUE",
		FalseCondition:        "FALSE",
		BoolTrue:              "TRUE",
		BoolFalse:             "FALSE",
		DateFormat:            "CAST('%s' AS DATE)",
		TimeFormat:            "CAST('%s' AS TIME)",
		TimestampFormat:       "CAST('%s' AS TIMESTAMP(12))",
		BinaryFormat:          "BX'%s'",
		ReadIsolation:         sql.LevelReadUncommitted,
		ReadOnly:              true,
		VarcharMaxLength:      DefaultVarcharMaxLength,
		MaxTimestampPrecision: MaxTimestampPrecision,
		CaseProbeSQL:          "SELECT 1 AS probe_case FROM SYSIBM.SYSDUMMY1",
		SSLProperties:         map[string]string{"Security": "SSL"},
		RenameTableFormat:     "RENAME TABLE %s TO %s",
		CopyTableSchemaFormat: "CREATE TABLE %s AS (SELECT %s FROM %s) WITH NO DATA",
		Placeholder:           dialect.QuestionMark,
		VarcharType:           dialect.Sized("VARCHAR(%d)"),
		LargeObjectType:       dialect.Sized("CLOB(%d)"),
		TimestampType:         dialect.Sized("TIMESTAMP(%d)"),
		MapType:               MapType,
		PrepareDSN:            PrepareDSN,
	}
}

// MapType maps logical types other than varchar and timestamp to DB2 DDL.
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
		return "DOUBLE", true
	case types.KindDecimal:
		// DB2 caps DECIMAL precision at 31.
		if t.Precision > 31 {
			return "", false
		}
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale), true
	case types.KindChar:
		if t.Length > maxCharLength {
			return "", false
		}
		return fmt.Sprintf("CHAR(%d)", t.Length), true
	case types.KindVarbinary:
		if t.IsUnbounded() || t.Length > DefaultVarcharMaxLength {
			return "BLOB", true
		}
		return fmt.Sprintf("VARBINARY(%d)", t.Length), true
	case types.KindDate:
		return "DATE", true
	case types.KindTime:
		return "TIME", true
	}
	return "", false
}

// PrepareDSN accepts either a CLI connection string
// ("DATABASE=..;HOSTNAME=..;PORT=..;UID=..;PWD=..") or a URL of the form
// [jdbc:]db2://[user:pass@]host[:port]/database[:key=value;...], and appends
// props as Key=Value; pairs in key order. Keys already present in the DSN
// win.
func PrepareDSN(dsn string, props map[string]string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("db2: DSN must not be empty")
	}
	if strings.HasPrefix(dsn, "jdbc:") || strings.HasPrefix(dsn, "db2://") {
		var err error
		if dsn, err = fromURL(strings.TrimPrefix(dsn, "jdbc:")); err != nil {
			return "", err
		}
	}
	present := map[string]bool{}
	for _, kv := range strings.Split(dsn, ";") {
		k, _, ok := strings.Cut(kv, "=")
		if !ok {
			if strings.TrimSpace(kv) != "" {
				return "", fmt.Errorf("db2: malformed DSN segment %q", kv)
			}
			continue
		}
		present[strings.ToUpper(strings.TrimSpace(k))] = true
	}
	if !present["DATABASE"] && !present["DSN"] {
		return "", fmt.Errorf("db2: DSN has no DATABASE")
	}

	var sb strings.Builder
	sb.WriteString(dsn)
	if !strings.HasSuffix(dsn, ";") {
		sb.WriteByte(';')
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if present[strings.ToUpper(k)] {
			continue
		}
		fmt.Fprintf(&sb, "%s=%s;", k, props[k])
	}
	return sb.String(), nil
}

func fromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("db2: parse url: %w", err)
	}
	if u.Scheme != "db2" {
		return "", fmt.Errorf("db2: unsupported url scheme %q", u.Scheme)
	}
	db, suffix := strings.TrimPrefix(u.Path, "/"), ""
	if i := strings.IndexAny(db, ":;"); i >= 0 {
		db, suffix = db[:i], db[i+1:]
	}
	if u.Hostname() == "" || db == "" {
		return "", fmt.Errorf("db2: url needs host and database")
	}
	port := u.Port()
	if port == "" {
		port = "50000"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "DATABASE=%s;HOSTNAME=%s;PORT=%s;PROTOCOL=TCPIP;", db, u.Hostname(), port)
	present := map[string]bool{"DATABASE": true, "HOSTNAME": true, "PORT": true, "PROTOCOL": true}
	if u.User != nil {
		fmt.Fprintf(&sb, "UID=%s;", u.User.Username())
		present["UID"] = true
		if pw, ok := u.User.Password(); ok {
			fmt.Fprintf(&sb, "PWD=%s;", pw)
			present["PWD"] = true
		}
	}
	for _, kv := range strings.Split(suffix, ";") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return "", fmt.Errorf("db2: malformed url property %q", kv)
		}
		k = cliKeyword(k)
		if present[strings.ToUpper(k)] {
			continue
		}
		present[strings.ToUpper(k)] = true
		fmt.Fprintf(&sb, "%s=%s;", k, v)
	}
	return sb.String(), nil
}

// cliKeyword maps JDBC property names that differ from their CLI keywords.
func cliKeyword(k string) string {
	switch strings.ToLower(k) {
	case "user":
		return "UID"
	case "password":
		return "PWD"
	}
	return k
}
