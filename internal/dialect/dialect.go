// Package dialect describes the SQL text conventions of a target database:
// identifier quoting, literal syntax, DDL type names, statement templates and
// the database/sql driver used to reach it.
//
// Concrete dialects live in subpackages (db2, postgres, mssql, mysql, sqlite)
// and register themselves at init time. Importing dialect/all makes every
// built-in dialect available to Lookup.
package dialect

import (
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"db2connector/internal/types"
)

// Dialect is the set of SQL conventions for one database family. Values are
// copied out of the registry, so callers may adjust fields (for example
// VarcharMaxLength from configuration) without affecting other users.
type Dialect struct {
	Name       string
	DriverName string

	// QuoteOpen and QuoteClose delimit identifiers. An embedded QuoteClose is
	// escaped by doubling it.
	QuoteOpen  string
	QuoteClose string

	// SelectSuffix is appended to every assembled SELECT (e.g. " WITH UR").
	SelectSuffix string

	// TrueCondition and FalseCondition are standalone boolean predicates.
	TrueCondition  string
	FalseCondition string

	// BoolTrue and BoolFalse are boolean value literals.
	BoolTrue  string
	BoolFalse string

	// StringPrefix precedes quoted string literals (N for SQL Server).
	StringPrefix string
	// EscapeBackslash doubles backslashes inside string literals.
	EscapeBackslash bool

	// Literal formats take the formatted value text.
	DateFormat      string
	TimeFormat      string
	TimestampFormat string
	BinaryFormat    string

	// ReadIsolation and ReadOnly configure the transaction opened for reads.
	ReadIsolation sql.IsolationLevel
	ReadOnly      bool

	// VarcharMaxLength is the largest bounded string the dialect stores
	// in its regular string type.
	VarcharMaxLength int
	// MaxTimestampPrecision is the largest fractional-second precision of the
	// dialect's timestamp DDL type.
	MaxTimestampPrecision int

	// CaseProbeSQL selects one column aliased probe_case without quoting; the
	// label the server reports tells how unquoted identifiers are stored.
	CaseProbeSQL string

	// BindTemporalAsText renders dates, times and timestamps as text before
	// binding, for drivers without native temporal types.
	BindTemporalAsText bool

	// SSLProperties are merged into connection properties when TLS is on.
	SSLProperties map[string]string

	// RenameTableFormat takes the quoted old name and the quoted new name.
	RenameTableFormat string
	// CopyTableSchemaFormat takes the quoted new name, the quoted column
	// list and the quoted old name.
	CopyTableSchemaFormat string

	Placeholder     func(n int) string
	VarcharType     func(length int) string
	LargeObjectType func(length int) string
	TimestampType   func(precision int) string
	// MapType returns the DDL type for kinds other than varchar and
	// timestamp.
	MapType func(t types.Type) (string, bool)

	// RenameTable overrides RenameTableFormat when set.
	RenameTable func(d *Dialect, oldQualified, newName string) string
	// PrepareDSN validates a DSN and applies connection properties.
	PrepareDSN func(dsn string, props map[string]string) (string, error)
	// Open overrides sql.Open(DriverName, dsn) when set.
	Open func(dsn string) (*sql.DB, error)
}

// Quote quotes a single identifier, doubling any embedded closing quote.
func (d *Dialect) Quote(name string) string {
	return d.QuoteOpen + strings.ReplaceAll(name, d.QuoteClose, d.QuoteClose+d.QuoteClose) + d.QuoteClose
}

// QualifiedName quotes [catalog.][schema.]table, omitting empty segments.
func (d *Dialect) QualifiedName(catalog, schema, table string) string {
	var sb strings.Builder
	if catalog != "" {
		sb.WriteString(d.Quote(catalog))
		sb.WriteByte('.')
	}
	if schema != "" {
		sb.WriteString(d.Quote(schema))
		sb.WriteByte('.')
	}
	sb.WriteString(d.Quote(table))
	return sb.String()
}

// QuoteList quotes each name and joins them with ", ".
func (d *Dialect) QuoteList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = d.Quote(n)
	}
	return strings.Join(out, ", ")
}

// StringLiteral renders s as a quoted string literal.
func (d *Dialect) StringLiteral(s string) string {
	if d.EscapeBackslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return d.StringPrefix + "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders a value produced by a write function as SQL text for a
// column of type t.
func (d *Dialect) Literal(t types.Type, v driver.Value) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	switch t.Kind {
	case types.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			break
		}
		if b {
			return d.BoolTrue, nil
		}
		return d.BoolFalse, nil
	case types.KindTinyInt, types.KindSmallInt, types.KindInteger, types.KindBigInt:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10), nil
		}
	case types.KindReal, types.KindDouble:
		f, ok := v.(float64)
		if !ok {
			break
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("dialect %s: no literal for %v", d.Name, f)
		}
		return strconv.FormatFloat(f, 'E', -1, 64), nil
	case types.KindDecimal:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case types.KindChar, types.KindVarchar:
		if s, ok := v.(string); ok {
			return d.StringLiteral(s), nil
		}
	case types.KindVarbinary:
		if b, ok := v.([]byte); ok {
			return fmt.Sprintf(d.BinaryFormat, strings.ToUpper(hex.EncodeToString(b))), nil
		}
	case types.KindDate, types.KindTime, types.KindTimestamp:
		text, ok := TemporalText(t, v)
		if !ok {
			break
		}
		return fmt.Sprintf(d.temporalFormat(t.Kind), text), nil
	}
	return "", fmt.Errorf("dialect %s: cannot render %T as %s literal", d.Name, v, t)
}

func (d *Dialect) temporalFormat(k types.Kind) string {
	switch k {
	case types.KindDate:
		return d.DateFormat
	case types.KindTime:
		return d.TimeFormat
	}
	return d.TimestampFormat
}

// TemporalText formats a date, time or timestamp write value (time.Time or
// pre-formatted string) as "YYYY-MM-DD", "HH:MM:SS[.f]" or
// "YYYY-MM-DD HH:MM:SS[.f]".
func TemporalText(t types.Type, v driver.Value) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case time.Time:
		x = x.UTC()
		switch t.Kind {
		case types.KindDate:
			return x.Format("2006-01-02"), true
		case types.KindTime:
			return types.FormatTime(types.MicrosOfDay(x), t.Precision), true
		case types.KindTimestamp:
			picos := uint32(x.Nanosecond()%1000) * 1000
			return types.FormatTimestamp(types.EpochMicros(x), picos, t.Precision), true
		}
	}
	return "", false
}

// Bind adapts a write value before it is passed to the driver.
func (d *Dialect) Bind(t types.Type, v driver.Value) driver.Value {
	if !d.BindTemporalAsText {
		return v
	}
	switch t.Kind {
	case types.KindDate, types.KindTime, types.KindTimestamp:
		if s, ok := TemporalText(t, v); ok {
			return s
		}
	}
	return v
}

// RenameTableSQL renders a rename of oldQualified to the bare newName.
func (d *Dialect) RenameTableSQL(oldQualified, newName string) string {
	if d.RenameTable != nil {
		return d.RenameTable(d, oldQualified, newName)
	}
	return fmt.Sprintf(d.RenameTableFormat, oldQualified, d.Quote(newName))
}

// CopyTableSchemaSQL renders a create-table-as-select that copies the
// columns, in order, without rows.
func (d *Dialect) CopyTableSchemaSQL(newQualified string, columns []string, oldQualified string) string {
	return fmt.Sprintf(d.CopyTableSchemaFormat, newQualified, d.QuoteList(columns), oldQualified)
}

// InsertSQL renders INSERT INTO table (cols) VALUES (placeholders).
func (d *Dialect) InsertSQL(qualified string, columns []string) string {
	ph := make([]string, len(columns))
	for i := range columns {
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", qualified, d.QuoteList(columns), strings.Join(ph, ", "))
}

// OpenDB opens a database/sql handle for an already prepared DSN.
func (d *Dialect) OpenDB(dsn string) (*sql.DB, error) {
	if d.Open != nil {
		return d.Open(dsn)
	}
	return sql.Open(d.DriverName, dsn)
}

// QuestionMark is the "?" placeholder style.
func QuestionMark(int) string { return "?" }

// Sized returns a length/precision formatter for a format like "VARCHAR(%d)".
func Sized(format string) func(int) string {
	return func(n int) string { return fmt.Sprintf(format, n) }
}

// Fixed returns a formatter that ignores its argument.
func Fixed(name string) func(int) string {
	return func(int) string { return name }
}

var (
	mu       sync.RWMutex
	dialects = map[string]Dialect{}
)

// Register registers (or replaces) a dialect under its Name. It is typically
// called from dialect packages' init functions.
func Register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[d.Name] = d
}

// Lookup returns a copy of the named dialect.
func Lookup(name string) (Dialect, error) {
	mu.RLock()
	d, ok := dialects[name]
	mu.RUnlock()
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported dialect=%s", name)
	}
	return d, nil
}

// Names returns the registered dialect names in ascending order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(dialects))
	for k := range dialects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
