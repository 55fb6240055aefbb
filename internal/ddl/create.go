// Package ddl renders CREATE TABLE and DROP TABLE statements from a small,
// dialect-neutral table model. Identifiers are quoted with the target
// dialect; column types are emitted verbatim.
package ddl

import (
	"fmt"
	"strings"

	"db2connector/internal/dialect"
)

// BuildCreateTableSQL renders
//
//	CREATE TABLE <fq> (
//	  <col> <type> [NOT NULL],
//	  ...
//	)
//
// Empty catalog and schema segments are omitted. No trailing semicolon is
// emitted; several drivers reject it.
func BuildCreateTableSQL(d *dialect.Dialect, t TableDef) (string, error) {
	table := strings.TrimSpace(t.Table)
	if table == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	seen := make(map[string]bool, len(t.Columns))

	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", table)
		}
		if seen[c.Name] {
			return "", fmt.Errorf("ddl: duplicate column %s in table %s", c.Name, table)
		}
		seen[c.Name] = true
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", c.Name)
		}

		def := d.Quote(c.Name) + " " + typ
		if c.NotNull {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		d.QualifiedName(t.Catalog, t.Schema, table),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE <fq>.
func BuildDropTableSQL(d *dialect.Dialect, catalog, schema, table string) string {
	return "DROP TABLE " + d.QualifiedName(catalog, schema, table)
}
