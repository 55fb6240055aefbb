package ddl

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ColumnDef is one column of a table the connector creates. SQLType is the
// native type from the column's write mapping.
type ColumnDef struct {
	Name    string
	SQLType string
	NotNull bool
}

// TableDef names a table by its unquoted [catalog.][schema.]table segments
// and lists its columns in order.
type TableDef struct {
	Catalog string
	Schema  string
	Table   string
	Columns []ColumnDef
}

// Upper returns a copy of t with the table and column names upper-cased,
// for databases that store unquoted identifiers in upper case. Catalog and
// schema are left as given.
func (t TableDef) Upper() TableDef {
	caser := cases.Upper(language.English)
	out := t
	out.Table = caser.String(t.Table)
	out.Columns = make([]ColumnDef, len(t.Columns))
	for i, c := range t.Columns {
		c.Name = caser.String(c.Name)
		out.Columns[i] = c
	}
	return out
}
