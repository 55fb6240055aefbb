// Package querybuilder compiles per-column value domains into SQL predicates
// and assembles them into SELECT statements for one dialect.
//
// Compilation is pure: a Builder holds only its dialect and logger and may be
// shared by concurrent callers.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"db2connector/internal/dialect"
	"db2connector/internal/predicate"
	"db2connector/internal/typemap"
	"db2connector/internal/types"
)

// Column is one projected or constrained column.
type Column struct {
	Name string
	Type types.Type
	// Write encodes engine values for literals. Nil means the standard
	// write function for Type.
	Write typemap.WriteFunc
}

// Builder renders predicates and statements.
type Builder struct {
	dialect *dialect.Dialect
	log     zerolog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for assembled statements.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// New returns a Builder for d.
func New(d *dialect.Dialect, opts ...Option) *Builder {
	b := &Builder{dialect: d, log: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuildSQL assembles
//
//	SELECT <cols|null> FROM [catalog.][schema.]table [WHERE c1 AND c2 ...]<suffix>
//
// Empty catalog and schema segments are omitted.
func (b *Builder) BuildSQL(catalog, schema, table string, columns []Column, constraints predicate.ConstraintSet) (string, error) {
	conjuncts, err := b.ToConjuncts(columns, constraints)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(columns) == 0 {
		sb.WriteString("null")
	} else {
		for i, c := range columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(b.dialect.Quote(c.Name))
		}
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.QualifiedName(catalog, schema, table))
	if len(conjuncts) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conjuncts, " AND "))
	}
	sb.WriteString(b.dialect.SelectSuffix)

	sql := sb.String()
	b.log.Debug().
		Str("dialect", b.dialect.Name).
		Str("fingerprint", Fingerprint(sql)).
		Str("sql", sql).
		Msg("assembled select")
	return sql, nil
}

// Fingerprint returns a short stable hash of a statement for log correlation.
func Fingerprint(sql string) string {
	return strconv.FormatUint(xxh3.HashString(sql), 16)
}

// ToConjuncts compiles one predicate per constrained column, in column
// order. A predicate with several disjuncts is parenthesized. Columns without a domain, or whose type is not pushed
// down, contribute nothing. A constraint set that matches nothing yields the
// single conjunct FALSE.
func (b *Builder) ToConjuncts(columns []Column, constraints predicate.ConstraintSet) ([]string, error) {
	if constraints.IsNone() {
		return []string{b.dialect.FalseCondition}, nil
	}
	var out []string
	for _, col := range columns {
		if !Pushdown(col.Type) {
			continue
		}
		dom, ok := constraints.Domain(col.Name)
		if !ok {
			continue
		}
		p, err := b.toPredicate(col, dom)
		if err != nil {
			return nil, fmt.Errorf("querybuilder: column %s: %w", col.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Pushdown reports whether predicates on t are compiled into SQL.
func Pushdown(t types.Type) bool {
	switch t.Kind {
	case types.KindBigInt, types.KindInteger, types.KindSmallInt, types.KindTinyInt,
		types.KindDouble, types.KindBoolean, types.KindVarchar,
		types.KindDate, types.KindTimestamp:
		return true
	}
	return false
}

func (b *Builder) toPredicate(col Column, dom predicate.Domain) (string, error) {
	if !dom.Type.Orderable() {
		return "", invariant("type %s is not orderable", dom.Type)
	}
	if dom.Type.Kind != col.Type.Kind {
		return "", invariant("domain type %s does not match column type %s", dom.Type, col.Type)
	}
	name := b.dialect.Quote(col.Name)

	if dom.IsNone() {
		if dom.NullAllowed {
			return name + " IS NULL", nil
		}
		return b.dialect.FalseCondition, nil
	}
	if dom.IsAll() {
		if dom.NullAllowed {
			return b.dialect.TrueCondition, nil
		}
		return name + " IS NOT NULL", nil
	}

	var (
		disjuncts []string
		points    []any
	)
	for _, r := range dom.Values.Ranges {
		for _, m := range [2]predicate.Marker{r.Low, r.High} {
			if m.Value == nil {
				continue
			}
			if err := types.CheckValue(col.Type, m.Value); err != nil {
				return "", invariant("%v", err)
			}
		}
		if r.IsSingleValue(col.Type) {
			points = append(points, r.Low.Value)
			continue
		}
		var cmp []string
		if r.Low.Value != nil {
			op, err := lowOperator(r.Low.Bound)
			if err != nil {
				return "", err
			}
			s, err := b.comparison(col, name, op, r.Low.Value)
			if err != nil {
				return "", err
			}
			cmp = append(cmp, s)
		} else if r.Low.Bound != predicate.Above {
			return "", invariant("unbounded low marker with bound %s", r.Low.Bound)
		}
		if r.High.Value != nil {
			op, err := highOperator(r.High.Bound)
			if err != nil {
				return "", err
			}
			s, err := b.comparison(col, name, op, r.High.Value)
			if err != nil {
				return "", err
			}
			cmp = append(cmp, s)
		} else if r.High.Bound != predicate.Below {
			return "", invariant("unbounded high marker with bound %s", r.High.Bound)
		}
		if len(cmp) == 0 {
			return "", invariant("range contributes no comparison")
		}
		disjuncts = append(disjuncts, "("+strings.Join(cmp, " AND ")+")")
	}

	switch len(points) {
	case 0:
	case 1:
		s, err := b.comparison(col, name, "=", points[0])
		if err != nil {
			return "", err
		}
		disjuncts = append(disjuncts, s)
	default:
		lits := make([]string, len(points))
		for i, v := range points {
			lit, err := b.literal(col, v)
			if err != nil {
				return "", err
			}
			lits[i] = lit
		}
		disjuncts = append(disjuncts, name+" IN ("+strings.Join(lits, ",")+")")
	}

	if dom.NullAllowed {
		disjuncts = append(disjuncts, name+" IS NULL")
	}
	switch len(disjuncts) {
	case 0:
		return "", invariant("empty disjunct list")
	case 1:
		return disjuncts[0], nil
	}
	return "(" + strings.Join(disjuncts, " OR ") + ")", nil
}

func lowOperator(b predicate.Bound) (string, error) {
	switch b {
	case predicate.Above:
		return ">", nil
	case predicate.Exactly:
		return ">=", nil
	}
	return "", invariant("low marker with bound %s", b)
}

func highOperator(b predicate.Bound) (string, error) {
	switch b {
	case predicate.Exactly:
		return "<=", nil
	case predicate.Below:
		return "<", nil
	}
	return "", invariant("high marker with bound %s", b)
}

func (b *Builder) comparison(col Column, name, op string, v any) (string, error) {
	lit, err := b.literal(col, v)
	if err != nil {
		return "", err
	}
	return name + " " + op + " " + lit, nil
}

// literal encodes v through the column's write function and renders the
// result in the dialect's literal syntax.
func (b *Builder) literal(col Column, v any) (string, error) {
	if err := types.CheckValue(col.Type, v); err != nil {
		return "", invariant("%v", err)
	}
	write := col.Write
	if write == nil {
		write = typemap.WriteFuncFor(col.Type)
	}
	dv, err := write(v)
	if err != nil {
		return "", err
	}
	return b.dialect.Literal(col.Type, dv)
}

func invariant(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), types.ErrInvariant)
}
