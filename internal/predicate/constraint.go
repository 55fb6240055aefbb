package predicate

import "sort"

// ConstraintSet maps column names to their domains. A column without an
// entry is unconstrained. The distinguished None set matches no row at all.
type ConstraintSet struct {
	domains map[string]Domain
	none    bool
}

// Unconstrained returns the set that constrains no column.
func Unconstrained() ConstraintSet { return ConstraintSet{} }

// NoneSet returns the set that no row satisfies.
func NoneSet() ConstraintSet { return ConstraintSet{none: true} }

// WithColumnDomains builds a set from a column->domain map. The map is
// copied.
func WithColumnDomains(domains map[string]Domain) ConstraintSet {
	cp := make(map[string]Domain, len(domains))
	for k, v := range domains {
		cp[k] = v
	}
	return ConstraintSet{domains: cp}
}

// IsNone reports whether the set is unsatisfiable as a whole.
func (c ConstraintSet) IsNone() bool { return c.none }

// IsAll reports whether the set constrains nothing.
func (c ConstraintSet) IsAll() bool { return !c.none && len(c.domains) == 0 }

// Domain returns the domain for a column, if constrained.
func (c ConstraintSet) Domain(column string) (Domain, bool) {
	d, ok := c.domains[column]
	return d, ok
}

// Columns returns the constrained column names in ascending order.
func (c ConstraintSet) Columns() []string {
	out := make([]string, 0, len(c.domains))
	for k := range c.domains {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Matches evaluates the set against a row given as column->value (nil or
// missing means NULL).
func (c ConstraintSet) Matches(row map[string]any) bool {
	if c.none {
		return false
	}
	for col, d := range c.domains {
		if !d.Contains(row[col]) {
			return false
		}
	}
	return true
}
