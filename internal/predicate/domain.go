// Package predicate models the per-column value domains pushed down by the
// engine: a domain is "no value", "every value", or an ascending list of
// disjoint ranges, plus a flag saying whether NULL is allowed.
//
// Domains built through the constructors in this package are normalized:
// ranges are validated, empty ranges dropped, overlapping and adjacent
// ranges merged, and the result sorted. The fields are exported so callers
// can inspect them; code that assembles a Domain by hand takes on the
// normalization contract itself.
package predicate

import (
	"fmt"
	"sort"

	"db2connector/internal/types"
)

// Bound says how a marker relates to its value.
type Bound int

const (
	// Above means strictly greater than the value (or -inf when unbounded).
	Above Bound = iota
	// Exactly means equal to the value.
	Exactly
	// Below means strictly less than the value (or +inf when unbounded).
	Below
)

func (b Bound) String() string {
	switch b {
	case Above:
		return "ABOVE"
	case Exactly:
		return "EXACTLY"
	case Below:
		return "BELOW"
	}
	return fmt.Sprintf("Bound(%d)", int(b))
}

// Marker is one end of a range. A nil Value means unbounded: with Above it
// is -inf, with Below it is +inf.
type Marker struct {
	Value any
	Bound Bound
}

// LowerUnbounded is the -inf marker.
func LowerUnbounded() Marker { return Marker{Bound: Above} }

// UpperUnbounded is the +inf marker.
func UpperUnbounded() Marker { return Marker{Bound: Below} }

// IsLowerUnbounded reports whether m is -inf.
func (m Marker) IsLowerUnbounded() bool { return m.Value == nil && m.Bound == Above }

// IsUpperUnbounded reports whether m is +inf.
func (m Marker) IsUpperUnbounded() bool { return m.Value == nil && m.Bound == Below }

// Range is a contiguous interval between two markers.
type Range struct {
	Low  Marker
	High Marker
}

// IsAll reports whether the range is (-inf, +inf).
func (r Range) IsAll() bool { return r.Low.IsLowerUnbounded() && r.High.IsUpperUnbounded() }

// IsSingleValue reports whether the range is [v, v].
func (r Range) IsSingleValue(t types.Type) bool {
	return r.Low.Value != nil && r.High.Value != nil &&
		r.Low.Bound == Exactly && r.High.Bound == Exactly &&
		types.Compare(t, r.Low.Value, r.High.Value) == 0
}

// Equal is [v, v].
func Equal(v any) Range { return Range{Low: Marker{v, Exactly}, High: Marker{v, Exactly}} }

// GreaterThan is (v, +inf).
func GreaterThan(v any) Range { return Range{Low: Marker{v, Above}, High: UpperUnbounded()} }

// GreaterThanOrEqual is [v, +inf).
func GreaterThanOrEqual(v any) Range { return Range{Low: Marker{v, Exactly}, High: UpperUnbounded()} }

// LessThan is (-inf, v).
func LessThan(v any) Range { return Range{Low: LowerUnbounded(), High: Marker{v, Below}} }

// LessThanOrEqual is (-inf, v].
func LessThanOrEqual(v any) Range { return Range{Low: LowerUnbounded(), High: Marker{v, Exactly}} }

// Between builds a range with explicit inclusivity on each side.
func Between(low any, lowInclusive bool, high any, highInclusive bool) Range {
	r := Range{Low: Marker{low, Above}, High: Marker{high, Below}}
	if lowInclusive {
		r.Low.Bound = Exactly
	}
	if highInclusive {
		r.High.Bound = Exactly
	}
	return r
}

// ValueSet is the non-null part of a domain. The zero value is the empty
// set.
type ValueSet struct {
	All    bool
	Ranges []Range
}

// Domain is the set of values a column may take.
type Domain struct {
	Type        types.Type
	Values      ValueSet
	NullAllowed bool
}

// None is the domain with no non-null value.
func None(t types.Type, nullAllowed bool) Domain {
	return Domain{Type: t, NullAllowed: nullAllowed}
}

// All is the domain with every non-null value.
func All(t types.Type, nullAllowed bool) Domain {
	return Domain{Type: t, Values: ValueSet{All: true}, NullAllowed: nullAllowed}
}

// OnlyNull is the domain matching only NULL.
func OnlyNull(t types.Type) Domain { return None(t, true) }

// NotNull is the domain matching every non-null value.
func NotNull(t types.Type) Domain { return All(t, false) }

// SingleValue is the domain {v}.
func SingleValue(t types.Type, v any) (Domain, error) {
	return FromRanges(t, false, Equal(v))
}

// MultipleValues is the domain {v1, v2, ...}.
func MultipleValues(t types.Type, vs ...any) (Domain, error) {
	rs := make([]Range, len(vs))
	for i, v := range vs {
		rs[i] = Equal(v)
	}
	return FromRanges(t, false, rs...)
}

// FromRanges validates and normalizes ranges into a domain. A range equal to
// (-inf, +inf) yields the All domain; no surviving range yields None.
func FromRanges(t types.Type, nullAllowed bool, ranges ...Range) (Domain, error) {
	if !t.Orderable() {
		return Domain{}, fmt.Errorf("predicate: type %s is not orderable", t)
	}
	kept := make([]Range, 0, len(ranges))
	for i, r := range ranges {
		if err := validateRange(t, r); err != nil {
			return Domain{}, fmt.Errorf("predicate: range %d: %w", i, err)
		}
		if r.IsAll() {
			return All(t, nullAllowed), nil
		}
		if isEmpty(t, r) {
			continue
		}
		kept = append(kept, r)
	}
	merged := mergeRanges(t, kept)
	if len(merged) == 0 {
		return None(t, nullAllowed), nil
	}
	if len(merged) == 1 && merged[0].IsAll() {
		return All(t, nullAllowed), nil
	}
	return Domain{Type: t, Values: ValueSet{Ranges: merged}, NullAllowed: nullAllowed}, nil
}

// IsNone reports whether no non-null value is allowed.
func (d Domain) IsNone() bool { return !d.Values.All && len(d.Values.Ranges) == 0 }

// IsAll reports whether every non-null value is allowed.
func (d Domain) IsAll() bool { return d.Values.All }

// Contains reports whether v (nil for NULL) belongs to the domain. A value
// that is not a valid in-memory value of the domain's type never does.
func (d Domain) Contains(v any) bool {
	if v == nil {
		return d.NullAllowed
	}
	if types.CheckValue(d.Type, v) != nil {
		return false
	}
	if d.Values.All {
		return true
	}
	for _, r := range d.Values.Ranges {
		if rangeContains(d.Type, r, v) {
			return true
		}
	}
	return false
}

func rangeContains(t types.Type, r Range, v any) bool {
	if r.Low.Value != nil {
		c := types.Compare(t, v, r.Low.Value)
		if c < 0 || (c == 0 && r.Low.Bound != Exactly) {
			return false
		}
	}
	if r.High.Value != nil {
		c := types.Compare(t, v, r.High.Value)
		if c > 0 || (c == 0 && r.High.Bound != Exactly) {
			return false
		}
	}
	return true
}

func validateRange(t types.Type, r Range) error {
	if r.Low.Value == nil {
		if r.Low.Bound != Above {
			return fmt.Errorf("unbounded low marker must use %s, got %s", Above, r.Low.Bound)
		}
	} else {
		if r.Low.Bound == Below {
			return fmt.Errorf("low marker must not use %s", Below)
		}
		if err := types.CheckValue(t, r.Low.Value); err != nil {
			return err
		}
	}
	if r.High.Value == nil {
		if r.High.Bound != Below {
			return fmt.Errorf("unbounded high marker must use %s, got %s", Below, r.High.Bound)
		}
	} else {
		if r.High.Bound == Above {
			return fmt.Errorf("high marker must not use %s", Above)
		}
		if err := types.CheckValue(t, r.High.Value); err != nil {
			return err
		}
	}
	return nil
}

func isEmpty(t types.Type, r Range) bool {
	if r.Low.Value == nil || r.High.Value == nil {
		return false
	}
	c := types.Compare(t, r.Low.Value, r.High.Value)
	if c > 0 {
		return true
	}
	return c == 0 && !(r.Low.Bound == Exactly && r.High.Bound == Exactly)
}

// compareMarkers orders markers on the extended line: -inf < (v,Below) <
// (v,Exactly) < (v,Above) < +inf.
func compareMarkers(t types.Type, a, b Marker) int {
	switch {
	case a.IsLowerUnbounded() && b.IsLowerUnbounded(), a.IsUpperUnbounded() && b.IsUpperUnbounded():
		return 0
	case a.IsLowerUnbounded(), b.IsUpperUnbounded():
		return -1
	case a.IsUpperUnbounded(), b.IsLowerUnbounded():
		return 1
	}
	if c := types.Compare(t, a.Value, b.Value); c != 0 {
		return c
	}
	return boundRank(a.Bound) - boundRank(b.Bound)
}

func boundRank(b Bound) int {
	switch b {
	case Below:
		return -1
	case Above:
		return 1
	}
	return 0
}

// touches reports whether a range ending at high and one starting at low
// overlap or leave no gap between them.
func touches(t types.Type, high, low Marker) bool {
	if compareMarkers(t, low, high) <= 0 {
		return true
	}
	if high.Value == nil || low.Value == nil {
		return false
	}
	if types.Compare(t, high.Value, low.Value) != 0 {
		return false
	}
	return (high.Bound == Exactly) != (low.Bound == Exactly)
}

func mergeRanges(t types.Type, rs []Range) []Range {
	if len(rs) == 0 {
		return nil
	}
	sorted := append([]Range(nil), rs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareMarkers(t, sorted[i].Low, sorted[j].Low) < 0
	})
	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if touches(t, last.High, r.Low) {
			if compareMarkers(t, r.High, last.High) > 0 {
				last.High = r.High
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
