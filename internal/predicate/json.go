package predicate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"db2connector/internal/types"
)

// DomainSpec is the JSON form of a Domain, e.g.
//
//	{"null_allowed": true, "values": [1, 5, 9]}
//	{"ranges": [{"low": {"value": 3, "bound": "above"}}]}
//	{"all": true}
//
// Values are written in their textual form (numbers, booleans, or strings as
// accepted by types.ParseValue). A spec without values, ranges or all is the
// None domain.
type DomainSpec struct {
	All         bool              `json:"all,omitempty"`
	NullAllowed bool              `json:"null_allowed,omitempty"`
	Values      []json.RawMessage `json:"values,omitempty"`
	Ranges      []RangeSpec       `json:"ranges,omitempty"`
}

// RangeSpec is the JSON form of a Range. A missing marker is unbounded.
type RangeSpec struct {
	Low  *MarkerSpec `json:"low,omitempty"`
	High *MarkerSpec `json:"high,omitempty"`
}

// MarkerSpec is the JSON form of a bounded Marker.
type MarkerSpec struct {
	Value json.RawMessage `json:"value"`
	Bound string          `json:"bound"`
}

// Domain converts s into a normalized Domain of type t.
func (s DomainSpec) Domain(t types.Type) (Domain, error) {
	if s.All {
		return All(t, s.NullAllowed), nil
	}
	ranges := make([]Range, 0, len(s.Values)+len(s.Ranges))
	for i, raw := range s.Values {
		v, err := decodeValue(t, raw)
		if err != nil {
			return Domain{}, fmt.Errorf("values[%d]: %w", i, err)
		}
		ranges = append(ranges, Equal(v))
	}
	for i, rs := range s.Ranges {
		r := Range{Low: LowerUnbounded(), High: UpperUnbounded()}
		if rs.Low != nil {
			m, err := rs.Low.marker(t)
			if err != nil {
				return Domain{}, fmt.Errorf("ranges[%d].low: %w", i, err)
			}
			r.Low = m
		}
		if rs.High != nil {
			m, err := rs.High.marker(t)
			if err != nil {
				return Domain{}, fmt.Errorf("ranges[%d].high: %w", i, err)
			}
			r.High = m
		}
		ranges = append(ranges, r)
	}
	return FromRanges(t, s.NullAllowed, ranges...)
}

func (m MarkerSpec) marker(t types.Type) (Marker, error) {
	v, err := decodeValue(t, m.Value)
	if err != nil {
		return Marker{}, err
	}
	switch m.Bound {
	case "above":
		return Marker{v, Above}, nil
	case "exactly", "":
		return Marker{v, Exactly}, nil
	case "below":
		return Marker{v, Below}, nil
	}
	return Marker{}, fmt.Errorf("unknown bound %q", m.Bound)
}

func decodeValue(t types.Type, raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("value must not be null")
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
	}
	return types.ParseValue(t, text)
}
