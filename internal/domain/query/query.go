// Package query holds the structured query model produced by the LLM filter
// extractor and consumed by the search planner.
package query

import (
	"encoding/json"
	"fmt"
)

// Confidence thresholds for extraction results.
const (
	// MinExecutableConfidence is the floor below which the planner refuses to
	// query the store at all.
	MinExecutableConfidence = 0.3
	// LowConfidenceAdvisory marks extractions the caller may want to clarify.
	LowConfidenceAdvisory = 0.5
)

// Operator tags a filter specification.
type Operator string

// Supported filter operators.
const (
	OperatorTerm  Operator = "term"
	OperatorRange Operator = "range"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort is an explicit sort request extracted from the user query
// (e.g. "le plus cher" -> price.amount desc).
type Sort struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// Descending reports whether the sort is descending.
func (s Sort) Descending() bool { return s.Order == OrderDesc }

// ValueKind discriminates the filter value union.
type ValueKind int

// Filter value kinds.
const (
	KindScalar ValueKind = iota
	KindList
	KindRange
)

// Range is a numeric range with optional bounds. Only the four recognized
// bound keys survive decoding; anything else in the source object is dropped.
type Range struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// IsEmpty reports whether no bound is set.
func (r Range) IsEmpty() bool {
	return r.GT == nil && r.GTE == nil && r.LT == nil && r.LTE == nil
}

// Value is a tagged union over the shapes a filter value can take in LLM
// output: a scalar (string or number), a list, or a range object. It is
// decoded exactly once, at the extraction boundary.
type Value struct {
	kind   ValueKind
	scalar any
	list   []any
	rng    Range
}

// Scalar creates a scalar value.
func Scalar(v any) Value { return Value{kind: KindScalar, scalar: v} }

// List creates a list value.
func List(vs ...any) Value { return Value{kind: KindList, list: vs} }

// NewRange creates a range value.
func NewRange(r Range) Value { return Value{kind: KindRange, rng: r} }

// Kind returns the union tag.
func (v Value) Kind() ValueKind { return v.kind }

// ScalarValue returns the scalar payload.
func (v Value) ScalarValue() any { return v.scalar }

// ListValue returns the list payload.
func (v Value) ListValue() []any { return v.list }

// RangeValue returns the range payload.
func (v Value) RangeValue() Range { return v.rng }

// String renders the value for matching purposes: scalars via fmt, lists and
// ranges are not stringified.
func (v Value) String() string {
	if v.kind != KindScalar {
		return ""
	}
	return fmt.Sprintf("%v", v.scalar)
}

// Spec is a single filter clause: an operator plus its value.
type Spec struct {
	Operator Operator
	Value    Value
}

// UnmarshalJSON decodes the LLM wire shape {"operator": ..., "value": ...}
// into the tagged union. Range values project only the recognized bound keys.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Operator Operator        `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode filter spec: %w", err)
	}
	s.Operator = raw.Operator

	if raw.Operator == OperatorRange {
		var r Range
		if err := json.Unmarshal(raw.Value, &r); err != nil {
			return fmt.Errorf("decode range value: %w", err)
		}
		s.Value = NewRange(r)
		return nil
	}

	var list []any
	if err := json.Unmarshal(raw.Value, &list); err == nil {
		s.Value = Value{kind: KindList, list: list}
		return nil
	}

	var scalar any
	if err := json.Unmarshal(raw.Value, &scalar); err != nil {
		return fmt.Errorf("decode term value: %w", err)
	}
	s.Value = Scalar(scalar)
	return nil
}

// MarshalJSON renders the spec back in its wire shape, mainly for the
// filters_extracted echo in API responses.
func (s Spec) MarshalJSON() ([]byte, error) {
	var value any
	switch s.Value.kind {
	case KindList:
		value = s.Value.list
	case KindRange:
		value = s.Value.rng
	default:
		value = s.Value.scalar
	}
	return json.Marshal(struct {
		Operator Operator `json:"operator"`
		Value    any      `json:"value"`
	}{s.Operator, value})
}

// Filters groups extracted filter clauses by strictness. Mandatory clauses
// must hold; optional clauses are softer attribute signals. The split is
// advisory to the planner -- the compiler treats the union.
type Filters struct {
	Mandatory map[string]Spec `json:"mandatory"`
	Optional  map[string]Spec `json:"optional"`
}

// IsEmpty reports whether no clause was extracted.
func (f Filters) IsEmpty() bool {
	return len(f.Mandatory) == 0 && len(f.Optional) == 0
}

// ExtractedQuery is the structured output of the filter extractor.
type ExtractedQuery struct {
	SemanticQuery string  `json:"semantic_query"`
	Filters       Filters `json:"filters"`
	Sort          *Sort   `json:"sort,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// Default is the zero-confidence fallback returned when every extraction
// attempt fails: the raw user query with no filters. It is a valid terminal
// output, not an error.
func Default(userQuery string) ExtractedQuery {
	return ExtractedQuery{
		SemanticQuery: userQuery,
		Filters: Filters{
			Mandatory: map[string]Spec{},
			Optional:  map[string]Spec{},
		},
		Confidence: 0,
	}
}
