package query

import (
	"encoding/json"
	"testing"
)

func TestSpecUnmarshalScalar(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`{"operator":"term","value":"Vase"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Operator != OperatorTerm || s.Value.Kind() != KindScalar {
		t.Errorf("spec = %+v", s)
	}
	if s.Value.String() != "Vase" {
		t.Errorf("value = %q", s.Value.String())
	}
}

func TestSpecUnmarshalNumericScalar(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`{"operator":"term","value":12500}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Value.Kind() != KindScalar {
		t.Errorf("kind = %v, want scalar", s.Value.Kind())
	}
	if got := s.Value.ScalarValue().(float64); got != 12500 {
		t.Errorf("value = %v", got)
	}
}

func TestSpecUnmarshalList(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`{"operator":"term","value":["Vase","Lampe"]}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Value.Kind() != KindList || len(s.Value.ListValue()) != 2 {
		t.Errorf("value = %+v", s.Value)
	}
}

func TestSpecUnmarshalRangeProjectsKnownBounds(t *testing.T) {
	var s Spec
	raw := `{"operator":"range","value":{"gte":5000,"lte":10000,"around":7500}}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r := s.Value.RangeValue()
	if r.GTE == nil || *r.GTE != 5000 || r.LTE == nil || *r.LTE != 10000 {
		t.Errorf("range = %+v", r)
	}
	if r.GT != nil || r.LT != nil {
		t.Errorf("unexpected bounds: %+v", r)
	}
}

func TestSpecUnmarshalUnknownOperatorKept(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`{"operator":"fuzzy","value":"x"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Operator != Operator("fuzzy") {
		t.Errorf("operator = %q", s.Operator)
	}
}

func TestSpecMarshalRoundTrip(t *testing.T) {
	var s Spec
	raw := `{"operator":"range","value":{"gte":100}}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Spec
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal %s: %v", out, err)
	}
	r := again.Value.RangeValue()
	if r.GTE == nil || *r.GTE != 100 {
		t.Errorf("round trip lost the bound: %+v", r)
	}
}

func TestIsGeneric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"produit", true},
		{"Produits", true},
		{"  tout ", true},
		{"articles", true},
		{"", true},
		{"vase noir", false},
		{"produit orca deco", false},
	}
	for _, tt := range tests {
		if got := IsGeneric(tt.in); got != tt.want {
			t.Errorf("IsGeneric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultIsExecutableShape(t *testing.T) {
	eq := Default("vase noir")
	if eq.SemanticQuery != "vase noir" || eq.Confidence != 0 {
		t.Errorf("Default = %+v", eq)
	}
	if eq.Filters.Mandatory == nil || eq.Filters.Optional == nil {
		t.Error("Default filters must be non-nil empty maps")
	}
	if !eq.Filters.IsEmpty() {
		t.Error("Default filters must be empty")
	}
	if eq.Confidence >= MinExecutableConfidence {
		t.Error("Default must sit below the executable confidence floor")
	}
}
