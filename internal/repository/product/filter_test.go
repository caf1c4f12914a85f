package product

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hervens/productsearch/internal/domain/query"
)

func floatPtr(f float64) *float64 { return &f }

func mandatory(field string, spec query.Spec) query.Filters {
	return query.Filters{
		Mandatory: map[string]query.Spec{field: spec},
		Optional:  map[string]query.Spec{},
	}
}

func TestCompileFilterEmpty(t *testing.T) {
	got := compileFilter(query.Filters{}, modePost)
	if len(got) != 0 {
		t.Errorf("empty filters compiled to %v, want empty document", got)
	}
}

func TestCompileFilterCategoryScalarUsesIn(t *testing.T) {
	f := mandatory("categories", query.Spec{
		Operator: query.OperatorTerm,
		Value:    query.Scalar("Meubles"),
	})

	got := compileFilter(f, modePost)
	want := bson.M{"categories": bson.M{"$in": []any{"Meubles"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compileFilter = %v, want %v", got, want)
	}
}

func TestCompileFilterCategoryListUsesIn(t *testing.T) {
	f := mandatory("categories", query.Spec{
		Operator: query.OperatorTerm,
		Value:    query.List("Meubles", "Décoration"),
	})

	got := compileFilter(f, modePost)
	want := bson.M{"categories": bson.M{"$in": []any{"Meubles", "Décoration"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compileFilter = %v, want %v", got, want)
	}
}

func TestCompileFilterCategoryScalarEqualsSingleList(t *testing.T) {
	scalar := compileFilter(mandatory("categories", query.Spec{
		Operator: query.OperatorTerm,
		Value:    query.Scalar("Meubles"),
	}), modePost)
	list := compileFilter(mandatory("categories", query.Spec{
		Operator: query.OperatorTerm,
		Value:    query.List("Meubles"),
	}), modePost)

	if !reflect.DeepEqual(scalar, list) {
		t.Errorf("scalar compiled to %v, single-element list to %v", scalar, list)
	}
}

func TestCompileFilterScalarTermUsesExplicitEq(t *testing.T) {
	f := mandatory("brand", query.Spec{
		Operator: query.OperatorTerm,
		Value:    query.Scalar("Ikea"),
	})

	// The vector stage's filter grammar rejects bare equality documents.
	got := compileFilter(f, modePre)
	want := bson.M{"brand": bson.M{"$eq": "Ikea"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compileFilter = %v, want %v", got, want)
	}
}

func TestCompileFilterRangeDropsUnknownBounds(t *testing.T) {
	f := mandatory("price.amount", query.Spec{
		Operator: query.OperatorRange,
		Value:    query.NewRange(query.Range{LTE: floatPtr(5000), GT: floatPtr(100)}),
	})

	got := compileFilter(f, modePost)
	want := bson.M{"price.amount": bson.M{"$gt": 100.0, "$lte": 5000.0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compileFilter = %v, want %v", got, want)
	}
}

func TestCompileFilterEmptyRangeDropped(t *testing.T) {
	f := mandatory("price.amount", query.Spec{
		Operator: query.OperatorRange,
		Value:    query.NewRange(query.Range{}),
	})

	got := compileFilter(f, modePost)
	if len(got) != 0 {
		t.Errorf("empty range compiled to %v, want empty document", got)
	}
}

func TestCompileFilterAttributeElemMatch(t *testing.T) {
	f := mandatory("attributes.couleur", query.Spec{
		Operator: query.OperatorTerm,
		Value:    query.Scalar("noir"),
	})

	got := compileFilter(f, modePost)
	attrs, ok := got["attributes"].(bson.M)
	if !ok {
		t.Fatalf("compileFilter = %v, want attributes clause", got)
	}
	em, ok := attrs["$elemMatch"].(bson.M)
	if !ok {
		t.Fatalf("attributes clause = %v, want $elemMatch", attrs)
	}
	if em["key"] != "couleur" {
		t.Errorf("elemMatch key = %v, want couleur", em["key"])
	}
	re := em["value"].(bson.M)["$regex"].(primitive.Regex)
	if re.Options != "i" {
		t.Errorf("regex options = %q, want i", re.Options)
	}
	want := "^[nñ][oôöõó][iîïí]r$"
	if re.Pattern != want {
		t.Errorf("regex pattern = %q, want %q", re.Pattern, want)
	}
}

func TestCompileFilterPreModeDropsAttributes(t *testing.T) {
	f := query.Filters{
		Mandatory: map[string]query.Spec{
			"brand":               {Operator: query.OperatorTerm, Value: query.Scalar("Ikea")},
			"attributes.couleur":  {Operator: query.OperatorTerm, Value: query.Scalar("noir")},
			"price.amount":        {Operator: query.OperatorRange, Value: query.NewRange(query.Range{LTE: floatPtr(100)})},
			"stock.status":        {Operator: query.OperatorTerm, Value: query.Scalar("in_stock")},
			"some.unindexed.path": {Operator: query.OperatorTerm, Value: query.Scalar("x")},
		},
		Optional: map[string]query.Spec{},
	}

	got := compileFilter(f, modePre)
	want := bson.M{"$and": []bson.M{
		{"brand": bson.M{"$eq": "Ikea"}},
		{"stock.status": bson.M{"$eq": "in_stock"}},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compileFilter(pre) = %v, want %v", got, want)
	}
}

func TestCompileFilterOptionalOverwritesMandatory(t *testing.T) {
	f := query.Filters{
		Mandatory: map[string]query.Spec{
			"brand": {Operator: query.OperatorTerm, Value: query.Scalar("Ikea")},
		},
		Optional: map[string]query.Spec{
			"brand": {Operator: query.OperatorTerm, Value: query.Scalar("Habitat")},
		},
	}

	got := compileFilter(f, modePost)
	want := bson.M{"brand": bson.M{"$eq": "Habitat"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compileFilter = %v, want %v", got, want)
	}
}

func TestCompileFilterUnknownOperatorDropped(t *testing.T) {
	f := mandatory("brand", query.Spec{
		Operator: query.Operator("fuzzy"),
		Value:    query.Scalar("Ikea"),
	})

	got := compileFilter(f, modePost)
	if len(got) != 0 {
		t.Errorf("unknown operator compiled to %v, want empty document", got)
	}
}

func TestAccentInsensitivePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"noir", "^[nñ][oôöõó][iîïí]r$"},
		{"Décoration", "^d[eéèêë][cç][oôöõó]r[aàâäã]t[iîïí][oôöõó][nñ]$"},
		{"table basse", `^t[aàâäã]bl[eéèêë]\s+b[aàâäã]ss[eéèêë]$`},
		{"2.5m", `^2\.5m$`},
	}

	for _, tt := range tests {
		got := "^" + accentInsensitivePattern(tt.in) + "$"
		if got != tt.want {
			t.Errorf("accentInsensitivePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripAccents(t *testing.T) {
	if got := stripAccents("àéîõü"); got != "aeiou" {
		t.Errorf("stripAccents = %q, want aeiou", got)
	}
}
