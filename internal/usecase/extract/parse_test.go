package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/hervens/productsearch/internal/domain/query"
)

const validResponse = `{
	"semantic_query": "vase décoration",
	"filters": {
		"mandatory": {
			"categories": {"operator": "term", "value": "Vase"},
			"price.amount": {"operator": "range", "value": {"gte": 5000, "lte": 10000, "approx": true}}
		},
		"optional": {
			"attributes.color": {"operator": "term", "value": "noir"}
		}
	},
	"sort": {"field": "price.amount", "order": "asc"},
	"confidence": 0.95
}`

func TestParseResponseValid(t *testing.T) {
	out, err := parseResponse(validResponse)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}

	if out.SemanticQuery != "vase décoration" {
		t.Errorf("SemanticQuery = %q", out.SemanticQuery)
	}
	if out.Confidence != 0.95 {
		t.Errorf("Confidence = %v", out.Confidence)
	}
	if out.Sort == nil || out.Sort.Field != "price.amount" || out.Sort.Order != query.OrderAsc {
		t.Errorf("Sort = %+v", out.Sort)
	}

	price, ok := out.Filters.Mandatory["price.amount"]
	if !ok {
		t.Fatal("price.amount filter missing")
	}
	r := price.Value.RangeValue()
	if r.GTE == nil || *r.GTE != 5000 || r.LTE == nil || *r.LTE != 10000 {
		t.Errorf("range = %+v", r)
	}
	// unrecognized bound keys never survive decoding
	if r.GT != nil || r.LT != nil {
		t.Errorf("unexpected bounds in %+v", r)
	}

	color := out.Filters.Optional["attributes.color"]
	if color.Value.String() != "noir" {
		t.Errorf("color value = %q", color.Value.String())
	}
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	if _, err := parseResponse(fenced); err != nil {
		t.Errorf("fenced response rejected: %v", err)
	}

	fenced = "```\n" + validResponse + "\n```"
	if _, err := parseResponse(fenced); err != nil {
		t.Errorf("bare-fenced response rejected: %v", err)
	}
}

func TestParseResponseStructuralValidation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", errEmptyResponse},
		{"not json", "here are your filters!", errInvalidDocument},
		{"missing semantic_query", `{"filters":{"mandatory":{},"optional":{}},"confidence":0.9}`, errMissingField},
		{"missing filters", `{"semantic_query":"x","confidence":0.9}`, errMissingField},
		{"missing mandatory", `{"semantic_query":"x","filters":{"optional":{}},"confidence":0.9}`, errMissingField},
		{"missing optional", `{"semantic_query":"x","filters":{"mandatory":{}},"confidence":0.9}`, errMissingField},
		{"missing confidence", `{"semantic_query":"x","filters":{"mandatory":{},"optional":{}}}`, errMissingField},
		{"confidence as string", `{"semantic_query":"x","filters":{"mandatory":{},"optional":{}},"confidence":"high"}`, errInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("parseResponse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseResponseSortOptional(t *testing.T) {
	out, err := parseResponse(`{"semantic_query":"x","filters":{"mandatory":{},"optional":{}},"confidence":0.8}`)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if out.Sort != nil {
		t.Errorf("Sort = %+v, want nil", out.Sort)
	}
}

func TestBuildPromptEmbedsQuery(t *testing.T) {
	p := buildPrompt("vase noir en céramique")
	if want := `USER QUERY: "vase noir en céramique"`; !strings.Contains(p, want) {
		t.Errorf("prompt missing %q", want)
	}
	if !strings.Contains(p, "AVAILABLE CATEGORIES") || !strings.Contains(p, "Vase") {
		t.Error("prompt missing category vocabulary")
	}
}
