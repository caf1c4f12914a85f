package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hervens/productsearch/internal/domain/query"
)

// Structural validation failures. They all mean "try the next provider".
var (
	errEmptyResponse   = errors.New("empty response")
	errMissingField    = errors.New("missing or mistyped field")
	errInvalidDocument = errors.New("invalid json")
)

// stripCodeFence removes a markdown code fence wrapper the model sometimes
// adds despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// rawEnvelope mirrors the expected model output. Pointer fields distinguish
// absent from zero so the structural check can reject incomplete documents.
type rawEnvelope struct {
	SemanticQuery *string `json:"semantic_query"`
	Filters       *struct {
		Mandatory map[string]query.Spec `json:"mandatory"`
		Optional  map[string]query.Spec `json:"optional"`
	} `json:"filters"`
	Sort       *query.Sort `json:"sort"`
	Confidence *float64    `json:"confidence"`
}

// parseResponse decodes and structurally validates one model response. The
// required shape is semantic_query (string), filters.mandatory and
// filters.optional (objects) and confidence (number); sort is optional.
func parseResponse(response string) (query.ExtractedQuery, error) {
	cleaned := stripCodeFence(response)
	if cleaned == "" {
		return query.ExtractedQuery{}, errEmptyResponse
	}

	var raw rawEnvelope
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return query.ExtractedQuery{}, fmt.Errorf("%w: %s", errInvalidDocument, err.Error())
	}

	switch {
	case raw.SemanticQuery == nil:
		return query.ExtractedQuery{}, fmt.Errorf("%w: semantic_query", errMissingField)
	case raw.Filters == nil:
		return query.ExtractedQuery{}, fmt.Errorf("%w: filters", errMissingField)
	case raw.Filters.Mandatory == nil:
		return query.ExtractedQuery{}, fmt.Errorf("%w: filters.mandatory", errMissingField)
	case raw.Filters.Optional == nil:
		return query.ExtractedQuery{}, fmt.Errorf("%w: filters.optional", errMissingField)
	case raw.Confidence == nil:
		return query.ExtractedQuery{}, fmt.Errorf("%w: confidence", errMissingField)
	}

	var sort *query.Sort
	if raw.Sort != nil && raw.Sort.Field != "" {
		s := *raw.Sort
		if s.Order != query.OrderDesc {
			s.Order = query.OrderAsc
		}
		sort = &s
	}

	return query.ExtractedQuery{
		SemanticQuery: *raw.SemanticQuery,
		Filters: query.Filters{
			Mandatory: raw.Filters.Mandatory,
			Optional:  raw.Filters.Optional,
		},
		Sort:       sort,
		Confidence: *raw.Confidence,
	}, nil
}
