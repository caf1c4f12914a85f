package query

import "strings"

// genericTerms are placeholder words the extractor emits when the user query
// carries no real semantic content ("le produit le plus cher" -> "produit").
// The set is language-specific and heuristic: French first (the catalogue
// language), English equivalents second. Tune here, not in the planner.
var genericTerms = map[string]struct{}{
	"produit":  {},
	"produits": {},
	"article":  {},
	"articles": {},
	"objet":    {},
	"objets":   {},
	"tout":     {},
	"tous":     {},
	"product":  {},
	"products": {},
	"item":     {},
	"items":    {},
	"thing":    {},
	"things":   {},
	"all":      {},
}

// IsGeneric reports whether a semantic query is empty or a bare placeholder
// term. Such queries carry no signal worth embedding; with filters or a sort
// present the planner runs a plain structured scan instead.
func IsGeneric(semanticQuery string) bool {
	s := strings.ToLower(strings.TrimSpace(semanticQuery))
	if s == "" {
		return true
	}
	_, ok := genericTerms[s]
	return ok
}
