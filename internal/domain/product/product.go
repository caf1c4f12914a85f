// Package product holds the catalogue document model shared by the search
// pipeline and the offline import/embedding jobs.
package product

import (
	"fmt"
	"strings"
)

// ExactMatchScore is the sentinel relevance attached to structured-scan
// results, where relevance is definitional rather than similarity-based.
const ExactMatchScore = 1.0

// Attribute is one key/value pair of the attribute pattern: open-ended
// product characteristics stored as an array of records instead of columns.
type Attribute struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// Price is the product price information.
type Price struct {
	Amount   float64 `json:"amount" bson:"amount"`
	Currency string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

// Stock is the product availability information.
type Stock struct {
	Status   string `json:"status,omitempty" bson:"status,omitempty"`
	Quantity int    `json:"quantity,omitempty" bson:"quantity,omitempty"`
}

// Product is a catalogue document as returned to API callers. Internal-only
// fields (raw store id, embedding vector) never appear here; the store
// adapter strips them and stringifies identifiers.
type Product struct {
	DocID       string         `json:"_id,omitempty"`
	ID          string         `json:"id,omitempty"`
	Type        string         `json:"type,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Brand       string         `json:"brand,omitempty"`
	Categories  []string       `json:"categories,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Price       *Price         `json:"price,omitempty"`
	Stock       *Stock         `json:"stock,omitempty"`
	Image       string         `json:"image,omitempty"`
	Images      []string       `json:"images,omitempty"`
	Attributes  []Attribute    `json:"attributes,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`

	// Score is the cosine similarity from vector search, or ExactMatchScore
	// for structured-scan results.
	Score float64 `json:"similarity_score"`
}

// EmbeddingText builds the text embedded for a product: name, description,
// price, categories, keywords, attributes and brand joined into one passage.
func EmbeddingText(p *Product) string {
	parts := make([]string, 0, 8)
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	if p.Price != nil && p.Price.Amount > 0 {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%.0f %s", p.Price.Amount, p.Price.Currency)))
	}
	if len(p.Categories) > 0 {
		parts = append(parts, "Catégories: "+strings.Join(p.Categories, ", "))
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, "Mots-clés: "+strings.Join(p.Keywords, ", "))
	}
	for _, a := range p.Attributes {
		parts = append(parts, a.Key+": "+a.Value)
	}
	if p.Brand != "" {
		parts = append(parts, "Marque: "+p.Brand)
	}
	return strings.Join(parts, ". ")
}
