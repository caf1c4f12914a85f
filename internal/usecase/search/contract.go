package search

import (
	"context"

	"github.com/hervens/productsearch/internal/domain/product"
	"github.com/hervens/productsearch/internal/domain/query"
)

// Repository is the catalogue store the planner executes against.
type Repository interface {
	// VectorSearch runs one hybrid retrieval round trip described by plan.
	VectorSearch(ctx context.Context, plan query.Plan) ([]product.Product, error)
	// Scan runs a structured query with no vector stage.
	Scan(ctx context.Context, filters query.Filters, sort *query.Sort, limit int) ([]product.Product, error)
}

// Embedder produces a query embedding for semantic retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Extractor turns a natural language query into a structured one.
type Extractor interface {
	Extract(ctx context.Context, userQuery string) query.ExtractedQuery
}
