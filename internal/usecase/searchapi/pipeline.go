// Package searchapi composes query extraction and retrieval into the single
// pipeline both HTTP endpoints run.
package searchapi

import (
	"context"

	"github.com/hervens/productsearch/internal/domain/product"
	"github.com/hervens/productsearch/internal/domain/query"
)

// Extractor turns a natural language query into a structured one.
type Extractor interface {
	Extract(ctx context.Context, userQuery string) query.ExtractedQuery
}

// Searcher executes an extracted query against the catalogue.
type Searcher interface {
	Search(ctx context.Context, eq query.ExtractedQuery, limit int) ([]product.Product, error)
	SearchStructured(ctx context.Context, eq query.ExtractedQuery, limit int) ([]product.Product, error)
}

// Result carries everything a response envelope needs.
type Result struct {
	Extracted query.ExtractedQuery
	Products  []product.Product
}

// Pipeline runs extraction followed by retrieval.
type Pipeline struct {
	extractor Extractor
	searcher  Searcher
}

// NewPipeline creates the composed search pipeline.
func NewPipeline(extractor Extractor, searcher Searcher) *Pipeline {
	return &Pipeline{extractor: extractor, searcher: searcher}
}

// Run extracts the structured query and executes it. useVector selects the
// hybrid vector path; otherwise retrieval is a structured scan only. The
// extraction is returned even when retrieval fails, so callers can still
// report what was understood.
func (p *Pipeline) Run(ctx context.Context, userQuery string, useVector bool, limit int) (Result, error) {
	extracted := p.extractor.Extract(ctx, userQuery)

	var (
		results []product.Product
		err     error
	)
	if useVector {
		results, err = p.searcher.Search(ctx, extracted, limit)
	} else {
		results, err = p.searcher.SearchStructured(ctx, extracted, limit)
	}

	return Result{Extracted: extracted, Products: results}, err
}
