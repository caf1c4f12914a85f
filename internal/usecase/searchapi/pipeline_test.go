package searchapi

import (
	"context"
	"errors"
	"testing"

	"github.com/hervens/productsearch/internal/domain/product"
	"github.com/hervens/productsearch/internal/domain/query"
)

type mockExtractor struct {
	extracted query.ExtractedQuery
	called    int
}

func (m *mockExtractor) Extract(_ context.Context, _ string) query.ExtractedQuery {
	m.called++
	return m.extracted
}

type mockSearcher struct {
	results         []product.Product
	err             error
	searchCalls     int
	structuredCalls int
	lastLimit       int
	lastExtracted   query.ExtractedQuery
}

func (m *mockSearcher) Search(_ context.Context, eq query.ExtractedQuery, limit int) ([]product.Product, error) {
	m.searchCalls++
	m.lastLimit = limit
	m.lastExtracted = eq
	return m.results, m.err
}

func (m *mockSearcher) SearchStructured(_ context.Context, eq query.ExtractedQuery, limit int) ([]product.Product, error) {
	m.structuredCalls++
	m.lastLimit = limit
	m.lastExtracted = eq
	return m.results, m.err
}

func TestRunVectorPath(t *testing.T) {
	ext := &mockExtractor{extracted: query.ExtractedQuery{SemanticQuery: "vase noir", Confidence: 0.9}}
	sr := &mockSearcher{results: []product.Product{{ID: "p-1"}}}
	p := NewPipeline(ext, sr)

	res, err := p.Run(context.Background(), "vase noir", true, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sr.searchCalls != 1 || sr.structuredCalls != 0 {
		t.Errorf("calls vector/structured = %d/%d, want 1/0", sr.searchCalls, sr.structuredCalls)
	}
	if sr.lastLimit != 10 {
		t.Errorf("limit = %d, want 10", sr.lastLimit)
	}
	if res.Extracted.SemanticQuery != "vase noir" {
		t.Errorf("extracted query = %q", res.Extracted.SemanticQuery)
	}
	if len(res.Products) != 1 {
		t.Errorf("products = %v, want one", res.Products)
	}
}

func TestRunStructuredPath(t *testing.T) {
	ext := &mockExtractor{extracted: query.ExtractedQuery{Confidence: 0.9}}
	sr := &mockSearcher{}
	p := NewPipeline(ext, sr)

	if _, err := p.Run(context.Background(), "produits orca deco", false, 5); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sr.searchCalls != 0 || sr.structuredCalls != 1 {
		t.Errorf("calls vector/structured = %d/%d, want 0/1", sr.searchCalls, sr.structuredCalls)
	}
}

func TestRunReturnsExtractionOnSearchError(t *testing.T) {
	ext := &mockExtractor{extracted: query.ExtractedQuery{SemanticQuery: "vase", Confidence: 0.9}}
	sr := &mockSearcher{err: errors.New("store down")}
	p := NewPipeline(ext, sr)

	res, err := p.Run(context.Background(), "vase", true, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Extracted.SemanticQuery != "vase" {
		t.Errorf("extraction lost on error: %+v", res.Extracted)
	}
}
