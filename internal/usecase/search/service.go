// Package search plans and executes product retrieval from an extracted
// structured query: a structured scan for generic queries, a hybrid vector
// search otherwise.
package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/domain"
	"github.com/hervens/productsearch/internal/domain/product"
	"github.com/hervens/productsearch/internal/domain/query"
)

// Over-fetch multipliers for the vector stage. An explicit sort reorders by
// a field unrelated to similarity, so it needs a deeper candidate pool to
// sort exactly.
const (
	overfetchDefault = 4
	overfetchSorted  = 10

	// retryFetchFactor sets the vector-stage depth for the one retry issued
	// after the index rejects a pre-filter field: the whole filter shifts to
	// an exact post-match, so the stage fetches a fixed multiple of the
	// requested limit instead of the usual overfetch.
	retryFetchFactor = 3
)

// fallbackSemanticQuery replaces an empty semantic query so the vector stage
// always has something to embed.
const fallbackSemanticQuery = "produit"

// Config holds planner tuning.
type Config struct {
	// MinScore is the relevance floor applied when no explicit sort is
	// requested.
	MinScore float64
}

// Service is the retrieval planner.
type Service struct {
	repo     Repository
	embedder Embedder
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a search service. embedder may be nil when no embedding
// provider is configured; vector searches then degrade to empty results.
func NewService(repo Repository, embedder Embedder, cfg Config, logger *zap.Logger) *Service {
	return &Service{repo: repo, embedder: embedder, cfg: cfg, logger: logger}
}

// Search executes an extracted query. Empty results are a normal outcome
// for low-confidence extractions and unavailable embedding providers;
// an error is returned only when the store itself fails.
func (s *Service) Search(ctx context.Context, eq query.ExtractedQuery, limit int) ([]product.Product, error) {
	if eq.Confidence < query.MinExecutableConfidence {
		s.logger.Info("extraction confidence below executable floor, skipping search",
			zap.Float64("confidence", eq.Confidence))
		return nil, nil
	}

	semantic := eq.SemanticQuery
	if semantic == "" {
		semantic = fallbackSemanticQuery
	}

	// A generic query carries no semantic signal; when filters or an
	// explicit sort exist they define the result set exactly.
	if query.IsGeneric(semantic) && (!eq.Filters.IsEmpty() || eq.Sort != nil) {
		return s.structuredScan(ctx, eq.Filters, eq.Sort, limit)
	}

	return s.vectorSearch(ctx, semantic, eq, limit)
}

// SearchStructured bypasses the vector stage entirely, for callers that
// request exact filtering only.
func (s *Service) SearchStructured(ctx context.Context, eq query.ExtractedQuery, limit int) ([]product.Product, error) {
	if eq.Confidence < query.MinExecutableConfidence {
		return nil, nil
	}
	return s.structuredScan(ctx, eq.Filters, eq.Sort, limit)
}

func (s *Service) structuredScan(ctx context.Context, filters query.Filters, sort *query.Sort, limit int) ([]product.Product, error) {
	results, err := s.repo.Scan(ctx, filters, sort, limit)
	if err != nil {
		return nil, fmt.Errorf("structured scan: %w", err)
	}
	// Relevance is definitional here, not similarity-based.
	for i := range results {
		results[i].Score = product.ExactMatchScore
	}
	return results, nil
}

func (s *Service) vectorSearch(ctx context.Context, semantic string, eq query.ExtractedQuery, limit int) ([]product.Product, error) {
	if s.embedder == nil {
		s.logger.Warn("no embedding provider configured, returning empty results")
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, semantic)
	if err != nil {
		// Embedding failures degrade to empty results rather than a 5xx;
		// the caller still gets the extracted filters back.
		s.logger.Warn("query embedding failed, returning empty results",
			zap.Error(err))
		return nil, nil
	}

	plan := s.buildPlan(vector, eq, limit)

	results, err := s.repo.VectorSearch(ctx, plan)
	if errors.Is(err, domain.ErrPreFilterNotIndexed) {
		s.logger.Warn("pre-filter rejected by vector index, retrying without it",
			zap.Error(err))
		retry := plan
		retry.SkipPreFilter = true
		retry.Fetch = limit * retryFetchFactor
		retry.Candidates = retry.Fetch * 2
		results, err = s.repo.VectorSearch(ctx, retry)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// buildPlan derives the fetch depths and relevance floor for one round trip.
func (s *Service) buildPlan(vector []float32, eq query.ExtractedQuery, limit int) query.Plan {
	overfetch := overfetchDefault
	if eq.Sort != nil {
		overfetch = overfetchSorted
	}
	fetch := limit * overfetch

	plan := query.Plan{
		Vector:     vector,
		Filters:    eq.Filters,
		Sort:       eq.Sort,
		Limit:      limit,
		Fetch:      fetch,
		Candidates: fetch * 2,
	}
	// With an explicit sort the user asked for ordering, not similarity;
	// a floor would silently drop the very rows they sorted for.
	if eq.Sort == nil {
		plan.ScoreFloor = s.cfg.MinScore
	}
	return plan
}
