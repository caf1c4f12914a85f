package domain

import "errors"

var (
	// ErrEmbeddingUnavailable signals that no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrPreFilterNotIndexed signals that the vector index rejected a filter
	// field because it is not indexed for pre-filtering.
	ErrPreFilterNotIndexed = errors.New("pre-filter field not indexed")
)
