package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/hervens/productsearch/internal/domain"
	"github.com/hervens/productsearch/internal/metrics"
)

const providerName = "gemini"

// Task types for embedding generation. Queries and documents embed into the
// same space but with different task hints.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Embedder produces embeddings with one Gemini credential.
type Embedder struct {
	apiKey   string
	model    string
	taskType string
}

// NewEmbedder creates an embedding provider bound to one API key.
func NewEmbedder(apiKey, model, taskType string) *Embedder {
	return &Embedder{apiKey: apiKey, model: model, taskType: taskType}
}

// Embed returns the embedding vector for one text, with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %s: %w", err.Error(), domain.ErrEmbeddingUnavailable)
	}

	start := time.Now()

	resp, err := client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "api_error").Inc()
		return nil, fmt.Errorf("gemini embed content: %s: %w", err.Error(), domain.ErrEmbeddingProviderError)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "empty_response").Inc()
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	return resp.Embeddings[0].Values, nil
}
