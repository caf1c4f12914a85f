// Package extract turns a natural language product query into a structured
// query via an LLM, with provider rotation and a cross-provider fallback.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/domain/query"
	"github.com/hervens/productsearch/internal/metrics"
)

// Service runs filter extraction across a primary provider pool and an
// optional fallback. Extraction never fails: when every attempt is
// exhausted the raw user query comes back with zero confidence.
type Service struct {
	primaries []Provider
	fallback  *Provider

	attemptTimeout time.Duration
	keyBackoff     time.Duration
	logger         *zap.Logger
}

// Option configures the extraction service.
type Option func(*Service)

// WithFallback sets the provider tried after every primary is exhausted.
func WithFallback(p Provider) Option {
	return func(s *Service) { s.fallback = &p }
}

// WithAttemptTimeout bounds each single provider call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) { s.attemptTimeout = d }
}

// WithKeyBackoff sets the pause between consecutive primary attempts.
func WithKeyBackoff(d time.Duration) Option {
	return func(s *Service) { s.keyBackoff = d }
}

// NewService creates an extraction service over the given primary providers.
func NewService(primaries []Provider, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		primaries:      primaries,
		attemptTimeout: 20 * time.Second,
		keyBackoff:     5 * time.Second,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs the extraction chain for one user query. The first provider
// returning a structurally valid document wins; later providers are never
// consulted. On full exhaustion (or context cancellation) the zero-confidence
// default is returned. Extract never returns an error.
func (s *Service) Extract(ctx context.Context, userQuery string) query.ExtractedQuery {
	prompt := buildPrompt(userQuery)

	for i, p := range s.primaries {
		if ctx.Err() != nil {
			return query.Default(userQuery)
		}

		if out, ok := s.attempt(ctx, p, prompt); ok {
			return out
		}

		// Pause before rotating to the next credential; rate limits on
		// one key tend to clear within a few seconds.
		if i < len(s.primaries)-1 && !s.sleep(ctx, s.keyBackoff) {
			return query.Default(userQuery)
		}
	}

	if s.fallback != nil && ctx.Err() == nil {
		s.logger.Warn("all primary extraction providers failed, using fallback",
			zap.String("fallback", s.fallback.Name))
		if out, ok := s.attempt(ctx, *s.fallback, prompt); ok {
			return out
		}
	}

	s.logger.Warn("filter extraction exhausted all providers",
		zap.String("query", userQuery))
	return query.Default(userQuery)
}

// attempt runs one provider call with its own timeout and records metrics.
func (s *Service) attempt(ctx context.Context, p Provider, prompt string) (query.ExtractedQuery, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	start := time.Now()
	response, err := p.Completer.Complete(attemptCtx, prompt)
	metrics.ExtractionDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ExtractionAttemptsTotal.WithLabelValues(p.Name, "error").Inc()
		s.logger.Warn("extraction provider call failed",
			zap.String("provider", p.Name),
			zap.Error(err))
		return query.ExtractedQuery{}, false
	}

	out, err := parseResponse(response)
	if err != nil {
		metrics.ExtractionAttemptsTotal.WithLabelValues(p.Name, "invalid").Inc()
		s.logger.Warn("extraction response rejected",
			zap.String("provider", p.Name),
			zap.Error(err))
		return query.ExtractedQuery{}, false
	}

	metrics.ExtractionAttemptsTotal.WithLabelValues(p.Name, "ok").Inc()
	s.logger.Debug("extraction succeeded",
		zap.String("provider", p.Name),
		zap.Float64("confidence", out.Confidence))
	return out, true
}

// sleep waits for d unless the context ends first.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
