// Command embed-backfill generates embeddings for catalogue products that do
// not have one yet. Safe to re-run: already-embedded products are skipped.
package main

import (
	"context"
	"flag"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hervens/productsearch/internal/config"
	"github.com/hervens/productsearch/internal/domain/product"
	logpkg "github.com/hervens/productsearch/internal/logger"
	productrepo "github.com/hervens/productsearch/internal/repository/product"
	geminiTransport "github.com/hervens/productsearch/internal/transport/gemini"
)

func main() {
	batchSize := flag.Int("batch", 50, "documents fetched per round")
	rps := flag.Float64("rps", 2, "embedding requests per second")
	maxDocs := flag.Int("max", 0, "stop after this many documents (0 = all)")
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.LLM.GeminiAPIKeys) == 0 {
		logger.Fatal("llm.gemini_api_keys is required for embedding generation")
	}

	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.URI))
	if err != nil {
		logger.Fatal("Failed to create MongoDB client", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Fatal("MongoDB not ready", zap.Error(err))
	}

	coll := client.Database(cfg.Database.Database).Collection(cfg.Database.Collection)
	repo := productrepo.NewRepo(coll, cfg.Database.VectorIndex, cfg.Database.EmbeddingField, logger)
	embedder := geminiTransport.NewEmbedder(
		cfg.LLM.GeminiAPIKeys[0],
		cfg.Embedding.Model,
		geminiTransport.TaskRetrievalDocument,
	)

	limiter := rate.NewLimiter(rate.Limit(*rps), 1)

	logger.Info("Starting embedding backfill",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("batch", *batchSize),
		zap.Float64("rps", *rps),
	)

	start := time.Now()
	processed, failed := 0, 0

	for {
		batch, err := repo.MissingEmbedding(ctx, *batchSize)
		if err != nil {
			logger.Fatal("Failed to fetch pending products", zap.Error(err))
		}
		if len(batch) == 0 {
			break
		}

		processedRound := 0
		for i := range batch {
			p := &batch[i]
			if *maxDocs > 0 && processed >= *maxDocs {
				logger.Info("Reached document cap", zap.Int("max", *maxDocs))
				report(logger, processed, failed, start)
				return
			}

			if err := limiter.Wait(ctx); err != nil {
				logger.Fatal("Rate limiter interrupted", zap.Error(err))
			}

			text := product.EmbeddingText(p)
			vector, err := embedder.Embed(ctx, text)
			if err != nil {
				logger.Warn("Embedding failed, skipping product",
					zap.String("id", p.ID),
					zap.Error(err))
				failed++
				continue
			}

			if err := repo.SetEmbedding(ctx, p.ID, vector, text); err != nil {
				logger.Warn("Failed to store embedding",
					zap.String("id", p.ID),
					zap.Error(err))
				failed++
				continue
			}
			processed++
			processedRound++
		}

		// Failed products stay without an embedding; a round with zero
		// progress would re-fetch the same documents forever.
		if processedRound == 0 {
			logger.Error("No progress in the last round, aborting")
			break
		}
	}

	report(logger, processed, failed, start)
}

func report(logger *zap.Logger, processed, failed int, start time.Time) {
	logger.Info("Embedding backfill finished",
		zap.Int("processed", processed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
}
