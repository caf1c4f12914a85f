// Command create-index creates or replaces the vector search index on the
// product collection and waits until it is queryable.
package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/config"
	logpkg "github.com/hervens/productsearch/internal/logger"
)

const pollInterval = 5 * time.Second

func main() {
	recreate := flag.Bool("recreate", false, "drop an existing index first")
	wait := flag.Duration("wait", 5*time.Minute, "how long to wait for the index to become queryable")
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

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
	indexes := coll.SearchIndexes()
	name := cfg.Database.VectorIndex

	if *recreate {
		if err := indexes.DropOne(ctx, name); err != nil {
			logger.Info("No existing index to drop", zap.String("index", name), zap.Error(err))
		} else {
			logger.Info("Dropped existing index", zap.String("index", name))
			time.Sleep(3 * time.Second)
		}
	}

	definition := indexDefinition(cfg.Database.EmbeddingField, cfg.Embedding.Dimensions)

	model := mongo.SearchIndexModel{
		Definition: definition,
		Options: options.SearchIndexes().
			SetName(name).
			SetType("vectorSearch"),
	}

	created, err := indexes.CreateOne(ctx, model)
	if err != nil {
		if strings.Contains(err.Error(), "already defined") {
			logger.Info("Index already exists, updating definition", zap.String("index", name))
			if err := indexes.UpdateOne(ctx, name, definition); err != nil {
				logger.Fatal("Failed to update index", zap.Error(err))
			}
			created = name
		} else {
			logger.Fatal("Failed to create index", zap.Error(err))
		}
	}
	logger.Info("Index submitted", zap.String("index", created))

	if err := waitQueryable(ctx, indexes, created, *wait, logger); err != nil {
		logger.Fatal("Index did not become queryable", zap.Error(err))
	}
	logger.Info("Index is queryable", zap.String("index", created))
}

// indexDefinition builds the vector index with every filterable path,
// including the attribute pair fields so any attribute key can participate
// in exact matching without its own index entry.
func indexDefinition(embeddingField string, dimensions int) bson.D {
	fields := bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: embeddingField},
			{Key: "numDimensions", Value: dimensions},
			{Key: "similarity", Value: "cosine"},
		},
	}
	for _, path := range []string{
		"price.amount",
		"categories",
		"stock.status",
		"tags",
		"keywords",
		"brand",
		"type",
		"attributes.key",
		"attributes.value",
	} {
		fields = append(fields, bson.D{
			{Key: "type", Value: "filter"},
			{Key: "path", Value: path},
		})
	}
	return bson.D{{Key: "fields", Value: fields}}
}

// waitQueryable polls the index status until it is queryable or the timeout
// expires.
func waitQueryable(
	ctx context.Context,
	indexes mongo.SearchIndexView,
	name string,
	timeout time.Duration,
	logger *zap.Logger,
) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		cursor, err := indexes.List(ctx, options.SearchIndexes().SetName(name))
		if err != nil {
			return err
		}

		var docs []struct {
			Status    string `bson:"status"`
			Queryable bool   `bson:"queryable"`
		}
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}

		if len(docs) > 0 {
			if docs[0].Queryable {
				return nil
			}
			logger.Info("Waiting for index", zap.String("status", docs[0].Status))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
