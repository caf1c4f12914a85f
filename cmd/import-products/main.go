// Command import-products loads a catalogue JSON file into the product
// collection. Attribute objects in the legacy flat shape are normalized into
// key/value pairs on the way in.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/config"
	"github.com/hervens/productsearch/internal/domain/product"
	logpkg "github.com/hervens/productsearch/internal/logger"
	productrepo "github.com/hervens/productsearch/internal/repository/product"
)

const upsertBatchSize = 1000

func main() {
	file := flag.String("file", "data.json", "catalogue JSON file to import")
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	products, err := loadProducts(*file)
	if err != nil {
		logger.Fatal("Failed to load catalogue file", zap.String("file", *file), zap.Error(err))
	}
	logger.Info("Catalogue file loaded",
		zap.String("file", *file),
		zap.Int("products", len(products)),
	)

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

	total := 0
	for start := 0; start < len(products); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(products) {
			end = len(products)
		}
		n, err := repo.BulkUpsert(ctx, products[start:end])
		if err != nil {
			logger.Fatal("Bulk upsert failed", zap.Int("offset", start), zap.Error(err))
		}
		total += n
	}

	logger.Info("Import finished", zap.Int("written", total))
}

// rawProduct is the import-file shape of a product: attributes may be the
// canonical pair array or a legacy flat object with scalar or list values.
type rawProduct struct {
	product.Product
	Attributes json.RawMessage `json:"attributes"`
}

// loadProducts reads either a bare JSON array or a {"products": [...]} wrapper.
func loadProducts(path string) ([]product.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raws []rawProduct
	if err := json.Unmarshal(data, &raws); err != nil {
		var wrapper struct {
			Products []rawProduct `json:"products"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		raws = wrapper.Products
	}

	out := make([]product.Product, 0, len(raws))
	for i := range raws {
		p := raws[i].Product
		attrs, err := normalizeAttributes(raws[i].Attributes)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", p.ID, err)
		}
		p.Attributes = attrs
		out = append(out, p)
	}
	return out, nil
}

// normalizeAttributes accepts both stored shapes and always returns the pair
// array. Flat-object list values expand into one pair per item, everything
// is stringified.
func normalizeAttributes(raw json.RawMessage) ([]product.Attribute, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var pairs []product.Attribute
	if err := json.Unmarshal(raw, &pairs); err == nil {
		return pairs, nil
	}

	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("unsupported attributes shape: %w", err)
	}

	out := make([]product.Attribute, 0, len(flat))
	for key, value := range flat {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				out = append(out, product.Attribute{Key: key, Value: stringify(item)})
			}
		default:
			out = append(out, product.Attribute{Key: key, Value: stringify(value)})
		}
	}
	return out, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
