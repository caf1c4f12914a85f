// Package product implements the catalogue store adapter on MongoDB Atlas.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/hervens/productsearch/internal/domain"
	domainproduct "github.com/hervens/productsearch/internal/domain/product"
	"github.com/hervens/productsearch/internal/domain/query"
)

// notIndexedMarker is the server error fragment identifying a vector-stage
// filter on a path the index does not cover.
const notIndexedMarker = "needs to be indexed as filter"

// Repo is the catalogue adapter over a single MongoDB collection.
type Repo struct {
	coll           *mongo.Collection
	index          string
	embeddingField string
	logger         *zap.Logger
}

// NewRepo creates a catalogue repository bound to one collection and its
// vector index.
func NewRepo(coll *mongo.Collection, index, embeddingField string, logger *zap.Logger) *Repo {
	return &Repo{
		coll:           coll,
		index:          index,
		embeddingField: embeddingField,
		logger:         logger,
	}
}

// VectorSearch runs one hybrid retrieval round trip described by the plan.
// A rejected pre-filter surfaces as domain.ErrPreFilterNotIndexed so the
// planner can retry without it.
func (r *Repo) VectorSearch(ctx context.Context, plan query.Plan) ([]domainproduct.Product, error) {
	pipeline := r.buildVectorPipeline(plan)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		if isNotIndexedErr(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPreFilterNotIndexed, err.Error())
		}
		return nil, fmt.Errorf("vector search aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("vector search decode: %w", err)
	}
	return toDomainSlice(docs), nil
}

// Scan runs a structured query with no vector stage: exact filter, optional
// sort, limit. Used for generic queries where filters alone define the
// result set.
func (r *Repo) Scan(ctx context.Context, filters query.Filters, sort *query.Sort, limit int) ([]domainproduct.Product, error) {
	filter := compileFilter(filters, modePost)

	opts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.M{r.embeddingField: 0})
	if sort != nil {
		direction := 1
		if sort.Descending() {
			direction = -1
		}
		opts.SetSort(bson.D{{Key: sort.Field, Value: direction}})
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("structured scan: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("structured scan decode: %w", err)
	}
	return toDomainSlice(docs), nil
}

// BulkUpsert writes a batch of products keyed by their business id.
// Documents without an id are skipped.
func (r *Repo) BulkUpsert(ctx context.Context, products []domainproduct.Product) (int, error) {
	models := make([]mongo.WriteModel, 0, len(products))
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			r.logger.Warn("skipping product without id", zap.String("name", p.Name))
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": p.ID}).
			SetUpdate(bson.M{"$set": toDoc(p)}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return 0, nil
	}

	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("bulk upsert: %w", err)
	}
	return int(res.UpsertedCount + res.ModifiedCount + res.MatchedCount), nil
}

// SetEmbedding stores an embedding vector on a product by business id, along
// with the text it was generated from.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vector []float32, text string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{
			r.embeddingField: vector,
			"embedding_text": text,
		}},
	)
	if err != nil {
		return fmt.Errorf("set embedding for %s: %w", id, err)
	}
	return ensureMatched(res.MatchedCount, id)
}

// ensureMatched guards updates keyed by business id: a missing document
// matches nothing without erroring, and callers would count the write as
// done while the document stays unembedded.
func ensureMatched(matched int64, id string) error {
	if matched == 0 {
		return fmt.Errorf("set embedding for %s: no document matched", id)
	}
	return nil
}

// MissingEmbedding returns up to limit products that have no embedding yet.
func (r *Repo) MissingEmbedding(ctx context.Context, limit int) ([]domainproduct.Product, error) {
	filter := bson.M{r.embeddingField: bson.M{"$exists": false}}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("find missing embeddings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode missing embeddings: %w", err)
	}
	return toDomainSlice(docs), nil
}

func toDomainSlice(docs []productDoc) []domainproduct.Product {
	out := make([]domainproduct.Product, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out
}

// toDoc maps a domain product to its stored shape, without id or score.
func toDoc(p *domainproduct.Product) bson.M {
	doc := bson.M{
		"id":   p.ID,
		"name": p.Name,
	}
	if p.Type != "" {
		doc["type"] = p.Type
	}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if p.Brand != "" {
		doc["brand"] = p.Brand
	}
	if len(p.Categories) > 0 {
		doc["categories"] = p.Categories
	}
	if len(p.Keywords) > 0 {
		doc["keywords"] = p.Keywords
	}
	if len(p.Tags) > 0 {
		doc["tags"] = p.Tags
	}
	if p.Price != nil {
		doc["price"] = p.Price
	}
	if p.Stock != nil {
		doc["stock"] = p.Stock
	}
	if p.Image != "" {
		doc["image"] = p.Image
	}
	if len(p.Images) > 0 {
		doc["images"] = p.Images
	}
	if len(p.Attributes) > 0 {
		doc["attributes"] = p.Attributes
	}
	if len(p.Meta) > 0 {
		doc["meta"] = p.Meta
	}
	return doc
}

// isNotIndexedErr matches the Atlas error for a pre-filter on a path the
// vector index does not cover.
func isNotIndexedErr(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return strings.Contains(cmdErr.Message, notIndexedMarker)
	}
	return strings.Contains(err.Error(), notIndexedMarker)
}
