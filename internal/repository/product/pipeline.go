package product

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hervens/productsearch/internal/domain/query"
)

// buildVectorPipeline translates a search plan into an aggregation pipeline:
// vector stage, exact post-filter, score materialization, optional relevance
// floor, sort (explicit field or similarity descending), final limit,
// projection.
func (r *Repo) buildVectorPipeline(plan query.Plan) mongo.Pipeline {
	vectorStage := bson.M{
		"index":         r.index,
		"path":          r.embeddingField,
		"queryVector":   plan.Vector,
		"numCandidates": plan.Candidates,
		"limit":         plan.Fetch,
	}
	if !plan.SkipPreFilter {
		if pre := compileFilter(plan.Filters, modePre); len(pre) > 0 {
			vectorStage["filter"] = pre
		}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: vectorStage}},
	}

	if post := compileFilter(plan.Filters, modePost); len(post) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: post}})
	}

	pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.M{
		"score": bson.M{"$meta": "vectorSearchScore"},
	}}})

	if plan.ScoreFloor > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"score": bson.M{"$gte": plan.ScoreFloor},
		}}})
	}

	if plan.Sort != nil {
		direction := 1
		if plan.Sort.Descending() {
			direction = -1
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
			{Key: plan.Sort.Field, Value: direction},
		}}})
	} else {
		// $match does not guarantee the vector stage's order downstream,
		// so similarity ranking needs its own sort.
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
			{Key: "score", Value: -1},
		}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$limit", Value: plan.Limit}},
		bson.D{{Key: "$project", Value: bson.M{r.embeddingField: 0}}},
	)

	return pipeline
}
