package product

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hervens/productsearch/internal/domain/product"
)

// productDoc is the store-side document shape. It differs from the domain
// model in two ways: the raw ObjectID identifier and the score field
// materialized by the pipeline.
type productDoc struct {
	OID         primitive.ObjectID `bson:"_id,omitempty"`
	ID          string             `bson:"id,omitempty"`
	Type        string             `bson:"type,omitempty"`
	Name        string             `bson:"name,omitempty"`
	Description string             `bson:"description,omitempty"`
	Brand       string             `bson:"brand,omitempty"`
	Categories  []string           `bson:"categories,omitempty"`
	Keywords    []string           `bson:"keywords,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	Price       *product.Price     `bson:"price,omitempty"`
	Stock       *product.Stock     `bson:"stock,omitempty"`
	Image       string             `bson:"image,omitempty"`
	Images      []string           `bson:"images,omitempty"`
	Attributes  attrList           `bson:"attributes,omitempty"`
	Meta        map[string]any     `bson:"meta,omitempty"`
	Score       float64            `bson:"score,omitempty"`
}

// attrList decodes the attribute field in either of its stored shapes: the
// canonical array of {key, value} pairs, or the legacy flat sub-document
// from pre-migration imports. Values are stringified either way.
type attrList []product.Attribute

func (a *attrList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeNull:
		*a = nil
		return nil
	case bson.TypeArray:
		var pairs []struct {
			Key   string        `bson:"key"`
			Value bson.RawValue `bson:"value"`
		}
		rv := bson.RawValue{Type: t, Value: data}
		if err := rv.Unmarshal(&pairs); err != nil {
			return fmt.Errorf("decode attribute array: %w", err)
		}
		out := make(attrList, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, product.Attribute{Key: p.Key, Value: rawValueString(p.Value)})
		}
		*a = out
		return nil
	case bson.TypeEmbeddedDocument:
		var flat bson.D
		rv := bson.RawValue{Type: t, Value: data}
		if err := rv.Unmarshal(&flat); err != nil {
			return fmt.Errorf("decode attribute document: %w", err)
		}
		out := make(attrList, 0, len(flat))
		for _, e := range flat {
			switch v := e.Value.(type) {
			case bson.A:
				for _, item := range v {
					out = append(out, product.Attribute{Key: e.Key, Value: anyString(item)})
				}
			default:
				out = append(out, product.Attribute{Key: e.Key, Value: anyString(e.Value)})
			}
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("unexpected bson type %v for attributes", t)
	}
}

func rawValueString(rv bson.RawValue) string {
	if s, ok := rv.StringValueOK(); ok {
		return s
	}
	var v any
	if err := rv.Unmarshal(&v); err != nil {
		return ""
	}
	return anyString(v)
}

func anyString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// toDomain maps a store document to the API-facing model, stringifying the
// raw identifier.
func (d *productDoc) toDomain() product.Product {
	p := product.Product{
		ID:          d.ID,
		Type:        d.Type,
		Name:        d.Name,
		Description: d.Description,
		Brand:       d.Brand,
		Categories:  d.Categories,
		Keywords:    d.Keywords,
		Tags:        d.Tags,
		Price:       d.Price,
		Stock:       d.Stock,
		Image:       d.Image,
		Images:      d.Images,
		Attributes:  []product.Attribute(d.Attributes),
		Meta:        d.Meta,
		Score:       d.Score,
	}
	if !d.OID.IsZero() {
		p.DocID = d.OID.Hex()
	}
	return p
}
