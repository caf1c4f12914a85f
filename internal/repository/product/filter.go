package product

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/unicode/norm"

	"github.com/hervens/productsearch/internal/domain/query"
)

// filterMode selects which compilation rules apply.
type filterMode int

const (
	// modePre compiles the vector-stage filter: only fields indexed for
	// filtering are allowed, everything else is silently dropped.
	modePre filterMode = iota
	// modePost compiles the exact match stage applied after retrieval;
	// it supports the full clause set, including attribute regex matching.
	modePost
)

// preFilterFields are the paths indexed as filter fields on the vector index.
// A pre-filter clause on any other path makes the backend reject the whole
// query, so the compiler only ever emits these.
var preFilterFields = map[string]bool{
	"categories":   true,
	"stock.status": true,
	"type":         true,
	"brand":        true,
	"keywords":     true,
}

// accentClasses maps a base letter to the character class covering its
// accented forms as they appear in French catalogue text.
var accentClasses = map[rune]string{
	'a': "[aàâäã]",
	'e': "[eéèêë]",
	'i': "[iîïí]",
	'o': "[oôöõó]",
	'u': "[uùûüú]",
	'c': "[cç]",
	'n': "[nñ]",
}

// accentInsensitivePattern builds a regex body that matches the input text
// regardless of accents, letter case (via the i option downstream) and exact
// whitespace. The value is first lowered and stripped to its base letters,
// then each base letter expands to its accent class.
func accentInsensitivePattern(s string) string {
	folded := stripAccents(strings.ToLower(s))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			b.WriteString(`\s+`)
		default:
			if class, ok := accentClasses[r]; ok {
				b.WriteString(class)
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
	}
	return b.String()
}

// stripAccents removes combining marks after NFD decomposition, so that
// "é" and "e" fold to the same base letter before class expansion.
func stripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// attributeClause compiles an attributes.<key> filter into an $elemMatch over
// the attribute pair array, with an anchored accent-insensitive regex on the
// stored value.
func attributeClause(attrKey string, value query.Value) bson.M {
	return bson.M{
		"$elemMatch": bson.M{
			"key": attrKey,
			"value": bson.M{
				"$regex": primitive.Regex{
					Pattern: "^" + accentInsensitivePattern(value.String()) + "$",
					Options: "i",
				},
			},
		},
	}
}

// rangeClause compiles a range spec, keeping only the bounds that are set.
// An empty range yields nil and the clause is dropped.
func rangeClause(r query.Range) bson.M {
	clause := bson.M{}
	if r.GT != nil {
		clause["$gt"] = *r.GT
	}
	if r.GTE != nil {
		clause["$gte"] = *r.GTE
	}
	if r.LT != nil {
		clause["$lt"] = *r.LT
	}
	if r.LTE != nil {
		clause["$lte"] = *r.LTE
	}
	if len(clause) == 0 {
		return nil
	}
	return clause
}

// termClause compiles a term spec on an array-valued or scalar field.
// List values become $in; scalars on known array fields also use $in so
// that a single category matches documents carrying several. Plain scalars
// use an explicit $eq, which the vector stage's filter grammar requires.
func termClause(field string, v query.Value) any {
	if v.Kind() == query.KindList {
		return bson.M{"$in": v.ListValue()}
	}
	if arrayFields[field] {
		return bson.M{"$in": []any{v.ScalarValue()}}
	}
	return bson.M{"$eq": v.ScalarValue()}
}

// arrayFields are document fields stored as arrays, where scalar filter
// values still need set-membership semantics.
var arrayFields = map[string]bool{
	"categories": true,
	"keywords":   true,
	"tags":       true,
}

// compileField compiles one field/spec pair into a clause value, or nil when
// the clause cannot be expressed in the given mode.
func compileField(field string, spec query.Spec, mode filterMode) (string, any) {
	if strings.HasPrefix(field, "attributes.") {
		// Attribute matching needs regex, which vector-stage filters
		// cannot express.
		if mode == modePre {
			return "", nil
		}
		attrKey := strings.TrimPrefix(field, "attributes.")
		if attrKey == "" || spec.Value.Kind() != query.KindScalar {
			return "", nil
		}
		return "attributes", attributeClause(attrKey, spec.Value)
	}

	if mode == modePre && !preFilterFields[field] {
		return "", nil
	}

	switch spec.Operator {
	case query.OperatorRange:
		if spec.Value.Kind() != query.KindRange {
			return "", nil
		}
		clause := rangeClause(spec.Value.RangeValue())
		if clause == nil {
			return "", nil
		}
		return field, clause
	case query.OperatorTerm:
		return field, termClause(field, spec.Value)
	default:
		// Unknown operators survive extraction but never reach the store.
		return "", nil
	}
}

// compileFilter compiles the extracted filter set into a single match
// document. Mandatory and optional clauses merge into one map, optional
// overwriting mandatory on key collision; multiple clauses combine under
// $and so repeated fields never clobber each other.
func compileFilter(f query.Filters, mode filterMode) bson.M {
	merged := make(map[string]query.Spec, len(f.Mandatory)+len(f.Optional))
	for k, v := range f.Mandatory {
		merged[k] = v
	}
	for k, v := range f.Optional {
		merged[k] = v
	}

	// Deterministic clause order keeps compiled filters comparable in
	// tests and logs.
	fields := make([]string, 0, len(merged))
	for k := range merged {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	clauses := make([]bson.M, 0, len(merged))
	for _, field := range fields {
		name, clause := compileField(field, merged[field], mode)
		if clause == nil {
			continue
		}
		clauses = append(clauses, bson.M{name: clause})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}
