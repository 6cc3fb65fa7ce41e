package document

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stored field names.
const (
	fieldCategories = "categories"
	fieldKeywords   = "keywords"
	fieldDepartment = "department"
	fieldTitle      = "title"
	fieldContent    = "content"
	fieldEmbedding  = "embedding"
)

// TextFields are the fields searched by the keyword tier, in match order.
var TextFields = []string{fieldCategories, fieldKeywords, fieldDepartment, fieldTitle, fieldContent}

// textMatchFilter matches documents where any text field matches pattern,
// case-insensitively. Array fields match when any element matches.
func textMatchFilter(pattern string) bson.M {
	re := primitive.Regex{Pattern: pattern, Options: "i"}
	or := make(bson.A, 0, len(TextFields))
	for _, f := range TextFields {
		or = append(or, bson.M{f: re})
	}
	return bson.M{"$or": or}
}

// hasEmbeddingFilter matches documents with a non-null embedding.
func hasEmbeddingFilter() bson.M {
	return bson.M{fieldEmbedding: bson.M{"$exists": true, "$ne": nil}}
}

// candidateFilter selects semantic candidates; an empty pattern disables the text prefilter.
func candidateFilter(pattern string) bson.M {
	if pattern == "" {
		return hasEmbeddingFilter()
	}
	return bson.M{"$and": bson.A{hasEmbeddingFilter(), textMatchFilter(pattern)}}
}

// keywordMembershipFilter matches documents whose keywords or categories contain any of kws exactly.
func keywordMembershipFilter(kws []string) bson.M {
	in := bson.M{"$in": kws}
	return bson.M{"$or": bson.A{
		bson.M{fieldKeywords: in},
		bson.M{fieldCategories: in},
	}}
}

// missingEmbeddingFilter matches documents never embedded (absent, null or empty).
func missingEmbeddingFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{fieldEmbedding: bson.M{"$exists": false}},
		bson.M{fieldEmbedding: nil},
		bson.M{fieldEmbedding: bson.M{"$size": 0}},
	}}
}

// withoutEmbedding keeps vectors out of responses that never score them.
var withoutEmbedding = bson.M{fieldEmbedding: 0}

// sampleProjection is the refiner-safe subset of fields.
var sampleProjection = bson.M{
	fieldTitle: 1, "name": 1, fieldCategories: 1, fieldKeywords: 1, fieldDepartment: 1,
}

// samplePipeline draws n random documents and keeps only the refiner-safe fields.
func samplePipeline(n int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": n}}},
		{{Key: "$project", Value: sampleProjection}},
	}
}
