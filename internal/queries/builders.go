// Package queries holds the filter, pipeline and index documents run against
// the books collection, and the BookStore that sends them to the server.
package queries

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"plp-bookstore/internal/models"
)

const (
	DefaultPage     = 2
	DefaultPageSize = 5

	// DecadeWidth is the bucket size used by DecadePipeline.
	DecadeWidth = 10
)

func GenreFilter(genre string) bson.D {
	return bson.D{{Key: "genre", Value: genre}}
}

func AuthorFilter(author string) bson.D {
	return bson.D{{Key: "author", Value: author}}
}

func TitleFilter(title string) bson.D {
	return bson.D{{Key: "title", Value: title}}
}

// PublishedAfterFilter matches books whose published_year is strictly
// greater than year.
func PublishedAfterFilter(year int) bson.D {
	return bson.D{{Key: "published_year", Value: bson.D{{Key: "$gt", Value: year}}}}
}

// InStockPublishedAfterFilter is the implicit AND of in_stock and
// PublishedAfterFilter.
func InStockPublishedAfterFilter(inStock bool, year int) bson.D {
	return bson.D{
		{Key: "in_stock", Value: inStock},
		{Key: "published_year", Value: bson.D{{Key: "$gt", Value: year}}},
	}
}

func SetPriceUpdate(price float64) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{{Key: "price", Value: price}}}}
}

// SummaryProjection keeps title, author and price and drops _id.
func SummaryProjection() bson.D {
	return bson.D{
		{Key: "title", Value: 1},
		{Key: "author", Value: 1},
		{Key: "price", Value: 1},
		{Key: "_id", Value: 0},
	}
}

func PriceSort(ascending bool) bson.D {
	dir := 1
	if !ascending {
		dir = -1
	}
	return bson.D{{Key: "price", Value: dir}}
}

// PageOffset returns the number of documents to skip for a 1-based page.
func PageOffset(page, pageSize int) int64 {
	return int64(page-1) * int64(pageSize)
}

func AvgPriceByGenrePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: models.GroupKeyField, Value: "$genre"},
			{Key: models.AvgPriceField, Value: bson.D{{Key: "$avg", Value: "$price"}}},
		}}},
	}
}

func TopAuthorPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: models.GroupKeyField, Value: "$author"},
			{Key: models.TotalBooksField, Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: models.TotalBooksField, Value: -1}}}},
		{{Key: "$limit", Value: 1}},
	}
}

// DecadePipeline buckets books by floor(published_year / 10) * 10 and counts
// each bucket, oldest first.
func DecadePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "decade", Value: bson.D{{Key: "$multiply", Value: bson.A{
				bson.D{{Key: "$floor", Value: bson.D{{Key: "$divide", Value: bson.A{"$published_year", DecadeWidth}}}}},
				DecadeWidth,
			}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: models.GroupKeyField, Value: "$decade"},
			{Key: models.CountField, Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: models.GroupKeyField, Value: 1}}}},
	}
}

func TitleIndex() mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: "title", Value: 1}}}
}

func AuthorYearIndex() mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{
		{Key: "author", Value: 1},
		{Key: "published_year", Value: 1},
	}}
}

// ExplainFindCommand wraps a find on coll in an explain command at the
// given verbosity.
func ExplainFindCommand(coll string, filter bson.D, verbosity string) bson.D {
	return bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: coll},
			{Key: "filter", Value: filter},
		}},
		{Key: "verbosity", Value: verbosity},
	}
}
