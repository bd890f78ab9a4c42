package queries

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoMatch is returned by UpdatePrice and DeleteByTitle when RequireMatch
// is set and the filter selected no document.
var ErrNoMatch = errors.New("no document matched the filter")

const ExecutionStatsVerbosity = "executionStats"

type BookStore struct {
	Collection   *mongo.Collection
	RequireMatch bool
}

func NewBookStore(coll *mongo.Collection, requireMatch bool) *BookStore {
	return &BookStore{Collection: coll, RequireMatch: requireMatch}
}

// Find runs filter with the given options and returns every matched
// document in server order. An empty result is an empty, non-nil slice.
func (s *BookStore) Find(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]bson.D, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cursor, err := s.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []bson.D{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *BookStore) FindByGenre(ctx context.Context, genre string) ([]bson.D, error) {
	return s.Find(ctx, GenreFilter(genre))
}

func (s *BookStore) FindPublishedAfter(ctx context.Context, year int) ([]bson.D, error) {
	return s.Find(ctx, PublishedAfterFilter(year))
}

func (s *BookStore) FindByAuthor(ctx context.Context, author string) ([]bson.D, error) {
	return s.Find(ctx, AuthorFilter(author))
}

func (s *BookStore) FindInStockPublishedAfter(ctx context.Context, year int) ([]bson.D, error) {
	return s.Find(ctx, InStockPublishedAfterFilter(true, year))
}

func (s *BookStore) FindSummaries(ctx context.Context) ([]bson.D, error) {
	return s.Find(ctx, bson.D{}, options.Find().SetProjection(SummaryProjection()))
}

func (s *BookStore) FindSortedByPrice(ctx context.Context, ascending bool) ([]bson.D, error) {
	return s.Find(ctx, bson.D{}, options.Find().SetSort(PriceSort(ascending)))
}

// FindPage returns the 1-based page of the collection in natural order.
func (s *BookStore) FindPage(ctx context.Context, page, pageSize int) ([]bson.D, error) {
	opts := options.Find().
		SetSkip(PageOffset(page, pageSize)).
		SetLimit(int64(pageSize))
	return s.Find(ctx, bson.D{}, opts)
}

func (s *BookStore) UpdatePrice(ctx context.Context, title string, price float64) (*mongo.UpdateResult, error) {
	res, err := s.Collection.UpdateOne(ctx, TitleFilter(title), SetPriceUpdate(price))
	if err != nil {
		return nil, err
	}
	if s.RequireMatch && res.MatchedCount == 0 {
		return res, ErrNoMatch
	}
	return res, nil
}

func (s *BookStore) DeleteByTitle(ctx context.Context, title string) (*mongo.DeleteResult, error) {
	res, err := s.Collection.DeleteOne(ctx, TitleFilter(title))
	if err != nil {
		return nil, err
	}
	if s.RequireMatch && res.DeletedCount == 0 {
		return res, ErrNoMatch
	}
	return res, nil
}

// AvgPriceByGenre, TopAuthor and CountByDecade return the pipeline rows as
// the server sent them.
func (s *BookStore) AvgPriceByGenre(ctx context.Context) ([]bson.D, error) {
	return s.aggregate(ctx, AvgPriceByGenrePipeline())
}

func (s *BookStore) TopAuthor(ctx context.Context) ([]bson.D, error) {
	return s.aggregate(ctx, TopAuthorPipeline())
}

func (s *BookStore) CountByDecade(ctx context.Context) ([]bson.D, error) {
	return s.aggregate(ctx, DecadePipeline())
}

func (s *BookStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.D, error) {
	cursor, err := s.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []bson.D{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateIndex creates model on the collection and returns the index name
// reported by the driver.
func (s *BookStore) CreateIndex(ctx context.Context, model mongo.IndexModel) (string, error) {
	return s.Collection.Indexes().CreateOne(ctx, model)
}

// ExplainFind asks the server how it would satisfy filter and returns the
// executionStats section of the plan. It is nil if the server sent none.
func (s *BookStore) ExplainFind(ctx context.Context, filter bson.D) (bson.Raw, error) {
	cmd := ExplainFindCommand(s.Collection.Name(), filter, ExecutionStatsVerbosity)

	var plan struct {
		ExecutionStats bson.Raw `bson:"executionStats"`
	}
	if err := s.Collection.Database().RunCommand(ctx, cmd).Decode(&plan); err != nil {
		return nil, err
	}
	return plan.ExecutionStats, nil
}
