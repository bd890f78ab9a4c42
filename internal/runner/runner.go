// Package runner executes the fixed bookstore query sequence against one
// collection and prints every result in order.
package runner

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/utils"
)

const (
	FantasyGenre    = "Fantasy"
	ModernAfterYear = 2010
	OrwellAuthor    = "George Orwell"
	UpdatedTitle    = "1984"
	UpdatedPrice    = 14.99
	DeletedTitle    = "The Hobbit"
	ExplainedTitle  = "1984"
)

type step struct {
	label string
	exec  func(ctx context.Context) (string, error)
}

type section struct {
	title string
	steps []step
}

type Runner struct {
	Books    *queries.BookStore
	Audit    *utils.Logger
	Out      io.Writer
	Log      logrus.FieldLogger
	Page     int
	PageSize int
}

func New(books *queries.BookStore, out io.Writer, log logrus.FieldLogger) *Runner {
	return &Runner{
		Books:    books,
		Out:      out,
		Log:      log,
		Page:     queries.DefaultPage,
		PageSize: queries.DefaultPageSize,
	}
}

// Run executes every section in order. The first failing step stops the run
// and its error is returned wrapped with the step label.
func (r *Runner) Run(ctx context.Context) error {
	for _, sec := range r.sections() {
		fmt.Fprintf(r.Out, "\n%s\n", sec.title)
		for _, st := range sec.steps {
			r.Log.WithField("step", st.label).Debug("running")
			res, err := st.exec(ctx)
			if err != nil {
				return fmt.Errorf("%s %w", st.label, err)
			}
			fmt.Fprintln(r.Out, st.label, res)
		}
	}
	return nil
}

func (r *Runner) sections() []section {
	return []section{
		{title: "TASK 2: BASIC CRUD OPERATIONS", steps: []step{
			{"Fantasy Books:", r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindByGenre(ctx, FantasyGenre)
			})},
			{fmt.Sprintf("Books published after %d:", ModernAfterYear), r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindPublishedAfter(ctx, ModernAfterYear)
			})},
			{fmt.Sprintf("Books by %s:", OrwellAuthor), r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindByAuthor(ctx, OrwellAuthor)
			})},
			{"Price update result:", r.updatePrice},
			{"Delete result:", r.deleteBook},
		}},
		{title: "TASK 3: ADVANCED QUERIES", steps: []step{
			{fmt.Sprintf("In-stock books after %d:", ModernAfterYear), r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindInStockPublishedAfter(ctx, ModernAfterYear)
			})},
			{"Books with projection (title, author, price):", r.findDocs(r.Books.FindSummaries)},
			{"Books sorted by price (ascending):", r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindSortedByPrice(ctx, true)
			})},
			{"Books sorted by price (descending):", r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindSortedByPrice(ctx, false)
			})},
			{fmt.Sprintf("Books page %d (%d per page):", r.Page, r.PageSize), r.findDocs(func(ctx context.Context) ([]bson.D, error) {
				return r.Books.FindPage(ctx, r.Page, r.PageSize)
			})},
		}},
		{title: "TASK 4: AGGREGATION PIPELINES", steps: []step{
			{"Average price by genre:", r.findDocs(r.Books.AvgPriceByGenre)},
			{"Author with the most books:", r.findDocs(r.Books.TopAuthor)},
			{"Books grouped by decade:", r.findDocs(r.Books.CountByDecade)},
		}},
		{title: "TASK 5: INDEXING", steps: []step{
			{"Index created on title:", r.createIndex(queries.TitleIndex())},
			{"Compound index created on author + published_year:", r.createIndex(queries.AuthorYearIndex())},
			{"Explain output for title search:", r.explain},
		}},
	}
}

func (r *Runner) findDocs(find func(ctx context.Context) ([]bson.D, error)) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		docs, err := find(ctx)
		if err != nil {
			return "", err
		}
		return formatDocuments(docs)
	}
}

func (r *Runner) updatePrice(ctx context.Context) (string, error) {
	res, err := r.Books.UpdatePrice(ctx, UpdatedTitle, UpdatedPrice)
	if err != nil {
		return "", err
	}
	r.audit(ctx, models.BookEntity, constants.Update, bson.M{
		"title":    UpdatedTitle,
		"price":    UpdatedPrice,
		"modified": res.ModifiedCount,
	})
	return strconv.FormatInt(res.ModifiedCount, 10), nil
}

func (r *Runner) deleteBook(ctx context.Context) (string, error) {
	res, err := r.Books.DeleteByTitle(ctx, DeletedTitle)
	if err != nil {
		return "", err
	}
	r.audit(ctx, models.BookEntity, constants.Delete, bson.M{
		"title":   DeletedTitle,
		"deleted": res.DeletedCount,
	})
	return strconv.FormatInt(res.DeletedCount, 10), nil
}

func (r *Runner) createIndex(model mongo.IndexModel) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		name, err := r.Books.CreateIndex(ctx, model)
		if err != nil {
			return "", err
		}
		r.audit(ctx, models.IndexEntity, constants.Create, name)
		return name, nil
	}
}

func (r *Runner) explain(ctx context.Context) (string, error) {
	stats, err := r.Books.ExplainFind(ctx, queries.TitleFilter(ExplainedTitle))
	if err != nil {
		return "", err
	}
	return formatIndented(stats)
}

// audit failures are reported but never stop the run.
func (r *Runner) audit(ctx context.Context, entity, action string, data any) {
	if !r.Audit.Enabled() {
		return
	}
	if err := r.Audit.Log(ctx, entity, action, data); err != nil {
		r.Log.WithError(err).WithField("entity", entity).Warn("audit log write failed")
	}
}
