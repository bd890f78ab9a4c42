package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/utils"
)

// ReportHandler serves the aggregation rows as the server returned them.
type ReportHandler struct {
	Store       *queries.BookStore
	AuditLogger *utils.Logger
	Log         logrus.FieldLogger
}

// GET /reports/avg-price
func (h *ReportHandler) AvgPriceByGenre(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Store.AvgPriceByGenre(ctx)
	if err != nil {
		utils.JSONError(w, "Aggregation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteDocuments(w, "genres", rows)
}

// GET /reports/top-author
func (h *ReportHandler) TopAuthor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Store.TopAuthor(ctx)
	if err != nil {
		utils.JSONError(w, "Aggregation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		utils.JSONError(w, "No books found", http.StatusNotFound)
		return
	}
	utils.WriteExtJSON(w, http.StatusOK, rows[0])
}

// GET /reports/decades
func (h *ReportHandler) Decades(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.Store.CountByDecade(ctx)
	if err != nil {
		utils.JSONError(w, "Aggregation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteExtJSON(w, http.StatusOK, bson.D{
		{Key: "decades", Value: rows},
		{Key: "total", Value: models.TotalCount(rows)},
	})
}

// POST /indexes
func (h *ReportHandler) CreateIndexes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	names := []string{}
	for _, idx := range []mongo.IndexModel{queries.TitleIndex(), queries.AuthorYearIndex()} {
		name, err := h.Store.CreateIndex(ctx, idx)
		if err != nil {
			utils.JSONError(w, "Index creation failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		audit(ctx, h.AuditLogger, h.Log, models.IndexEntity, constants.Create, name)
		names = append(names, name)
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"indexes": names})
}

// GET /explain?title=
func (h *ReportHandler) Explain(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		utils.JSONError(w, "title is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.Store.ExplainFind(ctx, queries.TitleFilter(title))
	if err != nil {
		utils.JSONError(w, "Explain failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var plan any = stats
	if len(stats) == 0 {
		plan = bson.D{}
	}
	utils.WriteExtJSON(w, http.StatusOK, bson.D{{Key: "executionStats", Value: plan}})
}
