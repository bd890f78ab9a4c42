package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/utils"
)

const requestTimeout = 5 * time.Second

type BookHandler struct {
	Store       *queries.BookStore
	AuditLogger *utils.Logger
	Log         logrus.FieldLogger
}

func NewBookHandler(store *queries.BookStore, audit *utils.Logger, log logrus.FieldLogger) *BookHandler {
	return &BookHandler{
		Store:       store,
		AuditLogger: audit,
		Log:         log,
	}
}

type PriceUpdateRequest struct {
	Price *float64 `json:"price"`
}

// GET /books?genre=&author=&published_after=&in_stock=
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bson.D{}

	if genre := q.Get("genre"); genre != "" {
		filter = append(filter, queries.GenreFilter(genre)...)
	}
	if author := q.Get("author"); author != "" {
		filter = append(filter, queries.AuthorFilter(author)...)
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			utils.JSONError(w, "Invalid in_stock", http.StatusBadRequest)
			return
		}
		filter = append(filter, bson.E{Key: "in_stock", Value: inStock})
	}
	if v := q.Get("published_after"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			utils.JSONError(w, "Invalid published_after", http.StatusBadRequest)
			return
		}
		filter = append(filter, queries.PublishedAfterFilter(year)...)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	books, err := h.Store.Find(ctx, filter)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteDocuments(w, "books", books)
}

// GET /books/projection
func (h *BookHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	books, err := h.Store.FindSummaries(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteDocuments(w, "books", books)
}

// GET /books/sorted?order=asc|desc
func (h *BookHandler) GetSorted(w http.ResponseWriter, r *http.Request) {
	var ascending bool
	switch r.URL.Query().Get("order") {
	case "", "asc":
		ascending = true
	case "desc":
		ascending = false
	default:
		utils.JSONError(w, "Invalid order", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	books, err := h.Store.FindSortedByPrice(ctx, ascending)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteDocuments(w, "books", books)
}

// GET /books/page/{page}?size=
func (h *BookHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil || page < 1 {
		utils.JSONError(w, "Invalid page", http.StatusBadRequest)
		return
	}
	size := queries.DefaultPageSize
	if v := r.URL.Query().Get("size"); v != "" {
		size, err = strconv.Atoi(v)
		if err != nil || size < 1 {
			utils.JSONError(w, "Invalid size", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	books, err := h.Store.FindPage(ctx, page, size)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteDocuments(w, "books", books)
}

// PUT /books/{title}/price
func (h *BookHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	var req PriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.Price == nil || *req.Price < 0 {
		utils.JSONError(w, "price must be a non-negative number", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.Store.UpdatePrice(ctx, title, *req.Price)
	if errors.Is(err, queries.ErrNoMatch) || (err == nil && result.MatchedCount == 0) {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.JSONError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	audit(ctx, h.AuditLogger, h.Log, models.BookEntity, constants.Update, bson.M{"title": title, "price": *req.Price})

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Price updated successfully",
		"modifiedCount": result.ModifiedCount,
	})
}

// DELETE /books/{title}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.Store.DeleteByTitle(ctx, title)
	if errors.Is(err, queries.ErrNoMatch) || (err == nil && result.DeletedCount == 0) {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.JSONError(w, "Delete failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	audit(ctx, h.AuditLogger, h.Log, models.BookEntity, constants.Delete, title)

	w.WriteHeader(http.StatusNoContent)
}

// audit failures are logged and never change the response.
func audit(ctx context.Context, logger *utils.Logger, log logrus.FieldLogger, entity, action string, data any) {
	if err := logger.Log(ctx, entity, action, data); err != nil {
		log.WithError(err).WithField("entity", entity).Warn("audit log write failed")
	}
}
