package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"plp-bookstore/internal/middleware"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/utils"
)

// NewRouter wires the read routes openly and the mutating routes behind the
// bearer token issued by POST /login.
func NewRouter(store *queries.BookStore, audit *utils.Logger, authHandler *AuthHandler, log logrus.FieldLogger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK")
	}).Methods("GET")

	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.JSONMiddleware)

	var secret string
	if authHandler != nil {
		secret = authHandler.Secret
	}
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	bookHandler := NewBookHandler(store, audit, log)
	api.HandleFunc("/books", bookHandler.GetBooks).Methods("GET")
	api.HandleFunc("/books/projection", bookHandler.GetSummaries).Methods("GET")
	api.HandleFunc("/books/sorted", bookHandler.GetSorted).Methods("GET")
	api.HandleFunc("/books/page/{page}", bookHandler.GetPage).Methods("GET")

	reportHandler := &ReportHandler{Store: store, AuditLogger: audit, Log: log}
	api.HandleFunc("/reports/avg-price", reportHandler.AvgPriceByGenre).Methods("GET")
	api.HandleFunc("/reports/top-author", reportHandler.TopAuthor).Methods("GET")
	api.HandleFunc("/reports/decades", reportHandler.Decades).Methods("GET")
	api.HandleFunc("/explain", reportHandler.Explain).Methods("GET")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(secret))
	protected.HandleFunc("/books/{title}/price", bookHandler.UpdatePrice).Methods("PUT")
	protected.HandleFunc("/books/{title}", bookHandler.DeleteBook).Methods("DELETE")
	protected.HandleFunc("/indexes", reportHandler.CreateIndexes).Methods("POST")

	return r
}
