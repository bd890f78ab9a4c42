package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"plp-bookstore/configs"
	"plp-bookstore/internal/auth"
	"plp-bookstore/internal/handlers"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/utils"
)

const (
	testSecret   = "test-secret"
	testUserID   = "admin-1"
	testUsername = "admin"
	testPassword = "hunter2"
)

func testAuth(log logrus.FieldLogger) *handlers.AuthHandler {
	return &handlers.AuthHandler{
		Secret:   testSecret,
		TokenTTL: time.Hour,
		Creds:    handlers.Credentials{UserID: testUserID, Username: testUsername, Password: testPassword},
		Log:      log,
	}
}

func newRouter(mt *mtest.T, requireMatch bool) http.Handler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return handlers.NewRouter(queries.NewBookStore(mt.Coll, requireMatch), nil, testAuth(logger), logger)
}

func cursor(mt *mtest.T, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.Coll.Database().Name()+"."+mt.Coll.Name(), mtest.FirstBatch, docs...)
}

func serve(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	return serveAs(h, method, target, body, "")
}

// serveAuthed sends the request with a token for the configured test user.
func serveAuthed(t testing.TB, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, testUserID, time.Hour)
	require.NoError(t, err)
	return serveAs(h, method, target, body, token)
}

func serveAs(h http.Handler, method, target string, body []byte, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBookHandler_GetBooks(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("combines query parameters into one filter", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(cursor(mt, bson.D{
			{Key: "title", Value: "Project Hail Mary"},
			{Key: "genre", Value: "Science Fiction"},
			{Key: "published_year", Value: int32(2021)},
			{Key: "in_stock", Value: true},
		}))

		w := serve(router, http.MethodGet, "/books?genre=Science%20Fiction&in_stock=true&published_after=2010", nil)
		require.Equal(mt, http.StatusOK, w.Code)
		assert.Equal(mt, "application/json", w.Header().Get("Content-Type"))

		var body struct {
			Books []map[string]any `json:"books"`
		}
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(mt, body.Books, 1)
		assert.Equal(mt, "Project Hail Mary", body.Books[0]["title"])

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter := evt.Command.Lookup("filter")
		assert.Equal(mt, "Science Fiction", filter.Document().Lookup("genre").StringValue())
		assert.True(mt, filter.Document().Lookup("in_stock").Boolean())
		assert.Equal(mt, int32(2010), filter.Document().Lookup("published_year", "$gt").Int32())
	})

	mt.Run("empty result is an empty list", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(cursor(mt))

		w := serve(router, http.MethodGet, "/books?genre=Fantasy", nil)
		require.Equal(mt, http.StatusOK, w.Code)
		assert.JSONEq(mt, `{"books":[]}`, w.Body.String())
	})

	mt.Run("documents pass through untyped", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(cursor(mt, bson.D{
			{Key: "_id", Value: "legacy-42"},
			{Key: "title", Value: "Odd Edition"},
			{Key: "published_year", Value: 2011.5},
		}))

		w := serve(router, http.MethodGet, "/books", nil)
		require.Equal(mt, http.StatusOK, w.Code)
		assert.JSONEq(mt, `{"books":[{"_id":"legacy-42","title":"Odd Edition","published_year":2011.5}]}`, w.Body.String())
	})

	mt.Run("invalid year", func(mt *mtest.T) {
		router := newRouter(mt, false)

		w := serve(router, http.MethodGet, "/books?published_after=recent", nil)
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestBookHandler_GetPage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("uses default page size", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(cursor(mt))

		w := serve(router, http.MethodGet, "/books/page/3", nil)
		require.Equal(mt, http.StatusOK, w.Code)

		var cmd struct {
			Skip  int64 `bson:"skip"`
			Limit int64 `bson:"limit"`
		}
		require.NoError(mt, bson.Unmarshal(mt.GetStartedEvent().Command, &cmd))
		assert.Equal(mt, int64(10), cmd.Skip)
		assert.Equal(mt, int64(5), cmd.Limit)
	})

	mt.Run("rejects page zero", func(mt *mtest.T) {
		router := newRouter(mt, false)

		w := serve(router, http.MethodGet, "/books/page/0", nil)
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestBookHandler_UpdatePrice(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("updates existing title", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		w := serveAuthed(mt, router, http.MethodPut, "/books/1984/price", []byte(`{"price": 14.99}`))
		require.Equal(mt, http.StatusOK, w.Code)
		assert.JSONEq(mt, `{"message":"Price updated successfully","modifiedCount":1}`, w.Body.String())
	})

	mt.Run("unknown title", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		w := serveAuthed(mt, router, http.MethodPut, "/books/Dune/price", []byte(`{"price": 14.99}`))
		assert.Equal(mt, http.StatusNotFound, w.Code)
	})

	mt.Run("requires a token", func(mt *mtest.T) {
		router := newRouter(mt, false)

		w := serve(router, http.MethodPut, "/books/1984/price", []byte(`{"price": 14.99}`))
		assert.Equal(mt, http.StatusUnauthorized, w.Code)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("audit failure is logged and does not fail the request", func(mt *mtest.T) {
		logger, hook := test.NewNullLogger()
		audit := &utils.Logger{Collection: mt.DB.Collection(configs.AuditLogsCollection), PerformedBy: "http"}
		router := handlers.NewRouter(queries.NewBookStore(mt.Coll, false), audit, testAuth(logger), logger)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			bson.D{{Key: "ok", Value: 0}, {Key: "code", Value: 13}, {Key: "errmsg", Value: "not authorized"}},
		)

		w := serveAuthed(mt, router, http.MethodPut, "/books/1984/price", []byte(`{"price": 14.99}`))
		require.Equal(mt, http.StatusOK, w.Code)

		assert.Equal(mt, "update", mt.GetStartedEvent().CommandName)
		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, configs.AuditLogsCollection, insert.Command.Lookup("insert").StringValue())

		var warned bool
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel && e.Message == "audit log write failed" {
				warned = true
				assert.Equal(mt, models.BookEntity, e.Data["entity"])
			}
		}
		assert.True(mt, warned)
	})

	mt.Run("missing price", func(mt *mtest.T) {
		router := newRouter(mt, false)

		w := serveAuthed(mt, router, http.MethodPut, "/books/1984/price", []byte(`{}`))
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestBookHandler_DeleteBook(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deletes existing title", func(mt *mtest.T) {
		router := newRouter(mt, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		w := serveAuthed(mt, router, http.MethodDelete, "/books/The%20Hobbit", nil)
		assert.Equal(mt, http.StatusNoContent, w.Code)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "delete", evt.CommandName)
	})

	mt.Run("rejects a forged token", func(mt *mtest.T) {
		router := newRouter(mt, false)
		forged, err := auth.GenerateToken("other-secret", testUserID, time.Hour)
		require.NoError(mt, err)

		w := serveAs(router, http.MethodDelete, "/books/The%20Hobbit", nil, forged)
		assert.Equal(mt, http.StatusUnauthorized, w.Code)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("unknown title with require match", func(mt *mtest.T) {
		router := newRouter(mt, true)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		w := serveAuthed(mt, router, http.MethodDelete, "/books/The%20Hobbit", nil)
		assert.Equal(mt, http.StatusNotFound, w.Code)
	})
}

func TestHealthz(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		w := serve(newRouter(mt, false), http.MethodGet, "/healthz", nil)
		assert.Equal(mt, http.StatusOK, w.Code)
		assert.Equal(mt, "OK", w.Body.String())
	})
}
