package utils

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
)

func JSONError(w http.ResponseWriter, message string, status int) {
	WriteJSON(w, status, map[string]string{"error": message})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDocuments writes docs as relaxed Extended JSON under key, keeping the
// field order the server returned.
func WriteDocuments(w http.ResponseWriter, key string, docs []bson.D) {
	WriteExtJSON(w, http.StatusOK, bson.D{{Key: key, Value: docs}})
}

// WriteExtJSON writes doc as relaxed Extended JSON.
func WriteExtJSON(w http.ResponseWriter, status int, doc any) {
	body, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		JSONError(w, "Error encoding documents", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
