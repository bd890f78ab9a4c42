package runner

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// formatDocuments renders docs as an array of relaxed Extended JSON
// documents, one per line.
func formatDocuments(docs []bson.D) (string, error) {
	if len(docs) == 0 {
		return "[]", nil
	}
	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		b, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return "", err
		}
		lines = append(lines, "  "+string(b))
	}
	return "[\n" + strings.Join(lines, ",\n") + "\n]", nil
}

// formatIndented renders a single document as indented relaxed Extended
// JSON. An empty document renders as null.
func formatIndented(doc bson.Raw) (string, error) {
	if len(doc) == 0 {
		return "null", nil
	}
	b, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
