package models

import "go.mongodb.org/mongo-driver/bson"

// Report rows stay as bson.D so group keys and accumulators reach the caller
// exactly as the server produced them, null and non-scalar keys included.
const (
	GroupKeyField   = "_id"
	AvgPriceField   = "avgPrice"
	TotalBooksField = "totalBooks"
	CountField      = "count"
)

// TotalCount sums the count field of the decade rows. Rows whose count is
// missing or not numeric add nothing.
func TotalCount(rows []bson.D) int64 {
	var total int64
	for _, row := range rows {
		for _, e := range row {
			if e.Key != CountField {
				continue
			}
			switch v := e.Value.(type) {
			case int32:
				total += int64(v)
			case int64:
				total += v
			case float64:
				total += int64(v)
			}
		}
	}
	return total
}
