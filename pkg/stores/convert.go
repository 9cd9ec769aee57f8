package stores

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case bson.A:
		return joinValues(v)
	case []any:
		return joinValues(v)
	case []string:
		return strings.Join(v, ", ")
	case nil:
		return ""
	}

	return fmt.Sprintf("%v", value)
}

func joinValues(values []any) string {
	parts := make([]string, 0, len(values))

	for _, value := range values {
		parts = append(parts, stringify(value))
	}

	return strings.Join(parts, ", ")
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}

	return 0
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case primitive.DateTime:
		return v.Time(), true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		return t, err == nil
	}

	return time.Time{}, false
}

/*
Float32s converts a BSON array of numbers into an embedding vector.
*/
func Float32s(value any) []float32 {
	var values []any

	switch v := value.(type) {
	case bson.A:
		values = v
	case []any:
		values = v
	case []float32:
		return v
	default:
		return nil
	}

	out := make([]float32, len(values))

	for i, value := range values {
		out[i] = float32(toFloat(value))
	}

	return out
}
