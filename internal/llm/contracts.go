package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one voter mapping exactly as recovered from the model response,
// before any field coercion. Keeping the raw mapping lets the sink persist a
// verbatim JSON snapshot alongside the coerced columns.
type Record map[string]any

// VoterExtractor is the interface the pipeline depends on for structured
// extraction. It returns the model's raw textual response, unparsed.
type VoterExtractor interface {
	ExtractVoters(ctx context.Context, ocrText string) (string, error)
}

// ModelEnsurer verifies the configured model is available before a run,
// pulling it if absent. Failures here are advisory, not fatal.
type ModelEnsurer interface {
	EnsureModel(ctx context.Context) error
}

// Field returns the string value at key, tolerating null, missing keys, and
// numeric values the model sometimes emits for text fields.
func (r Record) Field(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Age coerces the age field to an integer. Missing, null, empty, and
// non-numeric values all coerce to 0.
func (r Record) Age() int {
	switch v := r["age"].(type) {
	case float64:
		return int(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
		return 0
	default:
		return 0
	}
}

// RawJSON returns the serialization of the pre-coercion mapping, stored as the
// audit snapshot on every persisted voter.
func (r Record) RawJSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}
