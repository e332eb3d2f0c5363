package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Model output is not guaranteed well-formed JSON even under deterministic
// decoding: preambles, trailing commentary, truncation. The parser recovers
// best-effort structure without rejecting salvageable output.

// reJSONCandidate greedily matches from the first '{' or '[' to the last
// corresponding closer. Newlines are collapsed before matching.
var reJSONCandidate = regexp.MustCompile(`\{.*\}|\[.*\]`)

// ParseError indicates the recovered candidate was not valid JSON. The raw
// response is carried so callers can persist it as a debug artifact.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("invalid JSON in model response: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ExtractCandidate collapses newlines and returns the first balanced-looking
// JSON object or array substring, or the full response if none is found.
func ExtractCandidate(raw string) string {
	flat := strings.ReplaceAll(strings.ReplaceAll(raw, "\r", " "), "\n", " ")
	if m := reJSONCandidate.FindString(flat); m != "" {
		return m
	}
	return flat
}

// ParseVoters recovers the ordered voter-record sequence from a raw model
// response. Both response shapes are normalized into one canonical slice: a
// bare JSON array is taken as the record list; a JSON object contributes the
// value at key "voters", defaulting to an empty sequence when absent.
func ParseVoters(raw string) ([]Record, error) {
	candidate := ExtractCandidate(raw)

	// Strict syntax check first so malformed JSON is distinguishable from a
	// well-formed document with an unexpected shape.
	var probe any
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	return decodeRecords(candidate)
}

// votersEnvelope is the object-shaped variant of a model response.
type votersEnvelope struct {
	Voters []Record `json:"voters"`
}

func decodeRecords(candidate string) ([]Record, error) {
	trimmed := strings.TrimSpace(candidate)
	if strings.HasPrefix(trimmed, "[") {
		var recs []Record
		if err := json.Unmarshal([]byte(trimmed), &recs); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		return recs, nil
	}

	var env votersEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, fmt.Errorf("decode voters envelope: %w", err)
	}
	if env.Voters == nil {
		return []Record{}, nil
	}
	return env.Voters, nil
}
