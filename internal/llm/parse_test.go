package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVotersEnvelope(t *testing.T) {
	raw := `{"voters": [
		{"epic_number": "ABC1", "name": "First", "age": 34},
		{"epic_number": "ABC2", "name": "Second", "age": "29"},
		{"epic_number": "ABC3", "name": "Third"}
	]}`

	recs, err := ParseVoters(raw)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// element order must survive
	assert.Equal(t, "ABC1", recs[0].Field("epic_number"))
	assert.Equal(t, "ABC2", recs[1].Field("epic_number"))
	assert.Equal(t, "ABC3", recs[2].Field("epic_number"))
}

func TestParseVotersBareArray(t *testing.T) {
	recs, err := ParseVoters(`[{"name": "Only"}, {"name": "Two"}]`)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Only", recs[0].Field("name"))
}

func TestParseVotersEmbeddedProse(t *testing.T) {
	raw := "Sure! Here is the extracted data:\n" +
		`{"voters": [{"epic_number": "E1", "age": "30"}]}` +
		"\nLet me know if you need anything else."

	recs, err := ParseVoters(raw)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "E1", recs[0].Field("epic_number"))
	assert.Equal(t, 30, recs[0].Age())
}

func TestParseVotersMultilineJSON(t *testing.T) {
	raw := "{\n\"voters\": [\n{\"name\": \"Split\"}\n]\n}"
	recs, err := ParseVoters(raw)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestParseVotersMissingKeyIsEmpty(t *testing.T) {
	recs, err := ParseVoters(`{"result": "nothing here"}`)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseVotersEmptySentinel(t *testing.T) {
	recs, err := ParseVoters("{}")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseVotersMalformed(t *testing.T) {
	raw := `{"voters": [{"name": "Broken"`

	_, err := ParseVoters(raw)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "malformed JSON must surface as ParseError")
	assert.Equal(t, raw, pe.Raw)
}

func TestParseVotersNoJSONAtAll(t *testing.T) {
	_, err := ParseVoters("I could not find any voter records on this page.")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
}

func TestParseVotersWrongShape(t *testing.T) {
	// valid JSON, wrong shape: not a ParseError, no debug artifact expected
	_, err := ParseVoters(`{"voters": "not a list"}`)
	require.Error(t, err)
	var pe *ParseError
	assert.False(t, errors.As(err, &pe))
}

func TestExtractCandidatePrefersBalancedObject(t *testing.T) {
	got := ExtractCandidate("prefix {\"a\": 1} suffix")
	assert.Equal(t, `{"a": 1}`, got)
}

func TestRecordAgeCoercion(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want int
	}{
		{"missing", Record{}, 0},
		{"null", Record{"age": nil}, 0},
		{"empty string", Record{"age": ""}, 0},
		{"non-numeric", Record{"age": "unknown"}, 0},
		{"numeric string", Record{"age": "29"}, 29},
		{"number", Record{"age": float64(41)}, 41},
		{"float string", Record{"age": "33.0"}, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Age())
		})
	}
}

func TestRecordFieldCoercion(t *testing.T) {
	rec := Record{"name": "A", "house_number": float64(12), "epic_number": nil}
	assert.Equal(t, "A", rec.Field("name"))
	assert.Equal(t, "12", rec.Field("house_number"))
	assert.Equal(t, "", rec.Field("epic_number"))
	assert.Equal(t, "", rec.Field("not_present"))
}

func TestRecordRawJSONSnapshot(t *testing.T) {
	rec := Record{"epic_number": "E9", "age": "30"}
	assert.JSONEq(t, `{"epic_number":"E9","age":"30"}`, rec.RawJSON())
}
