package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrdersColumnsByPlace(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"b": map[string]any{"placeInOrder": float64(1), "type": "VARCHAR"},
			"a": map[string]any{"placeInOrder": float64(0), "type": "VARCHAR"},
		},
		"data": []any{
			[]any{"x", "y"},
		},
	}

	result, err := Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "x", result.Rows[0]["a"])
	assert.Equal(t, "y", result.Rows[0]["b"])
}

func TestParsePadsShortRows(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"a": map[string]any{"placeInOrder": float64(0), "type": "VARCHAR"},
			"b": map[string]any{"placeInOrder": float64(1), "type": "VARCHAR"},
			"c": map[string]any{"placeInOrder": float64(2), "type": "VARCHAR"},
		},
		"data": []any{
			[]any{"only"},
		},
	}

	result, err := Parse(payload)
	require.NoError(t, err)

	row := result.Rows[0]
	assert.Equal(t, "only", row["a"])
	assert.Nil(t, row["b"])
	assert.Nil(t, row["c"])
}

func TestParseCoercesTimestamps(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-01 12:00:00.000 UTC", "2024-01-01T12:00:00Z"},
		{"2025-09-16 02:03:09.500 UTC", "2025-09-16T02:03:09.5Z"},
		{"2024-01-01T12:00:00", "2024-01-01T12:00:00Z"},
		{"2024-01-01T07:00:00-05:00", "2024-01-01T12:00:00Z"},
		{"2024-01-01T12:00:00Z", "2024-01-01T12:00:00Z"},
	}

	for _, tc := range cases {
		payload := map[string]any{
			"metadata": map[string]any{
				"ts": map[string]any{"placeInOrder": float64(0), "type": "TIMESTAMP WITH TIME ZONE"},
			},
			"data": []any{[]any{tc.in}},
		}

		result, err := Parse(payload)
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Rows[0]["ts"], "input %q", tc.in)
	}
}

func TestParseTimestampFailurePassesThrough(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"ts": map[string]any{"placeInOrder": float64(0), "type": "TIMESTAMP"},
		},
		"data": []any{[]any{"not a date"}},
	}

	result, err := Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, "not a date", result.Rows[0]["ts"])
}

func TestParseCoercesNumerics(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"score": map[string]any{"placeInOrder": float64(0), "type": "DECIMAL(10,2)"},
			"bad":   map[string]any{"placeInOrder": float64(1), "type": "DOUBLE"},
			"nul":   map[string]any{"placeInOrder": float64(2), "type": "FLOAT"},
		},
		"data": []any{[]any{"3.14", "not-a-number", nil}},
	}

	result, err := Parse(payload)
	require.NoError(t, err)
	row := result.Rows[0]
	assert.Equal(t, 3.14, row["score"])
	assert.Equal(t, "not-a-number", row["bad"])
	assert.Nil(t, row["nul"])
}

func TestParseWithoutCoercion(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"ts": map[string]any{"placeInOrder": float64(0), "type": "TIMESTAMP"},
		},
		"data": []any{[]any{"2024-01-01 12:00:00.000 UTC"}},
	}

	result, err := ParseWith(payload, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 12:00:00.000 UTC", result.Rows[0]["ts"])
}

func TestParsePassthroughKeys(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"a": map[string]any{"placeInOrder": float64(0), "type": "VARCHAR"},
		},
		"data":     []any{},
		"done":     true,
		"rowCount": float64(0),
		"queryId":  "q-123",
		"ignored":  "x",
	}

	result, err := Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, true, result.Extra["done"])
	assert.Equal(t, float64(0), result.Extra["rowCount"])
	assert.Equal(t, "q-123", result.Extra["queryId"])
	_, ok := result.Extra["ignored"]
	assert.False(t, ok)
}

func TestParseStrictJSONText(t *testing.T) {
	text := `{"metadata": {"value": {"placeInOrder": 0, "type": "VARCHAR"}}, "data": [["Delta"]], "done": true}`

	result, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "Delta", result.Rows[0]["value"])
	assert.Equal(t, true, result.Extra["done"])
}

func TestParsePermissiveLiteralText(t *testing.T) {
	text := `{'metadata': {'value': {'placeInOrder': 0, 'type': 'VARCHAR'}}, 'data': [['Delta', None]], 'done': True, 'partial': False}`

	result, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, result.Columns)
	assert.Equal(t, "Delta", result.Rows[0]["value"])
	assert.Equal(t, true, result.Extra["done"])
}

func TestParseRejectsGarbageText(t *testing.T) {
	_, err := Parse("definitely not a payload")
	assert.Error(t, err)
}

func TestLiteralToJSONEscapes(t *testing.T) {
	out, err := literalToJSON(`{'a': 'it\'s "quoted"', 'b': None}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "it's \"quoted\"", "b": null}`, out)
}
