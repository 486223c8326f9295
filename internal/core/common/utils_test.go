package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

func TestParseJSONStripsSurroundingText(t *testing.T) {
	out, err := ParseJSON[pair]("Here you go:\n```json\n{\"a\": \"1\", \"b\": \"2\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "1", out.A)
	assert.Equal(t, "2", out.B)
}

func TestParseJSONNoObject(t *testing.T) {
	_, err := ParseJSON[pair]("nothing here")
	assert.Error(t, err)
}

func TestParseJSONArrayDirect(t *testing.T) {
	out, err := ParseJSONArray[pair](`[{"a": "1", "b": "2"}]`)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].A)
}

func TestParseJSONArrayFromProse(t *testing.T) {
	out, err := ParseJSONArray[pair]("Sure:\n[{\"a\": \"1\", \"b\": \"2\"}, {\"a\": \"3\", \"b\": \"4\"}]\nDone.")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestParseJSONArrayNoArray(t *testing.T) {
	out, err := ParseJSONArray[pair]("no facts today")
	require.NoError(t, err)
	assert.Empty(t, out)
}
