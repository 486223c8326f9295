package common

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ParseJSON cleans and unmarshals a JSON object string into a type T.
// It handles common LLM quirks like surrounding markdown or extra text.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := response

	// Find first '{' and last '}'
	start := -1
	end := -1

	for i, c := range jsonStr {
		if c == '{' {
			start = i
			break
		}
	}
	for i := len(jsonStr) - 1; i >= 0; i-- {
		if c := jsonStr[i]; c == '}' {
			end = i + 1
			break
		}
	}

	if start != -1 && end != -1 && start < end {
		jsonStr = jsonStr[start:end]
	} else if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}

var jsonArrayRegex = regexp.MustCompile(`(?s)\[\s*(?:\{.*?\}\s*,\s*)*\{.*?\}\s*\]`)

// ParseJSONArray unmarshals a JSON array of objects from an LLM response.
// It tries the whole response first, then plucks the first array-looking
// region out of any surrounding prose. A response with no array yields an
// empty slice, not an error.
func ParseJSONArray[T any](response string) ([]T, error) {
	var out []T
	if err := json.Unmarshal([]byte(response), &out); err == nil {
		return out, nil
	}

	if match := jsonArrayRegex.FindString(response); match != "" {
		if err := json.Unmarshal([]byte(match), &out); err == nil {
			return out, nil
		}
	}

	return nil, nil
}
