// Package tabular reassembles the query service's column-oriented wire
// payload into named, type-coerced rows. The service returns positional
// value arrays plus a metadata map describing each column's name, position
// and declared type.
package tabular

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one record keyed by column name.
type Row map[string]any

type Result struct {
	Columns []string
	Rows    []Row
	// Extra holds top-level payload fields copied through verbatim
	// (row counts, query ids, timing, completion flags).
	Extra map[string]any
}

// DefaultPassthroughKeys are the top-level fields the query service is known
// to emit alongside data and metadata.
var DefaultPassthroughKeys = []string{"done", "startTime", "endTime", "rowCount", "queryId"}

type column struct {
	name  string
	order int
	typ   string
}

// Parse normalizes a payload with type coercion and the default passthrough
// keys. The payload may be a pre-parsed map, or JSON text as string/[]byte;
// text that is not strict JSON falls back to a permissive literal syntax
// that tolerates single quotes and True/False/None.
func Parse(payload any) (*Result, error) {
	return ParseWith(payload, true, DefaultPassthroughKeys)
}

func ParseWith(payload any, coerceTypes bool, passthroughKeys []string) (*Result, error) {
	obj, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	cols := columnsFromMetadata(obj["metadata"])

	data, _ := obj["data"].([]any)

	result := &Result{
		Columns: make([]string, 0, len(cols)),
		Rows:    make([]Row, 0, len(data)),
		Extra:   map[string]any{},
	}
	for _, c := range cols {
		result.Columns = append(result.Columns, c.name)
	}

	for _, rawRow := range data {
		values, _ := rawRow.([]any)
		mapped := make(Row, len(cols))
		for idx, c := range cols {
			var raw any
			if idx < len(values) {
				raw = values[idx]
			}
			// Short rows pad with nulls rather than failing.
			if coerceTypes {
				mapped[c.name] = coerceValue(raw, c.typ)
			} else {
				mapped[c.name] = raw
			}
		}
		result.Rows = append(result.Rows, mapped)
	}

	for _, k := range passthroughKeys {
		if v, ok := obj[k]; ok {
			result.Extra[k] = v
		}
	}

	return result, nil
}

func decodePayload(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case map[string]any:
		return p, nil
	case []byte:
		return decodeText(string(p))
	case string:
		return decodeText(p)
	default:
		return nil, fmt.Errorf("unsupported payload type %T", payload)
	}
}

func decodeText(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}
	return parsePermissive(text)
}

func columnsFromMetadata(md any) []column {
	meta, _ := md.(map[string]any)
	cols := make([]column, 0, len(meta))
	for name, raw := range meta {
		info, _ := raw.(map[string]any)
		cols = append(cols, column{
			name:  name,
			order: intField(info, "placeInOrder"),
			typ:   stringField(info, "type", "VARCHAR"),
		})
	}
	// Name is the tie-break: map iteration gives no insertion order to be
	// stable against.
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].order != cols[j].order {
			return cols[i].order < cols[j].order
		}
		return cols[i].name < cols[j].name
	})
	return cols
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// coerceValue applies the declared column type. It never fails: any value
// that does not parse passes through unchanged.
func coerceValue(value any, colType string) any {
	if value == nil {
		return nil
	}

	t := strings.ToUpper(colType)
	if strings.Contains(t, "TIMESTAMP") {
		s, ok := value.(string)
		if !ok {
			return value
		}
		if iso, ok := normalizeTimestamp(s); ok {
			return iso
		}
		return value
	}

	if strings.Contains(t, "DECIMAL") || strings.Contains(t, "NUMERIC") ||
		strings.Contains(t, "DOUBLE") || strings.Contains(t, "FLOAT") || strings.Contains(t, "REAL") {
		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
		return value
	}

	return value
}

// normalizeTimestamp accepts the service's "<datetime> UTC" suffix form or
// an ISO-8601-ish string and emits canonical ISO-8601 in UTC with a Z
// suffix. Timezone-naive inputs are assumed UTC.
func normalizeTimestamp(s string) (string, bool) {
	s, _ = strings.CutSuffix(s, " UTC")

	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatUTC(t), true
		}
	}
	return "", false
}

func formatUTC(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	return t.Format("2006-01-02T15:04:05.999999999") + "Z"
}
