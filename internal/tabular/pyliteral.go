package tabular

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parsePermissive handles payloads serialized as Python-style literals:
// single-quoted strings and the True/False/None keywords. The text is
// rewritten into strict JSON and decoded.
func parsePermissive(text string) (map[string]any, error) {
	rewritten, err := literalToJSON(text)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(rewritten), &obj); err != nil {
		return nil, fmt.Errorf("payload is neither JSON nor literal syntax: %w", err)
	}
	return obj, nil
}

func literalToJSON(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\'':
			i++
			b.WriteByte('"')
			closed := false
			for i < len(s) {
				c = s[i]
				if c == '\\' && i+1 < len(s) {
					next := s[i+1]
					if next == '\'' {
						b.WriteByte('\'')
					} else {
						b.WriteByte('\\')
						b.WriteByte(next)
					}
					i += 2
					continue
				}
				if c == '\'' {
					i++
					closed = true
					break
				}
				if c == '"' {
					b.WriteString(`\"`)
				} else {
					b.WriteByte(c)
				}
				i++
			}
			if !closed {
				return "", fmt.Errorf("unterminated string literal")
			}
			b.WriteByte('"')

		case c == '"':
			b.WriteByte(c)
			i++
			for i < len(s) {
				c = s[i]
				if c == '\\' && i+1 < len(s) {
					b.WriteByte(c)
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
				b.WriteByte(c)
				i++
				if c == '"' {
					break
				}
			}

		case isWordByte(c):
			start := i
			for i < len(s) && isWordByte(s[i]) {
				i++
			}
			switch word := s[start:i]; word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				b.WriteString(word)
			}

		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
