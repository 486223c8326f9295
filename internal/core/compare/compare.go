// Package compare holds the two value-equality strategies the
// reconciliation engine can run with: plain string comparison, or a
// comparison delegated to an LLM judge.
package compare

import (
	"context"
	"strings"
)

// Comparator decides whether a stored value and a newly extracted value are
// the same. The engine depends only on this capability, never on a concrete
// strategy.
type Comparator interface {
	Equal(ctx context.Context, a, b string) (bool, error)
}

// Literal compares trimmed strings, optionally case-folded.
type Literal struct {
	CaseInsensitive bool
}

func (l Literal) Equal(_ context.Context, a, b string) (bool, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if l.CaseInsensitive {
		return strings.EqualFold(a, b), nil
	}
	return a == b, nil
}
