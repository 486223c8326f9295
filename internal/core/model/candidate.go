package model

import (
	"fmt"
	"strings"
)

// MemoryCandidate is a single durable fact extracted from conversation,
// awaiting reconciliation against the attribute store.
type MemoryCandidate struct {
	Entity    string `json:"entity"`
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// NewMemoryCandidate trims all three fields and rejects any that end up
// empty. Construct candidates through here; a zero-value struct is not a
// valid candidate.
func NewMemoryCandidate(entity, attribute, value string) (MemoryCandidate, error) {
	c := MemoryCandidate{
		Entity:    strings.TrimSpace(entity),
		Attribute: strings.TrimSpace(attribute),
		Value:     strings.TrimSpace(value),
	}
	if c.Entity == "" {
		return MemoryCandidate{}, fmt.Errorf("entity must be non-empty")
	}
	if c.Attribute == "" {
		return MemoryCandidate{}, fmt.Errorf("attribute must be non-empty")
	}
	if c.Value == "" {
		return MemoryCandidate{}, fmt.Errorf("value must be non-empty")
	}
	return c, nil
}
