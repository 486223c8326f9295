package model

import "fmt"

const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// UpsertItemResult records the outcome for one reconciled candidate.
type UpsertItemResult struct {
	Attribute  string  `json:"attribute"`
	OldValue   *string `json:"old_value,omitempty"`
	NewValue   string  `json:"new_value"`
	Action     string  `json:"action"`
	StatusCode *int    `json:"status_code,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// UpsertReport accumulates per-attribute outcomes over one reconciliation
// pass. Added+Updated+Skipped+Errors always equals the number of candidates
// processed after dedupe.
type UpsertReport struct {
	UserID  string             `json:"user_id"`
	Added   int                `json:"added"`
	Updated int                `json:"updated"`
	Skipped int                `json:"skipped"`
	Errors  int                `json:"errors"`
	Details []UpsertItemResult `json:"details"`
}

func (r *UpsertReport) String() string {
	return fmt.Sprintf("UpsertReport(user_id=%s, added=%d, updated=%d, skipped=%d, errors=%d)",
		r.UserID, r.Added, r.Updated, r.Skipped, r.Errors)
}
