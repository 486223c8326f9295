// Package reconcile decides, for each extracted memory candidate, whether
// the attribute store needs a create, an update, or nothing, and issues the
// mutation. It never deletes a row.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/recall/internal/core/compare"
	"github.com/agenthands/recall/internal/core/model"
	"github.com/agenthands/recall/internal/tabular"
)

const timestampLayout = "2006-01-02 15:04:05"

// Querier executes a SQL query against the attribute store and returns the
// raw tabular payload.
type Querier interface {
	ReadData(ctx context.Context, sql string) ([]byte, error)
}

// Ingestor pushes row objects into the store. A zero status means the
// request produced no response; error text is empty on success.
type Ingestor interface {
	IngestRows(ctx context.Context, rows []map[string]any) (status int, errMsg string)
}

// Config fixes the store resources and tenant for the client's lifetime.
type Config struct {
	TenantID     string
	AttributeDLM string
	VectorIndex  string
	ChunkTable   string
	// SearchLimit caps relevance-search results per candidate. Zero means 5.
	SearchLimit int
}

// Options tune one reconciliation pass. DefaultOptions matches the
// behavior callers almost always want.
type Options struct {
	NormalizeAttributes    bool
	CaseInsensitiveCompare bool
	DedupeLastWriteWins    bool
	// ScopedFetch re-fetches a fresh, attribute-scoped result per candidate
	// via relevance search instead of reading the full attribute set once.
	// Used with a judged comparator, where freshly-scoped rows reduce
	// comparison ambiguity.
	ScopedFetch bool
}

func DefaultOptions() Options {
	return Options{
		NormalizeAttributes:    true,
		CaseInsensitiveCompare: true,
		DedupeLastWriteWins:    true,
	}
}

// Client is the reconciliation engine over one attribute store.
type Client struct {
	query      Querier
	ingest     Ingestor
	comparator compare.Comparator
	cfg        Config

	now   func() time.Time
	newID func() string
}

// NewClient wires the engine to its collaborators. comparator may be nil,
// in which case each pass uses literal comparison per its Options.
func NewClient(query Querier, ingest Ingestor, comparator compare.Comparator, cfg Config) (*Client, error) {
	if query == nil || ingest == nil {
		return nil, fmt.Errorf("query and ingest collaborators are required")
	}
	if cfg.AttributeDLM == "" {
		return nil, fmt.Errorf("attribute DLM name is required")
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	return &Client{
		query:      query,
		ingest:     ingest,
		comparator: comparator,
		cfg:        cfg,
		now:        time.Now,
		newID:      newRowID,
	}, nil
}

func newRowID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// UpsertFromCandidates reconciles a candidate batch for one user. Every
// candidate surviving dedupe produces exactly one detail entry; mutation
// failures are recorded per attribute and never abort the batch.
func (c *Client) UpsertFromCandidates(ctx context.Context, userID string, candidates []model.MemoryCandidate, opts Options) (*model.UpsertReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	report := &model.UpsertReport{UserID: userID}
	valueCmp := c.valueComparator(opts)
	rowCmp := c.rowMatcher()

	work := candidates
	if opts.DedupeLastWriteWins {
		work = dedupe(candidates, opts.NormalizeAttributes)
	}

	// Strategy (i): one fetch for the whole pass. Strategy (ii) fetches
	// per candidate inside the loop.
	var stored []tabular.Row
	if !opts.ScopedFetch {
		stored = c.FetchUserAttributes(ctx, userID)
	}

	for _, cand := range work {
		key := attributeKey(cand.Attribute, opts.NormalizeAttributes)
		newValue := strings.TrimSpace(cand.Value)

		rows := stored
		if opts.ScopedFetch {
			rows = c.fetchScopedRows(ctx, key)
		}

		match, err := c.firstMatch(ctx, rowCmp, rows, key)
		if err != nil {
			c.recordError(report, model.UpsertItemResult{
				Attribute: key,
				NewValue:  newValue,
				Action:    model.ActionSkipped,
				Error:     err.Error(),
			})
			continue
		}

		var oldValue *string
		var rowID string
		if match != nil {
			if v, ok := match["value"].(string); ok {
				oldValue = &v
			}
			rowID, _ = match["id"].(string)
		}

		switch {
		case oldValue != nil:
			equal, err := valueCmp.Equal(ctx, *oldValue, newValue)
			if err != nil {
				c.recordError(report, model.UpsertItemResult{
					Attribute: key,
					OldValue:  oldValue,
					NewValue:  newValue,
					Action:    model.ActionSkipped,
					Error:     err.Error(),
				})
				continue
			}
			if equal {
				report.Skipped++
				report.Details = append(report.Details, model.UpsertItemResult{
					Attribute: key,
					OldValue:  oldValue,
					NewValue:  newValue,
					Action:    model.ActionSkipped,
				})
				continue
			}
			c.updateAttribute(ctx, report, rowID, key, oldValue, newValue)

		default:
			c.createAttribute(ctx, report, userID, key, newValue)
		}
	}

	return report, nil
}

// FetchUserAttributes reads the user's full attribute set. Any fetch or
// parse failure yields an empty set: the engine then treats every candidate
// as new, which is always safe under upsert-only semantics.
func (c *Client) FetchUserAttributes(ctx context.Context, userID string) []tabular.Row {
	payload, err := c.query.ReadData(ctx, c.allAttributesSQL(userID))
	if err != nil {
		return nil
	}
	result, err := tabular.Parse(payload)
	if err != nil {
		return nil
	}
	return result.Rows
}

// FetchRelevantAttributes runs a similarity search over the attribute
// chunks for the given utterance. Failures yield an empty set.
func (c *Client) FetchRelevantAttributes(ctx context.Context, utterance string) []tabular.Row {
	payload, err := c.query.ReadData(ctx, c.relevantSQL(utterance, 1))
	if err != nil {
		return nil
	}
	result, err := tabular.Parse(payload)
	if err != nil {
		return nil
	}
	return result.Rows
}

// fetchScopedRows is the per-candidate variant: a similarity search over
// the attribute key's text, joined back to the source rows so matches carry
// id, attribute and value.
func (c *Client) fetchScopedRows(ctx context.Context, attributeKey string) []tabular.Row {
	payload, err := c.query.ReadData(ctx, c.relevantRowsSQL(attributeKey, c.cfg.SearchLimit))
	if err != nil {
		return nil
	}
	result, err := tabular.Parse(payload)
	if err != nil {
		return nil
	}
	return result.Rows
}

// firstMatch returns the first stored row whose attribute field matches the
// key under the active comparator. Duplicate rows per attribute are not
// reconciled against each other; first match in store order is canonical.
func (c *Client) firstMatch(ctx context.Context, cmp compare.Comparator, rows []tabular.Row, key string) (tabular.Row, error) {
	for _, row := range rows {
		attr, ok := row["attribute"].(string)
		if !ok {
			continue
		}
		equal, err := cmp.Equal(ctx, attr, key)
		if err != nil {
			return nil, fmt.Errorf("row match failed for %q: %w", key, err)
		}
		if equal {
			return row, nil
		}
	}
	return nil, nil
}

func (c *Client) createAttribute(ctx context.Context, report *model.UpsertReport, userID, key, newValue string) {
	ts := c.now().UTC().Format(timestampLayout)
	row := map[string]any{
		"id":             c.newID(),
		"tenantId":       c.cfg.TenantID,
		"userId":         userID,
		"attribute":      key,
		"value":          newValue,
		"createdAt":      ts,
		"lastModifiedAt": ts,
		"updatedBy":      "system",
		"source":         "conversation",
	}

	status, errMsg := c.ingest.IngestRows(ctx, []map[string]any{row})
	item := model.UpsertItemResult{
		Attribute: key,
		NewValue:  newValue,
		Action:    model.ActionAdded,
	}
	if status != 0 {
		item.StatusCode = &status
	}
	if status >= 200 && status < 300 {
		report.Added++
		report.Details = append(report.Details, item)
		return
	}
	// A failed create leaves the attribute absent; the next pass retries
	// it as new.
	item.Error = errMsg
	c.recordError(report, item)
}

func (c *Client) updateAttribute(ctx context.Context, report *model.UpsertReport, rowID, key string, oldValue *string, newValue string) {
	row := map[string]any{
		"id":             rowID,
		"value":          newValue,
		"lastModifiedAt": c.now().UTC().Format(timestampLayout),
	}

	status, errMsg := c.ingest.IngestRows(ctx, []map[string]any{row})
	item := model.UpsertItemResult{
		Attribute: key,
		OldValue:  oldValue,
		NewValue:  newValue,
		Action:    model.ActionUpdated,
	}
	if status != 0 {
		item.StatusCode = &status
	}
	if status >= 200 && status < 300 {
		report.Updated++
		report.Details = append(report.Details, item)
		return
	}
	item.Error = errMsg
	c.recordError(report, item)
}

func (c *Client) recordError(report *model.UpsertReport, item model.UpsertItemResult) {
	report.Errors++
	report.Details = append(report.Details, item)
}

// valueComparator resolves the strategy for old-vs-new value equality: the
// injected comparator when one was constructed, else literal comparison
// per the pass options.
func (c *Client) valueComparator(opts Options) compare.Comparator {
	if c.comparator != nil {
		return c.comparator
	}
	return compare.Literal{CaseInsensitive: opts.CaseInsensitiveCompare}
}

// rowMatcher resolves the strategy for filtering stored rows by attribute
// key. Literal matching stays case-folded regardless of how values are
// compared; a judged comparator takes over row matching as well.
func (c *Client) rowMatcher() compare.Comparator {
	if c.comparator != nil {
		return c.comparator
	}
	return compare.Literal{CaseInsensitive: true}
}

func dedupe(candidates []model.MemoryCandidate, normalize bool) []model.MemoryCandidate {
	keys := make([]string, 0, len(candidates))
	byKey := make(map[string]model.MemoryCandidate, len(candidates))
	for _, cand := range candidates {
		key := attributeKey(cand.Attribute, normalize)
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = cand
	}

	out := make([]model.MemoryCandidate, 0, len(keys))
	for _, key := range keys {
		out = append(out, byKey[key])
	}
	return out
}

func attributeKey(attribute string, normalize bool) string {
	if !normalize {
		return attribute
	}
	key := strings.ToLower(strings.TrimSpace(attribute))
	return strings.ReplaceAll(key, " ", "_")
}

func (c *Client) allAttributesSQL(userID string) string {
	return fmt.Sprintf(`SELECT * FROM %q WHERE "userId" = '%s'`, c.cfg.AttributeDLM, escapeSQL(userID))
}

func (c *Client) relevantSQL(utterance string, limit int) string {
	return fmt.Sprintf(`SELECT index.RecordId, index.score, chunk.Chunk
FROM vector_search(TABLE(%s), '%s', '', %d) AS index
JOIN %s AS chunk ON index.RecordId = chunk.RecordId`,
		c.cfg.VectorIndex, escapeSQL(utterance), limit, c.cfg.ChunkTable)
}

func (c *Client) relevantRowsSQL(text string, limit int) string {
	return fmt.Sprintf(`SELECT attr.*
FROM vector_search(TABLE(%s), '%s', '', %d) AS index
JOIN %s AS attr ON index.RecordId = attr.id`,
		c.cfg.VectorIndex, escapeSQL(text), limit, c.cfg.AttributeDLM)
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
