package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/recall/internal/config"
	"github.com/agenthands/recall/internal/core/extraction"
	"github.com/agenthands/recall/internal/core/reconcile"
)

type mockLLM struct {
	Response string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return m.Response, nil
}

type mockQuerier struct{}

func (mockQuerier) ReadData(ctx context.Context, sql string) ([]byte, error) {
	return []byte(`{"data": [], "metadata": {}, "done": true}`), nil
}

type mockIngestor struct {
	Calls int
}

func (m *mockIngestor) IngestRows(ctx context.Context, rows []map[string]any) (int, string) {
	m.Calls++
	return 201, ""
}

func newTestOrchestrator(t *testing.T, llmResponse string, ingest *mockIngestor) *Orchestrator {
	t.Helper()
	llm := &mockLLM{Response: llmResponse}
	extractor := extraction.NewExtractor(llm, config.ExtractionPrompts{})
	client, err := reconcile.NewClient(mockQuerier{}, ingest, nil, reconcile.Config{
		TenantID:     "tenant-1",
		AttributeDLM: "UserAttributes__dlm",
	})
	require.NoError(t, err)
	return NewOrchestrator(extractor, client, reconcile.DefaultOptions())
}

func TestUpdateExtractsAndUpserts(t *testing.T) {
	ingest := &mockIngestor{}
	orch := newTestOrchestrator(t,
		`[{"entity": "Alex", "attribute": "seat_preference", "value": "window"}]`, ingest)

	candidates, report, err := orch.Update(context.Background(), UpdateInput{
		UserID:    "alex-id",
		Utterance: "I prefer window seats",
	})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, ingest.Calls)
}

func TestUpdateDryRunSkipsUpsert(t *testing.T) {
	ingest := &mockIngestor{}
	orch := newTestOrchestrator(t,
		`[{"entity": "Alex", "attribute": "seat_preference", "value": "window"}]`, ingest)

	candidates, report, err := orch.Update(context.Background(), UpdateInput{
		UserID:    "alex-id",
		Utterance: "I prefer window seats",
		DryRun:    true,
	})
	require.NoError(t, err)

	assert.Len(t, candidates, 1)
	assert.Nil(t, report)
	assert.Equal(t, 0, ingest.Calls)
}

func TestUpdateNoFacts(t *testing.T) {
	ingest := &mockIngestor{}
	orch := newTestOrchestrator(t, "[]", ingest)

	candidates, report, err := orch.Update(context.Background(), UpdateInput{
		UserID:    "alex-id",
		Utterance: "what's the weather?",
	})
	require.NoError(t, err)

	assert.Empty(t, candidates)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Added+report.Updated+report.Skipped+report.Errors)
	assert.Equal(t, 0, ingest.Calls)
}
