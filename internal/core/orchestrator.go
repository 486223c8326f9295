package core

import (
	"context"
	"fmt"

	"github.com/agenthands/recall/internal/core/extraction"
	"github.com/agenthands/recall/internal/core/model"
	"github.com/agenthands/recall/internal/core/reconcile"
	"github.com/agenthands/recall/internal/tabular"
)

// Orchestrator runs the end-to-end flow: LLM extraction of memory
// candidates, then reconciliation into the attribute store. It returns both
// the candidates and the upsert report for observability.
type Orchestrator struct {
	Extractor  *extraction.Extractor
	Attributes *reconcile.Client
	Opts       reconcile.Options
}

func NewOrchestrator(extractor *extraction.Extractor, attributes *reconcile.Client, opts reconcile.Options) *Orchestrator {
	return &Orchestrator{
		Extractor:  extractor,
		Attributes: attributes,
		Opts:       opts,
	}
}

type UpdateInput struct {
	UserID         string
	Utterance      string
	SessionVars    map[string]string
	RecentDialogue []extraction.DialogueTurn
	PastFacts      []string
	DryRun         bool
}

// Update extracts candidates from the utterance and, unless DryRun is set,
// upserts them for the user. The report is nil in dry-run mode.
func (o *Orchestrator) Update(ctx context.Context, in UpdateInput) ([]model.MemoryCandidate, *model.UpsertReport, error) {
	candidates, err := o.Extractor.Extract(ctx, extraction.Input{
		Utterance:      in.Utterance,
		SessionVars:    in.SessionVars,
		RecentDialogue: in.RecentDialogue,
		PastFacts:      in.PastFacts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("extraction failed: %w", err)
	}

	if in.DryRun {
		return candidates, nil, nil
	}

	report, err := o.Attributes.UpsertFromCandidates(ctx, in.UserID, candidates, o.Opts)
	if err != nil {
		return candidates, nil, fmt.Errorf("upsert failed: %w", err)
	}
	return candidates, report, nil
}

// Get returns stored attributes textually relevant to the utterance.
func (o *Orchestrator) Get(ctx context.Context, userID, utterance string) []tabular.Row {
	return o.Attributes.FetchRelevantAttributes(ctx, utterance)
}
