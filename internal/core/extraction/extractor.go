package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/recall/internal/config"
	"github.com/agenthands/recall/internal/core/common"
	"github.com/agenthands/recall/internal/core/model"
	"github.com/agenthands/recall/internal/llm"
)

const defaultSystemPrompt = `You are an AI assistant that extracts long-term, user-specific memory facts from a short conversation snippet.
Your job is to identify facts that should persist across sessions (e.g., preferences, stable attributes, recurring behaviors).
Do NOT include transient details (one-off dates/times, temporary search results, ephemeral steps).
Return ONLY a JSON array of objects, where each object has exactly these keys:
  - "entity": the user name or identifier (use "User" if unknown)
  - "attribute": the canonical attribute name (e.g., "preferred_airline", "seat_preference")
  - "value": the attribute value as a short string

Examples:
[
  {"entity": "Alex", "attribute": "preferred_airline", "value": "Delta Airlines"},
  {"entity": "Alex", "attribute": "seat_preference", "value": "window"}
]`

const defaultUserPrompt = `Context
-------
Session Variables:
%s

Recent Dialogue:
%s

Past Memory Facts:
%s

Instruction
-----------
Given the above, extract memory-worthy facts from the user's latest message:
"%s"

Output ONLY a JSON array of objects with keys "entity", "attribute", and "value".
If there are no memory-worthy facts, return [].`

// DialogueTurn is one prior line of conversation given to the extractor as
// context.
type DialogueTurn struct {
	Speaker string
	Text    string
}

type Input struct {
	Utterance      string
	SessionVars    map[string]string
	RecentDialogue []DialogueTurn
	PastFacts      []string
}

// Extractor calls the LLM to pull memory-worthy facts out of an utterance
// and returns them as validated candidates. Invalid rows in the model's
// output are dropped silently.
type Extractor struct {
	LLM     llm.LLMClient
	Prompts config.ExtractionPrompts
}

func NewExtractor(llmClient llm.LLMClient, prompts config.ExtractionPrompts) *Extractor {
	return &Extractor{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

func (e *Extractor) Extract(ctx context.Context, input Input) ([]model.MemoryCandidate, error) {
	prompt := e.renderPrompt(input)

	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate candidates: %w", err)
	}

	rows, err := common.ParseJSONArray[model.MemoryCandidate](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candidates: %w", err)
	}

	out := make([]model.MemoryCandidate, 0, len(rows))
	for _, row := range rows {
		c, err := model.NewMemoryCandidate(row.Entity, row.Attribute, row.Value)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Extractor) renderPrompt(input Input) string {
	system := e.Prompts.System
	if system == "" {
		system = defaultSystemPrompt
	}
	userTemplate := e.Prompts.User
	if userTemplate == "" {
		userTemplate = defaultUserPrompt
	}

	user := fmt.Sprintf(userTemplate,
		formatSessionVars(input.SessionVars),
		formatDialogue(input.RecentDialogue),
		formatBullets(input.PastFacts),
		strings.TrimSpace(input.Utterance),
	)

	return system + "\n\n" + user
}

func formatSessionVars(vars map[string]string) string {
	if len(vars) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(vars))
	for k, v := range vars {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, " ")
}

func formatDialogue(turns []DialogueTurn) string {
	if len(turns) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Speaker != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", t.Speaker, t.Text))
		} else {
			lines = append(lines, t.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func formatBullets(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}
