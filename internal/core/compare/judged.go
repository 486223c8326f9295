package compare

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/recall/internal/llm"
)

const (
	ModeExact    = "exact"
	ModeSemantic = "semantic"
	ModeFuzzy    = "fuzzy"
)

var modeInstructions = map[string]string{
	ModeExact:    "Treat the strings as equal only if they carry the same literal meaning, ignoring case and surrounding whitespace.",
	ModeSemantic: "Treat the strings as equal if they refer to the same real-world thing or meaning, even when worded differently (e.g. \"Delta\" and \"Delta Airlines\").",
	ModeFuzzy:    "Treat the strings as equal if they plausibly mean the same thing, tolerating typos, abbreviations and minor variations.",
}

// Judged delegates equality to an LLM. Verdicts in semantic and fuzzy mode
// are not guaranteed deterministic across calls, even with the judge's
// temperature pinned at zero; callers must tolerate that.
type Judged struct {
	LLM              llm.LLMClient
	Mode             string
	FallbackToSimple bool
	// Prompt overrides the built-in template. It receives the mode
	// instruction and the two strings, in that order.
	Prompt string

	// Literal serves the empty-input shortcut and the failure fallback.
	Literal Literal
}

func NewJudged(llmClient llm.LLMClient, mode string, fallbackToSimple bool) *Judged {
	if _, ok := modeInstructions[mode]; !ok {
		mode = ModeSemantic
	}
	return &Judged{
		LLM:              llmClient,
		Mode:             mode,
		FallbackToSimple: fallbackToSimple,
		Literal:          Literal{CaseInsensitive: true},
	}
}

func (j *Judged) Equal(ctx context.Context, a, b string) (bool, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return j.Literal.Equal(ctx, a, b)
	}

	promptTemplate := j.Prompt
	if promptTemplate == "" {
		promptTemplate = `You compare two short strings and decide whether they should be considered equal.
%s

String A: %q
String B: %q

Respond with exactly one word: TRUE or FALSE.`
	}

	prompt := fmt.Sprintf(promptTemplate, modeInstructions[j.Mode], a, b)

	response, err := j.LLM.Generate(ctx, prompt)
	if err != nil {
		if j.FallbackToSimple {
			return j.Literal.Equal(ctx, a, b)
		}
		return false, fmt.Errorf("judged comparison failed: %w", err)
	}

	verdict, err := parseVerdict(response)
	if err != nil {
		if j.FallbackToSimple {
			return j.Literal.Equal(ctx, a, b)
		}
		return false, err
	}
	return verdict, nil
}

// parseVerdict maps the judge's reply onto the strict two-valued result the
// engine needs. Anything other than the two expected tokens is a failure.
func parseVerdict(response string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(response)) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected judge verdict: %q", strings.TrimSpace(response))
	}
}
