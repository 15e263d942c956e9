// Package narrator turns computed analysis bundles into persona-voiced
// investment signals.
package narrator

import (
	"context"
	"strings"

	"github.com/ternarybob/quanta/internal/analysis"
)

// Narrator produces the final signal narrative for a bundle. The computed
// classification is authoritative; the narrator only phrases it. Every
// implementation degrades to a deterministic result rather than failing.
type Narrator interface {
	Generate(ctx context.Context, systemPrompt string, bundle *analysis.Bundle) analysis.AgentSignal
}

// fallbackSignal is the deterministic result used when narration cannot
// produce a parseable response.
func fallbackSignal(bundle *analysis.Bundle) analysis.AgentSignal {
	return analysis.AgentSignal{
		Agent:      bundle.Agent,
		Ticker:     bundle.Ticker,
		Signal:     analysis.SignalNeutral,
		Confidence: 0,
		Reasoning:  "Error in analysis, defaulting to neutral",
	}
}

// stripMarkdown removes code fences that models wrap around JSON output.
func stripMarkdown(in string) string {
	out := strings.ReplaceAll(in, "```json", "")
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}
