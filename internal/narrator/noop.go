package narrator

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
)

// NoopNarrator echoes the computed classification without sampling a model.
// Used when no API key is configured.
type NoopNarrator struct {
	logger arbor.ILogger
}

// NewNoopNarrator creates a pass-through narrator.
func NewNoopNarrator(logger arbor.ILogger) *NoopNarrator {
	return &NoopNarrator{logger: logger}
}

// Generate returns the bundle's own classification and rationale.
func (n *NoopNarrator) Generate(ctx context.Context, systemPrompt string, bundle *analysis.Bundle) analysis.AgentSignal {
	n.logger.Debug().Str("ticker", bundle.Ticker).Msg("Narration disabled, returning computed signal")
	return analysis.AgentSignal{
		Agent:      bundle.Agent,
		Ticker:     bundle.Ticker,
		Signal:     bundle.Signal,
		Confidence: bundle.Confidence,
		Reasoning:  bundle.Reasoning,
	}
}
