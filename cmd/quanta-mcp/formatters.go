package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/risk"
)

// formatAgentSignal renders a narrated signal and its computed backing as
// markdown
func formatAgentSignal(signal analysis.AgentSignal, bundle *analysis.Bundle) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s: %s\n\n", signal.Agent, signal.Ticker))
	sb.WriteString(fmt.Sprintf("**Signal:** %s\n", signal.Signal))
	sb.WriteString(fmt.Sprintf("**Confidence:** %.1f\n", signal.Confidence))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", bundle.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("### Reasoning\n\n")
	sb.WriteString(signal.Reasoning)
	sb.WriteString("\n")

	if bundle.MaxScore > 0 {
		sb.WriteString(fmt.Sprintf("\n**Score:** %.2f / %.2f\n", bundle.Score, bundle.MaxScore))
	}
	if bundle.MarketCap != nil {
		sb.WriteString(fmt.Sprintf("**Market Cap:** $%.2f\n", *bundle.MarketCap))
	}
	if bundle.MarginOfSafety != nil {
		sb.WriteString(fmt.Sprintf("**Margin of Safety:** %.1f%%\n", *bundle.MarginOfSafety*100))
	}

	if len(bundle.SubScores) > 0 {
		sb.WriteString("\n### Sub-scores\n\n")
		for _, sub := range bundle.SubScores {
			sb.WriteString(fmt.Sprintf("- **%s** (%.2f/%.2f): %s\n", sub.Name, sub.Score, sub.MaxScore, sub.Details))
		}
	}

	if len(bundle.Valuations) > 0 {
		sb.WriteString("\n### Valuations\n\n")
		for _, est := range bundle.Valuations {
			if est.Available {
				sb.WriteString(fmt.Sprintf("- **%s**: $%.2f (%s)\n", est.Method, est.Value, est.Details))
			} else {
				sb.WriteString(fmt.Sprintf("- **%s**: unavailable (%s)\n", est.Method, est.Details))
			}
		}
	}

	return sb.String()
}

// formatRiskAnalysis renders a position sizing result as markdown
func formatRiskAnalysis(result *risk.Analysis) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Risk Analysis: %s\n\n", result.Ticker))
	sb.WriteString(fmt.Sprintf("**Current Price:** $%.2f\n", result.CurrentPrice))
	sb.WriteString(fmt.Sprintf("**Remaining Position Limit:** $%.2f\n\n", result.RemainingPositionLimit))

	sb.WriteString("### Reasoning\n\n")
	sb.WriteString(fmt.Sprintf("- Portfolio value: $%.2f\n", result.Reasoning.PortfolioValue))
	sb.WriteString(fmt.Sprintf("- Current position value: $%.2f\n", result.Reasoning.CurrentPositionValue))
	sb.WriteString(fmt.Sprintf("- Position limit (20%% of portfolio): $%.2f\n", result.Reasoning.PositionLimit))
	sb.WriteString(fmt.Sprintf("- Remaining limit before cash cap: $%.2f\n", result.Reasoning.RemainingLimit))
	sb.WriteString(fmt.Sprintf("- Available cash: $%.2f\n", result.Reasoning.AvailableCash))

	return sb.String()
}
