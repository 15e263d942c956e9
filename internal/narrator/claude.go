package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/common"
)

// ClaudeNarrator narrates analysis bundles using the Anthropic Claude API.
type ClaudeNarrator struct {
	client      anthropic.Client
	logger      arbor.ILogger
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewClaudeNarrator creates a Claude-backed narrator from configuration.
func NewClaudeNarrator(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeNarrator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for the Claude narrator (set via ANTHROPIC_API_KEY, QUANTA_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude narrator initialized")

	return &ClaudeNarrator{
		client:      client,
		logger:      logger,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
		timeout:     timeout,
	}, nil
}

// Generate narrates the bundle in the persona's voice. Sampling or parse
// failures return the deterministic neutral fallback.
func (n *ClaudeNarrator) Generate(ctx context.Context, systemPrompt string, bundle *analysis.Bundle) analysis.AgentSignal {
	timeoutCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	userMessage, err := buildUserMessage(bundle)
	if err != nil {
		n.logger.Warn().Err(err).Str("ticker", bundle.Ticker).Msg("Failed to encode analysis bundle")
		return fallbackSignal(bundle)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(n.model),
		MaxTokens: int64(n.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if n.temperature > 0 {
		params.Temperature = anthropic.Float(float64(n.temperature))
	}

	resp, err := n.client.Messages.New(timeoutCtx, params)
	if err != nil {
		n.logger.Warn().Err(err).Str("ticker", bundle.Ticker).Msg("Claude sampling failed, defaulting to neutral")
		return fallbackSignal(bundle)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	signal, err := parseSignal(text.String(), bundle)
	if err != nil {
		n.logger.Warn().Err(err).Str("ticker", bundle.Ticker).Msg("Error in analysis, defaulting to neutral")
		return fallbackSignal(bundle)
	}
	return signal
}

// buildUserMessage embeds the bundle JSON in the narration prompt.
func buildUserMessage(bundle *analysis.Bundle) (string, error) {
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to encode bundle: %w", err)
	}

	return fmt.Sprintf(`Based on the following data, create the investment signal in the persona's voice:

Analysis Data for %s:
%s

Return the trading signal in the following JSON format exactly:
{
  "ticker": the company ticker,
  "signal": "bullish" | "bearish" | "neutral",
  "confidence": float between 0 and 100,
  "reasoning": "string"
}`, bundle.Ticker, data), nil
}

// parseSignal decodes a narrated response into a typed signal.
func parseSignal(raw string, bundle *analysis.Bundle) (analysis.AgentSignal, error) {
	var signal analysis.AgentSignal
	if err := json.Unmarshal([]byte(stripMarkdown(raw)), &signal); err != nil {
		return analysis.AgentSignal{}, fmt.Errorf("failed to parse narrated signal: %w", err)
	}
	if signal.Ticker == "" {
		signal.Ticker = bundle.Ticker
	}
	signal.Agent = bundle.Agent
	return signal, nil
}
