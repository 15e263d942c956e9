package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/narrator"
	"github.com/ternarybob/quanta/internal/personas"
	"github.com/ternarybob/quanta/internal/risk"
)

// handlePersonaAnalysis runs one persona's analysis and narrates the result
func handlePersonaAnalysis(analyzer personas.Analyzer, narr narrator.Narrator, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || ticker == "" {
			return textResult("Error: ticker parameter is required"), nil
		}

		bundle, err := analyzer.Analyze(ctx, ticker)
		if err != nil {
			logger.Error().Err(err).Str("persona", analyzer.Name()).Str("ticker", ticker).Msg("Analysis failed")
			return textResult("Analysis error: " + err.Error()), nil
		}

		signal := narr.Generate(ctx, analyzer.SystemPrompt(), bundle)

		return textResult(formatAgentSignal(signal, bundle)), nil
	}
}

// handleRiskAnalysis implements the risk_analysis tool
func handleRiskAnalysis(sizer *risk.Sizer, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || ticker == "" {
			return textResult("Error: ticker parameter is required"), nil
		}

		result, err := sizer.Analyze(ctx, ticker)
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("Risk analysis failed")
			return textResult("Risk analysis error: " + err.Error()), nil
		}

		return textResult(formatRiskAnalysis(result)), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
