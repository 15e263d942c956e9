package main

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ternarybob/quanta/internal/personas"
)

// createPersonaTool returns the <persona>_analysis tool definition
func createPersonaTool(analyzer personas.Analyzer) mcp.Tool {
	return mcp.NewTool(analyzer.Name()+"_analysis",
		mcp.WithDescription(analyzer.Description()),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Ticker to perform analysis for"),
		),
	)
}

// createRiskTool returns the risk_analysis tool definition
func createRiskTool() mcp.Tool {
	return mcp.NewTool("risk_analysis",
		mcp.WithDescription("Calculates the remaining position limit and maximum order size for a ticker against the configured portfolio"),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Ticker to perform analysis for"),
		),
	)
}
