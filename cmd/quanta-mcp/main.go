package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/quanta/internal/common"
	"github.com/ternarybob/quanta/internal/findata"
	"github.com/ternarybob/quanta/internal/interfaces"
	"github.com/ternarybob/quanta/internal/narrator"
	"github.com/ternarybob/quanta/internal/personas"
	"github.com/ternarybob/quanta/internal/risk"
	badgerstorage "github.com/ternarybob/quanta/internal/storage/badger"
)

func main() {
	configPath := os.Getenv("QUANTA_CONFIG")
	if configPath == "" {
		configPath = "quanta.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	client := newDatasetsClient(config, storageManager.CacheStorage(), logger)

	narr := newNarrator(config, logger)

	registry := personas.NewRegistry(client, logger)

	sizer := risk.NewSizer(portfolioFromConfig(config.Portfolio), client.LatestPrice, logger)

	mcpServer := server.NewMCPServer(
		"quanta",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	for _, analyzer := range registry.All() {
		mcpServer.AddTool(createPersonaTool(analyzer), handlePersonaAnalysis(analyzer, narr, logger))
	}
	mcpServer.AddTool(createRiskTool(), handleRiskAnalysis(sizer, logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}

// newDatasetsClient wires the financial datasets client with the configured
// base URL, rate limit, timeout, and response cache.
func newDatasetsClient(config *common.Config, cache interfaces.CacheStorage, logger arbor.ILogger) *findata.Client {
	opts := []findata.ClientOption{
		findata.WithLogger(logger),
	}
	if config.Datasets.URL != "" {
		opts = append(opts, findata.WithBaseURL(config.Datasets.URL))
	}
	if config.Datasets.RateLimit > 0 {
		opts = append(opts, findata.WithRateLimit(config.Datasets.RateLimit))
	}
	if timeout, err := time.ParseDuration(config.Datasets.Timeout); err == nil && timeout > 0 {
		opts = append(opts, findata.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	if config.Datasets.CacheEnabled {
		opts = append(opts, findata.WithCache(cache))
	}
	return findata.NewClient(config.Datasets.APIKey, opts...)
}

// newNarrator selects the Claude narrator when an API key is configured and
// the deterministic passthrough otherwise.
func newNarrator(config *common.Config, logger arbor.ILogger) narrator.Narrator {
	if config.Claude.APIKey == "" {
		logger.Warn().Msg("No Claude API key configured, narration disabled")
		return narrator.NewNoopNarrator(logger)
	}
	claude, err := narrator.NewClaudeNarrator(&config.Claude, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Claude narrator unavailable, narration disabled")
		return narrator.NewNoopNarrator(logger)
	}
	return claude
}

func portfolioFromConfig(config common.PortfolioConfig) risk.Portfolio {
	positions := make([]risk.Position, 0, len(config.Positions))
	for _, p := range config.Positions {
		positions = append(positions, risk.Position{Ticker: p.Ticker, Long: p.Long, Short: p.Short})
	}
	return risk.Portfolio{
		Cash:              config.Cash,
		MarginRequirement: config.MarginRequirement,
		Positions:         positions,
	}
}
