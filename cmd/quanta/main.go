package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/common"
	"github.com/ternarybob/quanta/internal/findata"
	"github.com/ternarybob/quanta/internal/interfaces"
	"github.com/ternarybob/quanta/internal/narrator"
	"github.com/ternarybob/quanta/internal/personas"
	"github.com/ternarybob/quanta/internal/risk"
	badgerstorage "github.com/ternarybob/quanta/internal/storage/badger"
)

var (
	configPath   = flag.String("config", "", "Configuration file path")
	ticker       = flag.String("ticker", "", "Ticker to analyze")
	persona      = flag.String("persona", "", "Persona to run (default: all)")
	riskOnly     = flag.Bool("risk", false, "Run position sizing only")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Quanta version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	path := *configPath
	if path == "" {
		if _, err := os.Stat("quanta.toml"); err == nil {
			path = "quanta.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	if *ticker == "" {
		logger.Fatal().Msg("No ticker specified, use -ticker")
		os.Exit(1)
	}

	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
		os.Exit(1)
	}
	defer storageManager.Close()

	client := newDatasetsClient(config, storageManager, logger)
	registry := personas.NewRegistry(client, logger)
	narr := newNarrator(config, logger)
	sizer := risk.NewSizer(portfolioFromConfig(config.Portfolio), client.LatestPrice, logger)

	// Analyses run to completion unless interrupted
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *riskOnly {
		runRisk(ctx, sizer, *ticker, logger)
		return
	}

	analyzers, err := selectAnalyzers(registry, *persona)
	if err != nil {
		logger.Fatal().Err(err).Msg("Unknown persona")
		os.Exit(1)
	}

	for _, analyzer := range analyzers {
		logger.Info().Str("persona", analyzer.Name()).Str("ticker", *ticker).Msg("Running analysis")
		bundle, err := analyzer.Analyze(ctx, *ticker)
		if err != nil {
			logger.Error().Err(err).Str("persona", analyzer.Name()).Msg("Analysis failed")
			continue
		}
		signalOut := narr.Generate(ctx, analyzer.SystemPrompt(), bundle)
		printJSON(map[string]any{
			"signal": signalOut,
			"bundle": bundle,
		})
	}
}

func selectAnalyzers(registry *personas.Registry, name string) ([]personas.Analyzer, error) {
	if name == "" {
		return registry.All(), nil
	}
	analyzer, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("no persona named %q (available: %s)", name, strings.Join(registry.Names(), ", "))
	}
	return []personas.Analyzer{analyzer}, nil
}

func runRisk(ctx context.Context, sizer *risk.Sizer, ticker string, logger arbor.ILogger) {
	result, err := sizer.Analyze(ctx, ticker)
	if err != nil {
		logger.Fatal().Err(err).Str("ticker", ticker).Msg("Risk analysis failed")
		os.Exit(1)
	}
	printJSON(result)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// newDatasetsClient wires the financial datasets client with the configured
// base URL, rate limit, timeout, and response cache.
func newDatasetsClient(config *common.Config, storage interfaces.StorageManager, logger arbor.ILogger) *findata.Client {
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
		opts = append(opts, findata.WithCache(storage.CacheStorage()))
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
