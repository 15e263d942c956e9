package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Datasets    DatasetsConfig  `toml:"financial_datasets"`
	Claude      ClaudeConfig    `toml:"claude"`
	Portfolio   PortfolioConfig `toml:"portfolio"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// DatasetsConfig configures the financialdatasets.ai API client
type DatasetsConfig struct {
	URL          string `toml:"url" validate:"required"`     // API base URL
	APIKey       string `toml:"api_key"`                     // Sent via X-API-KEY header
	CacheEnabled bool   `toml:"cache_enabled"`               // Consult the response cache before live fetches
	RateLimit    int    `toml:"rate_limit" validate:"gte=0"` // Requests per second (0 = default)
	Timeout      string `toml:"timeout"`                     // HTTP timeout as duration string (default: "30s")
}

// ClaudeConfig configures the Anthropic narrator
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key; empty disables narration (deterministic fallback)
	Model       string  `toml:"model"`       // Model for narrative generation (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// PortfolioConfig is the static portfolio snapshot supplied at startup.
// The engine never mutates it.
type PortfolioConfig struct {
	Cash              float64          `toml:"cash" validate:"gte=0"`
	MarginRequirement float64          `toml:"margin_requirement" validate:"gte=0"`
	Positions         []PositionConfig `toml:"positions" validate:"dive"`
}

type PositionConfig struct {
	Ticker string  `toml:"ticker" validate:"required"`
	Long   float64 `toml:"long" validate:"gte=0"`
	Short  float64 `toml:"short" validate:"gte=0"`
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/quanta.db",
				ResetOnStartup: false,
			},
		},
		Datasets: DatasetsConfig{
			URL:          "https://api.financialdatasets.ai",
			CacheEnabled: true,
			RateLimit:    10,
			Timeout:      "30s",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   2048,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Portfolio: PortfolioConfig{
			Cash:              100000,
			MarginRequirement: 0,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// Validation failures abort before any analysis runs.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration invariants (non-negative cash and position
// quantities, required connection settings). Errors here abort startup.
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("QUANTA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("QUANTA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("QUANTA_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Financial datasets configuration
	if url := os.Getenv("QUANTA_DATASETS_URL"); url != "" {
		config.Datasets.URL = url
	}
	if apiKey := os.Getenv("QUANTA_DATASETS_API_KEY"); apiKey != "" {
		config.Datasets.APIKey = apiKey
	} else if apiKey := os.Getenv("FINANCIAL_DATASETS_API_KEY"); apiKey != "" {
		config.Datasets.APIKey = apiKey
	}
	if cacheEnabled := os.Getenv("QUANTA_DATASETS_CACHE"); cacheEnabled != "" {
		if ce, err := strconv.ParseBool(cacheEnabled); err == nil {
			config.Datasets.CacheEnabled = ce
		}
	}
	if rateLimit := os.Getenv("QUANTA_DATASETS_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil && rl >= 0 {
			config.Datasets.RateLimit = rl
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("QUANTA_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("QUANTA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Portfolio configuration
	if cash := os.Getenv("QUANTA_PORTFOLIO_CASH"); cash != "" {
		if c, err := strconv.ParseFloat(cash, 64); err == nil && c >= 0 {
			config.Portfolio.Cash = c
		}
	}
}
