// Package personas implements the investor-persona analyzers. Each persona
// fetches its own data slice, computes deterministic sub-scores, and emits
// an analysis bundle for narration.
package personas

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// DataSource is the slice of the financial datasets client the personas
// consume.
type DataSource interface {
	FinancialMetrics(ctx context.Context, ticker string, endDate time.Time, period findata.Period, limit int) ([]findata.Metric, error)
	SearchLineItems(ctx context.Context, ticker string, items []string, period findata.Period, limit int) ([]findata.LineItem, error)
	InsiderTrades(ctx context.Context, ticker string, start, end time.Time, limit int) ([]findata.InsiderTrade, error)
	CompanyNews(ctx context.Context, ticker string, start, end time.Time, limit int) ([]findata.CompanyNews, error)
	MarketCap(ctx context.Context, ticker string, endDate time.Time) (*float64, error)
}

// Analyzer is one investor persona.
type Analyzer interface {
	// Name is the stable identifier used for tool routing.
	Name() string
	// Description is the one-line tool description.
	Description() string
	// SystemPrompt is the persona voice used for narration.
	SystemPrompt() string
	// Analyze computes the persona's signal for a ticker.
	Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error)
}

// Registry holds the configured analyzers in registration order.
type Registry struct {
	analyzers map[string]Analyzer
	order     []string
}

// NewRegistry creates a registry with all six personas wired to the data
// source.
func NewRegistry(source DataSource, logger arbor.ILogger) *Registry {
	r := &Registry{analyzers: make(map[string]Analyzer)}
	r.register(NewBuffett(source, logger))
	r.register(NewLynch(source, logger))
	r.register(NewBurry(source, logger))
	r.register(NewFundamentals(source, logger))
	r.register(NewSentiment(source, logger))
	r.register(NewValuations(source, logger))
	return r
}

func (r *Registry) register(a Analyzer) {
	r.analyzers[a.Name()] = a
	r.order = append(r.order, a.Name())
}

// Get returns the analyzer registered under name.
func (r *Registry) Get(name string) (Analyzer, bool) {
	a, ok := r.analyzers[name]
	return a, ok
}

// Names returns analyzer names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns the analyzers in registration order.
func (r *Registry) All() []Analyzer {
	out := make([]Analyzer, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.analyzers[name])
	}
	return out
}

// newBundle stamps identity and timing onto a computed bundle.
func newBundle(agent, ticker string) *analysis.Bundle {
	return &analysis.Bundle{
		ID:          uuid.New().String(),
		Agent:       agent,
		Ticker:      ticker,
		GeneratedAt: time.Now(),
	}
}

// joinDetails collects the rationale fragments of sub-scores in order.
func joinDetails(subs []analysis.SubScore) string {
	out := ""
	for i, sub := range subs {
		if i > 0 {
			out += "; "
		}
		out += sub.Details
	}
	return out
}
