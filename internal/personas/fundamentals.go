package personas

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// Fundamentals classifies a ticker by majority vote over four metric
// groups: profitability, growth, financial health, and price ratios.
type Fundamentals struct {
	source DataSource
	logger arbor.ILogger
}

// NewFundamentals creates the fundamentals analyzer.
func NewFundamentals(source DataSource, logger arbor.ILogger) *Fundamentals {
	return &Fundamentals{source: source, logger: logger}
}

func (f *Fundamentals) Name() string { return "fundamentals" }

func (f *Fundamentals) Description() string {
	return "Performs stock analysis using fundamental metric groups by ticker"
}

func (f *Fundamentals) SystemPrompt() string {
	return `You are a fundamentals analyst AI agent. Explain investment signals derived from
profitability, growth, financial health, and valuation ratios. Be precise and quantitative:
cite the specific metric values that drove each group's vote, note where data was missing,
and keep the tone factual rather than promotional.`
}

// Analyze votes the four metric groups on the latest TTM snapshot.
func (f *Fundamentals) Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error) {
	endDate := time.Now()

	f.logger.Debug().Str("ticker", ticker).Msg("Fetching financial metrics")
	metrics, err := f.source.FinancialMetrics(ctx, ticker, endDate, findata.PeriodTTM, 10)
	if err != nil {
		return nil, fmt.Errorf("fundamentals analysis for %s: %w", ticker, err)
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("fundamentals analysis for %s: no financial metrics found", ticker)
	}
	latest := metrics[0]

	subs := []analysis.SubScore{
		profitabilityGroup(latest),
		growthGroup(latest),
		healthGroup(latest),
		priceRatioGroup(latest),
	}

	agg := analysis.AggregateVotes(subs)

	var total, max float64
	for _, sub := range subs {
		total += sub.Score
		max += sub.MaxScore
	}

	bundle := newBundle(f.Name(), ticker)
	bundle.Signal = agg.Signal
	bundle.Confidence = agg.Confidence
	bundle.Score = total
	bundle.MaxScore = max
	bundle.SubScores = subs
	bundle.Reasoning = joinDetails(subs)
	return bundle, nil
}

// countFavorable counts checks that pass; nil values never pass.
func countFavorable(checks []bool) float64 {
	n := 0.0
	for _, ok := range checks {
		if ok {
			n++
		}
	}
	return n
}

// groupScore maps favorable counts to the vote convention used by every
// group: two or more favorable is a bullish vote (full score), at least one
// is neutral (half), none is bearish (zero).
func groupScore(name string, favorable float64, details string) analysis.SubScore {
	score := 0.0
	switch {
	case favorable >= 2:
		score = 3
	case favorable > 0:
		score = 1.5
	}
	return analysis.SubScore{Name: name, Score: score, MaxScore: 3, Details: details}
}

func above(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}

func below(v *float64, threshold float64) bool {
	return v != nil && *v < threshold
}

func profitabilityGroup(m findata.Metric) analysis.SubScore {
	favorable := countFavorable([]bool{
		above(m.ReturnOnEquity, 0.15),
		above(m.NetMargin, 0.20),
		above(m.OperatingMargin, 0.15),
	})
	details := fmt.Sprintf("ROE: %s, Net Margin: %s, Op Margin: %s",
		fmtMetric(m.ReturnOnEquity), fmtMetric(m.NetMargin), fmtMetric(m.OperatingMargin))
	return groupScore("profitability", favorable, details)
}

func growthGroup(m findata.Metric) analysis.SubScore {
	favorable := countFavorable([]bool{
		above(m.RevenueGrowth, 0.10),
		above(m.EarningsGrowth, 0.10),
		above(m.BookValueGrowth, 0.10),
	})
	details := fmt.Sprintf("Revenue Growth: %s, Earnings Growth: %s, Book Value Growth: %s",
		fmtMetric(m.RevenueGrowth), fmtMetric(m.EarningsGrowth), fmtMetric(m.BookValueGrowth))
	return groupScore("growth", favorable, details)
}

func healthGroup(m findata.Metric) analysis.SubScore {
	fcfCoversEPS := m.FreeCashFlowPerShare != nil && m.EarningsPerShare != nil &&
		*m.FreeCashFlowPerShare > 0.8**m.EarningsPerShare
	favorable := countFavorable([]bool{
		above(m.CurrentRatio, 1.5),
		below(m.DebtToEquity, 0.5),
		fcfCoversEPS,
	})
	details := fmt.Sprintf("Current Ratio: %s, Debt to Equity: %s, FCF/share: %s vs EPS: %s",
		fmtMetric(m.CurrentRatio), fmtMetric(m.DebtToEquity),
		fmtMetric(m.FreeCashFlowPerShare), fmtMetric(m.EarningsPerShare))
	return groupScore("financial_health", favorable, details)
}

func priceRatioGroup(m findata.Metric) analysis.SubScore {
	// A ratio below its threshold reads as reasonably priced
	favorable := countFavorable([]bool{
		below(m.PriceToEarnings, 25),
		below(m.PriceToBook, 3),
		below(m.PriceToSales, 5),
	})
	details := fmt.Sprintf("P/E: %s, P/B: %s, P/S: %s",
		fmtMetric(m.PriceToEarnings), fmtMetric(m.PriceToBook), fmtMetric(m.PriceToSales))
	return groupScore("price_ratios", favorable, details)
}

func fmtMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
