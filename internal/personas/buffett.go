package personas

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// buffettLineItems are the statement rows the Buffett analysis consumes.
var buffettLineItems = []string{
	"capital_expenditure",
	"depreciation_and_amortization",
	"net_income",
	"outstanding_shares",
	"total_assets",
	"total_liabilities",
	"dividends_and_other_cash_distributions",
	"issuance_or_purchase_of_equity_shares",
}

// Buffett scores durable franchises: strong steady returns, low debt,
// shareholder-friendly management, and a wide margin of safety against a
// conservative owner-earnings intrinsic value.
type Buffett struct {
	source DataSource
	logger arbor.ILogger
}

// NewBuffett creates the Warren Buffett analyzer.
func NewBuffett(source DataSource, logger arbor.ILogger) *Buffett {
	return &Buffett{source: source, logger: logger}
}

func (b *Buffett) Name() string { return "warren_buffett" }

func (b *Buffett) Description() string {
	return "Performs stock analysis using Warren Buffett's methods by ticker"
}

func (b *Buffett) SystemPrompt() string {
	return `You are a Warren Buffett AI agent. Decide on investment signals based on Warren Buffett's principles:
- Circle of Competence: Only invest in businesses you understand
- Margin of Safety (> 30%): Buy at a significant discount to intrinsic value
- Economic Moat: Look for durable competitive advantages
- Quality Management: Seek conservative, shareholder-oriented teams
- Financial Strength: Favor low debt, strong returns on equity
- Long-term Horizon: Invest in businesses, not just stocks
- Sell only if fundamentals deteriorate or valuation far exceeds intrinsic value

When providing your reasoning, be thorough and specific by:
1. Explaining the key factors that influenced your decision the most (both positive and negative)
2. Highlighting how the company aligns with or violates specific Buffett principles
3. Providing quantitative evidence where relevant (e.g., specific margins, ROE values, debt levels)
4. Concluding with a Buffett-style assessment of the investment opportunity
5. Using Warren Buffett's voice and conversational style in your explanation

Follow these guidelines strictly.`
}

// Analyze runs the full Buffett evaluation for a ticker.
func (b *Buffett) Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error) {
	endDate := time.Now()

	b.logger.Debug().Str("ticker", ticker).Msg("Fetching financial metrics")
	metrics, err := b.source.FinancialMetrics(ctx, ticker, endDate, findata.PeriodTTM, 5)
	if err != nil {
		return nil, fmt.Errorf("buffett analysis for %s: %w", ticker, err)
	}

	b.logger.Debug().Str("ticker", ticker).Msg("Gathering financial line items")
	items, err := b.source.SearchLineItems(ctx, ticker, buffettLineItems, findata.PeriodTTM, 10)
	if err != nil {
		return nil, fmt.Errorf("buffett analysis for %s: %w", ticker, err)
	}

	marketCap, err := b.source.MarketCap(ctx, ticker, endDate)
	if err != nil {
		return nil, fmt.Errorf("buffett analysis for %s: %w", ticker, err)
	}

	fundamentals := buffettFundamentals(metrics)
	consistency := buffettConsistency(items)
	moat := buffettMoat(metrics)
	management := buffettManagement(items)

	intrinsic := buffettIntrinsicValue(items)

	totalScore := fundamentals.Score + consistency.Score + moat.Score + management.Score
	// The ceiling tracks the qualitative sub-scores only; fundamentals act
	// as additional evidence on top.
	maxScore := consistency.MaxScore + moat.MaxScore + management.MaxScore

	var marginOfSafety *float64
	if intrinsic.Available && marketCap != nil {
		if mos, ok := analysis.MarginOfSafety(intrinsic.Value, *marketCap); ok {
			marginOfSafety = analysis.Float64(mos)
		}
	}

	signal := classifyWithMarginOfSafety(totalScore, maxScore, marginOfSafety)

	bundle := newBundle(b.Name(), ticker)
	bundle.Signal = signal
	bundle.Score = totalScore
	bundle.MaxScore = maxScore
	bundle.SubScores = []analysis.SubScore{fundamentals, consistency, moat, management}
	bundle.Valuations = []analysis.ValuationEstimate{intrinsic}
	bundle.MarketCap = marketCap
	bundle.MarginOfSafety = marginOfSafety
	bundle.Confidence = scoreConfidence(totalScore, maxScore)
	bundle.Reasoning = joinDetails(bundle.SubScores)
	return bundle, nil
}

// classifyWithMarginOfSafety applies the quality-plus-discount rule: bullish
// needs both a high score and a wide margin of safety, bearish needs either
// a weak score or a deeply negative margin.
func classifyWithMarginOfSafety(score, maxScore float64, marginOfSafety *float64) analysis.Signal {
	switch {
	case score >= 0.7*maxScore && marginOfSafety != nil && *marginOfSafety >= 0.3:
		return analysis.SignalBullish
	case score <= 0.3*maxScore || (marginOfSafety != nil && *marginOfSafety < -0.3):
		return analysis.SignalBearish
	default:
		return analysis.SignalNeutral
	}
}

func buffettFundamentals(metrics []findata.Metric) analysis.SubScore {
	sb := analysis.NewScoreboard(7)
	if len(metrics) == 0 {
		sb.Note("Insufficient fundamental data")
		return sb.Result("fundamentals")
	}
	latest := metrics[0]

	sb.Climb(analysis.Ladder{
		Rungs:       []analysis.Rung{{Threshold: 0.15, Points: 2, Detail: "Strong ROE of %v"}},
		Unavailable: "ROE data not available",
		Fallback:    "Weak ROE of %v",
	}, latest.ReturnOnEquity)

	sb.Climb(analysis.Ladder{
		Rungs:       []analysis.Rung{{Threshold: 0.5, Points: 2, Detail: "Conservative debt levels"}},
		Descending:  true,
		Unavailable: "Debt to equity data not available",
		Fallback:    "High debt to equity ratio of %v",
	}, latest.DebtToEquity)

	sb.Climb(analysis.Ladder{
		Rungs:       []analysis.Rung{{Threshold: 0.15, Points: 2, Detail: "Strong operating margins"}},
		Unavailable: "Operating margin data not available",
		Fallback:    "Weak operating margin of %v",
	}, latest.OperatingMargin)

	sb.Climb(analysis.Ladder{
		Rungs:       []analysis.Rung{{Threshold: 1.5, Points: 1, Detail: "Good liquidity position"}},
		Unavailable: "Current ratio data not available",
		Fallback:    "Weak liquidity with current ratio of %v",
	}, latest.CurrentRatio)

	return sb.Result("fundamentals")
}

func buffettConsistency(items []findata.LineItem) analysis.SubScore {
	sb := analysis.NewScoreboard(3)
	if len(items) < 4 {
		sb.Note("Insufficient historical data")
		return sb.Result("consistency")
	}

	var earnings []float64
	for _, item := range items {
		if v := item.Get("net_income"); v != nil {
			earnings = append(earnings, *v)
		}
	}

	if len(earnings) >= 4 {
		// Rows are newest first; growth means each period beats the next
		growing := true
		for i := 1; i < len(earnings); i++ {
			if earnings[i-1] <= earnings[i] {
				growing = false
				break
			}
		}
		if growing {
			sb.Award(3, "Consistent earnings growth over past periods")
		} else {
			sb.Note("Inconsistent earnings growth pattern")
		}
	}

	if len(earnings) >= 2 && earnings[len(earnings)-1] != 0 {
		oldest := earnings[len(earnings)-1]
		growth := (earnings[0] - oldest) / abs(oldest)
		sb.Note(fmt.Sprintf("Total earnings growth of %.2f over past %d periods", growth, len(earnings)))
	} else {
		sb.Note("Insufficient earnings data for trend analysis")
	}

	return sb.Result("consistency")
}

func buffettMoat(metrics []findata.Metric) analysis.SubScore {
	sb := analysis.NewScoreboard(3)
	if len(metrics) < 3 {
		sb.Note("Insufficient data for moat analysis")
		return sb.Result("moat")
	}

	stableROE := allAbove(metrics, 0.15, func(m findata.Metric) *float64 { return m.ReturnOnEquity })
	if stableROE {
		sb.Award(1, "Stable ROE above 15% across periods (suggests moat)")
	} else {
		sb.Note("ROE not consistently above 15%")
	}

	stableMargin := allAbove(metrics, 0.15, func(m findata.Metric) *float64 { return m.OperatingMargin })
	if stableMargin {
		sb.Award(1, "Stable operating margin above 15% across periods (suggests moat)")
	} else {
		sb.Note("Operating margin not consistently above 15%")
	}

	if stableROE && stableMargin {
		sb.Award(1, "Both ROE and margin stability indicate a solid moat")
	}

	return sb.Result("moat")
}

// allAbove reports whether every present value clears the threshold. Rows
// without the value are skipped; an all-absent series fails.
func allAbove(metrics []findata.Metric, threshold float64, get func(findata.Metric) *float64) bool {
	seen := false
	for _, m := range metrics {
		v := get(m)
		if v == nil {
			continue
		}
		seen = true
		if *v <= threshold {
			return false
		}
	}
	return seen
}

func buffettManagement(items []findata.LineItem) analysis.SubScore {
	sb := analysis.NewScoreboard(2)
	if len(items) == 0 {
		sb.Note("Insufficient data for management analysis")
		return sb.Result("management")
	}
	latest := items[0]

	issuance := latest.Get("issuance_or_purchase_of_equity_shares")
	if issuance != nil && *issuance < 0 {
		// Negative means the company spent money on buybacks
		sb.Award(1, "Company has been repurchasing shares (shareholder-friendly)")
	}
	if issuance != nil && *issuance > 0 {
		sb.Note("Recent common stock issuance (potential dilution)")
	} else {
		sb.Note("No significant new stock issuance detected")
	}

	if dividends := latest.Get("dividends_and_other_cash_distributions"); dividends != nil && *dividends < 0 {
		sb.Award(1, "Company has a track record of paying dividends")
	} else {
		sb.Note("No or minimal dividends paid")
	}

	return sb.Result("management")
}

func buffettIntrinsicValue(items []findata.LineItem) analysis.ValuationEstimate {
	if len(items) == 0 {
		return analysis.ValuationEstimate{
			Method:  "buffett_dcf",
			Details: "Insufficient data for valuation",
		}
	}
	latest := items[0]
	return analysis.BuffettIntrinsicValue(
		latest.Get("net_income"),
		latest.Get("depreciation_and_amortization"),
		latest.Get("capital_expenditure"),
		latest.Get("outstanding_shares"),
		analysis.DefaultBuffettDCFParams(),
	)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// scoreConfidence expresses the score ratio as a 0-100 confidence.
func scoreConfidence(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	ratio := score / maxScore
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}
