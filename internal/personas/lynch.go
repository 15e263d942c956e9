package personas

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// lynchLineItems covers revenue and EPS trends, margins, cash flow, and
// leverage for the GARP evaluation.
var lynchLineItems = []string{
	"revenue",
	"earnings_per_share",
	"net_income",
	"operating_income",
	"gross_margin",
	"operating_margin",
	"free_cash_flow",
	"capital_expenditure",
	"cash_and_equivalents",
	"total_debt",
	"shareholders_equity",
	"outstanding_shares",
}

// lynchNegativeKeywords flag headlines that weigh on the sentiment score.
var lynchNegativeKeywords = []string{
	"lawsuit", "fraud", "negative", "downturn", "decline", "investigation", "recall",
}

// Lynch looks for growth at a reasonable price: steady revenue and EPS
// expansion, a low PEG ratio, manageable debt, and clean secondary signals
// from news and insider activity.
type Lynch struct {
	source DataSource
	logger arbor.ILogger
}

// NewLynch creates the Peter Lynch analyzer.
func NewLynch(source DataSource, logger arbor.ILogger) *Lynch {
	return &Lynch{source: source, logger: logger}
}

func (l *Lynch) Name() string { return "peter_lynch" }

func (l *Lynch) Description() string {
	return "Performs stock analysis using Peter Lynch's methods by ticker"
}

func (l *Lynch) SystemPrompt() string {
	return `You are a Peter Lynch AI agent. You make investment decisions based on Peter Lynch's well-known principles:

1. Invest in What You Know: Emphasize understandable businesses, possibly discovered in everyday life.
2. Growth at a Reasonable Price (GARP): Rely on the PEG ratio as a prime metric.
3. Look for 'Ten-Baggers': Companies capable of growing earnings and share price substantially.
4. Steady Growth: Prefer consistent revenue/earnings expansion, less concern about short-term noise.
5. Avoid High Debt: Watch for dangerous leverage.
6. Management & Story: A good 'story' behind the stock, but not overhyped or too complex.

When you provide your reasoning, do it in Peter Lynch's voice:
- Cite the PEG ratio
- Mention 'ten-bagger' potential if applicable
- Refer to personal or anecdotal observations (e.g., "If my kids love the product...")
- Use practical, folksy language
- Provide key positives and negatives
- Conclude with a clear stance (bullish, bearish, or neutral)`
}

// Analyze runs the GARP evaluation for a ticker.
func (l *Lynch) Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, -3, 0)

	l.logger.Debug().Str("ticker", ticker).Msg("Gathering financial line items")
	items, err := l.source.SearchLineItems(ctx, ticker, lynchLineItems, findata.PeriodAnnual, 5)
	if err != nil {
		return nil, fmt.Errorf("lynch analysis for %s: %w", ticker, err)
	}

	marketCap, err := l.source.MarketCap(ctx, ticker, endDate)
	if err != nil {
		return nil, fmt.Errorf("lynch analysis for %s: %w", ticker, err)
	}

	l.logger.Debug().Str("ticker", ticker).Msg("Fetching insider trades")
	trades, err := l.source.InsiderTrades(ctx, ticker, startDate, endDate, 50)
	if err != nil {
		return nil, fmt.Errorf("lynch analysis for %s: %w", ticker, err)
	}

	l.logger.Debug().Str("ticker", ticker).Msg("Fetching company news")
	news, err := l.source.CompanyNews(ctx, ticker, startDate, endDate, 50)
	if err != nil {
		return nil, fmt.Errorf("lynch analysis for %s: %w", ticker, err)
	}

	growth := lynchGrowth(items)
	fundamentals := lynchFundamentals(items)
	valuation := lynchValuation(items, marketCap)
	sentiment := lynchSentiment(news)
	insider := lynchInsiderActivity(trades)

	// Weights typical for Peter Lynch: growth leads, valuation close behind,
	// sentiment and insiders are secondary inputs.
	agg, total := analysis.AggregateWeighted([]analysis.WeightedInput{
		{Sub: growth, Weight: 0.30},
		{Sub: valuation, Weight: 0.25},
		{Sub: fundamentals, Weight: 0.20},
		{Sub: sentiment, Weight: 0.15},
		{Sub: insider, Weight: 0.10},
	}, analysis.Scale{Bullish: 7.5, Bearish: 4.5, Max: 10})

	bundle := newBundle(l.Name(), ticker)
	bundle.Signal = agg.Signal
	bundle.Confidence = agg.Confidence
	bundle.Score = total
	bundle.MaxScore = 10
	bundle.SubScores = []analysis.SubScore{growth, valuation, fundamentals, sentiment, insider}
	bundle.MarketCap = marketCap
	bundle.Reasoning = joinDetails(bundle.SubScores)
	return bundle, nil
}

// lynchGrowth scores revenue and EPS growth between the newest and oldest
// annual rows. Lynch liked steady, understandable growth with a long runway.
func lynchGrowth(items []findata.LineItem) analysis.SubScore {
	if len(items) < 2 {
		return analysis.SubScore{Name: "growth", MaxScore: 10, Details: "Insufficient financial data for growth analysis"}
	}

	var details []string
	raw := 0.0

	if growth, ok := firstLastGrowth(items, "revenue"); ok {
		switch {
		case growth > 0.25:
			raw += 3
			details = append(details, fmt.Sprintf("Strong revenue growth: %.2f", growth))
		case growth > 0.10:
			raw += 2
			details = append(details, fmt.Sprintf("Moderate revenue growth: %.2f", growth))
		case growth > 0.02:
			raw += 1
			details = append(details, fmt.Sprintf("Slight revenue growth: %.2f", growth))
		default:
			details = append(details, fmt.Sprintf("Flat or negative revenue growth: %.2f", growth))
		}
	} else {
		details = append(details, "Not enough revenue data to assess growth")
	}

	if growth, ok := firstLastGrowth(items, "earnings_per_share"); ok {
		switch {
		case growth > 0.25:
			raw += 3
			details = append(details, fmt.Sprintf("Strong EPS growth: %.2f", growth))
		case growth > 0.10:
			raw += 2
			details = append(details, fmt.Sprintf("Moderate EPS growth: %.2f", growth))
		case growth > 0.02:
			raw += 1
			details = append(details, fmt.Sprintf("Slight EPS growth: %.2f", growth))
		default:
			details = append(details, fmt.Sprintf("Minimal or negative EPS growth: %.2f", growth))
		}
	} else {
		details = append(details, "Not enough EPS data for growth calculation")
	}

	return analysis.SubScore{
		Name:     "growth",
		Score:    math.Min(10, raw/6*10),
		MaxScore: 10,
		Details:  strings.Join(details, "; "),
	}
}

// firstLastGrowth computes (newest-oldest)/|oldest| over the rows carrying
// the named value. Returns false when fewer than two rows have it or the
// oldest is effectively zero.
func firstLastGrowth(items []findata.LineItem, name string) (float64, bool) {
	var values []float64
	for _, item := range items {
		if v := item.Get(name); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) < 2 {
		return 0, false
	}
	oldest := values[len(values)-1]
	if math.Abs(oldest) <= 1e-9 {
		return 0, false
	}
	return (values[0] - oldest) / math.Abs(oldest), true
}

// lynchFundamentals scores leverage, operating margin, and free cash flow.
func lynchFundamentals(items []findata.LineItem) analysis.SubScore {
	if len(items) == 0 {
		return analysis.SubScore{Name: "fundamentals", MaxScore: 10, Details: "Insufficient fundamentals data"}
	}

	var details []string
	raw := 0.0
	latest := items[0]

	debt := latest.Get("total_debt")
	equity := latest.Get("shareholders_equity")
	if debt != nil && equity != nil {
		denominator := *equity
		if denominator == 0 {
			denominator = 1e-9
		}
		deRatio := *debt / denominator
		switch {
		case deRatio < 0.5:
			raw += 2
			details = append(details, fmt.Sprintf("Low debt-to-equity: %.2f", deRatio))
		case deRatio < 1.0:
			raw += 1
			details = append(details, fmt.Sprintf("Moderate debt-to-equity: %.2f", deRatio))
		default:
			details = append(details, fmt.Sprintf("High debt-to-equity: %.2f", deRatio))
		}
	} else {
		details = append(details, "No consistent debt/equity data available")
	}

	if margin := latest.Get("operating_margin"); margin != nil {
		switch {
		case *margin > 0.20:
			raw += 2
			details = append(details, fmt.Sprintf("Strong operating margin: %.2f", *margin))
		case *margin > 0.10:
			raw += 1
			details = append(details, fmt.Sprintf("Moderate operating margin: %.2f", *margin))
		default:
			details = append(details, fmt.Sprintf("Low operating margin: %.2f", *margin))
		}
	} else {
		details = append(details, "No operating margin data available")
	}

	if fcf := latest.Get("free_cash_flow"); fcf != nil {
		if *fcf > 0 {
			raw += 2
			details = append(details, fmt.Sprintf("Positive free cash flow: %.0f", *fcf))
		} else {
			details = append(details, fmt.Sprintf("Recent FCF is negative: %.0f", *fcf))
		}
	} else {
		details = append(details, "No free cash flow data available")
	}

	return analysis.SubScore{
		Name:     "fundamentals",
		Score:    math.Min(10, raw/6*10),
		MaxScore: 10,
		Details:  strings.Join(details, "; "),
	}
}

// lynchValuation emphasizes the PEG ratio, with a plain P/E as backup.
// A PEG under 1 is very attractive, 1-2 is fair, over 3 is expensive.
func lynchValuation(items []findata.LineItem, marketCap *float64) analysis.SubScore {
	if len(items) == 0 || marketCap == nil {
		return analysis.SubScore{Name: "valuation", MaxScore: 10, Details: "Insufficient data for valuation"}
	}

	var details []string
	raw := 0.0

	// Approximate P/E via market cap over net income when income is positive
	var peRatio *float64
	if ni := items[0].Get("net_income"); ni != nil && *ni > 0 {
		peRatio = analysis.Float64(*marketCap / *ni)
		details = append(details, fmt.Sprintf("Estimated P/E: %.2f", *peRatio))
	} else {
		details = append(details, "No positive net income so P/E is unavailable")
	}

	var epsGrowth *float64
	var epsValues []float64
	for _, item := range items {
		if v := item.Get("earnings_per_share"); v != nil {
			epsValues = append(epsValues, *v)
		}
	}
	if len(epsValues) >= 2 {
		oldest := epsValues[len(epsValues)-1]
		if oldest > 0 {
			epsGrowth = analysis.Float64((epsValues[0] - oldest) / oldest)
			details = append(details, fmt.Sprintf("Approx EPS growth rate: %.2f", *epsGrowth))
		} else {
			details = append(details, "Cannot compute EPS growth rate (older EPS <= 0)")
		}
	} else {
		details = append(details, "Not enough EPS data to compute growth rate")
	}

	var pegRatio *float64
	if peRatio != nil && epsGrowth != nil && *epsGrowth > 0 {
		// PEG uses the percentage growth rate: PE / (growth * 100)
		pegRatio = analysis.Float64(*peRatio / (*epsGrowth * 100))
		details = append(details, fmt.Sprintf("PEG ratio: %.2f", *pegRatio))
	}

	if peRatio != nil {
		switch {
		case *peRatio < 15:
			raw += 2
		case *peRatio < 25:
			raw += 1
		}
	}
	if pegRatio != nil {
		switch {
		case *pegRatio < 1:
			raw += 3
		case *pegRatio < 2:
			raw += 2
		case *pegRatio < 3:
			raw += 1
		}
	}

	return analysis.SubScore{
		Name:     "valuation",
		Score:    math.Min(10, raw/5*10),
		MaxScore: 10,
		Details:  strings.Join(details, "; "),
	}
}

// lynchSentiment scans headlines for negative keywords.
func lynchSentiment(news []findata.CompanyNews) analysis.SubScore {
	if len(news) == 0 {
		return analysis.SubScore{Name: "sentiment", Score: 5, MaxScore: 10, Details: "No news data; default to neutral sentiment"}
	}

	negative := 0
	for _, article := range news {
		title := strings.ToLower(article.Title)
		for _, keyword := range lynchNegativeKeywords {
			if strings.Contains(title, keyword) {
				negative++
				break
			}
		}
	}

	switch {
	case float64(negative) > float64(len(news))*0.3:
		return analysis.SubScore{
			Name: "sentiment", Score: 3, MaxScore: 10,
			Details: fmt.Sprintf("High proportion of negative headlines: %d/%d", negative, len(news)),
		}
	case negative > 0:
		return analysis.SubScore{
			Name: "sentiment", Score: 6, MaxScore: 10,
			Details: fmt.Sprintf("Some negative headlines: %d/%d", negative, len(news)),
		}
	default:
		return analysis.SubScore{
			Name: "sentiment", Score: 8, MaxScore: 10,
			Details: "Mostly positive or neutral headlines",
		}
	}
}

// lynchInsiderActivity treats heavy insider buying as a positive sign and
// mostly selling as a negative one.
func lynchInsiderActivity(trades []findata.InsiderTrade) analysis.SubScore {
	if len(trades) == 0 {
		return analysis.SubScore{Name: "insider_activity", Score: 5, MaxScore: 10, Details: "No insider trades data; defaulting to neutral"}
	}

	buys, sells := 0, 0
	for _, trade := range trades {
		if trade.TransactionShares == nil {
			continue
		}
		switch {
		case *trade.TransactionShares > 0:
			buys++
		case *trade.TransactionShares < 0:
			sells++
		}
	}

	total := buys + sells
	if total == 0 {
		return analysis.SubScore{Name: "insider_activity", Score: 5, MaxScore: 10, Details: "No significant buy/sell transactions found; neutral stance"}
	}

	buyRatio := float64(buys) / float64(total)
	switch {
	case buyRatio > 0.7:
		return analysis.SubScore{
			Name: "insider_activity", Score: 8, MaxScore: 10,
			Details: fmt.Sprintf("Heavy insider buying: %d buys vs. %d sells", buys, sells),
		}
	case buyRatio > 0.4:
		return analysis.SubScore{
			Name: "insider_activity", Score: 6, MaxScore: 10,
			Details: fmt.Sprintf("Moderate insider buying: %d buys vs. %d sells", buys, sells),
		}
	default:
		return analysis.SubScore{
			Name: "insider_activity", Score: 4, MaxScore: 10,
			Details: fmt.Sprintf("Mostly insider selling: %d buys vs. %d sells", buys, sells),
		}
	}
}
