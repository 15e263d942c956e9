package personas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// burryLineItems cover cash generation, leverage, and buyback signals for
// the deep-value screen.
var burryLineItems = []string{
	"free_cash_flow",
	"net_income",
	"total_debt",
	"cash_and_equivalents",
	"total_assets",
	"total_liabilities",
	"outstanding_shares",
	"issuance_or_purchase_of_equity_shares",
}

// Burry runs a deep-value contrarian screen: free cash flow yield and
// EV/EBIT first, balance sheet second, insider buying as a hard catalyst,
// and negative press as a contrarian positive.
type Burry struct {
	source DataSource
	logger arbor.ILogger
}

// NewBurry creates the Michael Burry analyzer.
func NewBurry(source DataSource, logger arbor.ILogger) *Burry {
	return &Burry{source: source, logger: logger}
}

func (b *Burry) Name() string { return "michael_burry" }

func (b *Burry) Description() string {
	return "Performs stock analysis using Michael Burry methods by ticker"
}

func (b *Burry) SystemPrompt() string {
	return `You are an AI agent emulating Dr. Michael J. Burry. Your mandate:
- Hunt for deep value in US equities using hard numbers (free cash flow, EV/EBIT, balance sheet)
- Be contrarian: hatred in the press can be your friend if fundamentals are solid
- Focus on downside first - avoid leveraged balance sheets
- Look for hard catalysts such as insider buying, buybacks, or asset sales
- Communicate in Burry's terse, data-driven style

When providing your reasoning, be thorough and specific by:
1. Start with the key metric(s) that drove your decision
2. Cite concrete numbers (e.g. "FCF yield 14.7%", "EV/EBIT 5.3")
3. Highlight risk factors and why they are acceptable (or not)
4. Mention relevant insider activity or contrarian opportunities
5. Use Burry's direct, number-focused communication style with minimal words

For example, if bullish: "FCF yield 12.8%. EV/EBIT 6.2. Debt-to-equity 0.4. Net insider buying 25k shares. Market missing value due to overreaction to recent litigation. Strong buy."
For example, if bearish: "FCF yield only 2.1%. Debt-to-equity concerning at 2.3. Management diluting shareholders. Pass."`
}

// Analyze runs the deep-value screen for a ticker. Insider trades and news
// cover the trailing twelve months.
func (b *Burry) Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(-1, 0, 0)

	b.logger.Debug().Str("ticker", ticker).Msg("Fetching financial metrics")
	metrics, err := b.source.FinancialMetrics(ctx, ticker, endDate, findata.PeriodTTM, 5)
	if err != nil {
		return nil, fmt.Errorf("burry analysis for %s: %w", ticker, err)
	}

	b.logger.Debug().Str("ticker", ticker).Msg("Fetching line items")
	items, err := b.source.SearchLineItems(ctx, ticker, burryLineItems, findata.PeriodTTM, 10)
	if err != nil {
		return nil, fmt.Errorf("burry analysis for %s: %w", ticker, err)
	}

	b.logger.Debug().Str("ticker", ticker).Msg("Fetching insider trades")
	trades, err := b.source.InsiderTrades(ctx, ticker, startDate, endDate, 1000)
	if err != nil {
		return nil, fmt.Errorf("burry analysis for %s: %w", ticker, err)
	}

	b.logger.Debug().Str("ticker", ticker).Msg("Fetching company news")
	news, err := b.source.CompanyNews(ctx, ticker, startDate, endDate, 250)
	if err != nil {
		return nil, fmt.Errorf("burry analysis for %s: %w", ticker, err)
	}

	marketCap, err := b.source.MarketCap(ctx, ticker, endDate)
	if err != nil {
		return nil, fmt.Errorf("burry analysis for %s: %w", ticker, err)
	}

	value := burryValue(metrics, items, marketCap)
	balanceSheet := burryBalanceSheet(metrics, items)
	insider := burryInsiderActivity(trades)
	contrarian := burryContrarianSentiment(news)

	subs := []analysis.SubScore{value, balanceSheet, insider, contrarian}
	var total, max float64
	for _, sub := range subs {
		total += sub.Score
		max += sub.MaxScore
	}

	signal := analysis.SignalNeutral
	switch {
	case total >= 0.7*max:
		signal = analysis.SignalBullish
	case total <= 0.3*max:
		signal = analysis.SignalBearish
	}

	bundle := newBundle(b.Name(), ticker)
	bundle.Signal = signal
	bundle.Confidence = scoreConfidence(total, max)
	bundle.Score = total
	bundle.MaxScore = max
	bundle.SubScores = subs
	bundle.MarketCap = marketCap
	bundle.Reasoning = joinDetails(subs)
	return bundle, nil
}

// burryValue scores free cash flow yield (up to 4) and EV/EBIT (up to 2).
func burryValue(metrics []findata.Metric, items []findata.LineItem, marketCap *float64) analysis.SubScore {
	sb := analysis.NewScoreboard(6)

	if len(items) > 0 && marketCap != nil && *marketCap > 0 {
		if fcf := items[0].Get("free_cash_flow"); fcf != nil {
			yield := *fcf / *marketCap
			switch {
			case yield >= 0.15:
				sb.Award(4, fmt.Sprintf("Extraordinary FCF yield %.1f%%", yield*100))
			case yield >= 0.12:
				sb.Award(3, fmt.Sprintf("Very high FCF yield %.1f%%", yield*100))
			case yield >= 0.08:
				sb.Award(2, fmt.Sprintf("Respectable FCF yield %.1f%%", yield*100))
			default:
				sb.Note(fmt.Sprintf("Low FCF yield %.1f%%", yield*100))
			}
		} else {
			sb.Note("FCF data unavailable")
		}
	} else {
		sb.Note("FCF data unavailable")
	}

	if len(metrics) > 0 && metrics[0].EVToEBIT != nil {
		evEBIT := *metrics[0].EVToEBIT
		switch {
		case evEBIT < 6:
			sb.Award(2, fmt.Sprintf("EV/EBIT %.1f (<6)", evEBIT))
		case evEBIT < 10:
			sb.Award(1, fmt.Sprintf("EV/EBIT %.1f (<10)", evEBIT))
		default:
			sb.Note(fmt.Sprintf("High EV/EBIT %.1f", evEBIT))
		}
	} else {
		sb.Note("EV/EBIT data unavailable")
	}

	return sb.Result("value")
}

// burryBalanceSheet checks leverage and whether cash covers total debt.
func burryBalanceSheet(metrics []findata.Metric, items []findata.LineItem) analysis.SubScore {
	sb := analysis.NewScoreboard(3)

	if len(metrics) > 0 && metrics[0].DebtToEquity != nil {
		de := *metrics[0].DebtToEquity
		switch {
		case de < 0.5:
			sb.Award(2, fmt.Sprintf("Low D/E %.2f", de))
		case de < 1:
			sb.Award(1, fmt.Sprintf("Moderate D/E %.2f", de))
		default:
			sb.Note(fmt.Sprintf("High leverage D/E %.2f", de))
		}
	} else {
		sb.Note("Debt-to-equity data unavailable")
	}

	if len(items) > 0 {
		cash := items[0].Get("cash_and_equivalents")
		totalDebt := items[0].Get("total_debt")
		if cash != nil && totalDebt != nil {
			if *cash > *totalDebt {
				sb.Award(1, "Net cash position")
			} else {
				sb.Note("Net debt position")
			}
		} else {
			sb.Note("Cash/debt data unavailable")
		}
	}

	return sb.Result("balance_sheet")
}

// burryInsiderActivity treats net insider buying over the window as a hard
// catalyst.
func burryInsiderActivity(trades []findata.InsiderTrade) analysis.SubScore {
	sb := analysis.NewScoreboard(2)

	if len(trades) == 0 {
		sb.Note("No insider trade data")
		return sb.Result("insider_activity")
	}

	var bought, sold float64
	for _, trade := range trades {
		if trade.TransactionShares == nil {
			continue
		}
		if *trade.TransactionShares > 0 {
			bought += *trade.TransactionShares
		} else {
			sold += -*trade.TransactionShares
		}
	}

	net := bought - sold
	if net > 0 {
		points := 1.0
		denominator := sold
		if denominator < 1 {
			denominator = 1
		}
		if net/denominator > 1 {
			points = 2
		}
		sb.Award(points, fmt.Sprintf("Net insider buying of %.0f shares", net))
	} else {
		sb.Note("Net insider selling")
	}

	return sb.Result("insider_activity")
}

// burryContrarianSentiment counts negative articles; a wall of bad press can
// be a positive for a contrarian if fundamentals hold up.
func burryContrarianSentiment(news []findata.CompanyNews) analysis.SubScore {
	sb := analysis.NewScoreboard(1)

	if len(news) == 0 {
		sb.Note("No recent news")
		return sb.Result("contrarian_sentiment")
	}

	negative := 0
	for _, article := range news {
		switch strings.ToLower(article.Sentiment) {
		case "negative", "bearish":
			negative++
		}
	}

	if negative >= 5 {
		sb.Award(1, fmt.Sprintf("%d negative headlines (contrarian opportunity)", negative))
	} else {
		sb.Note("Limited negative press")
	}

	return sb.Result("contrarian_sentiment")
}
