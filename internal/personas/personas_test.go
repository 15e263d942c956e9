package personas

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// fakeSource serves canned data so persona scoring can be tested without a
// live API.
type fakeSource struct {
	metrics   []findata.Metric
	lineItems []findata.LineItem
	trades    []findata.InsiderTrade
	news      []findata.CompanyNews
	marketCap *float64
}

func (f *fakeSource) FinancialMetrics(_ context.Context, _ string, _ time.Time, _ findata.Period, _ int) ([]findata.Metric, error) {
	return f.metrics, nil
}

func (f *fakeSource) SearchLineItems(_ context.Context, _ string, _ []string, _ findata.Period, _ int) ([]findata.LineItem, error) {
	return f.lineItems, nil
}

func (f *fakeSource) InsiderTrades(_ context.Context, _ string, _, _ time.Time, _ int) ([]findata.InsiderTrade, error) {
	return f.trades, nil
}

func (f *fakeSource) CompanyNews(_ context.Context, _ string, _, _ time.Time, _ int) ([]findata.CompanyNews, error) {
	return f.news, nil
}

func (f *fakeSource) MarketCap(_ context.Context, _ string, _ time.Time) (*float64, error) {
	return f.marketCap, nil
}

func fp(v float64) *float64 { return &v }

func row(values map[string]any) findata.LineItem {
	return findata.NewLineItem(values)
}

func strongMetric() findata.Metric {
	return findata.Metric{
		ReturnOnEquity:  fp(0.25),
		DebtToEquity:    fp(0.3),
		OperatingMargin: fp(0.25),
		CurrentRatio:    fp(2.0),
	}
}

func TestRegistryHoldsSixPersonas(t *testing.T) {
	registry := NewRegistry(&fakeSource{}, arbor.NewLogger())

	names := registry.Names()
	want := []string{"warren_buffett", "peter_lynch", "michael_burry", "fundamentals", "sentiment", "valuations"}
	if len(names) != len(want) {
		t.Fatalf("expected %d personas, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, names[i])
		}
		if _, ok := registry.Get(name); !ok {
			t.Errorf("persona %s not registered", name)
		}
	}
}

func TestBuffettBullishOnQualityAtDiscount(t *testing.T) {
	// Strong metrics across periods, growing earnings, buybacks and
	// dividends, and an intrinsic value far above the market cap.
	metrics := []findata.Metric{strongMetric(), strongMetric(), strongMetric(), strongMetric()}
	items := []findata.LineItem{
		row(map[string]any{
			"net_income": 500.0, "depreciation_and_amortization": 100.0,
			"capital_expenditure": -80.0, "outstanding_shares": 100.0,
			"issuance_or_purchase_of_equity_shares": -20.0,
			"dividends_and_other_cash_distributions": -50.0,
		}),
		row(map[string]any{"net_income": 400.0}),
		row(map[string]any{"net_income": 300.0}),
		row(map[string]any{"net_income": 200.0}),
	}

	source := &fakeSource{metrics: metrics, lineItems: items, marketCap: fp(3000.0)}
	bundle, err := NewBuffett(source, arbor.NewLogger()).Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish, got %s (score %.1f/%.1f, mos %v)",
			bundle.Signal, bundle.Score, bundle.MaxScore, bundle.MarginOfSafety)
	}
	if bundle.MarginOfSafety == nil || *bundle.MarginOfSafety < 0.3 {
		t.Errorf("expected margin of safety >= 0.3, got %v", bundle.MarginOfSafety)
	}
	if len(bundle.SubScores) != 4 {
		t.Fatalf("expected 4 sub-scores, got %d", len(bundle.SubScores))
	}
	// Qualitative ceiling excludes the fundamentals sub-score
	if bundle.MaxScore != 8 {
		t.Errorf("expected max score 8, got %.1f", bundle.MaxScore)
	}
}

func TestBuffettBearishOnWeakBusiness(t *testing.T) {
	metrics := []findata.Metric{{
		ReturnOnEquity:  fp(0.02),
		DebtToEquity:    fp(2.5),
		OperatingMargin: fp(0.03),
		CurrentRatio:    fp(0.8),
	}}
	items := []findata.LineItem{
		row(map[string]any{"net_income": 100.0}),
		row(map[string]any{"net_income": 150.0}),
		row(map[string]any{"net_income": 120.0}),
		row(map[string]any{"net_income": 180.0}),
	}

	source := &fakeSource{metrics: metrics, lineItems: items, marketCap: fp(10000.0)}
	bundle, err := NewBuffett(source, arbor.NewLogger()).Analyze(context.Background(), "WEAK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Signal != analysis.SignalBearish {
		t.Errorf("expected bearish, got %s (score %.1f/%.1f)", bundle.Signal, bundle.Score, bundle.MaxScore)
	}
}

func TestLynchRewardsGrowthAtReasonablePrice(t *testing.T) {
	// Revenue and EPS both up 50% over the window, low debt, positive FCF,
	// and a modest P/E so the PEG lands under 1.
	items := []findata.LineItem{
		row(map[string]any{
			"revenue": 1500.0, "earnings_per_share": 15.0, "net_income": 150.0,
			"operating_margin": 0.25, "free_cash_flow": 120.0,
			"total_debt": 100.0, "shareholders_equity": 1000.0,
		}),
		row(map[string]any{"revenue": 1200.0, "earnings_per_share": 12.0}),
		row(map[string]any{"revenue": 1000.0, "earnings_per_share": 10.0}),
	}
	news := []findata.CompanyNews{{Title: "Product demand keeps climbing"}}
	trades := []findata.InsiderTrade{
		{TransactionShares: fp(500)},
		{TransactionShares: fp(300)},
		{TransactionShares: fp(-100)},
	}

	source := &fakeSource{lineItems: items, news: news, trades: trades, marketCap: fp(1500.0)}
	bundle, err := NewLynch(source, arbor.NewLogger()).Analyze(context.Background(), "GARP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish, got %s (score %.2f)", bundle.Signal, bundle.Score)
	}
	if bundle.MaxScore != 10 {
		t.Errorf("expected max score 10, got %.1f", bundle.MaxScore)
	}
	if len(bundle.SubScores) != 5 {
		t.Fatalf("expected 5 sub-scores, got %d", len(bundle.SubScores))
	}
}

func TestLynchBearishWithoutData(t *testing.T) {
	source := &fakeSource{}
	bundle, err := NewLynch(source, arbor.NewLogger()).Analyze(context.Background(), "EMPTY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sentiment and insider default to 5, everything else scores zero:
	// 5*0.15 + 5*0.10 = 1.25, below the bearish line.
	if bundle.Signal != analysis.SignalBearish {
		t.Errorf("expected bearish, got %s", bundle.Signal)
	}
	if bundle.Score != 1.25 {
		t.Errorf("expected weighted score 1.25, got %.2f", bundle.Score)
	}
}

func TestBurryBullishOnDeepValue(t *testing.T) {
	metrics := []findata.Metric{{EVToEBIT: fp(5.0), DebtToEquity: fp(0.3)}}
	items := []findata.LineItem{
		row(map[string]any{
			"free_cash_flow": 200.0, "cash_and_equivalents": 500.0, "total_debt": 100.0,
		}),
	}
	trades := []findata.InsiderTrade{
		{TransactionShares: fp(50000)},
		{TransactionShares: fp(-1000)},
	}
	news := []findata.CompanyNews{
		{Sentiment: "negative"}, {Sentiment: "negative"}, {Sentiment: "bearish"},
		{Sentiment: "negative"}, {Sentiment: "bearish"}, {Sentiment: "neutral"},
	}

	// FCF yield 200/1000 = 20% (4), EV/EBIT 5 (2), D/E 0.3 (2), net cash
	// (1), heavy net buying (2), five negative articles (1): 12/12.
	source := &fakeSource{metrics: metrics, lineItems: items, trades: trades, news: news, marketCap: fp(1000.0)}
	bundle, err := NewBurry(source, arbor.NewLogger()).Analyze(context.Background(), "HATED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish, got %s (score %.1f/%.1f)", bundle.Signal, bundle.Score, bundle.MaxScore)
	}
	if bundle.Score != 12 || bundle.MaxScore != 12 {
		t.Errorf("expected 12/12, got %.1f/%.1f", bundle.Score, bundle.MaxScore)
	}
	if bundle.Confidence != 100 {
		t.Errorf("expected confidence 100, got %.1f", bundle.Confidence)
	}
}

func TestBurryBearishOnExpensiveLeveredName(t *testing.T) {
	metrics := []findata.Metric{{EVToEBIT: fp(25.0), DebtToEquity: fp(2.8)}}
	items := []findata.LineItem{
		row(map[string]any{
			"free_cash_flow": 10.0, "cash_and_equivalents": 50.0, "total_debt": 900.0,
		}),
	}
	trades := []findata.InsiderTrade{{TransactionShares: fp(-20000)}}

	source := &fakeSource{metrics: metrics, lineItems: items, trades: trades, marketCap: fp(5000.0)}
	bundle, err := NewBurry(source, arbor.NewLogger()).Analyze(context.Background(), "MOMO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Signal != analysis.SignalBearish {
		t.Errorf("expected bearish, got %s (score %.1f/%.1f)", bundle.Signal, bundle.Score, bundle.MaxScore)
	}
}

func TestFundamentalsVotesByMetricGroup(t *testing.T) {
	metrics := []findata.Metric{{
		ReturnOnEquity:       fp(0.22),
		NetMargin:            fp(0.25),
		OperatingMargin:      fp(0.20),
		RevenueGrowth:        fp(0.15),
		EarningsGrowth:       fp(0.18),
		BookValueGrowth:      fp(0.12),
		CurrentRatio:         fp(2.0),
		DebtToEquity:         fp(0.3),
		FreeCashFlowPerShare: fp(6.0),
		EarningsPerShare:     fp(5.0),
		PriceToEarnings:      fp(18.0),
		PriceToBook:          fp(2.5),
		PriceToSales:         fp(3.0),
	}}

	source := &fakeSource{metrics: metrics}
	bundle, err := NewFundamentals(source, arbor.NewLogger()).Analyze(context.Background(), "SOLID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish, got %s", bundle.Signal)
	}
	if bundle.Confidence != 100 {
		t.Errorf("expected confidence 100 with all four groups bullish, got %.1f", bundle.Confidence)
	}
	if len(bundle.SubScores) != 4 {
		t.Fatalf("expected 4 group sub-scores, got %d", len(bundle.SubScores))
	}
}

func TestFundamentalsCheapRatiosCountFavorably(t *testing.T) {
	// Only the price-ratio group has data; all three ratios are modest so
	// the group votes bullish on its own.
	metrics := []findata.Metric{{
		PriceToEarnings: fp(12.0),
		PriceToBook:     fp(1.5),
		PriceToSales:    fp(1.0),
	}}

	source := &fakeSource{metrics: metrics}
	bundle, err := NewFundamentals(source, arbor.NewLogger()).Analyze(context.Background(), "CHEAP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ratios *analysis.SubScore
	for i := range bundle.SubScores {
		if bundle.SubScores[i].Name == "price_ratios" {
			ratios = &bundle.SubScores[i]
		}
	}
	if ratios == nil {
		t.Fatal("price_ratios sub-score missing")
	}
	if ratios.Score != ratios.MaxScore {
		t.Errorf("expected full price-ratio score with cheap multiples, got %.1f/%.1f", ratios.Score, ratios.MaxScore)
	}
}

func TestFundamentalsErrorsWithoutMetrics(t *testing.T) {
	source := &fakeSource{}
	if _, err := NewFundamentals(source, arbor.NewLogger()).Analyze(context.Background(), "NONE"); err == nil {
		t.Fatal("expected an error when no metrics are available")
	}
}

func TestSentimentNewsOutweighsInsiders(t *testing.T) {
	// Three insider sells (0.3 each = 0.9 bearish) against two positive
	// articles (0.7 each = 1.4 bullish): news wins.
	trades := []findata.InsiderTrade{
		{TransactionShares: fp(-100)},
		{TransactionShares: fp(-200)},
		{TransactionShares: fp(-300)},
	}
	news := []findata.CompanyNews{
		{Sentiment: "positive"},
		{Sentiment: "positive"},
	}

	source := &fakeSource{trades: trades, news: news}
	bundle, err := NewSentiment(source, arbor.NewLogger()).Analyze(context.Background(), "PRESS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish, got %s", bundle.Signal)
	}
	// 1.4 bullish out of 2.3 total weight
	if bundle.Confidence < 60 || bundle.Confidence > 61 {
		t.Errorf("expected confidence near 60.87, got %.2f", bundle.Confidence)
	}
}

func TestSentimentNeutralNewsDilutesConfidence(t *testing.T) {
	news := []findata.CompanyNews{
		{Sentiment: "positive"},
		{Sentiment: "neutral"},
		{Sentiment: "neutral"},
		{Sentiment: "neutral"},
	}

	source := &fakeSource{news: news}
	bundle, err := NewSentiment(source, arbor.NewLogger()).Analyze(context.Background(), "QUIET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish on the only directional vote, got %s", bundle.Signal)
	}
	if bundle.Confidence != 25 {
		t.Errorf("expected confidence 25 with neutrals in the base, got %.2f", bundle.Confidence)
	}
}

func TestSentimentEmptyDataIsNeutral(t *testing.T) {
	source := &fakeSource{}
	bundle, err := NewSentiment(source, arbor.NewLogger()).Analyze(context.Background(), "VOID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Signal != analysis.SignalNeutral || bundle.Confidence != 0 {
		t.Errorf("expected neutral/0, got %s/%.1f", bundle.Signal, bundle.Confidence)
	}
}

func TestValuationsBullishWhenModelsExceedMarketCap(t *testing.T) {
	metrics := []findata.Metric{
		{
			MarketCap:       fp(1000.0),
			EnterpriseValue: fp(1200.0),
			EVToEBITDA:      fp(8.0),
			EarningsGrowth:  fp(0.08),
			PriceToBook:     fp(2.0),
			BookValueGrowth: fp(0.04),
		},
		{EnterpriseValue: fp(1100.0), EVToEBITDA: fp(10.0)},
		{EnterpriseValue: fp(1000.0), EVToEBITDA: fp(12.0)},
	}
	items := []findata.LineItem{
		row(map[string]any{
			"free_cash_flow": 150.0, "net_income": 140.0,
			"depreciation_and_amortization": 30.0, "capital_expenditure": 25.0,
			"working_capital": 200.0,
		}),
		row(map[string]any{"working_capital": 190.0}),
	}

	source := &fakeSource{metrics: metrics, lineItems: items, marketCap: fp(1000.0)}
	bundle, err := NewValuations(source, arbor.NewLogger()).Analyze(context.Background(), "UNDER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.Signal != analysis.SignalBullish {
		t.Errorf("expected bullish, got %s (%s)", bundle.Signal, bundle.Reasoning)
	}
	if len(bundle.Valuations) != 4 {
		t.Fatalf("expected 4 valuation estimates, got %d", len(bundle.Valuations))
	}
	for _, est := range bundle.Valuations {
		if !est.Available {
			t.Errorf("expected %s to produce an estimate: %s", est.Method, est.Details)
		}
	}
}

func TestValuationsRequiresTwoLineItemPeriods(t *testing.T) {
	metrics := []findata.Metric{{MarketCap: fp(1000.0)}}
	items := []findata.LineItem{
		row(map[string]any{"free_cash_flow": 150.0}),
	}

	source := &fakeSource{metrics: metrics, lineItems: items, marketCap: fp(1000.0)}
	if _, err := NewValuations(source, arbor.NewLogger()).Analyze(context.Background(), "THIN"); err == nil {
		t.Fatal("expected an error with a single line item period")
	}
}

func TestValuationsNeutralWithoutMarketCap(t *testing.T) {
	metrics := []findata.Metric{{EarningsGrowth: fp(0.05)}}
	items := []findata.LineItem{
		row(map[string]any{
			"free_cash_flow": 150.0, "net_income": 140.0,
			"depreciation_and_amortization": 30.0, "capital_expenditure": 25.0,
			"working_capital": 200.0,
		}),
		row(map[string]any{"working_capital": 190.0}),
	}

	source := &fakeSource{metrics: metrics, lineItems: items}
	bundle, err := NewValuations(source, arbor.NewLogger()).Analyze(context.Background(), "NOCAP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Signal != analysis.SignalNeutral || bundle.Confidence != 0 {
		t.Errorf("expected neutral/0 without a market cap, got %s/%.1f", bundle.Signal, bundle.Confidence)
	}
}
