package personas

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/analysis"
	"github.com/ternarybob/quanta/internal/findata"
)

// valuationLineItems need two TTM periods so the working capital change can
// be computed.
var valuationLineItems = []string{
	"free_cash_flow",
	"net_income",
	"depreciation_and_amortization",
	"capital_expenditure",
	"working_capital",
}

// Method weights: the cash-flow models carry most of the signal.
var valuationWeights = map[string]float64{
	"dcf":             0.35,
	"owner_earnings":  0.35,
	"ev_ebitda":       0.20,
	"residual_income": 0.10,
}

// Valuations runs four intrinsic-value models and classifies the ticker by
// the weighted gap between their blended estimate and the market cap.
type Valuations struct {
	source DataSource
	logger arbor.ILogger
}

// NewValuations creates the valuations analyzer.
func NewValuations(source DataSource, logger arbor.ILogger) *Valuations {
	return &Valuations{source: source, logger: logger}
}

func (v *Valuations) Name() string { return "valuations" }

func (v *Valuations) Description() string {
	return "Performs stock analysis using Valuations methods by ticker"
}

func (v *Valuations) SystemPrompt() string {
	return `You are a valuation analyst AI agent. Explain investment signals produced by
blending discounted cash flow, owner earnings, EV/EBITDA, and residual income models.
For each model, report its estimate, the gap to the current market cap, and its weight.
State the key assumptions (growth, discount rates) plainly and note any model that
could not produce an estimate.`
}

// Analyze blends the four valuation models against the current market cap.
func (v *Valuations) Analyze(ctx context.Context, ticker string) (*analysis.Bundle, error) {
	endDate := time.Now()

	v.logger.Debug().Str("ticker", ticker).Msg("Fetching financial metrics")
	metrics, err := v.source.FinancialMetrics(ctx, ticker, endDate, findata.PeriodTTM, 8)
	if err != nil {
		return nil, fmt.Errorf("valuations analysis for %s: %w", ticker, err)
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("valuations analysis for %s: no financial metrics found", ticker)
	}
	latest := metrics[0]

	v.logger.Debug().Str("ticker", ticker).Msg("Gathering line items")
	items, err := v.source.SearchLineItems(ctx, ticker, valuationLineItems, findata.PeriodTTM, 2)
	if err != nil {
		return nil, fmt.Errorf("valuations analysis for %s: %w", ticker, err)
	}
	if len(items) < 2 {
		return nil, fmt.Errorf("valuations analysis for %s: insufficient financial line items", ticker)
	}
	current, previous := items[0], items[1]

	marketCap, err := v.source.MarketCap(ctx, ticker, endDate)
	if err != nil {
		return nil, fmt.Errorf("valuations analysis for %s: %w", ticker, err)
	}

	var wcChange *float64
	if cur, prev := current.Get("working_capital"), previous.Get("working_capital"); cur != nil && prev != nil {
		wcChange = analysis.Float64(*cur - *prev)
	}

	growth := latest.EarningsGrowth

	dcf := analysis.FCFIntrinsicValue(current.Get("free_cash_flow"), growth)
	ownerEarnings := analysis.OwnerEarningsValue(
		current.Get("net_income"),
		current.Get("depreciation_and_amortization"),
		current.Get("capital_expenditure"),
		wcChange,
		growthOrDefault(growth),
	)
	evEBITDA := evEBITDAFromMetrics(metrics)
	residualIncome := analysis.ValuationEstimate{
		Method:  "residual_income",
		Details: "Market cap unavailable",
	}
	if marketCap != nil {
		residualIncome = analysis.ResidualIncomeValue(*marketCap, current.Get("net_income"), latest.PriceToBook, latest.BookValueGrowth)
	}

	estimates := []analysis.ValuationEstimate{dcf, ownerEarnings, evEBITDA, residualIncome}

	inputs := make([]analysis.GapInput, 0, len(estimates))
	for _, est := range estimates {
		value := 0.0
		if est.Available {
			value = est.Value
		}
		inputs = append(inputs, analysis.GapInput{
			Method: est.Method,
			Value:  value,
			Weight: valuationWeights[est.Method],
		})
	}

	marketValue := 0.0
	if marketCap != nil {
		marketValue = *marketCap
	}
	agg, gaps := analysis.AggregateGaps(inputs, marketValue)

	bundle := newBundle(v.Name(), ticker)
	bundle.Signal = agg.Signal
	bundle.Confidence = agg.Confidence
	bundle.Valuations = estimates
	bundle.MarketCap = marketCap
	bundle.SubScores = gapSubScores(gaps)
	bundle.Reasoning = agg.Details
	return bundle, nil
}

func growthOrDefault(growth *float64) float64 {
	if growth != nil {
		return *growth
	}
	return 0.05
}

// evEBITDAFromMetrics collects the EV and multiple histories for the
// implied-equity model. Rows missing either value are skipped.
func evEBITDAFromMetrics(metrics []findata.Metric) analysis.ValuationEstimate {
	if len(metrics) == 0 || metrics[0].EnterpriseValue == nil || metrics[0].MarketCap == nil {
		return analysis.ValuationEstimate{Method: "ev_ebitda", Details: "Insufficient EV/EBITDA history"}
	}

	var evValues, ratios []float64
	for _, m := range metrics {
		if m.EnterpriseValue == nil || m.EVToEBITDA == nil {
			continue
		}
		evValues = append(evValues, *m.EnterpriseValue)
		ratios = append(ratios, *m.EVToEBITDA)
	}
	return analysis.EVEBITDAValue(evValues, ratios, *metrics[0].MarketCap)
}

// gapSubScores converts per-method gaps into the common sub-score shape so
// downstream formatting treats every persona alike.
func gapSubScores(gaps []analysis.MethodGap) []analysis.SubScore {
	subs := make([]analysis.SubScore, 0, len(gaps))
	for _, gap := range gaps {
		subs = append(subs, analysis.SubScore{
			Name:     gap.Method + "_analysis",
			Score:    gap.Gap,
			MaxScore: gap.Weight,
			Details: fmt.Sprintf("Value: $%.2f, Gap: %.1f%%, Weight: %.0f%%, Signal: %s",
				gap.Value, gap.Gap*100, gap.Weight*100, gap.Signal),
		})
	}
	return subs
}
