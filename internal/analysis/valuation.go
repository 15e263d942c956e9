package analysis

import (
	"fmt"
	"math"
)

// BuffettDCFParams holds the conservative discounted-cash-flow assumptions
// used for the owner-earnings intrinsic value classification.
type BuffettDCFParams struct {
	GrowthRate       float64
	DiscountRate     float64
	TerminalMultiple float64
	Years            int
}

// DefaultBuffettDCFParams returns the standard conservative assumptions.
func DefaultBuffettDCFParams() BuffettDCFParams {
	return BuffettDCFParams{
		GrowthRate:       0.05,
		DiscountRate:     0.09,
		TerminalMultiple: 12,
		Years:            10,
	}
}

// BuffettIntrinsicValue projects owner earnings (net income + depreciation
// - 75% of capex, scaled to the whole company by outstanding shares) and
// discounts them with a terminal multiple. Returns an unavailable estimate
// when any required input is missing or owner earnings are not positive.
func BuffettIntrinsicValue(netIncome, depreciation, capex, shares *float64, params BuffettDCFParams) ValuationEstimate {
	est := ValuationEstimate{Method: "buffett_dcf"}
	if netIncome == nil || depreciation == nil || capex == nil || shares == nil {
		est.Details = "Insufficient data for intrinsic value calculation"
		return est
	}
	ownerEarnings := *netIncome + *depreciation - 0.75*math.Abs(*capex)
	if ownerEarnings <= 0 || *shares <= 0 {
		est.Details = fmt.Sprintf("Owner earnings not positive (%s)", trimFloat(ownerEarnings))
		return est
	}

	value := 0.0
	for year := 1; year <= params.Years; year++ {
		future := ownerEarnings * math.Pow(1+params.GrowthRate, float64(year))
		value += future / math.Pow(1+params.DiscountRate, float64(year))
	}
	terminal := ownerEarnings * math.Pow(1+params.GrowthRate, float64(params.Years)) * params.TerminalMultiple
	value += terminal / math.Pow(1+params.DiscountRate, float64(params.Years))

	est.Value = value
	est.Available = true
	est.Assumptions = map[string]float64{
		"owner_earnings":    round(ownerEarnings, 2),
		"growth_rate":       params.GrowthRate,
		"discount_rate":     params.DiscountRate,
		"terminal_multiple": params.TerminalMultiple,
		"projection_years":  float64(params.Years),
	}
	est.Details = fmt.Sprintf("Owner earnings %s projected %d years at %s growth, discounted at %s",
		trimFloat(ownerEarnings), params.Years, trimFloat(params.GrowthRate), trimFloat(params.DiscountRate))
	return est
}

// OwnerEarningsValue computes the full-company owner-earnings valuation:
// owner earnings = net income + depreciation - capex - change in working
// capital, projected five years with a Gordon terminal value and a margin
// of safety haircut applied to the total.
func OwnerEarningsValue(netIncome, depreciation, capex, workingCapitalChange *float64, growthRate float64) ValuationEstimate {
	const (
		requiredReturn = 0.15
		marginOfSafety = 0.25
		years          = 5
	)

	est := ValuationEstimate{Method: "owner_earnings"}
	if netIncome == nil || depreciation == nil || capex == nil || workingCapitalChange == nil {
		est.Details = "Insufficient data for owner earnings valuation"
		return est
	}
	ownerEarnings := *netIncome + *depreciation - math.Abs(*capex) - *workingCapitalChange
	if ownerEarnings <= 0 {
		est.Details = fmt.Sprintf("Owner earnings not positive (%s)", trimFloat(ownerEarnings))
		return est
	}

	value := 0.0
	for year := 1; year <= years; year++ {
		future := ownerEarnings * math.Pow(1+growthRate, float64(year))
		value += future / math.Pow(1+requiredReturn, float64(year))
	}

	terminalGrowth := math.Min(growthRate, 0.03)
	terminal := ownerEarnings * math.Pow(1+growthRate, float64(years)) * (1 + terminalGrowth) /
		(requiredReturn - terminalGrowth)
	value += terminal / math.Pow(1+requiredReturn, float64(years))

	value *= 1 - marginOfSafety

	est.Value = value
	est.Available = true
	est.Assumptions = map[string]float64{
		"owner_earnings":   round(ownerEarnings, 2),
		"growth_rate":      growthRate,
		"required_return":  requiredReturn,
		"terminal_growth":  terminalGrowth,
		"margin_of_safety": marginOfSafety,
	}
	est.Details = fmt.Sprintf("Owner earnings %s, %s required return, %s safety haircut",
		trimFloat(ownerEarnings), trimFloat(requiredReturn), trimFloat(marginOfSafety))
	return est
}

// FCFIntrinsicValue discounts free cash flow over five years with a Gordon
// terminal value. growthRate of nil falls back to a 5% default.
func FCFIntrinsicValue(freeCashFlow, growthRate *float64) ValuationEstimate {
	const (
		discountRate   = 0.10
		terminalGrowth = 0.03
		years          = 5
	)

	est := ValuationEstimate{Method: "dcf"}
	if freeCashFlow == nil || *freeCashFlow <= 0 {
		est.Details = "Free cash flow unavailable or not positive"
		return est
	}
	growth := 0.05
	if growthRate != nil {
		growth = *growthRate
	}

	value := 0.0
	for year := 1; year <= years; year++ {
		future := *freeCashFlow * math.Pow(1+growth, float64(year))
		value += future / math.Pow(1+discountRate, float64(year))
	}
	terminal := *freeCashFlow * math.Pow(1+growth, float64(years)) * (1 + terminalGrowth) /
		(discountRate - terminalGrowth)
	value += terminal / math.Pow(1+discountRate, float64(years))

	est.Value = value
	est.Available = true
	est.Assumptions = map[string]float64{
		"free_cash_flow":  round(*freeCashFlow, 2),
		"growth_rate":     growth,
		"discount_rate":   discountRate,
		"terminal_growth": terminalGrowth,
	}
	est.Details = fmt.Sprintf("FCF %s grown at %s, discounted at %s",
		trimFloat(*freeCashFlow), trimFloat(growth), trimFloat(discountRate))
	return est
}

// EVEBITDAValue backs current EBITDA out of the latest EV/EBITDA ratio,
// reprices it at the historical median multiple, and converts enterprise
// value to an implied equity value by subtracting net debt. A negative
// implied equity value clamps to zero (unavailable).
func EVEBITDAValue(enterpriseValues, evToEBITDARatios []float64, marketCap float64) ValuationEstimate {
	est := ValuationEstimate{Method: "ev_ebitda"}
	if len(enterpriseValues) == 0 || len(evToEBITDARatios) == 0 || evToEBITDARatios[0] == 0 {
		est.Details = "Insufficient EV/EBITDA history"
		return est
	}

	currentEV := enterpriseValues[0]
	ebitdaNow := currentEV / evToEBITDARatios[0]
	if ebitdaNow <= 0 {
		est.Details = "Implied EBITDA not positive"
		return est
	}

	medianMultiple, ok := Median(evToEBITDARatios)
	if !ok {
		est.Details = "Insufficient EV/EBITDA history"
		return est
	}

	impliedEV := ebitdaNow * medianMultiple
	netDebt := currentEV - marketCap
	equityValue := math.Max(impliedEV-netDebt, 0)
	if equityValue <= 0 {
		est.Details = "Implied equity value not positive"
		return est
	}

	est.Value = equityValue
	est.Available = true
	est.Assumptions = map[string]float64{
		"ebitda":          round(ebitdaNow, 2),
		"median_multiple": round(medianMultiple, 2),
		"net_debt":        round(netDebt, 2),
	}
	est.Details = fmt.Sprintf("EBITDA %s at median multiple %s less net debt %s",
		trimFloat(ebitdaNow), trimFloat(medianMultiple), trimFloat(netDebt))
	return est
}

// ResidualIncomeValue values equity as book value plus discounted excess
// returns over the cost of equity, with a conservative 20% haircut on the
// result. Aborts as unavailable when current residual income is not
// positive.
func ResidualIncomeValue(marketCap float64, netIncome, priceToBook, bookValueGrowth *float64) ValuationEstimate {
	const (
		costOfEquity   = 0.10
		terminalGrowth = 0.03
		years          = 5
		haircut        = 0.8
	)

	est := ValuationEstimate{Method: "residual_income"}
	if netIncome == nil || priceToBook == nil || *priceToBook <= 0 || marketCap <= 0 {
		est.Details = "Insufficient data for residual income valuation"
		return est
	}

	bookValue := marketCap / *priceToBook
	ri0 := *netIncome - costOfEquity*bookValue
	if ri0 <= 0 {
		est.Details = fmt.Sprintf("Residual income not positive (%s)", trimFloat(ri0))
		return est
	}

	growth := 0.03
	if bookValueGrowth != nil {
		growth = *bookValueGrowth
	}

	value := bookValue
	for year := 1; year <= years; year++ {
		ri := ri0 * math.Pow(1+growth, float64(year))
		value += ri / math.Pow(1+costOfEquity, float64(year))
	}
	terminalRI := ri0 * math.Pow(1+growth, float64(years+1)) / (costOfEquity - terminalGrowth)
	value += terminalRI / math.Pow(1+costOfEquity, float64(years))

	value *= haircut

	est.Value = value
	est.Available = true
	est.Assumptions = map[string]float64{
		"book_value":       round(bookValue, 2),
		"residual_income":  round(ri0, 2),
		"growth_rate":      growth,
		"cost_of_equity":   costOfEquity,
		"terminal_growth":  terminalGrowth,
		"haircut_multiple": haircut,
	}
	est.Details = fmt.Sprintf("Book value %s, initial residual income %s, %s haircut applied",
		trimFloat(bookValue), trimFloat(ri0), trimFloat(haircut))
	return est
}

// MarginOfSafety returns (intrinsic - market) / market, or false when the
// market value is not positive.
func MarginOfSafety(intrinsicValue, marketValue float64) (float64, bool) {
	if marketValue <= 0 {
		return 0, false
	}
	return (intrinsicValue - marketValue) / marketValue, true
}
