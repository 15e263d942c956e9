// Package findata provides a client for the financialdatasets.ai API with
// cache-aware retrieval and date-window pagination.
package findata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period selects the reporting period for metrics and line item queries.
type Period string

const (
	PeriodTTM       Period = "ttm"
	PeriodAnnual    Period = "annual"
	PeriodQuarterly Period = "quarterly"
)

// APIError represents an error response from the financial datasets API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("financial datasets API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("financial datasets rate limit exceeded, retry after %v", e.RetryAfter)
}

// CompanyFacts describes a listed company.
type CompanyFacts struct {
	Ticker                string   `json:"ticker"`
	Name                  string   `json:"name"`
	CIK                   string   `json:"cik"`
	Industry              string   `json:"industry"`
	Sector                string   `json:"sector"`
	Category              string   `json:"category"`
	Exchange              string   `json:"exchange"`
	IsActive              *bool    `json:"is_active"`
	ListingDate           string   `json:"listing_date"`
	Location              string   `json:"location"`
	MarketCap             *float64 `json:"market_cap"`
	NumberOfEmployees     *float64 `json:"number_of_employees"`
	SECFilingsURL         string   `json:"sec_filings_url"`
	SICCode               string   `json:"sic_code"`
	WebsiteURL            string   `json:"website_url"`
	WeightedAverageShares *float64 `json:"weighted_average_shares"`
}

// Metric is one reporting period of financial ratios. Every ratio is
// optional upstream, so all fields are pointers; scoring treats nil as
// unavailable rather than zero.
type Metric struct {
	Ticker                 string   `json:"ticker"`
	ReportPeriod           string   `json:"report_period"`
	Period                 Period   `json:"period"`
	MarketCap              *float64 `json:"market_cap"`
	EnterpriseValue        *float64 `json:"enterprise_value"`
	PriceToEarnings        *float64 `json:"price_to_earnings_ratio"`
	PriceToBook            *float64 `json:"price_to_book_ratio"`
	PriceToSales           *float64 `json:"price_to_sales_ratio"`
	EVToEBITDA             *float64 `json:"enterprise_value_to_ebitda_ratio"`
	EVToEBIT               *float64 `json:"enterprise_value_to_ebit_ratio"`
	EVToRevenue            *float64 `json:"enterprise_value_to_revenue_ratio"`
	FreeCashFlowYield      *float64 `json:"free_cash_flow_yield"`
	PEGRatio               *float64 `json:"peg_ratio"`
	GrossMargin            *float64 `json:"gross_margin"`
	OperatingMargin        *float64 `json:"operating_margin"`
	NetMargin              *float64 `json:"net_margin"`
	ReturnOnEquity         *float64 `json:"return_on_equity"`
	ReturnOnAssets         *float64 `json:"return_on_assets"`
	ReturnOnInvestedCap    *float64 `json:"return_on_invested_capital"`
	CurrentRatio           *float64 `json:"current_ratio"`
	QuickRatio             *float64 `json:"quick_ratio"`
	CashRatio              *float64 `json:"cash_ratio"`
	DebtToEquity           *float64 `json:"debt_to_equity"`
	DebtToAssets           *float64 `json:"debt_to_assets"`
	InterestCoverage       *float64 `json:"interest_coverage"`
	RevenueGrowth          *float64 `json:"revenue_growth"`
	EarningsGrowth         *float64 `json:"earnings_growth"`
	BookValueGrowth        *float64 `json:"book_value_growth"`
	EarningsPerShareGrowth *float64 `json:"earnings_per_share_growth"`
	FreeCashFlowGrowth     *float64 `json:"free_cash_flow_growth"`
	PayoutRatio            *float64 `json:"payout_ratio"`
	EarningsPerShare       *float64 `json:"earnings_per_share"`
	BookValuePerShare      *float64 `json:"book_value_per_share"`
	FreeCashFlowPerShare   *float64 `json:"free_cash_flow_per_share"`
}

// LineItem is a sparse financial statement row. The searchable item names
// vary per request, so values stay in the raw map and are extracted on
// demand.
type LineItem struct {
	data map[string]any
}

// NewLineItem wraps a raw search result row.
func NewLineItem(data map[string]any) LineItem {
	return LineItem{data: data}
}

// Ticker returns the ticker symbol for this row.
func (l LineItem) Ticker() string {
	s, _ := l.data["ticker"].(string)
	return s
}

// ReportPeriod returns the report period date string (YYYY-MM-DD).
func (l LineItem) ReportPeriod() string {
	s, _ := l.data["report_period"].(string)
	return s
}

// Currency returns the reporting currency.
func (l LineItem) Currency() string {
	s, _ := l.data["currency"].(string)
	return s
}

// Get returns the named line item value, nil when absent or non-numeric.
func (l LineItem) Get(name string) *float64 {
	raw, ok := l.data[name]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		return &v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// InsiderTrade is one insider transaction filing.
type InsiderTrade struct {
	Ticker                   string   `json:"ticker"`
	Issuer                   string   `json:"issuer"`
	Name                     string   `json:"name"`
	Title                    string   `json:"title"`
	IsBoardDirector          *bool    `json:"is_board_director"`
	TransactionDate          string   `json:"transaction_date"`
	TransactionShares        *float64 `json:"transaction_shares"`
	TransactionPricePerShare *float64 `json:"transaction_price_per_share"`
	TransactionValue         *float64 `json:"transaction_value"`
	SharesOwnedBefore        *float64 `json:"shares_owned_before_transaction"`
	SharesOwnedAfter         *float64 `json:"shares_owned_after_transaction"`
	SecurityTitle            string   `json:"security_title"`
	FilingDate               string   `json:"filing_date"`
}

// CompanyNews is one news article with upstream sentiment classification.
type CompanyNews struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Source    string `json:"source"`
	Date      string `json:"date"`
	URL       string `json:"url"`
	Sentiment string `json:"sentiment"`
}

// Price is one OHLCV bar.
type Price struct {
	Open             *float64 `json:"open"`
	Close            *float64 `json:"close"`
	High             *float64 `json:"high"`
	Low              *float64 `json:"low"`
	Volume           *float64 `json:"volume"`
	Time             string   `json:"time"`
	TimeMilliseconds *int64   `json:"time_milliseconds"`
}

type companyFactsHolder struct {
	CompanyFacts *CompanyFacts `json:"company_facts"`
}

type financialMetricsHolder struct {
	FinancialMetrics []Metric `json:"financial_metrics"`
}

type lineItemSearchRequest struct {
	Tickers []string `json:"tickers"`
	Items   []string `json:"line_items"`
	Period  Period   `json:"period"`
	Limit   int      `json:"limit"`
}

type lineItemSearchHolder struct {
	SearchResults []map[string]any `json:"search_results"`
}

type insiderTradesHolder struct {
	InsiderTrades []InsiderTrade `json:"insider_trades"`
}

type companyNewsHolder struct {
	News []CompanyNews `json:"news"`
}

type pricesHolder struct {
	Prices []Price `json:"prices"`
}

// FilingDay returns the filing date truncated to the calendar day. The
// transaction date is preferred when present, matching how the filings API
// orders results.
func (t InsiderTrade) FilingDay() (time.Time, bool) {
	if d, ok := parseDay(t.TransactionDate); ok {
		return d, true
	}
	return parseDay(t.FilingDate)
}

// Day returns the article date truncated to the calendar day.
func (n CompanyNews) Day() (time.Time, bool) {
	return parseDay(n.Date)
}

// Day returns the bar time truncated to the calendar day.
func (p Price) Day() (time.Time, bool) {
	return parseDay(p.Time)
}

// parseDay parses the date portion of an ISO timestamp or plain date.
func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if idx := strings.IndexByte(s, 'T'); idx > 0 {
		s = s[:idx]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
