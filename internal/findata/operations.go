package findata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// CompanyFacts retrieves the company profile for a ticker.
func (c *Client) CompanyFacts(ctx context.Context, ticker string) (*CompanyFacts, error) {
	params := url.Values{}
	params.Set("ticker", ticker)

	var holder companyFactsHolder
	if err := c.cacheAwareGet(ctx, "/company/facts/", params, &holder); err != nil {
		return nil, fmt.Errorf("failed to get company facts for %s: %w", ticker, err)
	}
	if holder.CompanyFacts == nil {
		return nil, fmt.Errorf("no company facts returned for %s", ticker)
	}
	return holder.CompanyFacts, nil
}

// FinancialMetrics retrieves financial ratios reported at or before endDate,
// newest first.
func (c *Client) FinancialMetrics(ctx context.Context, ticker string, endDate time.Time, period Period, limit int) ([]Metric, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("report_period_lte", endDate.Format(dateLayout))
	params.Set("period", string(period))
	params.Set("limit", strconv.Itoa(limit))

	var holder financialMetricsHolder
	if err := c.cacheAwareGet(ctx, "/financial-metrics/", params, &holder); err != nil {
		return nil, fmt.Errorf("failed to get financial metrics for %s: %w", ticker, err)
	}
	return holder.FinancialMetrics, nil
}

// SearchLineItems retrieves named financial statement line items for a
// ticker, newest first. Results are sparse; absent items come back nil from
// LineItem.Get.
func (c *Client) SearchLineItems(ctx context.Context, ticker string, items []string, period Period, limit int) ([]LineItem, error) {
	req := lineItemSearchRequest{
		Tickers: []string{ticker},
		Items:   items,
		Period:  period,
		Limit:   limit,
	}

	var holder lineItemSearchHolder
	if err := c.cacheAwarePost(ctx, "/financials/search/line-items", req, &holder); err != nil {
		return nil, fmt.Errorf("failed to search line items for %s: %w", ticker, err)
	}

	results := make([]LineItem, 0, len(holder.SearchResults))
	for _, row := range holder.SearchResults {
		results = append(results, NewLineItem(row))
	}
	return results, nil
}

// InsiderTrades retrieves insider transactions filed between start and end,
// walking the filing-date window until the range is covered.
func (c *Client) InsiderTrades(ctx context.Context, ticker string, start, end time.Time, limit int) ([]InsiderTrade, error) {
	page := func(ctx context.Context, batchEnd time.Time) ([]InsiderTrade, error) {
		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("filing_date_lte", batchEnd.Format(dateLayout))
		params.Set("filing_date_gte", start.Format(dateLayout))
		params.Set("limit", strconv.Itoa(limit))

		var holder insiderTradesHolder
		if err := c.cacheAwareGet(ctx, "/insider-trades/", params, &holder); err != nil {
			return nil, err
		}
		return holder.InsiderTrades, nil
	}

	trades, err := fetchDateRange(ctx, start, end, limit, page, InsiderTrade.FilingDay)
	if err != nil {
		return nil, fmt.Errorf("failed to get insider trades for %s: %w", ticker, err)
	}
	return trades, nil
}

// CompanyNews retrieves news articles dated between start and end, walking
// the date window until the range is covered.
func (c *Client) CompanyNews(ctx context.Context, ticker string, start, end time.Time, limit int) ([]CompanyNews, error) {
	page := func(ctx context.Context, batchEnd time.Time) ([]CompanyNews, error) {
		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("end_date", batchEnd.Format(dateLayout))
		params.Set("start_date", start.Format(dateLayout))
		params.Set("limit", strconv.Itoa(limit))

		var holder companyNewsHolder
		if err := c.cacheAwareGet(ctx, "/news/", params, &holder); err != nil {
			return nil, err
		}
		return holder.News, nil
	}

	news, err := fetchDateRange(ctx, start, end, limit, page, CompanyNews.Day)
	if err != nil {
		return nil, fmt.Errorf("failed to get company news for %s: %w", ticker, err)
	}
	return news, nil
}

// Prices retrieves daily OHLCV bars between start and end, walking the date
// window until the range is covered.
func (c *Client) Prices(ctx context.Context, ticker string, start, end time.Time, limit int) ([]Price, error) {
	page := func(ctx context.Context, batchEnd time.Time) ([]Price, error) {
		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("interval", "day")
		params.Set("interval_multiplier", "1")
		params.Set("start_date", start.Format(dateLayout))
		params.Set("end_date", batchEnd.Format(dateLayout))
		params.Set("limit", strconv.Itoa(limit))

		var holder pricesHolder
		if err := c.cacheAwareGet(ctx, "/prices/", params, &holder); err != nil {
			return nil, err
		}
		return holder.Prices, nil
	}

	prices, err := fetchDateRange(ctx, start, end, limit, page, Price.Day)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", ticker, err)
	}
	return prices, nil
}

// MarketCap returns the market capitalization at endDate: current company
// facts when endDate is today, otherwise the newest TTM metric at or before
// endDate.
func (c *Client) MarketCap(ctx context.Context, ticker string, endDate time.Time) (*float64, error) {
	today := time.Now().Format(dateLayout)
	if endDate.Format(dateLayout) == today {
		facts, err := c.CompanyFacts(ctx, ticker)
		if err != nil {
			return nil, err
		}
		return facts.MarketCap, nil
	}

	metrics, err := c.FinancialMetrics(ctx, ticker, endDate, PeriodTTM, 10)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no financial metrics for %s at %s", ticker, endDate.Format(dateLayout))
	}
	return metrics[0].MarketCap, nil
}

// LatestPrice returns the most recent closing price within the last 30
// days, nil when no bar carries a close.
func (c *Client) LatestPrice(ctx context.Context, ticker string) (*float64, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	prices, err := c.Prices(ctx, ticker, start, end, 100)
	if err != nil {
		return nil, err
	}
	// Bars arrive in chronological order; scan from the newest.
	for i := len(prices) - 1; i >= 0; i-- {
		if prices[i].Close != nil {
			return prices[i].Close, nil
		}
	}
	return nil, nil
}
