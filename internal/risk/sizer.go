package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
)

// positionLimitFraction caps any single position at 20% of net portfolio
// value.
const positionLimitFraction = 0.20

// PriceFunc resolves the current price for a ticker, nil when no recent
// price exists.
type PriceFunc func(ctx context.Context, ticker string) (*float64, error)

// Sizer computes remaining position capacity for a ticker against the
// configured portfolio.
type Sizer struct {
	portfolio Portfolio
	priceOf   PriceFunc
	logger    arbor.ILogger
}

// NewSizer creates a position sizer. priceOf is typically backed by the
// findata price series.
func NewSizer(portfolio Portfolio, priceOf PriceFunc, logger arbor.ILogger) *Sizer {
	return &Sizer{
		portfolio: portfolio,
		priceOf:   priceOf,
		logger:    logger,
	}
}

// Analyze sizes the remaining capacity for one ticker. Net portfolio value
// is cash plus long exposure minus short exposure at current prices. The
// remaining limit is 20% of net value less the current absolute position
// value, never exceeding available cash.
func (s *Sizer) Analyze(ctx context.Context, ticker string) (*Analysis, error) {
	currentPrice, err := s.price(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if currentPrice == 0 {
		return nil, fmt.Errorf("no price data for %s", ticker)
	}

	portfolioValue := s.portfolio.Cash
	for _, pos := range s.portfolio.Positions {
		price := currentPrice
		if pos.Ticker != ticker {
			price, err = s.price(ctx, pos.Ticker)
			if err != nil {
				return nil, err
			}
		}
		portfolioValue += pos.Long*price - pos.Short*price
	}

	s.logger.Debug().
		Str("ticker", ticker).
		Float64("portfolio_value", portfolioValue).
		Float64("current_price", currentPrice).
		Msg("Calculating position limits")

	position := s.portfolio.Position(ticker)
	currentPositionValue := math.Abs(position.Long*currentPrice - position.Short*currentPrice)

	positionLimit := portfolioValue * positionLimitFraction
	remainingLimit := positionLimit - currentPositionValue
	maxPositionSize := math.Min(remainingLimit, s.portfolio.Cash)

	return &Analysis{
		Ticker:                 ticker,
		RemainingPositionLimit: maxPositionSize,
		CurrentPrice:           currentPrice,
		Reasoning: Reasoning{
			PortfolioValue:       portfolioValue,
			CurrentPositionValue: currentPositionValue,
			PositionLimit:        positionLimit,
			RemainingLimit:       remainingLimit,
			AvailableCash:        s.portfolio.Cash,
		},
	}, nil
}

// price resolves a ticker price, zero when the source has none.
func (s *Sizer) price(ctx context.Context, ticker string) (float64, error) {
	p, err := s.priceOf(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to price %s: %w", ticker, err)
	}
	if p == nil {
		return 0, nil
	}
	return *p, nil
}
