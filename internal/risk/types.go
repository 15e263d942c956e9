// Package risk sizes positions against a configured portfolio.
package risk

// Position is a held long/short share count for one ticker.
type Position struct {
	Ticker string  `json:"ticker"`
	Long   float64 `json:"long"`
	Short  float64 `json:"short"`
}

// Portfolio is the configured holdings snapshot. It is read-only; sizing
// never mutates it.
type Portfolio struct {
	Cash              float64    `json:"cash"`
	MarginRequirement float64    `json:"margin_requirement"`
	Positions         []Position `json:"positions"`
}

// Position returns the holding for a ticker, zero shares when not held.
func (p Portfolio) Position(ticker string) Position {
	for _, pos := range p.Positions {
		if pos.Ticker == ticker {
			return pos
		}
	}
	return Position{Ticker: ticker}
}

// Reasoning carries the intermediate values behind a sizing decision.
type Reasoning struct {
	PortfolioValue       float64 `json:"portfolio_value"`
	CurrentPositionValue float64 `json:"current_position_value"`
	PositionLimit        float64 `json:"position_limit"`
	RemainingLimit       float64 `json:"remaining_limit"`
	AvailableCash        float64 `json:"available_cash"`
}

// Analysis is the sizing result for one ticker.
type Analysis struct {
	Ticker                 string    `json:"ticker"`
	RemainingPositionLimit float64   `json:"remaining_position_limit"`
	CurrentPrice           float64   `json:"current_price"`
	Reasoning              Reasoning `json:"reasoning"`
}
