// Package analysis provides the deterministic scoring, aggregation and
// valuation arithmetic shared by all persona analyzers.
package analysis

import (
	"time"
)

// Signal is a three-way investment classification
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// SubScore is a bounded numeric contribution to an overall signal.
// Invariant: 0 <= Score <= MaxScore.
type SubScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Details  string  `json:"details"`
}

// Ratio returns Score/MaxScore, 0 when MaxScore is zero
func (s SubScore) Ratio() float64 {
	if s.MaxScore == 0 {
		return 0
	}
	return s.Score / s.MaxScore
}

// ValuationEstimate is the result of one intrinsic-value method. Unusable
// methods carry Available=false with a zero value and a reason in Details,
// so gap aggregation can exclude them without special-casing.
type ValuationEstimate struct {
	Method      string             `json:"method"`
	Value       float64            `json:"intrinsic_value"`
	Available   bool               `json:"available"`
	Assumptions map[string]float64 `json:"assumptions,omitempty"`
	Details     string             `json:"details"`
}

// AgentSignal is the final classified output for one ticker/persona.
// Confidence is in [0, 100].
type AgentSignal struct {
	Agent      string  `json:"agent"`
	Ticker     string  `json:"ticker"`
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Bundle is the structured analysis emitted once per ticker/persona
// invocation. It feeds the narrator and is never mutated after creation.
type Bundle struct {
	ID             string              `json:"id"`
	Agent          string              `json:"agent"`
	Ticker         string              `json:"ticker"`
	Signal         Signal              `json:"signal"`
	Confidence     float64             `json:"confidence"`
	Score          float64             `json:"score"`
	MaxScore       float64             `json:"max_score"`
	SubScores      []SubScore          `json:"sub_scores"`
	Valuations     []ValuationEstimate `json:"valuations,omitempty"`
	MarketCap      *float64            `json:"market_cap,omitempty"`
	MarginOfSafety *float64            `json:"margin_of_safety,omitempty"`
	Reasoning      string              `json:"reasoning"`
	GeneratedAt    time.Time           `json:"generated_at"`
}
