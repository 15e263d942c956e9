package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Vote thresholds: a sub-score counts as a bullish vote at or above 70% of
// its own ceiling and as a bearish vote at or below 30%.
const (
	voteBullishRatio = 0.7
	voteBearishRatio = 0.3
)

// Gap classification thresholds for valuation-driven aggregation
const (
	gapBullishThreshold = 0.15
	gapBearishThreshold = -0.15
	gapConfidenceSpan   = 0.30
)

// Aggregate is a combined classification with a 0-100 confidence
type Aggregate struct {
	Signal     Signal
	Confidence float64
	Details    string
}

// VoteTally accumulates weighted directional votes
type VoteTally struct {
	Bullish float64
	Bearish float64
	Total   float64
}

// Add records one vote with the given weight
func (t *VoteTally) Add(signal Signal, weight float64) {
	switch signal {
	case SignalBullish:
		t.Bullish += weight
	case SignalBearish:
		t.Bearish += weight
	}
	t.Total += weight
}

// Aggregate resolves the tally by majority. Ties resolve to neutral; an
// empty tally yields neutral with zero confidence rather than dividing by
// zero.
func (t VoteTally) Aggregate() Aggregate {
	if t.Total <= 0 {
		return Aggregate{Signal: SignalNeutral, Confidence: 0, Details: "No signals available"}
	}

	signal := SignalNeutral
	if t.Bullish > t.Bearish {
		signal = SignalBullish
	} else if t.Bearish > t.Bullish {
		signal = SignalBearish
	}

	confidence := round(math.Max(t.Bullish, t.Bearish)/t.Total*100, 2)
	return Aggregate{
		Signal:     signal,
		Confidence: confidence,
		Details:    fmt.Sprintf("Weighted bullish signals: %s, weighted bearish signals: %s", trimFloat(t.Bullish), trimFloat(t.Bearish)),
	}
}

// AggregateVotes classifies a set of sub-scores by majority vote, each
// sub-score voting by the ratio to its own ceiling.
func AggregateVotes(subs []SubScore) Aggregate {
	var tally VoteTally
	for _, sub := range subs {
		tally.Add(classifyRatio(sub.Ratio()), 1)
	}
	return tally.Aggregate()
}

func classifyRatio(ratio float64) Signal {
	if ratio >= voteBullishRatio {
		return SignalBullish
	}
	if ratio <= voteBearishRatio {
		return SignalBearish
	}
	return SignalNeutral
}

// Scale declares a persona's weighted classification bounds on a common
// normalized score range. Different personas use different scale/threshold
// pairs, so this is a parameter, not a constant.
type Scale struct {
	Bullish float64 // total at or above -> bullish
	Bearish float64 // total at or below -> bearish
	Max     float64 // ceiling of the normalized total
}

// WeightedInput pairs a pre-normalized sub-score with its weight
type WeightedInput struct {
	Sub    SubScore
	Weight float64
}

// AggregateWeighted combines pre-normalized sub-scores into a weighted total
// classified against the persona's scale. A zero total weight yields neutral
// with zero confidence.
func AggregateWeighted(inputs []WeightedInput, scale Scale) (Aggregate, float64) {
	totalWeight := 0.0
	total := 0.0
	for _, in := range inputs {
		total += in.Sub.Score * in.Weight
		totalWeight += in.Weight
	}
	if totalWeight <= 0 {
		return Aggregate{Signal: SignalNeutral, Confidence: 0, Details: "No weighted signals available"}, 0
	}

	signal := SignalNeutral
	if total >= scale.Bullish {
		signal = SignalBullish
	} else if total <= scale.Bearish {
		signal = SignalBearish
	}

	confidence := 0.0
	if scale.Max > 0 {
		confidence = round(clamp(total/scale.Max, 0, 1)*100, 2)
	}

	return Aggregate{
		Signal:     signal,
		Confidence: confidence,
		Details:    fmt.Sprintf("Weighted score %s out of %s", trimFloat(total), trimFloat(scale.Max)),
	}, total
}

// GapInput is one valuation method's estimate and declared weight
type GapInput struct {
	Method string
	Value  float64
	Weight float64
}

// MethodGap is a per-method deviation from market value
type MethodGap struct {
	Method string  `json:"method"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
	Gap    float64 `json:"gap"`
	Signal Signal  `json:"signal"`
}

// AggregateGaps combines valuation estimates by their percentage deviation
// from current market value. Weights are renormalized over only the methods
// that produced a usable (positive) estimate; when none did, the result is
// neutral with zero confidence.
func AggregateGaps(inputs []GapInput, marketValue float64) (Aggregate, []MethodGap) {
	if marketValue <= 0 {
		return Aggregate{Signal: SignalNeutral, Confidence: 0, Details: "Market value unavailable"}, nil
	}

	totalWeight := 0.0
	for _, in := range inputs {
		if in.Value > 0 {
			totalWeight += in.Weight
		}
	}
	if totalWeight <= 0 {
		return Aggregate{Signal: SignalNeutral, Confidence: 0, Details: "All valuation methods unavailable"}, nil
	}

	weightedGap := 0.0
	gaps := make([]MethodGap, 0, len(inputs))
	var details []string
	for _, in := range inputs {
		if in.Value <= 0 {
			continue
		}
		gap := (in.Value - marketValue) / marketValue
		weightedGap += in.Weight * gap

		signal := SignalNeutral
		if gap > gapBullishThreshold {
			signal = SignalBullish
		} else if gap < gapBearishThreshold {
			signal = SignalBearish
		}

		gaps = append(gaps, MethodGap{
			Method: in.Method,
			Value:  in.Value,
			Weight: in.Weight,
			Gap:    round(gap, 4),
			Signal: signal,
		})
		details = append(details, fmt.Sprintf("%s: value %.2f, gap %.1f%%, weight %.0f%%",
			in.Method, in.Value, gap*100, in.Weight*100))
	}
	weightedGap /= totalWeight

	signal := SignalNeutral
	if weightedGap > gapBullishThreshold {
		signal = SignalBullish
	} else if weightedGap < gapBearishThreshold {
		signal = SignalBearish
	}

	confidence := round(math.Min(math.Abs(weightedGap)/gapConfidenceSpan*100, 100), 2)

	return Aggregate{
		Signal:     signal,
		Confidence: confidence,
		Details:    fmt.Sprintf("Weighted gap %.1f%%; %s", weightedGap*100, strings.Join(details, "; ")),
	}, gaps
}
