package analysis

import "strings"

// Rung is one threshold step in a ladder. Detail may contain a single %v
// placeholder for the observed value.
type Rung struct {
	Threshold float64
	Points    float64
	Detail    string
}

// Ladder is an ordered set of rungs evaluated top-down, most favorable
// threshold first. The first satisfied rung determines the award; there is
// no partial or interpolated credit.
type Ladder struct {
	Rungs       []Rung
	Descending  bool   // when true a value must be below the threshold to satisfy a rung
	Unavailable string // detail recorded when the input is missing
	Fallback    string // detail recorded when no rung is satisfied
}

// Evaluate applies the ladder to an optional value. A nil value contributes
// zero points with the unavailable detail; it never fails.
func (l Ladder) Evaluate(value *float64) (float64, string) {
	if value == nil {
		return 0, l.Unavailable
	}
	for _, rung := range l.Rungs {
		satisfied := *value > rung.Threshold
		if l.Descending {
			satisfied = *value < rung.Threshold
		}
		if satisfied {
			return rung.Points, formatDetail(rung.Detail, *value)
		}
	}
	return 0, formatDetail(l.Fallback, *value)
}

// Scoreboard accumulates ladder awards and rationale fragments for one
// sub-score. Every evaluated metric appends exactly one fragment, in
// evaluation order.
type Scoreboard struct {
	score    float64
	maxScore float64
	details  []string
}

// NewScoreboard creates a scoreboard with a fixed ceiling
func NewScoreboard(maxScore float64) *Scoreboard {
	return &Scoreboard{maxScore: maxScore}
}

// Climb evaluates a ladder against a value and records the outcome
func (s *Scoreboard) Climb(l Ladder, value *float64) {
	points, detail := l.Evaluate(value)
	s.Award(points, detail)
}

// Award adds points with a rationale fragment
func (s *Scoreboard) Award(points float64, detail string) {
	s.score += points
	if detail != "" {
		s.details = append(s.details, detail)
	}
}

// Note records a rationale fragment without points
func (s *Scoreboard) Note(detail string) {
	s.details = append(s.details, detail)
}

// Score returns the accumulated score clamped into [0, MaxScore]
func (s *Scoreboard) Score() float64 {
	return clamp(s.score, 0, s.maxScore)
}

// Result produces the bounded sub-score with joined rationale
func (s *Scoreboard) Result(name string) SubScore {
	return SubScore{
		Name:     name,
		Score:    s.Score(),
		MaxScore: s.maxScore,
		Details:  strings.Join(s.details, "; "),
	}
}

func formatDetail(detail string, value float64) string {
	if strings.Contains(detail, "%v") {
		return strings.Replace(detail, "%v", trimFloat(value), 1)
	}
	return detail
}
