package analysis

import (
	"strings"
	"testing"
)

func TestLadderEvaluate(t *testing.T) {
	ladder := Ladder{
		Rungs: []Rung{
			{Threshold: 0.25, Points: 3, Detail: "Strong growth of %v"},
			{Threshold: 0.10, Points: 2, Detail: "Good growth of %v"},
			{Threshold: 0.02, Points: 1, Detail: "Modest growth of %v"},
		},
		Unavailable: "Growth data unavailable",
		Fallback:    "Flat or declining",
	}

	tests := []struct {
		name       string
		value      *float64
		wantPoints float64
	}{
		{"nil input scores zero", nil, 0},
		{"above top rung", Float64(0.40), 3},
		{"exactly at threshold falls to next rung", Float64(0.25), 2},
		{"middle rung", Float64(0.15), 2},
		{"bottom rung", Float64(0.05), 1},
		{"below all rungs", Float64(0.01), 0},
		{"negative value", Float64(-0.10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, detail := ladder.Evaluate(tt.value)
			if points != tt.wantPoints {
				t.Errorf("Evaluate() points = %v, want %v", points, tt.wantPoints)
			}
			if detail == "" {
				t.Error("Evaluate() returned empty detail")
			}
		})
	}
}

func TestLadderEvaluateDescending(t *testing.T) {
	// Descending ladders award more points for smaller values (e.g. P/E)
	ladder := Ladder{
		Rungs: []Rung{
			{Threshold: 15, Points: 2, Detail: "Low P/E of %v"},
			{Threshold: 25, Points: 1, Detail: "Reasonable P/E of %v"},
		},
		Descending:  true,
		Unavailable: "P/E unavailable",
		Fallback:    "Elevated P/E",
	}

	tests := []struct {
		name       string
		value      float64
		wantPoints float64
	}{
		{"well below first rung", 8, 2},
		{"between rungs", 20, 1},
		{"above all rungs", 40, 0},
		{"exactly first threshold fails", 15, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, _ := ladder.Evaluate(Float64(tt.value))
			if points != tt.wantPoints {
				t.Errorf("Evaluate(%v) points = %v, want %v", tt.value, points, tt.wantPoints)
			}
		})
	}
}

func TestScoreboardBounds(t *testing.T) {
	// The total must stay within [0, max] no matter what is awarded
	sb := NewScoreboard(7)
	sb.Award(5, "first component")
	sb.Award(5, "second component")

	if got := sb.Score(); got != 7 {
		t.Errorf("Score() = %v, want clamped to 7", got)
	}

	sub := sb.Result("test")
	if sub.Score != 7 || sub.MaxScore != 7 {
		t.Errorf("Result() = %v/%v, want 7/7", sub.Score, sub.MaxScore)
	}
	if !strings.Contains(sub.Details, "first component") || !strings.Contains(sub.Details, "second component") {
		t.Errorf("Result() details missing awarded entries: %q", sub.Details)
	}
}

func TestScoreboardClimb(t *testing.T) {
	ladder := Ladder{
		Rungs:       []Rung{{Threshold: 0.15, Points: 2, Detail: "ROE of %v"}},
		Unavailable: "ROE unavailable",
		Fallback:    "Weak ROE",
	}

	sb := NewScoreboard(4)
	sb.Climb(ladder, Float64(0.22))
	sb.Climb(ladder, nil)

	if got := sb.Score(); got != 2 {
		t.Errorf("Score() = %v, want 2", got)
	}
	sub := sb.Result("quality")
	if !strings.Contains(sub.Details, "ROE unavailable") {
		t.Errorf("missing unavailable detail: %q", sub.Details)
	}
}

func TestSubScoreRatio(t *testing.T) {
	tests := []struct {
		name string
		sub  SubScore
		want float64
	}{
		{"half", SubScore{Score: 5, MaxScore: 10}, 0.5},
		{"full", SubScore{Score: 10, MaxScore: 10}, 1},
		{"zero max guards division", SubScore{Score: 5, MaxScore: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Ratio(); got != tt.want {
				t.Errorf("Ratio() = %v, want %v", got, tt.want)
			}
		})
	}
}
