// internal/models/score.go
package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Dimension names the six fixed evaluation skill categories.
type Dimension string

const (
	DimCommunication  Dimension = "communication"
	DimSupport        Dimension = "support"
	DimGoalManagement Dimension = "goal_management"
	DimLeadership     Dimension = "leadership"
	DimProblemSolving Dimension = "problem_solving"
	DimStrategy       Dimension = "strategy"
)

// Dimensions lists every skill dimension in canonical display order.
var Dimensions = []Dimension{
	DimCommunication,
	DimSupport,
	DimGoalManagement,
	DimLeadership,
	DimProblemSolving,
	DimStrategy,
}

// ScoreSet holds one numeric value in [0,5] per skill dimension. Unspecified
// dimensions default to zero. Immutable once constructed.
type ScoreSet struct {
	Communication  float64 `json:"communication"`
	Support        float64 `json:"support"`
	GoalManagement float64 `json:"goal_management"`
	Leadership     float64 `json:"leadership"`
	ProblemSolving float64 `json:"problem_solving"`
	Strategy       float64 `json:"strategy"`
}

// NewScoreSet builds a validated ScoreSet from a dimension-keyed map.
// Unknown dimensions are rejected; missing ones default to zero.
func NewScoreSet(values map[string]float64) (ScoreSet, error) {
	var s ScoreSet
	for name, v := range values {
		if v < 0 || v > 5 {
			return ScoreSet{}, fmt.Errorf("score for %q out of range [0,5]: %v", name, v)
		}
		switch Dimension(name) {
		case DimCommunication:
			s.Communication = v
		case DimSupport:
			s.Support = v
		case DimGoalManagement:
			s.GoalManagement = v
		case DimLeadership:
			s.Leadership = v
		case DimProblemSolving:
			s.ProblemSolving = v
		case DimStrategy:
			s.Strategy = v
		default:
			return ScoreSet{}, fmt.Errorf("unknown skill dimension %q", name)
		}
	}
	return s, nil
}

// Get returns the value for a dimension.
func (s ScoreSet) Get(d Dimension) float64 {
	switch d {
	case DimCommunication:
		return s.Communication
	case DimSupport:
		return s.Support
	case DimGoalManagement:
		return s.GoalManagement
	case DimLeadership:
		return s.Leadership
	case DimProblemSolving:
		return s.ProblemSolving
	case DimStrategy:
		return s.Strategy
	}
	return 0
}

// IsZero reports whether every dimension is zero.
func (s ScoreSet) IsZero() bool {
	for _, d := range Dimensions {
		if s.Get(d) != 0 {
			return false
		}
	}
	return true
}

// Lowest returns the dimensions sharing the minimum value, ties included,
// in canonical order, along with that value.
func (s ScoreSet) Lowest() ([]Dimension, float64) {
	low := s.Get(Dimensions[0])
	for _, d := range Dimensions[1:] {
		if v := s.Get(d); v < low {
			low = v
		}
	}
	var dims []Dimension
	for _, d := range Dimensions {
		if s.Get(d) == low {
			dims = append(dims, d)
		}
	}
	return dims, low
}

// CacheKey derives a deterministic key from the sorted (dimension, value)
// pairs plus the optional template identifier. Two ScoreSets with identical
// values produce identical keys regardless of construction order.
func (s ScoreSet) CacheKey(templateID string) string {
	type pair struct {
		Dimension string  `json:"dimension"`
		Value     float64 `json:"value"`
	}
	pairs := make([]pair, 0, len(Dimensions))
	for _, d := range Dimensions {
		pairs = append(pairs, pair{Dimension: string(d), Value: s.Get(d)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Dimension < pairs[j].Dimension })

	key := struct {
		Scores   []pair `json:"scores"`
		Template string `json:"template,omitempty"`
	}{Scores: pairs, Template: templateID}

	b, _ := json.Marshal(key)
	return string(b)
}
