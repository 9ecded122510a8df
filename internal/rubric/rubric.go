package rubric

import (
	"fmt"
	"strings"
)

// Dimension is one of the fixed scoring axes of the admission rubric.
type Dimension string

const (
	ClarityCommunication Dimension = "clarity_and_communication"
	RelevanceContent     Dimension = "relevance_and_content"
	CriticalThinking     Dimension = "critical_thinking"
	OverallImpact        Dimension = "overall_impact"

	// MinScore and MaxScore bound every dimension.
	MinScore = 0.0
	MaxScore = 25.0
)

// dimensions holds the rubric axes in their canonical order.
var dimensions = []Dimension{
	ClarityCommunication,
	RelevanceContent,
	CriticalThinking,
	OverallImpact,
}

// Dimensions returns the rubric axes in canonical order. The returned slice is
// a copy, the rubric itself never changes.
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensions))
	copy(out, dimensions)
	return out
}

// Title returns a human readable name for the dimension.
func (d Dimension) Title() string {
	words := strings.Split(string(d), "_")
	for i, w := range words {
		if w == "and" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ScoreSet maps every rubric dimension to its score for a single answer.
type ScoreSet map[Dimension]float64

// InvalidScoreError reports a ScoreSet that does not satisfy the rubric.
type InvalidScoreError struct {
	Dimension Dimension
	Reason    string
}

func (e *InvalidScoreError) Error() string {
	if e.Dimension == "" {
		return fmt.Sprintf("invalid score set: %s", e.Reason)
	}
	return fmt.Sprintf("invalid score for %q: %s", e.Dimension, e.Reason)
}

// Validate checks the score set against the rubric: every dimension present,
// no unknown dimensions, every value within [MinScore, MaxScore].
func Validate(scores ScoreSet) error {
	if scores == nil {
		return &InvalidScoreError{Reason: "score set is nil"}
	}

	for _, dim := range dimensions {
		value, ok := scores[dim]
		if !ok {
			return &InvalidScoreError{Dimension: dim, Reason: "dimension is missing"}
		}
		if value < MinScore || value > MaxScore {
			return &InvalidScoreError{
				Dimension: dim,
				Reason:    fmt.Sprintf("value %.2f is outside [%g, %g]", value, MinScore, MaxScore),
			}
		}
	}

	if len(scores) != len(dimensions) {
		for dim := range scores {
			if !known(dim) {
				return &InvalidScoreError{Dimension: dim, Reason: "dimension is not part of the rubric"}
			}
		}
	}

	return nil
}

// Mean returns the aggregate score of the set: the arithmetic mean across all
// rubric dimensions. The set is expected to be validated first.
func (s ScoreSet) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, dim := range dimensions {
		sum += s[dim]
	}
	return sum / float64(len(dimensions))
}

// Clone returns an independent copy of the score set.
func (s ScoreSet) Clone() ScoreSet {
	if s == nil {
		return nil
	}
	out := make(ScoreSet, len(s))
	for dim, value := range s {
		out[dim] = value
	}
	return out
}

func known(d Dimension) bool {
	for _, dim := range dimensions {
		if dim == d {
			return true
		}
	}
	return false
}
