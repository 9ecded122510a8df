package session

import (
	"time"

	"github.com/okozhar/interview-simulator/internal/ai"
	"github.com/okozhar/interview-simulator/internal/rubric"
)

// Turn is the immutable record of one question/answer/evaluation cycle.
// Turns are appended to the session in submission order and never mutated.
type Turn struct {
	Index     int             `json:"index"`
	Question  string          `json:"question"`
	Answer    string          `json:"answer"`
	Scores    rubric.ScoreSet `json:"scores"`
	Feedback  string          `json:"feedback"`
	CreatedAt time.Time       `json:"created_at"`
}

// AggregateScore is the mean of the turn's scores across all rubric
// dimensions.
func (t Turn) AggregateScore() float64 {
	return t.Scores.Mean()
}

func (t Turn) exchange() ai.Exchange {
	return ai.Exchange{
		Question: t.Question,
		Answer:   t.Answer,
		Scores:   t.Scores.Clone(),
		Feedback: t.Feedback,
	}
}

// Exchanges converts turns to the provider-facing history view.
func Exchanges(turns []Turn) []ai.Exchange {
	history := make([]ai.Exchange, 0, len(turns))
	for _, turn := range turns {
		history = append(history, turn.exchange())
	}
	return history
}
