package ai

import (
	"context"

	"github.com/okozhar/interview-simulator/internal/rubric"
)

// Exchange is the provider-facing view of one completed interview turn. It
// carries everything a model needs to avoid repeating topics and to judge the
// candidate in context.
type Exchange struct {
	Question string
	Answer   string
	Scores   rubric.ScoreSet
	Feedback string
}

// Evaluation is the result of scoring a single answer.
type Evaluation struct {
	Scores   rubric.ScoreSet
	Feedback string
	Raw      string
}

// PortfolioAssessment is the result of checking a portfolio before the
// interview starts.
type PortfolioAssessment struct {
	Valid   bool
	Message string
	Raw     string
}

// QuestionGenerator produces interview questions derived from the portfolio
// and the exchanges so far.
type QuestionGenerator interface {
	// GenerateQuestion returns the next question. An empty history requests
	// the opening question.
	GenerateQuestion(ctx context.Context, portfolio string, history []Exchange) (string, error)

	// HasMoreTopics reports whether the portfolio still holds substantive
	// topics that the history has not probed yet.
	HasMoreTopics(ctx context.Context, portfolio string, history []Exchange) (bool, error)
}

// Evaluator scores one answer against the admission rubric and produces
// feedback text for the candidate.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer, portfolio string, history []Exchange) (*Evaluation, error)
}

// Summarizer produces the narrative part of the final report. It is optional:
// callers must tolerate its failure.
type Summarizer interface {
	Summarize(ctx context.Context, history []Exchange) (string, error)
}

// PortfolioValidator checks that an extracted portfolio is readable and holds
// enough substance to interview against.
type PortfolioValidator interface {
	ValidatePortfolio(ctx context.Context, portfolio string) (*PortfolioAssessment, error)
}
