package session

import (
	"context"

	"github.com/okozhar/interview-simulator/internal/ai"
	"go.uber.org/zap"
)

// Decision is the completion policy's verdict after a turn.
type Decision int

const (
	// Continue means the interview goes on with another question.
	Continue Decision = iota
	// StopEarly means the candidate performed well enough and the portfolio
	// holds no further topics worth probing.
	StopEarly
	// StopAtMax means the hard question ceiling is reached.
	StopAtMax
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case StopEarly:
		return "stop_early"
	case StopAtMax:
		return "stop_at_max"
	default:
		return "unknown"
	}
}

// Policy decides after each turn whether the interview continues or ends.
// The topic probe is only consulted between the floor and the ceiling, and
// only once the last turn's aggregate score reaches the sufficient threshold.
type Policy struct {
	cfg       Config
	generator ai.QuestionGenerator
	logger    *zap.Logger
}

// NewPolicy creates the completion policy for one interview run.
func NewPolicy(cfg Config, generator ai.QuestionGenerator, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{cfg: cfg, generator: generator, logger: logger}
}

// Decide evaluates the turns so far. A topic probe failure surfaces as a
// CollaboratorError with the completion phase and changes nothing.
func (p *Policy) Decide(ctx context.Context, portfolio string, turns []Turn) (Decision, error) {
	if len(turns) < p.cfg.MinQuestions {
		return Continue, nil
	}

	if len(turns) >= p.cfg.MaxQuestions {
		return StopAtMax, nil
	}

	last := turns[len(turns)-1]
	aggregate := last.AggregateScore()
	if aggregate < p.cfg.SufficientScore {
		return Continue, nil
	}

	more, err := p.generator.HasMoreTopics(ctx, portfolio, Exchanges(turns))
	if err != nil {
		return Continue, collaboratorErr(PhaseCompletion, err)
	}

	if more {
		return Continue, nil
	}

	p.logger.Debug("early stop",
		zap.Int("turns", len(turns)),
		zap.Float64("last_aggregate", aggregate),
		zap.Float64("threshold", p.cfg.SufficientScore),
	)

	return StopEarly, nil
}
