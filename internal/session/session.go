package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okozhar/interview-simulator/internal/ai"
	"github.com/okozhar/interview-simulator/internal/rubric"
	"go.uber.org/zap"
)

// State is the observable phase of an interview session.
type State string

const (
	StateNotStarted           State = "not_started"
	StateAwaitingAnswer       State = "awaiting_answer"
	StateEvaluating           State = "evaluating"
	StateAwaitingNextQuestion State = "awaiting_next_question"
	StateCompleted            State = "completed"
)

// Collaborators bundles the external capabilities a session depends on.
// Generator and Evaluator are required, Summarizer is optional.
type Collaborators struct {
	Generator  ai.QuestionGenerator
	Evaluator  ai.Evaluator
	Summarizer ai.Summarizer
}

// Session drives one interview run: it requests questions, records answers,
// validates evaluations, applies the completion policy and builds the final
// report. A session exclusively owns its turn sequence.
//
// Exactly one transition may be in flight at a time. A second call while a
// collaborator call is pending is rejected with ErrSessionBusy, never queued.
type Session struct {
	id        uuid.UUID
	cfg       Config
	portfolio string
	collab    Collaborators
	policy    *Policy
	logger    *zap.Logger

	// transition serializes Start/SubmitAnswer/NextQuestion via TryLock so a
	// concurrent caller is rejected instead of blocked.
	transition sync.Mutex

	// mu guards the observable fields below so reads stay consistent while a
	// transition is in flight.
	mu      sync.RWMutex
	state   State
	pending string
	turns   []Turn
	report  *FinalReport
}

// New creates a session. The portfolio emptiness is checked at Start, not
// here, so a front end can construct the session before the document is read.
func New(cfg Config, portfolio string, collab Collaborators, logger *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	if collab.Generator == nil {
		return nil, errors.New("question generator is required")
	}

	if collab.Evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.New()

	return &Session{
		id:        id,
		cfg:       cfg,
		portfolio: portfolio,
		collab:    collab,
		policy:    NewPolicy(cfg, collab.Generator, logger),
		logger:    logger.With(zap.String("session_id", id.String())),
		state:     StateNotStarted,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Config returns the immutable session settings.
func (s *Session) Config() Config {
	return s.cfg
}

// CurrentState reports the session state, including the transient Evaluating
// and AwaitingNextQuestion phases while a transition is in flight.
func (s *Session) CurrentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// PendingQuestion returns the question awaiting an answer, empty if none.
func (s *Session) PendingQuestion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Turns returns a copy of the recorded turns in interview order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	for i, turn := range s.turns {
		turn.Scores = turn.Scores.Clone()
		out[i] = turn
	}
	return out
}

// FinalReport returns the report of a completed session. Before completion it
// fails with ErrNotCompleted. Repeated calls return the identical report.
func (s *Session) FinalReport() (*FinalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateCompleted {
		return nil, ErrNotCompleted
	}
	return s.report, nil
}

// Start transitions NotStarted -> AwaitingAnswer by requesting the opening
// question. On any failure the session stays in NotStarted and Start can be
// called again.
func (s *Session) Start(ctx context.Context) (string, error) {
	if !s.transition.TryLock() {
		return "", ErrSessionBusy
	}
	defer s.transition.Unlock()

	if state := s.CurrentState(); state != StateNotStarted {
		if state == StateCompleted {
			return "", ErrAlreadyCompleted
		}
		return "", ErrAlreadyStarted
	}

	if strings.TrimSpace(s.portfolio) == "" {
		return "", ErrEmptyPortfolio
	}

	question, err := s.collab.Generator.GenerateQuestion(ctx, s.portfolio, nil)
	if err != nil {
		return "", collaboratorErr(PhaseQuestion, err)
	}

	if question = strings.TrimSpace(question); question == "" {
		return "", collaboratorErr(PhaseQuestion, errors.New("generator returned an empty question"))
	}

	s.mu.Lock()
	s.pending = question
	s.state = StateAwaitingAnswer
	s.mu.Unlock()

	s.logger.Info("interview started",
		zap.Int("min_questions", s.cfg.MinQuestions),
		zap.Int("max_questions", s.cfg.MaxQuestions),
		zap.String("language", s.cfg.Language),
	)

	return question, nil
}

// SubmitAnswer records the candidate's answer to the pending question,
// evaluates it, appends the resulting turn and advances the interview.
//
// A blank answer or an evaluator contract violation leaves the session in
// AwaitingAnswer with no turn appended, so the exact same call can be retried.
// If the turn was appended but fetching the next question failed, the turn and
// the error are both returned and the session waits in AwaitingNextQuestion
// for a NextQuestion call.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) (*Turn, error) {
	if !s.transition.TryLock() {
		return nil, ErrSessionBusy
	}
	defer s.transition.Unlock()

	switch s.CurrentState() {
	case StateAwaitingAnswer:
	case StateCompleted:
		return nil, ErrAlreadyCompleted
	case StateNotStarted:
		return nil, ErrNotStarted
	default:
		return nil, ErrNoPendingQuestion
	}

	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	s.setState(StateEvaluating)

	evaluation, err := s.collab.Evaluator.Evaluate(ctx, s.pending, answer, s.portfolio, Exchanges(s.turns))
	if err != nil {
		s.setState(StateAwaitingAnswer)
		return nil, collaboratorErr(PhaseEvaluation, err)
	}

	// An invalid score set is a collaborator defect. It must fail loudly
	// instead of being clamped into a plausible-looking turn.
	if err := rubric.Validate(evaluation.Scores); err != nil {
		s.setState(StateAwaitingAnswer)
		return nil, fmt.Errorf("evaluator returned a malformed score set: %w", err)
	}

	turn := Turn{
		Index:     len(s.turns),
		Question:  s.pending,
		Answer:    answer,
		Scores:    evaluation.Scores.Clone(),
		Feedback:  evaluation.Feedback,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.pending = ""
	s.state = StateAwaitingNextQuestion
	s.mu.Unlock()

	s.logger.Info("turn recorded",
		zap.Int("turn", turn.Index),
		zap.Float64("aggregate_score", turn.AggregateScore()),
	)

	if err := s.advance(ctx); err != nil {
		return &turn, err
	}

	return &turn, nil
}

// NextQuestion resumes a session stuck in AwaitingNextQuestion after a failed
// policy probe or question fetch. It re-applies the completion policy and
// either stores the next pending question or completes the interview.
func (s *Session) NextQuestion(ctx context.Context) (string, error) {
	if !s.transition.TryLock() {
		return "", ErrSessionBusy
	}
	defer s.transition.Unlock()

	switch s.CurrentState() {
	case StateAwaitingNextQuestion:
	case StateCompleted:
		return "", ErrAlreadyCompleted
	case StateNotStarted:
		return "", ErrNotStarted
	default:
		return "", ErrAlreadyStarted
	}

	if err := s.advance(ctx); err != nil {
		return "", err
	}

	return s.PendingQuestion(), nil
}

// advance runs the completion policy against the recorded turns and performs
// the AwaitingNextQuestion -> AwaitingAnswer or -> Completed transition.
// Callers hold the transition lock. On error the session stays in
// AwaitingNextQuestion.
func (s *Session) advance(ctx context.Context) error {
	decision, err := s.policy.Decide(ctx, s.portfolio, s.turns)
	if err != nil {
		return err
	}

	if decision == Continue {
		question, err := s.collab.Generator.GenerateQuestion(ctx, s.portfolio, Exchanges(s.turns))
		if err != nil {
			return collaboratorErr(PhaseQuestion, err)
		}
		if question = strings.TrimSpace(question); question == "" {
			return collaboratorErr(PhaseQuestion, errors.New("generator returned an empty question"))
		}

		s.mu.Lock()
		s.pending = question
		s.state = StateAwaitingAnswer
		s.mu.Unlock()

		return nil
	}

	report, err := BuildReport(ctx, s.turns, s.collab.Summarizer, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.report = report
	s.state = StateCompleted
	s.mu.Unlock()

	s.logger.Info("interview completed",
		zap.String("decision", decision.String()),
		zap.Int("turns", report.TurnCount),
		zap.Float64("overall_score", report.OverallScore),
	)

	return nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
