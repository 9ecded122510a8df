package session

import (
	"errors"
	"fmt"
)

// Validation errors: deterministic, raised synchronously, never retried.
var (
	ErrEmptyPortfolio = errors.New("portfolio summary is empty")
	ErrEmptyAnswer    = errors.New("answer is blank")
)

// State errors: the call does not match the session's current state.
var (
	ErrSessionBusy       = errors.New("another transition is already in flight")
	ErrNotStarted        = errors.New("session is not started")
	ErrAlreadyStarted    = errors.New("session is already started")
	ErrAlreadyCompleted  = errors.New("session is already completed")
	ErrNotCompleted      = errors.New("session is not completed yet")
	ErrNoPendingQuestion = errors.New("no pending question, request the next question first")
)

// Phase identifies which collaborator call failed.
type Phase string

const (
	PhaseQuestion   Phase = "question"
	PhaseEvaluation Phase = "evaluation"
	PhaseSummary    Phase = "summary"
	PhaseCompletion Phase = "completion"
)

// CollaboratorError wraps an upstream failure from one of the external
// collaborators. The session never retries these itself: it stays in its
// pre-call state and surfaces the phase so the caller can decide.
type CollaboratorError struct {
	Phase Phase
	Err   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator failed: %v", e.Phase, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorErr(phase Phase, err error) error {
	return &CollaboratorError{Phase: phase, Err: err}
}
