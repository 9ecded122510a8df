package portfolio

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/okozhar/interview-simulator/internal/ai"
	"go.uber.org/zap"
)

// Check is a single pre-interview validation step applied to the extracted
// portfolio text.
type Check interface {
	Name() string
	Apply(ctx context.Context, deps CheckDeps, summary string) error
}

// CheckDeps aggregates dependencies shared across all checks.
type CheckDeps struct {
	Logger    *zap.Logger
	Validator ai.PortfolioValidator
}

// RunChecks executes the supplied checks sequentially. The first failure
// aborts the run.
func RunChecks(ctx context.Context, deps CheckDeps, summary string, checks []Check) error {
	for _, check := range checks {
		if err := check.Apply(ctx, deps, summary); err != nil {
			return fmt.Errorf("%s: %w", check.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Debug("portfolio check passed", zap.String("name", check.Name()))
		}
	}

	return nil
}

// DefaultChecks returns the standard check sequence.
func DefaultChecks(minLength int) []Check {
	return []Check{
		NewSubstanceCheck(minLength),
		NewAICheck(),
	}
}

type substanceCheck struct {
	minLength int
}

// NewSubstanceCheck creates a check that rejects empty or too-short
// portfolios before spending a model call on them.
func NewSubstanceCheck(minLength int) Check {
	return &substanceCheck{minLength: minLength}
}

func (c *substanceCheck) Name() string { return "substance" }

func (c *substanceCheck) Apply(_ context.Context, _ CheckDeps, summary string) error {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("portfolio is empty")
	}

	if length := utf8.RuneCountInString(summary); length < c.minLength {
		return fmt.Errorf("portfolio holds only %d characters, at least %d are required", length, c.minLength)
	}

	return nil
}

type aiCheck struct{}

// NewAICheck creates a check that asks the model-backed validator whether the
// portfolio holds enough substance to interview against. Without a validator
// the check is skipped.
func NewAICheck() Check {
	return &aiCheck{}
}

func (c *aiCheck) Name() string { return "ai_validation" }

func (c *aiCheck) Apply(ctx context.Context, deps CheckDeps, summary string) error {
	if deps.Validator == nil {
		if deps.Logger != nil {
			deps.Logger.Debug("no portfolio validator configured, skipping ai validation")
		}
		return nil
	}

	assessment, err := deps.Validator.ValidatePortfolio(ctx, summary)
	if err != nil {
		return fmt.Errorf("validating portfolio: %w", err)
	}

	if !assessment.Valid {
		return fmt.Errorf("portfolio rejected: %s", assessment.Message)
	}

	return nil
}
