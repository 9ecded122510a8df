package session

import (
	"fmt"
	"strings"

	"github.com/okozhar/interview-simulator/internal/rubric"
)

const (
	defaultMinQuestions    = 3
	defaultMaxQuestions    = 5
	defaultLanguage        = "en"
	defaultSufficientScore = 20.0
)

// Config holds the per-interview settings. It is fixed at session creation.
type Config struct {
	// MinQuestions is the hard floor: the interview never concludes before
	// this many turns.
	MinQuestions int `mapstructure:"min-questions" json:"min_questions"`
	// MaxQuestions is the hard ceiling. Equal to MinQuestions it degenerates
	// the interview to a fixed length.
	MaxQuestions int `mapstructure:"max-questions" json:"max_questions"`
	// Language is the locale the interview is conducted in.
	Language string `mapstructure:"language" json:"language"`
	// SufficientScore is the aggregate score a turn must reach before an
	// early stop is even considered.
	SufficientScore float64 `mapstructure:"sufficient-score" json:"sufficient_score"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MinQuestions:    defaultMinQuestions,
		MaxQuestions:    defaultMaxQuestions,
		Language:        defaultLanguage,
		SufficientScore: defaultSufficientScore,
	}
}

// Validate checks the config bounds and fills defaults for empty fields.
func (c *Config) Validate() error {
	if c.Language = strings.TrimSpace(c.Language); c.Language == "" {
		c.Language = defaultLanguage
	}

	if c.MinQuestions < 1 {
		return fmt.Errorf("min-questions must be at least 1, got %d", c.MinQuestions)
	}

	if c.MaxQuestions < c.MinQuestions {
		return fmt.Errorf("max-questions (%d) must not be lower than min-questions (%d)",
			c.MaxQuestions, c.MinQuestions)
	}

	if c.SufficientScore < rubric.MinScore || c.SufficientScore > rubric.MaxScore {
		return fmt.Errorf("sufficient-score %.2f is outside the rubric range [%g, %g]",
			c.SufficientScore, rubric.MinScore, rubric.MaxScore)
	}

	return nil
}
