package session

import (
	"context"
	"errors"

	"github.com/okozhar/interview-simulator/internal/ai"
	"github.com/okozhar/interview-simulator/internal/rubric"
	"go.uber.org/zap"
)

// FinalReport aggregates all turns of a completed interview. It is built
// exactly once, when the session completes, and never changes afterwards.
type FinalReport struct {
	PerDimensionAverage map[rubric.Dimension]float64 `json:"per_dimension_average"`
	OverallScore        float64                      `json:"overall_score"`
	TurnCount           int                          `json:"turn_count"`
	Narrative           string                       `json:"narrative"`
}

// BuildReport computes the numeric aggregates and asks the summarizer for the
// narrative. A summarizer failure is non-fatal: the numbers are never withheld
// because narrative generation broke.
func BuildReport(ctx context.Context, turns []Turn, summarizer ai.Summarizer, logger *zap.Logger) (*FinalReport, error) {
	if len(turns) == 0 {
		return nil, errors.New("cannot build a report from zero turns")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	averages := make(map[rubric.Dimension]float64, len(rubric.Dimensions()))
	for _, dim := range rubric.Dimensions() {
		var sum float64
		for _, turn := range turns {
			sum += turn.Scores[dim]
		}
		averages[dim] = sum / float64(len(turns))
	}

	var overall float64
	for _, avg := range averages {
		overall += avg
	}
	overall /= float64(len(averages))

	report := &FinalReport{
		PerDimensionAverage: averages,
		OverallScore:        overall,
		TurnCount:           len(turns),
	}

	if summarizer == nil {
		return report, nil
	}

	narrative, err := summarizer.Summarize(ctx, Exchanges(turns))
	if err != nil {
		logger.Warn("narrative generation failed, report keeps numeric fields only",
			zap.Error(collaboratorErr(PhaseSummary, err)),
		)
		return report, nil
	}
	report.Narrative = narrative

	return report, nil
}
