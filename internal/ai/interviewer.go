package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/okozhar/interview-simulator/internal/rubric"
	"github.com/okozhar/interview-simulator/internal/util"
	"go.uber.org/zap"
)

//go:embed prompts/question.md
var questionTemplate string

//go:embed prompts/evaluation.md
var evaluationTemplate string

//go:embed prompts/topics.md
var topicsTemplate string

//go:embed prompts/summary.md
var summaryTemplate string

//go:embed prompts/validate.md
var validateTemplate string

const defaultMaxLogLength = 200

// ContentGenerator is the minimal surface an LLM backend must provide. Both
// the Gemini and the OpenAI clients satisfy it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Interviewer implements every interview collaborator on top of a single
// content generator: question generation, topic probing, answer evaluation,
// narrative summary and portfolio validation.
type Interviewer struct {
	generator ContentGenerator
	language  string
	logger    *zap.Logger
	maxLogLen int
}

// NewInterviewer creates an Interviewer speaking the given language.
func NewInterviewer(generator ContentGenerator, language string, logger *zap.Logger, maxLogLength int) *Interviewer {
	if language = strings.TrimSpace(language); language == "" {
		language = "en"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Interviewer{
		generator: generator,
		language:  language,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// GenerateQuestion implements QuestionGenerator.
func (i *Interviewer) GenerateQuestion(ctx context.Context, portfolio string, history []Exchange) (string, error) {
	prompt := i.buildPrompt(questionTemplate, portfolio, history, nil)

	raw, err := i.generate(ctx, "question", prompt)
	if err != nil {
		return "", err
	}

	question := strings.TrimSpace(stripFences(raw))
	if question == "" {
		return "", errors.New("model returned an empty question")
	}

	return question, nil
}

// HasMoreTopics implements the QuestionGenerator topic probe.
func (i *Interviewer) HasMoreTopics(ctx context.Context, portfolio string, history []Exchange) (bool, error) {
	prompt := i.buildPrompt(topicsTemplate, portfolio, history, nil)

	raw, err := i.generate(ctx, "topics", prompt)
	if err != nil {
		return false, err
	}

	var payload struct {
		MoreTopics bool   `json:"more_topics"`
		Reason     string `json:"reason"`
	}
	if err := decodeResponse(raw, &payload); err != nil {
		return false, fmt.Errorf("parse topic probe response: %w", err)
	}

	i.logger.Debug("topic probe",
		zap.Bool("more_topics", payload.MoreTopics),
		zap.String("reason", payload.Reason),
	)

	return payload.MoreTopics, nil
}

// Evaluate implements Evaluator. The returned score set is not validated
// here: the session validates it at the boundary and treats a malformed set
// as a collaborator defect.
func (i *Interviewer) Evaluate(ctx context.Context, question, answer, portfolio string, history []Exchange) (*Evaluation, error) {
	prompt := i.buildPrompt(evaluationTemplate, portfolio, history, map[string]string{
		"{{QUESTION}}": question,
		"{{ANSWER}}":   answer,
	})

	raw, err := i.generate(ctx, "evaluation", prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Scores   map[string]float64 `json:"scores"`
		Feedback string             `json:"feedback"`
	}
	if err := decodeResponse(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse evaluation response: %w", err)
	}

	scores := make(rubric.ScoreSet, len(payload.Scores))
	for key, value := range payload.Scores {
		scores[rubric.Dimension(key)] = value
	}

	return &Evaluation{
		Scores:   scores,
		Feedback: strings.TrimSpace(payload.Feedback),
		Raw:      raw,
	}, nil
}

// Summarize implements Summarizer.
func (i *Interviewer) Summarize(ctx context.Context, history []Exchange) (string, error) {
	prompt := i.buildPrompt(summaryTemplate, "", history, nil)

	raw, err := i.generate(ctx, "summary", prompt)
	if err != nil {
		return "", err
	}

	narrative := strings.TrimSpace(stripFences(raw))
	if narrative == "" {
		return "", errors.New("model returned an empty narrative")
	}

	return narrative, nil
}

// ValidatePortfolio implements PortfolioValidator.
func (i *Interviewer) ValidatePortfolio(ctx context.Context, portfolio string) (*PortfolioAssessment, error) {
	prompt := i.buildPrompt(validateTemplate, portfolio, nil, nil)

	raw, err := i.generate(ctx, "validation", prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := decodeResponse(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse validation response: %w", err)
	}

	return &PortfolioAssessment{
		Valid:   payload.Valid,
		Message: strings.TrimSpace(payload.Message),
		Raw:     raw,
	}, nil
}

func (i *Interviewer) generate(ctx context.Context, kind, prompt string) (string, error) {
	i.logger.Debug("model request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	i.logger.Debug("model response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, i.maxLogLen)),
	)

	return raw, nil
}

func (i *Interviewer) buildPrompt(template, portfolio string, history []Exchange, extra map[string]string) string {
	prompt := strings.ReplaceAll(template, "{{LANGUAGE}}", i.language)
	prompt = strings.ReplaceAll(prompt, "{{PORTFOLIO}}", portfolio)
	prompt = strings.ReplaceAll(prompt, "{{HISTORY_JSON}}", historyJSON(history))
	for placeholder, value := range extra {
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}
	return prompt
}

type historyEntry struct {
	Question string             `json:"question"`
	Answer   string             `json:"answer"`
	Scores   map[string]float64 `json:"scores,omitempty"`
	Feedback string             `json:"feedback,omitempty"`
}

func historyJSON(history []Exchange) string {
	entries := make([]historyEntry, 0, len(history))
	for _, exchange := range history {
		entry := historyEntry{
			Question: exchange.Question,
			Answer:   exchange.Answer,
			Feedback: exchange.Feedback,
		}
		if len(exchange.Scores) > 0 {
			entry.Scores = make(map[string]float64, len(exchange.Scores))
			for dim, value := range exchange.Scores {
				entry.Scores[string(dim)] = value
			}
		}
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeResponse parses a model response that is supposed to be JSON. Fenced
// output is unwrapped and the decoding is deliberately weakly typed: models
// occasionally quote numbers or booleans.
func decodeResponse(raw string, out any) error {
	cleaned := stripFences(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return err
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
