package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/okozhar/interview-simulator/internal/ai"
	"github.com/okozhar/interview-simulator/internal/ai/gemini"
	"github.com/okozhar/interview-simulator/internal/ai/openai"
	"github.com/okozhar/interview-simulator/internal/logger"
	"github.com/okozhar/interview-simulator/internal/portfolio"
	"github.com/okozhar/interview-simulator/internal/rubric"
	"github.com/okozhar/interview-simulator/internal/secrets"
	"github.com/okozhar/interview-simulator/internal/session"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptDumpTranscript = "Dump transcript to file"
	PromptExit           = "Exit"

	defaultCacheDir = "cache"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an admission interview against a portfolio document",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("portfolio", "p", "", "path to the portfolio document (pdf, txt or md)")

	viper.BindPFlag("portfolio", runCmd.Flags().Lookup("portfolio"))
}

// run is the main command for the cli.
func run() {
	ctx := context.Background()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	if config == nil {
		log.Fatal("config is required")
	}

	zlog, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  config.LogFile,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	zlog.Info("starting the interview simulator", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	sessCfg := session.DefaultConfig()
	if config.Session != nil {
		sessCfg = *config.Session
	}
	if err := sessCfg.Validate(); err != nil {
		zlog.Fatal("invalid session config", zap.Error(err))
	}

	portfolioPath := strings.TrimSpace(viper.GetString("portfolio"))
	if portfolioPath == "" {
		zlog.Fatal("portfolio path is required",
			zap.String("hint", "pass --portfolio or set the 'portfolio' key in the configuration file"),
		)
	}

	interviewer, providerName, err := buildInterviewer(ctx, config.AI, sessCfg.Language, zlog)
	if err != nil {
		zlog.Fatal("building the ai interviewer", zap.Error(err))
	}

	zlog.Info("using ai provider", zap.String("provider", providerName))

	summary, err := preparePortfolio(ctx, config, portfolioPath, interviewer, zlog)
	if err != nil {
		zlog.Fatal("preparing the portfolio", zap.Error(err))
	}

	sess, err := session.New(sessCfg, summary, session.Collaborators{
		Generator:  interviewer,
		Evaluator:  interviewer,
		Summarizer: interviewer,
	}, zlog)
	if err != nil {
		zlog.Fatal("creating the session", zap.Error(err))
	}

	question, err := sess.Start(ctx)
	if err != nil {
		zlog.Fatal("starting the interview", zap.Error(err))
	}

	if err := interviewLoop(ctx, sess, question, zlog); err != nil {
		zlog.Fatal("exiting", zap.Error(err))
	}

	report, err := sess.FinalReport()
	if err != nil {
		zlog.Fatal("getting the final report", zap.Error(err))
	}

	printReport(report)

	if err := handleEpilogue(sess, report, zlog); err != nil {
		zlog.Fatal("exiting", zap.Error(err))
	}
}

// interviewLoop drives the question/answer exchange until the session
// completes. Collaborator failures never abort the interview: the loop
// retries the same transition, as the session keeps its pre-call state.
func interviewLoop(ctx context.Context, sess *session.Session, question string, zlog *zap.Logger) error {
	for sess.CurrentState() != session.StateCompleted {
		turnNumber := len(sess.Turns()) + 1
		fmt.Printf("\nQuestion %d: %s\n\n", turnNumber, question)

		answer, err := promptAnswer()
		if err != nil {
			return err
		}

		turn, err := sess.SubmitAnswer(ctx, answer)
		if err != nil {
			if errors.Is(err, session.ErrEmptyAnswer) {
				fmt.Println("Please give an answer.")
				continue
			}

			var collab *session.CollaboratorError
			if errors.As(err, &collab) {
				zlog.Warn("collaborator call failed, retrying the step",
					zap.String("phase", string(collab.Phase)),
					zap.Error(collab.Err),
				)

				// A post-append failure parks the session awaiting the next
				// question. Resume it, otherwise resubmit the same answer.
				if sess.CurrentState() == session.StateAwaitingNextQuestion {
					if turn != nil {
						printTurn(turn)
					}
					if question, err = resumeNextQuestion(ctx, sess, zlog); err != nil {
						return err
					}
				}
				continue
			}

			return err
		}

		printTurn(turn)
		question = sess.PendingQuestion()
	}

	return nil
}

func resumeNextQuestion(ctx context.Context, sess *session.Session, zlog *zap.Logger) (string, error) {
	for {
		question, err := sess.NextQuestion(ctx)
		if err == nil {
			return question, nil
		}

		var collab *session.CollaboratorError
		if !errors.As(err, &collab) {
			return "", err
		}

		zlog.Warn("fetching the next question failed",
			zap.String("phase", string(collab.Phase)),
			zap.Error(collab.Err),
		)

		prompt := promptui.Select{
			Label: "The model service is unavailable. Try again?",
			Items: []string{"Retry", PromptExit},
		}
		_, action, err := prompt.Run()
		if err != nil {
			return "", err
		}
		if action == PromptExit {
			return "", errors.New("interview aborted by the user")
		}
	}
}

func promptAnswer() (string, error) {
	prompt := promptui.Prompt{
		Label: "Your answer",
	}

	return prompt.Run()
}

func printTurn(turn *session.Turn) {
	fmt.Println("\nScores:")
	for _, dim := range rubric.Dimensions() {
		fmt.Printf("  %-28s %5.1f / 25\n", dim.Title()+":", turn.Scores[dim])
	}
	fmt.Printf("  %-28s %5.1f / 25\n", "Aggregate:", turn.AggregateScore())
	if turn.Feedback != "" {
		fmt.Printf("\nFeedback: %s\n", turn.Feedback)
	}
}

func printReport(report *session.FinalReport) {
	fmt.Println("\n=== Final evaluation ===")
	fmt.Printf("Questions answered: %d\n", report.TurnCount)
	for _, dim := range rubric.Dimensions() {
		fmt.Printf("  %-28s %5.1f / 25\n", dim.Title()+":", report.PerDimensionAverage[dim])
	}
	fmt.Printf("  %-28s %5.1f / 25\n", "Overall:", report.OverallScore)
	if report.Narrative != "" {
		fmt.Printf("\n%s\n", report.Narrative)
	}
}

func handleEpilogue(sess *session.Session, report *session.FinalReport, zlog *zap.Logger) error {
	prompt := promptui.Select{
		Label: "Interview finished",
		Items: []string{PromptDumpTranscript, PromptExit},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptDumpTranscript:
			filename, err := dumpTranscript(sess, report)
			if err != nil {
				return fmt.Errorf("dump transcript to file: %w", err)
			}
			zlog.Info("dumping transcript to file", zap.String("filename", filename))
		case PromptExit:
			return nil
		}
	}
}

func dumpTranscript(sess *session.Session, report *session.FinalReport) (string, error) {
	transcript := struct {
		SessionID uuid.UUID            `json:"session_id"`
		Config    session.Config       `json:"config"`
		Turns     []session.Turn       `json:"turns"`
		Report    *session.FinalReport `json:"report"`
	}{
		SessionID: sess.ID(),
		Config:    sess.Config(),
		Turns:     sess.Turns(),
		Report:    report,
	}

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return "", err
	}

	filename := filepath.Join(os.TempDir(), fmt.Sprintf("interview-%s.json", sess.ID()))
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", err
	}

	return filename, nil
}

// preparePortfolio extracts the portfolio text and runs the pre-interview
// checks, consulting the cache keyed by the document's content hash.
func preparePortfolio(ctx context.Context, config *Config, path string, validator ai.PortfolioValidator, zlog *zap.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading portfolio %q: %w", path, err)
	}

	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	cache := portfolio.NewCache(cacheDir, zlog)
	key := portfolio.Key(data)

	if entry, ok := cache.Get(key); ok {
		if !entry.Valid {
			return "", fmt.Errorf("portfolio was rejected earlier: %s", entry.Message)
		}
		zlog.Info("using cached portfolio", zap.String("path", path))
		if err := cache.Save(); err != nil {
			zlog.Warn("saving portfolio cache failed", zap.Error(err))
		}
		return entry.Summary, nil
	}

	extractor := portfolio.NewExtractor(zlog)
	summary, err := extractor.ExtractBytes(ctx, data, filepath.Ext(path))
	if err != nil {
		return "", err
	}

	deps := portfolio.CheckDeps{Logger: zlog}
	if config.AI != nil && config.AI.ValidatePortfolio {
		deps.Validator = validator
	}

	if err := portfolio.RunChecks(ctx, deps, summary, portfolio.DefaultChecks(40)); err != nil {
		cache.Put(key, portfolio.Entry{Valid: false, Message: err.Error()})
		if saveErr := cache.Save(); saveErr != nil {
			zlog.Warn("saving portfolio cache failed", zap.Error(saveErr))
		}
		return "", err
	}

	cache.Put(key, portfolio.Entry{Summary: summary, Valid: true})
	if err := cache.Save(); err != nil {
		zlog.Warn("saving portfolio cache failed", zap.Error(err))
	}

	return summary, nil
}

// buildInterviewer constructs the model-backed interviewer for the configured
// provider.
func buildInterviewer(ctx context.Context, cfg *AIConfig, language string, zlog *zap.Logger) (*ai.Interviewer, string, error) {
	if cfg == nil {
		return nil, "", errors.New("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}

	var generator ai.ContentGenerator

	switch provider {
	case "gemini":
		if cfg.Gemini == nil {
			return nil, "", errors.New("gemini configuration is required when the gemini provider is selected")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		generator, err = gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.MaxRetries, zlog)
		if err != nil {
			return nil, "", err
		}
	case "openai":
		if cfg.OpenAI == nil {
			return nil, "", errors.New("openai configuration is required when the openai provider is selected")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: cfg.OpenAI.APIKeyFile,
			Env:  "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}

		generator, err = openai.NewGenerator(apiKey, cfg.OpenAI.Model, cfg.MaxRetries, zlog)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	interviewerLogger := logger.WithProvider(zlog, provider, generator.Model())

	return ai.NewInterviewer(generator, language, interviewerLogger, cfg.MaxLogLength), provider, nil
}
