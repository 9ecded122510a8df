package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/okozhar/interview-simulator/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "interview-sim"
)

type Config struct {
	// Portfolio is the path to the candidate's portfolio document.
	Portfolio string `mapstructure:"portfolio"`
	// CacheDir holds the portfolio extraction/validation cache.
	CacheDir string `mapstructure:"cache-dir"`
	// LogFile duplicates log output to a file when set.
	LogFile string `mapstructure:"log-file"`

	Session *session.Config `mapstructure:"session"`
	AI      *AIConfig       `mapstructure:"ai"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	MaxRetries        int           `mapstructure:"max-retries"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
	ValidatePortfolio bool          `mapstructure:"validate-portfolio"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
	OpenAI            *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-sim simulates a university admission interview against a portfolio document",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env file is fine, secrets may come from the environment.
	_ = godotenv.Load()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-sim.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the run command. Without it we can skip
	// initialization.
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
