package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hh-interviewer/internal/headhunter"
)

const (
	app = "hh-interviewer"
)

type Config struct {
	Track       string        `mapstructure:"track"`
	TokenFile   string        `mapstructure:"token-file"`
	UserAgent   string        `mapstructure:"user-agent"`
	MetricsAddr string        `mapstructure:"metrics-addr" validate:"omitempty,hostname_port"`
	Resume      *ResumeConfig `mapstructure:"resume" validate:"required"`
	Job         *JobConfig    `mapstructure:"job" validate:"required"`
	AI          *AIConfig     `mapstructure:"ai" validate:"required"`
	Bank        *BankConfig   `mapstructure:"bank"`
	Report      *ReportConfig `mapstructure:"report"`
}

// ResumeConfig points at a profile file or one of the user's hh.ru resumes, by id or title.
type ResumeConfig struct {
	File  string `mapstructure:"file" validate:"required_without_all=ID Title"`
	ID    string `mapstructure:"hh-id"`
	Title string `mapstructure:"hh-title"`
}

// JobConfig points at a profile file, an hh.ru vacancy or an hh.ru search.
type JobConfig struct {
	File             string                   `mapstructure:"file" validate:"required_without_all=VacancyID Search"`
	VacancyID        string                   `mapstructure:"vacancy-id"`
	Search           *headhunter.SearchParams `mapstructure:"search"`
	ExcludeEmployers []string                 `mapstructure:"exclude-employers"`
	ExcludeFile      string                   `mapstructure:"exclude-file"`
	MinSkillMatches  int                      `mapstructure:"min-skill-matches" validate:"gte=0"`
}

type AIConfig struct {
	Provider     string  `mapstructure:"provider" validate:"omitempty,oneof=gemini openai"`
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	BaseURL      string  `mapstructure:"base-url" validate:"omitempty,url"`
	Temperature  float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries   int     `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int     `mapstructure:"max-log-length" validate:"gte=0"`
}

type BankConfig struct {
	File string `mapstructure:"file"`
	Seed uint64 `mapstructure:"seed"`
}

type ReportConfig struct {
	File string `mapstructure:"file"`
	JSON bool   `mapstructure:"json"`
}

var (
	// Used for flags.
	cfgFile string

	validate = validator.New()

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-interviewer rehearses a technical interview for a resume and a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string][]string{
		"token-file":      {"HH_TOKEN_FILE"},
		"ai.api-key-file": {"GEMINI_API_KEY_FILE", "OPENAI_API_KEY_FILE"},
		"ai.provider":     {"HH_INTERVIEWER_AI_PROVIDER"},
	}
	for key, names := range envs {
		if err := viper.BindEnv(append([]string{key}, names...)...); err != nil {
			log.Fatalf("binding %s environment variables: %v", strings.Join(names, ","), err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Every setting can come from flags, so only an explicitly given config must exist.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if config.Resume == nil {
		config.Resume = &ResumeConfig{}
	}
	if config.Job == nil {
		config.Job = &JobConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Bank == nil {
		config.Bank = &BankConfig{}
	}
	if config.Report == nil {
		config.Report = &ReportConfig{}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the struct tags and the settings that depend on each other.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if c.Resume.File == "" && strings.TrimSpace(c.TokenFile) == "" {
		return errors.New("validating config: an hh.ru resume needs a token (token-file or HH_TOKEN_FILE)")
	}
	if c.Job.Search != nil && strings.TrimSpace(c.Job.Search.Text) == "" && c.Job.File == "" && c.Job.VacancyID == "" {
		return errors.New("validating config: job.search.text is required for a vacancy search")
	}
	return nil
}
