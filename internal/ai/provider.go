// Package ai builds the text generator used to ask questions and score answers.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/ai/openai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultMaxLogLength = 300
)

// Generator is what the interview engine and the evaluator need from a provider.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxRetries  int
	// MaxLogLength limits how much of a prompt or response is written to debug logs.
	MaxLogLength int
}

// NewGenerator creates the configured provider wrapped with request logging.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}

	var (
		gen Generator
		err error
	)
	switch provider {
	case ProviderGemini:
		gen, err = gemini.NewGenerator(ctx, cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxRetries, log)
	case ProviderOpenAI:
		gen, err = openai.NewGenerator(openai.Options{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
		}, log)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s generator: %w", provider, err)
	}

	return WithLogging(gen, provider, cfg.MaxLogLength, log), nil
}

// loggingGenerator writes every exchange to the debug log.
type loggingGenerator struct {
	next         Generator
	maxLogLength int
	logger       *zap.Logger
}

// WithLogging decorates gen so prompts, responses and latency are logged with the provider
// and model fields attached.
func WithLogging(gen Generator, provider string, maxLogLength int, log *zap.Logger) Generator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &loggingGenerator{
		next:         gen,
		maxLogLength: maxLogLength,
		logger:       logger.WithCommonFields(log, provider, gen.Model()),
	}
}

func (g *loggingGenerator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	started := time.Now()
	out, err := g.next.GenerateContent(ctx, system, message)
	elapsed := time.Since(started)

	if err != nil {
		g.logger.Debug("generation failed",
			zap.Duration("elapsed", elapsed),
			zap.String("message", utils.TruncateForLog(message, g.maxLogLength)),
			zap.Error(err),
		)
		return "", err
	}

	g.logger.Debug("generation finished",
		zap.Duration("elapsed", elapsed),
		zap.String("message", utils.TruncateForLog(message, g.maxLogLength)),
		zap.String("response", utils.TruncateForLog(out, g.maxLogLength)),
	)
	return out, nil
}

func (g *loggingGenerator) Model() string {
	return g.next.Model()
}
