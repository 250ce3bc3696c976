package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultMaxRetries = 3
	baseBackoff       = time.Second
)

var sleep = time.Sleep

type completer interface {
	CreateChatCompletion(ctx context.Context, req openaiapi.ChatCompletionRequest) (openaiapi.ChatCompletionResponse, error)
}

// Options configures a Generator. BaseURL points the client at any OpenAI compatible
// endpoint, a local model server included.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxRetries  int
}

// Generator sends chat completions to an OpenAI compatible API.
type Generator struct {
	client      completer
	model       string
	temperature float32
	maxRetries  int
	logger      *zap.Logger
}

func NewGenerator(opts Options, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	baseURL := strings.TrimSpace(opts.BaseURL)
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := openaiapi.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client:      openaiapi.NewClientWithConfig(cfg),
		model:       model,
		temperature: opts.Temperature,
		maxRetries:  maxRetries,
		logger:      logger,
	}, nil
}

// GenerateContent sends the system instruction and the message and returns the first choice.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	req := openaiapi.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
	}
	if system = strings.TrimSpace(system); system != "" {
		req.Messages = append(req.Messages, openaiapi.ChatCompletionMessage{Role: openaiapi.ChatMessageRoleSystem, Content: system})
	}
	req.Messages = append(req.Messages, openaiapi.ChatCompletionMessage{Role: openaiapi.ChatMessageRoleUser, Content: message})

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return firstChoice(resp)
		}
		lastErr = err

		if !retryable(err) || attempt == g.maxRetries {
			break
		}

		delay := baseBackoff * time.Duration(1<<(attempt-1))
		g.logger.Warn("openai request failed, retrying",
			zap.String("model", g.model),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		sleep(delay)
	}

	return "", fmt.Errorf("create chat completion: %w", lastErr)
}

func firstChoice(resp openaiapi.ChatCompletionResponse) (string, error) {
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", errors.New("openai api returned empty response")
}

func retryable(err error) bool {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
