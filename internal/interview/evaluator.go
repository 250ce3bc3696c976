package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/utils"
)

//go:embed evaluation_prompt.md
var evaluationPrompt string

const (
	evaluatorSystem     = "You score interview answers and reply with JSON only."
	defaultMaxLogLength = 200
)

// ErrNoScores is returned when an evaluation response carries no usable number.
var ErrNoScores = errors.New("evaluation response contains no scores")

// GeneratorEvaluator asks a TextGenerator to score answers.
type GeneratorEvaluator struct {
	generator TextGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewGeneratorEvaluator(generator TextGenerator, logger *zap.Logger, maxLogLength int) *GeneratorEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &GeneratorEvaluator{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

func (e *GeneratorEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) (map[string]float64, error) {
	if e.generator == nil {
		return nil, errors.New("text generator is not configured")
	}
	dims := req.Dimensions
	if len(dims) == 0 {
		dims = DefaultDimensions()
	}

	prompt := buildEvaluationPrompt(req, dims)
	e.logger.Debug("evaluation request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, evaluatorSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate evaluation: %w", err)
	}

	e.logger.Debug("evaluation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	scores := ParseScores(raw, dims)
	if len(scores) == 0 {
		return nil, ErrNoScores
	}
	return scores, nil
}

func buildEvaluationPrompt(req EvaluationRequest, dims []string) string {
	example := make(map[string]float64, len(dims))
	for _, d := range dims {
		example[d] = 0.7
	}
	exampleJSON, _ := json.Marshal(example)

	var history strings.Builder
	for _, t := range lastTurns(req.History, historyTurns) {
		fmt.Fprintf(&history, "- Q: %s\n  A: %s\n", t.Question, t.Answer)
	}
	if history.Len() == 0 {
		history.WriteString("none")
	}

	level := "n/a"
	if req.Level.Valid() {
		level = fmt.Sprintf("%s (%s)", req.Level, req.Level.Info().Name)
	}

	replacer := strings.NewReplacer(
		"{{STAGE}}", req.Stage.Title(),
		"{{LEVEL}}", level,
		"{{QUESTION}}", strings.TrimSpace(req.Question),
		"{{ANSWER}}", strings.TrimSpace(req.Answer),
		"{{HISTORY}}", strings.TrimSpace(history.String()),
		"{{DIMENSIONS}}", strings.Join(dims, ", "),
		"{{EXAMPLE}}", string(exampleJSON),
	)
	return replacer.Replace(evaluationPrompt)
}

// ParseScores reads a JSON object keyed by dimension, possibly fenced or surrounded by a
// reasoning block. When that fails the numbers are taken positionally.
func ParseScores(raw string, dims []string) map[string]float64 {
	stripped := thinkBlock.ReplaceAllString(raw, "")
	cleaned := extractJSON(stripped)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err == nil {
		out := make(map[string]float64, len(dims))
		for _, d := range dims {
			if v := coerceFloat(lookupFold(data, d)); !math.IsNaN(v) {
				out[d] = v
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	return ExtractScores(stripped, dims)
}

func lookupFold(data map[string]any, key string) any {
	if v, ok := data[key]; ok {
		return v
	}
	for k, v := range data {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v
		}
	}
	return nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func lastTurns(turns []Turn, n int) []Turn {
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}
