package questionbank

import (
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// DifficultyClassifier buckets bank questions into difficulty levels.
type DifficultyClassifier interface {
	Classify(e Entry) interview.Level
}

// DifficultyFunc adapts a function to DifficultyClassifier.
type DifficultyFunc func(e Entry) interview.Level

func (f DifficultyFunc) Classify(e Entry) interview.Level { return f(e) }

// KeywordDifficulty looks for advanced keywords first, then basic ones. Everything else is B2.
type KeywordDifficulty struct {
	Advanced []string
	Basic    []string
}

func NewKeywordDifficulty() *KeywordDifficulty {
	return &KeywordDifficulty{
		Advanced: []string{"design", "architect", "distributed", "scal", "shard", "trade-off", "optimi", "internals", "survive"},
		Basic:    []string{"what is", "difference between", "define", "basic"},
	}
}

func (k *KeywordDifficulty) Classify(e Entry) interview.Level {
	text := strings.ToLower(e.Question)
	for _, kw := range k.Advanced {
		if strings.Contains(text, kw) {
			return interview.LevelB3
		}
	}
	for _, kw := range k.Basic {
		if strings.Contains(text, kw) {
			return interview.LevelB1
		}
	}
	return interview.LevelB2
}
