package interview

import "strings"

// QuestionType labels what a generated question is about.
type QuestionType string

const (
	QuestionTechnical  QuestionType = "technical"
	QuestionProject    QuestionType = "project"
	QuestionBehavioral QuestionType = "behavioral"
	QuestionMotivation QuestionType = "motivation"
	QuestionBackground QuestionType = "background"
	QuestionOther      QuestionType = "other"
)

// QuestionClassifier labels a question. Implementations must be safe to call from the
// generation goroutine.
type QuestionClassifier interface {
	Classify(question string) QuestionType
}

// ClassifierFunc adapts a function to QuestionClassifier.
type ClassifierFunc func(question string) QuestionType

func (f ClassifierFunc) Classify(question string) QuestionType { return f(question) }

type keywordRule struct {
	kind     QuestionType
	keywords []string
}

// KeywordClassifier returns the first type whose keyword occurs in the question.
type KeywordClassifier struct {
	rules []keywordRule
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: []keywordRule{
		{QuestionTechnical, []string{"technolog", "skill", "programming", "framework", "language", "algorithm", "implement"}},
		{QuestionProject, []string{"project", "experience", "case", "deliver"}},
		{QuestionBehavioral, []string{"situation", "handle", "challenge", "conflict", "behavio"}},
		{QuestionMotivation, []string{"why", "motivat", "reason", "interest"}},
		{QuestionBackground, []string{"introduce", "background", "education", "yourself"}},
	}}
}

func (c *KeywordClassifier) Classify(question string) QuestionType {
	lower := strings.ToLower(question)
	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind
			}
		}
	}
	return QuestionOther
}
