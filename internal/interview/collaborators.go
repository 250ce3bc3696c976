package interview

import (
	"context"

	"github.com/spigell/hh-interviewer/internal/candidate"
)

// TextGenerator sends a system instruction and a message to a text-generation service.
type TextGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// AnswerEvaluator scores an answer on the given dimensions. Missing dimensions in the result
// are treated as neutral.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (map[string]float64, error)
}

// EvaluationRequest carries what the evaluator needs to score one answer.
type EvaluationRequest struct {
	Stage      Stage
	Level      Level
	Question   string
	Answer     string
	History    []Turn
	Dimensions []string
}

// QuestionBank provides reference and fallback questions.
type QuestionBank interface {
	Reference(track string, level Level, n int) []string
	Fallback(track string, stage Stage, level Level) string
}

// TripletSource produces the candidate triplets ranked into the evidence section.
type TripletSource interface {
	Triplets() []Triplet
}

// FocusAdvisor suggests what the next technical question should concentrate on.
type FocusAdvisor interface {
	SuggestFocus(scores []float64) string
}

type ResumeStore interface {
	Resume(ctx context.Context) (*candidate.Resume, error)
}

type JobDescriptionStore interface {
	JobDescription(ctx context.Context) (*candidate.JobDescription, error)
}

// Transcriber captures the candidate's answer. io.EOF signals that the candidate ended the
// interview.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Synthesizer presents a question to the candidate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) error
}
