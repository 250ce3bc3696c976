// Package review turns a finished session into an assessment report.
package review

import (
	"fmt"
	"math"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

type Rating string

const (
	RatingExcellent        Rating = "excellent"
	RatingGood             Rating = "good"
	RatingFair             Rating = "fair"
	RatingNeedsImprovement Rating = "needs improvement"
	RatingUnsatisfactory   Rating = "unsatisfactory"
	RatingInsufficientData Rating = "insufficient data"
)

const (
	strengthThreshold        = 0.7
	weaknessThreshold        = 0.55
	solidSuggestionThreshold = 0.75
)

// GapSource reports job keywords the resume does not cover.
type GapSource interface {
	SkillGaps() []string
}

type TurnRecord struct {
	Index        int                    `json:"index"`
	Stage        string                 `json:"stage"`
	Level        string                 `json:"level"`
	QuestionType interview.QuestionType `json:"question_type"`
	Question     string                 `json:"question"`
	Answer       string                 `json:"answer"`
	Score        float64                `json:"score"`
	Dimensions   map[string]float64     `json:"dimensions"`
	Timestamp    time.Time              `json:"timestamp"`
}

type StagePerformance struct {
	Stage     string  `json:"stage"`
	Title     string  `json:"title"`
	Questions int     `json:"questions"`
	Average   float64 `json:"average"`
}

type Progression struct {
	Initial      string         `json:"initial"`
	Final        string         `json:"final"`
	Trend        string         `json:"trend"`
	Increases    int            `json:"increases"`
	Decreases    int            `json:"decreases"`
	Maintained   int            `json:"maintained"`
	Distribution map[string]int `json:"distribution"`
	Changes      []string       `json:"changes,omitempty"`
}

type Report struct {
	SessionID      string             `json:"session_id"`
	Track          string             `json:"track,omitempty"`
	Candidate      string             `json:"candidate,omitempty"`
	Position       string             `json:"position,omitempty"`
	Company        string             `json:"company,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	EndedAt        time.Time          `json:"ended_at"`
	Completed      bool               `json:"completed"`
	TotalQuestions int                `json:"total_questions"`
	OverallScore   float64            `json:"overall_score"`
	Rating         Rating             `json:"rating"`
	Recommendation string             `json:"recommendation"`
	DimensionMeans map[string]float64 `json:"dimension_means"`
	Stages         []StagePerformance `json:"stages"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
	Suggestions    []string           `json:"suggestions"`
	Progression    Progression        `json:"progression"`
	SkillGaps      []string           `json:"skill_gaps,omitempty"`
	Turns          []TurnRecord       `json:"turns"`
}

// Build assesses a session snapshot. gaps may be nil.
func Build(s interview.Snapshot, gaps GapSource) *Report {
	r := &Report{
		SessionID:      s.ID,
		Track:          s.Track,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		Completed:      s.Completed,
		TotalQuestions: len(s.Turns),
		OverallScore:   s.ScoreSummary.Mean,
		DimensionMeans: s.ScoreSummary.DimensionMeans,
		Strengths:      []string{},
		Weaknesses:     []string{},
	}
	if s.Resume != nil {
		r.Candidate = s.Resume.Name
	}
	if s.Job != nil {
		r.Position = s.Job.Position
		r.Company = s.Job.Company
	}
	if gaps != nil {
		r.SkillGaps = gaps.SkillGaps()
	}

	for _, t := range s.Turns {
		r.Turns = append(r.Turns, TurnRecord{
			Index:        t.Index,
			Stage:        t.Stage.String(),
			Level:        t.Level.String(),
			QuestionType: t.QuestionType,
			Question:     t.Question,
			Answer:       t.Answer,
			Score:        t.Score,
			Dimensions:   t.Dimensions,
			Timestamp:    t.Timestamp,
		})
	}

	for _, stage := range interview.Stages() {
		scores := s.StageScores[stage]
		if len(scores) == 0 {
			continue
		}
		avg := mean(scores)
		r.Stages = append(r.Stages, StagePerformance{
			Stage:     stage.String(),
			Title:     stage.Title(),
			Questions: len(scores),
			Average:   avg,
		})
		switch {
		case avg >= strengthThreshold:
			r.Strengths = append(r.Strengths, fmt.Sprintf("%s: strong performance (%.2f)", stage.Title(), avg))
		case avg < weaknessThreshold:
			r.Weaknesses = append(r.Weaknesses, fmt.Sprintf("%s: needs more work (%.2f)", stage.Title(), avg))
		}
	}

	if r.TotalQuestions == 0 {
		r.Rating = RatingInsufficientData
		r.Recommendation = "Not enough answers to assess the candidate."
		r.Suggestions = []string{"Complete at least one answer per stage to get an assessment."}
	} else {
		r.Rating = RatingFor(r.OverallScore)
		r.Recommendation = recommendation(r.Rating)
		r.Suggestions = suggestions(r.OverallScore)
	}

	r.Progression = progression(s)
	return r
}

// RatingFor maps an overall score onto its rating band.
func RatingFor(score float64) Rating {
	switch {
	case score >= 0.8:
		return RatingExcellent
	case score >= 0.7:
		return RatingGood
	case score >= 0.6:
		return RatingFair
	case score >= 0.5:
		return RatingNeedsImprovement
	default:
		return RatingUnsatisfactory
	}
}

func recommendation(r Rating) string {
	switch r {
	case RatingExcellent:
		return "Strongly recommended for the next round."
	case RatingGood:
		return "Recommended for the next round."
	case RatingFair:
		return "Could proceed, with follow-up on the weaker areas."
	case RatingNeedsImprovement:
		return "Not ready yet. Another practice round is advised."
	default:
		return "Not recommended at this time."
	}
}

func suggestions(score float64) []string {
	switch {
	case score < weaknessThreshold:
		return []string{
			"Strengthen the fundamentals of your main technology.",
			"Build more hands-on project experience.",
			"Practice explaining technical decisions out loud.",
		}
	case score < solidSuggestionThreshold:
		return []string{
			"Go deeper into how the tools you use work internally.",
			"Follow recent developments in your field.",
			"Practice system design and architecture questions.",
		}
	default:
		return []string{
			"Keep up the good work.",
			"Try harder topics outside your comfort zone.",
			"Share your experience by mentoring others.",
		}
	}
}

func progression(s interview.Snapshot) Progression {
	p := Progression{
		Initial:      s.Progression.Initial.String(),
		Final:        s.Progression.Final.String(),
		Trend:        s.Progression.Trend,
		Increases:    s.Progression.Increases,
		Decreases:    s.Progression.Decreases,
		Maintained:   s.Progression.Maintained,
		Distribution: make(map[string]int, len(s.Progression.Distribution)),
	}
	for level, n := range s.Progression.Distribution {
		p.Distribution[level.String()] = n
	}
	for _, t := range s.DifficultyTransitions {
		if t.From != t.To {
			p.Changes = append(p.Changes, fmt.Sprintf("Q%d %s -> %s: %s", t.QuestionIndex, t.From, t.To, t.Reason))
		}
	}
	return p
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*100) / 100
}
