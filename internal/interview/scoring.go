package interview

import (
	"math"
	"time"
)

const neutralScore = 0.5

// Default scoring dimensions, in the order the evaluator is asked to report them.
const (
	DimensionUnderstanding = "understanding"
	DimensionClarity       = "clarity"
	DimensionDepth         = "depth"
)

// DefaultDimensions returns the dimensions every answer is scored on.
func DefaultDimensions() []string {
	return []string{DimensionUnderstanding, DimensionClarity, DimensionDepth}
}

// ScoreRecord is one scored answer. It is never modified after creation.
type ScoreRecord struct {
	QuestionIndex int                `json:"question_index"`
	Score         float64            `json:"score"`
	Dimensions    map[string]float64 `json:"dimensions"`
	Timestamp     time.Time          `json:"timestamp"`
}

// ScoreSummary is computed over the whole history and used for review only.
type ScoreSummary struct {
	Count          int                `json:"count"`
	Mean           float64            `json:"mean"`
	Min            float64            `json:"min"`
	Max            float64            `json:"max"`
	DimensionMeans map[string]float64 `json:"dimension_means"`
}

// ScoreAggregator turns per-dimension scores into one scalar and keeps the history.
type ScoreAggregator struct {
	dimensions []string
	history    []ScoreRecord
	now        func() time.Time
}

// NewScoreAggregator creates an aggregator over dims, or the default dimensions when none are given.
func NewScoreAggregator(dims ...string) *ScoreAggregator {
	if len(dims) == 0 {
		dims = DefaultDimensions()
	}
	return &ScoreAggregator{
		dimensions: append([]string(nil), dims...),
		now:        time.Now,
	}
}

// Dimensions returns the expected dimensions in order.
func (a *ScoreAggregator) Dimensions() []string {
	return append([]string(nil), a.dimensions...)
}

// Record scores an answer. Missing or invalid dimensions count as 0.5 and keys outside the
// expected dimensions are ignored.
func (a *ScoreAggregator) Record(perDimension map[string]float64) ScoreRecord {
	dims := make(map[string]float64, len(a.dimensions))
	var sum float64
	for _, name := range a.dimensions {
		v, ok := perDimension[name]
		if !ok || math.IsNaN(v) {
			v = neutralScore
		}
		v = clamp01(v)
		dims[name] = v
		sum += v
	}

	record := ScoreRecord{
		QuestionIndex: len(a.history) + 1,
		Score:         round2(clamp01(sum / float64(len(a.dimensions)))),
		Dimensions:    dims,
		Timestamp:     a.now(),
	}
	a.history = append(a.history, record)
	return record
}

// History returns a copy of all records.
func (a *ScoreAggregator) History() []ScoreRecord {
	out := make([]ScoreRecord, len(a.history))
	copy(out, a.history)
	return out
}

// Recent returns the last n scalar scores, oldest first.
func (a *ScoreAggregator) Recent(n int) []float64 {
	if n <= 0 {
		return nil
	}
	start := max(0, len(a.history)-n)
	out := make([]float64, 0, len(a.history)-start)
	for _, r := range a.history[start:] {
		out = append(out, r.Score)
	}
	return out
}

func (a *ScoreAggregator) Summary() ScoreSummary {
	s := ScoreSummary{
		Count:          len(a.history),
		DimensionMeans: make(map[string]float64, len(a.dimensions)),
	}
	if len(a.history) == 0 {
		return s
	}

	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	var total float64
	sums := make(map[string]float64, len(a.dimensions))
	for _, r := range a.history {
		total += r.Score
		s.Min = math.Min(s.Min, r.Score)
		s.Max = math.Max(s.Max, r.Score)
		for name, v := range r.Dimensions {
			sums[name] += v
		}
	}

	n := float64(len(a.history))
	s.Mean = round2(total / n)
	for _, name := range a.dimensions {
		s.DimensionMeans[name] = round2(sums[name] / n)
	}
	return s
}

func (a *ScoreAggregator) Reset() {
	a.history = nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return neutralScore
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
