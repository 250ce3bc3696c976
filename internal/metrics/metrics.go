// Package metrics exports interview progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const namespace = "hh_interviewer"

// Recorder implements interview.Metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	turns       *prometheus.CounterVec
	scores      *prometheus.HistogramVec
	difficulty  *prometheus.CounterVec
	stages      *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	generations *prometheus.HistogramVec
}

var _ interview.Metrics = (*Recorder)(nil)

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Answered questions by stage",
		}, []string{"stage"}),
		scores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_score",
			Help:      "Distribution of answer scores by stage",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"stage"}),
		difficulty: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "difficulty_changes_total",
			Help:      "Difficulty level changes",
		}, []string{"from", "to"}),
		stages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_advances_total",
			Help:      "Stage transitions",
		}, []string{"from", "to"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Neutral scores and fallback questions used instead of generated ones",
		}, []string{"kind"}),
		generations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Text generation latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"status"}),
	}
}

func (r *Recorder) TurnProcessed(stage interview.Stage, score float64) {
	r.turns.WithLabelValues(stage.String()).Inc()
	r.scores.WithLabelValues(stage.String()).Observe(score)
}

func (r *Recorder) DifficultyChanged(from, to interview.Level) {
	r.difficulty.WithLabelValues(from.String(), to.String()).Inc()
}

func (r *Recorder) StageAdvanced(from, to interview.Stage) {
	r.stages.WithLabelValues(from.String(), to.String()).Inc()
}

func (r *Recorder) FallbackUsed(kind string) {
	r.fallbacks.WithLabelValues(kind).Inc()
}

func (r *Recorder) GenerationFinished(elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.generations.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
