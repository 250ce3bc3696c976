package interview

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/candidate"
)

type stubBank struct{}

func (stubBank) Reference(_ string, level Level, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("ref-%s-%d", level, i))
	}
	return out
}

func (stubBank) Fallback(track string, stage Stage, level Level) string {
	return fmt.Sprintf("fallback %s %s %s", track, stage, level)
}

type stubTriplets []Triplet

func (s stubTriplets) Triplets() []Triplet { return s }

type stubFocus string

func (s stubFocus) SuggestFocus([]float64) string { return string(s) }

func uniform(v float64) map[string]float64 {
	return map[string]float64{"understanding": v, "clarity": v, "depth": v}
}

func newTestSession(deps SessionDeps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Resume == nil {
		deps.Resume = &candidate.Resume{Name: "Ann", Skills: []string{"Go", "PostgreSQL"}}
	}
	if deps.Job == nil {
		deps.Job = &candidate.JobDescription{Position: "Backend developer", Keywords: []string{"Kafka"}}
	}
	return NewSession(deps)
}

// drive answers until the session completes and returns the number of answered questions.
func drive(t *testing.T, s *Session, dims map[string]float64) int {
	t.Helper()

	for n := 1; n <= 20; n++ {
		if _, err := s.AcceptQuestion(fmt.Sprintf("Question %d about your project?", n)); err != nil {
			t.Fatalf("accept question %d: %v", n, err)
		}
		res, err := s.ProcessAnswer("I built a billing service in Go", dims)
		if err != nil {
			t.Fatalf("process answer %d: %v", n, err)
		}
		if res.Completed {
			return n
		}
	}
	t.Fatalf("session did not complete")
	return 0
}

func TestSessionRuns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		dims      map[string]float64
		wantTurns int
		wantLevel Level
		wantQuota map[Stage]int
	}{
		{
			name:      "strong candidate gets a longer technical stage",
			dims:      uniform(0.9),
			wantTurns: 10,
			wantLevel: LevelB3,
			wantQuota: map[Stage]int{StageIntro: 2, StageExperience: 3, StageTechnical: 5},
		},
		{
			name:      "weak candidate spends more time on experience",
			dims:      uniform(0.3),
			wantTurns: 8,
			wantLevel: LevelB1,
			wantQuota: map[Stage]int{StageIntro: 2, StageExperience: 4, StageTechnical: 2},
		},
		{
			name:      "missing scores are neutral",
			dims:      nil,
			wantTurns: 8,
			wantLevel: LevelB2,
			wantQuota: map[Stage]int{StageIntro: 2, StageExperience: 3, StageTechnical: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession(SessionDeps{Track: "backend"})
			if got := drive(t, s, tt.dims); got != tt.wantTurns {
				t.Fatalf("expected %d turns, got %d", tt.wantTurns, got)
			}

			snap := s.Snapshot()
			if !snap.Completed || snap.Stage != StageCompleted {
				t.Fatalf("expected completed snapshot, got stage %s", snap.Stage)
			}
			if s.Level() != tt.wantLevel {
				t.Fatalf("expected level %s, got %s", tt.wantLevel, s.Level())
			}
			if diff := cmp.Diff(tt.wantQuota, snap.Quotas); diff != "" {
				t.Fatalf("quotas mismatch (-want +got):\n%s", diff)
			}
			if len(snap.Turns) != tt.wantTurns || len(snap.Scores) != tt.wantTurns {
				t.Fatalf("expected %d turns and scores, got %d and %d", tt.wantTurns, len(snap.Turns), len(snap.Scores))
			}
			if len(snap.StageTransitions) != 3 {
				t.Fatalf("expected 3 stage transitions, got %d", len(snap.StageTransitions))
			}
			if snap.Progression.Total != tt.wantTurns {
				t.Fatalf("expected a difficulty record per answer, got %d", snap.Progression.Total)
			}

			counts := map[Stage]int{}
			for i, turn := range snap.Turns {
				if turn.Index != i+1 {
					t.Fatalf("unexpected turn index %d at %d", turn.Index, i)
				}
				counts[turn.Stage]++
			}
			if diff := cmp.Diff(tt.wantQuota, counts); diff != "" {
				t.Fatalf("turns per stage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSessionSeedsLevelOnStageStart(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{})
	for _, v := range []float64{0.3, 0.3} {
		if _, err := s.ProcessAnswer("", uniform(v)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if s.Stage() != StageExperience || s.Level() != LevelB1 {
		t.Fatalf("expected experience at B1, got %s at %s", s.Stage(), s.Level())
	}

	// Weak intro answers moved one question into the experience stage.
	for _, v := range []float64{0.9, 0.8, 0.9, 0.9} {
		if _, err := s.ProcessAnswer("", uniform(v)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if s.Stage() != StageTechnical {
		t.Fatalf("expected technical stage, got %s", s.Stage())
	}
	if s.Level() != LevelB3 {
		t.Fatalf("expected level seeded from strong experience average, got %s", s.Level())
	}
}

func TestSessionTurnDetails(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{})

	kind, err := s.AcceptQuestion("  Please introduce yourself.  ")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if kind != QuestionBackground {
		t.Fatalf("expected background question, got %s", kind)
	}
	if s.CurrentQuestion() != "Please introduce yourself." {
		t.Fatalf("question must be trimmed, got %q", s.CurrentQuestion())
	}

	req, err := s.EvaluationRequest("I work with Kafka and Go")
	if err != nil {
		t.Fatalf("evaluation request: %v", err)
	}
	if req.Question != "Please introduce yourself." || req.Stage != StageIntro || len(req.Dimensions) != 3 {
		t.Fatalf("unexpected evaluation request: %+v", req)
	}

	res, err := s.ProcessAnswer("I work with Kafka and Go", uniform(0.8))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Turn.QuestionType != QuestionBackground || res.Turn.Question != "Please introduce yourself." {
		t.Fatalf("unexpected turn: %+v", res.Turn)
	}
	if diff := cmp.Diff([]string{"Go", "Kafka"}, res.Turn.Mentioned); diff != "" {
		t.Fatalf("mentioned mismatch (-want +got):\n%s", diff)
	}
	if res.LevelFrom != LevelB2 || res.Level != LevelB3 || res.Turn.Level != LevelB2 {
		t.Fatalf("unexpected levels: from %s to %s, turn %s", res.LevelFrom, res.Level, res.Turn.Level)
	}
	if s.CurrentQuestion() != "" {
		t.Fatalf("question must be cleared after the answer")
	}

	res, err = s.ProcessAnswer("nothing to add", uniform(0.8))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Advanced || res.StageFrom != StageIntro || res.Stage != StageExperience || res.Turn.Stage != StageIntro {
		t.Fatalf("expected advance from intro, got %+v", res)
	}
}

func TestSessionDirective(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{
		Track:    "backend",
		Bank:     stubBank{},
		Triplets: stubTriplets{{Subject: "Go", Relation: "applied in", Object: "Billing"}},
		Focus:    stubFocus("concurrency"),
	})

	d, ok := s.Directive()
	if !ok {
		t.Fatalf("expected a directive")
	}
	if d.Stage != StageIntro || strings.Contains(d.Text, "### Reference questions") || strings.Contains(d.Text, "concurrency") {
		t.Fatalf("intro directive must not carry technical context:\n%s", d.Text)
	}
	if !strings.Contains(d.Text, "Active topics: Go, PostgreSQL, Kafka") {
		t.Fatalf("expected vocabulary fallback in directive:\n%s", d.Text)
	}

	for i := 0; i < 5; i++ {
		if _, err := s.ProcessAnswer("We streamed events through Kafka", nil); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	d, ok = s.Directive()
	if !ok || d.Stage != StageTechnical {
		t.Fatalf("expected technical directive, got %v %s", ok, d.Stage)
	}
	for _, want := range []string{
		"1. ref-B2-1",
		"3. ref-B2-3",
		"Suggested focus: concurrency",
		"Go --applied in--> Billing",
		"Recently mentioned: Kafka",
		"(question 1 of 3)",
	} {
		if !strings.Contains(d.Text, want) {
			t.Fatalf("expected %q in directive:\n%s", want, d.Text)
		}
	}

	if got := s.FallbackQuestion(); got != "fallback backend technical B2" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestSessionFallbackWithoutBank(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{})
	if got := s.FallbackQuestion(); got != DefaultFallback(StageIntro, LevelB2) {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestSessionEndRefusesWrites(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{})
	if _, err := s.ProcessAnswer("hello", uniform(0.6)); err != nil {
		t.Fatalf("process: %v", err)
	}

	s.End()
	s.End()

	if !s.Ended() {
		t.Fatalf("expected ended session")
	}
	if _, err := s.AcceptQuestion("late question?"); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	if _, err := s.ProcessAnswer("late answer", nil); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	if _, err := s.EvaluationRequest("late answer"); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	if _, ok := s.Directive(); ok {
		t.Fatalf("ended session must not produce directives")
	}

	snap := s.Snapshot()
	if !snap.Ended || snap.EndedAt.IsZero() || len(snap.Turns) != 1 {
		t.Fatalf("unexpected snapshot after end: %+v", snap)
	}
}

func TestSessionCompletedRefusesWrites(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{})
	drive(t, s, nil)

	if _, err := s.AcceptQuestion("one more?"); !errors.Is(err, ErrStageCompleted) {
		t.Fatalf("expected ErrStageCompleted, got %v", err)
	}
	if _, err := s.ProcessAnswer("one more", nil); !errors.Is(err, ErrStageCompleted) {
		t.Fatalf("expected ErrStageCompleted, got %v", err)
	}
	if _, ok := s.Directive(); ok {
		t.Fatalf("completed session must not produce directives")
	}

	snap := s.Snapshot()
	if snap.EndedAt.IsZero() || snap.EndedAt.Before(snap.StartedAt) {
		t.Fatalf("completion must stamp the end time, got %v", snap.EndedAt)
	}
	if snap.Ended {
		t.Fatalf("completion is not an explicit end")
	}

	s.End()
	if got := s.Snapshot().EndedAt; !got.Equal(snap.EndedAt) {
		t.Fatalf("end after completion must keep the completion time, got %v want %v", got, snap.EndedAt)
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	s := newTestSession(SessionDeps{})
	id := s.ID()
	drive(t, s, uniform(0.9))
	s.End()

	s.Reset()

	if s.ID() == id || s.ID() == "" {
		t.Fatalf("expected a new session id")
	}
	if s.Ended() || s.Completed() || s.Stage() != StageIntro || s.Level() != LevelB2 {
		t.Fatalf("unexpected state after reset: stage %s level %s", s.Stage(), s.Level())
	}
	snap := s.Snapshot()
	if len(snap.Turns) != 0 || len(snap.Scores) != 0 || len(snap.DifficultyTransitions) != 0 {
		t.Fatalf("history must be cleared on reset")
	}
	if snap.Quotas[StageTechnical] != 3 {
		t.Fatalf("quotas must be restored on reset, got %v", snap.Quotas)
	}
}
