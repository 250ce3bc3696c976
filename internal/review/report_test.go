package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spigell/hh-interviewer/internal/candidate"
	"github.com/spigell/hh-interviewer/internal/interview"
)

type gaps []string

func (g gaps) SkillGaps() []string { return g }

func testSnapshot() interview.Snapshot {
	start := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	turn := func(i int, stage interview.Stage, level interview.Level, score float64) interview.Turn {
		return interview.Turn{
			Index:     i,
			Stage:     stage,
			Level:     level,
			Question:  "Question?",
			Answer:    "Answer.",
			Score:     score,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
		}
	}

	return interview.Snapshot{
		ID:     "session-1",
		Track:  "backend",
		Resume: &candidate.Resume{Name: "Ann"},
		Job:    &candidate.JobDescription{Position: "Backend developer", Company: "Acme"},
		Turns: []interview.Turn{
			turn(1, interview.StageIntro, interview.LevelB2, 0.8),
			turn(2, interview.StageIntro, interview.LevelB2, 0.8),
			turn(3, interview.StageExperience, interview.LevelB3, 0.5),
			turn(4, interview.StageTechnical, interview.LevelB2, 0.6),
		},
		ScoreSummary: interview.ScoreSummary{
			Count:          4,
			Mean:           0.68,
			DimensionMeans: map[string]float64{"understanding": 0.7},
		},
		StageScores: map[interview.Stage][]float64{
			interview.StageIntro:      {0.8, 0.8},
			interview.StageExperience: {0.5},
			interview.StageTechnical:  {0.6},
		},
		DifficultyTransitions: []interview.DifficultyTransition{
			{QuestionIndex: 1, From: interview.LevelB2, To: interview.LevelB2, Reason: "window mean in range"},
			{QuestionIndex: 2, From: interview.LevelB2, To: interview.LevelB3, Reason: "window mean above 0.7"},
			{QuestionIndex: 3, From: interview.LevelB3, To: interview.LevelB2, Reason: "window mean below 0.4"},
		},
		Progression: interview.Progression{
			Total:        3,
			Distribution: map[interview.Level]int{interview.LevelB2: 2, interview.LevelB3: 1},
			Increases:    1,
			Decreases:    1,
			Maintained:   1,
			Trend:        "fluctuating",
			Initial:      interview.LevelB2,
			Final:        interview.LevelB2,
		},
		Completed: true,
		StartedAt: start,
		EndedAt:   start.Add(10 * time.Minute),
	}
}

func TestBuild(t *testing.T) {
	r := Build(testSnapshot(), gaps{"Kubernetes"})

	if r.Rating != RatingFair || r.OverallScore != 0.68 || r.TotalQuestions != 4 {
		t.Fatalf("unexpected headline: %s %.2f %d", r.Rating, r.OverallScore, r.TotalQuestions)
	}
	if r.Candidate != "Ann" || r.Position != "Backend developer" || r.Company != "Acme" {
		t.Fatalf("unexpected profile fields: %+v", r)
	}

	wantStages := []StagePerformance{
		{Stage: "intro", Title: "Non-technical questions", Questions: 2, Average: 0.8},
		{Stage: "experience", Title: "Experience questions", Questions: 1, Average: 0.5},
		{Stage: "technical", Title: "Technical questions", Questions: 1, Average: 0.6},
	}
	if diff := cmp.Diff(wantStages, r.Stages); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Non-technical questions: strong performance (0.80)"}, r.Strengths); diff != "" {
		t.Fatalf("strengths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Experience questions: needs more work (0.50)"}, r.Weaknesses); diff != "" {
		t.Fatalf("weaknesses mismatch (-want +got):\n%s", diff)
	}
	if len(r.Suggestions) != 3 || !strings.Contains(r.Suggestions[2], "system design") {
		t.Fatalf("expected the middle band suggestions, got %v", r.Suggestions)
	}

	wantProgression := Progression{
		Initial:      "B2",
		Final:        "B2",
		Trend:        "fluctuating",
		Increases:    1,
		Decreases:    1,
		Maintained:   1,
		Distribution: map[string]int{"B2": 2, "B3": 1},
		Changes: []string{
			"Q2 B2 -> B3: window mean above 0.7",
			"Q3 B3 -> B2: window mean below 0.4",
		},
	}
	if diff := cmp.Diff(wantProgression, r.Progression); diff != "" {
		t.Fatalf("progression mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Kubernetes"}, r.SkillGaps); diff != "" {
		t.Fatalf("gaps mismatch (-want +got):\n%s", diff)
	}
	if len(r.Turns) != 4 || r.Turns[2].Stage != "experience" || r.Turns[2].Level != "B3" {
		t.Fatalf("unexpected turns: %+v", r.Turns)
	}
}

func TestBuildWithoutAnswers(t *testing.T) {
	r := Build(interview.Snapshot{ID: "empty"}, nil)

	if r.Rating != RatingInsufficientData {
		t.Fatalf("expected insufficient data, got %s", r.Rating)
	}
	if len(r.Stages) != 0 || len(r.Strengths) != 0 || len(r.Weaknesses) != 0 {
		t.Fatalf("expected no stage analysis, got %+v", r)
	}
}

func TestRatingFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Rating
	}{
		{1, RatingExcellent},
		{0.8, RatingExcellent},
		{0.79, RatingGood},
		{0.7, RatingGood},
		{0.65, RatingFair},
		{0.6, RatingFair},
		{0.5, RatingNeedsImprovement},
		{0.49, RatingUnsatisfactory},
		{0, RatingUnsatisfactory},
	}

	for _, tt := range tests {
		if got := RatingFor(tt.score); got != tt.want {
			t.Fatalf("score %.2f: expected %q, got %q", tt.score, tt.want, got)
		}
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextRenderer{W: &buf}).Render(context.Background(), Build(testSnapshot(), gaps{"Kubernetes", "Helm"})); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Interview report session-1",
		"Position:  Backend developer at Acme",
		"Overall score:      0.68 (fair)",
		"  understanding: 70%",
		"  Experience questions: 0.50 over 1 question(s)",
		"  + Non-technical questions: strong performance (0.80)",
		"  - Experience questions: needs more work (0.50)",
		"Difficulty: B2 -> B2 (fluctuating)",
		"Skills to prepare: Kubernetes, Helm",
		"  Q3 [experience/B3] 0.50 Question?",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ended early") {
		t.Fatalf("completed interview must not be marked as ended early")
	}
}

func TestJSONFileRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	renderer := &JSONFileRenderer{Path: path}

	if err := renderer.Render(context.Background(), Build(testSnapshot(), nil)); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded["rating"] != "fair" || decoded["session_id"] != "session-1" {
		t.Fatalf("unexpected report: %s", data)
	}

	tmp := &JSONFileRenderer{}
	if err := tmp.Render(context.Background(), Build(testSnapshot(), nil)); err != nil {
		t.Fatalf("render to temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmp.Path) })
	if !strings.HasPrefix(filepath.Base(tmp.Path), "interview_") {
		t.Fatalf("expected a temp report file, got %q", tmp.Path)
	}
}

type failingRenderer struct{ calls *int }

func (f failingRenderer) Render(context.Context, *Report) error {
	*f.calls++
	return errors.New("disk full")
}

func TestRenderersStopAtFirstFailure(t *testing.T) {
	var calls int
	rs := Renderers{failingRenderer{&calls}, failingRenderer{&calls}}

	if err := rs.Render(context.Background(), &Report{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (&TextRenderer{W: &bytes.Buffer{}}).Render(ctx, &Report{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
