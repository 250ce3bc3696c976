package questionbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spigell/hh-interviewer/internal/interview"
)

func TestDefaultBankSummary(t *testing.T) {
	t.Parallel()

	b, err := Default(Options{Seed: 1})
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}

	if diff := cmp.Diff([]string{"backend", "devops"}, b.Tracks()); diff != "" {
		t.Fatalf("tracks mismatch (-want +got):\n%s", diff)
	}
	if b.Len() != 15 {
		t.Fatalf("expected 15 questions, got %d", b.Len())
	}

	want := []TrackSummary{
		{
			Track:      "backend",
			Total:      10,
			PerLevel:   map[interview.Level]int{interview.LevelB1: 2, interview.LevelB2: 5, interview.LevelB3: 3},
			Categories: []string{"Architecture", "Databases", "Go", "Messaging", "Networking"},
		},
		{
			Track:      "devops",
			Total:      5,
			PerLevel:   map[interview.Level]int{interview.LevelB1: 1, interview.LevelB2: 3, interview.LevelB3: 1},
			Categories: []string{"CI/CD", "Kubernetes", "Linux", "Observability"},
		},
	}
	if diff := cmp.Diff(want, b.Summary()); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestReferenceSampling(t *testing.T) {
	t.Parallel()

	a, err := Default(Options{Seed: 42})
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	b, err := Default(Options{Seed: 42})
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}

	got := a.Reference("Backend", interview.LevelB3, 3)
	if diff := cmp.Diff(got, b.Reference("backend", interview.LevelB3, 3)); diff != "" {
		t.Fatalf("same seed must sample the same questions (-a +b):\n%s", diff)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 references, got %v", got)
	}
	seen := map[string]bool{}
	for _, q := range got {
		if seen[q] {
			t.Fatalf("duplicate reference %q", q)
		}
		seen[q] = true
		if NewKeywordDifficulty().Classify(Entry{Question: q}) != interview.LevelB3 {
			t.Fatalf("expected only advanced questions, got %q", q)
		}
	}
}

func TestReferenceFillsFromNeighbourLevels(t *testing.T) {
	t.Parallel()

	b, err := Default(Options{Seed: 7})
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}

	got := b.Reference("devops", interview.LevelB3, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 references, got %v", got)
	}
	if got[0] != "Design a multi-cluster setup that survives the loss of a whole region." {
		t.Fatalf("the only advanced question must come first, got %q", got[0])
	}
	for _, q := range got[1:] {
		if NewKeywordDifficulty().Classify(Entry{Question: q}) != interview.LevelB2 {
			t.Fatalf("expected intermediate filler, got %q", q)
		}
	}

	if got := b.Reference("devops", interview.LevelB1, 10); len(got) != 5 {
		t.Fatalf("expected the whole track, got %d", len(got))
	}
	if b.Reference("frontend", interview.LevelB2, 3) != nil {
		t.Fatalf("unknown track must have no references")
	}
	if b.Reference("backend", interview.LevelB2, 0) != nil {
		t.Fatalf("zero references requested")
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	b, err := Default(Options{Seed: 3})
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}

	tests := []struct {
		name  string
		track string
		stage interview.Stage
		level interview.Level
		want  string
	}{
		{"technical from bank", "devops", interview.StageTechnical, interview.LevelB3, "Design a multi-cluster setup that survives the loss of a whole region."},
		{"technical unknown track", "frontend", interview.StageTechnical, interview.LevelB3, interview.DefaultFallback(interview.StageTechnical, interview.LevelB3)},
		{"intro is builtin", "devops", interview.StageIntro, interview.LevelB3, interview.DefaultFallback(interview.StageIntro, interview.LevelB2)},
		{"experience is builtin", "backend", interview.StageExperience, interview.LevelB1, interview.DefaultFallback(interview.StageExperience, interview.LevelB1)},
	}

	for _, tt := range tests {
		if got := b.Fallback(tt.track, tt.stage, tt.level); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("explicit level and custom classifier", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
tracks:
  Data:
    - question: " What is a window function? "
      level: B3
    - question: Describe your ETL pipeline.
`)
		b, err := Parse(data, Options{
			Seed:       1,
			Classifier: DifficultyFunc(func(Entry) interview.Level { return interview.LevelB1 }),
		})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if diff := cmp.Diff([]string{"What is a window function?"}, b.Reference("data", interview.LevelB3, 1)); diff != "" {
			t.Fatalf("level override mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"Describe your ETL pipeline."}, b.Reference("data", interview.LevelB1, 1)); diff != "" {
			t.Fatalf("classifier mismatch (-want +got):\n%s", diff)
		}
	})

	invalid := map[string]string{
		"malformed yaml": "tracks: [",
		"no tracks":      "tracks: {}",
		"empty track":    "tracks:\n  go: []\n",
		"empty question": "tracks:\n  go:\n    - category: Go\n",
		"bad level":      "tracks:\n  go:\n    - question: q\n      level: C1\n",
	}
	for name, data := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(data), Options{}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bank.yaml")
	if err := os.WriteFile(path, []byte("tracks:\n  go:\n    - question: Why Go?\n"), 0o600); err != nil {
		t.Fatalf("write bank: %v", err)
	}

	b, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !b.HasTrack("GO") || b.Len() != 1 {
		t.Fatalf("unexpected bank: %v", b.Summary())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
