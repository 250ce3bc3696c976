package interview

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "strips reasoning and takes text after marker",
			raw:  "<think>The candidate > likes Go. Ask about it!</think>Sure. > What is your experience with Go? Extra text.",
			want: "What is your experience with Go?",
		},
		{
			name: "strips every reasoning block",
			raw:  "<think>a</think>\n<think>\nb > c\n</think>> Describe your last project.",
			want: "Describe your last project.",
		},
		{
			name: "no marker keeps the remainder",
			raw:  "  Tell me about yourself. And more",
			want: "Tell me about yourself.",
		},
		{
			name: "full width terminator",
			raw:  "> 请介绍一下你自己。然后谈谈项目",
			want: "请介绍一下你自己。",
		},
		{
			name: "no terminator",
			raw:  "> Describe your role in the team",
			want: "Describe your role in the team",
		},
		{
			name: "exclamation ends the question",
			raw:  "> Walk me through it! Then stop",
			want: "Walk me through it!",
		},
		{
			name: "empty response",
			raw:  "<think>only thoughts</think>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractQuestion(tt.raw); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractScores(t *testing.T) {
	t.Parallel()

	dims := DefaultDimensions()
	tests := []struct {
		name string
		raw  string
		want map[string]float64
	}{
		{
			name: "all dimensions in order",
			raw:  "understanding 0.8, clarity .7, depth 1",
			want: map[string]float64{"understanding": 0.8, "clarity": 0.7, "depth": 1},
		},
		{
			name: "extra numbers are ignored",
			raw:  "0.6 0.5 0.4 0.9",
			want: map[string]float64{"understanding": 0.6, "clarity": 0.5, "depth": 0.4},
		},
		{
			name: "partial response",
			raw:  "0.9",
			want: map[string]float64{"understanding": 0.9},
		},
		{
			name: "no numbers",
			raw:  "I cannot score this answer",
			want: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, ExtractScores(tt.raw, dims)); diff != "" {
				t.Fatalf("scores mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
