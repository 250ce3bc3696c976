// Package questionbank stores reference interview questions grouped by track and difficulty.
package questionbank

import (
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	_ "embed"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/hh-interviewer/internal/interview"
)

//go:embed default_bank.yaml
var defaultBank []byte

var validate = validator.New()

// Entry is one bank question. Level overrides the classifier when set.
type Entry struct {
	Category string `yaml:"category"`
	Question string `yaml:"question" validate:"required"`
	Company  string `yaml:"company"`
	Level    string `yaml:"level" validate:"omitempty,oneof=B1 B2 B3 b1 b2 b3"`
}

type bankFile struct {
	Tracks map[string][]Entry `yaml:"tracks" validate:"required,min=1,dive,keys,required,endkeys,min=1,dive"`
}

type Options struct {
	Classifier DifficultyClassifier
	// Seed makes sampling reproducible. Zero seeds from the clock.
	Seed   uint64
	Logger *zap.Logger
}

// Bank implements interview.QuestionBank. It is safe for concurrent use.
type Bank struct {
	mu     sync.Mutex
	tracks map[string]map[interview.Level][]Entry
	rng    *rand.Rand
}

// Default returns the bank shipped with the binary.
func Default(opts Options) (*Bank, error) {
	return Parse(defaultBank, opts)
}

func Load(path string, opts Options) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank %q: %w", path, err)
	}
	return Parse(data, opts)
}

func Parse(data []byte, opts Options) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing question bank: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("validating question bank: %w", err)
	}

	if opts.Classifier == nil {
		opts.Classifier = NewKeywordDifficulty()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	b := &Bank{
		tracks: make(map[string]map[interview.Level][]Entry, len(f.Tracks)),
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}

	for name, entries := range f.Tracks {
		track := normalize(name)
		buckets := b.tracks[track]
		if buckets == nil {
			buckets = make(map[interview.Level][]Entry, 3)
			b.tracks[track] = buckets
		}
		for _, e := range entries {
			e.Question = strings.TrimSpace(e.Question)
			level := opts.Classifier.Classify(e)
			if e.Level != "" {
				if parsed, err := interview.ParseLevel(e.Level); err == nil {
					level = parsed
				}
			}
			buckets[level] = append(buckets[level], e)
		}
	}

	opts.Logger.Debug("question bank loaded", zap.Strings("tracks", b.Tracks()), zap.Int("questions", b.Len()))
	return b, nil
}

// Tracks returns the track names in sorted order.
func (b *Bank) Tracks() []string {
	tracks := make([]string, 0, len(b.tracks))
	for name := range b.tracks {
		tracks = append(tracks, name)
	}
	sort.Strings(tracks)
	return tracks
}

func (b *Bank) HasTrack(track string) bool {
	_, ok := b.tracks[normalize(track)]
	return ok
}

func (b *Bank) Len() int {
	var n int
	for _, buckets := range b.tracks {
		for _, entries := range buckets {
			n += len(entries)
		}
	}
	return n
}

// Reference samples up to n questions of the track at level. Other levels of the same track,
// nearest first, fill the remainder.
func (b *Bank) Reference(track string, level interview.Level, n int) []string {
	if n <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	buckets, ok := b.tracks[normalize(track)]
	if !ok {
		return nil
	}

	var out []string
	for _, l := range append([]interview.Level{level}, neighbours(level)...) {
		for _, e := range b.sample(buckets[l], n-len(out)) {
			out = append(out, e.Question)
		}
		if len(out) == n {
			break
		}
	}
	return out
}

// Fallback returns a question to use when generation fails. Technical questions come from the
// bank when it has one for the level.
func (b *Bank) Fallback(track string, stage interview.Stage, level interview.Level) string {
	if stage == interview.StageTechnical {
		if refs := b.Reference(track, level, 1); len(refs) > 0 {
			return refs[0]
		}
	}
	return interview.DefaultFallback(stage, level)
}

func (b *Bank) sample(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	perm := b.rng.Perm(len(entries))
	if n > len(perm) {
		n = len(perm)
	}
	out := make([]Entry, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, entries[idx])
	}
	return out
}

func neighbours(level interview.Level) []interview.Level {
	switch level {
	case interview.LevelB1:
		return []interview.Level{interview.LevelB2, interview.LevelB3}
	case interview.LevelB3:
		return []interview.Level{interview.LevelB2, interview.LevelB1}
	default:
		return []interview.Level{interview.LevelB3, interview.LevelB1}
	}
}

func normalize(track string) string {
	return strings.ToLower(strings.TrimSpace(track))
}

// TrackSummary describes one track of the bank.
type TrackSummary struct {
	Track      string
	Total      int
	PerLevel   map[interview.Level]int
	Categories []string
}

// Summary describes every track in sorted order.
func (b *Bank) Summary() []TrackSummary {
	out := make([]TrackSummary, 0, len(b.tracks))
	for _, name := range b.Tracks() {
		s := TrackSummary{Track: name, PerLevel: make(map[interview.Level]int, 3)}
		seen := make(map[string]struct{})
		for _, level := range []interview.Level{interview.LevelB1, interview.LevelB2, interview.LevelB3} {
			entries := b.tracks[name][level]
			s.PerLevel[level] = len(entries)
			s.Total += len(entries)
			for _, e := range entries {
				if c := strings.TrimSpace(e.Category); c != "" {
					if _, ok := seen[c]; !ok {
						seen[c] = struct{}{}
						s.Categories = append(s.Categories, c)
					}
				}
			}
		}
		sort.Strings(s.Categories)
		out = append(out, s)
	}
	return out
}
