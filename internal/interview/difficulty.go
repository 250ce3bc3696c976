package interview

import (
	"fmt"
	"strings"
)

// Level is a technical question difficulty tier. Levels are totally ordered: B1 < B2 < B3.
type Level int

const (
	LevelB1 Level = iota + 1
	LevelB2
	LevelB3
)

const (
	raiseThreshold = 0.75
	lowerThreshold = 0.5

	defaultWindow = 2
)

// LevelInfo describes a difficulty tier for the directive and the review report.
type LevelInfo struct {
	Name           string
	Description    string
	Keywords       []string
	TargetAudience string
}

var levelCatalog = map[Level]LevelInfo{
	LevelB1: {
		Name:           "basic",
		Description:    "fundamental concepts, entry-level skills, simple implementations",
		Keywords:       []string{"fundamentals", "concept", "simple", "introductory"},
		TargetAudience: "junior developers",
	},
	LevelB2: {
		Name:           "intermediate",
		Description:    "practical application, project experience, moderate complexity",
		Keywords:       []string{"practical", "project", "application", "experience"},
		TargetAudience: "experienced developers",
	},
	LevelB3: {
		Name:           "advanced",
		Description:    "in-depth technology, architecture design, complex scenarios",
		Keywords:       []string{"in-depth", "architecture", "complex", "advanced"},
		TargetAudience: "senior developers",
	},
}

func (l Level) String() string {
	switch l {
	case LevelB1:
		return "B1"
	case LevelB2:
		return "B2"
	case LevelB3:
		return "B3"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Info returns the catalog entry for the level.
func (l Level) Info() LevelInfo {
	return levelCatalog[l]
}

// Valid reports whether l is one of B1, B2, B3.
func (l Level) Valid() bool {
	return l >= LevelB1 && l <= LevelB3
}

// ParseLevel accepts "B1".."B3" (case-insensitive) and the catalog names.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b1", "basic":
		return LevelB1, nil
	case "b2", "intermediate":
		return LevelB2, nil
	case "b3", "advanced":
		return LevelB3, nil
	}
	return 0, fmt.Errorf("unknown difficulty level %q", s)
}

// AdjustmentKind classifies a difficulty transition.
type AdjustmentKind string

const (
	AdjustIncrease AdjustmentKind = "increase"
	AdjustDecrease AdjustmentKind = "decrease"
	AdjustMaintain AdjustmentKind = "maintain"
)

// DifficultyTransition is one entry of the append-only difficulty audit trail.
type DifficultyTransition struct {
	QuestionIndex int
	Score         float64
	WindowMean    float64
	From          Level
	To            Level
	Kind          AdjustmentKind
	Reason        string
}

// DifficultyController keeps the active level and moves it one step at a time based on the
// windowed mean of recent scores.
type DifficultyController struct {
	initial     Level
	level       Level
	scores      []float64
	transitions []DifficultyTransition
}

func NewDifficultyController() *DifficultyController {
	return &DifficultyController{initial: LevelB2, level: LevelB2}
}

func (d *DifficultyController) CurrentLevel() Level {
	return d.level
}

// SetInitial overrides the level without recording a transition. Invalid levels are ignored.
func (d *DifficultyController) SetInitial(level Level) {
	if !level.Valid() {
		return
	}
	d.level = level
	if len(d.transitions) == 0 {
		d.initial = level
	}
}

// Seed reseeds the level from the previous stage average when a new stage starts.
func (d *DifficultyController) Seed(previousStageAverage float64) Level {
	switch {
	case previousStageAverage >= raiseThreshold:
		d.SetInitial(LevelB3)
	case previousStageAverage < lowerThreshold:
		d.SetInitial(LevelB1)
	default:
		d.SetInitial(LevelB2)
	}
	return d.level
}

// Adjust records score and moves the level according to the mean of the last window scores.
// A record is appended on every call.
func (d *DifficultyController) Adjust(score float64, window int) Level {
	if window <= 0 {
		window = defaultWindow
	}

	d.scores = append(d.scores, score)
	mean := meanOf(lastN(d.scores, window))

	from := d.level
	to := from
	var reason string

	switch {
	case mean >= raiseThreshold:
		if from < LevelB3 {
			to = from + 1
			reason = fmt.Sprintf("strong answers (window mean %.2f), raised %s -> %s", mean, from, to)
		} else {
			reason = fmt.Sprintf("strong answers (window mean %.2f), already at boundary %s", mean, from)
		}
	case mean < lowerThreshold:
		if from > LevelB1 {
			to = from - 1
			reason = fmt.Sprintf("weak answers (window mean %.2f), lowered %s -> %s", mean, from, to)
		} else {
			reason = fmt.Sprintf("weak answers (window mean %.2f), already at boundary %s", mean, from)
		}
	default:
		reason = fmt.Sprintf("average answers (window mean %.2f), kept %s", mean, from)
	}

	d.level = to
	d.transitions = append(d.transitions, DifficultyTransition{
		QuestionIndex: len(d.scores),
		Score:         score,
		WindowMean:    mean,
		From:          from,
		To:            to,
		Kind:          kindOf(from, to),
		Reason:        reason,
	})

	return to
}

// Transitions returns a copy of the audit trail.
func (d *DifficultyController) Transitions() []DifficultyTransition {
	out := make([]DifficultyTransition, len(d.transitions))
	copy(out, d.transitions)
	return out
}

// Reset restores the controller to B2 with no history.
func (d *DifficultyController) Reset() {
	*d = *NewDifficultyController()
}

// Progression summarizes the audit trail for review.
type Progression struct {
	Total        int
	Distribution map[Level]int
	Increases    int
	Decreases    int
	Maintained   int
	Trend        string
	Initial      Level
	Final        Level
}

func (d *DifficultyController) Progression() Progression {
	p := Progression{
		Total:        len(d.transitions),
		Distribution: make(map[Level]int),
		Initial:      d.initial,
		Final:        d.level,
		Trend:        "stable",
	}

	for _, t := range d.transitions {
		p.Distribution[t.To]++
		switch t.Kind {
		case AdjustIncrease:
			p.Increases++
		case AdjustDecrease:
			p.Decreases++
		default:
			p.Maintained++
		}
	}

	if len(d.transitions) == 0 {
		return p
	}

	first := d.transitions[0].From
	last := d.transitions[len(d.transitions)-1].To
	switch {
	case last > first:
		p.Trend = "rising"
	case last < first:
		p.Trend = "falling"
	case p.Increases > 0 || p.Decreases > 0:
		p.Trend = "fluctuating"
	}

	return p
}

func kindOf(from, to Level) AdjustmentKind {
	switch {
	case to > from:
		return AdjustIncrease
	case to < from:
		return AdjustDecrease
	default:
		return AdjustMaintain
	}
}

func lastN(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
