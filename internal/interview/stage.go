package interview

import (
	"errors"
	"fmt"
)

// Stage is one of the ordered interview phases.
type Stage int

const (
	StageIntro Stage = iota
	StageExperience
	StageTechnical
	StageCompleted
)

const (
	minExperienceQuota = 2
	maxExperienceQuota = 4
	minTechnicalQuota  = 2
	maxTechnicalQuota  = 5

	reallocationWindow = 2
)

// ErrStageCompleted is returned when a mutation is attempted after the last stage.
var ErrStageCompleted = errors.New("interview stages are completed")

func (s Stage) String() string {
	switch s {
	case StageIntro:
		return "intro"
	case StageExperience:
		return "experience"
	case StageTechnical:
		return "technical"
	case StageCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Title is the human readable stage name used in directives and reports.
func (s Stage) Title() string {
	switch s {
	case StageIntro:
		return "Non-technical questions"
	case StageExperience:
		return "Experience questions"
	case StageTechnical:
		return "Technical questions"
	case StageCompleted:
		return "Interview completed"
	default:
		return s.String()
	}
}

// Stages lists the question-bearing stages in order.
func Stages() []Stage {
	return []Stage{StageIntro, StageExperience, StageTechnical}
}

// StageTransition is one entry of the stage audit trail.
type StageTransition struct {
	QuestionIndex int
	From          Stage
	To            Stage
	Reason        string
}

// StageController walks the interview through its stages and owns the per-stage quotas.
type StageController struct {
	current      Stage
	inStage      int
	answered     int
	quotas       [3]int
	stageScores  [3][]float64
	transitions  []StageTransition
	reallocation []string
}

func NewStageController() *StageController {
	return &StageController{
		current: StageIntro,
		quotas:  [3]int{2, 3, 3},
	}
}

func (c *StageController) CurrentStage() Stage {
	return c.current
}

// QuestionInStage is the number of answers recorded in the current stage.
func (c *StageController) QuestionInStage() int {
	return c.inStage
}

// Quotas returns the question budget of each question-bearing stage.
func (c *StageController) Quotas() map[Stage]int {
	return map[Stage]int{
		StageIntro:      c.quotas[StageIntro],
		StageExperience: c.quotas[StageExperience],
		StageTechnical:  c.quotas[StageTechnical],
	}
}

// Quota returns the budget of stage, 0 for Completed.
func (c *StageController) Quota(stage Stage) int {
	if stage < StageIntro || stage >= StageCompleted {
		return 0
	}
	return c.quotas[stage]
}

// RecordAnswerScore counts an answer towards the current stage.
func (c *StageController) RecordAnswerScore(score float64) error {
	if c.current == StageCompleted {
		return ErrStageCompleted
	}

	c.inStage++
	c.answered++
	c.stageScores[c.current] = append(c.stageScores[c.current], score)
	return nil
}

func (c *StageController) ShouldAdvance() bool {
	if c.current == StageCompleted {
		return false
	}
	return c.inStage >= c.quotas[c.current]
}

// Advance moves to the next stage. It returns false when already Completed.
func (c *StageController) Advance() bool {
	from := c.current
	if from == StageCompleted {
		c.transitions = append(c.transitions, StageTransition{
			QuestionIndex: c.answered,
			From:          from,
			To:            from,
			Reason:        "already at boundary: interview completed",
		})
		return false
	}

	c.current++
	c.inStage = 0
	c.transitions = append(c.transitions, StageTransition{
		QuestionIndex: c.answered,
		From:          from,
		To:            c.current,
		Reason:        fmt.Sprintf("%d of %d questions answered in %s", len(c.stageScores[from]), c.quotas[from], from),
	})
	return true
}

// ReallocateQuotas moves question budget towards or away from the technical stage based on the
// mean of the last two scores. It has no effect once the technical stage has started.
func (c *StageController) ReallocateQuotas(recentScores []float64) {
	if len(recentScores) < reallocationWindow {
		return
	}
	if c.current >= StageTechnical {
		return
	}

	mean := meanOf(lastN(recentScores, reallocationWindow))
	switch {
	case mean >= raiseThreshold:
		c.quotas[StageTechnical] = min(maxTechnicalQuota, c.quotas[StageTechnical]+1)
		c.reallocation = append(c.reallocation, fmt.Sprintf("recent mean %.2f: technical quota %d", mean, c.quotas[StageTechnical]))
	case mean < lowerThreshold:
		c.quotas[StageTechnical] = max(minTechnicalQuota, c.quotas[StageTechnical]-1)
		c.quotas[StageExperience] = min(maxExperienceQuota, c.quotas[StageExperience]+1)
		c.reallocation = append(c.reallocation, fmt.Sprintf("recent mean %.2f: technical quota %d, experience quota %d",
			mean, c.quotas[StageTechnical], c.quotas[StageExperience]))
	}
}

// StageScores returns a copy of the scores recorded for stage.
func (c *StageController) StageScores(stage Stage) []float64 {
	if stage < StageIntro || stage >= StageCompleted {
		return nil
	}
	out := make([]float64, len(c.stageScores[stage]))
	copy(out, c.stageScores[stage])
	return out
}

// StageAverage returns the mean score of stage and whether any answer was recorded.
func (c *StageController) StageAverage(stage Stage) (float64, bool) {
	scores := c.StageScores(stage)
	if len(scores) == 0 {
		return 0, false
	}
	return meanOf(scores), true
}

// Transitions returns a copy of the stage audit trail.
func (c *StageController) Transitions() []StageTransition {
	out := make([]StageTransition, len(c.transitions))
	copy(out, c.transitions)
	return out
}

// Reallocations returns human readable notes about quota changes.
func (c *StageController) Reallocations() []string {
	out := make([]string, len(c.reallocation))
	copy(out, c.reallocation)
	return out
}
