package interview

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// turnState carries the output of each turn step into the next one.
type turnState struct {
	answer string
	dims   map[string]float64

	record    ScoreRecord
	stageFrom Stage
	levelFrom Level
	advanced  bool
	mentioned []string
}

// turnStep is one stage of answer processing. Steps that are not critical are logged and
// skipped on failure.
type turnStep struct {
	name     string
	critical bool
	apply    func(s *Session, st *turnState) ([]zap.Field, error)
}

var turnSteps = []turnStep{
	{name: "score", critical: true, apply: scoreStep},
	{name: "difficulty", critical: true, apply: difficultyStep},
	{name: "stage", critical: true, apply: stageStep},
	{name: "evidence", critical: false, apply: evidenceStep},
}

func runTurn(s *Session, st *turnState) error {
	for _, step := range turnSteps {
		fields, err := applyStep(step, s, st)
		if err != nil {
			if step.critical {
				return fmt.Errorf("%s: %w", step.name, err)
			}
			s.logger.Warn("turn step failed", zap.String("name", step.name), zap.Error(err))
			continue
		}
		s.logger.Debug("turn step", append([]zap.Field{zap.String("name", step.name)}, fields...)...)
	}
	return nil
}

func applyStep(step turnStep, s *Session, st *turnState) (fields []zap.Field, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.apply(s, st)
}

func scoreStep(s *Session, st *turnState) ([]zap.Field, error) {
	st.record = s.scores.Record(st.dims)
	return []zap.Field{
		zap.Int("question_index", st.record.QuestionIndex),
		zap.Float64("score", st.record.Score),
		zap.Int("dimensions_reported", len(st.dims)),
	}, nil
}

func difficultyStep(s *Session, st *turnState) ([]zap.Field, error) {
	level := s.difficulty.Adjust(st.record.Score, defaultWindow)
	return []zap.Field{
		zap.Stringer("from", st.levelFrom),
		zap.Stringer("to", level),
	}, nil
}

func stageStep(s *Session, st *turnState) ([]zap.Field, error) {
	if err := s.stages.RecordAnswerScore(st.record.Score); err != nil {
		return nil, err
	}

	s.stages.ReallocateQuotas(s.scores.Recent(reallocationWindow))

	if s.stages.ShouldAdvance() {
		from := s.stages.CurrentStage()
		avg, _ := s.stages.StageAverage(from)
		st.advanced = s.stages.Advance()
		to := s.stages.CurrentStage()
		if st.advanced && to == StageCompleted {
			s.endedAt = time.Now()
		}
		if st.advanced && to != StageCompleted {
			seeded := s.difficulty.Seed(avg)
			s.logger.Info("stage advanced",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
				zap.Float64("stage_average", avg),
				zap.Stringer("seeded_level", seeded),
			)
		}
	}

	stage := s.stages.CurrentStage()
	return []zap.Field{
		zap.Stringer("stage", stage),
		zap.Int("in_stage", s.stages.QuestionInStage()),
		zap.Int("quota", s.stages.Quota(stage)),
		zap.Bool("advanced", st.advanced),
	}, nil
}

func evidenceStep(s *Session, st *turnState) ([]zap.Field, error) {
	s.evidence.Decay()
	st.mentioned = s.evidence.Mentioned(st.answer)
	s.evidence.Activate(st.mentioned)
	return []zap.Field{
		zap.Strings("mentioned", st.mentioned),
		zap.Int("tracked", s.evidence.Tracked()),
	}, nil
}
