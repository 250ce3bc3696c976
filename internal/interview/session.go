package interview

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/candidate"
	"github.com/spigell/hh-interviewer/internal/logger"
)

const (
	activeEntityLimit = 3
	focusWindow       = 3
)

// ErrSessionEnded is returned once the interview was ended explicitly.
var ErrSessionEnded = errors.New("interview session has ended")

// Turn is one answered question.
type Turn struct {
	Index        int                `json:"index"`
	Stage        Stage              `json:"stage"`
	Level        Level              `json:"level"`
	Question     string             `json:"question"`
	QuestionType QuestionType       `json:"question_type"`
	Answer       string             `json:"answer"`
	Score        float64            `json:"score"`
	Dimensions   map[string]float64 `json:"dimensions"`
	Mentioned    []string           `json:"mentioned,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// TurnResult describes the state after an answer was processed.
type TurnResult struct {
	Turn      Turn
	LevelFrom Level
	Level     Level
	StageFrom Stage
	Stage     Stage
	Advanced  bool
	Completed bool
}

// Directive is a snapshot handed to the generation task.
type Directive struct {
	Text  string
	Stage Stage
	Level Level
}

// SessionDeps aggregates the collaborators of a session. Everything but Logger is optional.
type SessionDeps struct {
	Track         string
	Resume        *candidate.Resume
	Job           *candidate.JobDescription
	Bank          QuestionBank
	Triplets      TripletSource
	Focus         FocusAdvisor
	Classifier    QuestionClassifier
	Dimensions    []string
	Demonstration string
	Logger        *zap.Logger
}

// Session owns all mutable interview state. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id     string
	deps   SessionDeps
	logger *zap.Logger

	stages     *StageController
	difficulty *DifficultyController
	scores     *ScoreAggregator
	evidence   *EvidenceSelector
	assembler  *DirectiveAssembler

	turns        []Turn
	question     string
	questionType QuestionType
	ended        bool
	startedAt    time.Time
	endedAt      time.Time
}

func NewSession(deps SessionDeps) *Session {
	if deps.Classifier == nil {
		deps.Classifier = NewKeywordClassifier()
	}
	if deps.Demonstration == "" {
		deps.Demonstration = DefaultDemonstration
	}

	s := &Session{deps: deps}
	s.init()
	return s
}

func (s *Session) init() {
	s.id = uuid.NewString()
	s.logger = logger.WithFields(s.deps.Logger, logger.SessionFields(s.id, s.deps.Track)...)
	s.stages = NewStageController()
	s.difficulty = NewDifficultyController()
	s.scores = NewScoreAggregator(s.deps.Dimensions...)
	s.evidence = NewEvidenceSelector()
	s.assembler = NewDirectiveAssembler(s.logger, s.deps.Demonstration)

	var vocabulary []string
	vocabulary = append(vocabulary, s.deps.Resume.KeyEntities()...)
	if s.deps.Job != nil {
		vocabulary = append(vocabulary, s.deps.Job.Keywords...)
	}
	s.evidence.SetVocabulary(vocabulary)

	s.turns = nil
	s.question = ""
	s.questionType = ""
	s.ended = false
	s.startedAt = time.Now()
	s.endedAt = time.Time{}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Track() string {
	return s.deps.Track
}

// Logger returns the session scoped logger.
func (s *Session) Logger() *zap.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages.CurrentStage()
}

func (s *Session) Level() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.difficulty.CurrentLevel()
}

// CurrentQuestion returns the question waiting for an answer.
func (s *Session) CurrentQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.question
}

// Ended reports whether End was called.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Completed reports whether every stage is done.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages.CurrentStage() == StageCompleted
}

func (s *Session) writable() error {
	if s.ended {
		return ErrSessionEnded
	}
	if s.stages.CurrentStage() == StageCompleted {
		return ErrStageCompleted
	}
	return nil
}

// AcceptQuestion stores the next question. It is refused once the session ended or completed.
func (s *Session) AcceptQuestion(question string) (QuestionType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return "", err
	}
	question = strings.TrimSpace(question)
	s.question = question
	s.questionType = s.deps.Classifier.Classify(question)
	return s.questionType, nil
}

// EvaluationRequest snapshots what the evaluator needs to score answer.
func (s *Session) EvaluationRequest(answer string) (EvaluationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return EvaluationRequest{}, err
	}
	return EvaluationRequest{
		Stage:      s.stages.CurrentStage(),
		Level:      s.difficulty.CurrentLevel(),
		Question:   s.question,
		Answer:     answer,
		History:    lastTurns(append([]Turn(nil), s.turns...), historyTurns),
		Dimensions: s.scores.Dimensions(),
	}, nil
}

// ProcessAnswer applies one answer: scoring, difficulty, stage and evidence updates in order.
func (s *Session) ProcessAnswer(answer string, dims map[string]float64) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return TurnResult{}, err
	}

	st := &turnState{
		answer:    answer,
		dims:      dims,
		stageFrom: s.stages.CurrentStage(),
		levelFrom: s.difficulty.CurrentLevel(),
	}
	if err := runTurn(s, st); err != nil {
		return TurnResult{}, err
	}

	turn := Turn{
		Index:        st.record.QuestionIndex,
		Stage:        st.stageFrom,
		Level:        st.levelFrom,
		Question:     s.question,
		QuestionType: s.questionType,
		Answer:       answer,
		Score:        st.record.Score,
		Dimensions:   st.record.Dimensions,
		Mentioned:    st.mentioned,
		Timestamp:    st.record.Timestamp,
	}
	s.turns = append(s.turns, turn)
	s.question = ""
	s.questionType = ""

	stage := s.stages.CurrentStage()
	return TurnResult{
		Turn:      turn,
		LevelFrom: st.levelFrom,
		Level:     s.difficulty.CurrentLevel(),
		StageFrom: st.stageFrom,
		Stage:     stage,
		Advanced:  st.advanced,
		Completed: stage == StageCompleted,
	}, nil
}

// Directive assembles the next directive. It returns false once no further question is due.
func (s *Session) Directive() (Directive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writable() != nil {
		return Directive{}, false
	}

	stage := s.stages.CurrentStage()
	level := s.difficulty.CurrentLevel()
	in := DirectiveInput{
		Stage:          stage,
		Level:          level,
		QuestionNumber: s.stages.QuestionInStage() + 1,
		Quota:          s.stages.Quota(stage),
		Resume:         s.deps.Resume,
		Job:            s.deps.Job,
		History:        append([]Turn(nil), s.turns...),
	}

	if stage == StageTechnical {
		if s.deps.Bank != nil {
			in.References = s.deps.Bank.Reference(s.deps.Track, level, maxReferences)
		}
		if s.deps.Focus != nil {
			in.Focus = s.deps.Focus.SuggestFocus(s.scores.Recent(focusWindow))
		}
	}
	in.Evidence, in.RecentEntities, in.ActiveEntities = s.evidenceSnapshot()

	return Directive{Text: s.assembler.Build(in), Stage: stage, Level: level}, true
}

func (s *Session) evidenceSnapshot() (ranked []Triplet, recent, active []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("evidence ranking failed", zap.Any("panic", r))
			ranked, recent, active = nil, nil, nil
		}
	}()

	var candidates []Triplet
	if s.deps.Triplets != nil {
		candidates = s.deps.Triplets.Triplets()
	}
	return s.evidence.RankedTriplets(candidates, DefaultTripletCap),
		s.evidence.RecentMentions(),
		s.evidence.ActiveEntities(activeEntityLimit)
}

// FallbackQuestion returns a question from the bank for the current stage and level.
func (s *Session) FallbackQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := s.stages.CurrentStage()
	level := s.difficulty.CurrentLevel()
	if s.deps.Bank != nil {
		if q := strings.TrimSpace(s.deps.Bank.Fallback(s.deps.Track, stage, level)); q != "" {
			return q
		}
	}
	return DefaultFallback(stage, level)
}

// DefaultFallback is the question asked when generation fails and no bank question fits.
func DefaultFallback(stage Stage, level Level) string {
	switch stage {
	case StageIntro:
		return "Please introduce yourself and tell me what drew you to this role."
	case StageExperience:
		return "Tell me about a recent project you are proud of. What was your role and what did you deliver?"
	}

	switch level {
	case LevelB1:
		return "Which core concepts of your main technology would you explain to a junior colleague first?"
	case LevelB3:
		return "How would you design a system that has to handle ten times the current load? Walk me through the trade-offs."
	default:
		return "Describe a technical problem you solved in a real project and the alternatives you considered."
	}
}

// End marks the session ended. Later writes are refused.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.ended = true
	if s.endedAt.IsZero() {
		s.endedAt = time.Now()
	}
	s.logger.Info("interview ended",
		zap.Int("turns", len(s.turns)),
		zap.Stringer("stage", s.stages.CurrentStage()),
	)
}

// Reset discards all state and starts a new session with a new id.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
}

// Snapshot is a read-only copy of the session used for review.
type Snapshot struct {
	ID                    string
	Track                 string
	Resume                *candidate.Resume
	Job                   *candidate.JobDescription
	Turns                 []Turn
	Scores                []ScoreRecord
	ScoreSummary          ScoreSummary
	DifficultyTransitions []DifficultyTransition
	Progression           Progression
	StageTransitions      []StageTransition
	StageScores           map[Stage][]float64
	Quotas                map[Stage]int
	Reallocations         []string
	Stage                 Stage
	Completed             bool
	Ended                 bool
	StartedAt             time.Time
	EndedAt               time.Time
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	stageScores := make(map[Stage][]float64, 3)
	for _, st := range Stages() {
		stageScores[st] = s.stages.StageScores(st)
	}

	return Snapshot{
		ID:                    s.id,
		Track:                 s.deps.Track,
		Resume:                s.deps.Resume,
		Job:                   s.deps.Job,
		Turns:                 append([]Turn(nil), s.turns...),
		Scores:                s.scores.History(),
		ScoreSummary:          s.scores.Summary(),
		DifficultyTransitions: s.difficulty.Transitions(),
		Progression:           s.difficulty.Progression(),
		StageTransitions:      s.stages.Transitions(),
		StageScores:           stageScores,
		Quotas:                s.stages.Quotas(),
		Reallocations:         s.stages.Reallocations(),
		Stage:                 s.stages.CurrentStage(),
		Completed:             s.stages.CurrentStage() == StageCompleted,
		Ended:                 s.ended,
		StartedAt:             s.startedAt,
		EndedAt:               s.endedAt,
	}
}
