package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const interviewerSystem = "You are an experienced technical interviewer. Follow the directive and reply with a single question."

// Fallback kinds reported to Metrics.
const (
	FallbackScore    = "score"
	FallbackQuestion = "question"
)

// Metrics receives engine events. Implementations must be safe for concurrent use.
type Metrics interface {
	TurnProcessed(stage Stage, score float64)
	DifficultyChanged(from, to Level)
	StageAdvanced(from, to Stage)
	FallbackUsed(kind string)
	GenerationFinished(elapsed time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) TurnProcessed(Stage, float64) {}
func (nopMetrics) DifficultyChanged(Level, Level) {}
func (nopMetrics) StageAdvanced(Stage, Stage) {}
func (nopMetrics) FallbackUsed(string) {}
func (nopMetrics) GenerationFinished(time.Duration, error) {}

// Question is a question ready to be presented to the candidate.
type Question struct {
	Text     string
	Stage    Stage
	Level    Level
	Type     QuestionType
	Fallback bool
}

// EngineDeps aggregates engine collaborators. Evaluator and Metrics are optional.
type EngineDeps struct {
	Generator    TextGenerator
	Evaluator    AnswerEvaluator
	Metrics      Metrics
	Logger       *zap.Logger
	MaxLogLength int
}

// Engine drives a session with two goroutines: one processes answers, the other generates
// questions without holding the session lock.
type Engine struct {
	session    *Session
	generator  TextGenerator
	evaluator  AnswerEvaluator
	metrics    Metrics
	logger     *zap.Logger
	maxLogLen  int
	turns      chan string
	directives chan Directive
	questions  chan Question
	done       chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

func NewEngine(session *Session, deps EngineDeps) *Engine {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.MaxLogLength <= 0 {
		deps.MaxLogLength = defaultMaxLogLength
	}
	log := deps.Logger
	if log == nil {
		log = session.Logger()
	}

	return &Engine{
		session:    session,
		generator:  deps.Generator,
		evaluator:  deps.Evaluator,
		metrics:    deps.Metrics,
		logger:     log,
		maxLogLen:  deps.MaxLogLength,
		turns:      make(chan string, 1),
		directives: make(chan Directive, 1),
		questions:  make(chan Question, 1),
		done:       make(chan struct{}),
	}
}

// Questions delivers generated questions. It is closed when Run returns.
func (e *Engine) Questions() <-chan Question {
	return e.questions
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run blocks until the interview completes, End is called or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	e.started = true
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	defer close(e.done)
	defer close(e.questions)
	defer cancel()

	if e.session.Ended() {
		return nil
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return e.processTurns(gctx) })
	g.Go(func() error { return e.generateQuestions(gctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil
	}
	return err
}

// Submit hands the candidate's answer to the turn processor.
func (e *Engine) Submit(ctx context.Context, answer string) error {
	select {
	case e.turns <- answer:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrSessionEnded
	}
}

// End stops the interview. It is safe to call concurrently with a pending generation; the
// straggling result is dropped.
func (e *Engine) End() {
	e.session.End()
	e.stop()
}

func (e *Engine) stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) processTurns(ctx context.Context) error {
	if err := e.emitDirective(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case answer := <-e.turns:
			completed, err := e.handleTurn(ctx, answer)
			if err != nil {
				return err
			}
			if completed {
				e.logger.Info("interview completed")
				e.stop()
				return nil
			}
			if err := e.emitDirective(ctx); err != nil {
				return err
			}
		}
	}
}

func (e *Engine) handleTurn(ctx context.Context, answer string) (bool, error) {
	req, err := e.session.EvaluationRequest(answer)
	if err != nil {
		e.logger.Info("dropping answer", zap.Error(err))
		return errors.Is(err, ErrStageCompleted), nil
	}

	dims := e.evaluate(ctx, req)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	result, err := e.session.ProcessAnswer(answer, dims)
	if err != nil {
		if errors.Is(err, ErrSessionEnded) || errors.Is(err, ErrStageCompleted) {
			e.logger.Info("dropping answer", zap.Error(err))
			return errors.Is(err, ErrStageCompleted), nil
		}
		return false, err
	}

	e.metrics.TurnProcessed(result.StageFrom, result.Turn.Score)
	if result.LevelFrom != result.Level {
		e.metrics.DifficultyChanged(result.LevelFrom, result.Level)
	}
	if result.Advanced {
		e.metrics.StageAdvanced(result.StageFrom, result.Stage)
	}

	e.logger.Info("answer processed", append(
		logger.TurnFields(result.Turn.Index, result.Stage, result.Level),
		zap.Float64("score", result.Turn.Score),
	)...)

	return result.Completed, nil
}

func (e *Engine) evaluate(ctx context.Context, req EvaluationRequest) map[string]float64 {
	if e.evaluator == nil {
		e.metrics.FallbackUsed(FallbackScore)
		return nil
	}

	dims, err := e.evaluator.Evaluate(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("answer evaluation failed, using neutral scores", zap.Error(err))
			e.metrics.FallbackUsed(FallbackScore)
		}
		return nil
	}
	if len(dims) < len(req.Dimensions) {
		e.logger.Warn("answer evaluation is incomplete, missing dimensions are neutral",
			zap.Int("expected", len(req.Dimensions)),
			zap.Int("got", len(dims)),
		)
		e.metrics.FallbackUsed(FallbackScore)
	}
	return dims
}

func (e *Engine) emitDirective(ctx context.Context) error {
	d, ok := e.session.Directive()
	if !ok {
		return nil
	}
	select {
	case e.directives <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) generateQuestions(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-e.directives:
			q := e.generate(ctx, d)
			if ctx.Err() != nil {
				e.logger.Info("dropping late question", zap.String("question", q.Text))
				return ctx.Err()
			}

			kind, err := e.session.AcceptQuestion(q.Text)
			if err != nil {
				e.logger.Info("dropping late question", zap.String("question", q.Text), zap.Error(err))
				continue
			}
			q.Type = kind

			select {
			case e.questions <- q:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (e *Engine) generate(ctx context.Context, d Directive) Question {
	q := Question{Stage: d.Stage, Level: d.Level}

	if e.generator != nil {
		e.logger.Debug("question generation request",
			zap.Int("directive_length", utf8.RuneCountInString(d.Text)),
			zap.String("directive_preview", utils.TruncateForLog(d.Text, e.maxLogLen)),
		)

		start := time.Now()
		raw, err := e.generator.GenerateContent(ctx, interviewerSystem, d.Text)
		e.metrics.GenerationFinished(time.Since(start), err)

		if err == nil {
			e.logger.Debug("question generation response",
				zap.Int("response_length", utf8.RuneCountInString(raw)),
				zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
			)
			if q.Text = ExtractQuestion(raw); strings.TrimSpace(q.Text) != "" {
				return q
			}
			e.logger.Warn("generated response has no question, using fallback")
		} else if ctx.Err() == nil {
			e.logger.Warn("question generation failed, using fallback", zap.Error(err))
		}
	}

	if ctx.Err() != nil {
		return q
	}

	q.Text = e.session.FallbackQuestion()
	q.Fallback = true
	e.metrics.FallbackUsed(FallbackQuestion)
	return q
}
