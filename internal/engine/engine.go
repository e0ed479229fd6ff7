// Package engine runs a single user's timed quiz: countdown, answer resolution, scoring,
// power-ups and result submission, driven by one event at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/scoring"
	"timed-quiz-service/internal/transition"
)

// Config holds the session timing and power-up constants.
type Config struct {
	PerQuestionSeconds int
	WarningSeconds     int
	FeedbackDelay      time.Duration
	EliminateCount     int
	FreezeSeconds      int
	FreezeCharges      int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PerQuestionSeconds: 20,
		WarningSeconds:     10,
		FeedbackDelay:      1200 * time.Millisecond,
		EliminateCount:     1,
		FreezeSeconds:      5,
		FreezeCharges:      1,
	}
}

func (c Config) validate() error {
	if c.PerQuestionSeconds < 1 {
		return fmt.Errorf("engine: per question seconds must be positive, got %d", c.PerQuestionSeconds)
	}
	if c.FeedbackDelay < 0 {
		return fmt.Errorf("engine: negative feedback delay")
	}
	return nil
}

// Identity names the session and its owner.
type Identity struct {
	SessionID string
	UserID    string
}

// Deps are the collaborators of an Engine. Scorer and Sink are required.
type Deps struct {
	Scorer *scoring.Engine
	Sink   ResultSink
	Cues   CuePlayer
	Rand   *rand.Rand
	Logger *slog.Logger
	Clock  func() time.Time
	NewID  func() string
}

// View is the read model handed to the presentation layer.
type View struct {
	State   domain.SessionState `json:"state"`
	Prompt  string              `json:"prompt,omitempty"`
	Options []OptionView        `json:"options,omitempty"`
}

// Engine is the session state machine. It is not safe for concurrent use: a Loop (or a test)
// owns it and feeds it events sequentially.
type Engine struct {
	cfg    Config
	quiz   domain.Quiz
	scorer *scoring.Engine
	sink   ResultSink
	cues   CuePlayer
	rnd    *rand.Rand
	picker *transition.Picker
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	sched  Scheduler
	notify func(Notification)

	state      domain.SessionState
	countdown  *Countdown
	options    *OptionSet
	selected   *string
	generation int
	result     *domain.Result
}

// New validates quiz and builds an engine. The session starts once a scheduler is bound (see NewLoop).
func New(cfg Config, quiz domain.Quiz, id Identity, volume int, deps Deps) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	if deps.Scorer == nil || deps.Sink == nil {
		return nil, fmt.Errorf("engine: scorer and result sink are required")
	}
	if deps.Cues == nil {
		deps.Cues = muted{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	e := &Engine{
		cfg:       cfg,
		quiz:      quiz,
		scorer:    deps.Scorer,
		sink:      deps.Sink,
		cues:      deps.Cues,
		rnd:       deps.Rand,
		picker:    transition.NewPicker(deps.Rand),
		logger:    deps.Logger.With("session", id.SessionID, "quiz", quiz.ID, "user", id.UserID),
		now:       deps.Clock,
		newID:     deps.NewID,
		notify:    func(Notification) {},
		countdown: NewCountdown(cfg.PerQuestionSeconds, cfg.WarningSeconds),
		state: domain.SessionState{
			SessionID:      id.SessionID,
			QuizID:         quiz.ID,
			UserID:         id.UserID,
			TotalQuestions: len(quiz.Questions),
			Volume:         audio.ClampVolume(volume),
		},
	}
	return e, nil
}

func (e *Engine) bind(sched Scheduler, notify func(Notification)) {
	e.sched = sched
	if notify != nil {
		e.notify = notify
	}
}

// start (re)initialises every session field except volume and opens the first question.
func (e *Engine) start() {
	e.generation++
	volume := e.state.Volume
	e.state = domain.SessionState{
		SessionID:      e.state.SessionID,
		QuizID:         e.state.QuizID,
		UserID:         e.state.UserID,
		TotalQuestions: len(e.quiz.Questions),
		Phase:          domain.PhaseActive,
		Volume:         volume,
		FreezeCharges:  e.cfg.FreezeCharges,
		AnswersLog:     []domain.AnswerRecord{},
	}
	e.result = nil
	e.beginQuestion(0)
	e.logger.Info("session started", "questions", len(e.quiz.Questions), "generation", e.generation)
}

func (e *Engine) beginQuestion(i int) {
	e.state.CurrentIndex = i
	e.state.Phase = domain.PhaseActive
	e.countdown.Reset()
	e.state.TimeLeftSeconds = e.countdown.Remaining()
	e.state.IsFrozen = false
	e.options = NewOptionSet(e.quiz.Questions[i])
	e.state.EliminatedOptions = nil
	e.state.EliminationUsed = false
	e.selected = nil

	effect := e.picker.Pick()
	e.state.Transition = string(effect)
	e.notify(Notification{Type: NoteTransition, Payload: TransitionPayload{Effect: string(effect), QuestionIndex: i}})
	e.sched.RestartTicker()
}

// Handle applies a single event. Events that do not fit the current phase are dropped.
func (e *Engine) Handle(ev Event) {
	switch ev := ev.(type) {
	case Tick:
		e.tick()
	case Select:
		e.selectOption(ev.Option)
	case Timeout:
		e.timeout(ev)
	case Advance:
		if e.state.Phase == domain.PhaseFeedback && ev.Question == e.state.CurrentIndex && ev.Generation == e.generation {
			e.advance()
		}
	case Next:
		if e.state.Phase == domain.PhaseFeedback {
			e.advance()
		}
	case Pause:
		if e.state.Phase == domain.PhaseActive {
			e.state.Phase = domain.PhasePaused
			e.logger.Debug("paused", "question", e.state.CurrentIndex, "timeLeft", e.state.TimeLeftSeconds)
		}
	case Resume:
		e.resume()
	case Restart:
		if e.state.Phase == domain.PhasePaused {
			e.start()
		}
	case SaveAndQuit:
		if e.state.Phase == domain.PhasePaused {
			e.complete(true)
		}
	case Eliminate:
		e.eliminate()
	case Freeze:
		e.freeze()
	case SetVolume:
		e.state.Volume = audio.ClampVolume(ev.Volume)
	case RetrySubmit:
		if e.state.Phase == domain.PhaseCompleted {
			e.submit()
		}
	case submitDone:
		e.submitted(ev)
	default:
		e.logger.Debug("ignored unknown event", "event", fmt.Sprintf("%T", ev))
	}
}

func (e *Engine) tick() {
	if e.state.Phase != domain.PhaseActive {
		return
	}
	r := e.countdown.Tick()
	e.state.TimeLeftSeconds = e.countdown.Remaining()
	e.state.IsFrozen = e.countdown.Frozen()
	e.notify(Notification{Type: NoteTick, Payload: TickPayload{TimeLeft: e.state.TimeLeftSeconds, Frozen: e.state.IsFrozen}})

	if r.Warning {
		e.play(audio.CueTick)
	}
	if r.Expired {
		e.sched.After(0, Timeout{Question: e.state.CurrentIndex, Generation: e.generation})
	}
}

func (e *Engine) timeout(ev Timeout) {
	if e.state.Phase != domain.PhaseActive || ev.Question != e.state.CurrentIndex || ev.Generation != e.generation {
		return
	}
	if !e.countdown.Expired() {
		return
	}
	e.answer(nil)
}

func (e *Engine) selectOption(opt string) {
	if e.state.Phase != domain.PhaseActive {
		e.logger.Debug("selection ignored", "phase", e.state.Phase)
		return
	}
	if !e.options.CanSelect(opt) {
		e.logger.Debug("selection ignored", "option", opt)
		return
	}
	e.answer(&opt)
}

func (e *Engine) answer(selected *string) {
	idx := e.state.CurrentIndex
	question := e.quiz.Questions[idx]
	before := e.state.Streak
	timeLeft := e.countdown.Remaining()

	out := e.scorer.Score(scoring.Input{
		Selected:           selected,
		Correct:            question.CorrectOption,
		TimeLeftSeconds:    timeLeft,
		StreakBeforeAnswer: before,
	})
	record := domain.AnswerRecord{
		QuestionIndex:    idx,
		SelectedOption:   selected,
		IsCorrect:        out.IsCorrect,
		ScoreAwarded:     out.ScoreAwarded,
		TimeLeftAtAnswer: timeLeft,
	}
	e.state.AnswersLog = append(e.state.AnswersLog, record)
	e.state.Streak = out.StreakAfterAnswer
	e.state.TotalScore += out.ScoreAwarded
	if e.state.Streak > e.state.MaxStreak {
		e.state.MaxStreak = e.state.Streak
	}
	e.state.Phase = domain.PhaseFeedback
	e.state.IsFrozen = false
	e.selected = selected

	e.logger.Debug("answered", "question", idx, "correct", out.IsCorrect, "awarded", out.ScoreAwarded, "streak", e.state.Streak)

	if out.IsCorrect {
		e.play(audio.CueCorrect)
	} else {
		e.play(audio.CueWrong)
	}
	if tier, ok := e.scorer.TierCrossed(before, out.StreakAfterAnswer); ok {
		e.play(audio.CueCombo)
		e.notify(Notification{Type: NoteCombo, Payload: ComboPayload{Tier: tier.Name, Streak: out.StreakAfterAnswer, Bonus: tier.Bonus}})
	}
	e.notify(Notification{Type: NoteFeedback, Payload: FeedbackPayload{Record: record, Options: e.options.View(true, selected)}})

	e.sched.After(e.cfg.FeedbackDelay, Advance{Question: idx, Generation: e.generation})
}

func (e *Engine) advance() {
	next := e.state.CurrentIndex + 1
	if next < len(e.quiz.Questions) {
		e.beginQuestion(next)
		return
	}
	e.complete(false)
}

func (e *Engine) resume() {
	if e.state.Phase != domain.PhasePaused {
		return
	}
	e.state.Phase = domain.PhaseActive
	e.sched.RestartTicker()
	// The clock may have run out just before the pause swallowed the timeout.
	if e.countdown.Expired() {
		e.sched.After(0, Timeout{Question: e.state.CurrentIndex, Generation: e.generation})
	}
}

func (e *Engine) eliminate() {
	if e.state.Phase != domain.PhaseActive {
		return
	}
	if removed := e.options.Eliminate(e.cfg.EliminateCount, e.rnd); len(removed) > 0 {
		e.state.EliminatedOptions = removed
		e.state.EliminationUsed = true
		e.play(audio.CuePowerUp)
	}
}

func (e *Engine) freeze() {
	if e.state.Phase != domain.PhaseActive || e.state.FreezeCharges <= 0 {
		return
	}
	if e.countdown.Freeze(e.cfg.FreezeSeconds) {
		e.state.FreezeCharges--
		e.state.IsFrozen = true
		e.play(audio.CuePowerUp)
	}
}

func (e *Engine) complete(abandoned bool) {
	e.state.Phase = domain.PhaseCompleted
	e.state.IsFrozen = false
	e.result = &domain.Result{
		SubmissionID:   e.newID(),
		QuizID:         e.state.QuizID,
		UserID:         e.state.UserID,
		TotalScore:     e.state.TotalScore,
		TotalQuestions: len(e.quiz.Questions),
		Answers:        append([]domain.AnswerRecord(nil), e.state.AnswersLog...),
		MaxStreak:      e.state.MaxStreak,
		Abandoned:      abandoned,
		CompletedAt:    e.now(),
	}
	e.logger.Info("session completed", "score", e.state.TotalScore, "answered", len(e.state.AnswersLog), "abandoned", abandoned)
	e.play(audio.CueResults)
	e.notify(Notification{Type: NoteCompleted, Payload: CompletedPayload{Result: *e.result}})
	e.submit()
}

// submit hands the pending result to the sink. A single submission is in flight at a time.
func (e *Engine) submit() {
	if e.result == nil || e.state.Submitting || e.state.Submitted {
		return
	}
	e.state.Submitting = true
	e.state.SubmitError = ""
	result := *e.result
	sink := e.sink
	e.sched.Go(func(ctx context.Context) Event {
		return submitDone{submissionID: result.SubmissionID, err: sink.Submit(ctx, result)}
	})
}

func (e *Engine) submitted(ev submitDone) {
	if e.result == nil || ev.submissionID != e.result.SubmissionID {
		return
	}
	e.state.Submitting = false
	if ev.err != nil {
		e.state.SubmitError = ev.err.Error()
		e.logger.Warn("result submission failed", "submission", ev.submissionID, "error", ev.err)
		e.notify(Notification{Type: NoteSubmitError, Payload: SubmitErrorPayload{Message: ev.err.Error()}})
		return
	}
	e.state.Submitted = true
	e.logger.Info("result submitted", "submission", ev.submissionID)
	e.notify(Notification{Type: NoteSubmitted, Payload: CompletedPayload{Result: *e.result}})
}

func (e *Engine) play(cue audio.Cue) {
	e.cues.Play(cue, e.state.Volume)
	e.notify(Notification{Type: NoteCue, Payload: CuePayload{Cue: cue, Volume: e.state.Volume}})
}

// SubmitErr reports the last persistence failure, wrapped in domain.ErrSubmitFailed.
func (e *Engine) SubmitErr() error {
	if e.state.SubmitError == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrSubmitFailed, e.state.SubmitError)
}

// Result returns the pending or submitted result once the session has completed.
func (e *Engine) Result() (domain.Result, bool) {
	if e.result == nil {
		return domain.Result{}, false
	}
	return *e.result, true
}

// View returns a deep copy of the session read model.
func (e *Engine) View() View {
	st := e.state
	st.AnswersLog = append([]domain.AnswerRecord(nil), e.state.AnswersLog...)
	st.AnsweredCount = len(st.AnswersLog)
	st.EliminatedOptions = append([]string(nil), e.state.EliminatedOptions...)

	v := View{State: st}
	if st.Phase != domain.PhaseCompleted && e.options != nil {
		v.Prompt = e.quiz.Questions[st.CurrentIndex].Prompt
		v.Options = e.options.View(st.Phase == domain.PhaseFeedback, e.selected)
	}
	return v
}

type muted struct{}

func (muted) Play(audio.Cue, int) {}
