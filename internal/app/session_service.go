package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/engine"
	"timed-quiz-service/internal/scoring"
)

// SessionRepository abstracts where running sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	// GetOrCreate returns the session under key, calling create when there is none.
	GetOrCreate(key string, create func() (*Session, error)) (*Session, bool, error)
	Get(key string) (*Session, bool)
	Delete(key string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// PreferenceStore keeps per-user settings that outlive a session.
type PreferenceStore interface {
	GetVolume(ctx context.Context, userID string) (int, bool, error)
	SetVolume(ctx context.Context, userID string, volume int) error
}

// Options wires a SessionService.
type Options struct {
	Sessions      SessionRepository
	Quizzes       QuizRepository
	Results       engine.ResultSink
	Preferences   PreferenceStore
	Cues          engine.CuePlayer
	Engine        engine.Config
	Scoring       scoring.Config
	Loop          engine.LoopOptions
	DefaultVolume int
	Logger        *slog.Logger
}

// SessionService starts and routes intents to per-user quiz sessions.
type SessionService struct {
	sessions      SessionRepository
	quizzes       QuizRepository
	results       engine.ResultSink
	prefs         PreferenceStore
	cues          engine.CuePlayer
	engineCfg     engine.Config
	scorer        *scoring.Engine
	loopOpts      engine.LoopOptions
	defaultVolume int
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSessionService(opts Options) (*SessionService, error) {
	if opts.Sessions == nil || opts.Quizzes == nil || opts.Results == nil || opts.Preferences == nil {
		return nil, errors.New("session service: sessions, quizzes, results and preferences are required")
	}
	scorer, err := scoring.NewEngine(opts.Scoring)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Loop.Logger == nil {
		opts.Loop.Logger = opts.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionService{
		sessions:      opts.Sessions,
		quizzes:       opts.Quizzes,
		results:       opts.Results,
		prefs:         opts.Preferences,
		cues:          opts.Cues,
		engineCfg:     opts.Engine,
		scorer:        scorer,
		loopOpts:      opts.Loop,
		defaultVolume: audio.ClampVolume(opts.DefaultVolume),
		logger:        opts.Logger,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// OwnerKey identifies the one session a user may run per quiz.
func OwnerKey(quizID, userID string) string {
	return quizID + "/" + userID
}

// Start begins a session for userID on quizID, or returns the unfinished one already running.
// The bool result reports whether an existing session was resumed. Each call attaches one client
// until the matching Leave.
func (s *SessionService) Start(ctx context.Context, quizID, userID string) (*Session, bool, error) {
	key := OwnerKey(quizID, userID)
	if existing, ok := s.sessions.Get(key); ok {
		if !existing.Finished() {
			existing.attached.Add(1)
			return existing, true, nil
		}
		s.drop(key, existing)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, false, err
	}
	volume := s.volumeFor(ctx, userID)

	session, existed, err := s.sessions.GetOrCreate(key, func() (*Session, error) {
		return s.newSession(quiz, userID, volume)
	})
	if err != nil {
		return nil, false, err
	}
	if !existed {
		s.run(session)
	}
	session.attached.Add(1)
	return session, existed, nil
}

func (s *SessionService) newSession(quiz domain.Quiz, userID string, volume int) (*Session, error) {
	id := uuid.NewString()
	e, err := engine.New(s.engineCfg, quiz, engine.Identity{SessionID: id, UserID: userID}, volume, engine.Deps{
		Scorer: s.scorer,
		Sink:   s.results,
		Cues:   s.cues,
		Logger: s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return newSession(id, quiz.ID, userID, engine.NewLoop(e, s.loopOpts)), nil
}

func (s *SessionService) run(session *Session) {
	ctx, cancel := context.WithCancel(s.ctx)
	session.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := session.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("session loop exited", "session", session.ID, "error", err)
		}
		// A result submission may still be talking to the sink.
		session.loop.Wait()
	}()
}

// Get returns the running session for a user and quiz.
func (s *SessionService) Get(quizID, userID string) (*Session, error) {
	session, ok := s.sessions.Get(OwnerKey(quizID, userID))
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Dispatch forwards an intent to the user's session. Volume changes are also remembered for
// the user's next sessions.
func (s *SessionService) Dispatch(ctx context.Context, quizID, userID string, ev engine.Event) error {
	session, err := s.Get(quizID, userID)
	if err != nil {
		return err
	}
	if _, ok := ev.(engine.RetrySubmit); ok && session.Snapshot().State.Submitted {
		return domain.ErrAlreadySubmitted
	}
	if sv, ok := ev.(engine.SetVolume); ok {
		sv.Volume = audio.ClampVolume(sv.Volume)
		ev = sv
		if err := s.prefs.SetVolume(ctx, userID, sv.Volume); err != nil {
			s.logger.Warn("failed to store volume preference", "user", userID, "error", err)
		}
	}
	return session.loop.Post(ctx, ev)
}

// Leave is called when one of the user's clients goes away. Once the last client has left, running
// sessions are paused so they can be resumed and finished ones are dropped.
func (s *SessionService) Leave(ctx context.Context, quizID, userID string) {
	key := OwnerKey(quizID, userID)
	session, ok := s.sessions.Get(key)
	if !ok {
		return
	}
	if session.attached.Add(-1) > 0 {
		return
	}
	session.attached.Store(0)
	if session.Finished() {
		s.drop(key, session)
		return
	}
	if err := session.loop.Post(ctx, engine.Pause{}); err != nil {
		s.logger.Debug("pause on leave failed", "session", session.ID, "error", err)
	}
}

// Close stops every session loop and waits for in-flight result submissions.
func (s *SessionService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *SessionService) drop(key string, session *Session) {
	s.sessions.Delete(key)
	session.stop()
}

func (s *SessionService) volumeFor(ctx context.Context, userID string) int {
	v, ok, err := s.prefs.GetVolume(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load volume preference", "user", userID, "error", err)
		return s.defaultVolume
	}
	if !ok {
		return s.defaultVolume
	}
	return v
}

// Session is a running quiz owned by one user.
type Session struct {
	ID     string
	QuizID string
	UserID string

	loop     *engine.Loop
	cancel   context.CancelFunc
	attached atomic.Int32
}

func newSession(id, quizID, userID string, loop *engine.Loop) *Session {
	return &Session{ID: id, QuizID: quizID, UserID: userID, loop: loop}
}

// Snapshot returns the current read model.
func (s *Session) Snapshot() engine.View {
	return s.loop.Snapshot()
}

// Subscribe returns session notifications; the caller must invoke cancel.
func (s *Session) Subscribe() (<-chan engine.Notification, func()) {
	return s.loop.Subscribe()
}

// Finished reports whether the session completed and its result was persisted.
func (s *Session) Finished() bool {
	st := s.loop.Snapshot().State
	return st.Phase == domain.PhaseCompleted && st.Submitted
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.loop.Wait()
}
