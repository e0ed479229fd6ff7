package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrLoopStopped is returned when posting to a loop that has exited.
var ErrLoopStopped = errors.New("session loop stopped")

// LoopOptions tunes a Loop.
type LoopOptions struct {
	TickInterval  time.Duration
	QueueSize     int
	SubmitTimeout time.Duration
	Logger        *slog.Logger
}

// Loop owns an Engine and is the single goroutine allowed to mutate it. Intents, ticks,
// scheduled transitions and submission results all arrive through one queue.
type Loop struct {
	engine        *Engine
	events        chan Event
	tickInterval  time.Duration
	submitTimeout time.Duration
	logger        *slog.Logger

	ticker *time.Ticker // touched only by the loop goroutine
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu          sync.RWMutex
	view        View
	subscribers map[chan Notification]struct{}
}

// NewLoop binds e to a new loop and starts the session on its first question.
func NewLoop(e *Engine, opts LoopOptions) *Loop {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Loop{
		engine:        e,
		events:        make(chan Event, opts.QueueSize),
		tickInterval:  opts.TickInterval,
		submitTimeout: opts.SubmitTimeout,
		logger:        opts.Logger,
		done:          make(chan struct{}),
		subscribers:   make(map[chan Notification]struct{}),
	}
	e.bind(l, l.broadcast)
	e.start()
	l.view = e.View()
	return l
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.ticker = time.NewTicker(l.tickInterval)
	defer l.ticker.Stop()
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ticker.C:
			l.dispatch(Tick{})
		case ev := <-l.events:
			l.dispatch(ev)
		}
	}
}

// Post enqueues an intent. It blocks only while the queue is full.
func (l *Loop) Post(ctx context.Context, ev Event) error {
	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until background submissions started by the loop have finished.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Snapshot returns the view as of the last processed event.
func (l *Loop) Snapshot() View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view
}

// Subscribe returns a channel of notifications, starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (l *Loop) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 32)

	// The initial state goes into the empty buffer before any broadcast can reach ch.
	l.mu.Lock()
	ch <- Notification{Type: NoteState, Payload: l.view}
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *Loop) dispatch(ev Event) {
	l.engine.Handle(ev)
	view := l.engine.View()

	l.mu.Lock()
	l.view = view
	l.mu.Unlock()
	l.broadcast(Notification{Type: NoteState, Payload: view})
}

func (l *Loop) broadcast(n Notification) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for ch := range l.subscribers {
		select {
		case ch <- n:
		default:
			// Slow subscriber: drop its oldest notification to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- n:
			default:
			}
		}
	}
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, ev Event) {
	time.AfterFunc(d, func() {
		select {
		case l.events <- ev:
		case <-l.done:
		}
	})
}

// Go implements Scheduler. The work gets its own deadline so a result is still persisted
// when the session owner goes away mid-submission.
func (l *Loop) Go(fn func(ctx context.Context) Event) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.submitTimeout)
		defer cancel()
		ev := fn(ctx)
		select {
		case l.events <- ev:
		case <-l.done:
			l.logger.Debug("dropping event after loop exit")
		}
	}()
}

// RestartTicker implements Scheduler.
func (l *Loop) RestartTicker() {
	if l.ticker == nil {
		return
	}
	l.ticker.Reset(l.tickInterval)
	select {
	case <-l.ticker.C:
	default:
	}
}
