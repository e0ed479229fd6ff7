package engine

import (
	"context"
	"time"

	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/domain"
)

// Event is anything the state machine consumes. Events are handled strictly one at a time.
type Event interface {
	event()
}

type (
	// Tick is produced once per second by the loop's ticker.
	Tick struct{}
	// Select picks an answer for the current question.
	Select struct{ Option string }
	// Timeout is enqueued by the countdown when it expires.
	Timeout struct{ Question, Generation int }
	// Advance is the scheduled end of the feedback phase.
	Advance struct{ Question, Generation int }
	// Next ends the feedback phase early.
	Next   struct{}
	Pause  struct{}
	Resume struct{}
	// Restart resets the session to its first question. Only honoured while paused.
	Restart struct{}
	// SaveAndQuit abandons the session and persists the partial result. Only honoured while paused.
	SaveAndQuit struct{}
	// Eliminate hides some incorrect options of the current question.
	Eliminate struct{}
	// Freeze suspends the countdown for a few ticks.
	Freeze    struct{}
	SetVolume struct{ Volume int }
	// RetrySubmit re-sends a result whose submission failed.
	RetrySubmit struct{}

	submitDone struct {
		submissionID string
		err          error
	}
)

func (Tick) event()        {}
func (Select) event()      {}
func (Timeout) event()     {}
func (Advance) event()     {}
func (Next) event()        {}
func (Pause) event()       {}
func (Resume) event()      {}
func (Restart) event()     {}
func (SaveAndQuit) event() {}
func (Eliminate) event()   {}
func (Freeze) event()      {}
func (SetVolume) event()   {}
func (RetrySubmit) event() {}
func (submitDone) event()  {}

// Scheduler feeds deferred work back into the engine's event queue.
type Scheduler interface {
	// After enqueues ev once d has elapsed (d == 0 enqueues behind already queued events).
	After(d time.Duration, ev Event)
	// Go runs fn off the event loop and enqueues the event it returns.
	Go(fn func(ctx context.Context) Event)
	// RestartTicker makes the next tick arrive a full period from now.
	RestartTicker()
}

// ResultSink persists a finished or abandoned session. Submit must be safe to retry with the same result.
type ResultSink interface {
	Submit(ctx context.Context, result domain.Result) error
}

// CuePlayer plays sound cues without blocking.
type CuePlayer interface {
	Play(cue audio.Cue, volume int)
}

// NotificationType tags a Notification.
type NotificationType string

const (
	NoteState       NotificationType = "state"
	NoteTick        NotificationType = "tick"
	NoteCue         NotificationType = "cue"
	NoteTransition  NotificationType = "transition"
	NoteCombo       NotificationType = "combo"
	NoteFeedback    NotificationType = "feedback"
	NoteCompleted   NotificationType = "completed"
	NoteSubmitted   NotificationType = "submitted"
	NoteSubmitError NotificationType = "submitError"
)

// Notification is a side-effect signal for the presentation layer.
type Notification struct {
	Type    NotificationType `json:"type"`
	Payload any              `json:"payload"`
}

type TickPayload struct {
	TimeLeft int  `json:"timeLeft"`
	Frozen   bool `json:"frozen"`
}

type CuePayload struct {
	Cue    audio.Cue `json:"cue"`
	Volume int       `json:"volume"`
}

type TransitionPayload struct {
	Effect        string `json:"effect"`
	QuestionIndex int    `json:"questionIndex"`
}

type ComboPayload struct {
	Tier   string `json:"tier"`
	Streak int    `json:"streak"`
	Bonus  int    `json:"bonus"`
}

type FeedbackPayload struct {
	Record  domain.AnswerRecord `json:"record"`
	Options []OptionView        `json:"options"`
}

type CompletedPayload struct {
	Result domain.Result `json:"result"`
}

type SubmitErrorPayload struct {
	Message string `json:"message"`
}
