package domain

import (
	"fmt"
	"time"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

// Question models a multiple-choice question with exactly one correct option.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// Quiz is an ordered collection of questions. It is treated as immutable once a session starts.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// Validate checks the structural rules a quiz must satisfy before a session may start.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", ErrInvalidQuiz, q.ID)
	}
	for i, question := range q.Questions {
		if err := question.validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuiz, i, err)
		}
	}
	return nil
}

func (q Question) validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return fmt.Errorf("expected %d-%d options, got %d", MinOptions, MaxOptions, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[q.CorrectOption]; !ok {
		return fmt.Errorf("correct option %q not among options", q.CorrectOption)
	}
	return nil
}

// Phase is the coarse state of a running session.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseFeedback  Phase = "feedback"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
)

// AnswerRecord is the outcome of one question. SelectedOption is nil on timeout.
type AnswerRecord struct {
	QuestionIndex    int     `json:"questionIndex"`
	SelectedOption   *string `json:"selectedOption"`
	IsCorrect        bool    `json:"isCorrect"`
	ScoreAwarded     int     `json:"scoreAwarded"`
	TimeLeftAtAnswer int     `json:"timeLeftAtAnswer"`
}

// SessionState is the read model of a single user's run through a quiz. AnsweredCount mirrors
// len(AnswersLog), which already includes the current question during feedback.
type SessionState struct {
	SessionID string `json:"sessionId"`
	QuizID    string `json:"quizId"`
	UserID    string `json:"userId"`

	CurrentIndex      int            `json:"currentIndex"`
	TotalQuestions    int            `json:"totalQuestions"`
	Phase             Phase          `json:"phase"`
	TimeLeftSeconds   int            `json:"timeLeftSeconds"`
	IsFrozen          bool           `json:"isFrozen"`
	Streak            int            `json:"streak"`
	MaxStreak         int            `json:"maxStreak"`
	TotalScore        int            `json:"totalScore"`
	EliminatedOptions []string       `json:"eliminatedOptions"`
	EliminationUsed   bool           `json:"eliminationUsed"`
	FreezeCharges     int            `json:"freezeCharges"`
	AnswersLog        []AnswerRecord `json:"answersLog"`
	AnsweredCount     int            `json:"answeredCount"`
	Volume            int            `json:"volume"`
	Transition        string         `json:"transition,omitempty"`

	Submitting  bool   `json:"submitting"`
	Submitted   bool   `json:"submitted"`
	SubmitError string `json:"submitError,omitempty"`
}

// Result is the payload handed to the result sink on completion or save-and-quit.
type Result struct {
	SubmissionID   string         `json:"submissionId"`
	QuizID         string         `json:"quizId"`
	UserID         string         `json:"userId"`
	TotalScore     int            `json:"totalScore"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        []AnswerRecord `json:"perQuestionOutcomes"`
	MaxStreak      int            `json:"maxStreak"`
	Abandoned      bool           `json:"abandoned"`
	CompletedAt    time.Time      `json:"completedAt"`
}
