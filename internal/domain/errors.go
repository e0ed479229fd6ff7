package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when a quiz definition fails validation at load time.
	ErrInvalidQuiz = errors.New("invalid quiz definition")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionExists is returned when a user already runs a session for the quiz.
	ErrSessionExists = errors.New("quiz session already running")
	// ErrSubmitFailed wraps result-sink failures; the session keeps its data and may retry.
	ErrSubmitFailed = errors.New("result submission failed")
	// ErrAlreadySubmitted indicates the session result has been persisted already.
	ErrAlreadySubmitted = errors.New("result already submitted")
)
