package domain

import (
	"errors"
	"testing"
)

func TestQuizValidate(t *testing.T) {
	valid := Question{Prompt: "2 + 2?", Options: []string{"3", "4"}, CorrectOption: "4"}

	cases := []struct {
		name string
		quiz Quiz
		ok   bool
	}{
		{"valid", Quiz{ID: "q", Questions: []Question{valid}}, true},
		{"empty", Quiz{ID: "q"}, false},
		{"correct missing", Quiz{Questions: []Question{{Prompt: "p", Options: []string{"a", "b"}, CorrectOption: "c"}}}, false},
		{"duplicate option", Quiz{Questions: []Question{{Prompt: "p", Options: []string{"a", "a"}, CorrectOption: "a"}}}, false},
		{"one option", Quiz{Questions: []Question{{Prompt: "p", Options: []string{"a"}, CorrectOption: "a"}}}, false},
		{"five options", Quiz{Questions: []Question{{Prompt: "p", Options: []string{"a", "b", "c", "d", "e"}, CorrectOption: "a"}}}, false},
		{"empty prompt", Quiz{Questions: []Question{{Options: []string{"a", "b"}, CorrectOption: "a"}}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.quiz.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid quiz, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidQuiz) {
				t.Fatalf("expected ErrInvalidQuiz, got %v", err)
			}
		})
	}
}
