package postgres

import (
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestQuizResultRowKeepsOutcomes(t *testing.T) {
	picked := "b"
	in := domain.Result{
		SubmissionID:   "sub-1",
		QuizID:         "quiz-1",
		UserID:         "u1",
		TotalScore:     1550,
		TotalQuestions: 2,
		MaxStreak:      1,
		Abandoned:      true,
		CompletedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Answers: []domain.AnswerRecord{
			{QuestionIndex: 0, SelectedOption: &picked, IsCorrect: true, ScoreAwarded: 1550, TimeLeftAtAnswer: 18},
			{QuestionIndex: 1, SelectedOption: nil, TimeLeftAtAnswer: 0},
		},
	}

	row, err := newQuizResult(in)
	if err != nil {
		t.Fatalf("row: %v", err)
	}
	out, err := row.domain()
	if err != nil {
		t.Fatalf("domain: %v", err)
	}
	if out.SubmissionID != in.SubmissionID || out.TotalScore != in.TotalScore || !out.Abandoned || !out.CompletedAt.Equal(in.CompletedAt) {
		t.Fatalf("unexpected result %+v", out)
	}
	if len(out.Answers) != 2 || out.Answers[0].SelectedOption == nil || *out.Answers[0].SelectedOption != "b" {
		t.Fatalf("unexpected answers %+v", out.Answers)
	}
	if out.Answers[1].SelectedOption != nil {
		t.Fatalf("timeout answer must keep a null selection")
	}
}
