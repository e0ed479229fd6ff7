package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"timed-quiz-service/internal/domain"
)

// QuizResult is the quiz_results row.
type QuizResult struct {
	bun.BaseModel `bun:"table:quiz_results"`

	SubmissionID   string          `bun:"submission_id,pk"`
	QuizID         string          `bun:"quiz_id,notnull"`
	UserID         string          `bun:"user_id,notnull"`
	TotalScore     int             `bun:"total_score,notnull"`
	TotalQuestions int             `bun:"total_questions,notnull"`
	MaxStreak      int             `bun:"max_streak,notnull"`
	Abandoned      bool            `bun:"abandoned,notnull"`
	Answers        json.RawMessage `bun:"answers,type:jsonb,notnull"`
	CompletedAt    time.Time       `bun:"completed_at,notnull"`
}

func newQuizResult(r domain.Result) (*QuizResult, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, err
	}
	return &QuizResult{
		SubmissionID:   r.SubmissionID,
		QuizID:         r.QuizID,
		UserID:         r.UserID,
		TotalScore:     r.TotalScore,
		TotalQuestions: r.TotalQuestions,
		MaxStreak:      r.MaxStreak,
		Abandoned:      r.Abandoned,
		Answers:        answers,
		CompletedAt:    r.CompletedAt,
	}, nil
}

func (m *QuizResult) domain() (domain.Result, error) {
	r := domain.Result{
		SubmissionID:   m.SubmissionID,
		QuizID:         m.QuizID,
		UserID:         m.UserID,
		TotalScore:     m.TotalScore,
		TotalQuestions: m.TotalQuestions,
		MaxStreak:      m.MaxStreak,
		Abandoned:      m.Abandoned,
		CompletedAt:    m.CompletedAt,
	}
	if err := json.Unmarshal(m.Answers, &r.Answers); err != nil {
		return domain.Result{}, fmt.Errorf("decode answers: %w", err)
	}
	return r, nil
}

// ResultSink persists results with bun. The submission id is the primary key, so a retried
// submission is a no-op.
type ResultSink struct {
	db *bun.DB
}

func NewResultSink(db *bun.DB) *ResultSink {
	return &ResultSink{db: db}
}

func (s *ResultSink) Submit(ctx context.Context, result domain.Result) error {
	row, err := newQuizResult(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (submission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmitFailed, err)
	}
	return nil
}

// Results lists a quiz's results, best score first.
func (s *ResultSink) Results(ctx context.Context, quizID string) ([]domain.Result, error) {
	var rows []QuizResult
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		OrderExpr("total_score DESC, completed_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for i := range rows {
		r, err := rows[i].domain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
