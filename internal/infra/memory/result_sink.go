package memory

import (
	"context"
	"sync"

	"timed-quiz-service/internal/domain"
)

// ResultSink keeps submitted results in memory, deduplicated by submission id.
type ResultSink struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	results []domain.Result
}

func NewResultSink() *ResultSink {
	return &ResultSink{seen: make(map[string]struct{})}
}

func (s *ResultSink) Submit(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[result.SubmissionID]; dup {
		return nil
	}
	s.seen[result.SubmissionID] = struct{}{}
	s.results = append(s.results, result)
	return nil
}

// Results returns the stored results for a quiz in submission order.
func (s *ResultSink) Results(quizID string) []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Result
	for _, r := range s.results {
		if r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out
}

// PreferenceStore keeps user preferences in memory.
type PreferenceStore struct {
	mu      sync.RWMutex
	volumes map[string]int
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{volumes: make(map[string]int)}
}

func (p *PreferenceStore) GetVolume(_ context.Context, userID string) (int, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.volumes[userID]
	return v, ok, nil
}

func (p *PreferenceStore) SetVolume(_ context.Context, userID string, volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes[userID] = volume
	return nil
}
