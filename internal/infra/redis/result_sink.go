package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
)

// ResultSink stores results in Redis. The submission id is claimed with SETNX so a retried
// submission is accepted without being recorded twice.
//
//	SET   quiz:result:{submissionID} {json} NX
//	RPUSH quiz:{quizID}:results {submissionID}
type ResultSink struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultSink(client *redis.Client, ttl time.Duration) *ResultSink {
	return &ResultSink{client: client, ttl: ttl}
}

func (s *ResultSink) Submit(ctx context.Context, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	created, err := s.client.SetNX(ctx, s.resultKey(result.SubmissionID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmitFailed, err)
	}
	if !created {
		return nil
	}
	if err := s.client.RPush(ctx, s.listKey(result.QuizID), result.SubmissionID).Err(); err != nil {
		// Release the claim so a retry re-runs both writes.
		_ = s.client.Del(ctx, s.resultKey(result.SubmissionID)).Err()
		return fmt.Errorf("%w: %v", domain.ErrSubmitFailed, err)
	}
	return nil
}

// Results returns a quiz's results in submission order.
func (s *ResultSink) Results(ctx context.Context, quizID string) ([]domain.Result, error) {
	ids, err := s.client.LRange(ctx, s.listKey(quizID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Result, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.resultKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var r domain.Result
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", id, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *ResultSink) resultKey(submissionID string) string {
	return "quiz:result:" + submissionID
}

func (s *ResultSink) listKey(quizID string) string {
	return "quiz:" + quizID + ":results"
}

// PreferenceStore keeps per-user settings in a Redis hash: HSET quiz:prefs:{userID} volume {n}
type PreferenceStore struct {
	client *redis.Client
}

func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func (p *PreferenceStore) GetVolume(ctx context.Context, userID string) (int, bool, error) {
	raw, err := p.client.HGet(ctx, p.key(userID), "volume").Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil
	}
	return v, true, nil
}

func (p *PreferenceStore) SetVolume(ctx context.Context, userID string, volume int) error {
	return p.client.HSet(ctx, p.key(userID), "volume", volume).Err()
}

func (p *PreferenceStore) key(userID string) string {
	return "quiz:prefs:" + userID
}
