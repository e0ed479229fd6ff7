// Package scoring computes per-answer outcomes from remaining time and streak.
// Everything here is pure: the same input always yields the same Outcome.
package scoring

import (
	"errors"
	"fmt"
)

// Tier is a combo threshold: once the streak reaches Streak, Bonus is added to each correct answer.
type Tier struct {
	Streak int    `yaml:"streak" json:"streak"`
	Bonus  int    `yaml:"bonus" json:"bonus"`
	Name   string `yaml:"name" json:"name"`
}

// Config holds the scoring constants.
type Config struct {
	MinPoints          int    `yaml:"min_points"`
	MaxPoints          int    `yaml:"max_points"`
	PerQuestionSeconds int    `yaml:"per_question_seconds"`
	Tiers              []Tier `yaml:"tiers"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinPoints:          100,
		MaxPoints:          1000,
		PerQuestionSeconds: 20,
		Tiers: []Tier{
			{Streak: 2, Bonus: 100, Name: "combo"},
			{Streak: 5, Bonus: 250, Name: "super combo"},
			{Streak: 10, Bonus: 500, Name: "unstoppable"},
		},
	}
}

// Validate rejects configurations that would break the scoring guarantees.
func (c Config) Validate() error {
	if c.MinPoints < 1 {
		return errors.New("scoring: min points must be at least 1")
	}
	if c.MaxPoints < c.MinPoints {
		return fmt.Errorf("scoring: max points %d below min points %d", c.MaxPoints, c.MinPoints)
	}
	if c.PerQuestionSeconds < 1 {
		return errors.New("scoring: per question seconds must be positive")
	}
	prev := 0
	for _, tier := range c.Tiers {
		if tier.Streak <= prev {
			return fmt.Errorf("scoring: tier thresholds must be ascending, got %d after %d", tier.Streak, prev)
		}
		if tier.Bonus < 0 {
			return fmt.Errorf("scoring: negative bonus for tier %d", tier.Streak)
		}
		prev = tier.Streak
	}
	return nil
}

// Input describes a single answer event. Selected is nil on timeout.
type Input struct {
	Selected           *string
	Correct            string
	TimeLeftSeconds    int
	StreakBeforeAnswer int
}

// Outcome is the result of scoring one answer.
type Outcome struct {
	IsCorrect         bool
	ScoreAwarded      int
	BaseScore         int
	StreakBonus       int
	StreakAfterAnswer int
}

// Engine scores answers with a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine bound to it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score computes the outcome of one answer.
func (e *Engine) Score(in Input) Outcome {
	if in.Selected == nil || *in.Selected != in.Correct {
		return Outcome{}
	}

	streak := in.StreakBeforeAnswer + 1
	base := e.baseScore(in.TimeLeftSeconds)
	bonus := 0
	if tier, ok := e.TierFor(streak); ok {
		bonus = tier.Bonus
	}
	return Outcome{
		IsCorrect:         true,
		ScoreAwarded:      base + bonus,
		BaseScore:         base,
		StreakBonus:       bonus,
		StreakAfterAnswer: streak,
	}
}

// baseScore interpolates linearly between MinPoints (no time left) and MaxPoints (full time left).
func (e *Engine) baseScore(timeLeft int) int {
	if timeLeft < 0 {
		timeLeft = 0
	}
	if timeLeft > e.cfg.PerQuestionSeconds {
		timeLeft = e.cfg.PerQuestionSeconds
	}
	span := e.cfg.MaxPoints - e.cfg.MinPoints
	return e.cfg.MinPoints + span*timeLeft/e.cfg.PerQuestionSeconds
}

// TierFor returns the highest tier reached by streak.
func (e *Engine) TierFor(streak int) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, tier := range e.cfg.Tiers {
		if streak >= tier.Streak {
			best, found = tier, true
		}
	}
	return best, found
}

// TierCrossed reports the tier newly reached when the streak moves from before to after.
func (e *Engine) TierCrossed(before, after int) (Tier, bool) {
	if after <= before {
		return Tier{}, false
	}
	for i := len(e.cfg.Tiers) - 1; i >= 0; i-- {
		tier := e.cfg.Tiers[i]
		if before < tier.Streak && after >= tier.Streak {
			return tier, true
		}
	}
	return Tier{}, false
}
