package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"timed-quiz-service/internal/engine"
	"timed-quiz-service/internal/scoring"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Engine struct {
		PerQuestionSeconds int    `yaml:"per_question_seconds"`
		WarningSeconds     int    `yaml:"warning_seconds"`
		FeedbackDelay      string `yaml:"feedback_delay"`
		EliminateCount     int    `yaml:"eliminate_count"`
		FreezeSeconds      int    `yaml:"freeze_seconds"`
		FreezeCharges      *int   `yaml:"freeze_charges"`
		SubmitTimeout      string `yaml:"submit_timeout"`
	} `yaml:"engine"`
	Scoring struct {
		MinPoints int            `yaml:"min_points"`
		MaxPoints int            `yaml:"max_points"`
		Tiers     []scoring.Tier `yaml:"tiers"`
	} `yaml:"scoring"`
	Audio struct {
		SampleRate int    `yaml:"sample_rate"`
		Device     string `yaml:"device"` // "discard" or "wav"
		Dir        string `yaml:"dir"`
		Volume     int    `yaml:"default_volume"`
	} `yaml:"audio"`
}

// Load reads YAML config from path. A missing file yields the zero config so defaults apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// EngineConfig merges the engine section over engine.DefaultConfig.
func (c Config) EngineConfig() engine.Config {
	out := engine.DefaultConfig()
	e := c.Engine
	if e.PerQuestionSeconds > 0 {
		out.PerQuestionSeconds = e.PerQuestionSeconds
	}
	if e.WarningSeconds > 0 {
		out.WarningSeconds = e.WarningSeconds
	}
	out.FeedbackDelay = TTLDuration(e.FeedbackDelay, out.FeedbackDelay)
	if e.EliminateCount > 0 {
		out.EliminateCount = e.EliminateCount
	}
	if e.FreezeSeconds > 0 {
		out.FreezeSeconds = e.FreezeSeconds
	}
	if e.FreezeCharges != nil {
		out.FreezeCharges = *e.FreezeCharges
	}
	return out
}

// ScoringConfig merges the scoring section over scoring.DefaultConfig. The countdown range always
// follows the engine's per-question time.
func (c Config) ScoringConfig() scoring.Config {
	out := scoring.DefaultConfig()
	if c.Scoring.MinPoints > 0 {
		out.MinPoints = c.Scoring.MinPoints
	}
	if c.Scoring.MaxPoints > 0 {
		out.MaxPoints = c.Scoring.MaxPoints
	}
	if len(c.Scoring.Tiers) > 0 {
		out.Tiers = c.Scoring.Tiers
	}
	out.PerQuestionSeconds = c.EngineConfig().PerQuestionSeconds
	return out
}

// SubmitTimeout bounds a single result submission.
func (c Config) SubmitTimeout() time.Duration {
	return TTLDuration(c.Engine.SubmitTimeout, 10*time.Second)
}

// DefaultVolume is the volume for users without a stored preference.
func (c Config) DefaultVolume() int {
	if c.Audio.Volume <= 0 || c.Audio.Volume > 100 {
		return 70
	}
	return c.Audio.Volume
}
