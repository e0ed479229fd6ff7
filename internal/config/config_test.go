package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
engine:
  per_question_seconds: 30
  feedback_delay: 2s
  freeze_charges: 0
scoring:
  max_points: 500
  tiers:
    - {streak: 3, bonus: 50, name: hot}
audio:
  default_volume: 40
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}

	ec := cfg.EngineConfig()
	if ec.PerQuestionSeconds != 30 || ec.FeedbackDelay != 2*time.Second || ec.FreezeCharges != 0 || ec.WarningSeconds != 10 {
		t.Fatalf("unexpected engine config %+v", ec)
	}
	sc := cfg.ScoringConfig()
	if sc.MaxPoints != 500 || sc.MinPoints != 100 || sc.PerQuestionSeconds != 30 || len(sc.Tiers) != 1 || sc.Tiers[0].Name != "hot" {
		t.Fatalf("unexpected scoring config %+v", sc)
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("merged scoring config invalid: %v", err)
	}
	if cfg.DefaultVolume() != 40 {
		t.Fatalf("expected volume 40, got %d", cfg.DefaultVolume())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EngineConfig().FreezeCharges != 1 || cfg.SubmitTimeout() != 10*time.Second || cfg.DefaultVolume() != 70 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %s", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
