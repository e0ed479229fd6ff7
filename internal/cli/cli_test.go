package cli

import (
	"os"
	"path/filepath"
	"testing"

	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/config"
)

func TestRenderCuesWritesEveryCue(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := renderCues(dir, 60, 8000); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, cue := range audio.Cues {
		info, err := os.Stat(filepath.Join(dir, string(cue)+".wav"))
		if err != nil {
			t.Fatalf("missing %s: %v", cue, err)
		}
		if info.Size() <= 44 {
			t.Fatalf("%s has no samples", cue)
		}
	}
}

func TestSettingsReadEnvironment(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("CONFIG_PATH", "/etc/quiz.yaml")
	t.Setenv("QUIZ_LOG_LEVEL", "debug")

	root := newRootCmd()
	start, _, err := root.Find([]string{"start"})
	if err != nil {
		t.Fatalf("find start: %v", err)
	}
	v := settingsFor(start)
	if v.GetString("port") != "9191" || v.GetString("config") != "/etc/quiz.yaml" || v.GetString("log-level") != "debug" {
		t.Fatalf("unexpected settings port=%q config=%q level=%q", v.GetString("port"), v.GetString("config"), v.GetString("log-level"))
	}
}

func TestAudioDevice(t *testing.T) {
	var cfg config.Config
	if d, err := audioDevice(cfg); err != nil {
		t.Fatalf("default device: %v", err)
	} else if _, ok := d.(audio.Discard); !ok {
		t.Fatalf("expected discard device, got %T", d)
	}

	cfg.Audio.Device = "wav"
	cfg.Audio.Dir = t.TempDir()
	if _, err := audioDevice(cfg); err != nil {
		t.Fatalf("wav device: %v", err)
	}

	cfg.Audio.Device = "speaker"
	if _, err := audioDevice(cfg); err == nil {
		t.Fatalf("expected unknown device error")
	}
}

func TestSampleQuizzesAreValid(t *testing.T) {
	for id, quiz := range sampleQuizzes() {
		if err := quiz.Validate(); err != nil {
			t.Fatalf("sample quiz %s: %v", id, err)
		}
	}
}
