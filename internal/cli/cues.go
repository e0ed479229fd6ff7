package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/config"
)

// NewCuesCmd renders every sound cue to a WAV file.
func NewCuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cues",
		Short: "Render the sound cues as WAV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := settingsFor(cmd)
			cfg, err := config.Load(v.GetString("config"))
			if err != nil {
				return err
			}
			sampleRate := v.GetInt("sample-rate")
			if sampleRate <= 0 {
				sampleRate = cfg.Audio.SampleRate
			}
			volume := cfg.DefaultVolume()
			if cmd.Flags().Changed("volume") {
				volume = v.GetInt("volume")
			}
			return renderCues(v.GetString("out"), volume, sampleRate)
		},
	}
	cmd.Flags().StringP("out", "o", "cues", "output directory")
	cmd.Flags().Int("volume", 0, "cue volume 0-100 (defaults to audio.default_volume)")
	cmd.Flags().Int("sample-rate", 0, "sample rate in Hz (defaults to audio.sample_rate)")
	return cmd
}

func renderCues(dir string, volume, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, cue := range audio.Cues {
		clip, err := audio.Synthesize(cue, volume, sampleRate)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, string(cue)+".wav")
		if err := audio.WriteWAVFile(path, clip); err != nil {
			return err
		}
		slog.Info("rendered cue", "cue", cue, "path", path, "duration", clip.Duration())
	}
	return nil
}
