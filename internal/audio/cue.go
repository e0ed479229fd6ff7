// Package audio synthesises short feedback cues and plays them through an owned output context.
package audio

import (
	"fmt"
	"math"
	"time"
)

// Cue identifies a sound effect.
type Cue string

const (
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
	CueTick    Cue = "tick"
	CuePowerUp Cue = "powerup"
	CueCombo   Cue = "combo"
	CueResults Cue = "results"
)

// Cues lists every cue the synthesiser knows.
var Cues = []Cue{CueCorrect, CueWrong, CueTick, CuePowerUp, CueCombo, CueResults}

// ParseCue maps a name to a known cue.
func ParseCue(name string) (Cue, error) {
	for _, c := range Cues {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown cue %q", name)
}

type waveform int

const (
	sine waveform = iota
	square
	triangle
)

type note struct {
	freq float64
	dur  time.Duration
	wave waveform
}

var scores = map[Cue][]note{
	CueCorrect: {
		{523.25, 80 * time.Millisecond, sine},
		{659.25, 80 * time.Millisecond, sine},
		{783.99, 120 * time.Millisecond, sine},
	},
	CueWrong: {
		{220, 150 * time.Millisecond, square},
		{180, 200 * time.Millisecond, square},
	},
	CueTick: {
		{1000, 50 * time.Millisecond, sine},
	},
	CuePowerUp: {
		{440, 60 * time.Millisecond, triangle},
		{554.37, 60 * time.Millisecond, triangle},
		{659.25, 60 * time.Millisecond, triangle},
		{880, 90 * time.Millisecond, triangle},
	},
	CueCombo: {
		{659.25, 70 * time.Millisecond, triangle},
		{783.99, 70 * time.Millisecond, triangle},
		{987.77, 70 * time.Millisecond, triangle},
		{1318.51, 140 * time.Millisecond, triangle},
	},
	CueResults: {
		{523.25, 150 * time.Millisecond, sine},
		{659.25, 150 * time.Millisecond, sine},
		{783.99, 150 * time.Millisecond, sine},
		{1046.5, 300 * time.Millisecond, sine},
	},
}

const (
	attack   = 5 * time.Millisecond
	release  = 20 * time.Millisecond
	headroom = 0.6
)

// Clip is a rendered mono 16-bit cue.
type Clip struct {
	Cue        Cue
	Volume     int
	SampleRate int
	Samples    []int16
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Synthesize renders cue at volume (0-100, clamped) and sampleRate.
func Synthesize(cue Cue, volume, sampleRate int) (Clip, error) {
	notes, ok := scores[cue]
	if !ok {
		return Clip{}, fmt.Errorf("unknown cue %q", cue)
	}
	if sampleRate <= 0 {
		return Clip{}, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	volume = ClampVolume(volume)
	gain := headroom * float64(volume) / 100 * math.MaxInt16

	var samples []int16
	for _, n := range notes {
		samples = appendNote(samples, n, gain, sampleRate)
	}
	return Clip{Cue: cue, Volume: volume, SampleRate: sampleRate, Samples: samples}, nil
}

func appendNote(dst []int16, n note, gain float64, sampleRate int) []int16 {
	total := int(n.dur.Seconds() * float64(sampleRate))
	attackN := int(attack.Seconds() * float64(sampleRate))
	releaseN := int(release.Seconds() * float64(sampleRate))
	for i := 0; i < total; i++ {
		phase := math.Mod(n.freq*float64(i)/float64(sampleRate), 1)
		v := oscillate(n.wave, phase) * envelope(i, total, attackN, releaseN) * gain
		dst = append(dst, int16(v))
	}
	return dst
}

func oscillate(w waveform, phase float64) float64 {
	switch w {
	case square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case triangle:
		return 4*math.Abs(phase-0.5) - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func envelope(i, total, attackN, releaseN int) float64 {
	if attackN > 0 && i < attackN {
		return float64(i) / float64(attackN)
	}
	if remaining := total - i; releaseN > 0 && remaining < releaseN {
		return float64(remaining) / float64(releaseN)
	}
	return 1
}

// ClampVolume bounds v to 0-100.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
