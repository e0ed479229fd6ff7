package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavChannels  = 1
	wavFormatPCM = 1
)

// EncodeWAV writes clip as a mono 16-bit PCM WAVE stream. The encoder seeks back to patch
// chunk sizes once the samples are written.
func EncodeWAV(w io.WriteSeeker, clip Clip) error {
	enc := wav.NewEncoder(w, clip.SampleRate, wavBitDepth, wavChannels, wavFormatPCM)
	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: wavChannels, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", clip.Cue, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", clip.Cue, err)
	}
	return nil
}
