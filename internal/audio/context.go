package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Device receives rendered clips. Implementations may block; the Context calls them off the caller's goroutine.
type Device interface {
	Play(ctx context.Context, clip Clip) error
}

// Context is the process-wide audio resource. Create it once at startup, share it by reference,
// and Close it on shutdown. Play never blocks the caller.
type Context struct {
	device     Device
	sampleRate int
	logger     *slog.Logger

	queue     chan Clip
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   atomic.Int64
}

// Options tunes a Context.
type Options struct {
	SampleRate int
	QueueSize  int
	Logger     *slog.Logger
}

// NewContext starts the playback worker for device.
func NewContext(device Device, opts Options) *Context {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 22050
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Context{
		device:     device,
		sampleRate: opts.SampleRate,
		logger:     opts.Logger,
		queue:      make(chan Clip, opts.QueueSize),
		done:       make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// SampleRate reports the rate clips are rendered at.
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Dropped reports how many cues were discarded because the queue was full.
func (c *Context) Dropped() int64 {
	return c.dropped.Load()
}

// Play renders cue at volume and queues it. Muted cues, unknown cues and a full queue are ignored.
func (c *Context) Play(cue Cue, volume int) {
	if ClampVolume(volume) == 0 {
		return
	}
	clip, err := Synthesize(cue, volume, c.sampleRate)
	if err != nil {
		c.logger.Debug("cue synthesis failed", "cue", cue, "error", err)
		return
	}
	select {
	case <-c.done:
	case c.queue <- clip:
	default:
		c.dropped.Add(1)
	}
}

// Close stops the worker after draining clips already queued.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
	})
	return nil
}

func (c *Context) run() {
	defer c.wg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for {
		select {
		case clip := <-c.queue:
			c.play(ctx, clip)
		case <-c.done:
			for {
				select {
				case clip := <-c.queue:
					c.play(ctx, clip)
				default:
					return
				}
			}
		}
	}
}

func (c *Context) play(ctx context.Context, clip Clip) {
	if err := c.device.Play(ctx, clip); err != nil {
		c.logger.Debug("cue playback failed", "cue", clip.Cue, "error", err)
	}
}

// Discard drops every clip.
type Discard struct{}

func (Discard) Play(context.Context, Clip) error { return nil }

// WAVDir writes every played clip to a WAV file under Dir.
type WAVDir struct {
	Dir string
	now func() time.Time
}

// NewWAVDir returns a device writing into dir, creating it if needed.
func NewWAVDir(dir string) (*WAVDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cue dir: %w", err)
	}
	return &WAVDir{Dir: dir, now: time.Now}, nil
}

func (d *WAVDir) Play(_ context.Context, clip Clip) error {
	name := fmt.Sprintf("%s-%d-v%d.wav", clip.Cue, d.now().UnixNano(), clip.Volume)
	return WriteWAVFile(filepath.Join(d.Dir, name), clip)
}

// WriteWAVFile encodes clip into path.
func WriteWAVFile(path string, clip Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, clip); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
