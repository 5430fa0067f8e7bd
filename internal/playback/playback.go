// Package playback sends decoded PCM to the default audio device.
package playback

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// pollInterval is how often Play checks the player and reports progress
const pollInterval = 50 * time.Millisecond

// Output plays signed 16-bit little-endian interleaved PCM
type Output struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int
}

// Open initializes the audio device. oto allows one context per process.
func Open(sampleRate, channels int) (*Output, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid output format: %d Hz, %d channels", sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	return &Output{otoCtx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

// Play streams src until it ends or ctx is cancelled. tick, when non-nil,
// is called every poll interval while audio is playing.
func (o *Output) Play(ctx context.Context, src io.Reader, tick func()) error {
	player := o.otoCtx.NewPlayer(src)
	defer player.Close()

	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if tick != nil {
				tick()
			}
		}
	}
	return player.Err()
}

// Close suspends the device
func (o *Output) Close() error {
	return o.otoCtx.Suspend()
}

// Meter counts the PCM handed to the device. Reads happen on the player's
// goroutine, so counters are atomic.
type Meter struct {
	r          io.Reader
	frameSize  int
	sampleRate int
	bytes      atomic.Int64
}

// NewMeter wraps r, which yields 16-bit PCM with channels channels
func NewMeter(r io.Reader, sampleRate, channels int) *Meter {
	return &Meter{r: r, frameSize: channels * 2, sampleRate: sampleRate}
}

func (m *Meter) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.bytes.Add(int64(n))
	return n, err
}

// Bytes returns the PCM bytes read so far
func (m *Meter) Bytes() int64 {
	return m.bytes.Load()
}

// Samples returns the sample frames read so far
func (m *Meter) Samples() int64 {
	if m.frameSize <= 0 {
		return 0
	}
	return m.bytes.Load() / int64(m.frameSize)
}

// Position returns the audio time read so far. Playback trails it by the
// device buffer.
func (m *Meter) Position() time.Duration {
	if m.sampleRate <= 0 {
		return 0
	}
	return time.Duration(m.Samples()) * time.Second / time.Duration(m.sampleRate)
}
