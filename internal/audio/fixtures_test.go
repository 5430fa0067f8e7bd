package audio

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/linuxmatters/pcmbridge/internal/codec/wav"
)

// wavBytes synthesizes a 16-bit PCM WAV file with the go-audio encoder
func wavBytes(t *testing.T, channels, sampleRate, frames int, sample func(frame, ch int) int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	writeWAVFile(t, path, channels, sampleRate, frames, sample)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return data
}

func writeWAVFile(t *testing.T, path string, channels, sampleRate, frames int, sample func(frame, ch int) int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()

	buf := &goaudio.IntBuffer{
		Data:           make([]int, frames*channels),
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Data[i*channels+ch] = sample(i, ch)
		}
	}

	enc := gowav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize fixture: %v", err)
	}
}

// rampSample gives every sample in a fixture a distinct-looking value
func rampSample(frame, ch int) int {
	return (frame*31+ch*997)%50000 - 25000
}

// sineSample returns a generator for a sine wave on every channel
func sineSample(freq float64, sampleRate int, amplitude float64) func(frame, ch int) int {
	return func(frame, ch int) int {
		return int(math.Round(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(frame)/float64(sampleRate))))
	}
}

// captureLogger returns a logger writing text records to a buffer
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func openWAV(t *testing.T, src io.Reader, logger *slog.Logger) *Stream {
	t.Helper()
	s, err := NewStream(src, Config{Codec: wav.Library, Logger: logger})
	if err != nil {
		t.Fatalf("Failed to open stream: %v", err)
	}
	return s
}

// readAllPCM drains s with bufSize reads and returns the bytes
func readAllPCM(t *testing.T, s *Stream, bufSize int) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, bufSize)
	for i := 0; i < 1_000_000; i++ {
		n, err := s.ReadPCM(buf)
		if err != nil {
			t.Fatalf("ReadPCM failed: %v", err)
		}
		if n == 0 {
			return out
		}
		if n > len(buf) {
			t.Fatalf("ReadPCM returned %d bytes for a %d byte buffer", n, len(buf))
		}
		out = append(out, buf[:n]...)
	}
	t.Fatal("ReadPCM never reached end of stream")
	return nil
}

// streamOnly hides every method but Read
type streamOnly struct {
	io.Reader
}

// flakySource fails seeks on demand
type flakySource struct {
	*bytes.Reader
	failSeeks bool
}

func (f *flakySource) Seek(offset int64, whence int) (int64, error) {
	if f.failSeeks {
		return 0, errors.New("device unplugged")
	}
	return f.Reader.Seek(offset, whence)
}

// truncatingSource fails reads past limit
type truncatingSource struct {
	*bytes.Reader
	limit int64
}

func (s *truncatingSource) Read(p []byte) (int, error) {
	pos, _ := s.Reader.Seek(0, io.SeekCurrent)
	if pos >= s.limit {
		return 0, errors.New("sector not found")
	}
	if rem := s.limit - pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	return s.Reader.Read(p)
}

// closeTracker counts Close calls on a source
type closeTracker struct {
	*bytes.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}
