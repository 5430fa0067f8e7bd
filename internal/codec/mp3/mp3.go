// Package mp3 decodes MPEG-1/2 Layer III audio through codec callbacks.
//
// Sample seeks land exactly on the requested frame. The decoder state
// (bit reservoir, overlap and synthesis history) is rebuilt by decoding
// from a few frames before the target, which costs up to four MPEG-1
// frames of extra decode per seek.
package mp3

import (
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// Name is the registry name of this format.
const Name = "mp3"

// Library opens MP3 sessions.
var Library = codec.NewLibrary(Name, open)

const (
	// go-mp3 always outputs interleaved stereo 16-bit
	numChannels = 2
	frameBytes  = numChannels * codec.BytesPerSample
	blockBytes  = 1152 * frameBytes

	// Bit reservoir and synthesis history span a few frames; decode this
	// many sample frames ahead of a seek target
	prerollFrames = 4 * 1152
)

// Decoder implements codec.Decoder on top of go-mp3
type Decoder struct {
	decoder *mp3.Decoder
	buf     []byte
}

func open(r *codec.CallbackReader) (codec.Decoder, error) {
	decoder, err := mp3.NewDecoder(r.Stream())
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("failed to create MP3 decoder: %v: %w", err, codec.ErrNotFormat)
		}
		return nil, fmt.Errorf("failed to create MP3 decoder: %v: %w", err, codec.ErrBadHeader)
	}

	return &Decoder{
		decoder: decoder,
		buf:     make([]byte, blockBytes),
	}, nil
}

// Info returns the stream format
func (d *Decoder) Info() codec.Info {
	return codec.Info{
		Channels:      numChannels,
		SampleRate:    d.decoder.SampleRate(),
		BitsPerSample: 16,
	}
}

// Comment returns nil; ID3 tags are skipped by the decoder.
func (d *Decoder) Comment() *codec.Comment {
	return nil
}

// Length returns the number of stereo frames, or -1 when go-mp3 cannot
// determine it (unseekable source)
func (d *Decoder) Length() int64 {
	n := d.decoder.Length()
	if n < 0 {
		return -1
	}
	return n / frameBytes
}

// Decode reads the next block of stereo frames
func (d *Decoder) Decode() ([]int16, error) {
	n, err := d.decoder.Read(d.buf)
	n -= n % frameBytes
	if n == 0 {
		if err == nil || err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read MP3 data: %v: %w", err, codec.ErrBadPacket)
	}
	return codec.Int16s(d.buf[:n]), nil
}

// SeekSample seeks the decoded stream to the given stereo frame. Decoding
// restarts prerollFrames before pos and the warm-up output is discarded, so
// samples after the seek match a sequential decode.
func (d *Decoder) SeekSample(pos int64) error {
	start := max(0, pos-prerollFrames)
	if _, err := d.decoder.Seek(start*frameBytes, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek MP3 stream: %v: %w", err, codec.ErrRead)
	}
	if skip := (pos - start) * frameBytes; skip > 0 {
		if _, err := io.CopyN(io.Discard, d.decoder, skip); err != nil {
			return fmt.Errorf("failed to pre-roll MP3 stream: %v: %w", err, codec.ErrRead)
		}
	}
	return nil
}
