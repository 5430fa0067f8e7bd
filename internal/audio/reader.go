package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// Reader provides chunk-based reading of a Stream as normalized mono
// float64 samples
type Reader struct {
	stream     *Stream
	info       codec.Info
	numSamples int64
	buf        []byte
}

// NewReader creates a chunk reader over stream. The Reader does not own
// the stream.
func NewReader(stream *Stream) (*Reader, error) {
	info, err := stream.Info(CurrentLink)
	if err != nil {
		return nil, err
	}

	// Unknown for unseekable sources
	numSamples := int64(-1)
	if stream.Seekable() {
		if n, err := stream.PCMTotal(CurrentLink); err == nil {
			numSamples = n
		}
	}

	return &Reader{
		stream:     stream,
		info:       info,
		numSamples: numSamples,
	}, nil
}

// ReadChunk reads up to numSamples sample frames, downmixing all channels
// to mono. Returns nil, io.EOF when the stream is exhausted.
func (r *Reader) ReadChunk(numSamples int) ([]float64, error) {
	frameSize := r.info.FrameSize()
	need := numSamples * frameSize
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	buf := r.buf[:need]

	// Keep reading until the chunk is full or the stream ends
	filled := 0
	for filled < need {
		n, err := r.stream.ReadPCM(buf[filled:])
		if err != nil {
			return nil, fmt.Errorf("failed to read PCM data: %w", err)
		}
		if n == 0 {
			break
		}
		filled += n
	}

	if filled == 0 {
		return nil, io.EOF
	}

	channels := r.info.Channels
	frames := filled / frameSize
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * codec.BytesPerSample
			sum += float64(int16(binary.LittleEndian.Uint16(buf[off:]))) / 32768.0
		}
		samples[i] = sum / float64(channels)
	}

	return samples, nil
}

// SeekToSample repositions the reader to a sample frame
func (r *Reader) SeekToSample(samplePos int64) error {
	return r.stream.SeekSample(samplePos)
}

// NumSamples returns the total sample count, or -1 when unknown
func (r *Reader) NumSamples() int64 {
	return r.numSamples
}

// SampleRate returns the sample rate
func (r *Reader) SampleRate() int {
	return r.info.SampleRate
}

// NumChannels returns the number of channels in the source
func (r *Reader) NumChannels() int {
	return r.info.Channels
}
