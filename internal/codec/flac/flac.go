// Package flac decodes FLAC streams through codec callbacks.
package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/linuxmatters/pcmbridge/internal/codec"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// Name is the registry name of this format.
const Name = "flac"

// Library opens FLAC sessions.
var Library = codec.NewLibrary(Name, open)

// Decoder implements codec.Decoder for FLAC streams
type Decoder struct {
	stream      *flac.Stream
	sampleRate  int
	numChannels int
	bitDepth    int
	numSamples  int64
	skip        int64 // samples to drop after a frame-aligned seek
	comment     *codec.Comment
}

func open(r *codec.CallbackReader) (codec.Decoder, error) {
	var (
		stream *flac.Stream
		err    error
	)
	// Parse FLAC stream - reads signature and StreamInfo block
	if r.Seekable() {
		stream, err = flac.NewSeek(r)
	} else {
		stream, err = flac.New(r.Stream())
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("failed to create FLAC decoder: %v: %w", err, codec.ErrRead)
		}
		return nil, fmt.Errorf("failed to create FLAC decoder: %v: %w", err, codec.ErrNotFormat)
	}

	info := stream.Info
	numSamples := int64(info.NSamples)
	if numSamples == 0 {
		// Zero in STREAMINFO means the encoder did not know the length
		numSamples = -1
	}

	return &Decoder{
		stream:      stream,
		sampleRate:  int(info.SampleRate),
		numChannels: int(info.NChannels),
		bitDepth:    int(info.BitsPerSample),
		numSamples:  numSamples,
		comment:     vorbisComment(stream.Blocks),
	}, nil
}

func vorbisComment(blocks []*meta.Block) *codec.Comment {
	for _, block := range blocks {
		vc, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		c := &codec.Comment{Vendor: vc.Vendor}
		for _, tag := range vc.Tags {
			c.Comments = append(c.Comments, tag[0]+"="+tag[1])
		}
		return c
	}
	return nil
}

// Info returns the stream format
func (d *Decoder) Info() codec.Info {
	return codec.Info{
		Channels:      d.numChannels,
		SampleRate:    d.sampleRate,
		BitsPerSample: d.bitDepth,
	}
}

// Comment returns the VORBIS_COMMENT block, if any
func (d *Decoder) Comment() *codec.Comment {
	return d.comment
}

// Length returns the total number of samples per channel
func (d *Decoder) Length() int64 {
	return d.numSamples
}

// Decode parses the next frame and interleaves its subframes
func (d *Decoder) Decode() ([]int16, error) {
	for {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %v: %w", err, codec.ErrBadPacket)
		}
		if len(frame.Subframes) != d.numChannels {
			return nil, fmt.Errorf("frame has %d channels, stream has %d: %w", len(frame.Subframes), d.numChannels, codec.ErrBadPacket)
		}

		frameSamples := len(frame.Subframes[0].Samples)
		start := 0
		if d.skip > 0 {
			if int64(frameSamples) <= d.skip {
				d.skip -= int64(frameSamples)
				continue
			}
			start = int(d.skip)
			d.skip = 0
		}

		bits := int(frame.BitsPerSample)
		out := make([]int16, 0, (frameSamples-start)*d.numChannels)
		for i := start; i < frameSamples; i++ {
			for _, subframe := range frame.Subframes {
				out = append(out, codec.FromInt(subframe.Samples[i], bits))
			}
		}
		return out, nil
	}
}

// SeekSample seeks to the frame containing pos and arranges for the
// samples before pos to be dropped
func (d *Decoder) SeekSample(pos int64) error {
	start, err := d.stream.Seek(uint64(pos))
	if err != nil {
		return fmt.Errorf("failed to seek FLAC stream: %v: %w", err, codec.ErrRead)
	}
	d.skip = pos - int64(start)
	return nil
}

// Close releases the stream
func (d *Decoder) Close() error {
	return d.stream.Close()
}
