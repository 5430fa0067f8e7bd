// Package vorbis decodes Ogg Vorbis streams through codec callbacks.
package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// Name is the registry name of this format.
const Name = "vorbis"

// Library opens Ogg Vorbis sessions.
var Library = codec.NewLibrary(Name, open)

// blockFrames is the number of sample frames decoded per block.
const blockFrames = 1024

// Decoder implements codec.Decoder on top of oggvorbis
type Decoder struct {
	reader   *oggvorbis.Reader
	channels int
	buf      []float32
}

func open(r *codec.CallbackReader) (codec.Decoder, error) {
	reader, err := oggvorbis.NewReader(r.Stream())
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("failed to read vorbis headers: %v: %w", err, codec.ErrRead)
		}
		return nil, fmt.Errorf("failed to create vorbis decoder: %v: %w", err, codec.ErrNotFormat)
	}

	channels := reader.Channels()
	return &Decoder{
		reader:   reader,
		channels: channels,
		buf:      make([]float32, blockFrames*channels),
	}, nil
}

// Info returns the identification header fields
func (d *Decoder) Info() codec.Info {
	bitrate := d.reader.Bitrate()
	return codec.Info{
		Channels:       d.channels,
		SampleRate:     d.reader.SampleRate(),
		BitrateUpper:   bitrate.Maximum,
		BitrateNominal: bitrate.Nominal,
		BitrateLower:   bitrate.Minimum,
	}
}

// Comment returns the comment header
func (d *Decoder) Comment() *codec.Comment {
	header := d.reader.CommentHeader()
	return &codec.Comment{
		Vendor:   header.Vendor,
		Comments: append([]string(nil), header.Comments...),
	}
}

// Length returns the number of samples per channel. oggvorbis reports zero
// when the source is not seekable.
func (d *Decoder) Length() int64 {
	n := d.reader.Length()
	if n <= 0 {
		return -1
	}
	return n
}

// Decode reads the next block of samples
func (d *Decoder) Decode() ([]int16, error) {
	n, err := d.reader.Read(d.buf)
	n -= n % d.channels
	if n == 0 {
		if err == nil || err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode vorbis packet: %v: %w", err, codec.ErrBadPacket)
	}

	out := make([]int16, n)
	for i, v := range d.buf[:n] {
		out[i] = codec.FromFloat32(v)
	}
	return out, nil
}

// SeekSample seeks to an exact sample
func (d *Decoder) SeekSample(pos int64) error {
	if err := d.reader.SetPosition(pos); err != nil {
		return fmt.Errorf("failed to seek vorbis stream: %v: %w", err, codec.ErrRead)
	}
	return nil
}
