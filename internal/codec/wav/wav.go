// Package wav decodes RIFF/WAVE PCM through codec callbacks.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// Name is the registry name of this format.
const Name = "wav"

// Library opens WAV sessions.
var Library = codec.NewLibrary(Name, open)

// blockFrames is the number of sample frames decoded per block.
const blockFrames = 1024

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Decoder implements codec.Decoder for integer PCM WAV data
type Decoder struct {
	r          *codec.CallbackReader
	sampleRate int
	bitDepth   int
	numChans   int
	blockAlign int
	dataStart  int64
	dataLen    int64
	remaining  int64
	buf        []byte
	ints       *audio.IntBuffer
}

func open(r *codec.CallbackReader) (codec.Decoder, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		if err := decoder.Err(); err != nil && errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("invalid WAV file: %w", codec.ErrRead)
		}
		return nil, fmt.Errorf("invalid WAV file: %w", codec.ErrNotFormat)
	}

	if f := decoder.WavAudioFormat; f != formatPCM && f != formatExtensible {
		return nil, fmt.Errorf("unsupported WAV audio format %d: %w", f, codec.ErrImpl)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth < 8 || bitDepth > 32 || bitDepth%8 != 0 {
		return nil, fmt.Errorf("unsupported bit depth %d: %w", bitDepth, codec.ErrBadHeader)
	}

	// Get format info without reading any samples
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to seek to PCM data: %v: %w", err, codec.ErrBadHeader)
	}

	numChans := int(decoder.NumChans)
	blockAlign := numChans * bitDepth / 8

	d := &Decoder{
		r:          r,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   bitDepth,
		numChans:   numChans,
		blockAlign: blockAlign,
		dataLen:    decoder.PCMLen() - decoder.PCMLen()%int64(blockAlign),
		buf:        make([]byte, blockFrames*blockAlign),
		ints: &audio.IntBuffer{
			Data: make([]int, blockFrames*numChans),
			Format: &audio.Format{
				NumChannels: numChans,
				SampleRate:  int(decoder.SampleRate),
			},
			SourceBitDepth: bitDepth,
		},
	}
	d.remaining = d.dataLen

	if r.Seekable() {
		pos, err := r.Tell()
		if err != nil {
			return nil, err
		}
		d.dataStart = pos
	}

	return d, nil
}

// Info returns the stream format
func (d *Decoder) Info() codec.Info {
	bitrate := d.sampleRate * d.numChans * d.bitDepth
	return codec.Info{
		Channels:       d.numChans,
		SampleRate:     d.sampleRate,
		BitsPerSample:  d.bitDepth,
		BitrateUpper:   bitrate,
		BitrateNominal: bitrate,
		BitrateLower:   bitrate,
	}
}

// Comment returns nil; INFO chunks are not parsed.
func (d *Decoder) Comment() *codec.Comment {
	return nil
}

// Length returns the number of sample frames in the data chunk
func (d *Decoder) Length() int64 {
	return d.dataLen / int64(d.blockAlign)
}

// Decode reads the next block of frames
func (d *Decoder) Decode() ([]int16, error) {
	if d.remaining <= 0 {
		return nil, io.EOF
	}

	buf := d.buf
	if int64(len(buf)) > d.remaining {
		buf = buf[:d.remaining]
	}

	n, err := io.ReadFull(d.r, buf)
	frames := n / d.blockAlign
	if frames == 0 {
		if err != nil {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("short WAV read: %w", codec.ErrBadPacket)
	}
	if err != nil {
		// Truncated data chunk: hand out what arrived, stop afterwards
		d.remaining = 0
	} else {
		d.remaining -= int64(frames * d.blockAlign)
	}

	samples := frames * d.numChans
	d.decodeInts(buf[:frames*d.blockAlign], d.ints.Data[:samples])

	out := make([]int16, samples)
	for i, v := range d.ints.Data[:samples] {
		out[i] = codec.FromInt(int32(v), d.ints.SourceBitDepth)
	}
	return out, nil
}

// decodeInts converts little-endian PCM bytes to signed integers
func (d *Decoder) decodeInts(src []byte, dst []int) {
	width := d.bitDepth / 8
	for i := range dst {
		b := src[i*width:]
		switch width {
		case 1:
			// 8-bit WAV is unsigned
			dst[i] = int(b[0]) - 128
		case 2:
			dst[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case 3:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			dst[i] = int(v)
		case 4:
			dst[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}
}

// SeekSample positions the reader at the given frame
func (d *Decoder) SeekSample(pos int64) error {
	offset := pos * int64(d.blockAlign)
	if offset > d.dataLen {
		return codec.ErrInvalid
	}
	if _, err := d.r.Seek(d.dataStart+offset, io.SeekStart); err != nil {
		return err
	}
	d.remaining = d.dataLen - offset
	return nil
}
