// Package encoder writes decoded PCM to WAV or headerless raw files.
package encoder

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/pcmbridge/internal/codec"
	"github.com/linuxmatters/pcmbridge/internal/config"
)

// wavFormatPCM is the WAVE format tag for integer PCM
const wavFormatPCM = 1

// Config holds the encoder configuration
type Config struct {
	OutputPath    string // Path to output file
	SampleRate    int    // Sample rate of the PCM being written
	Channels      int    // Channels in the PCM passed to WritePCM
	AudioChannels int    // Output channels: 0 keeps the source layout, 1 (mono) or 2 (stereo) remix it
	Raw           bool   // Write headerless little-endian PCM instead of WAV
}

// Encoder writes interleaved 16-bit PCM to a file
type Encoder struct {
	config      Config
	outChannels int

	file *os.File
	wav  *wav.Encoder
	buf  *audio.IntBuffer
	raw  []byte

	samplesWritten int64 // Sample frames
	bytesWritten   int64 // PCM bytes, excluding any header
}

// New creates a new encoder instance
func New(config Config) (*Encoder, error) {
	// Validate configuration
	if config.OutputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", config.SampleRate)
	}
	if config.Channels <= 0 {
		return nil, fmt.Errorf("invalid channels: %d", config.Channels)
	}

	outChannels := config.AudioChannels
	switch {
	case outChannels == 0 || outChannels == config.Channels:
		outChannels = config.Channels
	case outChannels == 1:
		// Any layout downmixes to mono
	case outChannels == 2 && config.Channels == 1:
		// Mono duplicates into stereo
	default:
		return nil, fmt.Errorf("cannot remix %d channels to %d", config.Channels, config.AudioChannels)
	}

	return &Encoder{
		config:      config,
		outChannels: outChannels,
	}, nil
}

// Initialize creates the output file and, for WAV, the container writer
func (e *Encoder) Initialize() error {
	f, err := os.Create(e.config.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	e.file = f

	if !e.config.Raw {
		e.wav = wav.NewEncoder(f, e.config.SampleRate, config.BitDepth, e.outChannels, wavFormatPCM)
		e.buf = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: e.outChannels,
				SampleRate:  e.config.SampleRate,
			},
			SourceBitDepth: config.BitDepth,
		}
	}

	return nil
}

// OutputChannels returns the channel count written to the file
func (e *Encoder) OutputChannels() int {
	return e.outChannels
}

// WritePCM writes signed 16-bit little-endian interleaved PCM. p must hold
// whole frames of Config.Channels channels.
func (e *Encoder) WritePCM(p []byte) error {
	if e.file == nil {
		return fmt.Errorf("encoder not initialized")
	}
	frameSize := e.config.Channels * codec.BytesPerSample
	if len(p)%frameSize != 0 {
		return fmt.Errorf("partial frame: %d bytes is not a multiple of %d", len(p), frameSize)
	}
	if len(p) == 0 {
		return nil
	}

	samples := remix(codec.Int16s(p), e.config.Channels, e.outChannels)
	frames := len(samples) / e.outChannels

	if e.wav != nil {
		if cap(e.buf.Data) < len(samples) {
			e.buf.Data = make([]int, len(samples))
		}
		e.buf.Data = e.buf.Data[:len(samples)]
		for i, v := range samples {
			e.buf.Data[i] = int(v)
		}
		if err := e.wav.Write(e.buf); err != nil {
			return fmt.Errorf("failed to write WAV data: %w", err)
		}
	} else {
		need := len(samples) * codec.BytesPerSample
		if cap(e.raw) < need {
			e.raw = make([]byte, need)
		}
		e.raw = e.raw[:need]
		codec.PutInt16s(e.raw, samples)
		if _, err := e.file.Write(e.raw); err != nil {
			return fmt.Errorf("failed to write PCM data: %w", err)
		}
	}

	e.samplesWritten += int64(frames)
	e.bytesWritten += int64(len(samples) * codec.BytesPerSample)
	return nil
}

// SamplesWritten returns the number of sample frames written
func (e *Encoder) SamplesWritten() int64 {
	return e.samplesWritten
}

// BytesWritten returns the number of PCM bytes written, excluding headers
func (e *Encoder) BytesWritten() int64 {
	return e.bytesWritten
}

// Close finalizes the WAV header and closes the output file
func (e *Encoder) Close() error {
	if e.file == nil {
		return nil
	}

	var err error
	if e.wav != nil {
		if werr := e.wav.Close(); werr != nil {
			err = fmt.Errorf("failed to finalize WAV header: %w", werr)
		}
		e.wav = nil
	}
	if cerr := e.file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	e.file = nil

	return err
}

// remix converts interleaved samples between channel layouts
func remix(samples []int16, from, to int) []int16 {
	if from == to {
		return samples
	}

	frames := len(samples) / from
	out := make([]int16, frames*to)
	switch to {
	case 1:
		// Downmix by averaging all channels
		for i := 0; i < frames; i++ {
			var sum int32
			for ch := 0; ch < from; ch++ {
				sum += int32(samples[i*from+ch])
			}
			out[i] = int16(sum / int32(from))
		}
	case 2:
		// Mono duplicates into both channels
		for i := 0; i < frames; i++ {
			out[i*2] = samples[i]
			out[i*2+1] = samples[i]
		}
	}
	return out
}
