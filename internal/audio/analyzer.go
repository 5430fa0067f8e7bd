package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/argusdusty/gofft"
	"github.com/linuxmatters/pcmbridge/internal/config"
)

// Profile holds whole-stream level and spectrum statistics
type Profile struct {
	NumSamples int64
	SampleRate int
	Duration   float64 // Seconds

	Peak         float64 // Highest absolute sample, 0.0-1.0
	RMS          float64 // RMS over the whole stream
	DynamicRange float64 // Crest factor in dB (peak over RMS)

	// Averaged magnitude spectrum, config.FFTSize/2 bins
	Spectrum          []float64
	DominantFrequency float64 // Hz
}

// ProgressCallback is called with progress updates during analysis.
// totalSamples is -1 when the stream length is unknown.
type ProgressCallback func(samplesRead, totalSamples int64, currentRMS, currentPeak float64, elapsed time.Duration)

// ApplyHanning applies a Hanning window to the input data
func ApplyHanning(data []float64) []float64 {
	windowed := make([]float64, len(data))
	n := len(data)
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * window
	}
	return windowed
}

// Analyze streams through r from its current position and collects level
// and spectrum statistics. It stops with ctx.Err() when ctx is cancelled.
func Analyze(ctx context.Context, r *Reader, progressCb ProgressCallback) (*Profile, error) {
	profile := &Profile{
		SampleRate: r.SampleRate(),
		Spectrum:   make([]float64, config.FFTSize/2),
	}

	var (
		sumSquares float64
		windows    int
		chunkNum   int
	)
	startTime := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := r.ReadChunk(config.FFTSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading audio at sample %d: %w", profile.NumSamples, err)
		}

		var chunkSquares, chunkPeak float64
		for _, sample := range chunk {
			chunkSquares += sample * sample
			if a := math.Abs(sample); a > chunkPeak {
				chunkPeak = a
			}
		}
		sumSquares += chunkSquares
		profile.NumSamples += int64(len(chunk))
		if chunkPeak > profile.Peak {
			profile.Peak = chunkPeak
		}

		// Only full windows contribute to the spectrum
		if len(chunk) == config.FFTSize {
			if err := accumulateSpectrum(profile.Spectrum, chunk); err != nil {
				return nil, err
			}
			windows++
		}

		chunkNum++
		// Throttle progress updates
		if progressCb != nil && chunkNum%config.ProgressInterval == 0 {
			chunkRMS := math.Sqrt(chunkSquares / float64(len(chunk)))
			progressCb(profile.NumSamples, r.NumSamples(), chunkRMS, chunkPeak, time.Since(startTime))
		}
	}

	if profile.NumSamples == 0 {
		return nil, fmt.Errorf("no audio data in stream")
	}

	profile.Duration = float64(profile.NumSamples) / float64(profile.SampleRate)
	profile.RMS = math.Sqrt(sumSquares / float64(profile.NumSamples))

	// Avoid division by zero on digital silence
	if profile.RMS > 0 && profile.Peak > 0 {
		profile.DynamicRange = 20 * math.Log10(profile.Peak/profile.RMS)
	}

	if windows > 0 {
		maxBin := 0
		for i := range profile.Spectrum {
			profile.Spectrum[i] /= float64(windows)
			// Skip DC
			if i > 0 && profile.Spectrum[i] > profile.Spectrum[maxBin] {
				maxBin = i
			}
		}
		if maxBin > 0 {
			profile.DominantFrequency = float64(maxBin) * float64(profile.SampleRate) / float64(config.FFTSize)
		}
	}

	if progressCb != nil {
		progressCb(profile.NumSamples, profile.NumSamples, profile.RMS, profile.Peak, time.Since(startTime))
	}

	return profile, nil
}

// accumulateSpectrum adds the magnitude spectrum of one window to spectrum
func accumulateSpectrum(spectrum []float64, chunk []float64) error {
	coeffs := gofft.Float64ToComplex128Array(ApplyHanning(chunk))
	if err := gofft.FFT(coeffs); err != nil {
		return fmt.Errorf("FFT computation failed: %w", err)
	}
	for i := range spectrum {
		re, im := real(coeffs[i]), imag(coeffs[i])
		spectrum[i] += math.Sqrt(re*re + im*im)
	}
	return nil
}
