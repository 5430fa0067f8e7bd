package config

import (
	"testing"
)

// TestFFTSize_PowerOfTwo guards the FFT window size, which the radix-2 FFT
// requires to be a power of two.
func TestFFTSize_PowerOfTwo(t *testing.T) {
	if !IsPowerOfTwo(FFTSize) {
		t.Errorf("FFTSize = %d, want a power of two", FFTSize)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	testCases := []struct {
		input int
		want  bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{1024, true},
		{2048, true},
		{3000, false},
		{-2, false},
	}

	for _, tc := range testCases {
		if got := IsPowerOfTwo(tc.input); got != tc.want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestChunkBytes(t *testing.T) {
	testCases := []struct {
		name     string
		frames   int
		channels int
		want     int
	}{
		{"mono chunk", ChunkSize, 1, ChunkSize * 2},
		{"stereo chunk", ChunkSize, 2, ChunkSize * 4},
		{"one second stereo", 44100, 2, 176400},
		{"empty", 0, 2, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ChunkBytes(tc.frames, tc.channels); got != tc.want {
				t.Errorf("ChunkBytes(%d, %d) = %d, want %d", tc.frames, tc.channels, got, tc.want)
			}
		})
	}
}

// TestSpectrumBarsFit checks the bar layout leaves room for every bar.
func TestSpectrumBarsFit(t *testing.T) {
	plotWidth := SpectrumWidth - 2*SpectrumMargin
	barWidth := (plotWidth - (NumBars-1)*BarGap) / NumBars
	if barWidth < 1 {
		t.Errorf("Bar width %d too small for %d bars", barWidth, NumBars)
	}
	if SpectrumFloorDB <= 0 {
		t.Errorf("SpectrumFloorDB = %f, want a positive dB range", SpectrumFloorDB)
	}
}
