package config

// Decode settings
const (
	BytesPerSample = 2  // Decoded PCM is signed 16-bit
	BitDepth       = 16 // Bit depth of decoded and written PCM
)

// Analysis settings
const (
	FFTSize   = 2048 // Samples per analysis window, must be a power of two
	ChunkSize = 4096 // Sample frames per chunk when decoding to a file

	// Chunks between progress updates
	ProgressInterval = 16
)

// IsPowerOfTwo reports whether n is a positive power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ChunkBytes returns the PCM buffer size needed for frames sample frames
// of channels channels
func ChunkBytes(frames, channels int) int {
	return frames * channels * BytesPerSample
}

// Spectrum image settings
const (
	SpectrumWidth  = 1280
	SpectrumHeight = 480
	SpectrumMargin = 32 // Pixels around the plot and caption
	CaptionSize    = 24 // Caption font size in points

	NumBars = 64 // Logarithmic frequency bands
	BarGap  = 4  // Pixels between bars

	// Floor of the bar scale in dB below the loudest band
	SpectrumFloorDB = 60.0

	// Bar color (RGB)
	BarColorR = 164
	BarColorG = 0
	BarColorB = 0

	// Caption color (RGB)
	TextColorR = 248
	TextColorG = 179
	TextColorB = 29
)
