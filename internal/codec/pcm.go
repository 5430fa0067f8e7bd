package codec

import (
	"encoding/binary"
	"math"
)

// BytesPerSample is the width of one decoded sample.
const BytesPerSample = 2

// PutInt16s writes src into dst as little-endian 16-bit samples. dst must
// hold at least len(src)*BytesPerSample bytes.
func PutInt16s(dst []byte, src []int16) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*BytesPerSample:], uint16(v))
	}
}

// Int16s reads little-endian 16-bit samples from src into a new slice.
func Int16s(src []byte) []int16 {
	out := make([]int16, len(src)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(src[i*BytesPerSample:]))
	}
	return out
}

// FromFloat32 converts a [-1, 1] sample to 16-bit, clipping out-of-range input.
func FromFloat32(v float32) int16 {
	s := math.Round(float64(v) * 32767)
	switch {
	case s > math.MaxInt16:
		return math.MaxInt16
	case s < math.MinInt16:
		return math.MinInt16
	}
	return int16(s)
}

// FromInt converts a signed sample of the given bit depth to 16-bit.
func FromInt(v int32, bits int) int16 {
	switch {
	case bits > 16:
		return int16(v >> (bits - 16))
	case bits < 16:
		return int16(v << (16 - bits))
	}
	return int16(v)
}
