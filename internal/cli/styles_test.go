package cli

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		input time.Duration
		want  string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{59 * time.Second, "59.0s"},
		{90 * time.Second, "1m30.0s"},
	}

	for _, tc := range testCases {
		if got := FormatDuration(tc.input); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatBitrate(t *testing.T) {
	testCases := []struct {
		input int
		want  string
	}{
		{0, "unknown"},
		{-1, "unknown"},
		{800, "800 bps"},
		{128000, "128 kbps"},
		{1411200, "1411 kbps"},
	}

	for _, tc := range testCases {
		if got := FormatBitrate(tc.input); got != tc.want {
			t.Errorf("FormatBitrate(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tc := range testCases {
		if got := FormatBytes(tc.input); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
