package codec

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusFailed(t *testing.T) {
	testCases := []struct {
		status Status
		want   bool
	}{
		{OK, false},
		{Status(5), false},
		{False, true},
		{EOF, true},
		{ErrRead, true},
		{ErrNoSeek, true},
	}

	for _, tc := range testCases {
		if got := tc.status.Failed(); got != tc.want {
			t.Errorf("Status(%d).Failed() = %v, want %v", int(tc.status), got, tc.want)
		}
	}
}

func TestStatusError(t *testing.T) {
	if got := ErrNoSeek.Error(); got != "stream is not seekable" {
		t.Errorf("ErrNoSeek.Error() = %q", got)
	}
	if got := Status(-999).Error(); got != "unknown status -999" {
		t.Errorf("Status(-999).Error() = %q", got)
	}

	// Every defined code has its own message
	seen := make(map[string]Status)
	for status, msg := range statusMessages {
		if other, ok := seen[msg]; ok {
			t.Errorf("Statuses %d and %d share message %q", int(status), int(other), msg)
		}
		seen[msg] = status
	}
}

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		fallback Status
		want     Status
	}{
		{"nil error", nil, ErrFault, OK},
		{"bare status", ErrBadHeader, ErrFault, ErrBadHeader},
		{"wrapped status", fmt.Errorf("parse: %w", ErrVersion), ErrFault, ErrVersion},
		{"plain error", errors.New("boom"), ErrNotFormat, ErrNotFormat},
		{"non-failure status", fmt.Errorf("odd: %w", OK), ErrRead, ErrRead},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(tc.err, tc.fallback); got != tc.want {
				t.Errorf("StatusOf() = %d, want %d", int(got), int(tc.want))
			}
		})
	}
}

func TestInfoFrameSize(t *testing.T) {
	if got := (Info{Channels: 2}).FrameSize(); got != 4 {
		t.Errorf("Expected stereo frame size 4, got %d", got)
	}
	if got := (Info{Channels: 6}).FrameSize(); got != 12 {
		t.Errorf("Expected 5.1 frame size 12, got %d", got)
	}
}
