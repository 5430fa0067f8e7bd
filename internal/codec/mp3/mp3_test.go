package mp3

import (
	"bytes"
	"io"
	"testing"

	"github.com/linuxmatters/pcmbridge/internal/codec"
)

func callbacks(seekable bool) codec.Callbacks {
	cb := codec.Callbacks{
		Read: func(p []byte, size, nmemb int, ds any) int {
			n, _ := ds.(*bytes.Reader).Read(p[:size*nmemb])
			return n
		},
	}
	if seekable {
		cb.Seek = func(ds any, offset int64, whence int) int {
			if _, err := ds.(*bytes.Reader).Seek(offset, whence); err != nil {
				return -1
			}
			return 0
		}
		cb.Tell = func(ds any) int64 {
			pos, _ := ds.(*bytes.Reader).Seek(0, io.SeekCurrent)
			return pos
		}
	}
	return cb
}

// TestOpenRejectsNonMP3 checks that data in another format never
// yields a session
func TestOpenRejectsNonMP3(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		seekable bool
	}{
		{"empty seekable", nil, true},
		{"empty stream", nil, false},
		{"text", []byte("plain text that is not audio in any format, repeated. plain text that is not audio."), true},
		{"RIFF header", []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sess, status := Library.Open(bytes.NewReader(tc.data), callbacks(tc.seekable))
			if !status.Failed() {
				t.Errorf("Expected a failure status, got %d", int(status))
			}
			if sess != nil {
				t.Error("Expected no session on failure")
			}
		})
	}
}

func TestLibraryName(t *testing.T) {
	if Library.Name() != Name {
		t.Errorf("Expected library name %q, got %q", Name, Library.Name())
	}
}
