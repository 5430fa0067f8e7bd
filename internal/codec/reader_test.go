package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// byteCallbacks drives a bytes.Reader through a callback table the way a
// stream owner would
func byteCallbacks(seekable bool) (Callbacks, *int) {
	closes := new(int)
	cb := Callbacks{
		Read: func(p []byte, size, nmemb int, ds any) int {
			n, _ := ds.(*bytes.Reader).Read(p[:size*nmemb])
			return n
		},
		Close: func(ds any) int {
			*closes++
			return 0
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
	return cb, closes
}

func TestCallbackReaderRead(t *testing.T) {
	cb, _ := byteCallbacks(true)
	r := NewCallbackReader(cb, bytes.NewReader([]byte("hello world")))

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", data)
	}

	// End of data is sticky
	n, err := r.Read(make([]byte, 4))
	if n != 0 || err != io.EOF {
		t.Errorf("Expected (0, io.EOF) after end, got (%d, %v)", n, err)
	}
}

func TestCallbackReaderOversizedCount(t *testing.T) {
	cb := Callbacks{
		Read: func(p []byte, size, nmemb int, ds any) int {
			return len(p) + 1
		},
	}
	r := NewCallbackReader(cb, nil)

	_, err := r.Read(make([]byte, 8))
	if !errors.Is(err, ErrFault) {
		t.Errorf("Expected ErrFault for an impossible byte count, got %v", err)
	}
}

func TestCallbackReaderSeekTell(t *testing.T) {
	cb, _ := byteCallbacks(true)
	r := NewCallbackReader(cb, bytes.NewReader([]byte("0123456789")))

	if !r.Seekable() {
		t.Fatal("Expected reader to be seekable")
	}

	pos, err := r.Seek(4, io.SeekStart)
	if err != nil {
		t.Fatalf("Failed to seek: %v", err)
	}
	if pos != 4 {
		t.Errorf("Expected position 4, got %d", pos)
	}

	pos, err = r.Seek(-2, io.SeekEnd)
	if err != nil {
		t.Fatalf("Failed to seek from end: %v", err)
	}
	if pos != 8 {
		t.Errorf("Expected position 8, got %d", pos)
	}

	buf := make([]byte, 2)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("Failed to read after seek: %v", err)
	}
	if string(buf) != "89" {
		t.Errorf("Expected %q, got %q", "89", buf)
	}

	// bytes.Reader rejects negative positions
	if _, err := r.Seek(-1, io.SeekStart); !errors.Is(err, ErrRead) {
		t.Errorf("Expected ErrRead for a failed seek, got %v", err)
	}
}

func TestCallbackReaderUnseekable(t *testing.T) {
	cb, _ := byteCallbacks(false)
	r := NewCallbackReader(cb, bytes.NewReader([]byte("abc")))

	if r.Seekable() {
		t.Error("Expected reader without seek callbacks to be unseekable")
	}
	if _, err := r.Seek(0, io.SeekStart); !errors.Is(err, ErrNoSeek) {
		t.Errorf("Expected ErrNoSeek, got %v", err)
	}
	if _, err := r.Tell(); !errors.Is(err, ErrNoSeek) {
		t.Errorf("Expected ErrNoSeek from Tell, got %v", err)
	}
	if _, ok := r.Stream().(io.Seeker); ok {
		t.Error("Expected Stream() to hide io.Seeker for an unseekable datasource")
	}

	seekCB, _ := byteCallbacks(true)
	seekable := NewCallbackReader(seekCB, bytes.NewReader(nil))
	if _, ok := seekable.Stream().(io.Seeker); !ok {
		t.Error("Expected Stream() to expose io.Seeker for a seekable datasource")
	}
}

func TestCallbackReaderCloseOnce(t *testing.T) {
	cb, closes := byteCallbacks(true)
	r := NewCallbackReader(cb, bytes.NewReader(nil))

	for i := 0; i < 3; i++ {
		if err := r.Close(); err != nil {
			t.Fatalf("Close %d failed: %v", i, err)
		}
	}
	if *closes != 1 {
		t.Errorf("Expected close callback once, got %d", *closes)
	}
}

func TestCallbackReaderCloseFailure(t *testing.T) {
	cb := Callbacks{
		Read:  func(p []byte, size, nmemb int, ds any) int { return 0 },
		Close: func(ds any) int { return -1 },
	}
	r := NewCallbackReader(cb, nil)

	if err := r.Close(); !errors.Is(err, False) {
		t.Errorf("Expected False from a failing close callback, got %v", err)
	}
}
