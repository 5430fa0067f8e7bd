package codec

import (
	"fmt"
	"io"
)

// CallbackReader presents a Callbacks table as an io.ReadSeeker so that Go
// decoders can consume a datasource without knowing where it comes from.
type CallbackReader struct {
	cb         Callbacks
	datasource any
	closed     bool
}

// NewCallbackReader wraps cb and datasource.
func NewCallbackReader(cb Callbacks, datasource any) *CallbackReader {
	return &CallbackReader{cb: cb, datasource: datasource}
}

// Seekable reports whether the table carries both seek and tell callbacks.
func (r *CallbackReader) Seekable() bool {
	return r.cb.Seek != nil && r.cb.Tell != nil
}

// Read implements io.Reader. A zero-byte callback read is end of data.
func (r *CallbackReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := r.cb.Read(p, 1, len(p), r.datasource)
	if n <= 0 {
		return 0, io.EOF
	}
	if n > len(p) {
		return 0, fmt.Errorf("read callback returned %d bytes for a %d byte buffer: %w", n, len(p), ErrFault)
	}
	return n, nil
}

// Seek implements io.Seeker and returns the new absolute position.
func (r *CallbackReader) Seek(offset int64, whence int) (int64, error) {
	if !r.Seekable() {
		return 0, ErrNoSeek
	}
	if r.cb.Seek(r.datasource, offset, whence) != 0 {
		return 0, fmt.Errorf("seek to %d (whence %d): %w", offset, whence, ErrRead)
	}
	return r.Tell()
}

// Tell returns the absolute position of the datasource.
func (r *CallbackReader) Tell() (int64, error) {
	if r.cb.Tell == nil {
		return 0, ErrNoSeek
	}
	pos := r.cb.Tell(r.datasource)
	if pos < 0 {
		return 0, fmt.Errorf("tell: %w", ErrRead)
	}
	return pos, nil
}

// Close invokes the close callback once.
func (r *CallbackReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cb.Close == nil {
		return nil
	}
	if r.cb.Close(r.datasource) != 0 {
		return False
	}
	return nil
}

// Stream returns r as a plain io.Reader when the datasource cannot seek,
// so decoders that check for io.Seeker take their streaming path.
func (r *CallbackReader) Stream() io.Reader {
	if r.Seekable() {
		return r
	}
	return readOnly{r}
}

type readOnly struct {
	r *CallbackReader
}

func (ro readOnly) Read(p []byte) (int, error) {
	return ro.r.Read(p)
}
