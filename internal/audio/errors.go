package audio

import (
	"errors"
	"fmt"

	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// Failure kinds. Every error returned by a Stream wraps exactly one of these.
var (
	// ErrInit is returned when a decoder session cannot be opened.
	ErrInit = errors.New("decoder initialization failed")

	// ErrMetadata is returned when stream info or length is unavailable.
	ErrMetadata = errors.New("stream metadata unavailable")

	// ErrDecode is returned when a PCM read fails.
	ErrDecode = errors.New("decode failed")

	// ErrSeek is returned when a sample or time seek fails.
	ErrSeek = errors.New("seek failed")

	// ErrClosed is returned by operations on a closed Stream.
	ErrClosed = errors.New("stream is closed")

	// ErrNoCodec is returned when no decoder library was configured.
	ErrNoCodec = errors.New("no codec configured")
)

// Error describes a failed decoder call. It carries the decoder status so
// callers can log or match it without knowing the decoder's code table.
type Error struct {
	Op    string       // Operation, e.g. "seek"
	Codec string       // Library name
	Kind  error        // One of ErrInit, ErrMetadata, ErrDecode, ErrSeek
	Code  codec.Status // Decoder status
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s decoder failed to %s (code %d)", e.Codec, e.Op, int(e.Code))
}

// Unwrap exposes both the failure kind and the decoder status.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Code}
}

func newError(lib codec.Library, kind error, op string, code codec.Status) *Error {
	return &Error{Op: op, Codec: lib.Name(), Kind: kind, Code: code}
}
