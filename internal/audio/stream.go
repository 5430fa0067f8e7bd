package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// CurrentLink selects the link currently being decoded.
const CurrentLink = -1

// Config configures a Stream.
type Config struct {
	// Codec is the decoder library to drive. Required.
	Codec codec.Library

	// Logger receives diagnostics for source faults contained by the
	// callback bridge. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stream decodes compressed audio from a borrowed byte source.
//
// The source is never closed by the Stream and must stay valid until Close
// returns. Seeking is available when the source implements io.Seeker; its
// position is reported through Teller when implemented, otherwise through
// Seek(0, io.SeekCurrent).
//
// A Stream is not safe for concurrent use.
type Stream struct {
	src     io.Reader
	lib     codec.Library
	logger  *slog.Logger
	session codec.Session
}

// NewStream opens a decoder session over src. On failure no session is
// retained and the returned error wraps ErrInit and the decoder status.
func NewStream(src io.Reader, cfg Config) (*Stream, error) {
	if isNil(src) {
		return nil, errors.New("nil source")
	}
	if cfg.Codec == nil {
		return nil, ErrNoCodec
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Stream{
		src:    src,
		lib:    cfg.Codec,
		logger: logger,
	}

	_, seekable := src.(io.Seeker)
	session, status := s.lib.Open(s, bridgeCallbacks(seekable))
	if status.Failed() || session == nil {
		if session != nil {
			session.Clear()
		}
		if !status.Failed() {
			status = codec.ErrFault
		}
		return nil, newError(s.lib, ErrInit, "initialize", status)
	}
	s.session = session

	s.logger.Debug("decoder session opened", "codec", s.lib.Name(), "seekable", session.Seekable())
	return s, nil
}

// Close releases the decoder session. It does not close the source.
// Calling Close more than once is a no-op.
func (s *Stream) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	status := s.session.Clear()
	s.session = nil
	s.logger.Debug("decoder session released", "codec", s.lib.Name())
	if status.Failed() {
		return fmt.Errorf("%s decoder failed to release session: %w", s.lib.Name(), status)
	}
	return nil
}

// isNil catches typed nils such as a nil *os.File in an io.Reader.
func isNil(src io.Reader) bool {
	if src == nil {
		return true
	}
	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (s *Stream) check() error {
	if s == nil || s.session == nil {
		return ErrClosed
	}
	return nil
}

// Codec returns the name of the decoder library, or "" for a nil Stream.
func (s *Stream) Codec() string {
	if s == nil || s.lib == nil {
		return ""
	}
	return s.lib.Name()
}

// Seekable reports whether sample and time seeks are possible.
func (s *Stream) Seekable() bool {
	return s.check() == nil && s.session.Seekable()
}

// Links returns the number of logical streams in the source.
func (s *Stream) Links() int {
	if s.check() != nil {
		return 0
	}
	return s.session.Streams()
}

// Info returns the structural metadata of a link, or of the current link
// for CurrentLink.
func (s *Stream) Info(link int) (codec.Info, error) {
	if err := s.check(); err != nil {
		return codec.Info{}, err
	}
	info := s.session.Info(link)
	if info == nil {
		return codec.Info{}, newError(s.lib, ErrMetadata, "retrieve stream info", codec.ErrInvalid)
	}
	return *info, nil
}

// Comment returns the tag metadata of a link. A nil Comment with a nil
// error means the link carries no tags.
func (s *Stream) Comment(link int) (*codec.Comment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if link < CurrentLink || link >= s.session.Streams() {
		return nil, newError(s.lib, ErrMetadata, "retrieve comments", codec.ErrInvalid)
	}
	return s.session.Comment(link), nil
}

// PCMTotal returns the length of a link in samples per channel.
func (s *Stream) PCMTotal(link int) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	r := s.session.PCMTotal(link)
	if r < 0 {
		return 0, newError(s.lib, ErrMetadata, "retrieve number of PCM samples", codec.Status(r))
	}
	return r, nil
}

// TimeTotal returns the duration of a link.
func (s *Stream) TimeTotal(link int) (time.Duration, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	r := s.session.TimeTotal(link)
	if r < 0 {
		return 0, newError(s.lib, ErrMetadata, "retrieve duration", codec.Status(r))
	}
	return time.Duration(r) * time.Millisecond, nil
}

// ReadPCM decodes signed 16-bit little-endian interleaved PCM into p. It
// returns 0 at end of stream; short reads are normal.
func (s *Stream) ReadPCM(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	var bitstream int
	r := s.session.Read(p, &bitstream)
	if r < 0 {
		return 0, newError(s.lib, ErrDecode, "decode the data", codec.Status(r))
	}
	return r, nil
}

// Read implements io.Reader over ReadPCM, returning io.EOF at end of stream.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.ReadPCM(p)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// SeekSample moves the decode cursor to an exact sample. After a failed
// seek the decode position is unspecified until the next successful seek.
func (s *Stream) SeekSample(pos int64) error {
	if err := s.check(); err != nil {
		return err
	}
	if status := s.session.PCMSeek(pos); status.Failed() {
		return newError(s.lib, ErrSeek, "seek", status)
	}
	return nil
}

// SeekTime moves the decode cursor to a time offset with millisecond
// precision.
func (s *Stream) SeekTime(offset time.Duration) error {
	if err := s.check(); err != nil {
		return err
	}
	if status := s.session.TimeSeek(offset.Milliseconds()); status.Failed() {
		return newError(s.lib, ErrSeek, "seek", status)
	}
	return nil
}

// PCMTell returns the sample position of the next decoded sample.
func (s *Stream) PCMTell() (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	r := s.session.PCMTell()
	if r < 0 {
		return 0, newError(s.lib, ErrMetadata, "report position", codec.Status(r))
	}
	return r, nil
}

// TimeTell returns the time position of the next decoded sample.
func (s *Stream) TimeTell() (time.Duration, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	r := s.session.TimeTell()
	if r < 0 {
		return 0, newError(s.lib, ErrMetadata, "report position", codec.Status(r))
	}
	return time.Duration(r) * time.Millisecond, nil
}
