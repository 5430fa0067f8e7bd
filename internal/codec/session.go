package codec

import (
	"errors"
	"fmt"
	"io"
)

// Decoder is the format-specific half of a session. NewLibrary wraps it
// with position tracking, link validation and Status translation.
type Decoder interface {
	// Info describes the stream. Codec is filled in by the library.
	Info() Info

	// Comment returns tag metadata, or nil when the format carries none.
	Comment() *Comment

	// Length is the number of samples per channel, negative when unknown.
	Length() int64

	// Decode returns the next block of interleaved samples. It returns
	// either data or an error, never both; io.EOF marks the end.
	Decode() ([]int16, error)

	// SeekSample positions the decoder so the next Decode starts exactly
	// at pos.
	SeekSample(pos int64) error
}

// OpenFunc inspects the datasource behind r and returns a Decoder.
type OpenFunc func(r *CallbackReader) (Decoder, error)

// maxEmptyBlocks bounds consecutive empty Decode results within one Read.
const maxEmptyBlocks = 64

// NewLibrary returns a Library that opens sessions with open.
func NewLibrary(name string, open OpenFunc) Library {
	return &library{name: name, open: open}
}

type library struct {
	name string
	open OpenFunc
}

func (l *library) Name() string {
	return l.name
}

func (l *library) Open(datasource any, cb Callbacks) (sess Session, status Status) {
	if cb.Read == nil {
		return nil, ErrFault
	}
	r := NewCallbackReader(cb, datasource)

	defer func() {
		if p := recover(); p != nil {
			sess, status = nil, ErrBadHeader
		}
	}()

	dec, err := l.open(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, StatusOf(err, ErrRead)
		}
		return nil, StatusOf(err, ErrNotFormat)
	}

	info := dec.Info()
	if info.Channels <= 0 || info.SampleRate <= 0 {
		return nil, ErrBadHeader
	}
	info.Codec = l.name

	return &session{
		r:       r,
		dec:     dec,
		info:    info,
		comment: dec.Comment(),
		total:   dec.Length(),
	}, OK
}

// StatusOf extracts the Status carried by err, or returns fallback.
func StatusOf(err error, fallback Status) Status {
	if err == nil {
		return OK
	}
	var s Status
	if errors.As(err, &s) && s.Failed() {
		return s
	}
	return fallback
}

type session struct {
	r       *CallbackReader
	dec     Decoder
	info    Info
	comment *Comment
	total   int64

	pos     int64
	pending []int16
	eof     bool
	cleared bool
}

func validLink(link int) bool {
	return link == -1 || link == 0
}

func (s *session) Info(link int) *Info {
	if !validLink(link) {
		return nil
	}
	info := s.info
	return &info
}

func (s *session) Comment(link int) *Comment {
	if !validLink(link) || s.comment == nil {
		return nil
	}
	c := Comment{Vendor: s.comment.Vendor, Comments: append([]string(nil), s.comment.Comments...)}
	return &c
}

func (s *session) Streams() int {
	return 1
}

func (s *session) Seekable() bool {
	return s.r.Seekable()
}

func (s *session) PCMTotal(link int) int64 {
	if s.cleared || !validLink(link) || !s.Seekable() || s.total < 0 {
		return int64(ErrInvalid)
	}
	return s.total
}

func (s *session) TimeTotal(link int) int64 {
	total := s.PCMTotal(link)
	if total < 0 {
		return total
	}
	return total * 1000 / int64(s.info.SampleRate)
}

func (s *session) Read(p []byte, bitstream *int) int {
	if s.cleared {
		return int(ErrInvalid)
	}
	frameSize := s.info.FrameSize()
	if len(p) < frameSize {
		return int(ErrInvalid)
	}
	if bitstream != nil {
		*bitstream = 0
	}

	want := int64(len(p) / frameSize)
	if s.total >= 0 {
		remaining := s.total - s.pos
		if remaining <= 0 {
			return 0
		}
		want = min(want, remaining)
	}

	channels := s.info.Channels
	for empty := 0; len(s.pending) < channels; empty++ {
		if s.eof {
			return 0
		}
		if empty >= maxEmptyBlocks {
			return int(ErrBadPacket)
		}
		block, err := s.decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.eof = true
				s.pending = nil
				return 0
			}
			return int(StatusOf(err, ErrBadPacket))
		}
		s.pending = block
	}

	frames := min(want, int64(len(s.pending)/channels))
	n := int(frames) * channels
	PutInt16s(p, s.pending[:n])
	s.pending = s.pending[n:]
	if len(s.pending) < channels {
		s.pending = nil
	}
	s.pos += frames
	return int(frames) * frameSize
}

func (s *session) decode() (block []int16, err error) {
	defer func() {
		if p := recover(); p != nil {
			block, err = nil, fmt.Errorf("decoder panic: %v: %w", p, ErrBadPacket)
		}
	}()
	return s.dec.Decode()
}

func (s *session) PCMSeek(pos int64) Status {
	if s.cleared {
		return ErrInvalid
	}
	if !s.Seekable() {
		return ErrNoSeek
	}
	if pos < 0 || (s.total >= 0 && pos > s.total) {
		return ErrInvalid
	}

	s.pending = nil
	s.eof = false
	if pos == s.total {
		s.pos = pos
		return OK
	}
	if err := s.seek(pos); err != nil {
		return StatusOf(err, ErrRead)
	}
	s.pos = pos
	return OK
}

func (s *session) seek(pos int64) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("decoder panic: %v: %w", p, ErrFault)
		}
	}()
	return s.dec.SeekSample(pos)
}

func (s *session) TimeSeek(ms int64) Status {
	if ms < 0 {
		return ErrInvalid
	}
	return s.PCMSeek(ms * int64(s.info.SampleRate) / 1000)
}

func (s *session) PCMTell() int64 {
	if s.cleared {
		return int64(ErrInvalid)
	}
	return s.pos
}

func (s *session) TimeTell() int64 {
	if s.cleared {
		return int64(ErrInvalid)
	}
	return s.pos * 1000 / int64(s.info.SampleRate)
}

func (s *session) Clear() Status {
	if s.cleared {
		return OK
	}
	s.cleared = true
	s.pending = nil

	status := OK
	if c, ok := s.dec.(io.Closer); ok {
		if err := c.Close(); err != nil {
			status = StatusOf(err, False)
		}
	}
	if err := s.r.Close(); err != nil {
		status = StatusOf(err, False)
	}
	return status
}
