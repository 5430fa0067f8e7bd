package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/linuxmatters/pcmbridge/internal/codec"
)

// Teller is implemented by sources that report their position without
// seeking.
type Teller interface {
	Tell() (int64, error)
}

// errInvalidWhence is logged when the decoder passes an unknown seek origin.
var errInvalidWhence = errors.New("invalid whence")

// bridgeCallbacks builds the callback table for a source. Seek and Tell are
// left out for sources that cannot seek, which puts the decoder in
// streaming mode.
func bridgeCallbacks(seekable bool) codec.Callbacks {
	cb := codec.Callbacks{
		Read:  bridgeRead,
		Close: bridgeClose,
	}
	if seekable {
		cb.Seek = bridgeSeek
		cb.Tell = bridgeTell
	}
	return cb
}

// owner recovers the Stream registered as datasource.
func owner(op string, datasource any) (*Stream, bool) {
	s, ok := datasource.(*Stream)
	if !ok || s == nil {
		slog.Default().Error("decoder callback with foreign datasource", "op", op, "type", fmt.Sprintf("%T", datasource))
		return nil, false
	}
	return s, true
}

// contain must be deferred directly by each callback. It turns a panic in
// the source into a logged fault and lets the callback set its failure value.
func (s *Stream) contain(op string, fail func()) {
	if r := recover(); r != nil {
		s.fault(op, fmt.Errorf("panic: %v", r))
		fail()
	}
}

func (s *Stream) fault(op string, err error) {
	s.logger.Error("error reading "+s.lib.Name()+" data", "op", op, "err", err)
}

func bridgeRead(p []byte, size, nmemb int, datasource any) (n int) {
	s, ok := owner("read", datasource)
	if !ok {
		return 0
	}
	defer s.contain("read", func() { n = 0 })

	want := size * nmemb
	if want <= 0 {
		return 0
	}
	if want > len(p) {
		want = len(p)
	}

	var err error
	n, err = s.src.Read(p[:want])
	if n < 0 || n > want {
		s.fault("read", fmt.Errorf("source returned %d bytes for a %d byte request", n, want))
		return 0
	}
	if err != nil && !errors.Is(err, io.EOF) {
		// Bytes that did arrive are still handed over; the fault
		// resurfaces on the next call.
		s.fault("read", err)
	}
	return n
}

func bridgeSeek(datasource any, offset int64, whence int) (status int) {
	s, ok := owner("seek", datasource)
	if !ok {
		return -1
	}
	defer s.contain("seek", func() { status = -1 })

	switch whence {
	case io.SeekStart, io.SeekCurrent, io.SeekEnd:
	default:
		s.fault("seek", fmt.Errorf("%w %d", errInvalidWhence, whence))
		return -1
	}

	seeker, ok := s.src.(io.Seeker)
	if !ok {
		s.fault("seek", codec.ErrNoSeek)
		return -1
	}
	if _, err := seeker.Seek(offset, whence); err != nil {
		s.fault("seek", err)
		return -1
	}
	return 0
}

func bridgeTell(datasource any) (pos int64) {
	s, ok := owner("tell", datasource)
	if !ok {
		return -1
	}
	defer s.contain("tell", func() { pos = -1 })

	var err error
	switch src := s.src.(type) {
	case Teller:
		pos, err = src.Tell()
	case io.Seeker:
		pos, err = src.Seek(0, io.SeekCurrent)
	default:
		err = codec.ErrNoSeek
	}
	if err != nil {
		s.fault("tell", err)
		return -1
	}
	return pos
}

// bridgeClose never closes the source: the Stream borrows it.
func bridgeClose(any) int {
	return 0
}
