// Package codec defines the contract between a stream owner and a
// callback-driven decoder library.
//
// A Library never touches a byte stream directly. It is handed a Callbacks
// table and an opaque datasource value at Open, and every byte it consumes
// arrives through those callbacks. Results travel back as Status codes:
// zero or positive for success, negative for failure.
//
// Decoded PCM is always signed 16-bit little-endian, channels interleaved.
package codec

// Callbacks is the I/O table a Library drives. Every function receives the
// datasource that was passed to Library.Open.
type Callbacks struct {
	// Read fills p with up to size*nmemb bytes and returns the number of
	// bytes transferred. Zero means end of data.
	Read func(p []byte, size, nmemb int, datasource any) int

	// Seek repositions the datasource. whence is io.SeekStart,
	// io.SeekCurrent or io.SeekEnd. Returns 0 on success, -1 on failure.
	// A nil Seek marks the datasource as unseekable.
	Seek func(datasource any, offset int64, whence int) int

	// Close is invoked once when the session is cleared.
	Close func(datasource any) int

	// Tell returns the absolute position, or -1 on failure.
	Tell func(datasource any) int64
}

// Library opens decoder sessions over callback-driven datasources.
type Library interface {
	// Name identifies the format, e.g. "vorbis".
	Name() string

	// Open inspects the datasource and prepares a session. On a negative
	// status the returned Session is nil and Close has not been called.
	Open(datasource any, cb Callbacks) (Session, Status)
}

// Session is an open decoder. It is not safe for concurrent use.
type Session interface {
	// Info describes the given link, or the current one for link -1.
	// Returns nil when no such link exists.
	Info(link int) *Info

	// Comment returns the metadata of the given link, or nil.
	Comment(link int) *Comment

	// Streams is the number of logical links in the datasource.
	Streams() int

	// Seekable reports whether the datasource accepted seek callbacks.
	Seekable() bool

	// PCMTotal is the length of the link in samples per channel (all
	// links for -1), or a negative Status.
	PCMTotal(link int) int64

	// TimeTotal is the length of the link in milliseconds, or a negative
	// Status.
	TimeTotal(link int) int64

	// Read decodes into p and returns the number of bytes written, 0 at
	// end of stream or a negative Status. bitstream, when non-nil,
	// receives the index of the link the data belongs to.
	Read(p []byte, bitstream *int) int

	// PCMSeek moves the decode cursor to an exact sample.
	PCMSeek(pos int64) Status

	// TimeSeek moves the decode cursor to a time in milliseconds.
	TimeSeek(ms int64) Status

	// PCMTell is the sample position of the next sample returned by Read.
	PCMTell() int64

	// TimeTell is PCMTell in milliseconds.
	TimeTell() int64

	// Clear releases the session and invokes the Close callback.
	Clear() Status
}

// Info is the structural metadata of a link.
type Info struct {
	Codec          string
	Channels       int
	SampleRate     int
	BitsPerSample  int // Source resolution; decoded output is always 16-bit
	BitrateUpper   int // bits per second, 0 when unknown
	BitrateNominal int
	BitrateLower   int
}

// FrameSize is the size in bytes of one decoded sample frame.
func (i Info) FrameSize() int {
	return i.Channels * BytesPerSample
}

// Comment holds the tag metadata of a link.
type Comment struct {
	Vendor   string
	Comments []string
}
