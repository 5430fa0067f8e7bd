package codec

import "fmt"

// Status is a decoder return code. Zero is success, negative values are
// failures. The values follow the vorbisfile family of codes so that logs
// read the same regardless of the format being decoded.
type Status int

// Status codes.
const (
	OK           Status = 0
	False        Status = -1   // Generic failure
	EOF          Status = -2   // End of stream reached during an operation
	Hole         Status = -3   // Interruption in the data
	ErrRead      Status = -128 // Read from the datasource failed
	ErrFault     Status = -129 // Internal inconsistency
	ErrImpl      Status = -130 // Feature not implemented
	ErrInvalid   Status = -131 // Invalid argument or unavailable value
	ErrNotFormat Status = -132 // Data is not in the decoder's format
	ErrBadHeader Status = -133 // Invalid stream header
	ErrVersion   Status = -134 // Unsupported bitstream version
	ErrNotAudio  Status = -135 // Stream carries no audio
	ErrBadPacket Status = -136 // Packet could not be decoded
	ErrBadLink   Status = -137 // Invalid link or stream structure
	ErrNoSeek    Status = -138 // Datasource is not seekable
)

var statusMessages = map[Status]string{
	OK:           "no error",
	False:        "operation failed",
	EOF:          "end of stream",
	Hole:         "interruption in data",
	ErrRead:      "datasource read error",
	ErrFault:     "internal decoder fault",
	ErrImpl:      "feature not implemented",
	ErrInvalid:   "invalid argument",
	ErrNotFormat: "data is not in a recognised format",
	ErrBadHeader: "invalid stream header",
	ErrVersion:   "unsupported bitstream version",
	ErrNotAudio:  "stream contains no audio",
	ErrBadPacket: "invalid packet",
	ErrBadLink:   "invalid link",
	ErrNoSeek:    "stream is not seekable",
}

// Error implements the error interface.
func (s Status) Error() string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return fmt.Sprintf("unknown status %d", int(s))
}

// Failed reports whether s signals a failure.
func (s Status) Failed() bool {
	return s < 0
}
