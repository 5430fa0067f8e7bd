package audio

import (
	"fmt"
	"os"

	"github.com/linuxmatters/pcmbridge/internal/codec/registry"
)

// File is a Stream over a file it owns. Closing a File releases the decoder
// session first and the file second.
type File struct {
	*Stream
	file *os.File
}

// OpenFile opens path and a decoder session over it. When cfg.Codec is nil
// the format is detected from the file header, falling back to the
// extension.
func OpenFile(path string, cfg Config) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if cfg.Codec == nil {
		lib, err := registry.Detect(f)
		if err != nil {
			if lib, err = registry.ForPath(path); err != nil {
				f.Close()
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		cfg.Codec = lib
	}

	s, err := NewStream(f, cfg)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Stream: s, file: f}, nil
}

// Close releases the decoder session, then closes the file.
func (f *File) Close() error {
	err := f.Stream.Close()
	if f.file != nil {
		if cerr := f.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		f.file = nil
	}
	return err
}
