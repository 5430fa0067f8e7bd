// Package registry maps format names, file extensions and magic bytes to
// codec libraries.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linuxmatters/pcmbridge/internal/codec"
	"github.com/linuxmatters/pcmbridge/internal/codec/flac"
	"github.com/linuxmatters/pcmbridge/internal/codec/mp3"
	"github.com/linuxmatters/pcmbridge/internal/codec/vorbis"
	"github.com/linuxmatters/pcmbridge/internal/codec/wav"
)

// SniffLen is the number of leading bytes Sniff inspects.
const SniffLen = 12

var libraries = map[string]codec.Library{
	vorbis.Name: vorbis.Library,
	mp3.Name:    mp3.Library,
	flac.Name:   flac.Library,
	wav.Name:    wav.Library,
}

var extensions = map[string]string{
	".ogg":  vorbis.Name,
	".oga":  vorbis.Name,
	".mp3":  mp3.Name,
	".flac": flac.Name,
	".wav":  wav.Name,
	".wave": wav.Name,
}

// Names returns the registered format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(libraries))
	for name := range libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the library registered under name.
func Lookup(name string) (codec.Library, error) {
	lib, ok := libraries[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return lib, nil
}

// ForPath picks a library from the file extension of path.
func ForPath(path string) (codec.Library, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extensions[ext]
	if !ok {
		return nil, fmt.Errorf("no codec for extension %q", ext)
	}
	return libraries[name], nil
}

// Sniff identifies the format from the first bytes of a stream.
func Sniff(header []byte) (codec.Library, error) {
	switch {
	case bytes.HasPrefix(header, []byte("OggS")):
		return vorbis.Library, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return flac.Library, nil
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return wav.Library, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return mp3.Library, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return mp3.Library, nil
	}
	return nil, fmt.Errorf("unrecognised stream header % x", header[:min(len(header), SniffLen)])
}

// Detect sniffs the header of rs and rewinds it to the start.
func Detect(rs io.ReadSeeker) (codec.Library, error) {
	header := make([]byte, SniffLen)
	n, err := io.ReadFull(rs, header)
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil {
		return nil, fmt.Errorf("rewind after sniffing: %w", serr)
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read stream header: %w", err)
	}
	return Sniff(header[:n])
}
