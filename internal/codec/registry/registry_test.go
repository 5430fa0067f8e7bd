package registry

import (
	"bytes"
	"io"
	"testing"

	"github.com/linuxmatters/pcmbridge/internal/codec/flac"
	"github.com/linuxmatters/pcmbridge/internal/codec/mp3"
	"github.com/linuxmatters/pcmbridge/internal/codec/vorbis"
	"github.com/linuxmatters/pcmbridge/internal/codec/wav"
)

func TestNames(t *testing.T) {
	want := []string{"flac", "mp3", "vorbis", "wav"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"vorbis", "MP3", "Flac", "wav"} {
		lib, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) failed: %v", name, err)
			continue
		}
		if lib == nil {
			t.Errorf("Lookup(%q) returned nil library", name)
		}
	}

	if _, err := Lookup("opus"); err == nil {
		t.Error("Expected error for unknown codec, got nil")
	}
}

func TestForPath(t *testing.T) {
	testCases := []struct {
		path string
		want string
	}{
		{"episode.ogg", vorbis.Name},
		{"/music/track.OGA", vorbis.Name},
		{"podcast.mp3", mp3.Name},
		{"album/01.flac", flac.Name},
		{"take.wav", wav.Name},
		{"take.WAVE", wav.Name},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			lib, err := ForPath(tc.path)
			if err != nil {
				t.Fatalf("ForPath(%q) failed: %v", tc.path, err)
			}
			if lib.Name() != tc.want {
				t.Errorf("ForPath(%q) = %q, want %q", tc.path, lib.Name(), tc.want)
			}
		})
	}

	for _, path := range []string{"notes.txt", "noextension"} {
		if _, err := ForPath(path); err == nil {
			t.Errorf("Expected error for %q, got nil", path)
		}
	}
}

func TestSniff(t *testing.T) {
	testCases := []struct {
		name   string
		header []byte
		want   string
	}{
		{"ogg page", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00"), vorbis.Name},
		{"flac marker", []byte("fLaC\x00\x00\x00\x22"), flac.Name},
		{"riff wave", []byte("RIFF\x24\x08\x00\x00WAVE"), wav.Name},
		{"id3 tag", []byte("ID3\x04\x00\x00"), mp3.Name},
		{"mpeg frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, mp3.Name},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lib, err := Sniff(tc.header)
			if err != nil {
				t.Fatalf("Sniff failed: %v", err)
			}
			if lib.Name() != tc.want {
				t.Errorf("Sniff() = %q, want %q", lib.Name(), tc.want)
			}
		})
	}
}

func TestSniffUnknown(t *testing.T) {
	testCases := [][]byte{
		nil,
		[]byte("RIFF\x24\x08\x00\x00AVI "),
		[]byte("RIFF"),
		[]byte("hello world!"),
		{0xFF, 0x00},
	}

	for _, header := range testCases {
		if lib, err := Sniff(header); err == nil {
			t.Errorf("Sniff(% x) = %q, want error", header, lib.Name())
		}
	}
}

func TestDetectRewinds(t *testing.T) {
	data := []byte("fLaC\x00\x00\x00\x22rest of stream")
	r := bytes.NewReader(data)

	lib, err := Detect(r)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if lib.Name() != flac.Name {
		t.Errorf("Expected flac, got %q", lib.Name())
	}

	pos, _ := r.Seek(0, io.SeekCurrent)
	if pos != 0 {
		t.Errorf("Expected reader rewound to 0, got %d", pos)
	}
}

func TestDetectShortAndEmpty(t *testing.T) {
	// Shorter than SniffLen but still recognisable
	lib, err := Detect(bytes.NewReader([]byte("OggS")))
	if err != nil {
		t.Fatalf("Detect failed on short input: %v", err)
	}
	if lib.Name() != vorbis.Name {
		t.Errorf("Expected vorbis, got %q", lib.Name())
	}

	if _, err := Detect(bytes.NewReader(nil)); err == nil {
		t.Error("Expected error for empty input, got nil")
	}
}
