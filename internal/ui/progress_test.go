package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelPercent(t *testing.T) {
	m := NewModel("Decoding", 44100)

	if got := m.Percent(); got != -1 {
		t.Errorf("Expected -1 before any progress, got %f", got)
	}

	m.Update(Progress{Samples: 50, TotalSamples: 100})
	if got := m.Percent(); got != 0.5 {
		t.Errorf("Expected 0.5, got %f", got)
	}

	// Overshoot is clamped
	m.Update(Progress{Samples: 150, TotalSamples: 100})
	if got := m.Percent(); got != 1.0 {
		t.Errorf("Expected 1.0, got %f", got)
	}

	m.Update(Progress{Samples: 10, TotalSamples: -1})
	if got := m.Percent(); got != -1 {
		t.Errorf("Expected -1 for unknown total, got %f", got)
	}
}

func TestModelViewProgress(t *testing.T) {
	m := NewModel("Decoding", 44100)
	m.Update(Progress{Samples: 22050, TotalSamples: 44100, Elapsed: 250 * time.Millisecond})

	view := m.View()
	if !strings.Contains(view, "50%") {
		t.Errorf("Expected view to show 50%%, got:\n%s", view)
	}
	if !strings.Contains(view, "Decoding") {
		t.Errorf("Expected view to show the label, got:\n%s", view)
	}
}

func TestModelViewUnknownTotal(t *testing.T) {
	m := NewModel("Decoding", 44100)
	m.Update(Progress{Samples: 1234, TotalSamples: -1})

	view := m.View()
	if !strings.Contains(view, "1234 samples") {
		t.Errorf("Expected sample count in view, got:\n%s", view)
	}
}

func TestModelCompleteQuits(t *testing.T) {
	m := NewModel("Analysing", 44100)

	_, cmd := m.Update(Complete{Samples: 44100, Elapsed: time.Second})
	if cmd == nil {
		t.Fatal("Expected a command after completion")
	}
	if m.Percent() != 1.0 {
		t.Errorf("Expected 1.0 after completion, got %f", m.Percent())
	}

	_, cmd = m.Update(quitMsg{})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg after completion delay")
	}
}

func TestModelCompleteWithError(t *testing.T) {
	m := NewModel("Decoding", 44100)

	_, cmd := m.Update(Complete{Err: errors.New("boom")})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected immediate quit on error")
	}
	if !strings.Contains(m.View(), "Failed") {
		t.Error("Expected failure in view")
	}
}

func TestFormatLevel(t *testing.T) {
	testCases := []struct {
		level float64
		want  string
	}{
		{1.0, "0.0 dB"},
		{0.5, "-6.0 dB"},
		{0.1, "-20.0 dB"},
		{0, "-inf dB"},
	}

	for _, tc := range testCases {
		if got := FormatLevel(tc.level); got != tc.want {
			t.Errorf("FormatLevel(%f) = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestRenderSpectrum(t *testing.T) {
	if got := RenderSpectrum(nil, 10); got != "" {
		t.Errorf("Expected empty output for no data, got %q", got)
	}

	magnitudes := make([]float64, 1024)
	for i := range magnitudes {
		magnitudes[i] = float64(i)
	}

	out := RenderSpectrum(magnitudes, 32)
	if n := strings.Count(out, "▁") + strings.Count(out, "▂") + strings.Count(out, "▃") +
		strings.Count(out, "▄") + strings.Count(out, "▅") + strings.Count(out, "▆") +
		strings.Count(out, "▇") + strings.Count(out, "█"); n != 32 {
		t.Errorf("Expected 32 columns, got %d", n)
	}

	// Fewer bins than columns
	out = RenderSpectrum([]float64{1, 2}, 64)
	if strings.Count(out, "█") != 1 {
		t.Errorf("Expected one full block for the loudest bin, got %q", out)
	}
}
