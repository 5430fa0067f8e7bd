package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/pcmbridge/internal/cli"
)

// Progress represents a progress update from a decode or analysis run
type Progress struct {
	Samples      int64
	TotalSamples int64 // -1 when the source length is unknown
	Bytes        int64 // PCM bytes written so far
	Peak         float64
	RMS          float64
	Elapsed      time.Duration
}

// Complete signals the end of a run
type Complete struct {
	Samples  int64
	Bytes    int64
	Elapsed  time.Duration
	Spectrum []float64 // Averaged magnitude spectrum, analysis only
	Err      error
}

// quitMsg is sent when it's time to quit after showing completion
type quitMsg struct{}

// Model implements the Bubbletea progress model shared by decode and analyze
type Model struct {
	progressBar progress.Model
	label       string
	sampleRate  int

	last     Progress
	complete *Complete

	width           int
	completionDelay time.Duration
}

// NewModel creates a progress model. sampleRate converts sample counts to
// audio time for the speed readout.
func NewModel(label string, sampleRate int) *Model {
	p := progress.New(
		progress.WithGradient(string(cli.WaveNavy), string(cli.WaveMint)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		label:           label,
		sampleRate:      sampleRate,
		last:            Progress{TotalSamples: -1},
		completionDelay: time.Second,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(min(msg.Width-30, 50), 10)
		return m, nil

	case Progress:
		m.last = msg
		return m, nil

	case Complete:
		m.complete = &msg
		// Errors are printed by the caller once the UI has gone
		if msg.Err != nil {
			return m, tea.Quit
		}
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return quitMsg{}
		})

	case quitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		// Allow any key to skip the completion screen delay
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.WaveMint).
		Render("pcmbridge")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.WaveTeal).Render(m.label))
	s.WriteString("\n\n")

	if m.complete != nil {
		m.renderComplete(&s)
	} else {
		m.renderProgress(&s)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.WaveBlue).
		Padding(1, 2).
		Render(s.String())
}

// Percent returns the completed fraction, or -1 when the total is unknown
func (m *Model) Percent() float64 {
	if m.complete != nil && m.complete.Err == nil {
		return 1.0
	}
	if m.last.TotalSamples <= 0 {
		return -1
	}
	return math.Min(float64(m.last.Samples)/float64(m.last.TotalSamples), 1.0)
}

func (m *Model) renderProgress(s *strings.Builder) {
	percent := m.Percent()
	switch {
	case percent >= 0:
		s.WriteString("Progress: ")
		s.WriteString(m.progressBar.ViewAs(percent))
		s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	case m.last.Samples > 0:
		// No total, show sample count
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Working..."))
		s.WriteString(fmt.Sprintf("  %d samples", m.last.Samples))
	default:
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting..."))
	}
	s.WriteString("\n\n")

	timing := fmt.Sprintf("Time: %s  │  Speed: %.1fx realtime",
		cli.FormatDuration(m.last.Elapsed), m.speed(m.last.Samples, m.last.Elapsed))
	if m.last.Bytes > 0 {
		timing += "  │  " + cli.FormatBytes(m.last.Bytes)
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(timing))

	if m.last.Peak > 0 {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("Peak: %s  RMS: %s", FormatLevel(m.last.Peak), FormatLevel(m.last.RMS))))
	}
}

func (m *Model) renderComplete(s *strings.Builder) {
	if m.complete.Err != nil {
		s.WriteString(cli.ErrorStyle.Render("✗ Failed"))
		return
	}

	s.WriteString(cli.SuccessStyle.Render("✓ Complete"))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	s.WriteString(fmt.Sprintf("%s%d\n", dimLabel.Render("Samples: "), m.complete.Samples))
	if m.complete.Bytes > 0 {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("PCM:     "), cli.FormatBytes(m.complete.Bytes)))
	}
	s.WriteString(fmt.Sprintf("%s%s (%.1fx realtime)",
		dimLabel.Render("Time:    "),
		cli.FormatDuration(m.complete.Elapsed),
		m.speed(m.complete.Samples, m.complete.Elapsed)))

	if len(m.complete.Spectrum) > 0 {
		width := 64
		if m.width > 10 {
			width = min(m.width-10, 64)
		}
		s.WriteString("\n\n")
		s.WriteString(dimLabel.Render("Spectrum:"))
		s.WriteString("\n")
		s.WriteString(RenderSpectrum(m.complete.Spectrum, width))
	}
}

// speed is audio time processed per unit of wall time
func (m *Model) speed(samples int64, elapsed time.Duration) float64 {
	if elapsed <= 0 || m.sampleRate <= 0 {
		return 0
	}
	audioTime := float64(samples) / float64(m.sampleRate)
	return audioTime / elapsed.Seconds()
}

// FormatLevel formats a linear 0.0-1.0 level in dBFS
func FormatLevel(level float64) string {
	if level <= 0 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", 20*math.Log10(level))
}

// RenderSpectrum draws magnitudes as a single row of block characters,
// averaging adjacent bins down to width columns
func RenderSpectrum(magnitudes []float64, width int) string {
	if len(magnitudes) == 0 || width <= 0 {
		return ""
	}
	width = min(width, len(magnitudes))

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	colors := []lipgloss.Color{cli.WaveNavy, cli.WaveBlue, cli.WaveTeal, cli.WaveMint}

	bars := make([]float64, width)
	maxHeight := 0.0
	for col := range bars {
		start := col * len(magnitudes) / width
		end := (col + 1) * len(magnitudes) / width
		var sum float64
		for _, v := range magnitudes[start:end] {
			sum += v
		}
		bars[col] = sum / float64(end-start)
		maxHeight = math.Max(maxHeight, bars[col])
	}

	if maxHeight == 0 {
		maxHeight = 1.0 // Avoid division by zero
	}

	var result strings.Builder
	for _, h := range bars {
		normalised := h / maxHeight
		blockIdx := int(normalised * float64(len(blocks)-1))
		colorIdx := int(normalised * float64(len(colors)-1))
		result.WriteString(lipgloss.NewStyle().
			Foreground(colors[colorIdx]).
			Render(string(blocks[blockIdx])))
	}

	return result.String()
}
