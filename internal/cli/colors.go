package cli

import "github.com/charmbracelet/lipgloss"

// Signal colour palette
// Shared colours for consistent branding across CLI and TUI
var (
	// Core colours (dark to bright)
	WaveNavy = lipgloss.Color("#1B3A5C") // Deep navy
	WaveBlue = lipgloss.Color("#1E90FF") // Dodger blue
	WaveTeal = lipgloss.Color("#20B2AA") // Light sea green
	WaveMint = lipgloss.Color("#7FFFD4") // Aquamarine

	// Accent colours
	SlateGray = lipgloss.Color("#708090") // Subtle text
	AlertRed  = lipgloss.Color("#E0433B") // Errors
	PassGreen = lipgloss.Color("#3CB371") // Success
)
