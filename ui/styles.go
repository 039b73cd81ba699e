package ui

import "github.com/charmbracelet/lipgloss"

// Color palette, carried over from the teacher's mixer chrome.
var (
	ColorPrimary    = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary  = lipgloss.Color("#10B981") // Green
	ColorAccent     = lipgloss.Color("#F59E0B") // Amber
	ColorMuted      = lipgloss.Color("#EF4444") // Red
	ColorPlaying    = lipgloss.Color("#3B82F6") // Blue
	ColorBackground = lipgloss.Color("#1F2937") // Dark gray
	ColorSurface    = lipgloss.Color("#374151") // Medium gray
	ColorText       = lipgloss.Color("#F9FAFB") // Light gray
	ColorTextDim    = lipgloss.Color("#9CA3AF") // Dimmed text
)

// Styles
var (
	// Base styles
	BaseStyle = lipgloss.NewStyle().
			Background(ColorBackground).
			Foreground(ColorText)

	// Title bar
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// Transport status card
	TransportStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurface).
			Padding(1, 2).
			Align(lipgloss.Center)

	// Labels inside the transport card
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTextDim)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	PlayingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBackground).
			Background(ColorPlaying).
			Padding(0, 1)

	StoppedStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Padding(0, 1)

	LoopingStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			MarginTop(1)

	// Status bar
	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			MarginTop(1)

	// Device selector styles
	DeviceListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurface).
			Padding(1).
			Width(50)

	DeviceItemStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 2)

	DeviceSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorBackground).
				Background(ColorPrimary).
				Padding(0, 2)
)
