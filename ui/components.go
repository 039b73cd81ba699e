package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/transport"
)

// formatTimecode renders samples at sampleRate as mm:ss.mmm.
func formatTimecode(samples int64, sampleRate int) string {
	if sampleRate <= 0 {
		return "00:00.000"
	}
	totalMs := samples * 1000 / int64(sampleRate)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	sec := totalSec % 60
	min := totalSec / 60
	return fmt.Sprintf("%02d:%02d.%03d", min, sec, ms)
}

// RenderTransport renders the playback position report as a status card,
// the UI's only view onto the audio thread's state (spec §4.3).
func RenderTransport(pos bridge.PlaybackPosition, sig transport.TimeSignature) string {
	var rows []string

	state := StoppedStyle.Render("■ STOPPED")
	if pos.IsPlaying {
		state = PlayingStyle.Render("▶ PLAYING")
	}
	rows = append(rows, state)
	rows = append(rows, "")

	rows = append(rows, LabelStyle.Render("Time")+"  "+ValueStyle.Render(formatTimecode(pos.Samples, pos.SampleRate)))
	rows = append(rows, LabelStyle.Render("Bar.Beat")+"  "+ValueStyle.Render(fmt.Sprintf("%.0f.%.2f", pos.Bar, barBeat(pos.Beat))))
	rows = append(rows, LabelStyle.Render("Tempo")+"  "+ValueStyle.Render(fmt.Sprintf("%.1f bpm", pos.Tempo)))
	rows = append(rows, LabelStyle.Render("Signature")+"  "+ValueStyle.Render(fmt.Sprintf("%d/%d", sig.Numerator, sig.Denominator)))

	content := strings.Join(rows, "\n")
	return TransportStyle.Render(content)
}

// barBeat reduces the 1-based, running Beat count to the position within
// its bar (1..4), matching the fixed beats-per-bar divisor RecomputeBeatBar
// uses.
func barBeat(beat float64) float64 {
	b := beat - 1
	for b >= 4 {
		b -= 4
	}
	return b + 1
}

// RenderLoopState renders the loop toggle and its bounds, when set.
func RenderLoopState(looping bool, startSamples, endSamples int64, sampleRate int) string {
	if !looping {
		return LoopingStyle.Render("loop: off")
	}
	return LoopingStyle.Render(fmt.Sprintf("loop: %s - %s", formatTimecode(startSamples, sampleRate), formatTimecode(endSamples, sampleRate)))
}

// RenderHelp renders the help bar for the transport view.
func RenderHelp() string {
	help := "Space: Play/Pause  Home: Rewind  L: Loop  +/-: Tempo  D: Devices  Q: Quit"
	return HelpStyle.Render(help)
}

// RenderStatus renders the status bar with MIDI controller info and the
// playback runner's underrun count.
func RenderStatus(inPort, outPort string, underruns uint64) string {
	status := fmt.Sprintf("MIDI In: %s │ MIDI Out: %s │ Underruns: %d", inPort, outPort, underruns)
	return StatusStyle.Render(status)
}

// RenderErr renders an error banner, used for the last command/connection
// failure surfaced to the operator.
func RenderErr(err error) string {
	if err == nil {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(fmt.Sprintf("Error: %v", err))
}
