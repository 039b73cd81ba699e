// Command dawcored is the demo shell: it brings up the process-wide engine
// singleton, opens the default output device, connects whatever MIDI
// controller the operator selects, and renders a thin bubbletea status view
// over the transport (spec §9's init_engine/run_block/shutdown_engine
// lifecycle, driven interactively instead of by a host).
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/engine"
	"github.com/sonatalabs/dawcore/internal/midiio"
	"github.com/sonatalabs/dawcore/ui"
)

// View represents the current screen.
type View int

const (
	ViewTransport View = iota
	ViewDevices
)

// positionMsg carries a drained playback position report into the
// bubbletea update loop.
type positionMsg bridge.PlaybackPosition

// Model is the top-level bubbletea model. It owns no audio-thread state
// itself: every field here is editor-side or display-side.
type Model struct {
	eng            *engine.Engine
	midi           *midiio.Handler
	positions      chan bridge.PlaybackPosition
	deviceSelector *ui.DeviceSelector
	currentView    View
	lastPos        bridge.PlaybackPosition
	width, height  int
	err            error
}

func (m Model) Init() tea.Cmd {
	return listenForPosition(m.positions)
}

// listenForPosition blocks on the position channel and re-issues itself,
// matching the teacher's own listenForMidi pattern for streaming a
// callback-driven channel into tea.Msg values.
func listenForPosition(ch chan bridge.PlaybackPosition) tea.Cmd {
	return func() tea.Msg {
		return positionMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case positionMsg:
		m.lastPos = bridge.PlaybackPosition(msg)
		return m, listenForPosition(m.positions)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewTransport:
		return m.handleTransportKeys(msg)
	case ViewDevices:
		return m.handleDeviceKeys(msg)
	}
	return m, nil
}

func (m Model) handleTransportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := m.eng.App
	switch msg.String() {
	case "q", "ctrl+c":
		m.eng.Stop()
		if m.midi != nil {
			m.midi.Close()
		}
		return m, tea.Quit

	case " ":
		m.eng.Editor.SetPlaying(!app.Transport.IsPlaying)

	case "home":
		m.eng.Editor.SetPlayhead(0)

	case "l":
		m.eng.Editor.SetLooping(!app.Transport.IsLooping)

	case "+", "=":
		m.eng.Editor.SetBpm(app.Transport.Bpm + 1)

	case "-":
		m.eng.Editor.SetBpm(app.Transport.Bpm - 1)

	case "d":
		m.deviceSelector = ui.NewDeviceSelector()
		m.currentView = ViewDevices
	}

	return m, nil
}

func (m Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.eng.Stop()
		if m.midi != nil {
			m.midi.Close()
		}
		return m, tea.Quit

	case "esc":
		m.currentView = ViewTransport

	case "up", "k":
		m.deviceSelector.MoveUp()

	case "down", "j":
		m.deviceSelector.MoveDown()

	case "tab":
		m.deviceSelector.ToggleFocus()

	case "r":
		m.deviceSelector.Refresh()

	case "enter":
		inPort := m.deviceSelector.GetSelectedInput()
		outPort := m.deviceSelector.GetSelectedOutput()
		if err := m.midi.Connect(inPort, outPort); err != nil {
			m.err = err
		}
		m.currentView = ViewTransport
	}

	return m, nil
}

func (m Model) View() string {
	var content string

	switch m.currentView {
	case ViewTransport:
		content = m.renderTransportView()
	case ViewDevices:
		content = ui.RenderDeviceSelector(m.deviceSelector)
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderTransportView() string {
	var sections []string

	sections = append(sections, ui.TitleStyle.Render("🎚️  DAWCORE"))

	if m.err != nil {
		sections = append(sections, ui.RenderErr(m.err))
	}

	app := m.eng.App
	sections = append(sections, ui.RenderTransport(m.lastPos, app.Transport.TimeSignature))
	sections = append(sections, ui.RenderLoopState(app.Transport.IsLooping, app.Transport.LoopStartSamples, app.Transport.LoopEndSamples, app.Hardware.SampleRate))

	inPort, outPort := "None", "None"
	if m.midi != nil {
		inPort, outPort = m.midi.InputPortName(), m.midi.OutputPortName()
	}
	sections = append(sections, ui.RenderStatus(inPort, outPort, m.eng.Runner.Underruns))
	sections = append(sections, ui.RenderHelp())

	return lipgloss.JoinVertical(lipgloss.Center, sections...)
}

func main() {
	eng := engine.Init(engine.DefaultConfig)

	_, genID, err := eng.AddMidiTrackWithGenerator("lead", "dawcore.synth")
	if err != nil {
		fmt.Printf("failed to set up default track: %v\n", err)
		os.Exit(1)
	}

	positions := make(chan bridge.PlaybackPosition, bridge.PositionRingCapacity)
	report := func(p bridge.PlaybackPosition) {
		select {
		case positions <- p:
		default:
		}
	}
	if err := eng.Start(report); err != nil {
		fmt.Printf("failed to open audio device: %v\n", err)
		os.Exit(1)
	}

	midiHandler := midiio.NewHandler(eng.Commands(), genID, midiio.BpmRange{Min: 60, Max: 200})

	model := Model{
		eng:         eng,
		midi:        midiHandler,
		positions:   positions,
		currentView: ViewTransport,
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	engine.Shutdown()
}
