// Package engine wires the process-wide singletons described in spec §9's
// "Global state" design note: the editor-owned project, the command-ring
// producer, the render-state publisher, and the plugin registry are built
// once by Init and torn down by Shutdown, safe to call repeatedly in tests.
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/device"
	"github.com/sonatalabs/dawcore/internal/editor"
	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/metrics"
	"github.com/sonatalabs/dawcore/internal/playback"
	"github.com/sonatalabs/dawcore/internal/project"
	"github.com/sonatalabs/dawcore/internal/renderer"
	"github.com/sonatalabs/dawcore/internal/snapshot"
	"github.com/sonatalabs/dawcore/internal/synth"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

// Config selects the hardware and buffer parameters Start negotiates the
// stream with; callers typically read these from device enumeration (an
// external collaborator) before calling Start.
type Config struct {
	SampleRate int
	BufferSize int
	Format     device.SampleFormat
}

// DefaultConfig matches the teacher's own CD-quality defaults.
var DefaultConfig = Config{SampleRate: 44100, BufferSize: 512, Format: device.FormatI16}

// Engine owns every process-wide singleton: the editor-facing API, the
// real-time runner, the live generator instances, the plugin registry, and
// the output stream. The audio callback thread only ever touches Runner and
// Live; everything else is editor-side.
type Engine struct {
	App      *project.ApplicationState
	Editor   *editor.Editor
	Registry *generator.Registry
	Live     *renderer.Live
	Runner   *playback.Runner
	Metrics  *metrics.Recorder

	commands  *bridge.Ring[bridge.Command]
	positions *bridge.Ring[bridge.PlaybackPosition]
	graph     *bridge.TripleBuffer[snapshot.AudioRenderState]
	builder   *snapshot.Builder
	dev       *device.Device
	cfg       Config

	reporterStop chan struct{}
}

// New builds an Engine without opening a hardware stream; tests construct
// one this way and drive Runner.Step directly.
func New(cfg Config) *Engine {
	app := project.New("untitled")
	app.Hardware = project.HardwareConfig{SampleRate: cfg.SampleRate}

	registry := generator.NewRegistry()
	registry.Register("dawcore.synth", func() generator.Generator { return synth.New() })

	commands := bridge.NewCommandRing()
	positions := bridge.NewPositionRing()
	graph := bridge.NewTripleBuffer[snapshot.AudioRenderState]()
	builder := snapshot.NewBuilder(graph, cfg.SampleRate, cfg.BufferSize)

	live := renderer.NewLive()
	runner := playback.NewRunner(graph, commands, positions, cfg.SampleRate, cfg.BufferSize)
	runner.SetLive(live)
	runner.ResolveWaveform = app.Library.Get

	e := &Engine{
		App:      app,
		Editor:   editor.New(app, builder, commands),
		Registry: registry,
		Live:     live,
		Runner:   runner,
		Metrics:  metrics.NewRecorder(),
		commands: commands,
		positions: positions,
		graph:    graph,
		builder:  builder,
		cfg:      cfg,
	}
	builder.SyncAudioGraph(app)
	builder.SyncTransport(app.Transport)
	return e
}

// AddGenerator instantiates pluginName, registers it in both the pool
// (editor side) and the live render map (audio side), and returns its id.
// Per spec §3, the pool entry and the live instance are separate: the pool
// is serializable state, the live value is re-materialized via Registry.
func (e *Engine) AddGenerator(name, pluginName string) (ids.GeneratorID, error) {
	inst, live, err := e.App.AddGenerator(e.Registry, name, pluginName)
	if err != nil {
		return ids.GeneratorID{}, fmt.Errorf("add_generator: %w", err)
	}
	live.Prepare(e.cfg.SampleRate, e.cfg.BufferSize)
	for id, v := range inst.Parameters {
		live.SetParameter(id, v)
	}
	e.Live.Set(inst.ID, live)
	return inst.ID, nil
}

// SetGeneratorParameter updates a generator's pool entry and pushes the same
// value to its live instance, so the next Render call already reflects the
// change without requiring a fresh snapshot (spec §5's short, non-blocking
// generator-pool lock).
func (e *Engine) SetGeneratorParameter(id ids.GeneratorID, paramID int, value float64) error {
	if err := e.App.SetGeneratorParameter(id, paramID, value); err != nil {
		return fmt.Errorf("set_generator_parameter: %w", err)
	}
	if live, ok := e.Live.Generators()[id]; ok {
		live.SetParameter(paramID, value)
	}
	return nil
}

// AddMidiTrackWithGenerator creates a generator of pluginName and a MIDI
// track routed to it in one step, matching the editor API's
// add_new_midi_track_with_generator convenience operation.
func (e *Engine) AddMidiTrackWithGenerator(trackName, pluginName string) (ids.TrackID, ids.GeneratorID, error) {
	genID, err := e.AddGenerator(trackName, pluginName)
	if err != nil {
		return ids.TrackID{}, ids.GeneratorID{}, err
	}
	trackID := e.App.AddNewMidiTrackWithGenerator(trackName, genID)
	e.Editor.Builder.SyncAudioGraph(e.App)
	return trackID, genID, nil
}

// LoadWaveform inserts w into the asset library and returns its id. File
// decoding itself is an external collaborator per the non-goals; callers
// hand in an already-decoded *waveform.Waveform.
func (e *Engine) LoadWaveform(w *waveform.Waveform) (ids.WaveformID, error) {
	id, err := e.App.Library.Insert(w)
	if err != nil {
		return ids.WaveformID{}, err
	}
	e.Editor.Builder.SyncAudioGraph(e.App)
	return id, nil
}

// Start opens the hardware output stream and begins pulling audio through
// Runner.Step, then launches the ~60Hz position-reporter loop. Safe to call
// once per Engine; call Stop before calling Start again.
func (e *Engine) Start(report func(bridge.PlaybackPosition)) error {
	format := e.cfg.Format
	if format != device.FormatI16 && format != device.FormatU8 {
		format = device.FormatI16
	}
	dev, err := device.Open(e.cfg.SampleRate, e.cfg.BufferSize, format, e.Runner.Step)
	if err != nil {
		return fmt.Errorf("engine start: %w", err)
	}
	e.dev = dev
	e.dev.Start()

	e.reporterStop = make(chan struct{})
	go e.runReporter(report)
	return nil
}

// runReporter is the position-reporter thread (spec §5): every ~1/60 s it
// drains the position ring and forwards frames to report, samples the
// render-health counters into Metrics, and logs any command-ring drops
// since the previous tick.
func (e *Engine) runReporter(report func(bridge.PlaybackPosition)) {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	poller := metrics.Poller{
		CommandDropped:  e.commands.Dropped,
		PositionDropped: e.positions.Dropped,
		Underruns:       func() uint64 { return e.Runner.Underruns },
	}
	lastCommandDropped := e.commands.Dropped()
	for {
		select {
		case <-e.reporterStop:
			return
		case <-ticker.C:
			e.positions.DrainInto(func(p bridge.PlaybackPosition) {
				if report != nil {
					report(p)
				}
			})
			if d := e.commands.Dropped(); d > lastCommandDropped {
				log.Printf("engine: command ring full, %d command(s) dropped", d-lastCommandDropped)
				lastCommandDropped = d
			}
			poller.Sample(e.Metrics)
		}
	}
}

// Stop tears down the output stream, which is itself the stop signal per
// spec §9's "dropping the stream handle is the stop signal", and halts the
// reporter goroutine. Safe to call on an Engine that was never Start-ed.
func (e *Engine) Stop() {
	if e.reporterStop != nil {
		close(e.reporterStop)
		e.reporterStop = nil
	}
	if e.dev != nil {
		e.dev.Close()
		e.dev = nil
	}
}

// PushCommand exposes the command ring to external producers (a MIDI
// controller handler, a test harness) that are not themselves the editor
// API, e.g. internal/midiio.Handler.
func (e *Engine) PushCommand(cmd bridge.Command) bool { return e.commands.Push(cmd) }

// Commands returns the command ring itself, for producers like
// internal/midiio.Handler that are constructed around a ring reference
// rather than a single Push call.
func (e *Engine) Commands() *bridge.Ring[bridge.Command] { return e.commands }

var (
	singletonMu sync.Mutex
	singleton   *Engine
)

// Init constructs the process-wide Engine singleton if one does not
// already exist, matching spec §9's init_engine()/shutdown_engine()
// contract. Returns the existing singleton if called again without an
// intervening Shutdown.
func Init(cfg Config) *Engine {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton == nil {
		singleton = New(cfg)
	}
	return singleton
}

// Current returns the process-wide singleton, or nil if Init has not been
// called.
func Current() *Engine {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singleton
}

// Shutdown stops and releases the process-wide singleton so a subsequent
// Init starts fresh; safe to call when no singleton exists.
func Shutdown() {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton == nil {
		return
	}
	singleton.Stop()
	singleton = nil
	log.Print("engine: shutdown complete")
}
