// Package playback is the audio-thread side of C9: Runner owns a local copy
// of the transport state, drains the command ring, drives a sequencer scan
// and a render pass each callback, and emits position reports at roughly
// sample_rate/60 cadence, all on the real-time thread. It sits above
// transport (the state arithmetic), sequencer, and renderer, which keeps
// those packages importable by the snapshot builder without a cycle.
package playback

import (
	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/renderer"
	"github.com/sonatalabs/dawcore/internal/sequencer"
	"github.com/sonatalabs/dawcore/internal/snapshot"
	"github.com/sonatalabs/dawcore/internal/transport"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

// Runner is the audio callback's owner-side state.
type Runner struct {
	SampleRate int

	graphInput *bridge.TripleBuffer[snapshot.AudioRenderState]
	commands   *bridge.Ring[bridge.Command]
	positions  *bridge.Ring[bridge.PlaybackPosition]

	live    *renderer.Live
	scratch *renderer.Scratch

	state              transport.State
	lastTransportSeq   uint64
	samplesSinceReport int64

	previews []*renderer.PreviewVoice

	// Underruns counts callbacks for which no snapshot had yet been
	// published; surfaced to internal/metrics by the caller.
	Underruns uint64

	// ResolveWaveform looks up a waveform by id for CmdPlayOneShot; wired by
	// the engine package, which owns the asset library. Nil means one-shot
	// previews are unsupported (no-op).
	ResolveWaveform func(ids.WaveformID) *waveform.Waveform

	// DispatchPreviewNote is an optional hook called for every
	// CmdPlayPreviewNote after the note is queued for the next scan; nil
	// (the engine package leaves it unset) means no hook. The no-op for a
	// generator with no live voice comes from queuePreviewNote and
	// mergePendingPreviewNotes, not from this hook.
	DispatchPreviewNote func(generatorID ids.GeneratorID, key, velocity uint8, isNoteOn bool)

	pendingPreview map[ids.GeneratorID][]generator.MidiEvent
}

// NewRunner wires a runner to read project state from graphInput, drain
// commands from commands, and report position onto positions.
func NewRunner(graphInput *bridge.TripleBuffer[snapshot.AudioRenderState], commands *bridge.Ring[bridge.Command], positions *bridge.Ring[bridge.PlaybackPosition], sampleRate, maxBlockFrames int) *Runner {
	scratch := &renderer.Scratch{}
	scratch.Prepare(maxBlockFrames)
	return &Runner{
		SampleRate: sampleRate,
		graphInput: graphInput,
		commands:   commands,
		positions:  positions,
		live:       renderer.NewLive(),
		scratch:    scratch,
		state:      transport.State{Bpm: 120, TimeSignature: transport.DefaultTimeSignature, Beat: 1, Bar: 1},
	}
}

// SetLive installs the engine's live generator-instance map; called once at
// startup and whenever a generator is added/removed.
func (r *Runner) SetLive(live *renderer.Live) { r.live = live }

// State returns a copy of the runner's current transport view, for tests
// and diagnostics; the audio thread itself never hands out references.
func (r *Runner) State() transport.State { return r.state }

// Step is the audio callback entry point: output is interleaved stereo,
// len(output)/2 frames. It implements spec §4.8's per-callback sequence.
func (r *Runner) Step(output []float32) {
	frames := len(output) / 2
	state := r.graphInput.Consume()
	if state == nil {
		r.Underruns++
		for i := range output {
			output[i] = 0
		}
		r.renderPreviews(output, frames)
		return
	}
	graph := &state.Graph

	// Adopt editor-driven transport changes (play/stop, loop bounds, tempo)
	// exactly once per publish. The playhead stays runner-owned: the editor
	// seeks through the command ring, and the end-of-song auto-stop below is
	// a local flag the editor only learns about from position frames.
	if state.TransportSeq != r.lastTransportSeq {
		r.lastTransportSeq = state.TransportSeq
		r.state.IsPlaying = state.Transport.IsPlaying
		r.state.IsLooping = state.Transport.IsLooping
		r.state.LoopStartSamples = state.Transport.LoopStartSamples
		r.state.LoopEndSamples = state.Transport.LoopEndSamples
		r.state.Bpm = state.Transport.Bpm
		r.state.TimeSignature = state.Transport.TimeSignature
		r.state.RecomputeBeatBar(graph.SampleRate)
	}

	r.drainCommands()

	if r.state.PastEnd(graph.MaxSampleIndex) {
		r.state.ResetPlayhead()
		r.reportPosition(graph.SampleRate)
	}

	for i := range output {
		output[i] = 0
	}

	if r.state.IsPlaying {
		t0 := r.state.PlayheadSamples
		t1 := t0 + int64(frames)
		scan := sequencer.Scan(graph, t0, t1, r.state.Bpm)
		r.mergePendingPreviewNotes(scan)
		renderer.Render(output, scan, graph, r.live, r.scratch)

		r.state.Advance(int64(frames), graph.SampleRate)
	} else {
		// No scan runs while stopped, so no voice can take a queued preview
		// note this block; drop it like any other unmatched note.
		for k := range r.pendingPreview {
			delete(r.pendingPreview, k)
		}
	}

	// A position frame is emitted at ~60Hz regardless of play state: while
	// stopped this is a static frame (for UI slider snap-back), per spec
	// §4.8 step 4; while playing it reflects the just-advanced playhead.
	r.samplesSinceReport += int64(frames)
	reportEvery := int64(graph.SampleRate) / 60
	if reportEvery <= 0 {
		reportEvery = 1
	}
	if r.samplesSinceReport >= reportEvery {
		r.samplesSinceReport = 0
		r.reportPosition(graph.SampleRate)
	}

	r.renderPreviews(output, frames)
}

func (r *Runner) renderPreviews(output []float32, frames int) {
	kept := r.previews[:0]
	for _, v := range r.previews {
		renderer.RenderPreviewVoice(output, frames, v)
		if !v.Retired {
			kept = append(kept, v)
		}
	}
	r.previews = kept
}

func (r *Runner) drainCommands() {
	r.commands.DrainInto(func(cmd bridge.Command) {
		switch cmd.Kind {
		case bridge.CmdSetPlayhead:
			r.state.Seek(cmd.Frames, r.SampleRate)
			r.reportPosition(r.SampleRate)
		case bridge.CmdResetPlayhead:
			r.state.ResetPlayhead()
			r.reportPosition(r.SampleRate)
		case bridge.CmdSetBpm:
			r.state.Bpm = cmd.Bpm
		case bridge.CmdStopAllPreviews:
			r.previews = r.previews[:0]
		case bridge.CmdPlayOneShot:
			if r.ResolveWaveform == nil {
				return
			}
			wf := r.ResolveWaveform(cmd.Waveform)
			if wf == nil {
				return
			}
			step := 1.0
			if r.SampleRate > 0 {
				step = float64(wf.SampleRate) / float64(r.SampleRate)
			}
			r.AddPreview(&renderer.PreviewVoice{
				Waveform: wf,
				Pos:      float64(wf.TrimStart),
				Step:     step,
			})
		case bridge.CmdPlayPreviewNote:
			r.queuePreviewNote(cmd.Generator, cmd.Key, cmd.Velocity, cmd.IsNoteOn)
			if r.DispatchPreviewNote != nil {
				r.DispatchPreviewNote(cmd.Generator, cmd.Key, cmd.Velocity, cmd.IsNoteOn)
			}
		}
	})
}

// queuePreviewNote stages a note event for the next sequencer scan; merged
// into whichever generator voice the scan produces this block for the same
// generator id. If no track routes to that generator this block, the event
// is dropped when the block ends, per spec §9 Open Question 2 ("no-op when
// there's no live voice to preview into").
func (r *Runner) queuePreviewNote(generatorID ids.GeneratorID, key, velocity uint8, isNoteOn bool) {
	if r.pendingPreview == nil {
		r.pendingPreview = make(map[ids.GeneratorID][]generator.MidiEvent)
	}
	var data generator.MidiEventData
	if isNoteOn {
		data = generator.NoteOn{Key: key, Velocity: velocity}
	} else {
		data = generator.NoteOff{Key: key}
	}
	r.pendingPreview[generatorID] = append(r.pendingPreview[generatorID], generator.MidiEvent{SampleOffset: 0, Data: data})
}

// mergePendingPreviewNotes folds any notes queued by queuePreviewNote into
// this block's scan result, for every generator id that has a voice this
// block; anything left unmatched is discarded (the no-op case).
func (r *Runner) mergePendingPreviewNotes(scan sequencer.ScanResult) {
	if len(r.pendingPreview) == 0 {
		return
	}
	for key, gv := range scan.GeneratorVoices {
		pending, ok := r.pendingPreview[key.Generator]
		if !ok {
			continue
		}
		gv.Events = append(gv.Events, pending...)
		generator.SortEvents(gv.Events)
		delete(r.pendingPreview, key.Generator)
	}
	// Anything still pending has no track-backed voice this block; drop it.
	for k := range r.pendingPreview {
		delete(r.pendingPreview, k)
	}
}

// AddPreview appends a preview voice started by the engine in response to a
// PlayOneShot command.
func (r *Runner) AddPreview(v *renderer.PreviewVoice) {
	r.previews = append(r.previews, v)
}

func (r *Runner) reportPosition(sampleRate int) {
	r.positions.Push(bridge.PlaybackPosition{
		Samples:    r.state.PlayheadSamples,
		Beat:       r.state.Beat,
		Bar:        r.state.Bar,
		Tempo:      r.state.Bpm,
		SampleRate: sampleRate,
		IsPlaying:  r.state.IsPlaying,
	})
}
