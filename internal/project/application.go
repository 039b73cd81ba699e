package project

import (
	"fmt"
	"sync"

	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/pattern"
	"github.com/sonatalabs/dawcore/internal/transport"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

// ClipboardContent is the closed set of things copy/cut can hold (spec
// §4.1's ApplicationState.clipboard), mirroring the notes-only clipboard
// of the original editor rather than growing a general-purpose variant.
type ClipboardContent struct {
	Notes []pattern.Note // nil means Empty
}

func (c ClipboardContent) IsEmpty() bool { return len(c.Notes) == 0 }

// HardwareConfig records the user's chosen audio device and sample rate,
// applied by the engine package at startup.
type HardwareConfig struct {
	DeviceName string
	SampleRate int
}

// ApplicationState is the editor-owned project model (spec §3/§4.1): every
// pattern, generator, track, and mixer channel the user can address, plus
// transient editor-only selection state. It is never handed to the audio
// thread directly; snapshot.Builder derives an AudioRenderState from it.
type ApplicationState struct {
	Name string

	patternsMu sync.RWMutex
	Patterns   map[ids.PatternID]*pattern.Pattern

	generatorsMu sync.RWMutex
	Generators   map[ids.GeneratorID]*GeneratorInstance

	Tracks      map[ids.TrackID]*Track
	TrackOrder  []ids.TrackID // display order

	Mixer     MixerState
	Transport *transport.State
	Library   *waveform.Library

	MaxSampleIndex int64

	SelectedTrack ids.TrackID
	SelectedClip  ids.ClipID
	Clipboard     ClipboardContent

	Hardware HardwareConfig
}

// New returns an empty project at the default transport/mixer state.
func New(name string) *ApplicationState {
	return &ApplicationState{
		Name:       name,
		Patterns:   make(map[ids.PatternID]*pattern.Pattern),
		Generators: make(map[ids.GeneratorID]*GeneratorInstance),
		Tracks:     make(map[ids.TrackID]*Track),
		Mixer:      NewMixerState(),
		Transport:  transport.New(),
		Library:    waveform.NewLibrary(),
	}
}

// AddPattern inserts a new, empty pattern into the pool and returns its id.
func (a *ApplicationState) AddPattern(lengthTicks int64) ids.PatternID {
	p := pattern.New(lengthTicks)
	a.patternsMu.Lock()
	a.Patterns[p.ID] = p
	a.patternsMu.Unlock()
	return p.ID
}

// MutatePattern looks up the pattern, clones it, runs fn against the
// clone, and swaps the pool entry — the copy-on-write discipline spec
// §4.1's per-note operations rely on.
func (a *ApplicationState) MutatePattern(id ids.PatternID, fn func(*pattern.Pattern) error) error {
	a.patternsMu.Lock()
	defer a.patternsMu.Unlock()
	p, ok := a.Patterns[id]
	if !ok {
		return fmt.Errorf("no_such_pattern: %s", id)
	}
	clone := p.Clone()
	if err := fn(clone); err != nil {
		return err
	}
	a.Patterns[id] = clone
	return nil
}

// AddGenerator instantiates plugin via the registry, stores a pool entry
// seeded with its default parameters, and returns the live instance
// alongside the pool id — callers (the engine package) own wiring the live
// generator.Generator into the render graph.
func (a *ApplicationState) AddGenerator(registry *generator.Registry, name, pluginName string) (*GeneratorInstance, generator.Generator, error) {
	live, err := registry.Create(pluginName)
	if err != nil {
		return nil, nil, err
	}
	defaults := make(map[int]float64)
	for _, p := range live.DefaultParameters() {
		defaults[p.ID] = p.Default
	}
	inst := NewGeneratorInstance(name, pluginName, defaults)

	a.generatorsMu.Lock()
	a.Generators[inst.ID] = inst
	a.generatorsMu.Unlock()
	return inst, live, nil
}

// SetGeneratorParameter records a parameter override on the pool entry
// under the generator-pool's readers-writer lock (spec §5: "the editor
// holds each generator behind a readers-writer primitive so parameter
// changes don't require rebuilding the snapshot"). It does not itself
// touch the live generator.Generator; callers (the engine package) push the
// same value to the live instance so both views stay in sync.
func (a *ApplicationState) SetGeneratorParameter(id ids.GeneratorID, paramID int, value float64) error {
	a.generatorsMu.Lock()
	defer a.generatorsMu.Unlock()
	inst, ok := a.Generators[id]
	if !ok {
		return fmt.Errorf("no_such_generator: %s", id)
	}
	inst.SetParameter(paramID, value)
	return nil
}

// RemoveGenerator deletes the pool entry and cascades deletion through
// every MIDI clip on every track that referenced one of its patterns, and
// through the pattern pool entries themselves, per spec §4.1's cascade
// delete rule. ownedPatterns is the set of pattern ids owned by this
// generator.
func (a *ApplicationState) RemoveGenerator(id ids.GeneratorID, ownedPatterns []ids.PatternID) error {
	a.generatorsMu.Lock()
	if _, ok := a.Generators[id]; !ok {
		a.generatorsMu.Unlock()
		return fmt.Errorf("no_such_generator: %s", id)
	}
	delete(a.Generators, id)
	a.generatorsMu.Unlock()

	for _, patternID := range ownedPatterns {
		for trackID, track := range a.Tracks {
			clone := track.Clone()
			clone.RemoveClipsByPattern(patternID)
			a.Tracks[trackID] = clone
		}
		a.patternsMu.Lock()
		delete(a.Patterns, patternID)
		a.patternsMu.Unlock()
	}
	for trackID, track := range a.Tracks {
		if track.Generator == id {
			clone := track.Clone()
			clone.Generator = ids.NilGenerator
			a.Tracks[trackID] = clone
		}
	}
	a.recomputeMaxSampleIndex()
	return nil
}

// RemoveAudioSource deletes a waveform from the library, cascading through
// every clip that referenced it. Each affected track is cloned before
// mutation so a snapshot the audio thread already holds is never touched.
func (a *ApplicationState) RemoveAudioSource(id ids.WaveformID) {
	for trackID, track := range a.Tracks {
		clone := track.Clone()
		clone.RemoveClipBySourceID(id)
		a.Tracks[trackID] = clone
	}
	a.Library.Remove(id)
	a.recomputeMaxSampleIndex()
}

// AddNewTrack appends an empty audio track and returns its id.
func (a *ApplicationState) AddNewTrack(name string) ids.TrackID {
	t := NewTrack(name, TrackAudio)
	a.Tracks[t.ID] = t
	a.TrackOrder = append(a.TrackOrder, t.ID)
	a.Mixer.Channels[ids.MixerChannelID(t.ID)] = NewMixerChannel(ids.MixerChannelID(t.ID), name)
	return t.ID
}

// AddNewMidiTrackWithGenerator appends a MIDI track routed to generatorID.
func (a *ApplicationState) AddNewMidiTrackWithGenerator(name string, generatorID ids.GeneratorID) ids.TrackID {
	t := NewTrack(name, TrackMidi)
	t.Generator = generatorID
	a.Tracks[t.ID] = t
	a.TrackOrder = append(a.TrackOrder, t.ID)
	a.Mixer.Channels[ids.MixerChannelID(t.ID)] = NewMixerChannel(ids.MixerChannelID(t.ID), name)
	return t.ID
}

// RemoveTrack deletes a track and its dedicated mixer channel.
func (a *ApplicationState) RemoveTrack(id ids.TrackID) {
	delete(a.Tracks, id)
	for i, existing := range a.TrackOrder {
		if existing == id {
			a.TrackOrder = append(a.TrackOrder[:i], a.TrackOrder[i+1:]...)
			break
		}
	}
	delete(a.Mixer.Channels, ids.MixerChannelID(id))
	a.recomputeMaxSampleIndex()
}

// AddClipToTrack clones the target track, adds the clip, and swaps it in.
func (a *ApplicationState) AddClipToTrack(trackID ids.TrackID, c Clip) error {
	track, ok := a.Tracks[trackID]
	if !ok {
		return fmt.Errorf("no_such_track: %s", trackID)
	}
	clone := track.Clone()
	if err := clone.AddClip(c); err != nil {
		return err
	}
	a.Tracks[trackID] = clone
	a.recomputeMaxSampleIndex()
	return nil
}

// DeleteClipFromTrack clones the target track, removes the clip, and swaps
// it in.
func (a *ApplicationState) DeleteClipFromTrack(trackID ids.TrackID, clipID ids.ClipID) (Clip, error) {
	track, ok := a.Tracks[trackID]
	if !ok {
		return Clip{}, fmt.Errorf("no_such_track: %s", trackID)
	}
	clone := track.Clone()
	removed, found := clone.RemoveClip(clipID)
	if !found {
		return Clip{}, fmt.Errorf("no_such_clip: %s", clipID)
	}
	a.Tracks[trackID] = clone
	a.recomputeMaxSampleIndex()
	return removed, nil
}

// recomputeMaxSampleIndex refreshes the project-wide cached end from every
// track's own cache, per spec §4.8's end-of-song condition.
func (a *ApplicationState) recomputeMaxSampleIndex() {
	var max int64
	for _, t := range a.Tracks {
		if t.MaxSampleIndex > max {
			max = t.MaxSampleIndex
		}
	}
	a.MaxSampleIndex = max
}

// OrderedTracks returns tracks in display order.
func (a *ApplicationState) OrderedTracks() []*Track {
	out := make([]*Track, 0, len(a.TrackOrder))
	for _, id := range a.TrackOrder {
		out = append(out, a.Tracks[id])
	}
	return out
}
