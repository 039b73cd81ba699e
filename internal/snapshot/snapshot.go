// Package snapshot builds the audio thread's AudioRenderState (C3) from the
// editor-owned project model and republishes it through a triple buffer.
package snapshot

import (
	"sync"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/pattern"
	"github.com/sonatalabs/dawcore/internal/project"
	"github.com/sonatalabs/dawcore/internal/transport"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

// AudioGraph is the structural half of a snapshot: everything the
// sequencer and renderer need that only changes on structural edits.
type AudioGraph struct {
	Tracks         []*project.Track // sorted by id
	Patterns       map[ids.PatternID]*pattern.Pattern
	Mixer          project.MixerState
	Waveforms      map[ids.WaveformID]*waveform.Waveform
	MaxSampleIndex int64
	SampleRate     int
	BufferSize     int
}

// AudioRenderState is the full snapshot delivered to the audio thread.
// TransportSeq increments every time the transport half is rewritten, so
// the consumer can tell an editor-driven transport change apart from a
// graph-only republish carrying the same transport forward.
type AudioRenderState struct {
	Graph        AudioGraph
	Transport    transport.State
	TransportSeq uint64
}

func trackLess(a, b *project.Track) bool {
	return idLess(a.ID, b.ID)
}

func idLess(a, b ids.TrackID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func sortedTracks(app *project.ApplicationState) []*project.Track {
	tracks := make([]*project.Track, 0, len(app.Tracks))
	for _, t := range app.Tracks {
		tracks = append(tracks, t)
	}
	for i := 1; i < len(tracks); i++ {
		for j := i; j > 0 && trackLess(tracks[j], tracks[j-1]); j-- {
			tracks[j], tracks[j-1] = tracks[j-1], tracks[j]
		}
	}
	return tracks
}

func buildGraph(app *project.ApplicationState, sampleRate, bufferSize int) AudioGraph {
	patterns := make(map[ids.PatternID]*pattern.Pattern, len(app.Patterns))
	for id, p := range app.Patterns {
		patterns[id] = p
	}
	return AudioGraph{
		Tracks:         sortedTracks(app),
		Patterns:       patterns,
		Mixer:          app.Mixer,
		Waveforms:      app.Library.Snapshot(),
		MaxSampleIndex: app.MaxSampleIndex,
		SampleRate:     sampleRate,
		BufferSize:     bufferSize,
	}
}

// Builder maintains a mutex-guarded shadow snapshot that SyncAudioGraph and
// SyncTransport independently update, then republishes the composed whole
// to the triple buffer — so the two publish paths can interleave without
// racing each other, and the mutex is never held during audio-thread work.
type Builder struct {
	mu        sync.Mutex
	shadow    AudioRenderState
	hasShadow bool

	SampleRate int
	BufferSize int

	output *bridge.TripleBuffer[AudioRenderState]
}

// NewBuilder returns a builder publishing into output.
func NewBuilder(output *bridge.TripleBuffer[AudioRenderState], sampleRate, bufferSize int) *Builder {
	return &Builder{output: output, SampleRate: sampleRate, BufferSize: bufferSize}
}

// SyncAudioGraph rebuilds the graph half from app and republishes. Used
// whenever a structural change happens (tracks, clips, generators, assets).
func (b *Builder) SyncAudioGraph(app *project.ApplicationState) {
	b.mu.Lock()
	b.shadow.Graph = buildGraph(app, b.SampleRate, b.BufferSize)
	if !b.hasShadow {
		b.shadow.Transport = *app.Transport
		b.shadow.TransportSeq++
		b.hasShadow = true
	}
	state := b.shadow
	b.mu.Unlock()
	b.output.Publish(&state)
}

// SyncTransport rebuilds only the transport half and republishes, skipping
// the publish entirely if the transport is unchanged since the last call —
// the "skipped if unchanged" rule from spec §4.2.
func (b *Builder) SyncTransport(t *transport.State) {
	b.mu.Lock()
	if b.hasShadow && *t == b.shadow.Transport {
		b.mu.Unlock()
		return
	}
	b.shadow.Transport = *t
	b.shadow.TransportSeq++
	b.hasShadow = true
	state := b.shadow
	b.mu.Unlock()
	b.output.Publish(&state)
}
