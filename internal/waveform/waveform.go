// Package waveform holds the immutable-after-load audio buffer type and the
// insertion-only asset library that owns instances of it.
package waveform

import (
	"fmt"
	"sync"

	"github.com/go-audio/audio"

	"github.com/sonatalabs/dawcore/internal/ids"
)

// Waveform is an immutable-after-load audio source. It is never mutated in
// place; a reload replaces the asset library's entry with a fresh value.
type Waveform struct {
	ID            ids.WaveformID
	Name          string
	Buffer        *audio.FloatBuffer // interleaved, len == ChannelCount*TotalFrames
	SampleRate    int
	ChannelCount  int
	RootNote      uint8
	FineTuneCents int32
	TrimStart     int64 // frames; 0 means "use full length"
	TrimEnd       int64 // frames; 0 means "use full length"
	IsLooping     bool
	Normalized    bool
}

// TotalFrames returns the number of frames (not samples) in Buffer.
func (w *Waveform) TotalFrames() int {
	if w.ChannelCount == 0 || w.Buffer == nil {
		return 0
	}
	return len(w.Buffer.Data) / w.ChannelCount
}

// DurationSeconds returns the waveform's play length at its own sample rate.
func (w *Waveform) DurationSeconds() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(w.TotalFrames()) / float64(w.SampleRate)
}

// EffectiveTrimEnd returns TrimEnd, falling back to TotalFrames when TrimEnd
// is the sentinel zero value.
func (w *Waveform) EffectiveTrimEnd() int64 {
	if w.TrimEnd == 0 {
		return int64(w.TotalFrames())
	}
	return w.TrimEnd
}

// Validate checks the buffer-length invariant from the data model.
func (w *Waveform) Validate() error {
	if w.Buffer == nil {
		return fmt.Errorf("waveform %s: nil buffer", w.ID)
	}
	if len(w.Buffer.Data)%w.ChannelCount != 0 {
		return fmt.Errorf("waveform %s: buffer length %d not a multiple of channel count %d", w.ID, len(w.Buffer.Data), w.ChannelCount)
	}
	return nil
}

// Sample returns the sample at the given frame/channel, without bounds
// checks beyond what Go's slice indexing already gives; callers in the
// render path are expected to have already clamped indices.
func (w *Waveform) Sample(frame, channel int) float64 {
	return w.Buffer.Data[frame*w.ChannelCount+channel]
}

// Library is the insertion-only asset library. Deletion cascades through
// tracks (handled by the project package) before the entry is released
// here; any snapshot already holding a *Waveform keeps it alive via Go's
// garbage collector regardless of library state.
type Library struct {
	mu      sync.RWMutex
	entries map[ids.WaveformID]*Waveform
	order   []ids.WaveformID
}

// NewLibrary returns an empty asset library.
func NewLibrary() *Library {
	return &Library{entries: make(map[ids.WaveformID]*Waveform)}
}

// Insert adds a waveform under its ID, assigning a fresh one first if the
// ID is unset, and returns that ID.
func (l *Library) Insert(w *Waveform) (ids.WaveformID, error) {
	if err := w.Validate(); err != nil {
		return ids.NilWaveform, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if w.ID == ids.NilWaveform {
		w.ID = ids.NewWaveformID()
	}
	l.entries[w.ID] = w
	l.order = append(l.order, w.ID)
	return w.ID, nil
}

// Replace atomically swaps the waveform stored under id, e.g. on user
// reload. Existing holders of the old *Waveform value are unaffected.
func (l *Library) Replace(id ids.WaveformID, w *Waveform) error {
	if err := w.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[id]; !ok {
		return fmt.Errorf("waveform %s: not found", id)
	}
	w.ID = id
	l.entries[id] = w
	return nil
}

// Get returns the waveform for id, or nil if absent.
func (l *Library) Get(id ids.WaveformID) *Waveform {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[id]
}

// Remove deletes the entry for id. Callers must have already cascaded
// deletion through any referencing clips.
func (l *Library) Remove(id ids.WaveformID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a shallow copy of the library suitable for embedding in
// an AudioRenderState: a fresh map pointing at the same *Waveform values.
func (l *Library) Snapshot() map[ids.WaveformID]*Waveform {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[ids.WaveformID]*Waveform, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}
