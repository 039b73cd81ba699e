// Package project implements the editor-owned project model (C2): tracks,
// clips, the mixer, and ApplicationState, all mutated under copy-on-write
// discipline so the audio thread never observes a torn structure and never
// deallocates anything itself.
package project

import (
	"bytes"

	"github.com/sonatalabs/dawcore/internal/ids"
)

// SourceKind is the closed set of things a Clip can place on a timeline.
type SourceKind int

const (
	SourceAudio SourceKind = iota
	SourceMidi
	SourceAutomation
)

// Source identifies what a Clip plays back. Exactly one of Waveform/Pattern
// is meaningful, selected by Kind; Automation clips are reserved (no-op in
// this core, per spec §4.6 step 5) and only carry an opaque id.
type Source struct {
	Kind         SourceKind
	Waveform     ids.WaveformID
	Pattern      ids.PatternID
	AutomationID ids.ClipID
}

// Clip is a timeline placement of a source.
type Clip struct {
	ID          ids.ClipID
	Name        string
	StartTime   int64 // timeline frames at project sample rate
	Source      Source
	OffsetStart int64 // frames into the source where playback begins
	LoopLength  int64 // the clip's timeline length, in frames
}

// EndTime returns the clip's timeline end: start_time + loop_length.
func (c Clip) EndTime() int64 { return c.StartTime + c.LoopLength }

// clipLess implements the track's ordered-clip-set key: (start_time, id).
func clipLess(a, b Clip) bool {
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// ResizeEdge selects which end of a clip a resize operation affects.
type ResizeEdge int

const (
	EdgeLeft ResizeEdge = iota
	EdgeRight
)
