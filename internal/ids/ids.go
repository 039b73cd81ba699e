// Package ids defines the identifier types shared across the project model,
// asset library, pattern pool, and generator pool.
package ids

import "github.com/google/uuid"

// WaveformID identifies an entry in the asset library.
type WaveformID uuid.UUID

// PatternID identifies an entry in the pattern pool.
type PatternID uuid.UUID

// GeneratorID identifies an entry in the generator pool.
type GeneratorID uuid.UUID

// TrackID identifies a track.
type TrackID uuid.UUID

// ClipID identifies a clip placed on a track's timeline.
type ClipID uuid.UUID

// MixerChannelID identifies a mixer channel; it is always equal to the
// TrackID of the track it was created for, except for the master bus.
type MixerChannelID uuid.UUID

// NoteID identifies a note within a single pattern. Notes never move
// between patterns, so a counter scoped to the owning pattern is cheaper
// than a globally unique id and is what the (start_tick,key,velocity) sort
// and undo/redo machinery key off of.
type NoteID uint64

func NewWaveformID() WaveformID           { return WaveformID(uuid.New()) }
func NewPatternID() PatternID             { return PatternID(uuid.New()) }
func NewGeneratorID() GeneratorID         { return GeneratorID(uuid.New()) }
func NewTrackID() TrackID                 { return TrackID(uuid.New()) }
func NewClipID() ClipID                   { return ClipID(uuid.New()) }
func NewMixerChannelID() MixerChannelID   { return MixerChannelID(uuid.New()) }

func (id WaveformID) String() string         { return uuid.UUID(id).String() }
func (id PatternID) String() string          { return uuid.UUID(id).String() }
func (id GeneratorID) String() string        { return uuid.UUID(id).String() }
func (id TrackID) String() string            { return uuid.UUID(id).String() }
func (id ClipID) String() string             { return uuid.UUID(id).String() }
func (id MixerChannelID) String() string     { return uuid.UUID(id).String() }

// Nil reports the zero value for each id type, used to express "no
// generator"/"no mixer target" optional references without pointers.
var (
	NilWaveform WaveformID = WaveformID(uuid.Nil)
	NilPattern  PatternID  = PatternID(uuid.Nil)
	NilGenerator GeneratorID = GeneratorID(uuid.Nil)
)
