// Package pattern implements the note container (C1) and the pattern-level
// editing operations described in spec §4.1.
package pattern

import (
	"fmt"
	"sort"

	"github.com/sonatalabs/dawcore/internal/ids"
)

// TicksPerQuarterNote is the fixed tick resolution used throughout the
// engine: 960 ticks per quarter note.
const TicksPerQuarterNote = 960

// DefaultNoteDuration is used by AddNote when no duration is supplied.
const DefaultNoteDuration = TicksPerQuarterNote

// Note is a single event inside a Pattern.
type Note struct {
	ID           ids.NoteID
	StartTick    int64
	Duration     int64 // ticks, > 0
	Key          uint8 // MIDI key, 0..=127
	Velocity     uint8 // 0..=127
	Probability  float32
	MicroOffset  int32 // signed small ticks
	Mute         bool
}

// less implements the pattern's sort order: (start_tick, key, velocity).
func less(a, b Note) bool {
	if a.StartTick != b.StartTick {
		return a.StartTick < b.StartTick
	}
	if a.Key != b.Key {
		return a.Key < b.Key
	}
	return a.Velocity < b.Velocity
}

// Pattern is a container of notes plus a tick length.
type Pattern struct {
	ID          ids.PatternID
	Name        string
	LengthTicks int64
	Notes       []Note

	nextNoteID uint64
}

// New returns an empty pattern with the given nominal length.
func New(lengthTicks int64) *Pattern {
	return &Pattern{ID: ids.NewPatternID(), LengthTicks: lengthTicks}
}

// Clone performs the copy-on-write duplication used before mutation: a
// fresh Pattern value with its own Notes slice, safe to mutate without
// disturbing any older holder (e.g. the audio thread's current snapshot).
func (p *Pattern) Clone() *Pattern {
	clone := *p
	clone.Notes = append([]Note(nil), p.Notes...)
	return &clone
}

func (p *Pattern) sort() {
	sort.SliceStable(p.Notes, func(i, j int) bool { return less(p.Notes[i], p.Notes[j]) })
}

func (p *Pattern) extendLength(startTick, duration int64) {
	end := startTick + duration
	if end > p.LengthTicks {
		p.LengthTicks = end
	}
}

func clampProbability(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AddNote validates inputs, assigns a fresh note id, auto-extends
// LengthTicks if needed, inserts, and re-sorts. Returns the created note.
func (p *Pattern) AddNote(key uint8, startTick int64, duration int64) (Note, error) {
	if key > 127 {
		return Note{}, fmt.Errorf("invalid_key: %d", key)
	}
	if duration == 0 {
		duration = DefaultNoteDuration
	}
	if duration <= 0 {
		return Note{}, fmt.Errorf("invalid_duration: %d", duration)
	}
	p.nextNoteID++
	note := Note{
		ID:          ids.NoteID(p.nextNoteID),
		StartTick:   startTick,
		Duration:    duration,
		Key:         key,
		Velocity:    100,
		Probability: 1,
	}
	p.extendLength(startTick, duration)
	p.Notes = append(p.Notes, note)
	p.sort()
	return note, nil
}

// DeleteNote removes the note at index and returns it.
func (p *Pattern) DeleteNote(index int) (Note, error) {
	if index < 0 || index >= len(p.Notes) {
		return Note{}, fmt.Errorf("no_such_note: index %d", index)
	}
	note := p.Notes[index]
	p.Notes = append(p.Notes[:index:index], p.Notes[index+1:]...)
	if len(p.Notes) == 0 {
		p.Notes = nil
	}
	return note, nil
}

// MoveNote mutates the note at index in place and re-sorts.
func (p *Pattern) MoveNote(index int, newStartTick int64, newKey uint8) error {
	if index < 0 || index >= len(p.Notes) {
		return fmt.Errorf("no_such_note: index %d", index)
	}
	if newKey > 127 {
		return fmt.Errorf("invalid_key: %d", newKey)
	}
	n := &p.Notes[index]
	n.StartTick = newStartTick
	n.Key = newKey
	p.extendLength(newStartTick, n.Duration)
	p.sort()
	return nil
}

// ResizeNote changes the note's duration, extending LengthTicks if needed.
func (p *Pattern) ResizeNote(index int, newDuration int64) error {
	if index < 0 || index >= len(p.Notes) {
		return fmt.Errorf("no_such_note: index %d", index)
	}
	if newDuration <= 0 {
		return fmt.Errorf("invalid_duration: %d", newDuration)
	}
	n := &p.Notes[index]
	n.Duration = newDuration
	p.extendLength(n.StartTick, newDuration)
	return nil
}

// NoteParams is the set of optionally-updated fields for SetNoteParams.
type NoteParams struct {
	Velocity    *uint8
	Probability *float32
	MicroOffset *int32
	Mute        *bool
}

// SetNoteParams validates and applies velocity/probability/micro_offset/mute.
func (p *Pattern) SetNoteParams(index int, params NoteParams) error {
	if index < 0 || index >= len(p.Notes) {
		return fmt.Errorf("no_such_note: index %d", index)
	}
	if params.Velocity != nil && *params.Velocity > 127 {
		return fmt.Errorf("invalid_velocity: %d", *params.Velocity)
	}
	if params.Probability != nil && (*params.Probability < 0 || *params.Probability > 1) {
		return fmt.Errorf("invalid_probability: %f", *params.Probability)
	}
	n := &p.Notes[index]
	if params.Velocity != nil {
		n.Velocity = *params.Velocity
	}
	if params.Probability != nil {
		n.Probability = clampProbability(*params.Probability)
	}
	if params.MicroOffset != nil {
		n.MicroOffset = *params.MicroOffset
	}
	if params.Mute != nil {
		n.Mute = *params.Mute
	}
	return nil
}

// Quantize snaps each note's start_tick to the nearest multiple of
// gridSizeTicks and re-sorts. Idempotent: applying it twice in a row is
// equivalent to applying it once.
func (p *Pattern) Quantize(gridSizeTicks int64) error {
	if gridSizeTicks <= 0 {
		return fmt.Errorf("invalid_input: grid size must be positive, got %d", gridSizeTicks)
	}
	for i := range p.Notes {
		start := p.Notes[i].StartTick
		remainder := start % gridSizeTicks
		if remainder*2 >= gridSizeTicks {
			start += gridSizeTicks - remainder
		} else {
			start -= remainder
		}
		p.Notes[i].StartTick = start
	}
	p.sort()
	return nil
}

// Transpose adds semitones to every note's key; fails atomically (no notes
// mutated) if any note would leave [0,127].
func (p *Pattern) Transpose(semitones int) error {
	for _, n := range p.Notes {
		newKey := int(n.Key) + semitones
		if newKey < 0 || newKey > 127 {
			return fmt.Errorf("invalid_key: transpose would move key %d out of range", n.Key)
		}
	}
	for i := range p.Notes {
		p.Notes[i].Key = uint8(int(p.Notes[i].Key) + semitones)
	}
	p.sort()
	return nil
}

// InsertNote inserts a fully-formed note (used by paste), preserving its id.
func (p *Pattern) InsertNote(note Note) {
	if uint64(note.ID) >= p.nextNoteID {
		p.nextNoteID = uint64(note.ID)
	}
	p.extendLength(note.StartTick, note.Duration)
	p.Notes = append(p.Notes, note)
	p.sort()
}

// RestoreNote is InsertNote under the name used by the undo machinery.
func (p *Pattern) RestoreNote(note Note) { p.InsertNote(note) }

// IndexOf returns the index of the note with the given id, or -1.
func (p *Pattern) IndexOf(id ids.NoteID) int {
	for i, n := range p.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
