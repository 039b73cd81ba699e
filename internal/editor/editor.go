// Package editor implements the editor API (C10): the operation surface
// exposed to the UI collaborator, layered over the project model, the
// command ring, and the snapshot publisher.
package editor

import (
	"fmt"
	"strings"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/pattern"
	"github.com/sonatalabs/dawcore/internal/project"
	"github.com/sonatalabs/dawcore/internal/snapshot"
)

// Editor is the editor-side facade: every mutating call here either
// succeeds and publishes a new snapshot, or returns a typed *Error and
// leaves the project in its pre-call state.
type Editor struct {
	App     *project.ApplicationState
	History *History
	Builder *snapshot.Builder
	Commands *bridge.Ring[bridge.Command]

	// ResetGeneratorsOnSeek is a stored flag (default off) that no operation
	// in this package reads: seeks never reset live generator voices,
	// whatever its value, and voices release naturally.
	ResetGeneratorsOnSeek bool
}

// New returns an editor over app, publishing through builder and queuing
// UI->audio commands onto commands.
func New(app *project.ApplicationState, builder *snapshot.Builder, commands *bridge.Ring[bridge.Command]) *Editor {
	return &Editor{App: app, History: NewHistory(), Builder: builder, Commands: commands}
}

func (e *Editor) publishGraph() { e.Builder.SyncAudioGraph(e.App) }
func (e *Editor) publishTransport() { e.Builder.SyncTransport(e.App.Transport) }

// AddNote validates and inserts a note into pattern patternID.
func (e *Editor) AddNote(patternID ids.PatternID, key uint8, startTick, duration int64) (pattern.Note, error) {
	var created pattern.Note
	err := e.App.MutatePattern(patternID, func(p *pattern.Pattern) error {
		n, err := p.AddNote(key, startTick, duration)
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return pattern.Note{}, wrapPatternErr("add_note", err)
	}
	e.History.Push(AddNote{Pattern: patternID, Note: created})
	e.publishGraph()
	return created, nil
}

// DeleteNote removes the note with noteID from patternID.
func (e *Editor) DeleteNote(patternID ids.PatternID, noteID ids.NoteID) (pattern.Note, error) {
	var removed pattern.Note
	err := e.App.MutatePattern(patternID, func(p *pattern.Pattern) error {
		idx := p.IndexOf(noteID)
		if idx < 0 {
			return fmt.Errorf("no_such_note: %d", noteID)
		}
		n, err := p.DeleteNote(idx)
		if err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		return pattern.Note{}, wrapPatternErr("delete_note", err)
	}
	e.History.Push(DeleteNote{Pattern: patternID, Note: removed})
	e.publishGraph()
	return removed, nil
}

// MoveNote relocates a note within its pattern.
func (e *Editor) MoveNote(patternID ids.PatternID, noteID ids.NoteID, newTick int64, newKey uint8) error {
	var oldTick int64
	var oldKey uint8
	err := e.App.MutatePattern(patternID, func(p *pattern.Pattern) error {
		idx := p.IndexOf(noteID)
		if idx < 0 {
			return fmt.Errorf("no_such_note: %d", noteID)
		}
		oldTick, oldKey = p.Notes[idx].StartTick, p.Notes[idx].Key
		return p.MoveNote(idx, newTick, newKey)
	})
	if err != nil {
		return wrapPatternErr("move_note", err)
	}
	e.History.Push(MoveNote{Pattern: patternID, NoteID: noteID, OldTick: oldTick, OldKey: oldKey, NewTick: newTick, NewKey: newKey})
	e.publishGraph()
	return nil
}

// ResizeNote changes a note's duration.
func (e *Editor) ResizeNote(patternID ids.PatternID, noteID ids.NoteID, newDuration int64) error {
	var oldDuration int64
	err := e.App.MutatePattern(patternID, func(p *pattern.Pattern) error {
		idx := p.IndexOf(noteID)
		if idx < 0 {
			return fmt.Errorf("no_such_note: %d", noteID)
		}
		oldDuration = p.Notes[idx].Duration
		return p.ResizeNote(idx, newDuration)
	})
	if err != nil {
		return wrapPatternErr("resize_note", err)
	}
	e.History.Push(ResizeNote{Pattern: patternID, NoteID: noteID, OldDuration: oldDuration, NewDuration: newDuration})
	e.publishGraph()
	return nil
}

// ChangeNoteParams applies velocity/probability/micro_offset/mute updates;
// not itself undoable per spec (only structural note ops are tracked).
func (e *Editor) ChangeNoteParams(patternID ids.PatternID, noteID ids.NoteID, params pattern.NoteParams) error {
	err := e.App.MutatePattern(patternID, func(p *pattern.Pattern) error {
		idx := p.IndexOf(noteID)
		if idx < 0 {
			return fmt.Errorf("no_such_note: %d", noteID)
		}
		return p.SetNoteParams(idx, params)
	})
	if err != nil {
		return wrapPatternErr("change_note_params", err)
	}
	e.publishGraph()
	return nil
}

// CopyPatternNotes copies the given notes to the clipboard without
// mutating the pattern.
func (e *Editor) CopyPatternNotes(patternID ids.PatternID, noteIDs []ids.NoteID) error {
	notes, err := e.collectNotes(patternID, noteIDs)
	if err != nil {
		return err
	}
	e.App.Clipboard = project.ClipboardContent{Notes: notes}
	return nil
}

// CutPatternNotes copies then deletes the given notes as one history batch.
func (e *Editor) CutPatternNotes(patternID ids.PatternID, noteIDs []ids.NoteID) error {
	notes, err := e.collectNotes(patternID, noteIDs)
	if err != nil {
		return err
	}
	e.App.Clipboard = project.ClipboardContent{Notes: notes}

	e.History.BeginBatch()
	for _, id := range noteIDs {
		if _, err := e.DeleteNote(patternID, id); err != nil {
			e.History.EndBatch()
			return err
		}
	}
	e.History.EndBatch()
	return nil
}

func (e *Editor) collectNotes(patternID ids.PatternID, noteIDs []ids.NoteID) ([]pattern.Note, error) {
	p, ok := e.App.Patterns[patternID]
	if !ok {
		return nil, newErr("copy_pattern_notes", NotFound, fmt.Errorf("no_such_pattern: %s", patternID))
	}
	out := make([]pattern.Note, 0, len(noteIDs))
	for _, id := range noteIDs {
		idx := p.IndexOf(id)
		if idx < 0 {
			continue
		}
		out = append(out, p.Notes[idx])
	}
	return out, nil
}

// PastePatternNotes shifts the clipboard's notes so their earliest start
// lands on playheadTick, inserts them into targetPattern, and records a
// single Batch history entry (spec §4.9, scenario 5).
func (e *Editor) PastePatternNotes(targetPattern ids.PatternID, playheadTick int64) error {
	if e.App.Clipboard.IsEmpty() {
		return nil
	}
	minStart := e.App.Clipboard.Notes[0].StartTick
	for _, n := range e.App.Clipboard.Notes[1:] {
		if n.StartTick < minStart {
			minStart = n.StartTick
		}
	}
	shift := playheadTick - minStart

	e.History.BeginBatch()
	err := e.App.MutatePattern(targetPattern, func(p *pattern.Pattern) error {
		for _, n := range e.App.Clipboard.Notes {
			created, err := p.AddNote(n.Key, n.StartTick+shift, n.Duration)
			if err != nil {
				return err
			}
			e.History.Push(AddNote{Pattern: targetPattern, Note: created})
		}
		return nil
	})
	e.History.EndBatch()
	if err != nil {
		return wrapPatternErr("paste_pattern_notes", err)
	}
	e.publishGraph()
	return nil
}

// CreateClip adds clip to trackID.
func (e *Editor) CreateClip(trackID ids.TrackID, clip project.Clip) error {
	if clip.ID == (ids.ClipID{}) {
		clip.ID = ids.NewClipID()
	}
	if err := e.App.AddClipToTrack(trackID, clip); err != nil {
		return newErr("create_clip", NotFound, err)
	}
	e.publishGraph()
	return nil
}

// DeleteClip removes clipID from trackID.
func (e *Editor) DeleteClip(trackID ids.TrackID, clipID ids.ClipID) error {
	if _, err := e.App.DeleteClipFromTrack(trackID, clipID); err != nil {
		return newErr("delete_clip", NotFound, err)
	}
	e.publishGraph()
	return nil
}

// ResizeClip applies a left- or right-edge resize per spec §4.9's slip-edit
// rules.
func (e *Editor) ResizeClip(trackID ids.TrackID, clipID ids.ClipID, edge project.ResizeEdge, newTime int64) error {
	track, ok := e.App.Tracks[trackID]
	if !ok {
		return newErr("resize_clip", NotFound, fmt.Errorf("no_such_track: %s", trackID))
	}
	clip, idx, found := track.FindClip(clipID)
	if !found {
		return newErr("resize_clip", NotFound, fmt.Errorf("no_such_clip: %s", clipID))
	}

	switch edge {
	case project.EdgeRight:
		if newTime <= clip.StartTime {
			return newErr("resize_clip", InvalidInput, fmt.Errorf("new_time must exceed start_time"))
		}
		clip.LoopLength = newTime - clip.StartTime
	case project.EdgeLeft:
		oldEnd := clip.EndTime()
		if newTime >= oldEnd {
			return newErr("resize_clip", InvalidInput, fmt.Errorf("left-edge resize must stay before clip end"))
		}
		delta := newTime - clip.StartTime
		newOffset := clip.OffsetStart + delta
		if newOffset < 0 {
			return newErr("resize_clip", InvalidInput, fmt.Errorf("resize would move offset_start negative"))
		}
		if srcLen := sourceLength(e.App, clip); srcLen > 0 && newOffset > srcLen-1 {
			newOffset = srcLen - 1
		}
		clip.StartTime = newTime
		clip.OffsetStart = newOffset
		clip.LoopLength = oldEnd - newTime
	}

	cloned := track.Clone()
	cloned.ReplaceClip(idx, clip)
	e.App.Tracks[trackID] = cloned
	e.publishGraph()
	return nil
}

// sourceLength returns the waveform length backing an audio clip, or 0 if
// not an audio clip / not found — used only to clamp the left-edge resize
// offset per spec §9's explicit strengthening.
func sourceLength(app *project.ApplicationState, clip project.Clip) int64 {
	if clip.Source.Kind != project.SourceAudio {
		return 0
	}
	wf := app.Library.Get(clip.Source.Waveform)
	if wf == nil {
		return 0
	}
	return int64(wf.TotalFrames())
}

// Undo pops the most recent action and applies its inverse.
func (e *Editor) Undo() error {
	a, ok := e.History.PopUndo()
	if !ok {
		return nil
	}
	if err := e.applyInverse(a); err != nil {
		return newErr("undo", Internal, err)
	}
	e.publishGraph()
	return nil
}

// Redo re-applies the most recently undone action.
func (e *Editor) Redo() error {
	a, ok := e.History.PopRedo()
	if !ok {
		return nil
	}
	if err := e.applyForward(a); err != nil {
		return newErr("redo", Internal, err)
	}
	e.publishGraph()
	return nil
}

func (e *Editor) applyInverse(a Action) error {
	switch v := a.(type) {
	case AddNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			idx := p.IndexOf(v.Note.ID)
			if idx < 0 {
				return fmt.Errorf("no_such_note: %d", v.Note.ID)
			}
			_, err := p.DeleteNote(idx)
			return err
		})
	case DeleteNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			p.RestoreNote(v.Note)
			return nil
		})
	case MoveNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			idx := p.IndexOf(v.NoteID)
			if idx < 0 {
				return fmt.Errorf("no_such_note: %d", v.NoteID)
			}
			return p.MoveNote(idx, v.OldTick, v.OldKey)
		})
	case ResizeNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			idx := p.IndexOf(v.NoteID)
			if idx < 0 {
				return fmt.Errorf("no_such_note: %d", v.NoteID)
			}
			return p.ResizeNote(idx, v.OldDuration)
		})
	case Batch:
		for i := len(v.Actions) - 1; i >= 0; i-- {
			if err := e.applyInverse(v.Actions[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown action type %T", a)
}

func (e *Editor) applyForward(a Action) error {
	switch v := a.(type) {
	case AddNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			p.RestoreNote(v.Note)
			return nil
		})
	case DeleteNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			idx := p.IndexOf(v.Note.ID)
			if idx < 0 {
				return fmt.Errorf("no_such_note: %d", v.Note.ID)
			}
			_, err := p.DeleteNote(idx)
			return err
		})
	case MoveNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			idx := p.IndexOf(v.NoteID)
			if idx < 0 {
				return fmt.Errorf("no_such_note: %d", v.NoteID)
			}
			return p.MoveNote(idx, v.NewTick, v.NewKey)
		})
	case ResizeNote:
		return e.App.MutatePattern(v.Pattern, func(p *pattern.Pattern) error {
			idx := p.IndexOf(v.NoteID)
			if idx < 0 {
				return fmt.Errorf("no_such_note: %d", v.NoteID)
			}
			return p.ResizeNote(idx, v.NewDuration)
		})
	case Batch:
		for _, act := range v.Actions {
			if err := e.applyForward(act); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown action type %T", a)
}

// SetPlaying starts or stops the transport.
func (e *Editor) SetPlaying(playing bool) {
	e.App.Transport.IsPlaying = playing
	e.publishTransport()
}

// SetLooping toggles looping; bounds are the transport's existing loop
// start/end.
func (e *Editor) SetLooping(looping bool) {
	e.App.Transport.IsLooping = looping
	e.publishTransport()
}

// SetBpm records the tempo on the editor's transport and publishes, and
// also queues the deferred CmdSetBpm so the audio thread picks the change
// up even before it consumes the fresh snapshot (spec §4.3).
func (e *Editor) SetBpm(bpm float32) {
	e.App.Transport.Bpm = bpm
	e.publishTransport()
	e.Commands.Push(bridge.Command{Kind: bridge.CmdSetBpm, Bpm: bpm})
}

// SetLoopRegion sets the transport's loop bounds; rejected unless
// start < end, per the TransportState invariant.
func (e *Editor) SetLoopRegion(startSamples, endSamples int64) error {
	if startSamples >= endSamples {
		return newErr("set_loop_region", InvalidInput, fmt.Errorf("loop_start must be below loop_end"))
	}
	e.App.Transport.LoopStartSamples = startSamples
	e.App.Transport.LoopEndSamples = endSamples
	e.publishTransport()
	return nil
}

// SetPlayhead seeks via the command ring; the audio thread applies it and
// emits an immediate position frame.
func (e *Editor) SetPlayhead(frames int64) {
	e.Commands.Push(bridge.Command{Kind: bridge.CmdSetPlayhead, Frames: frames})
}

// PlaySourcePreview auditions a waveform immediately, bypassing the
// sequencer; never mutates project state.
func (e *Editor) PlaySourcePreview(waveformID ids.WaveformID) {
	e.Commands.Push(bridge.Command{Kind: bridge.CmdPlayOneShot, Waveform: waveformID})
}

// StopAllPreviews drops all preview voices.
func (e *Editor) StopAllPreviews() {
	e.Commands.Push(bridge.Command{Kind: bridge.CmdStopAllPreviews})
}

// PlayPreviewNote routes a transient MIDI event to an existing generator
// voice; a no-op on the audio side if that generator has no live voice
// (spec §9 Open Question 2).
func (e *Editor) PlayPreviewNote(generatorID ids.GeneratorID, key, velocity uint8, isNoteOn bool) {
	e.Commands.Push(bridge.Command{
		Kind: bridge.CmdPlayPreviewNote, Generator: generatorID,
		Key: key, Velocity: velocity, IsNoteOn: isNoteOn,
	})
}

// wrapPatternErr classifies a pattern/application-model error into the
// closed ErrorKind set (spec §7): "no_such_*" causes are NotFound (missing
// pattern/note), everything else from AddNote/MoveNote/etc. is a range
// validation and so InvalidInput.
func wrapPatternErr(op string, err error) error {
	if strings.HasPrefix(err.Error(), "no_such_") {
		return newErr(op, NotFound, err)
	}
	return newErr(op, InvalidInput, err)
}
