package editor

import (
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/pattern"
)

// Action is the closed set of undoable history entries (spec §4.9/§9).
type Action interface{ isAction() }

// Actions key off NoteID rather than index: pattern mutations re-sort
// Notes, so an index recorded at push time would no longer address the
// right note by the time undo/redo runs; NoteID survives the re-sort.

// AddNote records a note insertion; its inverse deletes Note.ID, and redo
// re-inserts Note verbatim (RestoreNote), since a fresh AddNote call would
// mint a new id rather than reproducing the original one.
type AddNote struct {
	Pattern ids.PatternID
	Note    pattern.Note
}

// DeleteNote records a note removal; its inverse re-inserts Note verbatim,
// preserving its id.
type DeleteNote struct {
	Pattern ids.PatternID
	Note    pattern.Note
}

// MoveNote records a note's previous and new position.
type MoveNote struct {
	Pattern ids.PatternID
	NoteID  ids.NoteID
	OldTick int64
	OldKey  uint8
	NewTick int64
	NewKey  uint8
}

// ResizeNote records a note's previous and new duration.
type ResizeNote struct {
	Pattern     ids.PatternID
	NoteID      ids.NoteID
	OldDuration int64
	NewDuration int64
}

// Batch groups a list of actions that undo/redo as a single unit, e.g.
// paste_pattern_notes.
type Batch struct{ Actions []Action }

func (AddNote) isAction()    {}
func (DeleteNote) isAction() {}
func (MoveNote) isAction()   {}
func (ResizeNote) isAction() {}
func (Batch) isAction()      {}

// History is the undo/redo stack pair. Applying the inverse of an action
// is the caller's responsibility (History only tracks what to invert);
// Editor owns the apply/inverse-apply logic since it alone holds the
// project.
type History struct {
	undoStack []Action
	redoStack []Action
	batch     []Action
	inBatch   bool
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{} }

// Push records a new action, clearing the redo stack (a fresh edit
// invalidates any redo chain), or appends it to the in-progress batch if
// one is open.
func (h *History) Push(a Action) {
	if h.inBatch {
		h.batch = append(h.batch, a)
		return
	}
	h.undoStack = append(h.undoStack, a)
	h.redoStack = h.redoStack[:0]
}

// BeginBatch opens a batch; subsequent Push calls accumulate into it
// instead of the undo stack directly, per the multi-step operations
// (paste) that must undo/redo as one unit.
func (h *History) BeginBatch() { h.inBatch = true; h.batch = h.batch[:0] }

// EndBatch closes the open batch and pushes it as a single Batch action, if
// non-empty.
func (h *History) EndBatch() {
	h.inBatch = false
	if len(h.batch) == 0 {
		return
	}
	h.undoStack = append(h.undoStack, Batch{Actions: append([]Action(nil), h.batch...)})
	h.redoStack = h.redoStack[:0]
	h.batch = h.batch[:0]
}

// PopUndo removes and returns the most recent undo entry, pushing it onto
// the redo stack. ok is false if the undo stack is empty.
func (h *History) PopUndo() (Action, bool) {
	if len(h.undoStack) == 0 {
		return nil, false
	}
	a := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, a)
	return a, true
}

// PopRedo removes and returns the most recent redo entry, pushing it back
// onto the undo stack. ok is false if the redo stack is empty.
func (h *History) PopRedo() (Action, bool) {
	if len(h.redoStack) == 0 {
		return nil, false
	}
	a := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, a)
	return a, true
}

// CanUndo/CanRedo report stack non-emptiness for UI enablement.
func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }
