package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/project"
	"github.com/sonatalabs/dawcore/internal/snapshot"
)

func newTestEditor(t *testing.T) (*Editor, *project.ApplicationState) {
	t.Helper()
	app := project.New("song")
	tb := bridge.NewTripleBuffer[snapshot.AudioRenderState]()
	builder := snapshot.NewBuilder(tb, 44100, 512)
	e := New(app, builder, bridge.NewCommandRing())
	return e, app
}

func TestAddNoteThenUndoRemovesIt(t *testing.T) {
	e, app := newTestEditor(t)
	patternID := app.AddPattern(3840)

	note, err := e.AddNote(patternID, 60, 0, 480)
	require.NoError(t, err)
	require.Len(t, app.Patterns[patternID].Notes, 1)

	require.NoError(t, e.Undo())
	assert.Empty(t, app.Patterns[patternID].Notes)

	require.NoError(t, e.Redo())
	require.Len(t, app.Patterns[patternID].Notes, 1)
	assert.Equal(t, note.Key, app.Patterns[patternID].Notes[0].Key)
}

func TestDeleteNoteThenUndoRestoresSameID(t *testing.T) {
	e, app := newTestEditor(t)
	patternID := app.AddPattern(3840)
	note, err := e.AddNote(patternID, 64, 0, 480)
	require.NoError(t, err)

	_, err = e.DeleteNote(patternID, note.ID)
	require.NoError(t, err)
	assert.Empty(t, app.Patterns[patternID].Notes)

	require.NoError(t, e.Undo())
	require.Len(t, app.Patterns[patternID].Notes, 1)
	assert.Equal(t, note.ID, app.Patterns[patternID].Notes[0].ID)
}

func TestMoveNoteUndoRestoresOriginalPosition(t *testing.T) {
	e, app := newTestEditor(t)
	patternID := app.AddPattern(3840)
	note, err := e.AddNote(patternID, 60, 100, 480)
	require.NoError(t, err)

	require.NoError(t, e.MoveNote(patternID, note.ID, 500, 64))
	idx := app.Patterns[patternID].IndexOf(note.ID)
	require.GreaterOrEqual(t, idx, 0)
	assert.EqualValues(t, 500, app.Patterns[patternID].Notes[idx].StartTick)

	require.NoError(t, e.Undo())
	idx = app.Patterns[patternID].IndexOf(note.ID)
	require.GreaterOrEqual(t, idx, 0)
	assert.EqualValues(t, 100, app.Patterns[patternID].Notes[idx].StartTick)
	assert.EqualValues(t, 60, app.Patterns[patternID].Notes[idx].Key)
}

func TestCutThenPasteRestoresNotesAsOneBatch(t *testing.T) {
	e, app := newTestEditor(t)
	patternID := app.AddPattern(3840)
	n1, err := e.AddNote(patternID, 60, 0, 480)
	require.NoError(t, err)
	n2, err := e.AddNote(patternID, 62, 480, 480)
	require.NoError(t, err)

	require.NoError(t, e.CutPatternNotes(patternID, []ids.NoteID{n1.ID, n2.ID}))
	assert.Empty(t, app.Patterns[patternID].Notes)
	assert.False(t, app.Clipboard.IsEmpty())

	require.NoError(t, e.PastePatternNotes(patternID, 960))
	require.Len(t, app.Patterns[patternID].Notes, 2)

	// A single undo removes the whole paste batch (both notes) in one step.
	require.NoError(t, e.Undo())
	assert.Empty(t, app.Patterns[patternID].Notes)
}

func TestResizeClipRightEdgeChangesLoopLength(t *testing.T) {
	e, app := newTestEditor(t)
	trackID := app.AddNewTrack("drums")
	wfID := ids.NewWaveformID()
	clipID := ids.NewClipID()
	require.NoError(t, app.AddClipToTrack(trackID, project.Clip{
		ID: clipID, StartTime: 0, LoopLength: 1000,
		Source: project.Source{Kind: project.SourceAudio, Waveform: wfID},
	}))

	require.NoError(t, e.ResizeClip(trackID, clipID, project.EdgeRight, 2000))
	clip, _, ok := app.Tracks[trackID].FindClip(clipID)
	require.True(t, ok)
	assert.EqualValues(t, 2000, clip.LoopLength)
}

func TestResizeClipRightEdgeRejectsNonPositiveLength(t *testing.T) {
	e, app := newTestEditor(t)
	trackID := app.AddNewTrack("drums")
	clipID := ids.NewClipID()
	require.NoError(t, app.AddClipToTrack(trackID, project.Clip{
		ID: clipID, StartTime: 500, LoopLength: 1000,
		Source: project.Source{Kind: project.SourceAudio, Waveform: ids.NewWaveformID()},
	}))

	err := e.ResizeClip(trackID, clipID, project.EdgeRight, 500)
	require.Error(t, err)
	var edErr *Error
	require.ErrorAs(t, err, &edErr)
	assert.Equal(t, InvalidInput, edErr.Kind)
}

func TestResizeClipLeftEdgeShiftsOffsetAndShrinksLoop(t *testing.T) {
	e, app := newTestEditor(t)
	trackID := app.AddNewTrack("drums")
	clipID := ids.NewClipID()
	require.NoError(t, app.AddClipToTrack(trackID, project.Clip{
		ID: clipID, StartTime: 1000, OffsetStart: 200, LoopLength: 1000,
		Source: project.Source{Kind: project.SourceAudio, Waveform: ids.NewWaveformID()},
	}))

	require.NoError(t, e.ResizeClip(trackID, clipID, project.EdgeLeft, 1300))
	clip, _, ok := app.Tracks[trackID].FindClip(clipID)
	require.True(t, ok)
	assert.EqualValues(t, 1300, clip.StartTime)
	assert.EqualValues(t, 500, clip.OffsetStart)
	assert.EqualValues(t, 700, clip.LoopLength)
}

func TestResizeClipLeftEdgeRejectsPastClipEnd(t *testing.T) {
	e, app := newTestEditor(t)
	trackID := app.AddNewTrack("drums")
	clipID := ids.NewClipID()
	require.NoError(t, app.AddClipToTrack(trackID, project.Clip{
		ID: clipID, StartTime: 0, LoopLength: 1000,
		Source: project.Source{Kind: project.SourceAudio, Waveform: ids.NewWaveformID()},
	}))

	err := e.ResizeClip(trackID, clipID, project.EdgeLeft, 1000)
	require.Error(t, err)
}

func TestSetPlayingAndSetLoopingUpdateTransport(t *testing.T) {
	e, app := newTestEditor(t)
	e.SetPlaying(true)
	assert.True(t, app.Transport.IsPlaying)

	e.SetLooping(true)
	assert.True(t, app.Transport.IsLooping)
}

func TestSetBpmUpdatesTransportAndQueuesCommand(t *testing.T) {
	e, app := newTestEditor(t)
	e.SetBpm(140)

	assert.EqualValues(t, 140, app.Transport.Bpm)
	cmd, ok := e.Commands.TryPop()
	require.True(t, ok)
	assert.Equal(t, bridge.CmdSetBpm, cmd.Kind)
	assert.EqualValues(t, 140, cmd.Bpm)
}

func TestSetLoopRegionValidatesBounds(t *testing.T) {
	e, app := newTestEditor(t)
	require.NoError(t, e.SetLoopRegion(1000, 2000))
	assert.EqualValues(t, 1000, app.Transport.LoopStartSamples)
	assert.EqualValues(t, 2000, app.Transport.LoopEndSamples)

	err := e.SetLoopRegion(2000, 2000)
	require.Error(t, err)
	var edErr *Error
	require.ErrorAs(t, err, &edErr)
	assert.Equal(t, InvalidInput, edErr.Kind)
}

func TestPlayPreviewNoteQueuesCommand(t *testing.T) {
	e, _ := newTestEditor(t)
	genID := ids.NewGeneratorID()
	e.PlayPreviewNote(genID, 60, 100, true)

	cmd, ok := e.Commands.TryPop()
	require.True(t, ok)
	assert.Equal(t, bridge.CmdPlayPreviewNote, cmd.Kind)
	assert.Equal(t, genID, cmd.Generator)
	assert.True(t, cmd.IsNoteOn)
}

func TestUndoOnEmptyHistoryIsNoop(t *testing.T) {
	e, _ := newTestEditor(t)
	assert.NoError(t, e.Undo())
	assert.NoError(t, e.Redo())
}
