package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddThenMoveNote(t *testing.T) {
	p := New(3840)
	note, err := p.AddNote(60, 0, 960)
	require.NoError(t, err)
	require.Len(t, p.Notes, 1)

	err = p.MoveNote(0, 3000, 72)
	require.NoError(t, err)

	assert.Equal(t, int64(3960), p.LengthTicks, "3000+960 exceeds 3840, must auto-extend")
	require.Len(t, p.Notes, 1)
	assert.Equal(t, int64(3000), p.Notes[0].StartTick)
	assert.Equal(t, uint8(72), p.Notes[0].Key)
	assert.Equal(t, note.ID, p.Notes[0].ID)
}

func TestAddDeleteRoundTrip(t *testing.T) {
	p := New(960)
	before := p.Clone()
	note, err := p.AddNote(60, 0, 960)
	require.NoError(t, err)

	idx := p.IndexOf(note.ID)
	require.GreaterOrEqual(t, idx, 0)
	_, err = p.DeleteNote(idx)
	require.NoError(t, err)

	assert.Equal(t, before.Notes, p.Notes)
	assert.Equal(t, before.LengthTicks, p.LengthTicks)
}

func TestMoveNoteInverse(t *testing.T) {
	p := New(960)
	_, err := p.AddNote(60, 100, 200)
	require.NoError(t, err)

	require.NoError(t, p.MoveNote(0, 500, 70))
	require.NoError(t, p.MoveNote(0, 100, 60))

	assert.Equal(t, int64(100), p.Notes[0].StartTick)
	assert.Equal(t, uint8(60), p.Notes[0].Key)
}

func TestSortedAfterMutation(t *testing.T) {
	p := New(10000)
	_, _ = p.AddNote(50, 500, 100)
	_, _ = p.AddNote(60, 100, 100)
	_, _ = p.AddNote(40, 100, 50)

	for i := 1; i < len(p.Notes); i++ {
		assert.False(t, less(p.Notes[i], p.Notes[i-1]), "notes must stay sorted by (start_tick,key,velocity)")
	}
}

func TestBoundaryRejections(t *testing.T) {
	p := New(960)
	_, err := p.AddNote(128, 0, 960)
	assert.Error(t, err)

	_, err = p.AddNote(60, 0, 0)
	// duration 0 means "use default", so this must succeed with default duration
	assert.NoError(t, err)

	_, err = p.AddNote(60, 0, -5)
	assert.Error(t, err)

	velocity := uint8(128)
	_, _ = p.AddNote(60, 0, 960)
	err = p.SetNoteParams(0, NoteParams{Velocity: &velocity})
	assert.Error(t, err)

	prob := float32(1.01)
	err = p.SetNoteParams(0, NoteParams{Probability: &prob})
	assert.Error(t, err)
}

func TestQuantizeIdempotent(t *testing.T) {
	p := New(10000)
	_, _ = p.AddNote(60, 17, 100)
	_, _ = p.AddNote(61, 483, 100)

	require.NoError(t, p.Quantize(240))
	once := append([]Note(nil), p.Notes...)
	require.NoError(t, p.Quantize(240))

	assert.Equal(t, once, p.Notes)
}

func TestTransposeRejectsOutOfRange(t *testing.T) {
	p := New(960)
	_, _ = p.AddNote(125, 0, 960)
	err := p.Transpose(5)
	assert.Error(t, err)
	assert.Equal(t, uint8(125), p.Notes[0].Key, "failed transpose must not mutate any note")

	require.NoError(t, p.Transpose(2))
	assert.Equal(t, uint8(127), p.Notes[0].Key)
}

func TestInsertRestorePreservesID(t *testing.T) {
	p := New(960)
	note, _ := p.AddNote(60, 0, 960)
	idx := p.IndexOf(note.ID)
	removed, _ := p.DeleteNote(idx)

	p.RestoreNote(removed)
	assert.Equal(t, removed.ID, p.Notes[0].ID)
}
