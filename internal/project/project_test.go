package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/pattern"
)

type stubGenerator struct{}

func (stubGenerator) Name() string                       { return "stub" }
func (stubGenerator) Prepare(int, int)                   {}
func (stubGenerator) Reset()                              {}
func (stubGenerator) Process([]float32, []generator.MidiEvent) {}
func (stubGenerator) SetParameter(int, float64)           {}
func (stubGenerator) GetParameter(int) float64            { return 0 }
func (stubGenerator) DefaultParameters() []generator.Parameter {
	return []generator.Parameter{{ID: 0, Name: "gain", Default: 1, Min: 0, Max: 2}}
}

func newTestRegistry() *generator.Registry {
	r := generator.NewRegistry()
	r.Register("stub", func() generator.Generator { return stubGenerator{} })
	return r
}

func TestTrackClipsStayOrderedByStartThenID(t *testing.T) {
	track := NewTrack("drums", TrackAudio)
	wf := ids.NewWaveformID()

	mk := func(start int64) Clip {
		return Clip{ID: ids.NewClipID(), StartTime: start, Source: Source{Kind: SourceAudio, Waveform: wf}, LoopLength: 100}
	}
	c3 := mk(300)
	c1 := mk(100)
	c2 := mk(200)
	require.NoError(t, track.AddClip(c3))
	require.NoError(t, track.AddClip(c1))
	require.NoError(t, track.AddClip(c2))

	require.Len(t, track.Clips, 3)
	assert.Equal(t, c1.ID, track.Clips[0].ID)
	assert.Equal(t, c2.ID, track.Clips[1].ID)
	assert.Equal(t, c3.ID, track.Clips[2].ID)
}

func TestAddClipRejectsMismatchedSourceKind(t *testing.T) {
	track := NewTrack("synth", TrackMidi)
	c := Clip{ID: ids.NewClipID(), Source: Source{Kind: SourceAudio, Waveform: ids.NewWaveformID()}, LoopLength: 10}
	err := track.AddClip(c)
	require.Error(t, err)
}

func TestRecomputeMaxSampleIndexTracksFurthestClipEnd(t *testing.T) {
	track := NewTrack("drums", TrackAudio)
	wf := ids.NewWaveformID()
	require.NoError(t, track.AddClip(Clip{ID: ids.NewClipID(), StartTime: 0, LoopLength: 500, Source: Source{Kind: SourceAudio, Waveform: wf}}))
	require.NoError(t, track.AddClip(Clip{ID: ids.NewClipID(), StartTime: 1000, LoopLength: 200, Source: Source{Kind: SourceAudio, Waveform: wf}}))
	assert.EqualValues(t, 1200, track.MaxSampleIndex)

	removed, ok := track.RemoveClip(track.Clips[1].ID)
	require.True(t, ok)
	assert.EqualValues(t, 1200, removed.EndTime())
	assert.EqualValues(t, 500, track.MaxSampleIndex)
}

func TestTrackCloneIsIndependent(t *testing.T) {
	track := NewTrack("drums", TrackAudio)
	require.NoError(t, track.AddClip(Clip{ID: ids.NewClipID(), LoopLength: 10, Source: Source{Kind: SourceAudio, Waveform: ids.NewWaveformID()}}))

	clone := track.Clone()
	clone.Clips[0].Name = "renamed"
	assert.NotEqual(t, clone.Clips[0].Name, track.Clips[0].Name)
}

func TestAddClipToTrackIsCopyOnWrite(t *testing.T) {
	app := New("song")
	trackID := app.AddNewTrack("drums")
	before := app.Tracks[trackID]

	err := app.AddClipToTrack(trackID, Clip{
		ID:         ids.NewClipID(),
		StartTime:  0,
		LoopLength: 44100,
		Source:     Source{Kind: SourceAudio, Waveform: ids.NewWaveformID()},
	})
	require.NoError(t, err)

	after := app.Tracks[trackID]
	assert.NotSame(t, before, after, "mutation must swap in a fresh track, never mutate the old one in place")
	assert.Empty(t, before.Clips, "the pre-mutation track value must be untouched")
	assert.Len(t, after.Clips, 1)
	assert.EqualValues(t, 44100, app.MaxSampleIndex)
}

func TestRemoveGeneratorCascadesPatternsAndClips(t *testing.T) {
	app := New("song")
	registry := newTestRegistry()

	inst, _, err := app.AddGenerator(registry, "lead", "stub")
	require.NoError(t, err)

	patternID := app.AddPattern(3840)
	trackID := app.AddNewMidiTrackWithGenerator("lead track", inst.ID)
	require.NoError(t, app.AddClipToTrack(trackID, Clip{
		ID:         ids.NewClipID(),
		LoopLength: 3840,
		Source:     Source{Kind: SourceMidi, Pattern: patternID},
	}))
	require.Len(t, app.Tracks[trackID].Clips, 1)

	require.NoError(t, app.RemoveGenerator(inst.ID, []ids.PatternID{patternID}))

	assert.Empty(t, app.Tracks[trackID].Clips, "clips referencing the removed generator's patterns must cascade-delete")
	assert.Equal(t, ids.NilGenerator, app.Tracks[trackID].Generator)
	_, stillExists := app.Patterns[patternID]
	assert.False(t, stillExists)
	assert.Zero(t, app.MaxSampleIndex)
}

func TestRemoveAudioSourceCascadesClips(t *testing.T) {
	app := New("song")
	trackID := app.AddNewTrack("drums")
	wfID := ids.NewWaveformID()
	require.NoError(t, app.AddClipToTrack(trackID, Clip{
		ID:         ids.NewClipID(),
		LoopLength: 1000,
		Source:     Source{Kind: SourceAudio, Waveform: wfID},
	}))

	app.RemoveAudioSource(wfID)

	assert.Empty(t, app.Tracks[trackID].Clips)
	assert.Zero(t, app.MaxSampleIndex)
}

func TestMutatePatternAppliesCopyOnWrite(t *testing.T) {
	app := New("song")
	patternID := app.AddPattern(3840)
	before := app.Patterns[patternID]

	err := app.MutatePattern(patternID, func(p *pattern.Pattern) error {
		_, err := p.AddNote(60, 0, 0)
		return err
	})
	require.NoError(t, err)

	after := app.Patterns[patternID]
	assert.NotSame(t, before, after)
	assert.Empty(t, before.Notes)
	assert.Len(t, after.Notes, 1)
}
