package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeBeatBarAtStart(t *testing.T) {
	s := New()
	s.RecomputeBeatBar(44100)
	assert.Equal(t, 1.0, s.Beat)
	assert.Equal(t, 1.0, s.Bar)
}

func TestRecomputeBeatBarAfterFourBeats(t *testing.T) {
	s := New()
	spb := SamplesPerBeat(120, 44100)
	s.PlayheadSamples = int64(4 * spb)
	s.RecomputeBeatBar(44100)
	assert.InDelta(t, 5, s.Beat, 1e-9)
	assert.InDelta(t, 2, s.Bar, 1e-9)
}

func TestSeekClampsNegativeToZero(t *testing.T) {
	s := New()
	s.Seek(-100, 44100)
	assert.EqualValues(t, 0, s.PlayheadSamples)
}

func TestSeekDoesNotChangePlayState(t *testing.T) {
	s := New()
	s.IsPlaying = true
	s.Seek(0, 44100)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, 1.0, s.Beat)
	assert.Equal(t, 1.0, s.Bar)
}

func TestAdvanceWrapsAtLoopEnd(t *testing.T) {
	s := New()
	s.IsLooping = true
	s.LoopStartSamples = 1000
	s.LoopEndSamples = 2000
	s.PlayheadSamples = 1990

	wrapped := s.Advance(64, 44100)
	assert.True(t, wrapped)
	assert.EqualValues(t, 1000+(1990+64-2000), s.PlayheadSamples)
}

func TestAdvanceIgnoresDegenerateLoopBounds(t *testing.T) {
	s := New()
	s.IsLooping = true
	s.LoopStartSamples = 2000
	s.LoopEndSamples = 2000
	s.PlayheadSamples = 1990

	wrapped := s.Advance(64, 44100)
	assert.False(t, wrapped)
	assert.EqualValues(t, 2054, s.PlayheadSamples)
}

func TestResetPlayheadStopsAndRewinds(t *testing.T) {
	s := New()
	s.IsPlaying = true
	s.PlayheadSamples = 5000
	s.ResetPlayhead()
	assert.False(t, s.IsPlaying)
	assert.EqualValues(t, 0, s.PlayheadSamples)
	assert.Equal(t, 1.0, s.Beat)
	assert.Equal(t, 1.0, s.Bar)
}

func TestPastEnd(t *testing.T) {
	s := New()
	s.PlayheadSamples = 10048
	assert.True(t, s.PastEnd(10000))
	assert.False(t, s.PastEnd(10048))
}
