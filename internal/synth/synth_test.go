package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonatalabs/dawcore/internal/generator"
)

func TestNoteOnProducesNonSilentFinitOutput(t *testing.T) {
	s := New()
	s.Prepare(48000, 512)
	s.SetParameter(ParamOsc1Mix, 1)

	out := make([]float32, 512*2)
	events := []generator.MidiEvent{{SampleOffset: 0, Data: generator.NoteOn{Key: 69, Velocity: 100}}}
	s.Process(out, events)

	var sawNonZero bool
	for _, v := range out {
		require.False(t, math.IsNaN(float64(v)), "no sample may be NaN")
		require.False(t, math.IsInf(float64(v), 0), "no sample may be +/-Inf")
		if v != 0 {
			sawNonZero = true
		}
	}
	assert.True(t, sawNonZero, "a held note must eventually produce audible output")
}

func TestNoteOffReleasesToSilence(t *testing.T) {
	s := New()
	s.Prepare(48000, 64)
	s.SetParameter(ParamOsc1Mix, 1)
	s.SetParameter(ParamAttack, 0.001)
	s.SetParameter(ParamDecay, 0.001)
	s.SetParameter(ParamSustain, 1.0)
	s.SetParameter(ParamRelease, 0.001)

	out := make([]float32, 64*2)
	s.Process(out, []generator.MidiEvent{{SampleOffset: 0, Data: generator.NoteOn{Key: 60, Velocity: 100}}})
	s.Process(out, []generator.MidiEvent{{SampleOffset: 0, Data: generator.NoteOff{Key: 60}}})

	// Drive enough blocks for the very short release to fully decay.
	for i := 0; i < 50; i++ {
		s.Process(out, nil)
	}
	assert.Empty(t, s.voices, "released voice must eventually be reclaimed")
}

func TestVelocityScalesOutputAmplitude(t *testing.T) {
	peak := func(velocity uint8) float64 {
		s := New()
		s.Prepare(48000, 512)
		s.SetParameter(ParamOsc1Mix, 1)
		s.SetParameter(ParamAttack, 0.001)

		out := make([]float32, 512*2)
		s.Process(out, []generator.MidiEvent{{SampleOffset: 0, Data: generator.NoteOn{Key: 69, Velocity: velocity}}})

		var max float64
		for _, v := range out {
			if a := math.Abs(float64(v)); a > max {
				max = a
			}
		}
		return max
	}

	quiet := peak(20)
	loud := peak(127)
	require.Greater(t, loud, 0.0)
	assert.Greater(t, loud, quiet*2, "velocity 127 must be audibly louder than velocity 20")
	assert.InDelta(t, 20.0/127.0, quiet/loud, 0.05, "amplitude must track velocity/127")
}

func TestFilterResetZeroesState(t *testing.T) {
	s := New()
	s.Prepare(48000, 64)
	s.filterL.s1, s.filterL.s2 = 1, 2
	s.Reset()
	assert.Equal(t, 0.0, s.filterL.s1)
	assert.Equal(t, 0.0, s.filterL.s2)
}

func TestNoteFrequencyA4(t *testing.T) {
	assert.InDelta(t, 440.0, noteFrequency(69, 0), 1e-9)
}

func TestDriveAppliesTanhSaturation(t *testing.T) {
	s := New()
	s.Prepare(48000, 8)
	s.SetParameter(ParamDrive, 1)
	s.SetParameter(ParamOsc1Mix, 1)
	out := make([]float32, 16)
	s.Process(out, []generator.MidiEvent{{SampleOffset: 0, Data: generator.NoteOn{Key: 60, Velocity: 100}}})
	for _, v := range out {
		assert.LessOrEqual(t, math.Abs(float64(v)), 1.01)
	}
}
