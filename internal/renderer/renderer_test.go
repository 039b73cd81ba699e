package renderer

import (
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/project"
	"github.com/sonatalabs/dawcore/internal/sequencer"
	"github.com/sonatalabs/dawcore/internal/snapshot"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

func rampWaveform(frames int) *waveform.Waveform {
	data := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = float64(i)
		data[i*2+1] = float64(i) * 2
	}
	return &waveform.Waveform{
		Buffer:       &audio.FloatBuffer{Data: data},
		SampleRate:   44100,
		ChannelCount: 2,
	}
}

func TestRenderAudioVoiceWritesExactlyNTimes2Samples(t *testing.T) {
	wf := rampWaveform(1000)
	output := make([]float32, 64*2)
	graph := &snapshot.AudioGraph{SampleRate: 44100, Mixer: project.NewMixerState()}
	scan := sequencer.ScanResult{
		AudioVoices: []sequencer.AudioVoice{{
			Waveform: wf, ReadIndex: 0, StartBoundary: 0, EndBoundary: 1000,
		}},
		GeneratorVoices: map[sequencer.GeneratorVoiceKey]*sequencer.GeneratorVoice{},
	}
	Render(output, scan, graph, NewLive(), &Scratch{})

	assert.Len(t, output, 128)
	for _, s := range output {
		assert.False(t, math.IsNaN(float64(s)))
		assert.False(t, math.IsInf(float64(s), 0))
	}
	assert.InDelta(t, 0, output[0], 1e-6)
	assert.InDelta(t, 1, output[2], 1e-6)
}

func TestRenderAudioVoiceLinearlyInterpolatesFractionalPosition(t *testing.T) {
	wf := rampWaveform(1000)
	output := make([]float32, 4*2)
	graph := &snapshot.AudioGraph{SampleRate: 44100, Mixer: project.NewMixerState()}
	scan := sequencer.ScanResult{
		AudioVoices: []sequencer.AudioVoice{{
			Waveform: wf, ReadIndex: 10.5, StartBoundary: 0, EndBoundary: 1000,
		}},
		GeneratorVoices: map[sequencer.GeneratorVoiceKey]*sequencer.GeneratorVoice{},
	}
	Render(output, scan, graph, NewLive(), &Scratch{})
	assert.InDelta(t, 10.5, output[0], 1e-4)
}

type stubGen struct{ onCount, offCount int }

func (g *stubGen) Name() string     { return "stub" }
func (g *stubGen) Prepare(int, int) {}
func (g *stubGen) Reset()           {}
func (g *stubGen) Process(output []float32, events []generator.MidiEvent) {
	for _, ev := range events {
		switch ev.Data.(type) {
		case generator.NoteOn:
			g.onCount++
		case generator.NoteOff:
			g.offCount++
		}
	}
	for i := range output {
		output[i] = 0.5
	}
}
func (g *stubGen) SetParameter(int, float64)      {}
func (g *stubGen) GetParameter(int) float64       { return 0 }
func (g *stubGen) DefaultParameters() []generator.Parameter { return nil }

func TestRenderGeneratorVoiceSplitsAtEventBoundaries(t *testing.T) {
	gen := &stubGen{}
	genID := ids.NewGeneratorID()
	channelID := ids.NewMixerChannelID()

	output := make([]float32, 64*2)
	mixer := project.NewMixerState()
	mixer.Channels[channelID] = project.NewMixerChannel(channelID, "ch")
	graph := &snapshot.AudioGraph{SampleRate: 44100, Mixer: mixer}

	key := sequencer.GeneratorVoiceKey{MixerChannel: channelID, Generator: genID}
	scan := sequencer.ScanResult{
		GeneratorVoices: map[sequencer.GeneratorVoiceKey]*sequencer.GeneratorVoice{
			key: {Events: []generator.MidiEvent{
				{SampleOffset: 0, Data: generator.NoteOn{Key: 60, Velocity: 100}},
				{SampleOffset: 32, Data: generator.NoteOff{Key: 60}},
			}},
		},
	}
	live := NewLive()
	live.Set(genID, gen)
	scratch := &Scratch{}
	scratch.Prepare(64)

	Render(output, scan, graph, live, scratch)

	assert.Equal(t, 1, gen.onCount)
	assert.Equal(t, 1, gen.offCount)
	assert.InDelta(t, 0.5, output[0], 1e-6)
	assert.InDelta(t, 0.5, output[63*2], 1e-6)
}

func TestRenderPreviewVoiceRetiresAtSourceEnd(t *testing.T) {
	wf := rampWaveform(10)
	v := &PreviewVoice{Waveform: wf, Pos: 0, Step: 1}
	output := make([]float32, 40*2)

	RenderPreviewVoice(output, 40, v)

	assert.True(t, v.Retired)
}
