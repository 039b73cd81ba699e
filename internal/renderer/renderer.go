// Package renderer implements the voice renderer (C8): linear-interpolated
// audio-clip playback, sample-accurate generator sub-block dispatch, and
// mixdown into the callback's output buffer. Every entry point here runs on
// the audio thread: no allocation beyond pre-sized scratch buffers, no
// locks beyond a generator's own short parameter lock, no panics.
package renderer

import (
	"sync/atomic"

	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/sequencer"
	"github.com/sonatalabs/dawcore/internal/snapshot"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

// PreviewVoice is a transient, sequencer-independent voice started by
// PlayOneShot; rendered unconditionally every callback,
// even while stopped, and retired once it runs off its source.
type PreviewVoice struct {
	Waveform *waveform.Waveform
	Pos      float64
	Step     float64
	Retired  bool
}

// RenderPreviewVoice advances v by frames and mixes it additively into
// output at unity gain, matching spec §4.7's "same interpolation logic" for
// previews. Retires v once its position runs past the end of the source.
func RenderPreviewVoice(output []float32, frames int, v *PreviewVoice) {
	if v.Retired || v.Waveform == nil {
		return
	}
	wf := v.Waveform
	trimEnd := wf.EffectiveTrimEnd()
	channels := wf.ChannelCount

	for f := 0; f < frames; f++ {
		if v.Pos >= float64(trimEnd-1) {
			v.Retired = true
			return
		}
		i := int64(v.Pos)
		alpha := v.Pos - float64(i)
		iNext := i + 1
		if iNext >= trimEnd {
			iNext = i
		}

		outL := (1-alpha)*wf.Sample(int(i), 0) + alpha*wf.Sample(int(iNext), 0)
		var outR float64
		if channels > 1 {
			outR = (1-alpha)*wf.Sample(int(i), 1) + alpha*wf.Sample(int(iNext), 1)
		} else {
			outR = outL
		}
		output[f*2] += float32(outL)
		output[f*2+1] += float32(outR)
		v.Pos += v.Step
	}
}

// Scratch holds the renderer's pre-sized generator scratch buffers, sized
// once in Prepare per spec §5's "scratch buffers owned by the renderer".
// rebaseBuf is sized to the max event count a single block's sequencer scan
// could plausibly hand it (one note on/off pair per pattern note is the
// common case); renderGeneratorVoice falls back to a slice of events when a
// sub-block needs more than that, which should not happen in steady state.
type Scratch struct {
	generatorBuf []float32
	rebaseBuf    []generator.MidiEvent
}

// Prepare (re)sizes scratch for the given block size; called only at
// stream (re)start, never per-callback.
func (s *Scratch) Prepare(maxBlockFrames int) {
	s.generatorBuf = make([]float32, maxBlockFrames*2)
	s.rebaseBuf = make([]generator.MidiEvent, maxEventsPerBlock)
}

// maxEventsPerBlock bounds the rebase scratch; generous enough that a dense
// block of overlapping MIDI clips never forces a steady-state allocation in
// practice, while keeping the scratch buffer a fixed, small size.
const maxEventsPerBlock = 256

// Live is the set of instantiated generator.Generator values the render
// path drives, keyed by generator id. The map itself is swapped atomically
// (never mutated in place) so the editor can add/remove a live generator
// without the audio thread ever observing a torn map — the same
// copy-on-write discipline spec §5 requires of the generator pool.
type Live struct {
	ptr atomic.Pointer[map[ids.GeneratorID]generator.Generator]
}

// NewLive returns a Live seeded with an empty generator map.
func NewLive() *Live {
	l := &Live{}
	empty := make(map[ids.GeneratorID]generator.Generator)
	l.ptr.Store(&empty)
	return l
}

// Generators returns the current generator map. Safe to call from the
// audio thread; never blocks, never allocates.
func (l *Live) Generators() map[ids.GeneratorID]generator.Generator {
	m := l.ptr.Load()
	if m == nil {
		return nil
	}
	return *m
}

// Set installs gen under id by publishing a fresh copy of the map, leaving
// any in-flight Render call's view of the old map undisturbed. Editor-side
// only.
func (l *Live) Set(id ids.GeneratorID, gen generator.Generator) {
	old := l.Generators()
	fresh := make(map[ids.GeneratorID]generator.Generator, len(old)+1)
	for k, v := range old {
		fresh[k] = v
	}
	fresh[id] = gen
	l.ptr.Store(&fresh)
}

// Remove drops id by publishing a fresh copy of the map without it.
func (l *Live) Remove(id ids.GeneratorID) {
	old := l.Generators()
	if _, ok := old[id]; !ok {
		return
	}
	fresh := make(map[ids.GeneratorID]generator.Generator, len(old))
	for k, v := range old {
		if k != id {
			fresh[k] = v
		}
	}
	l.ptr.Store(&fresh)
}

// Render clears output, then renders every generator voice (sub-block
// dispatch at MIDI event boundaries) and every audio voice (linear
// interpolation) from scan into it, applying per-channel mixer gain.
func Render(output []float32, scan sequencer.ScanResult, graph *snapshot.AudioGraph, live *Live, scratch *Scratch) {
	for i := range output {
		output[i] = 0
	}
	frames := len(output) / 2
	generators := live.Generators()

	for key, gv := range scan.GeneratorVoices {
		gen, ok := generators[key.Generator]
		if !ok || gen == nil {
			continue
		}
		gainL, gainR := channelGain(graph, key.MixerChannel)
		renderGeneratorVoice(output, frames, gen, gv.Events, scratch, gainL, gainR)
	}

	for _, v := range scan.AudioVoices {
		gainL, gainR := channelGain(graph, v.MixerChannel)
		renderAudioVoice(output, frames, v, graph.SampleRate, gainL, gainR)
	}
}

func channelGain(graph *snapshot.AudioGraph, channelID ids.MixerChannelID) (left, right float32) {
	ch, ok := graph.Mixer.Channels[channelID]
	if !ok {
		return 1, 1
	}
	anySolo := graph.Mixer.AnySolo()
	if !ch.Audible(anySolo) {
		return 0, 0
	}
	// A plain linear pan law, matching the teacher's own linear pan in
	// audio/engine.go rather than an equal-power crossfade.
	pan := ch.Pan
	l := ch.Volume
	r := ch.Volume
	if pan > 0 {
		l *= 1 - pan
	} else if pan < 0 {
		r *= 1 + pan
	}
	return l, r
}

// renderGeneratorVoice performs sample-accurate dispatch: it splits
// [0,frames) at each event's SampleOffset and calls Process once per
// sub-block, rebasing each sub-block's events to start at offset 0, so
// envelope triggers and voice allocation land on the exact frame, per spec
// §4.4.
func renderGeneratorVoice(output []float32, frames int, gen generator.Generator, events []generator.MidiEvent, scratch *Scratch, gainL, gainR float32) {
	buf := scratch.generatorBuf
	if len(buf) < frames*2 {
		buf = make([]float32, frames*2)
	}

	cursor := 0
	evIdx := 0
	for cursor < frames {
		// Events already at cursor trigger at the start of this sub-block.
		start := evIdx
		for evIdx < len(events) && events[evIdx].SampleOffset <= cursor {
			evIdx++
		}
		subEnd := frames
		if evIdx < len(events) {
			subEnd = events[evIdx].SampleOffset
		}
		subFrames := subEnd - cursor
		if subFrames <= 0 {
			break
		}

		subEvents := events[start:evIdx]
		rebased := subEvents
		if len(subEvents) > 0 {
			if len(subEvents) <= len(scratch.rebaseBuf) {
				rebased = scratch.rebaseBuf[:len(subEvents)]
			} else {
				rebased = make([]generator.MidiEvent, len(subEvents))
			}
			for i, ev := range subEvents {
				rebased[i] = generator.MidiEvent{SampleOffset: ev.SampleOffset - cursor, Data: ev.Data}
			}
		}

		sub := buf[:subFrames*2]
		gen.Process(sub, rebased)
		for i := 0; i < subFrames; i++ {
			output[(cursor+i)*2] += sub[i*2] * gainL
			output[(cursor+i)*2+1] += sub[i*2+1] * gainR
		}
		cursor = subEnd
	}
}

func renderAudioVoice(output []float32, frames int, v sequencer.AudioVoice, projectSampleRate int, gainL, gainR float32) {
	wf := v.Waveform
	if wf == nil {
		return
	}
	channels := wf.ChannelCount
	if channels == 0 || projectSampleRate == 0 {
		return
	}

	pos := v.ReadIndex
	step := float64(wf.SampleRate) / float64(projectSampleRate)
	span := v.EndBoundary - v.StartBoundary

	for f := v.OutputOffsetFrames; f < frames; f++ {
		i := int64(pos)
		alpha := pos - float64(i)

		readIdx := i
		if v.Looping && span > 0 {
			readIdx = v.StartBoundary + mod64i(i-v.StartBoundary, span)
		}
		if readIdx < v.StartBoundary || readIdx >= v.EndBoundary {
			break
		}
		iNext := readIdx + 1
		if iNext >= v.EndBoundary {
			if v.Looping && span > 0 {
				iNext = v.StartBoundary
			} else {
				iNext = readIdx
			}
		}

		outL := (1-alpha)*wf.Sample(int(readIdx), 0) + alpha*wf.Sample(int(iNext), 0)
		var outR float64
		if channels > 1 {
			outR = (1-alpha)*wf.Sample(int(readIdx), 1) + alpha*wf.Sample(int(iNext), 1)
		} else {
			outR = outL
		}

		output[f*2] += float32(outL) * gainL
		output[f*2+1] += float32(outR) * gainR

		pos += step
	}
}

func mod64i(v, m int64) int64 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
