// Package sequencer implements the per-callback timeline scan (C7): it
// walks the latest snapshot's tracks and clips and turns them into
// transient audio voices plus scheduled MIDI events for the voice renderer.
package sequencer

import (
	"math"

	"github.com/sonatalabs/dawcore/internal/generator"
	"github.com/sonatalabs/dawcore/internal/ids"
	"github.com/sonatalabs/dawcore/internal/pattern"
	"github.com/sonatalabs/dawcore/internal/project"
	"github.com/sonatalabs/dawcore/internal/snapshot"
	"github.com/sonatalabs/dawcore/internal/waveform"
)

// AudioVoice is a transient, single-block voice produced for an audio clip.
type AudioVoice struct {
	Waveform          *waveform.Waveform
	MixerChannel      ids.MixerChannelID
	OutputOffsetFrames int
	ReadIndex         float64
	StartBoundary     int64
	EndBoundary       int64
	Looping           bool
}

// GeneratorVoiceKey identifies a persistent generator voice slot.
type GeneratorVoiceKey struct {
	MixerChannel ids.MixerChannelID
	Generator    ids.GeneratorID
}

// GeneratorVoice is one callback's worth of scheduled events for a track's
// generator. The voice itself (its oscillators, its envelopes) is
// persistent across callbacks, but lives inside the generator.Generator
// instance the engine keeps per generator id; only its event queue is
// rebuilt fresh by each Scan, which is the "cleared at the end of each
// block" behavior spec §4.6 calls for.
type GeneratorVoice struct {
	Events []generator.MidiEvent
}

// ScanResult is everything one Scan call produces for the renderer.
type ScanResult struct {
	AudioVoices     []AudioVoice
	GeneratorVoices map[GeneratorVoiceKey]*GeneratorVoice
}

// Scan walks graph's tracks in graph order, and each track's clips in
// start-time order, for the window [t0, t1) (in project-sample-rate
// frames) and returns the voices/events that window produces, per spec
// §4.6. tempo and graph.SampleRate drive the MIDI-clip time math;
// t1 - t0 == N, the buffer frame count.
func Scan(graph *snapshot.AudioGraph, t0, t1 int64, tempo float32) ScanResult {
	result := ScanResult{GeneratorVoices: make(map[GeneratorVoiceKey]*GeneratorVoice)}

	for _, track := range graph.Tracks {
		var voiceKey GeneratorVoiceKey
		var gv *GeneratorVoice
		if track.Generator != ids.NilGenerator {
			voiceKey = GeneratorVoiceKey{MixerChannel: ids.MixerChannelID(track.ID), Generator: track.Generator}
			gv = &GeneratorVoice{}
			result.GeneratorVoices[voiceKey] = gv
		}

		for _, clip := range track.Clips {
			if clip.StartTime > t1 {
				break // clips are ordered by start_time; nothing further can intersect
			}
			if clip.EndTime() < t0 {
				continue
			}
			switch clip.Source.Kind {
			case project.SourceAudio:
				if v, ok := scanAudioClip(graph, clip, t0, t1, ids.MixerChannelID(track.ID)); ok {
					result.AudioVoices = append(result.AudioVoices, v)
				}
			case project.SourceMidi:
				if gv != nil {
					scanMidiClip(graph, clip, t0, t1, tempo, graph.SampleRate, gv)
				}
			case project.SourceAutomation:
				// reserved, no-op per spec §4.6 step 5
			}
		}
	}
	return result
}

func scanAudioClip(graph *snapshot.AudioGraph, clip project.Clip, t0, t1 int64, mixerChannel ids.MixerChannelID) (AudioVoice, bool) {
	wf := graph.Waveforms[clip.Source.Waveform]
	if wf == nil {
		return AudioVoice{}, false
	}

	renderStart := t0
	if clip.StartTime > renderStart {
		renderStart = clip.StartTime
	}
	renderEnd := t1
	if clip.EndTime() < renderEnd {
		renderEnd = clip.EndTime()
	}
	if renderStart >= renderEnd {
		return AudioVoice{}, false
	}

	outputOffset := int(renderStart - t0)
	samplesElapsed := renderStart - clip.StartTime + clip.OffsetStart
	ratio := float64(wf.SampleRate) / float64(graph.SampleRate)
	sourceElapsed := float64(samplesElapsed) * ratio

	trimStart := wf.TrimStart
	trimEnd := wf.EffectiveTrimEnd()
	span := trimEnd - trimStart

	var readIndex float64
	if wf.IsLooping && span > 0 {
		readIndex = float64(trimStart) + mod64(sourceElapsed, float64(span))
	} else {
		readIndex = float64(trimStart) + sourceElapsed
		if readIndex >= float64(trimEnd) {
			return AudioVoice{}, false
		}
	}

	return AudioVoice{
		Waveform:            wf,
		MixerChannel:        mixerChannel,
		OutputOffsetFrames:  outputOffset,
		ReadIndex:           readIndex,
		StartBoundary:       trimStart,
		EndBoundary:         trimEnd,
		Looping:             wf.IsLooping,
	}, true
}

func mod64(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}

func scanMidiClip(graph *snapshot.AudioGraph, clip project.Clip, t0, t1 int64, tempo float32, sampleRate int, gv *GeneratorVoice) {
	pat, ok := graph.Patterns[clip.Source.Pattern]
	if !ok || pat.LengthTicks <= 0 {
		return
	}

	spb := samplesPerBeat(tempo, sampleRate)
	if spb <= 0 {
		return
	}
	patternLenFrames := float64(pat.LengthTicks) / pattern.TicksPerQuarterNote * spb
	if patternLenFrames <= 0 {
		return
	}

	clipEnd := clip.EndTime()
	windowStart := t0
	if windowStart < clip.StartTime {
		// Events the offset shifted ahead of the clip's own start are the
		// notes offset_start skipped; they must not sound early.
		windowStart = clip.StartTime
	}
	windowEnd := t1
	if windowEnd > clipEnd {
		windowEnd = clipEnd
	}

	// Start one repetition early: offset_start can shift a note's on/off
	// time before its nominal repetition boundary.
	firstK := int64(float64(windowStart-clip.StartTime)/patternLenFrames) - 1
	if firstK < 0 {
		firstK = 0
	}

	for k := firstK; ; k++ {
		repeatStart := clip.StartTime + int64(float64(k)*patternLenFrames)
		// offset_start shifts every event earlier, so a repetition nominally
		// past the window can still land events inside it.
		if repeatStart-clip.OffsetStart > windowEnd {
			break
		}
		for _, n := range pat.Notes {
			if n.Mute {
				continue
			}
			onTime := repeatStart + int64(float64(n.StartTick)/pattern.TicksPerQuarterNote*spb) - clip.OffsetStart
			offTime := onTime + int64(float64(n.Duration)/pattern.TicksPerQuarterNote*spb)

			if onTime >= windowStart && onTime < windowEnd {
				gv.Events = append(gv.Events, generator.MidiEvent{
					SampleOffset: int(onTime - t0),
					Data:         generator.NoteOn{Key: n.Key, Velocity: n.Velocity},
				})
			}
			if offTime >= windowStart && offTime < windowEnd {
				gv.Events = append(gv.Events, generator.MidiEvent{
					SampleOffset: int(offTime - t0),
					Data:         generator.NoteOff{Key: n.Key},
				})
			}
		}
	}

	generator.SortEvents(gv.Events)
}

func samplesPerBeat(tempo float32, sampleRate int) float64 {
	if tempo <= 0 {
		return 0
	}
	return 60.0 / float64(tempo) * float64(sampleRate)
}
