// Package transport holds State (C9's data model, also embedded in the
// project model and cloned into each snapshot's transport half) and the
// pure arithmetic (beat/bar recompute, looping, seek) the audio thread and
// editor both need. The audio-callback orchestration that consumes State
// lives in internal/playback, above this package.
package transport

// TimeSignature is a pair of small unsigned ints, e.g. 4/4.
type TimeSignature struct {
	Numerator   uint8
	Denominator uint8
}

// DefaultTimeSignature is 4/4.
var DefaultTimeSignature = TimeSignature{Numerator: 4, Denominator: 4}

// State is the transport's data model (§3 TransportState).
type State struct {
	IsPlaying   bool
	IsRecording bool
	IsLooping   bool

	PlayheadSamples int64
	LoopStartSamples int64
	LoopEndSamples   int64

	Bpm           float32
	TimeSignature TimeSignature

	Beat float64 // 1-based
	Bar  float64 // 1-based
}

// New returns a transport at the start of the timeline, 120bpm, 4/4.
func New() *State {
	return &State{
		Bpm:           120,
		TimeSignature: DefaultTimeSignature,
		Beat:          1,
		Bar:           1,
	}
}

// Clone returns an independent copy, safe to publish into a snapshot
// without the audio thread's subsequent mutation reaching the editor.
func (s *State) Clone() *State {
	clone := *s
	return &clone
}

// SamplesPerBeat returns the number of audio frames in one quarter note at
// the transport's current tempo and sample rate.
func SamplesPerBeat(bpm float32, sampleRate int) float64 {
	if bpm <= 0 {
		return 0
	}
	return 60.0 / float64(bpm) * float64(sampleRate)
}

// RecomputeBeatBar derives Beat/Bar from PlayheadSamples, per spec §4.8:
// beat = (playhead/samples_per_beat) + 1, bar = (beat-1)/4 + 1.
//
// The "/4" is the spec's fixed beats-per-bar divisor; it does not vary
// with TimeSignature.Numerator, matching spec.md's literal formula.
func (s *State) RecomputeBeatBar(sampleRate int) {
	spb := SamplesPerBeat(s.Bpm, sampleRate)
	if spb <= 0 {
		s.Beat, s.Bar = 1, 1
		return
	}
	s.Beat = float64(s.PlayheadSamples)/spb + 1
	s.Bar = (s.Beat-1)/4 + 1
}

// Seek sets the playhead and recomputes beat/bar, leaving IsPlaying
// untouched (a seek does not itself start or stop playback).
func (s *State) Seek(frames int64, sampleRate int) {
	if frames < 0 {
		frames = 0
	}
	s.PlayheadSamples = frames
	s.RecomputeBeatBar(sampleRate)
}

// ResetPlayhead moves the playhead to zero, resets beat/bar to 1, and
// stops playback, matching the ResetPlayhead command's contract.
func (s *State) ResetPlayhead() {
	s.PlayheadSamples = 0
	s.Beat = 1
	s.Bar = 1
	s.IsPlaying = false
}

// Advance moves the playhead forward by n frames, applies looping if
// enabled, and recomputes beat/bar. Returns true if the loop wrapped.
func (s *State) Advance(n int64, sampleRate int) (wrapped bool) {
	s.PlayheadSamples += n
	if s.IsLooping && s.LoopStartSamples < s.LoopEndSamples && s.PlayheadSamples >= s.LoopEndSamples {
		overshoot := s.PlayheadSamples - s.LoopEndSamples
		s.PlayheadSamples = s.LoopStartSamples + overshoot
		wrapped = true
	}
	s.RecomputeBeatBar(sampleRate)
	return wrapped
}

// PastEnd reports whether the playhead has moved beyond maxSampleIndex,
// the end-of-song auto-stop condition from spec §4.8.
func (s *State) PastEnd(maxSampleIndex int64) bool {
	return s.PlayheadSamples > maxSampleIndex
}
