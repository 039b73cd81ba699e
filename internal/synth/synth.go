// Package synth implements the reference synthesizer (C6): three
// oscillators, an ADSR envelope per voice, a global state-variable filter,
// and a drive stage. It is the concrete reference implementation of the
// generator.Generator contract, showing plugin authors the plugin shape.
//
// The oscillator phase-accumulator and per-sample math follow the style of
// the teacher's own audio callback (plain float64 phase accumulators
// incremented by freq/sampleRate and wrapped by subtraction), generalized
// from the teacher's fixed eight-channel drum synth into a data-driven,
// polyphonic, MIDI-event-driven instrument.
package synth

import (
	"math"

	"github.com/sonatalabs/dawcore/internal/generator"
)

// Waveform selects an oscillator's shape.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
	Noise
)

// FilterMode selects the state-variable filter's output tap.
type FilterMode int

const (
	LowPass FilterMode = iota
	HighPass
	BandPass
	FilterOff
)

// Parameter ids, per spec §4.5. The gaps (9, 14-19, 24-29) are reserved.
const (
	ParamGain       = 0
	ParamCutoff     = 1
	ParamResonance  = 2
	ParamFilterMode = 3
	ParamAttack     = 4
	ParamDecay      = 5
	ParamSustain    = 6
	ParamRelease    = 7
	ParamDrive      = 8

	ParamOsc1Waveform   = 10
	ParamOsc1Detune     = 11
	ParamOsc1Mix        = 12
	ParamOsc1PulseWidth = 13

	ParamOsc2Waveform   = 20
	ParamOsc2Detune     = 21
	ParamOsc2Mix        = 22
	ParamOsc2PulseWidth = 23

	ParamOsc3Waveform   = 30
	ParamOsc3Detune     = 31
	ParamOsc3Mix        = 32
	ParamOsc3PulseWidth = 33
)

const (
	paramOsc2Base = 20
	paramOsc3Base = 30
)

const maxVoices = 16

const (
	minAttackSeconds = 0.001
)

type envelopeStage int

const (
	stageIdle envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

type envelope struct {
	stage             envelopeStage
	level             float64
	releaseStartLevel float64
	attack, decay, release float64 // seconds
	sustain           float64      // level, 0..1
}

func (e *envelope) noteOn(attack, decay, sustain, release float64) {
	e.attack = math.Max(attack, minAttackSeconds)
	e.decay = math.Max(decay, minAttackSeconds)
	e.sustain = sustain
	e.release = math.Max(release, minAttackSeconds)
	e.stage = stageAttack
	e.level = 0
}

func (e *envelope) noteOff() {
	if e.stage == stageIdle {
		return
	}
	e.releaseStartLevel = e.level
	e.stage = stageRelease
}

func (e *envelope) advance(dt float64) float64 {
	switch e.stage {
	case stageAttack:
		rate := 1.0 / e.attack
		e.level += rate * dt
		if e.level >= 1 {
			e.level = 1
			e.stage = stageDecay
		}
	case stageDecay:
		rate := 1.0 / e.decay
		e.level -= rate * dt * (1 - e.sustain)
		if e.level <= e.sustain {
			e.level = e.sustain
			e.stage = stageSustain
		}
	case stageSustain:
		e.level = e.sustain
	case stageRelease:
		if e.releaseStartLevel <= 0 {
			e.level = 0
		} else {
			rate := e.releaseStartLevel / e.release
			e.level -= rate * dt
		}
		if e.level <= 0 {
			e.level = 0
			e.stage = stageIdle
		}
	}
	return e.level
}

type oscillator struct {
	waveform    Waveform
	detune      float64 // semitones
	mix         float64 // 0..1
	pulseWidth  float64 // 0.01..0.99
	phase       float64
}

func noteFrequency(key uint8, detuneSemitones float64) float64 {
	return 440.0 * math.Pow(2, (float64(key)-69)/12) * math.Pow(2, detuneSemitones/12)
}

func (o *oscillator) next(freq float64, sampleRate int) float64 {
	inc := freq / float64(sampleRate)
	o.phase += inc
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	var out float64
	switch o.waveform {
	case Sine:
		out = math.Sin(2 * math.Pi * o.phase)
	case Saw:
		out = 2*o.phase - 1
	case Square:
		pw := o.pulseWidth
		if pw < 0.01 {
			pw = 0.01
		} else if pw > 0.99 {
			pw = 0.99
		}
		if o.phase < pw {
			out = 1
		} else {
			out = -1
		}
	case Triangle:
		out = 4*math.Abs(o.phase-0.5) - 1
	case Noise:
		out = pseudoNoise(&o.phase)
	}
	return out * o.mix
}

// pseudoNoise is a cheap deterministic noise source: no allocation, no
// global RNG lock, safe for the audio thread. It reuses the oscillator's
// phase accumulator as a simple xorshift-style seed.
func pseudoNoise(phaseSeed *float64) float64 {
	bits := uint64(*phaseSeed * 1e9)
	bits ^= bits << 13
	bits ^= bits >> 7
	bits ^= bits << 17
	return (float64(bits%2000001) / 1000000.0) - 1
}

type svfState struct{ s1, s2 float64 }

func (s *svfState) reset() { s.s1, s.s2 = 0, 0 }

// process runs one sample through a Chamberlin-topology state-variable
// filter and returns the tap selected by mode. s1 carries the band-pass
// state and s2 the low-pass state across calls, per spec's "two state
// pairs carry s1, s2 across blocks".
func (s *svfState) process(in float64, f, damping float64, mode FilterMode) float64 {
	if mode == FilterOff {
		return in
	}
	low := s.s2 + f*s.s1
	high := in - low - damping*s.s1
	band := f*high + s.s1
	s.s1 = band
	s.s2 = low
	switch mode {
	case LowPass:
		return low
	case HighPass:
		return high
	case BandPass:
		return band
	default:
		return in
	}
}

type voice struct {
	key      uint8
	velocity uint8
	osc      [3]oscillator
	env      envelope
}

// gain maps MIDI velocity linearly onto [0,1].
func (v *voice) gain() float64 { return float64(v.velocity) / 127.0 }

// Synth is the reference polyphonic generator: three oscillators + ADSR +
// a global stereo SVF + drive, matching spec §4.5.
type Synth struct {
	sampleRate int

	voices []voice

	gain       float64
	cutoff     float64
	resonance  float64
	filterMode FilterMode
	attack, decay, sustain, release float64
	drive      float64

	oscCfg [3]oscillator // template parameters copied onto each new voice

	filterL, filterR svfState
}

// New returns a synth with sane defaults, matching the parameter defaults
// implied by spec §4.5.
func New() *Synth {
	s := &Synth{
		gain:       0.8,
		cutoff:     20000,
		resonance:  0,
		filterMode: LowPass,
		attack:     0.01,
		decay:      0.1,
		sustain:    0.8,
		release:    0.2,
		drive:      0,
	}
	s.oscCfg[0] = oscillator{waveform: Sine, mix: 1, pulseWidth: 0.5}
	s.oscCfg[1] = oscillator{waveform: Sine, mix: 0, pulseWidth: 0.5}
	s.oscCfg[2] = oscillator{waveform: Sine, mix: 0, pulseWidth: 0.5}
	return s
}

func (s *Synth) Name() string { return "dawcore.synth" }

func (s *Synth) Prepare(sampleRate int, maxBlockFrames int) {
	s.sampleRate = sampleRate
	s.voices = make([]voice, 0, maxVoices)
}

func (s *Synth) Reset() {
	s.voices = s.voices[:0]
	s.filterL.reset()
	s.filterR.reset()
}

func (s *Synth) findVoice(key uint8) int {
	for i := range s.voices {
		if s.voices[i].env.stage != stageIdle && s.voices[i].key == key {
			return i
		}
	}
	return -1
}

func (s *Synth) noteOn(key, velocity uint8) {
	if idx := s.findVoice(key); idx >= 0 {
		s.voices[idx].velocity = velocity
		s.voices[idx].env.noteOn(s.attack, s.decay, s.sustain, s.release)
		return
	}
	v := voice{key: key, velocity: velocity, osc: s.oscCfg}
	v.env.noteOn(s.attack, s.decay, s.sustain, s.release)
	// Grown on demand, never shrunk mid-block: append lets Go's slice
	// growth handle exceeding the initial 16-voice capacity.
	s.voices = append(s.voices, v)
}

func (s *Synth) noteOff(key uint8) {
	if idx := s.findVoice(key); idx >= 0 {
		s.voices[idx].env.noteOff()
	}
}

// Process splits [0,len(events)] sub-blocks at event boundaries internally
// via the caller (the renderer does sample-accurate dispatch); Process
// itself renders a single contiguous sub-block and applies any events at
// its start, matching the "generator exposes block process" contract.
func (s *Synth) Process(output []float32, events []generator.MidiEvent) {
	for _, ev := range events {
		switch d := ev.Data.(type) {
		case generator.NoteOn:
			s.noteOn(d.Key, d.Velocity)
		case generator.NoteOff:
			s.noteOff(d.Key)
		case generator.ControlChange:
			_ = d
		}
	}

	frames := len(output) / 2
	f := 2 * math.Sin(math.Pi*clampCutoff(s.cutoff)/float64(s.sampleRate))
	damping := 2 * (1 - clampResonance(s.resonance))
	// The Chamberlin loop stays stable only while f < sqrt(damping²+4) -
	// damping; f is held below that bound, which caps the effective cutoff
	// near Nyquist (and lower at low resonance) instead of letting the
	// filter state diverge to ±Inf/NaN.
	if fMax := 0.9 * (math.Sqrt(damping*damping+4) - damping); f > fMax {
		f = fMax
	}

	for i := 0; i < frames; i++ {
		var mixL, mixR float64
		dt := 1.0 / float64(s.sampleRate)
		for vi := range s.voices {
			v := &s.voices[vi]
			if v.env.stage == stageIdle {
				continue
			}
			freq0 := noteFrequency(v.key, v.osc[0].detune)
			freq1 := noteFrequency(v.key, v.osc[1].detune)
			freq2 := noteFrequency(v.key, v.osc[2].detune)
			sample := v.osc[0].next(freq0, s.sampleRate) +
				v.osc[1].next(freq1, s.sampleRate) +
				v.osc[2].next(freq2, s.sampleRate)
			level := v.env.advance(dt)
			sample *= level * v.gain()
			mixL += sample
			mixR += sample
		}
		s.compactVoices()

		if s.drive > 0 {
			mixL = math.Tanh(mixL * (1 + 4*s.drive))
			mixR = math.Tanh(mixR * (1 + 4*s.drive))
		}

		mixL = s.filterL.process(mixL, f, damping, s.filterMode)
		mixR = s.filterR.process(mixR, f, damping, s.filterMode)

		mixL *= s.gain
		mixR *= s.gain

		output[i*2] = float32(mixL)
		output[i*2+1] = float32(mixR)
	}
}

// compactVoices drops voices whose envelope has gone idle. It never runs
// mid-sample-loop iteration in a way that reindexes currently-processing
// voices (called once per frame, after all voices for that frame advanced).
func (s *Synth) compactVoices() {
	write := 0
	for read := 0; read < len(s.voices); read++ {
		if s.voices[read].env.stage == stageIdle {
			continue
		}
		s.voices[write] = s.voices[read]
		write++
	}
	s.voices = s.voices[:write]
}

func clampCutoff(hz float64) float64 {
	if hz < 20 {
		return 20
	}
	if hz > 20000 {
		return 20000
	}
	return hz
}

func clampResonance(q float64) float64 {
	if q < 0 {
		return 0
	}
	if q > 0.95 {
		return 0.95
	}
	return q
}

func (s *Synth) SetParameter(id int, value float64) {
	switch id {
	case ParamGain:
		s.gain = value
	case ParamCutoff:
		s.cutoff = clampCutoff(value)
	case ParamResonance:
		s.resonance = clampResonance(value)
	case ParamFilterMode:
		s.filterMode = FilterMode(int(value))
	case ParamAttack:
		s.attack = value
	case ParamDecay:
		s.decay = value
	case ParamSustain:
		s.sustain = value
	case ParamRelease:
		s.release = value
	case ParamDrive:
		s.drive = value
	default:
		s.setOscParameter(id, value)
	}
}

func (s *Synth) setOscParameter(id int, value float64) {
	var base, idx int
	switch {
	case id >= 10 && id <= 13:
		base, idx = 10, 0
	case id >= paramOsc2Base && id <= paramOsc2Base+3:
		base, idx = paramOsc2Base, 1
	case id >= paramOsc3Base && id <= paramOsc3Base+3:
		base, idx = paramOsc3Base, 2
	default:
		return
	}
	switch id - base {
	case 0:
		s.oscCfg[idx].waveform = Waveform(int(value))
	case 1:
		s.oscCfg[idx].detune = value
	case 2:
		s.oscCfg[idx].mix = value
	case 3:
		s.oscCfg[idx].pulseWidth = value
	}
}

func (s *Synth) GetParameter(id int) float64 {
	switch id {
	case ParamGain:
		return s.gain
	case ParamCutoff:
		return s.cutoff
	case ParamResonance:
		return s.resonance
	case ParamFilterMode:
		return float64(s.filterMode)
	case ParamAttack:
		return s.attack
	case ParamDecay:
		return s.decay
	case ParamSustain:
		return s.sustain
	case ParamRelease:
		return s.release
	case ParamDrive:
		return s.drive
	}
	return s.getOscParameter(id)
}

func (s *Synth) getOscParameter(id int) float64 {
	var base, idx int
	switch {
	case id >= 10 && id <= 13:
		base, idx = 10, 0
	case id >= paramOsc2Base && id <= paramOsc2Base+3:
		base, idx = paramOsc2Base, 1
	case id >= paramOsc3Base && id <= paramOsc3Base+3:
		base, idx = paramOsc3Base, 2
	default:
		return 0
	}
	switch id - base {
	case 0:
		return float64(s.oscCfg[idx].waveform)
	case 1:
		return s.oscCfg[idx].detune
	case 2:
		return s.oscCfg[idx].mix
	case 3:
		return s.oscCfg[idx].pulseWidth
	}
	return 0
}

func (s *Synth) DefaultParameters() []generator.Parameter {
	return []generator.Parameter{
		{ID: ParamGain, Name: "gain", Default: 0.8, Min: 0, Max: 1.5},
		{ID: ParamCutoff, Name: "cutoff", Default: 20000, Min: 20, Max: 20000},
		{ID: ParamResonance, Name: "resonance", Default: 0, Min: 0, Max: 0.95},
		{ID: ParamFilterMode, Name: "filter_mode", Default: float64(LowPass), Min: 0, Max: 3},
		{ID: ParamAttack, Name: "attack", Default: 0.01, Min: 0.001, Max: 10},
		{ID: ParamDecay, Name: "decay", Default: 0.1, Min: 0.001, Max: 10},
		{ID: ParamSustain, Name: "sustain", Default: 0.8, Min: 0, Max: 1},
		{ID: ParamRelease, Name: "release", Default: 0.2, Min: 0.001, Max: 10},
		{ID: ParamDrive, Name: "drive", Default: 0, Min: 0, Max: 1},
	}
}
