// Package device adapts the oto-backed output stream (originally a
// hardcoded drum-machine renderer) into a generic stereo audio-callback
// driver: every buffer is produced by a caller-supplied RenderFunc, and
// written out in whichever sample format the platform negotiated.
package device

import (
	"fmt"
	"math"
	"sync"

	"github.com/hajimehoshi/oto/v2"
)

// SampleFormat is the closed set of output encodings a Device can emit.
// oto negotiates this per-platform; callers never assume one directly.
type SampleFormat int

const (
	FormatF32 SampleFormat = iota
	FormatI16
	FormatU16
	FormatU8
)

func (f SampleFormat) bytesPerSample() int {
	switch f {
	case FormatF32:
		return 4
	case FormatI16, FormatU16:
		return 2
	case FormatU8:
		return 1
	}
	return 2
}

// otoBytesPerSample is the byte depth actually negotiated with oto, which
// only accepts 1- or 2-byte PCM. F32 output is still produced by encode
// into the device's own buffer width, but the context itself is opened at
// the nearest depth oto supports; U16 negotiates as a 2-byte context,
// matching its own width.
func (f SampleFormat) otoBytesPerSample() int {
	if f == FormatU8 {
		return 1
	}
	return 2
}

// RenderFunc fills output with interleaved stereo frames in [-1, 1]; called
// once per buffer from the audio thread, matching the renderer package's
// Render signature.
type RenderFunc func(output []float32)

// Device owns the platform output stream and drives RenderFunc on every
// buffer request, replacing the teacher's built-in synthesis with a
// pluggable render callback.
type Device struct {
	ctx    *oto.Context
	player oto.Player

	mu      sync.RWMutex
	running bool
	render  RenderFunc
	format  SampleFormat
	scratch []float32
}

// Open starts an oto context at sampleRate/channelCount (always 2) and
// begins pulling buffers through render as soon as Start is called. oto's
// own PCM backend only negotiates 1- or 2-byte depths, so only FormatI16
// and FormatU8 are accepted here; FormatF32/FormatU16 remain valid encode
// targets for non-oto sinks but are rejected by this constructor.
func Open(sampleRate, bufferFrames int, format SampleFormat, render RenderFunc) (*Device, error) {
	if format != FormatI16 && format != FormatU8 {
		return nil, fmt.Errorf("open audio device: format %d is not supported by the oto backend", format)
	}
	ctx, ready, err := oto.NewContext(sampleRate, 2, format.otoBytesPerSample())
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	d := &Device{
		ctx:     ctx,
		render:  render,
		format:  format,
		scratch: make([]float32, bufferFrames*2),
	}
	d.player = ctx.NewPlayer(&deviceStream{device: d})
	return d, nil
}

// Start begins playback; buffers pulled before Start produce silence.
func (d *Device) Start() {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()
	d.player.Play()
}

// Close stops playback and releases the underlying stream.
func (d *Device) Close() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	if d.player != nil {
		d.player.Close()
	}
}

type deviceStream struct{ device *Device }

// Read is oto's pull callback: it asks for len(buf) encoded bytes. We
// render into a float32 scratch buffer sized to match, then cast down to
// whatever format oto negotiated for the platform.
func (s *deviceStream) Read(buf []byte) (int, error) {
	d := s.device
	d.mu.RLock()
	running := d.running
	render := d.render
	format := d.format
	d.mu.RUnlock()

	bytesPerFrame := 2 * format.bytesPerSample()
	frames := len(buf) / bytesPerFrame
	need := frames * 2
	if len(d.scratch) < need {
		d.scratch = make([]float32, need)
	}
	scratch := d.scratch[:need]

	if !running || render == nil {
		for i := range scratch {
			scratch[i] = 0
		}
	} else {
		render(scratch)
	}

	encode(buf, scratch, format)
	return frames * bytesPerFrame, nil
}

func encode(buf []byte, samples []float32, format SampleFormat) {
	switch format {
	case FormatF32:
		for i, s := range samples {
			bits := math.Float32bits(clamp(s))
			buf[i*4] = byte(bits)
			buf[i*4+1] = byte(bits >> 8)
			buf[i*4+2] = byte(bits >> 16)
			buf[i*4+3] = byte(bits >> 24)
		}
	case FormatI16:
		for i, s := range samples {
			v := int16(clamp(s) * 32767)
			buf[i*2] = byte(v)
			buf[i*2+1] = byte(v >> 8)
		}
	case FormatU16:
		for i, s := range samples {
			v := uint16((clamp(s)*0.5 + 0.5) * 65535)
			buf[i*2] = byte(v)
			buf[i*2+1] = byte(v >> 8)
		}
	case FormatU8:
		for i, s := range samples {
			buf[i] = byte((clamp(s)*0.5 + 0.5) * 255)
		}
	}
}

// clamp saturates to [-1, 1] so an out-of-range renderer output never wraps
// during the cast to an integer format.
func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

