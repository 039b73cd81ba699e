package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeI16RoundTrips(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	buf := make([]byte, len(samples)*2)
	encode(buf, samples, FormatI16)

	for i, want := range samples {
		v := int16(buf[i*2]) | int16(buf[i*2+1])<<8
		got := float32(v) / 32767
		assert.InDelta(t, want, got, 0.01)
	}
}

func TestEncodeClampsOutOfRangeSamples(t *testing.T) {
	samples := []float32{2, -2}
	buf := make([]byte, len(samples)*2)
	encode(buf, samples, FormatI16)

	v0 := int16(buf[0]) | int16(buf[1])<<8
	v1 := int16(buf[2]) | int16(buf[3])<<8
	assert.Equal(t, int16(32767), v0)
	assert.Equal(t, int16(-32767), v1)
}

func TestEncodeU8CentersAtSilence(t *testing.T) {
	buf := make([]byte, 1)
	encode(buf, []float32{0}, FormatU8)
	assert.InDelta(t, 127, int(buf[0]), 1)
}

func TestEncodeF32PreservesBitPattern(t *testing.T) {
	samples := []float32{0.25, -0.75}
	buf := make([]byte, len(samples)*4)
	encode(buf, samples, FormatF32)

	for i, want := range samples {
		bits := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
		got := math.Float32frombits(bits)
		assert.Equal(t, want, got)
	}
}

func TestBytesPerSampleMatchesFormat(t *testing.T) {
	assert.Equal(t, 4, FormatF32.bytesPerSample())
	assert.Equal(t, 2, FormatI16.bytesPerSample())
	assert.Equal(t, 2, FormatU16.bytesPerSample())
	assert.Equal(t, 1, FormatU8.bytesPerSample())
}
