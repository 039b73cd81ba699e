package bridge

// PlaybackPosition is a single audio-thread -> UI position report, emitted
// at roughly sample_rate/60 cadence (spec §4.3/§4.8).
type PlaybackPosition struct {
	Samples    int64
	Beat       float64 // 1-based
	Bar        float64 // 1-based
	Tempo      float32
	SampleRate int
	IsPlaying  bool
}

// PositionRingCapacity is the minimum capacity required by spec §4.3.
const PositionRingCapacity = 100

// NewPositionRing returns a position ring sized to the spec minimum.
func NewPositionRing() *Ring[PlaybackPosition] { return NewRing[PlaybackPosition](PositionRingCapacity) }
