// Package metrics exposes the render path's health counters as Prometheus
// gauges/counters, grounded on tphakala-birdnet-go's direct
// prometheus/client_golang dependency (internal/observability/metrics).
// The audio thread itself never imports this package: it increments plain
// atomics (bridge.Ring's drop counter, playback.Runner.Underruns), and
// only the reporter/editor side periodically copies those values into the
// registered Prometheus instruments, so the render loop never pays for a
// label lookup or a mutex acquisition.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder holds every gauge/counter the engine exposes. Construct one with
// NewRecorder and register it on a *prometheus.Registry (or the default
// registerer) once at startup.
type Recorder struct {
	CommandRingDropped  prometheus.Gauge
	PositionRingDropped prometheus.Gauge
	Underruns           prometheus.Gauge
	ActiveGeneratorVoices prometheus.Gauge
	ActiveAudioVoices   prometheus.Gauge
	PreviewVoices       prometheus.Gauge
	SnapshotPublishes   prometheus.Counter
}

// NewRecorder builds a Recorder with freshly constructed instruments. It
// does not register them; call Register(reg) once the caller has decided
// which registry (default or test-local) to use.
func NewRecorder() *Recorder {
	return &Recorder{
		CommandRingDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawcore",
			Subsystem: "bridge",
			Name:      "command_ring_dropped_total",
			Help:      "Cumulative UI->audio commands dropped due to ring overflow.",
		}),
		PositionRingDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawcore",
			Subsystem: "bridge",
			Name:      "position_ring_dropped_total",
			Help:      "Cumulative audio->UI position frames dropped due to ring overflow.",
		}),
		Underruns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawcore",
			Subsystem: "transport",
			Name:      "callback_underruns_total",
			Help:      "Audio callbacks that ran with no published snapshot yet.",
		}),
		ActiveGeneratorVoices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawcore",
			Subsystem: "sequencer",
			Name:      "active_generator_voices",
			Help:      "Generator voice slots live in the most recent callback.",
		}),
		ActiveAudioVoices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawcore",
			Subsystem: "sequencer",
			Name:      "active_audio_voices",
			Help:      "Transient audio-clip voices emitted by the most recent callback.",
		}),
		PreviewVoices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawcore",
			Subsystem: "renderer",
			Name:      "preview_voices",
			Help:      "Live one-shot preview voices not yet retired.",
		}),
		SnapshotPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dawcore",
			Subsystem: "snapshot",
			Name:      "publishes_total",
			Help:      "Snapshots republished through the triple buffer (graph or transport half).",
		}),
	}
}

// Register adds every instrument to reg. Panics only if called twice with
// the same registry, matching promauto's own registration contract.
func (r *Recorder) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		r.CommandRingDropped,
		r.PositionRingDropped,
		r.Underruns,
		r.ActiveGeneratorVoices,
		r.ActiveAudioVoices,
		r.PreviewVoices,
		r.SnapshotPublishes,
	)
}

// Poller owns the plain-atomic counters the real-time side exposes, so
// Sample can copy their current values into the Prometheus instruments
// without ever touching the audio thread.
type Poller struct {
	CommandDropped  func() uint64
	PositionDropped func() uint64
	Underruns       func() uint64
}

// Sample copies every polled counter into r's gauges. Called by the
// position-reporter goroutine (~60 Hz), never from the audio callback.
func (p *Poller) Sample(r *Recorder) {
	if p.CommandDropped != nil {
		r.CommandRingDropped.Set(float64(p.CommandDropped()))
	}
	if p.PositionDropped != nil {
		r.PositionRingDropped.Set(float64(p.PositionDropped()))
	}
	if p.Underruns != nil {
		r.Underruns.Set(float64(p.Underruns()))
	}
}
