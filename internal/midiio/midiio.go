// Package midiio adapts the teacher's gomidi-based controller handler:
// instead of driving mixer channel volume/pan directly, incoming CC and
// note messages are translated into bridge.Command values and pushed onto
// the UI->audio command ring, so a hardware controller is just another
// command producer.
package midiio

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/ids"
)

// Common MIDI CC numbers this handler recognizes.
const (
	CCVolume uint8 = 7
	CCBpmMSB uint8 = 20 // unassigned CC, used by convention for tempo nudges
)

// BpmRange maps a CC value's [0,127] range to a tempo in BPM.
type BpmRange struct {
	Min, Max float32
}

// Handler manages MIDI input/output connections and routes incoming
// messages onto a command ring, keyed to a single generator for note
// preview, as there is no per-key routing input on a typical controller.
type Handler struct {
	inPort   drivers.In
	outPort  drivers.Out
	stopFunc func()

	mu        sync.RWMutex
	connected bool

	commands       *bridge.Ring[bridge.Command]
	previewGen     ids.GeneratorID
	bpmRange       BpmRange
}

// NewHandler returns a handler that pushes onto commands, routing note
// input to previewGenerator and CC 20 to a tempo nudge within bpmRange.
func NewHandler(commands *bridge.Ring[bridge.Command], previewGenerator ids.GeneratorID, bpmRange BpmRange) *Handler {
	return &Handler{commands: commands, previewGen: previewGenerator, bpmRange: bpmRange}
}

// GetInputPorts returns available MIDI input ports.
func GetInputPorts() []drivers.In { return midi.GetInPorts() }

// GetOutputPorts returns available MIDI output ports.
func GetOutputPorts() []drivers.Out { return midi.GetOutPorts() }

// Connect opens the given ports and starts listening for input.
func (h *Handler) Connect(inPort drivers.In, outPort drivers.Out) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		h.disconnect()
	}
	h.inPort = inPort
	h.outPort = outPort

	if outPort != nil {
		if err := outPort.Open(); err != nil {
			return fmt.Errorf("failed to open output port: %w", err)
		}
	}
	if inPort != nil {
		stop, err := midi.ListenTo(inPort, h.handleMIDI, midi.UseSysEx())
		if err != nil {
			if outPort != nil {
				outPort.Close()
			}
			return fmt.Errorf("failed to listen on input port: %w", err)
		}
		h.stopFunc = stop
	}

	h.connected = true
	return nil
}

// SetPreviewGenerator changes which live generator note-on/off input is
// routed to.
func (h *Handler) SetPreviewGenerator(id ids.GeneratorID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previewGen = id
}

func (h *Handler) handleMIDI(msg midi.Message, timestampms int32) {
	var ch, key, vel uint8
	if msg.GetNoteOn(&ch, &key, &vel) {
		h.pushPreviewNote(key, vel, true)
		return
	}
	if msg.GetNoteOff(&ch, &key, &vel) {
		h.pushPreviewNote(key, vel, false)
		return
	}
	var cc, val uint8
	if msg.GetControlChange(&ch, &cc, &val) {
		h.handleCC(cc, val)
	}
}

func (h *Handler) pushPreviewNote(key, velocity uint8, isNoteOn bool) {
	h.mu.RLock()
	gen := h.previewGen
	h.mu.RUnlock()
	h.commands.Push(bridge.Command{
		Kind: bridge.CmdPlayPreviewNote, Generator: gen,
		Key: key, Velocity: velocity, IsNoteOn: isNoteOn,
	})
}

func (h *Handler) handleCC(controller, value uint8) {
	if controller != CCBpmMSB {
		return
	}
	h.mu.RLock()
	r := h.bpmRange
	h.mu.RUnlock()
	bpm := r.Min + (r.Max-r.Min)*float32(value)/127
	h.commands.Push(bridge.Command{Kind: bridge.CmdSetBpm, Bpm: bpm})
}

// SendCC sends a Control Change message to the connected output port, used
// to drive motorized faders / LED rings on the controller itself.
func (h *Handler) SendCC(channel, controller, value uint8) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.outPort == nil || !h.connected {
		return nil
	}
	return h.outPort.Send(midi.ControlChange(channel, controller, value))
}

func (h *Handler) disconnect() {
	if h.stopFunc != nil {
		h.stopFunc()
		h.stopFunc = nil
	}
	if h.outPort != nil {
		h.outPort.Close()
	}
	h.connected = false
}

// Close closes all MIDI connections.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnect()
}

// IsConnected reports whether an input or output port is open.
func (h *Handler) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

// InputPortName returns the connected input port's name, or "None".
func (h *Handler) InputPortName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.inPort != nil {
		return h.inPort.String()
	}
	return "None"
}

// OutputPortName returns the connected output port's name, or "None".
func (h *Handler) OutputPortName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.outPort != nil {
		return h.outPort.String()
	}
	return "None"
}
