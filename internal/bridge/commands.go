package bridge

import "github.com/sonatalabs/dawcore/internal/ids"

// CommandKind is the closed set of messages the UI may push onto the
// command ring, per spec §4.3.
type CommandKind int

const (
	CmdPlayOneShot CommandKind = iota
	CmdStopAllPreviews
	CmdResetPlayhead
	CmdSetPlayhead
	CmdPlayPreviewNote
	CmdSetBpm
)

// Command is a single UI -> audio thread message. Only the fields relevant
// to Kind are populated.
type Command struct {
	Kind CommandKind

	Waveform ids.WaveformID // PlayOneShot

	Frames int64 // SetPlayhead

	Key         uint8          // PlayPreviewNote
	Generator   ids.GeneratorID // PlayPreviewNote
	Velocity    uint8          // PlayPreviewNote
	IsNoteOn    bool           // PlayPreviewNote

	Bpm float32 // SetBpm
}

// CommandRingCapacity is the minimum capacity required by spec §4.3.
const CommandRingCapacity = 128

// NewCommandRing returns a command ring sized to the spec minimum.
func NewCommandRing() *Ring[Command] { return NewRing[Command](CommandRingCapacity) }
