package project

import "github.com/sonatalabs/dawcore/internal/ids"

// MasterChannelID is the fixed id of the always-present master bus: the
// zero-value UUID, which no track-derived channel id can ever equal.
var MasterChannelID = ids.MixerChannelID{}

// MixerChannel is one strip of the mixer: a track's output or the master
// bus, per spec §3 MixerState.
type MixerChannel struct {
	ID     ids.MixerChannelID
	Name   string
	Volume float32 // linear gain, 0..2
	Pan    float32 // -1..1
	Mute   bool
	Solo   bool
}

// NewMixerChannel returns a channel at unity gain, centered pan.
func NewMixerChannel(id ids.MixerChannelID, name string) MixerChannel {
	return MixerChannel{ID: id, Name: name, Volume: 1, Pan: 0}
}

// MixerState is the full set of channels, master included.
type MixerState struct {
	Master   MixerChannel
	Channels map[ids.MixerChannelID]MixerChannel
}

// NewMixerState returns a mixer with only the master bus.
func NewMixerState() MixerState {
	return MixerState{
		Master:   NewMixerChannel(MasterChannelID, "Master"),
		Channels: make(map[ids.MixerChannelID]MixerChannel),
	}
}

// Clone performs the copy-on-write duplication required before mutation.
func (m MixerState) Clone() MixerState {
	clone := MixerState{Master: m.Master, Channels: make(map[ids.MixerChannelID]MixerChannel, len(m.Channels))}
	for id, ch := range m.Channels {
		clone.Channels[id] = ch
	}
	return clone
}

// AnySolo reports whether any channel is soloed, which mutes every
// non-soloed channel during mixdown per spec §4.8.
func (m MixerState) AnySolo() bool {
	for _, ch := range m.Channels {
		if ch.Solo {
			return true
		}
	}
	return false
}

// Audible reports whether the channel should contribute to the mix given
// the current solo state of the whole mixer.
func (ch MixerChannel) Audible(anySolo bool) bool {
	if ch.Mute {
		return false
	}
	if anySolo && !ch.Solo {
		return false
	}
	return true
}
