package midiio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonatalabs/dawcore/internal/bridge"
	"github.com/sonatalabs/dawcore/internal/ids"
)

func TestPushPreviewNoteRoutesToConfiguredGenerator(t *testing.T) {
	commands := bridge.NewCommandRing()
	genID := ids.NewGeneratorID()
	h := NewHandler(commands, genID, BpmRange{Min: 60, Max: 200})

	h.pushPreviewNote(60, 100, true)

	cmd, ok := commands.TryPop()
	require.True(t, ok)
	assert.Equal(t, bridge.CmdPlayPreviewNote, cmd.Kind)
	assert.Equal(t, genID, cmd.Generator)
	assert.EqualValues(t, 60, cmd.Key)
	assert.True(t, cmd.IsNoteOn)
}

func TestHandleCCMapsValueIntoBpmRange(t *testing.T) {
	commands := bridge.NewCommandRing()
	h := NewHandler(commands, ids.NewGeneratorID(), BpmRange{Min: 60, Max: 180})

	h.handleCC(CCBpmMSB, 127)

	cmd, ok := commands.TryPop()
	require.True(t, ok)
	assert.Equal(t, bridge.CmdSetBpm, cmd.Kind)
	assert.InDelta(t, 180, cmd.Bpm, 0.5)
}

func TestHandleCCIgnoresUnmappedControllers(t *testing.T) {
	commands := bridge.NewCommandRing()
	h := NewHandler(commands, ids.NewGeneratorID(), BpmRange{Min: 60, Max: 180})

	h.handleCC(CCVolume, 100)

	_, ok := commands.TryPop()
	assert.False(t, ok)
}

func TestSetPreviewGeneratorChangesRoutingTarget(t *testing.T) {
	commands := bridge.NewCommandRing()
	h := NewHandler(commands, ids.NewGeneratorID(), BpmRange{Min: 60, Max: 180})

	newGen := ids.NewGeneratorID()
	h.SetPreviewGenerator(newGen)
	h.pushPreviewNote(64, 90, false)

	cmd, ok := commands.TryPop()
	require.True(t, ok)
	assert.Equal(t, newGen, cmd.Generator)
}

func TestIsConnectedDefaultsFalse(t *testing.T) {
	h := NewHandler(bridge.NewCommandRing(), ids.NewGeneratorID(), BpmRange{})
	assert.False(t, h.IsConnected())
	assert.Equal(t, "None", h.InputPortName())
	assert.Equal(t, "None", h.OutputPortName())
}
