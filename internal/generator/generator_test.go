package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullGen struct{}

func (nullGen) Name() string                       { return "null" }
func (nullGen) Prepare(int, int)                   {}
func (nullGen) Reset()                             {}
func (nullGen) Process([]float32, []MidiEvent)     {}
func (nullGen) SetParameter(int, float64)          {}
func (nullGen) GetParameter(int) float64           { return 0 }
func (nullGen) DefaultParameters() []Parameter     { return nil }

func TestRegistryCreateUnknownNameFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("missing")
	assert.Error(t, err)
}

func TestRegistryNamesPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func() Generator { return nullGen{} })
	r.Register("a", func() Generator { return nullGen{} })
	r.Register("b", func() Generator { return nullGen{} }) // overwrite, not re-append
	assert.Equal(t, []string{"b", "a"}, r.Names())
}

func TestRegistryCreateReturnsFreshInstances(t *testing.T) {
	r := NewRegistry()
	r.Register("null", func() Generator { return nullGen{} })
	g1, err := r.Create("null")
	require.NoError(t, err)
	g2, err := r.Create("null")
	require.NoError(t, err)
	assert.NotNil(t, g1)
	assert.NotNil(t, g2)
}

func TestSortEventsOrdersBySampleOffset(t *testing.T) {
	events := []MidiEvent{
		{SampleOffset: 32, Data: NoteOff{Key: 60}},
		{SampleOffset: 0, Data: NoteOn{Key: 60, Velocity: 100}},
		{SampleOffset: 16, Data: ControlChange{Controller: 1, Value: 64}},
	}
	SortEvents(events)
	assert.Equal(t, 0, events[0].SampleOffset)
	assert.Equal(t, 16, events[1].SampleOffset)
	assert.Equal(t, 32, events[2].SampleOffset)
}
