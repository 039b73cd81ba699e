package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripleBufferConsumeBeforePublishIsNil(t *testing.T) {
	tb := NewTripleBuffer[int]()
	assert.Nil(t, tb.Consume())
}

func TestTripleBufferMonotonicVersions(t *testing.T) {
	tb := NewTripleBuffer[int]()
	a, b, c := 1, 2, 3
	tb.Publish(&a)
	got1 := tb.Consume()
	require.NotNil(t, got1)
	assert.Equal(t, 1, *got1)

	tb.Publish(&b)
	tb.Publish(&c)
	got2 := tb.Consume()
	require.NotNil(t, got2)
	assert.Equal(t, 3, *got2, "consumer must see the latest publish, never a stale one once it checks again")
}

func TestTripleBufferConsumeWithoutNewPublishKeepsCurrent(t *testing.T) {
	tb := NewTripleBuffer[int]()
	a := 42
	tb.Publish(&a)
	first := tb.Consume()
	second := tb.Consume()
	assert.Same(t, first, second, "two consecutive callbacks with no intervening publish see the identical snapshot")
}

func TestRingFIFOOrder(t *testing.T) {
	r := NewRing[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, r.Push(i))
	}
	for i := 0; i < 4; i++ {
		v, ok := r.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := r.TryPop()
	assert.False(t, ok)
}

func TestRingOverflowDropsAndCounts(t *testing.T) {
	r := NewCommandRing()
	for i := 0; i < 200; i++ {
		r.Push(Command{Kind: CmdPlayPreviewNote, Key: uint8(i % 128)})
	}
	assert.EqualValues(t, 200-CommandRingCapacity, r.Dropped())

	var seen []Command
	r.DrainInto(func(c Command) { seen = append(seen, c) })
	require.Len(t, seen, CommandRingCapacity)
	for i, c := range seen {
		assert.Equal(t, uint8(i%128), c.Key, "surviving messages must remain in FIFO order")
	}
}
