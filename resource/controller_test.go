package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchTracking(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireScratch(context.Background(), 100))
	assert.Equal(t, int64(100), c.ScratchUsage())
	c.ReleaseScratch(100)
	assert.Equal(t, int64(0), c.ScratchUsage())
}

func TestScratchHardLimit(t *testing.T) {
	c := NewController(Config{ScratchLimitBytes: 64})
	require.NoError(t, c.AcquireScratch(context.Background(), 64))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.AcquireScratch(ctx, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseScratch(64)
	require.NoError(t, c.AcquireScratch(context.Background(), 1))
	c.ReleaseScratch(1)
}

func TestDecodeSlots(t *testing.T) {
	c := NewController(Config{MaxInFlightDecodes: 2})
	assert.True(t, c.TryBeginDecode())
	assert.True(t, c.TryBeginDecode())
	assert.Equal(t, int64(2), c.InFlight())

	assert.False(t, c.TryBeginDecode())

	c.EndDecode()
	assert.True(t, c.TryBeginDecode())
	c.EndDecode()
	c.EndDecode()
	assert.Equal(t, int64(0), c.InFlight())
}

func TestDefaultSingleSlot(t *testing.T) {
	c := NewController(Config{})
	assert.True(t, c.TryBeginDecode())
	assert.False(t, c.TryBeginDecode())
	c.EndDecode()
}

func TestNilController(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireScratch(context.Background(), 10))
	c.ReleaseScratch(10)
	assert.True(t, c.TryBeginDecode())
	c.EndDecode()
	assert.Equal(t, int64(0), c.ScratchUsage())
	assert.Equal(t, int64(0), c.InFlight())
}
