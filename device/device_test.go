package device

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPURunBatch(t *testing.T) {
	d := CPU(4)
	defer d.Close()

	var sum atomic.Int64
	err := d.RunBatch(context.Background(), 100, func(i int) error {
		sum.Add(int64(i))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4950), sum.Load())
}

func TestCPURunBatchEmpty(t *testing.T) {
	d := CPU(2)
	defer d.Close()
	require.NoError(t, d.RunBatch(context.Background(), 0, func(int) error { return nil }))
}

func TestCPURunBatchPropagatesError(t *testing.T) {
	d := CPU(2)
	defer d.Close()

	boom := errors.New("boom")
	err := d.RunBatch(context.Background(), 10, func(i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestCPURunBatchContextCancel(t *testing.T) {
	d := CPU(1)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var started atomic.Int32
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- d.RunBatch(ctx, 50, func(i int) error {
			started.Add(1)
			if i == 0 {
				<-release
			}
			return nil
		})
	}()

	// Let the first task start, then cancel; pending tasks are skipped.
	for started.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(release)

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, started.Load(), int32(50))
}

func TestCPUCloseRejectsWork(t *testing.T) {
	d := CPU(2)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close()) // idempotent

	err := d.RunBatch(context.Background(), 1, func(int) error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}

func TestCPUInfo(t *testing.T) {
	d := CPU(3)
	defer d.Close()
	info := d.Info()
	assert.Equal(t, "cpu", info.Kind)
	assert.Equal(t, 3, info.Workers)
}

func TestCUDAUnavailableByDefault(t *testing.T) {
	if CUDAAvailable() {
		t.Skip("built with cuda support")
	}
	_, err := CUDA(0)
	require.ErrorIs(t, err, ErrUnavailable)
}
