package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerWorkers(t *testing.T) {
	ctx := context.Background()
	c := NewController(Config{MaxWorkers: 2})

	require.NoError(t, c.AcquireWorker(ctx))
	require.NoError(t, c.AcquireWorker(ctx))
	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestControllerDefaults(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(1), c.MaxWorkers())

	assert.True(t, c.TryAcquireWorker())
	assert.False(t, c.TryAcquireWorker())
}

func TestControllerAcquireWorkerCancellation(t *testing.T) {
	c := NewController(Config{MaxWorkers: 1})
	require.True(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.AcquireWorker(ctx)
	assert.Error(t, err)
}

func TestControllerIOUnlimited(t *testing.T) {
	c := NewController(Config{MaxWorkers: 1})
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestControllerNil(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireWorker(context.Background()))
	assert.True(t, c.TryAcquireWorker())
	assert.NotPanics(t, func() { c.ReleaseWorker() })
	assert.NoError(t, c.AcquireIO(context.Background(), 1024))
	assert.Equal(t, int64(1), c.MaxWorkers())
}
