package blockpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolMetrics(t *testing.T) {
	p, err := New(64, 10)
	require.NoError(t, err)

	// Test initial state
	assert.Equal(t, 64, p.BlockSize())
	assert.Equal(t, 10, p.BlockCount())
	assert.Equal(t, 640, p.Size())
	assert.Equal(t, 10, p.FreeCount())
	assert.Zero(t, p.InUse())
	assert.Zero(t, p.Initialized())
	assert.Zero(t, p.Utilization())

	hs := make([]Handle, 4)
	for i := range hs {
		hs[i] = p.Alloc()
	}
	assert.Equal(t, 6, p.FreeCount())
	assert.Equal(t, 4, p.InUse())
	assert.Equal(t, 4, p.Initialized())
	assert.InDelta(t, 0.4, p.Utilization(), 1e-9)

	require.NoError(t, p.Free(hs[0]))
	require.NoError(t, p.Free(hs[1]))
	assert.Equal(t, 8, p.FreeCount())
	assert.Equal(t, 4, p.Initialized(), "freeing does not undo initialization")

	// every Alloc links one more untouched block, even when it reuses a freed one
	p.Alloc()
	assert.Equal(t, 5, p.Initialized())
	p.Alloc()
	assert.Equal(t, 6, p.Initialized())
	assert.Equal(t, 4, p.InUse())

	m := p.Metrics()
	assert.Equal(t, PoolMetrics{
		BlockSize:   64,
		BlockCount:  10,
		FreeBlocks:  6,
		InUse:       4,
		Initialized: 6,
		Utilization: 0.4,
	}, m)
}

func TestPoolMetricsFull(t *testing.T) {
	p, err := New(8, 3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		p.Alloc()
	}
	assert.Equal(t, 1.0, p.Utilization())
	assert.Zero(t, p.FreeCount())
}
