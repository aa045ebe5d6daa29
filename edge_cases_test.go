package blockpool_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/blockpool"
)

// TestEdgeCases covers boundary sizes and unusual call sequences
func TestEdgeCases(t *testing.T) {
	t.Run("SingleBlock", func(t *testing.T) {
		p, err := blockpool.New(blockpool.LinkSize, 1)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			h := p.Alloc()
			require.True(t, h.Valid())
			require.Equal(t, 0, h.Index())
			require.Equal(t, blockpool.NoBlock, p.Alloc())
			require.NoError(t, p.Free(h))
		}
		require.NoError(t, p.Destroy())
	})

	t.Run("OverflowingSize", func(t *testing.T) {
		_, err := blockpool.New(math.MaxInt/2, 3)
		require.ErrorIs(t, err, blockpool.ErrBlockCount)
	})

	t.Run("LargePoolTouchesOneBlock", func(t *testing.T) {
		const n = 1 << 20
		p, err := blockpool.New(blockpool.LinkSize, n, blockpool.Unchecked())
		require.NoError(t, err)

		h := p.Alloc()
		require.True(t, h.Valid())
		assert.Equal(t, 1, p.Initialized())
		assert.Equal(t, n-1, p.FreeCount())
	})

	t.Run("ManyInitDestroyCycles", func(t *testing.T) {
		p, err := blockpool.New(16, 8)
		require.NoError(t, err)
		for i := 0; i < 100; i++ {
			for j := 0; j < i%9; j++ {
				require.True(t, p.Alloc().Valid())
			}
			require.NoError(t, p.Destroy())
			require.NoError(t, p.Init())
			require.Equal(t, 8, p.FreeCount())
		}
		require.NoError(t, p.Destroy())
	})

	t.Run("AlternatingAllocFree", func(t *testing.T) {
		p, err := blockpool.New(8, 4)
		require.NoError(t, err)

		// the same block comes back every time while the rest stay untouched
		first := p.Alloc()
		require.NoError(t, p.Free(first))
		for i := 0; i < 100; i++ {
			h := p.Alloc()
			require.Equal(t, first, h)
			require.NoError(t, p.Free(h))
		}
		assert.Equal(t, 4, p.Initialized(), "lazy init still advances once per Alloc")
		assert.Equal(t, 4, p.FreeCount())
	})

	t.Run("HandlesFromAnotherPool", func(t *testing.T) {
		small, err := blockpool.New(8, 2)
		require.NoError(t, err)
		big, err := blockpool.New(8, 16)
		require.NoError(t, err)

		var h blockpool.Handle
		for i := 0; i < 5; i++ {
			h = big.Alloc()
		}
		require.ErrorIs(t, small.Free(h), blockpool.ErrInvalidHandle)

		b := big.Bytes(h)
		require.ErrorIs(t, small.FreeBytes(b), blockpool.ErrForeignBlock)
		require.NoError(t, big.FreeBytes(b))
	})
}
