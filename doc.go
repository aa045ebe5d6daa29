// Package blockpool implements a fixed-block-size memory pool for Go.
//
// # Overview
//
// A Pool divides one contiguous byte region into N blocks of equal size and
// hands them out one at a time. Allocation and deallocation are O(1) with no
// loops, and the pool stores nothing per block: while a block is free its
// first four bytes hold the index of the next free block. This suits:
//
//   - Real-time loops that cannot afford unpredictable allocation latency
//   - Fixed-size message or packet buffers recycled at a high rate
//   - Placing all buffers of a component in one pinned (mlocked) region
//   - Keeping long-lived buffers out of the garbage collector's way
//
// # Basic Usage
//
//	p, err := blockpool.New(64, 1024) // 1024 blocks of 64 bytes
//	if err != nil {
//		return err
//	}
//	defer p.Destroy()
//
//	h := p.Alloc()
//	if !h.Valid() {
//		// pool exhausted
//	}
//	buf := p.Bytes(h) // len(buf) == 64
//	...
//	if err := p.Free(h); err != nil {
//		return err
//	}
//
// Slices can be used instead of handles:
//
//	buf := p.AllocBytes()
//	...
//	err := p.FreeBytes(buf)
//
// and blocks can be viewed as typed values:
//
//	msg, h := blockpool.AllocAs[Message](p)
//
// # Lazy Initialization
//
// New does not walk the storage. Each Alloc links at most one block that
// was never used before to its successor, so the free list of a fresh pool
// is built on demand and untouched pages of a large pool stay untouched.
//
// # Thread Safety
//
// Alloc and Free take the pool's Locker. The default MutexLocker makes them
// safe for concurrent use; NopLocker removes locking for pools owned by one
// goroutine. Init must happen before and Destroy after all Alloc and Free
// calls.
//
// # Checked and Unchecked Mode
//
// By default Free rejects handles that are outside the pool or not currently
// allocated, using one bit of bookkeeping per block. The Unchecked option
// drops the bitmap; double frees then corrupt the free list silently.
//
// # Important Notes
//
//   - Allocated memory is not zeroed (use AllocAs for a zeroed value)
//   - Running out of blocks is not an error: Alloc returns NoBlock
//   - Destroy does not reclaim blocks still held by callers
//   - The garbage collector does not scan pool storage for pointers
package blockpool
