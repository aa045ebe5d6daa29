// Package region provides backing storage for pools outside the Go heap.
package region

import (
	"errors"
	"fmt"
	"math"
)

// ErrSize indicates a non-positive or overflowing region size.
var ErrSize = errors.New("region: invalid size")

// Region is a contiguous block of memory obtained from the operating system.
// It must be closed to return the memory; slices taken from Bytes are invalid
// after Close.
type Region struct {
	data    []byte
	release func([]byte) error
	locked  bool
}

// ForPool maps a region of exactly blockSize*blockCount bytes.
func ForPool(blockSize, blockCount int) (*Region, error) {
	if blockSize <= 0 || blockCount <= 0 || blockCount > math.MaxInt/blockSize {
		return nil, fmt.Errorf("%w: %d blocks of %d bytes", ErrSize, blockCount, blockSize)
	}
	return Anonymous(blockSize * blockCount)
}

// Anonymous maps size bytes of private, zero-filled memory.
func Anonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	data, release, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("region: map %d bytes: %w", size, err)
	}
	return &Region{data: data, release: release}, nil
}

// Bytes returns the mapped memory, or nil after Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Len returns the size of the region in bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Lock pins the region in physical memory so touching it never faults to
// disk. It is a no-op where pinning is unsupported.
func (r *Region) Lock() error {
	if r.data == nil {
		return errors.New("region: lock of closed region")
	}
	if r.locked {
		return nil
	}
	if err := lockMem(r.data); err != nil {
		return fmt.Errorf("region: lock: %w", err)
	}
	r.locked = true
	return nil
}

// Close unmaps the region. Closing twice is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if r.locked {
		// munmap drops the lock as well; unlock first so the error is visible
		if err := unlockMem(data); err != nil {
			return fmt.Errorf("region: unlock: %w", err)
		}
		r.locked = false
	}
	return r.release(data)
}
