package blockpool

import "errors"

var (
	// ErrBlockTooSmall indicates a block size that cannot hold a free-list link.
	ErrBlockTooSmall = errors.New("blockpool: block size smaller than link size")

	// ErrBlockCount indicates a block count outside 1..MaxBlocks.
	ErrBlockCount = errors.New("blockpool: invalid block count")

	// ErrStorageTooSmall indicates caller-supplied storage shorter than blockSize*blockCount.
	ErrStorageTooSmall = errors.New("blockpool: storage too small for pool")

	// ErrInvalidHandle indicates a handle that does not name a block of this pool.
	ErrInvalidHandle = errors.New("blockpool: invalid handle")

	// ErrDoubleFree indicates a free of a block that is not currently allocated.
	ErrDoubleFree = errors.New("blockpool: block is not allocated")

	// ErrForeignBlock indicates a slice that does not start at a block of this pool.
	ErrForeignBlock = errors.New("blockpool: slice does not belong to pool")

	// ErrLockInit wraps a Locker.Init failure.
	ErrLockInit = errors.New("blockpool: lock init failed")

	// ErrLockTeardown wraps a Locker.Destroy failure.
	ErrLockTeardown = errors.New("blockpool: lock teardown failed")

	// ErrLockAcquire wraps a Locker.Lock failure.
	ErrLockAcquire = errors.New("blockpool: lock acquire failed")
)

// Errors reported by MutexLocker.
var (
	ErrLockerLive    = errors.New("blockpool: locker already initialized")
	ErrLockerNotLive = errors.New("blockpool: locker not initialized")
	ErrLockerNotHeld = errors.New("blockpool: unlock of unheld locker")
	ErrLockerBusy    = errors.New("blockpool: locker destroyed while held")
)
