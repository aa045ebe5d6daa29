package blockpool

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// LinkSize is the number of bytes at the start of a free block used to store
// the index of the next free block. Block sizes must be at least LinkSize.
const LinkSize = 4

// MaxBlocks is the largest block count a Pool supports.
const MaxBlocks = math.MaxInt32

const noSlot = -1

// Handle identifies an allocated block. The zero value, NoBlock, means no
// block was allocated.
type Handle uint32

// NoBlock is returned by Alloc when the pool is exhausted or its lock failed.
const NoBlock Handle = 0

// Valid reports whether h refers to a block.
func (h Handle) Valid() bool { return h != NoBlock }

// Index returns the slot index of h, or -1 for NoBlock.
func (h Handle) Index() int { return int(h) - 1 }

// Pool is a fixed-capacity allocator of equal-size blocks.
//
// Blocks are linked through their own first LinkSize bytes while free, so the
// pool keeps no per-block metadata (except the one-bit ownership map in
// checked mode). Block i is only linked to block i+1 the first time the pool
// needs it, so a fresh pool never walks its storage.
//
// Alloc and Free are safe for concurrent use when the pool's Locker is.
// Init and Destroy must be ordered before and after them by the caller.
type Pool struct {
	blockSize  int
	blockCount int
	storage    []byte

	initialized int // slots linked by lazy init so far
	free        int // slots currently in the free list
	head        int // first free slot or noSlot

	lock    Locker
	checked bool
	owned   []uint64 // allocation bit per slot, nil when unchecked
}

// New creates a pool of blockCount blocks of blockSize bytes and initializes
// it. The pool uses a MutexLocker and its own heap storage unless options say
// otherwise.
func New(blockSize, blockCount int, opts ...Option) (*Pool, error) {
	if blockSize < LinkSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrBlockTooSmall, blockSize, LinkSize)
	}
	if blockCount <= 0 || blockCount > MaxBlocks || blockCount > math.MaxInt/blockSize {
		return nil, fmt.Errorf("%w: %d", ErrBlockCount, blockCount)
	}

	p := &Pool{
		blockSize:  blockSize,
		blockCount: blockCount,
		head:       noSlot,
		checked:    true,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.lock == nil {
		p.lock = &MutexLocker{}
	}

	size := blockSize * blockCount
	switch {
	case p.storage == nil:
		p.storage = make([]byte, size)
	case len(p.storage) < size:
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrStorageTooSmall, len(p.storage), size)
	default:
		p.storage = p.storage[:size:size]
	}
	if p.checked {
		p.owned = make([]uint64, (blockCount+63)/64)
	}

	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// Init initializes the lock and marks every block free. It does not touch
// the storage. Calling Init again after Destroy reuses the pool; any block
// still held by a caller is silently reclaimed.
func (p *Pool) Init() error {
	if err := p.lock.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrLockInit, err)
	}
	p.free = p.blockCount
	p.head = 0
	p.initialized = 0
	clear(p.owned)
	return nil
}

// Destroy tears down the pool's lock. Outstanding blocks are not reclaimed;
// the storage stays readable through slices already handed out, but the pool
// must not be used again until Init.
func (p *Pool) Destroy() error {
	if err := p.lock.Destroy(); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTeardown, err)
	}
	return nil
}

// Alloc takes one block from the pool. It returns NoBlock when the pool is
// exhausted or the lock cannot be acquired. Block contents are not zeroed.
func (p *Pool) Alloc() Handle {
	if err := p.lock.Lock(); err != nil {
		return NoBlock
	}

	if p.initialized < p.blockCount {
		p.setLink(p.initialized, p.initialized+1)
		p.initialized++
	}

	h := NoBlock
	if p.free > 0 {
		idx := p.head
		p.free--
		if p.free != 0 {
			p.head = p.link(idx)
		} else {
			// the popped block may hold a stale link; it must not be read
			p.head = noSlot
		}
		p.setOwned(idx, true)
		h = Handle(idx + 1)
	}

	p.unlock()
	return h
}

// Free returns the block named by h to the pool.
//
// In checked mode (the default) a handle outside the pool fails with
// ErrInvalidHandle and a block that is not currently allocated fails with
// ErrDoubleFree. In unchecked mode neither is detected.
func (p *Pool) Free(h Handle) error {
	if err := p.lock.Lock(); err != nil {
		return fmt.Errorf("%w: %w", ErrLockAcquire, err)
	}

	idx, err := p.slot(h)
	if err != nil {
		p.unlock()
		return err
	}

	if p.head != noSlot {
		p.setLink(idx, p.head)
	}
	p.head = idx
	p.free++
	p.setOwned(idx, false)

	p.unlock()
	return nil
}

// AllocBytes allocates a block and returns it as a slice of exactly
// BlockSize bytes, or nil if no block is available.
func (p *Pool) AllocBytes() []byte {
	return p.Bytes(p.Alloc())
}

// FreeBytes frees the block b starts at. b must be a slice returned by
// AllocBytes or Bytes, possibly resliced to a shorter length; a slice that
// does not start on a block boundary of this pool fails with ErrForeignBlock.
func (p *Pool) FreeBytes(b []byte) error {
	idx, ok := p.indexOf(b)
	if !ok {
		return ErrForeignBlock
	}
	return p.Free(Handle(idx + 1))
}

// Bytes returns the block named by h, or nil if h is not a block of p.
// The slice has len and cap BlockSize.
func (p *Pool) Bytes(h Handle) []byte {
	off := p.Offset(h)
	if off < 0 {
		return nil
	}
	return p.storage[off : off+p.blockSize : off+p.blockSize]
}

// Offset returns the byte offset of the block named by h from the start of
// the pool storage, or -1 if h is not a block of p.
func (p *Pool) Offset(h Handle) int {
	idx := h.Index()
	if idx < 0 || idx >= p.blockCount {
		return -1
	}
	return idx * p.blockSize
}

// Contains reports whether b points into the pool storage.
func (p *Pool) Contains(b []byte) bool {
	if cap(b) == 0 {
		return false
	}
	off := uintptr(unsafe.Pointer(unsafe.SliceData(b))) - p.base()
	return off < uintptr(len(p.storage))
}

// indexOf resolves a slice back to its block index.
func (p *Pool) indexOf(b []byte) (int, bool) {
	if !p.Contains(b) {
		return 0, false
	}
	off := uintptr(unsafe.Pointer(unsafe.SliceData(b))) - p.base()
	if off%uintptr(p.blockSize) != 0 {
		return 0, false
	}
	return int(off / uintptr(p.blockSize)), true
}

func (p *Pool) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p.storage)))
}

// slot validates h for Free. Called with the lock held.
func (p *Pool) slot(h Handle) (int, error) {
	idx := h.Index()
	if !p.checked {
		return idx, nil
	}
	if idx < 0 || idx >= p.blockCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	if !p.isOwned(idx) {
		return 0, fmt.Errorf("%w: block %d", ErrDoubleFree, idx)
	}
	return idx, nil
}

func (p *Pool) link(idx int) int {
	next := int(binary.LittleEndian.Uint32(p.storage[idx*p.blockSize:]))
	if p.checked && next >= p.blockCount {
		// a caller wrote into a block after freeing it
		panic(fmt.Sprintf("blockpool: corrupted free list at block %d", idx))
	}
	return next
}

func (p *Pool) setLink(idx, next int) {
	binary.LittleEndian.PutUint32(p.storage[idx*p.blockSize:], uint32(next))
}

func (p *Pool) isOwned(idx int) bool {
	return p.owned[idx/64]&(1<<(idx%64)) != 0
}

func (p *Pool) setOwned(idx int, v bool) {
	if p.owned == nil {
		return
	}
	if v {
		p.owned[idx/64] |= 1 << (idx % 64)
	} else {
		p.owned[idx/64] &^= 1 << (idx % 64)
	}
}

// unlock releases the lock after a critical section. A Locker that cannot
// unlock leaves the pool unusable, so this panics.
func (p *Pool) unlock() {
	if err := p.lock.Unlock(); err != nil {
		panic("blockpool: unlock failed: " + err.Error())
	}
}
