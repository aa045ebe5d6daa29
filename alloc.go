package blockpool

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Fits reports whether a T fits in one block of p.
func Fits[T any](p *Pool) bool {
	var zero T
	return unsafe.Sizeof(zero) <= uintptr(p.blockSize)
}

// AllocAs allocates a block and returns it as a zeroed *T together with its
// handle. It returns nil, NoBlock when the pool is exhausted.
// It panics if T does not fit in a block.
//
// The garbage collector does not scan pool storage, so T must not hold the
// only reference to heap memory.
func AllocAs[T any](p *Pool) (*T, Handle) {
	t, h := AllocUninitializedAs[T](p)
	if t != nil {
		var zero T
		*t = zero
	}
	return t, h
}

// AllocUninitializedAs is AllocAs without zeroing. The first LinkSize bytes
// of the value may hold a stale free-list link.
func AllocUninitializedAs[T any](p *Pool) (*T, Handle) {
	checkFits[T](p)
	h := p.Alloc()
	if !h.Valid() {
		return nil, NoBlock
	}
	return As[T](p, h), h
}

// As returns the block named by h as a *T, or nil if h is not a block of p.
// It panics if T does not fit in a block or the block is misaligned for T.
func As[T any](p *Pool, h Handle) *T {
	checkFits[T](p)
	b := p.Bytes(h)
	if b == nil {
		return nil
	}
	var zero T
	ptr := unsafe.Pointer(&b[0])
	if uintptr(ptr)%unsafe.Alignof(zero) != 0 {
		panic(fmt.Sprintf("blockpool: block %d misaligned for %T", h.Index(), zero))
	}
	return (*T)(ptr)
}

// PtrAndKeepAlive returns t and keeps p reachable until the call.
// Use it when the only remaining reference to a pool is through pointers
// obtained from As or AllocAs.
func PtrAndKeepAlive[T any](p *Pool, t *T) *T {
	runtime.KeepAlive(p)
	return t
}

func checkFits[T any](p *Pool) {
	if !Fits[T](p) {
		var zero T
		panic(fmt.Sprintf("blockpool: %T (%d bytes) does not fit in %d-byte block",
			zero, unsafe.Sizeof(zero), p.blockSize))
	}
}
