package blockpool

import "errors"

// Option configures a Pool in New.
type Option func(*Pool) error

// WithLocker sets the lock the pool serializes Alloc and Free with.
// Use NopLocker for a pool only ever touched by one goroutine.
func WithLocker(l Locker) Option {
	return func(p *Pool) error {
		if l == nil {
			return errors.New("blockpool: nil locker")
		}
		p.lock = l
		return nil
	}
}

// WithStorage places the pool in buf instead of a heap allocation of its
// own. buf must hold at least blockSize*blockCount bytes and must not be
// used by anyone else while the pool lives. See package region for mmap
// backed storage.
func WithStorage(buf []byte) Option {
	return func(p *Pool) error {
		if buf == nil {
			return errors.New("blockpool: nil storage")
		}
		p.storage = buf
		return nil
	}
}

// Unchecked disables handle validation in Free. The pool then keeps no
// ownership bitmap and cannot detect double frees or foreign handles; doing
// either corrupts the free list.
func Unchecked() Option {
	return func(p *Pool) error {
		p.checked = false
		return nil
	}
}
