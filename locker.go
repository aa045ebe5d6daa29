package blockpool

import (
	"sync"
	"sync/atomic"
)

// Locker is the mutual-exclusion primitive a Pool serializes Alloc and Free
// with. Every method reports failure instead of aborting so the pool can
// surface it to its caller.
type Locker interface {
	Init() error
	Destroy() error
	Lock() error
	Unlock() error
}

// NopLocker performs no locking. Use it for pools confined to one goroutine.
type NopLocker struct{}

func (NopLocker) Init() error    { return nil }
func (NopLocker) Destroy() error { return nil }
func (NopLocker) Lock() error    { return nil }
func (NopLocker) Unlock() error  { return nil }

const (
	lockerIdle int32 = iota
	lockerLive
	lockerDestroyed
)

// MutexLocker is a sync.Mutex with an explicit lifecycle. It is the default
// Locker for pools created by New.
//
// Misuse that would crash a bare sync.Mutex (unlocking an unheld lock) or go
// unnoticed (locking after teardown, tearing down while held) is reported as
// an error.
type MutexLocker struct {
	mu    sync.Mutex
	state atomic.Int32
	held  atomic.Bool
}

// Init makes the locker usable. Init on a live locker fails with ErrLockerLive.
func (l *MutexLocker) Init() error {
	for {
		s := l.state.Load()
		if s == lockerLive {
			return ErrLockerLive
		}
		if l.state.CompareAndSwap(s, lockerLive) {
			return nil
		}
	}
}

// Destroy retires the locker. It fails with ErrLockerBusy if the lock is
// currently held.
func (l *MutexLocker) Destroy() error {
	if l.state.Load() != lockerLive {
		return ErrLockerNotLive
	}
	if !l.mu.TryLock() {
		return ErrLockerBusy
	}
	l.state.Store(lockerDestroyed)
	l.mu.Unlock()
	return nil
}

// Lock blocks until the lock is acquired.
func (l *MutexLocker) Lock() error {
	if l.state.Load() != lockerLive {
		return ErrLockerNotLive
	}
	l.mu.Lock()
	l.held.Store(true)
	return nil
}

func (l *MutexLocker) Unlock() error {
	if l.state.Load() != lockerLive {
		return ErrLockerNotLive
	}
	if !l.held.CompareAndSwap(true, false) {
		return ErrLockerNotHeld
	}
	l.mu.Unlock()
	return nil
}
