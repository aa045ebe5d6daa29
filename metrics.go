package blockpool

// BlockSize returns the size of each block in bytes.
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// BlockCount returns the number of blocks the pool holds.
func (p *Pool) BlockCount() int {
	return p.blockCount
}

// Size returns the size of the pool storage in bytes.
func (p *Pool) Size() int {
	return p.blockSize * p.blockCount
}

// Checked reports whether Free validates handles.
func (p *Pool) Checked() bool {
	return p.checked
}

// FreeCount returns the number of blocks currently available.
func (p *Pool) FreeCount() int {
	return p.Metrics().FreeBlocks
}

// InUse returns the number of blocks currently allocated.
func (p *Pool) InUse() int {
	return p.Metrics().InUse
}

// Initialized returns the number of blocks lazy initialization has linked so
// far. It only grows between calls to Init.
func (p *Pool) Initialized() int {
	return p.Metrics().Initialized
}

// Utilization returns the ratio of allocated blocks to capacity (0.0 to 1.0).
func (p *Pool) Utilization() float64 {
	return p.Metrics().Utilization
}

// Metrics returns a snapshot of pool statistics. The snapshot is taken under
// the pool lock; if the lock is unusable (before Init or after Destroy, when
// no Alloc or Free may run) the fields are read directly.
func (p *Pool) Metrics() PoolMetrics {
	if err := p.lock.Lock(); err == nil {
		defer p.unlock()
	}
	inUse := p.blockCount - p.free
	return PoolMetrics{
		BlockSize:   p.blockSize,
		BlockCount:  p.blockCount,
		FreeBlocks:  p.free,
		InUse:       inUse,
		Initialized: p.initialized,
		Utilization: float64(inUse) / float64(p.blockCount),
	}
}

// PoolMetrics contains statistical information about a pool.
type PoolMetrics struct {
	BlockSize   int     // Bytes per block
	BlockCount  int     // Total blocks
	FreeBlocks  int     // Blocks available for allocation
	InUse       int     // Blocks currently allocated
	Initialized int     // Blocks touched by lazy initialization
	Utilization float64 // InUse / BlockCount (0.0-1.0)
}
