// Package stress hammers one pool from many goroutines and checks that no
// block is ever handed to two holders at once.
package stress

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"src.userspace.com.au/logger"

	"github.com/pavanmanishd/blockpool"
	"github.com/pavanmanishd/blockpool/region"
)

var (
	// ErrDuplicateHandle means a block was returned by Alloc while another
	// worker still held it.
	ErrDuplicateHandle = errors.New("stress: block handed out twice")

	// ErrOverCommit means more blocks were live than the pool holds.
	ErrOverCommit = errors.New("stress: more live blocks than capacity")

	// ErrCorruption means a block's contents changed while its holder owned it.
	ErrCorruption = errors.New("stress: block overwritten while held")

	// ErrLeak means the pool did not report every block free after the run.
	ErrLeak = errors.New("stress: blocks missing after run")
)

// Config describes one stress run.
type Config struct {
	Workers   int     `yaml:"workers"`
	Blocks    int     `yaml:"blocks"`
	BlockSize int     `yaml:"blockSize"`
	Ops       int     `yaml:"ops"`       // operations per worker
	Rate      float64 `yaml:"rate"`      // operations per second over all workers, 0 for no limit
	Mmap      bool    `yaml:"mmap"`      // place the pool in an mmap region
	Pin       bool    `yaml:"pin"`       // mlock the region, implies Mmap
	Unchecked bool    `yaml:"unchecked"` // disable handle validation in the pool
	Seed      uint64  `yaml:"seed"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Workers:   8,
		Blocks:    128,
		BlockSize: 32,
		Ops:       100000,
	}
}

// Validate checks cfg for values Run cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("stress: workers must be positive, got %d", c.Workers)
	case c.Blocks <= 0:
		return fmt.Errorf("stress: blocks must be positive, got %d", c.Blocks)
	case c.BlockSize < blockpool.LinkSize:
		return fmt.Errorf("stress: block size must be at least %d, got %d", blockpool.LinkSize, c.BlockSize)
	case c.Ops < 0:
		return fmt.Errorf("stress: ops must not be negative, got %d", c.Ops)
	case c.Rate < 0:
		return fmt.Errorf("stress: rate must not be negative, got %g", c.Rate)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	RunID      uuid.UUID
	Allocs     int64
	Frees      int64
	Exhausted  int64 // Alloc calls that returned NoBlock
	PeakLive   int64
	Violations int64
	Duration   time.Duration
	Metrics    blockpool.PoolMetrics // taken after every block was returned
}

// Run executes cfg against a fresh pool. It returns the first violation
// found, if any, together with the report. Cancelling ctx stops the workers
// early; that is not an error.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	id := uuid.New()
	r := &runner{
		cfg:    cfg,
		log:    log.Named("stress").WithFields("run", id),
		owners: make([]atomic.Int32, cfg.Blocks),
		report: Report{RunID: id},
	}
	return r.run(ctx)
}

type runner struct {
	cfg     Config
	log     logger.Logger
	pool    *blockpool.Pool
	limiter *rate.Limiter
	owners  []atomic.Int32 // holder worker id + 1 per block, 0 when free

	live      atomic.Int64
	peak      atomic.Int64
	allocs    atomic.Int64
	frees     atomic.Int64
	exhausted atomic.Int64

	mu         sync.Mutex
	violations int64
	firstErr   error

	report Report
}

func (r *runner) run(ctx context.Context) (Report, error) {
	cfg := r.cfg
	r.log.Info("starting run", "workers", cfg.Workers,
		"blocks", cfg.Blocks, "blockSize", cfg.BlockSize, "ops", cfg.Ops)

	var opts []blockpool.Option
	if cfg.Mmap || cfg.Pin {
		reg, err := region.ForPool(cfg.BlockSize, cfg.Blocks)
		if err != nil {
			return r.report, err
		}
		defer func() {
			if err := reg.Close(); err != nil {
				r.log.Warn("failed to unmap region", "error", err)
			}
		}()
		if cfg.Pin {
			if err := reg.Lock(); err != nil {
				return r.report, err
			}
		}
		opts = append(opts, blockpool.WithStorage(reg.Bytes()))
	}
	if cfg.Unchecked {
		opts = append(opts, blockpool.Unchecked())
	}
	if cfg.Workers == 1 {
		opts = append(opts, blockpool.WithLocker(blockpool.NopLocker{}))
	}

	pool, err := blockpool.New(cfg.BlockSize, cfg.Blocks, opts...)
	if err != nil {
		return r.report, err
	}
	r.pool = pool

	if cfg.Rate > 0 {
		burst := cfg.Workers
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.work(ctx, id)
		}(i)
	}
	wg.Wait()
	r.report.Duration = time.Since(start)

	r.report.Allocs = r.allocs.Load()
	r.report.Frees = r.frees.Load()
	r.report.Exhausted = r.exhausted.Load()
	r.report.PeakLive = r.peak.Load()
	r.report.Metrics = pool.Metrics()

	if free := r.report.Metrics.FreeBlocks; free != cfg.Blocks {
		r.fail(fmt.Errorf("%w: %d of %d free", ErrLeak, free, cfg.Blocks))
	}
	if err := pool.Destroy(); err != nil {
		r.fail(err)
	}

	r.mu.Lock()
	r.report.Violations = r.violations
	err = r.firstErr
	r.mu.Unlock()

	r.log.Info("run finished", "allocs", r.report.Allocs,
		"frees", r.report.Frees, "exhausted", r.report.Exhausted,
		"peak", r.report.PeakLive, "duration", r.report.Duration)
	return r.report, err
}

// work runs one worker. Each worker keeps up to twice its fair share of
// blocks so that workers compete for the last free ones.
func (r *runner) work(ctx context.Context, id int) {
	rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(id)))
	share := max(1, 2*r.cfg.Blocks/r.cfg.Workers)
	held := make([]blockpool.Handle, 0, share)
	stamp := byte(id%255 + 1)

	for op := 0; op < r.cfg.Ops; op++ {
		if ctx.Err() != nil {
			break
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				break
			}
		}
		if len(held) == 0 || (len(held) < share && rng.IntN(2) == 0) {
			if h, ok := r.alloc(id, stamp); ok {
				held = append(held, h)
			}
			continue
		}
		i := rng.IntN(len(held))
		r.release(held[i], stamp)
		held[i] = held[len(held)-1]
		held = held[:len(held)-1]
	}

	for _, h := range held {
		r.release(h, stamp)
	}
	r.log.Debug("worker done", "worker", id)
}

func (r *runner) alloc(id int, stamp byte) (blockpool.Handle, bool) {
	h := r.pool.Alloc()
	if !h.Valid() {
		r.exhausted.Add(1)
		return blockpool.NoBlock, false
	}
	r.allocs.Add(1)

	idx := h.Index()
	if prev := r.owners[idx].Swap(int32(id + 1)); prev != 0 {
		r.fail(fmt.Errorf("%w: block %d held by worker %d, given to worker %d",
			ErrDuplicateHandle, idx, prev-1, id))
	}
	n := r.live.Add(1)
	if n > int64(r.cfg.Blocks) {
		r.fail(fmt.Errorf("%w: %d live, capacity %d", ErrOverCommit, n, r.cfg.Blocks))
	}
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	b := r.pool.Bytes(h)
	for i := range b {
		b[i] = stamp
	}
	return h, true
}

func (r *runner) release(h blockpool.Handle, stamp byte) {
	for i, c := range r.pool.Bytes(h) {
		if c != stamp {
			r.fail(fmt.Errorf("%w: block %d byte %d is %#x, want %#x",
				ErrCorruption, h.Index(), i, c, stamp))
			break
		}
	}
	// clear ownership before the block can be handed out again
	r.owners[h.Index()].Store(0)
	r.live.Add(-1)
	if err := r.pool.Free(h); err != nil {
		r.fail(err)
		return
	}
	r.frees.Add(1)
}

func (r *runner) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations++
	if r.firstErr == nil {
		r.firstErr = err
		r.log.Error("violation", "error", err)
	}
}
