package blockpool

import (
	"fmt"
	"sync"
)

// Example demonstrates basic pool usage
func Example() {
	// 4 blocks of 32 bytes
	p, err := New(32, 4)
	if err != nil {
		panic(err)
	}
	defer p.Destroy()

	h := p.Alloc()
	buf := p.Bytes(h)
	fmt.Printf("block %d, %d bytes at offset %d\n", h.Index(), len(buf), p.Offset(h))

	h2 := p.Alloc()
	fmt.Printf("block %d, %d bytes at offset %d\n", h2.Index(), len(p.Bytes(h2)), p.Offset(h2))

	// Freed blocks are handed out again first
	if err := p.Free(h); err != nil {
		panic(err)
	}
	fmt.Printf("reused freed block: %v\n", p.Alloc() == h)

	fmt.Printf("in use: %d, free: %d\n", p.InUse(), p.FreeCount())

	// Output:
	// block 0, 32 bytes at offset 0
	// block 1, 32 bytes at offset 32
	// reused freed block: true
	// in use: 2, free: 2
}

// ExamplePool_Alloc demonstrates that exhaustion is not an error
func ExamplePool_Alloc() {
	p, err := New(16, 2)
	if err != nil {
		panic(err)
	}
	defer p.Destroy()

	for i := 0; i < 3; i++ {
		h := p.Alloc()
		fmt.Printf("allocation %d valid: %v\n", i, h.Valid())
	}

	// Output:
	// allocation 0 valid: true
	// allocation 1 valid: true
	// allocation 2 valid: false
}

// ExamplePool_AllocBytes demonstrates the slice based API
func ExamplePool_AllocBytes() {
	p, err := New(64, 8)
	if err != nil {
		panic(err)
	}
	defer p.Destroy()

	buf := p.AllocBytes()
	n := copy(buf, "packet payload")
	fmt.Printf("%s\n", buf[:n])

	if err := p.FreeBytes(buf); err != nil {
		panic(err)
	}
	fmt.Printf("free: %d/%d\n", p.FreeCount(), p.BlockCount())

	// Output:
	// packet payload
	// free: 8/8
}

// ExampleAllocAs demonstrates typed access to blocks
func ExampleAllocAs() {
	type sample struct {
		Timestamp int64
		Value     float64
	}

	p, err := New(16, 128)
	if err != nil {
		panic(err)
	}
	defer p.Destroy()

	s, h := AllocAs[sample](p)
	s.Timestamp = 1700000000
	s.Value = 21.5

	fmt.Printf("%+v\n", *As[sample](p, h))
	if err := p.Free(h); err != nil {
		panic(err)
	}

	// Output:
	// {Timestamp:1700000000 Value:21.5}
}

// ExamplePool_Metrics demonstrates monitoring a pool
func ExamplePool_Metrics() {
	p, err := New(32, 100)
	if err != nil {
		panic(err)
	}
	defer p.Destroy()

	for i := 0; i < 25; i++ {
		p.Alloc()
	}

	metrics := p.Metrics()
	fmt.Printf("Metrics:\n")
	fmt.Printf("  Block size: %d bytes\n", metrics.BlockSize)
	fmt.Printf("  Blocks: %d\n", metrics.BlockCount)
	fmt.Printf("  In use: %d\n", metrics.InUse)
	fmt.Printf("  Free: %d\n", metrics.FreeBlocks)
	fmt.Printf("  Initialized: %d\n", metrics.Initialized)
	fmt.Printf("  Utilization: %.1f%%\n", metrics.Utilization*100)

	// Output:
	// Metrics:
	//   Block size: 32 bytes
	//   Blocks: 100
	//   In use: 25
	//   Free: 75
	//   Initialized: 25
	//   Utilization: 25.0%
}

// ExampleWithLocker demonstrates a pool shared by several goroutines
func ExampleWithLocker() {
	// The default MutexLocker serializes concurrent callers
	p, err := New(64, 16, WithLocker(&MutexLocker{}))
	if err != nil {
		panic(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := p.Alloc()
				if h.Valid() {
					p.Free(h)
				}
			}
		}()
	}
	wg.Wait()

	fmt.Printf("free after workers: %d\n", p.FreeCount())
	fmt.Printf("destroy: %v\n", p.Destroy())

	// Output:
	// free after workers: 16
	// destroy: <nil>
}
