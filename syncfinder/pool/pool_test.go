package pool

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestWaitAllBlocksUntilComplete(t *testing.T) {
	p := New(4)
	defer p.Close()

	var count int64
	for i := 0; i < 200; i++ {
		p.Submit(func(ctx context.Context) {
			atomic.AddInt64(&count, 1)
		})
	}
	p.WaitAll()

	if got := atomic.LoadInt64(&count); got != 200 {
		t.Fatalf("count = %d, want 200", got)
	}
}

func TestWaitAllReusableAcrossCycles(t *testing.T) {
	p := New(2)
	defer p.Close()

	for cycle := 0; cycle < 3; cycle++ {
		var count int64
		for i := 0; i < 32; i++ {
			p.Submit(func(ctx context.Context) {
				atomic.AddInt64(&count, 1)
			})
		}
		p.WaitAll()
		if got := atomic.LoadInt64(&count); got != 32 {
			t.Fatalf("cycle %d: count = %d, want 32", cycle, got)
		}
	}
}

func TestDefaultWorkerCount(t *testing.T) {
	p := New(0)
	defer p.Close()

	done := make(chan struct{})
	p.Submit(func(ctx context.Context) { close(done) })
	p.WaitAll()
	select {
	case <-done:
	default:
		t.Fatal("job did not run")
	}
}
