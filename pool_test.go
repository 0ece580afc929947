package markyond

// Notes:
// - Converters created by the pool get a rod backend that only starts a
//   browser on the first PDF; these tests never print, so no browser runs.

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

var _ interface {
	Acquire(context.Context) (*Converter, error)
	Release(*Converter)
	Size() int
	Close() error
} = (*ConverterPool)(nil)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{name: "explicit takes priority", workers: 4, want: 4},
		{name: "explicit=1 for sequential", workers: 1, want: 1},
		{name: "explicit can exceed max", workers: 16, want: 16},
		{name: "zero uses auto calculation", workers: 0, want: min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
		{name: "negative uses auto calculation", workers: -2, want: min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestConverterPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2)
	defer pool.Close()
	ctx := context.Background()

	c1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	c2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c1 == c2 {
		t.Error("expected different converter instances")
	}

	pool.Release(c1)
	c3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c3 != c1 {
		t.Error("expected to get back the released converter")
	}
	pool.Release(c2)
	pool.Release(c3)
}

func TestConverterPool_AcquireWaits(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1)
	defer pool.Close()

	c, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() on exhausted pool error = %v, want %v", err, context.DeadlineExceeded)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var got *Converter
	go func() {
		defer wg.Done()
		got, _ = pool.Acquire(context.Background())
	}()
	pool.Release(c)
	wg.Wait()
	if got != c {
		t.Error("waiting Acquire() did not receive the released converter")
	}
}

func TestConverterPool_NewConverterError(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, WithStyle("no-such-style"))
	defer pool.Close()

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("Acquire() error = %v, want %v", err, ErrStyleNotFound)
	}
	// The failed slot is given back.
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("second Acquire() error = %v, want %v", err, ErrStyleNotFound)
	}
}

func TestConverterPool_Close(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(0)
	if pool.Size() != 1 {
		t.Errorf("Size() = %d, want 1", pool.Size())
	}

	c, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	pool.Release(c) // no-op after close
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close error = %v, want %v", err, ErrPoolClosed)
	}
}
