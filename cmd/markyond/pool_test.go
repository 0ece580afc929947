package main

import (
	"context"
	"testing"
)

func TestConverterPool_Size(t *testing.T) {
	t.Parallel()

	p := newConverterPool(3)
	defer p.Close()

	if got := p.Size(); got != 3 {
		t.Errorf("Size() = %d, want 3", got)
	}
}

func TestSinglePool(t *testing.T) {
	t.Parallel()

	conv := &mockConverter{}
	p := singlePool{conv: conv}

	for i := 0; i < 2; i++ {
		got, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if got != conv {
			t.Error("Acquire() returned a different converter")
		}
		p.Release(got)
	}
	if p.Size() != 1 {
		t.Errorf("Size() = %d, want 1", p.Size())
	}
}
