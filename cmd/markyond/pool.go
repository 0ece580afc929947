package main

import (
	"context"

	"github.com/raphigaziano/markyond"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input markyond.Input) (*markyond.ConvertResult, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*markyond.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (CLIConverter, error)
	Release(CLIConverter)
	Size() int
}

// converterPool adapts markyond.ConverterPool to Pool.
type converterPool struct {
	pool *markyond.ConverterPool
}

var _ Pool = (*converterPool)(nil)

func newConverterPool(workers int, opts ...markyond.Option) *converterPool {
	return &converterPool{pool: markyond.NewConverterPool(markyond.ResolvePoolSize(workers), opts...)}
}

func (p *converterPool) Acquire(ctx context.Context) (CLIConverter, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *converterPool) Release(c CLIConverter) {
	if conv, ok := c.(*markyond.Converter); ok {
		p.pool.Release(conv)
	}
}

func (p *converterPool) Size() int { return p.pool.Size() }

func (p *converterPool) Close() error { return p.pool.Close() }

// singlePool serves one converter to one worker at a time. Watch mode
// keeps a single converter alive between rebuilds.
type singlePool struct {
	conv CLIConverter
}

var _ Pool = singlePool{}

func (p singlePool) Acquire(context.Context) (CLIConverter, error) { return p.conv, nil }

func (p singlePool) Release(CLIConverter) {}

func (p singlePool) Size() int { return 1 }
