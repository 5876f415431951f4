package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Nomadcxx/mediaclue/internal/parser"
)

// ParallelConfig holds configuration for parallel parsing
type ParallelConfig struct {
	Workers int // Number of concurrent workers (default: number of CPUs)
}

// DefaultParallelConfig returns optimal parallel parsing configuration
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Workers: runtime.NumCPU(),
	}
}

// Item is a listed entry together with its parse.
type Item struct {
	Path   string        `json:"path"`
	Result parser.Result `json:"result"`
}

// ParseParallel parses every entry name using a bounded worker pool. The
// output keeps the input order. Cancelling ctx stops the pool and returns
// ctx.Err().
func ParseParallel(ctx context.Context, entries []Entry, p *parser.Parser, config ParallelConfig, progressCh chan<- ScanProgress) ([]Item, error) {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if p == nil {
		p = parser.New(nil)
	}

	pr := NewProgressReporter(progressCh, "parsing")
	pr.Start(len(entries), fmt.Sprintf("Parsing %d names", len(entries)))

	items := make([]Item, len(entries))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)

	for i, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parse := p.Parse
			if entry.IsDir {
				parse = p.ParseDir
			}
			items[i] = Item{Path: entry.Path, Result: parse(entry.Name)}
			n := done.Add(1)
			pr.Update(int(n), entry.Name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr.Complete(fmt.Sprintf("Parsed %d names", len(entries)))
	return items, nil
}
