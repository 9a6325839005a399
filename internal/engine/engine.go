// Package engine drives the scan, transform and aggregate pipeline shared
// by every colek sink.
package engine

import (
	"context"
	"runtime"
	"slices"

	"github.com/bamsammich/colek/internal/classify"
	"github.com/bamsammich/colek/internal/event"
	"github.com/bamsammich/colek/internal/filter"
	"github.com/bamsammich/colek/internal/stats"
	"github.com/bamsammich/colek/internal/volume"
)

// Config describes a collection run.
type Config struct {
	Roots       []volume.ScanRoot
	Filter      classify.FilterSet
	Rules       *filter.Rules
	SkipPaths   []string // files or directories the walk leaves out
	Workers     int      // transform workers
	ScanWorkers int
	Buffer      int // entry channel capacity
	Stats       *stats.Collector
	Events      chan<- event.Event
}

// Result is the outcome of a run.
type Result struct {
	Stats stats.Snapshot
	Err   error
}

// Run scans cfg.Roots, feeds every matching file through s.Transform on a
// worker pool and folds the results with s.Aggregate on the calling
// goroutine. s.Finish is called once the stream is drained and its error is
// the run's error.
//
// Cancelling ctx stops the walk. Entries already handed out are still
// transformed and aggregated, and Finish still runs.
func Run[R any](ctx context.Context, cfg Config, s Sink[R]) Result {
	if len(cfg.Roots) == 0 {
		return Result{Err: ConfigError("no scan roots")}
	}
	if cfg.Filter.Empty() {
		return Result{Err: ConfigError("empty filter set")}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	defer CleanupTmpFiles()

	event.Emit(cfg.Events, event.Event{Type: event.ScanStarted, Total: int64(len(cfg.Roots))})

	skip := cfg.SkipPaths
	if o, ok := any(s).(Outputter); ok {
		skip = append(slices.Clip(skip), o.Outputs()...)
	}

	scanner := NewScanner(ScannerConfig{
		Roots:     cfg.Roots,
		Filter:    cfg.Filter,
		Rules:     cfg.Rules,
		SkipPaths: skip,
		Workers:   cfg.ScanWorkers,
		Buffer:    cfg.Buffer,
		Stats:     cfg.Stats,
		Events:    cfg.Events,
	})
	entries := scanner.Scan(ctx)

	pool := &transformPool[R]{
		workers: cfg.Workers,
		sink:    s,
		stats:   cfg.Stats,
		events:  cfg.Events,
	}
	results := make(chan R, cfg.Workers*2)
	// Transforms are not interrupted by cancellation; only the walk is.
	go pool.run(context.WithoutCancel(ctx), entries, results)

	for r := range results {
		s.Aggregate(r)
	}

	err := s.Finish()
	return Result{Stats: cfg.Stats.Snapshot(), Err: err}
}
