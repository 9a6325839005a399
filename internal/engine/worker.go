package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bamsammich/colek/internal/event"
	"github.com/bamsammich/colek/internal/stats"
)

// transformPool runs a sink's Transform over the entry stream with a fixed
// number of workers.
type transformPool[R any] struct {
	workers int
	sink    Sink[R]
	stats   *stats.Collector
	events  chan<- event.Event
}

// run consumes entries until the channel closes and forwards successful
// results. Failed entries are logged and counted, never forwarded. results
// is closed once every worker has returned.
func (p *transformPool[R]) run(ctx context.Context, entries <-chan Entry, results chan<- R) {
	var wg sync.WaitGroup
	for id := range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range entries {
				if r, ok := p.process(ctx, id, e); ok {
					results <- r
				}
			}
		}()
	}
	wg.Wait()
	close(results)
}

func (p *transformPool[R]) process(ctx context.Context, id int, e Entry) (R, bool) {
	r, err := p.sink.Transform(ctx, e)
	if err != nil {
		slog.Error("transform failed", "sink", p.sink.Name(), "path", e.Path, "error", err)
		p.stats.AddFilesFailed(1)
		event.Emit(p.events, event.Event{
			Type:     event.FileFailed,
			Path:     e.Path,
			Error:    err,
			WorkerID: id,
		})
		return r, false
	}

	size := e.Size()
	p.stats.AddFilesDone(1)
	p.stats.AddBytesDone(size)
	event.Emit(p.events, event.Event{
		Type:     event.FileCompleted,
		Path:     e.Path,
		Size:     size,
		WorkerID: id,
	})
	return r, true
}
