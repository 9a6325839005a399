package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/colek/internal/stats"
)

// plainPresenter writes unstyled lines for non-terminal output: failures
// and duplicates always, completed files when verbose, and a progress
// line every few seconds.
type plainPresenter struct {
	w        io.Writer
	stats    *stats.Collector
	verbose  bool
	interval time.Duration
}

func (p *plainPresenter) Run(events <-chan Event) error {
	interval := p.interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileCompleted:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s\n", ev.Path, FormatBytes(ev.Size))
		}
	case FileFailed, WalkFailed:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, errText(ev.Error))
	case DuplicateFound:
		fmt.Fprintf(p.w, "duplicate: %s (keep %s)\n", ev.Path, ev.Other)
	case DuplicateSkipped:
		if p.verbose {
			fmt.Fprintf(p.w, "skipped pair: %s %s  %s\n", ev.Other, ev.Path, errText(ev.Error))
		}
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.w, "progress: %s visited %s matched %s done %s %s\n",
		FormatCount(snap.FilesVisited),
		FormatCount(snap.FilesMatched),
		FormatCount(snap.FilesDone),
		FormatBytes(snap.BytesDone),
		FormatRate(p.stats.RollingSpeed(10)),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot(), false)
}

func errText(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
