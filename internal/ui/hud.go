package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bamsammich/colek/internal/stats"
)

// hudPresenter keeps one status line at the bottom of the terminal,
// redrawn in place. Failures and duplicates scroll above it; completed
// files too when verbose.
type hudPresenter struct {
	w       io.Writer
	stats   *stats.Collector
	sink    string
	verbose bool
	width   int

	drawn    bool
	lastDraw time.Time
}

const (
	sparklineWidth = 16
	hudMinInterval = 50 * time.Millisecond
)

func (p *hudPresenter) Run(events <-chan Event) error {
	if p.width <= 0 {
		p.width = 80
	}
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clear()
				return nil
			}
			p.handleEvent(ev)
			if time.Since(p.lastDraw) >= hudMinInterval {
				p.draw()
			}
		case <-redrawTicker.C:
			p.draw()
		case <-secTicker.C:
			p.stats.Tick()
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	st := styler(true)
	switch ev.Type {
	case FileCompleted:
		if p.verbose {
			p.println(fmt.Sprintf("%s  %s  %s",
				st.render(styleDone, "✓"), p.styledPath(ev.Path), st.render(styleMuted, FormatBytes(ev.Size))))
		}
	case FileFailed, WalkFailed:
		p.println(fmt.Sprintf("%s  %s  %s",
			st.render(styleFailed, "✗"), p.styledPath(ev.Path), st.render(styleFailed, errText(ev.Error))))
	case DuplicateFound:
		p.println(fmt.Sprintf("%s  %s  %s",
			st.render(styleDuplicate, "="), p.styledPath(ev.Path), st.render(styleMuted, "same as "+ev.Other)))
	}
}

// println writes a feed line above the status line.
func (p *hudPresenter) println(line string) {
	p.clear()
	fmt.Fprintln(p.w, line)
	p.draw()
}

func (p *hudPresenter) draw() {
	snap := p.stats.Snapshot()
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)

	line := fmt.Sprintf("%s %s  %s  matched %s  done %s  %s",
		p.sink, spark,
		FormatRate(p.stats.RollingSpeed(5)),
		FormatCount(snap.FilesMatched),
		FormatCount(snap.FilesDone),
		FormatBytes(snap.BytesDone),
	)
	if snap.Duplicates > 0 {
		line += fmt.Sprintf("  dup %s", FormatCount(snap.Duplicates))
	}
	if n := snap.FilesFailed + snap.WalkErrors; n > 0 {
		line += fmt.Sprintf("  err %s", FormatCount(n))
	}

	p.clear()
	fmt.Fprint(p.w, "\r"+styleMuted.Render(TruncPath(line, p.width-1)))
	p.drawn = true
	p.lastDraw = time.Now()
}

func (p *hudPresenter) clear() {
	if !p.drawn {
		return
	}
	fmt.Fprint(p.w, "\r\033[K")
	p.drawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot(), true)
}

// styledPath dims the directory so the file name stands out.
func (p *hudPresenter) styledPath(path string) string {
	dir, base := filepath.Split(path)
	if dir == "" {
		return styleBright.Render(base)
	}
	return styleMuted.Render(dir) + styleBright.Render(base)
}
