// Package sink holds the terminal actions applied to matched files.
package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bamsammich/colek/internal/engine"
	"github.com/bamsammich/colek/internal/stats"
)

// Listed is the Print transform result.
type Listed struct {
	Path string
	Size int64
}

// Print writes one line per matched file.
type Print struct {
	w     io.Writer
	count int64
	bytes int64
	err   error
}

// NewPrint creates a Print sink writing to w, or stdout when w is nil.
func NewPrint(w io.Writer) *Print {
	if w == nil {
		w = os.Stdout
	}
	return &Print{w: w}
}

func (p *Print) Name() string { return "stdout" }

func (p *Print) Transform(_ context.Context, e engine.Entry) (Listed, error) {
	return Listed{Path: e.Path, Size: e.Size()}, nil
}

func (p *Print) Aggregate(l Listed) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, "path: %s\n", l.Path); err != nil {
		// Broken pipe and friends: stop writing, report once at Finish.
		slog.Error("write output", "error", err)
		p.err = err
		return
	}
	p.count++
	p.bytes += l.Size
}

func (p *Print) Finish() error {
	if p.err != nil {
		return engine.NewError(engine.ErrIO, "write", "stdout", p.err)
	}
	_, err := fmt.Fprintf(p.w, "%d files, %s\n", p.count, stats.FormatBytes(p.bytes))
	return err
}

// Count returns the number of paths written.
func (p *Print) Count() int64 { return p.count }
