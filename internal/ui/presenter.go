// Package ui renders run progress and summaries on stderr and sets up the
// log handlers.
package ui

import (
	"io"

	"github.com/bamsammich/colek/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter. Output always goes to W, normally
// stderr, so stdout stays clean for the stdout sink.
type Config struct {
	W       io.Writer
	Stats   *stats.Collector
	Sink    string // sink name shown in the status line
	Width   int    // terminal columns, for the status line
	IsTTY   bool
	Quiet   bool
	Verbose bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // picks the presenter for the output
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	if !cfg.IsTTY {
		return &plainPresenter{
			w:       cfg.W,
			stats:   cfg.Stats,
			verbose: cfg.Verbose,
		}
	}
	return &hudPresenter{
		w:       cfg.W,
		stats:   cfg.Stats,
		sink:    cfg.Sink,
		verbose: cfg.Verbose,
		width:   cfg.Width,
	}
}
