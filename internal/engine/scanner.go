package engine

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bamsammich/colek/internal/classify"
	"github.com/bamsammich/colek/internal/event"
	"github.com/bamsammich/colek/internal/filter"
	"github.com/bamsammich/colek/internal/stats"
	"github.com/bamsammich/colek/internal/volume"
)

// ScannerConfig controls scanner behavior.
type ScannerConfig struct {
	Roots   []volume.ScanRoot
	Filter  classify.FilterSet
	Rules   *filter.Rules // optional path and size rules
	Workers int
	Buffer  int // entry channel capacity
	Stats   *stats.Collector
	Events  chan<- event.Event

	// SkipPaths are files or directories left out of the walk, such as a
	// sink's own destination.
	SkipPaths []string

	// Match classifies a file; defaults to classify.Match.
	Match func(path string, s classify.FilterSet) bool
}

// Scanner walks every root in parallel and emits the files that pass
// classification. Arrival order is unspecified.
type Scanner struct {
	cfg     ScannerConfig
	skip    map[string]struct{}
	entries chan Entry
}

type dirWork struct {
	root volume.ScanRoot
	path string
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = cfg.Workers * 4
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Match == nil {
		cfg.Match = classify.Match
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = struct{}{}
		}
	}
	return &Scanner{
		cfg:     cfg,
		skip:    skip,
		entries: make(chan Entry, cfg.Buffer),
	}
}

// skipped reports whether path is one of the configured skip paths.
func (s *Scanner) skipped(path string) bool {
	if len(s.skip) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := s.skip[abs]
	return ok
}

// Scan starts the walk and returns the entry stream. The channel is closed
// once every root has been walked, or after ctx is cancelled and the
// directories already being read are finished.
func (s *Scanner) Scan(ctx context.Context) <-chan Entry {
	go func() {
		defer close(s.entries)
		s.scanTree(ctx)

		snap := s.cfg.Stats.Snapshot()
		event.Emit(s.cfg.Events, event.Event{
			Type:      event.ScanComplete,
			Total:     snap.FilesMatched,
			TotalSize: snap.BytesMatched,
		})
	}()
	return s.entries
}

func (s *Scanner) scanTree(ctx context.Context) {
	workQueue := make(chan dirWork, s.cfg.Workers*2)
	var outstanding sync.WaitGroup // directories queued but not yet processed

	var workerWg sync.WaitGroup
	for range s.cfg.Workers {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for w := range workQueue {
				s.scanDir(ctx, w, workQueue, &outstanding)
				outstanding.Done()
			}
		}()
	}

	for _, root := range s.cfg.Roots {
		if s.skipped(root.Path) {
			slog.Warn("scan root is an output path, skipping", "path", root.Path)
			continue
		}
		slog.Info("scanning volume", "path", root.Path, "device", root.Name)
		outstanding.Add(1)
		workQueue <- dirWork{root: root, path: root.Path}
	}

	// Wait for all directory work to finish, then close the work queue
	// so workers exit their range loop.
	outstanding.Wait()
	close(workQueue)
	workerWg.Wait()
}

func (s *Scanner) scanDir(ctx context.Context, w dirWork, workQueue chan<- dirWork, outstanding *sync.WaitGroup) {
	if ctx.Err() != nil {
		return
	}

	// ReadDir returns what it could read before failing, so keep going
	// with the partial listing.
	entries, err := os.ReadDir(w.path)
	if err != nil {
		s.walkFailed(walkError("readdir", w.path, err))
	}

	for _, d := range entries {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(w.path, d.Name())
		if s.skipped(path) {
			slog.Debug("skipping output path", "path", path)
			continue
		}

		switch typ := d.Type(); {
		case typ.IsDir():
			if s.cfg.Rules.SkipDir(relPath(w.root, path)) {
				slog.Debug("excluded directory", "path", path)
				continue
			}
			s.enqueue(ctx, dirWork{root: w.root, path: path}, workQueue, outstanding)
		case typ.IsRegular():
			s.processFile(ctx, w.root, path, d)
		case typ&fs.ModeSymlink != 0:
			slog.Debug("skipping symlink", "path", path)
		}
	}
}

// enqueue hands a directory to the pool. When the queue is full the
// directory is walked inline, so workers never block on each other.
func (s *Scanner) enqueue(ctx context.Context, w dirWork, workQueue chan<- dirWork, outstanding *sync.WaitGroup) {
	outstanding.Add(1)
	select {
	case workQueue <- w:
	default:
		s.scanDir(ctx, w, workQueue, outstanding)
		outstanding.Done()
	}
}

func (s *Scanner) processFile(ctx context.Context, root volume.ScanRoot, path string, d fs.DirEntry) {
	s.cfg.Stats.AddFilesVisited(1)
	entry := NewEntry(root, path, d)
	if s.cfg.Rules.SkipFile(entry.RelPath) || !s.cfg.Match(path, s.cfg.Filter) {
		return
	}

	info, err := entry.Info()
	if err != nil {
		// Vanished between readdir and stat.
		s.walkFailed(err)
		return
	}
	if !s.cfg.Rules.SizeOK(info.Size()) {
		return
	}

	s.cfg.Stats.AddFilesMatched(1)
	s.cfg.Stats.AddBytesMatched(info.Size())
	event.Emit(s.cfg.Events, event.Event{Type: event.FileMatched, Path: path, Size: info.Size()})

	select {
	case s.entries <- entry:
	case <-ctx.Done():
	}
}

func (s *Scanner) walkFailed(err error) {
	slog.Warn("walk failed", "error", err)
	s.cfg.Stats.AddWalkErrors(1)

	var path string
	var e *Error
	if errors.As(err, &e) {
		path = e.Path
	}
	event.Emit(s.cfg.Events, event.Event{Type: event.WalkFailed, Path: path, Error: err})
}
