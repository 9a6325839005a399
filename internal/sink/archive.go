package sink

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/colek/internal/archive"
	"github.com/bamsammich/colek/internal/engine"
)

// Archived is the Archive transform result.
type Archived struct {
	Src  string
	Name string
	Size int64
}

// ArchiveOptions configures an Archive sink.
type ArchiveOptions struct {
	Path    string
	Method  archive.Method
	Level   int
	Limiter *rate.Limiter
}

// Archive appends every matched file to a single zip container. Sources
// are opened in parallel; entry writes are serialized.
type Archive struct {
	limiter *rate.Limiter

	mu    sync.Mutex // guards w and names
	w     *archive.Writer
	names *nameSet

	count int64
	bytes int64
}

// NewArchive opens the container for writing.
func NewArchive(opts ArchiveOptions) (*Archive, error) {
	w, err := archive.Create(opts.Path, archive.Options{Method: opts.Method, Level: opts.Level})
	if err != nil {
		return nil, err
	}
	slog.Info("archive destination", "path", opts.Path, "method", opts.Method, "level", opts.Level)
	return &Archive{w: w, names: newNameSet(), limiter: opts.Limiter}, nil
}

var _ engine.Outputter = (*Archive)(nil)

func (a *Archive) Name() string { return "zip" }

func (a *Archive) Transform(ctx context.Context, e engine.Entry) (Archived, error) {
	src, err := os.Open(e.Path)
	if err != nil {
		return Archived{}, engine.NewError(engine.ErrIO, "open", e.Path, err)
	}
	defer src.Close()

	var modified time.Time
	if info, ierr := e.Info(); ierr == nil {
		modified = info.ModTime()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	name := a.names.claim(e.Name())
	if err := a.w.StartEntry(name, -1, modified); err != nil {
		return Archived{}, err
	}
	n, err := io.Copy(a.w, engine.LimitReader(ctx, src, a.limiter))
	if err != nil {
		// zip entries cannot be rolled back; the truncated entry stays.
		slog.Warn("partial archive entry", "path", e.Path, "name", name, "written", n, "error", err)
		return Archived{}, engine.NewError(engine.ErrArchive, "write entry", e.Path, err)
	}
	slog.Debug("archived", "path", e.Path, "name", name, "size", n, "elapsed", time.Since(start))
	return Archived{Src: e.Path, Name: name, Size: n}, nil
}

func (a *Archive) Aggregate(r Archived) {
	a.count++
	a.bytes += r.Size
}

func (a *Archive) Finish() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.w.Finish(); err != nil {
		return err
	}
	slog.Info("archive finished", "path", a.w.Path(), "entries", a.count, "bytes", a.bytes)
	return nil
}

// Count returns the number of entries written.
func (a *Archive) Count() int64 { return a.count }

// Path returns the archive path.
func (a *Archive) Path() string { return a.w.Path() }

// Outputs keeps the archive and its temporary file out of the walk.
func (a *Archive) Outputs() []string { return []string{a.w.Path(), a.w.TmpPath()} }
