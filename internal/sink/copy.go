package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/bamsammich/colek/internal/engine"
	"github.com/bamsammich/colek/internal/platform"
)

// Copied is the Copy transform result.
type Copied struct {
	Src    string
	Dst    string
	Size   int64
	Method platform.CopyMethod
}

// CopyOptions configures a Copy sink.
type CopyOptions struct {
	Dest    string
	Limiter *rate.Limiter // optional write throttle
}

// Copy copies every matched file into one flat directory.
type Copy struct {
	dest    string
	limiter *rate.Limiter
	unnamed atomic.Int64

	count int64
	bytes int64
}

// NewCopy creates the destination directory and returns the sink.
func NewCopy(opts CopyOptions) (*Copy, error) {
	if opts.Dest == "" {
		return nil, engine.ConfigError("copy destination not set")
	}
	dest, err := filepath.Abs(opts.Dest)
	if err != nil {
		return nil, engine.NewError(engine.ErrConfig, "resolve destination", opts.Dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, engine.NewError(engine.ErrIO, "create destination", dest, err)
	}
	slog.Info("copy destination", "path", dest)
	return &Copy{dest: dest, limiter: opts.Limiter}, nil
}

var _ engine.Outputter = (*Copy)(nil)

func (c *Copy) Name() string { return "copy" }

func (c *Copy) Transform(ctx context.Context, e engine.Entry) (Copied, error) {
	name := e.Name()
	if !usableName(name) {
		name = fmt.Sprintf("file_%d", c.unnamed.Add(1))
	}

	dst, f, err := c.reserve(name)
	if err != nil {
		return Copied{}, engine.NewError(engine.ErrIO, "create", filepath.Join(c.dest, name), err)
	}
	engine.RegisterTmp(dst)
	defer engine.DeregisterTmp(dst)

	res, err := c.copyInto(ctx, f, e)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return Copied{}, engine.NewError(engine.ErrIO, "copy", e.Path, err)
	}

	if info, ierr := e.Info(); ierr == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return Copied{Src: e.Path, Dst: dst, Size: res.BytesWritten, Method: res.Method}, nil
}

// reserve creates a new file named name, or the first free name_N variant.
func (c *Copy) reserve(name string) (string, *os.File, error) {
	for n := 0; ; n++ {
		dst := filepath.Join(c.dest, suffixName(name, n))
		f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return dst, f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", nil, err
		}
	}
}

func (c *Copy) copyInto(ctx context.Context, dst *os.File, e engine.Entry) (platform.CopyResult, error) {
	if c.limiter == nil {
		return platform.CopyFile(platform.CopyFileParams{
			DstFd:   dst,
			SrcPath: e.Path,
			SrcSize: e.Size(),
		})
	}

	src, err := os.Open(e.Path)
	if err != nil {
		return platform.CopyResult{}, err
	}
	defer src.Close()
	n, err := io.Copy(engine.LimitWriter(ctx, dst, c.limiter), src)
	return platform.CopyResult{BytesWritten: n, Method: platform.ReadWrite}, err
}

func (c *Copy) Aggregate(r Copied) {
	c.count++
	c.bytes += r.Size
	slog.Debug("copied", "src", r.Src, "dst", r.Dst, "size", r.Size, "method", r.Method)
}

func (c *Copy) Finish() error {
	slog.Info("copy finished", "files", c.count, "bytes", c.bytes, "dest", c.dest)
	return nil
}

// Count returns the number of files copied.
func (c *Copy) Count() int64 { return c.count }

// Dest returns the absolute destination directory.
func (c *Copy) Dest() string { return c.dest }

// Outputs keeps the destination out of the walk.
func (c *Copy) Outputs() []string { return []string{c.dest} }
