// Package archive writes a zip container one entry at a time. Entries are
// compressed with klauspost/compress deflate or zstd.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/bamsammich/colek/internal/engine"
)

// Method selects the entry compressor.
type Method int

const (
	Deflate Method = iota
	Zstd
)

func (m Method) String() string {
	if m == Zstd {
		return "zstd"
	}
	return "deflate"
}

// DefaultLevel is the compression level used when none is given.
const DefaultLevel = 9

// Options configures a Writer.
type Options struct {
	Method Method
	Level  int // default for entries; 0 stores uncompressed
}

// Writer appends entries to a zip file. Output goes to a temporary file in
// the destination directory and is renamed into place by Finish. A Writer
// is not safe for concurrent use.
type Writer struct {
	path string
	tmp  string
	opts Options

	f  *os.File
	zw *zip.Writer

	level int // level of the entry being started
	cur   io.Writer
	count int
}

// Create opens a new archive destined for path.
func Create(path string, opts Options) (*Writer, error) {
	if opts.Level < 0 || opts.Level > 9 {
		return nil, engine.NewError(engine.ErrConfig, "create archive", path,
			fmt.Errorf("compression level %d out of range 0-9", opts.Level))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, engine.NewError(engine.ErrArchive, "create archive", path, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String()[:8]))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, engine.NewError(engine.ErrArchive, "create archive", path, err)
	}
	engine.RegisterTmp(tmp)

	w := &Writer{path: path, tmp: tmp, opts: opts, f: f, zw: zip.NewWriter(f)}
	w.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, w.level)
	})
	w.zw.RegisterCompressor(zstd.ZipMethodWinZip, func(out io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(out,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(w.level)),
			zstd.WithEncoderConcurrency(1),
		)
	})
	return w, nil
}

// Path returns the final archive path.
func (w *Writer) Path() string { return w.path }

// TmpPath returns the file written until Finish renames it.
func (w *Writer) TmpPath() string { return w.tmp }

// Count returns the number of entries started.
func (w *Writer) Count() int { return w.count }

// StartEntry begins a new entry. level overrides the writer default when
// non-negative.
func (w *Writer) StartEntry(name string, level int, modified time.Time) error {
	if level < 0 {
		level = w.opts.Level
	}
	w.level = level

	hdr := &zip.FileHeader{
		Name:     strings.TrimLeft(filepath.ToSlash(name), "/"),
		Modified: modified,
		Method:   w.method(level),
	}
	hdr.SetMode(0o644)

	cur, err := w.zw.CreateHeader(hdr)
	if err != nil {
		w.cur = nil
		return engine.NewError(engine.ErrArchive, "start entry", name, err)
	}
	w.cur = cur
	w.count++
	return nil
}

func (w *Writer) method(level int) uint16 {
	switch {
	case level == 0:
		return zip.Store
	case w.opts.Method == Zstd:
		return zstd.ZipMethodWinZip
	default:
		return zip.Deflate
	}
}

// Write appends to the current entry.
func (w *Writer) Write(p []byte) (int, error) {
	if w.cur == nil {
		return 0, engine.NewError(engine.ErrArchive, "write", w.path, fmt.Errorf("no entry started"))
	}
	return w.cur.Write(p)
}

// Finish writes the central directory and moves the archive into place.
func (w *Writer) Finish() error {
	if err := w.zw.Close(); err != nil {
		_ = w.Abort()
		return engine.NewError(engine.ErrArchive, "finalize", w.path, err)
	}
	if err := w.f.Sync(); err != nil {
		_ = w.Abort()
		return engine.NewError(engine.ErrArchive, "sync", w.path, err)
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmp)
		return engine.NewError(engine.ErrArchive, "close", w.path, err)
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		_ = os.Remove(w.tmp)
		return engine.NewError(engine.ErrArchive, "rename", w.path, err)
	}
	engine.DeregisterTmp(w.tmp)
	return nil
}

// Abort discards the archive.
func (w *Writer) Abort() error {
	_ = w.f.Close()
	engine.DeregisterTmp(w.tmp)
	if err := os.Remove(w.tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// OpenReader opens an archive written by Writer, with zstd entries
// readable.
func OpenReader(path string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	r.RegisterDecompressor(zip.Deflate, flate.NewReader)
	return r, nil
}
