package engine

import (
	"io/fs"
	"path/filepath"

	"github.com/bamsammich/colek/internal/volume"
)

// Entry is a file that passed classification. It is produced by the
// scanner and consumed exactly once by a sink. Metadata is fetched lazily
// on first use.
type Entry struct {
	Path    string
	RelPath string // relative to Root.Path
	Root    volume.ScanRoot

	dirent fs.DirEntry
	info   fs.FileInfo
}

// NewEntry builds an Entry for path under root. dirent may be nil, in which
// case metadata is read with Lstat on demand.
func NewEntry(root volume.ScanRoot, path string, dirent fs.DirEntry) Entry {
	return Entry{Path: path, RelPath: relPath(root, path), Root: root, dirent: dirent}
}

// relPath returns path relative to the root, in slash form.
func relPath(root volume.ScanRoot, path string) string {
	rel, err := filepath.Rel(root.Path, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Name returns the base name of the file.
func (e *Entry) Name() string {
	return filepath.Base(e.Path)
}

// Info returns the file metadata, fetching it on first call.
func (e *Entry) Info() (fs.FileInfo, error) {
	if e.info != nil {
		return e.info, nil
	}
	var (
		info fs.FileInfo
		err  error
	)
	if e.dirent != nil {
		info, err = e.dirent.Info()
	} else {
		info, err = lstat(e.Path)
	}
	if err != nil {
		return nil, ioError("stat", e.Path, err)
	}
	e.info = info
	return info, nil
}

// Size returns the file size, or 0 if metadata is unavailable.
func (e *Entry) Size() int64 {
	info, err := e.Info()
	if err != nil {
		return 0
	}
	return info.Size()
}
