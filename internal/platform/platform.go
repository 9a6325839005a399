// Package platform wraps OS specific file operations: fast whole-file copy
// and file creation (birth) time.
package platform

import (
	"errors"
	"os"
)

// ErrNoBirthTime is returned when the filesystem does not record a
// creation time for a file.
var ErrNoBirthTime = errors.New("creation time not available")

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyFileParams describes a whole-file copy into an open destination.
type CopyFileParams struct {
	DstFd   *os.File
	SrcPath string
	SrcSize int64
}
