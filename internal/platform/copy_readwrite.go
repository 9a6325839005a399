package platform

import (
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite streams the source into the destination with a pooled buffer.
func copyReadWrite(params CopyFileParams) (CopyResult, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	bufp := bufPool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
	defer bufPool.Put(bufp)

	// Hide ReaderFrom/WriterTo so io.CopyBuffer really uses our buffer.
	n, err := io.CopyBuffer(struct{ io.Writer }{params.DstFd}, struct{ io.Reader }{srcFd}, *bufp)
	return CopyResult{BytesWritten: n, Method: ReadWrite}, err
}

// CopyReadWrite is the exported version for use by other packages during testing.
func CopyReadWrite(params CopyFileParams) (CopyResult, error) {
	return copyReadWrite(params)
}

// isFallbackErr returns true if err should trigger a fallback to read/write.
func isFallbackErr(err error) bool {
	return errors.Is(err, syscall.ENOSYS) ||
		errors.Is(err, syscall.EXDEV) ||
		errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.EPERM)
}
