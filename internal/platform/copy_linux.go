//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// CopyFile tries copy_file_range first and falls back to read/write on
// unsupported or cross-device errors.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	result, err := copyFileRange(params)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) || result.BytesWritten > 0 {
		return result, err
	}
	return copyReadWrite(params)
}

func copyFileRange(params CopyFileParams) (CopyResult, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	remaining := params.SrcSize
	var totalWritten int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(int(srcFd.Fd()), nil, int(params.DstFd.Fd()), nil, int(remaining), 0)
		if err != nil {
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, nil
}
