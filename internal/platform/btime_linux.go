//go:build linux

package platform

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// CreationTime returns the birth time of the file at path using statx(2).
func CreationTime(path string) (time.Time, error) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, fmt.Errorf("statx %s: %w", path, err)
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, fmt.Errorf("%s: %w", path, ErrNoBirthTime)
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), nil
}
