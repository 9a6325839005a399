//go:build darwin

package platform

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// CreationTime returns the birth time recorded in the file's stat data.
func CreationTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", path, ErrNoBirthTime)
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec), nil
}
