//go:build !linux && !darwin

package platform

import (
	"fmt"
	"os"
	"time"
)

// CreationTime is unavailable on this platform.
func CreationTime(path string) (time.Time, error) {
	if _, err := os.Stat(path); err != nil {
		return time.Time{}, err
	}
	return time.Time{}, fmt.Errorf("%s: %w", path, ErrNoBirthTime)
}
