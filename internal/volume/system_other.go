//go:build !linux

package volume

import "errors"

type unsupportedLister struct{}

func (unsupportedLister) List() ([]ScanRoot, error) {
	return nil, errors.New("volume listing is only supported on linux; use --root")
}

// NewSystemLister returns the lister for the running system.
//
//nolint:ireturn // platform factory
func NewSystemLister() Lister {
	return unsupportedLister{}
}
