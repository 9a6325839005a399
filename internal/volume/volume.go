// Package volume lists mounted storage volumes and tags each with a role.
package volume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Role classifies a mounted volume.
type Role int

const (
	Root Role = iota + 1
	Generic
	Removable
	Boot
)

var roleNames = [...]string{
	Root:      "root",
	Generic:   "generic",
	Removable: "removable",
	Boot:      "boot",
}

func (r Role) String() string {
	if r > 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// ScanRoot is a mounted directory tagged with its role.
type ScanRoot struct {
	Path string
	Name string // device or label, informational only
	Role Role
}

// ErrNoGenericVolume is returned when no volume qualifies as a scan root.
var ErrNoGenericVolume = errors.New("no generic drive detected")

// Lister enumerates mounted volumes.
type Lister interface {
	List() ([]ScanRoot, error)
}

// Static is a Lister over a fixed set of roots.
type Static []ScanRoot

func (s Static) List() ([]ScanRoot, error) {
	out := make([]ScanRoot, len(s))
	copy(out, s)
	return out, nil
}

// GenericRoots returns every volume tagged Generic.
func GenericRoots(roots []ScanRoot) ([]ScanRoot, error) {
	var out []ScanRoot
	for _, r := range roots {
		if r.Role == Generic {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoGenericVolume
	}
	return out, nil
}

// FirstRemovable returns the first Removable volume, if any.
func FirstRemovable(roots []ScanRoot) (ScanRoot, bool) {
	for _, r := range roots {
		if r.Role == Removable {
			return r, true
		}
	}
	return ScanRoot{}, false
}

// ResolveDest places name on the preferred volume. Absolute names are
// returned unchanged. Relative names are joined onto the first removable
// volume; when there is none, name is used relative to the working
// directory and fallback is reported as true.
func ResolveDest(roots []ScanRoot, name string) (dest string, fallback bool) {
	if filepath.IsAbs(name) {
		return name, false
	}
	if r, ok := FirstRemovable(roots); ok {
		if _, err := os.Stat(r.Path); err == nil {
			return filepath.Join(r.Path, name), false
		}
	}
	return name, true
}

// DefaultName builds the default output name, "colek_<host><suffix>".
func DefaultName(suffix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("colek_%s%s", sanitize(host), suffix)
}

func sanitize(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c == ' ' || c == '/' || c == filepath.Separator {
			b[i] = '-'
		}
	}
	return string(b)
}
