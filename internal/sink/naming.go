package sink

import (
	"fmt"
	"path/filepath"
	"strings"
)

// usableName reports whether base can be used as a flat file name.
func usableName(base string) bool {
	return base != "" && base != "." && base != ".." && base != string(filepath.Separator)
}

// suffixName returns name for n == 0 and "stem_n.ext" otherwise.
func suffixName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// Dotfile such as ".jpg": keep the whole name as the stem.
		stem, ext = name, ""
	}
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}

// nameSet hands out unique names. Not safe for concurrent use.
type nameSet struct {
	used map[string]struct{}
	next map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]struct{}), next: make(map[string]int)}
}

func (s *nameSet) claim(name string) string {
	for n := s.next[name]; ; n++ {
		candidate := suffixName(name, n)
		if _, taken := s.used[candidate]; !taken {
			s.used[candidate] = struct{}{}
			s.next[name] = n + 1
			return candidate
		}
	}
}
