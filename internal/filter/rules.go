// Package filter holds the path and size rules that narrow a scan beyond
// media classification: --exclude globs, rule files and size bounds.
package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type rule struct {
	glob    *glob
	include bool
}

// Rules is an ordered rule list. The first rule whose glob matches a path
// decides; paths matched by no rule are kept. A nil *Rules keeps
// everything.
type Rules struct {
	rules   []rule
	minSize int64
	maxSize int64 // 0 means unbounded
}

func New() *Rules {
	return &Rules{}
}

// Exclude appends a rule dropping paths that match pattern.
func (r *Rules) Exclude(pattern string) error {
	return r.add(pattern, false)
}

// Include appends a rule keeping paths that match pattern.
func (r *Rules) Include(pattern string) error {
	return r.add(pattern, true)
}

func (r *Rules) add(pattern string, include bool) error {
	g, err := compileGlob(pattern)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", pattern, err)
	}
	r.rules = append(r.rules, rule{glob: g, include: include})
	return nil
}

// SetSizeRange bounds matched file sizes. max of 0 leaves the upper side
// open.
func (r *Rules) SetSizeRange(minSize, maxSize int64) error {
	if minSize < 0 || maxSize < 0 {
		return fmt.Errorf("negative size bound")
	}
	if maxSize > 0 && minSize > maxSize {
		return fmt.Errorf("min size %d exceeds max size %d", minSize, maxSize)
	}
	r.minSize, r.maxSize = minSize, maxSize
	return nil
}

// Empty reports whether no rule or bound is set.
func (r *Rules) Empty() bool {
	return r == nil || (len(r.rules) == 0 && r.minSize == 0 && r.maxSize == 0)
}

// SkipDir reports whether the scanner should not descend into the
// directory at rel, a path relative to its scan root.
func (r *Rules) SkipDir(rel string) bool {
	if r == nil {
		return false
	}
	return !r.decide(rel, true)
}

// SkipFile reports whether the file at rel is dropped by a path rule.
func (r *Rules) SkipFile(rel string) bool {
	if r == nil {
		return false
	}
	return !r.decide(rel, false)
}

// SizeOK reports whether size falls inside the configured bounds.
func (r *Rules) SizeOK(size int64) bool {
	if r == nil {
		return true
	}
	if size < r.minSize {
		return false
	}
	return r.maxSize == 0 || size <= r.maxSize
}

func (r *Rules) decide(rel string, isDir bool) bool {
	for _, ru := range r.rules {
		if ru.glob.match(rel, isDir) {
			return ru.include
		}
	}
	return true
}

// LoadFile appends the rules listed in path, one per line:
//
//	# comment
//	- pattern   exclude
//	+ pattern   include
//	pattern     exclude
func (r *Rules) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		include := false
		switch {
		case strings.HasPrefix(line, "+ "):
			include, line = true, strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "- "):
			line = strings.TrimSpace(line[2:])
		}
		if err := r.add(line, include); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	return sc.Err()
}
