package classify

import (
	"fmt"
	"strings"
)

// Filter is a single media category bit.
type Filter uint32

const (
	Image Filter = 2
	Video Filter = 4
	Music Filter = 8
)

func (f Filter) String() string {
	switch f {
	case Image:
		return "image"
	case Video:
		return "video"
	case Music:
		return "music"
	default:
		return "unknown"
	}
}

// FilterSet is a bitwise combination of Filter values. It is fixed for the
// duration of a run.
type FilterSet uint32

// NewFilterSet combines the given filters into a set.
func NewFilterSet(filters ...Filter) FilterSet {
	var s FilterSet
	for _, f := range filters {
		s |= FilterSet(f)
	}
	return s
}

// Has reports whether f is enabled in the set.
func (s FilterSet) Has(f Filter) bool {
	return s&FilterSet(f) != 0
}

// With returns a copy of the set with f enabled.
func (s FilterSet) With(f Filter) FilterSet {
	return s | FilterSet(f)
}

// Empty reports whether no filter is enabled.
func (s FilterSet) Empty() bool {
	return s == 0
}

// Filters returns the enabled filters in declaration order.
func (s FilterSet) Filters() []Filter {
	var out []Filter
	for _, f := range []Filter{Image, Video, Music} {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FilterSet) String() string {
	names := make([]string, 0, 3)
	for _, f := range s.Filters() {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

// ParseFilter parses a single filter name (case-insensitive).
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "image", "images":
		return Image, nil
	case "video", "videos":
		return Video, nil
	case "music":
		return Music, nil
	default:
		return 0, fmt.Errorf("unknown filter %q (want image, video or music)", name)
	}
}

// ParseFilterSet parses a comma-delimited list such as "image,video".
// Empty elements are ignored.
func ParseFilterSet(list string) (FilterSet, error) {
	var s FilterSet
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFilter(part)
		if err != nil {
			return 0, err
		}
		s = s.With(f)
	}
	return s, nil
}
