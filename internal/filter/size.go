package filter

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	mult   float64
}{
	// Longest suffixes first.
	{"kib", 1 << 10}, {"mib", 1 << 20}, {"gib", 1 << 30}, {"tib", 1 << 40},
	{"kb", 1 << 10}, {"mb", 1 << 20}, {"gb", 1 << 30}, {"tb", 1 << 40},
	{"k", 1 << 10}, {"m", 1 << 20}, {"g", 1 << 30}, {"t", 1 << 40},
	{"b", 1},
}

// ParseSize parses sizes such as 512, 100K, 1.5G, 20MB or 4MiB. All units
// are powers of 1024.
func ParseSize(s string) (int64, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := 1.0
	for _, u := range sizeUnits {
		if num, ok := strings.CutSuffix(in, u.suffix); ok {
			in, mult = strings.TrimSpace(num), u.mult
			break
		}
	}

	if n, err := strconv.ParseInt(in, 10, 64); err == nil && n >= 0 {
		return n * int64(mult), nil
	}
	f, err := strconv.ParseFloat(in, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(f * mult), nil
}
