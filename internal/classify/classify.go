// Package classify decides whether a file is a media file of interest.
//
// Matching is by lowercase extension first. When the extension is missing
// or unknown and the Image filter is enabled, the first bytes of the file
// are compared against a table of known binary signatures.
package classify

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen is the number of leading bytes read for signature matching.
const sniffLen = 64

var extensions = map[Filter]map[string]struct{}{
	Image: set("avif", "jpg", "jpeg", "png", "gif", "webp", "heic"),
	Video: set("mp4", "mkv", "webm", "mov", "m4p", "m4v", "mpg", "mp2", "mpeg", "mpe", "mpv", "3gp"),
	Music: set("mp3", "flac"),
}

func set(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

// Extension returns the lowercase extension of path without the dot, or ""
// if there is none.
func Extension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) <= 1 {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// MatchExtension reports whether ext (lowercase, no dot) belongs to any of
// the tables enabled in s.
func MatchExtension(ext string, s FilterSet) bool {
	if ext == "" {
		return false
	}
	for _, f := range s.Filters() {
		if _, ok := extensions[f][ext]; ok {
			return true
		}
	}
	return false
}

// Match reports whether the file at path matches s. It never fails: a file
// that cannot be read for sniffing is logged and treated as non-matching.
// Safe for concurrent use.
func Match(path string, s FilterSet) bool {
	if MatchExtension(Extension(path), s) {
		return true
	}
	if !s.Has(Image) {
		return false
	}

	head, err := readHead(path)
	if err != nil {
		slog.Debug("sniff failed", "path", path, "error", err)
		return false
	}
	return MatchSignature(head, s)
}

// MatchSignature reports whether head starts with a known media signature.
// Audio signatures are skipped unless s has Music.
func MatchSignature(head []byte, s FilterSet) bool {
	for _, sig := range signatures {
		if sig.audio && !s.Has(Music) {
			continue
		}
		end := sig.offset + len(sig.magic)
		if len(head) < end {
			continue
		}
		if bytes.Equal(head[sig.offset:end], sig.magic) {
			return true
		}
	}
	return false
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
