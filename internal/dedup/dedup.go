// Package dedup finds files with identical content and resolves each
// duplicate pair by keeping the older file.
package dedup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bamsammich/colek/internal/engine"
	"github.com/bamsammich/colek/internal/event"
	"github.com/bamsammich/colek/internal/platform"
	"github.com/bamsammich/colek/internal/stats"
)

// Action is applied to the newer file of a duplicate pair. The zero value
// is Print, which leaves both files in place.
type Action int

const (
	Print Action = iota
	Rename
	Remove
)

func (a Action) String() string {
	switch a {
	case Remove:
		return "remove"
	case Rename:
		return "rename"
	case Print:
		return "print"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction parses the --duplicate value.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "print":
		return Print, nil
	case "rename":
		return Rename, nil
	case "remove":
		return Remove, nil
	}
	return 0, fmt.Errorf("unknown duplicate action %q (want remove, rename or print)", s)
}

// Hashed is the transform result: a path and its content key.
type Hashed struct {
	Path string
	Key  ContentKey
}

// Pair is a resolved duplicate.
type Pair struct {
	Key  ContentKey
	Keep string
	Drop string
}

// Options configures a Deduplicate sink.
type Options struct {
	Action Action
	Algo   Algo
	Verify bool      // byte-compare before acting on a hash match
	Out    io.Writer // Print output; defaults to os.Stdout

	// CreatedAt returns a file's creation time; defaults to
	// platform.CreationTime.
	CreatedAt func(path string) (time.Time, error)

	Stats  *stats.Collector
	Events chan<- event.Event
}

// Deduplicate is the hash sink. Transform hashes files concurrently;
// Aggregate owns the index and applies the configured action.
type Deduplicate struct {
	opts  Options
	index *Index
	pairs []Pair

	hashed   int64
	resolved int64
	skipped  int64
}

// New creates a Deduplicate sink.
func New(opts Options) *Deduplicate {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.CreatedAt == nil {
		opts.CreatedAt = platform.CreationTime
	}
	if opts.Stats == nil {
		opts.Stats = stats.NewCollector()
	}
	return &Deduplicate{opts: opts, index: NewIndex()}
}

func (d *Deduplicate) Name() string { return "hash" }

func (d *Deduplicate) Transform(_ context.Context, e engine.Entry) (Hashed, error) {
	key, err := HashFile(e.Path, d.opts.Algo)
	if err != nil {
		return Hashed{}, engine.NewError(engine.ErrIO, "hash", e.Path, err)
	}
	return Hashed{Path: e.Path, Key: key}, nil
}

func (d *Deduplicate) Aggregate(h Hashed) {
	d.hashed++

	indexed, ok := d.index.Lookup(h.Key)
	if !ok {
		d.index.Put(h.Key, h.Path)
		return
	}
	if indexed == h.Path {
		// Same file reached through overlapping roots.
		return
	}

	tIndexed, err := d.opts.CreatedAt(indexed)
	if engine.IsNotExist(err) {
		slog.Info("indexed file vanished, replacing", "old", indexed, "new", h.Path)
		d.index.Put(h.Key, h.Path)
		return
	}
	if err != nil {
		d.skip(indexed, h.Path, err)
		return
	}
	tIncoming, err := d.opts.CreatedAt(h.Path)
	if engine.IsNotExist(err) {
		slog.Debug("duplicate vanished", "path", h.Path)
		return
	}
	if err != nil {
		d.skip(indexed, h.Path, err)
		return
	}

	if d.opts.Verify {
		same, err := sameContent(indexed, h.Path)
		if err != nil {
			d.skip(indexed, h.Path, err)
			return
		}
		if !same {
			slog.Warn("hash collision, contents differ", "a", indexed, "b", h.Path, "key", h.Key.String())
			d.skipped++
			d.opts.Stats.AddPairsSkipped(1)
			return
		}
	}

	keep, drop := order(indexed, tIndexed, h.Path, tIncoming)
	pair := Pair{Key: h.Key, Keep: keep, Drop: drop}
	d.pairs = append(d.pairs, pair)
	d.index.Put(h.Key, keep)
	d.opts.Stats.AddDuplicates(1)
	event.Emit(d.opts.Events, event.Event{Type: event.DuplicateFound, Path: drop, Other: keep, Size: h.Key.Size})

	if err := d.apply(pair); err != nil {
		if engine.IsNotExist(err) {
			slog.Debug("duplicate vanished before action", "path", drop)
			return
		}
		slog.Error("resolve duplicate", "action", d.opts.Action, "path", drop, "error", err)
		return
	}
	d.resolved++
	d.opts.Stats.AddDuplicatesResolved(1)
	event.Emit(d.opts.Events, event.Event{Type: event.DuplicateResolved, Path: drop, Other: keep, Size: h.Key.Size})
}

func (d *Deduplicate) skip(a, b string, err error) {
	slog.Warn("skipping duplicate pair", "a", a, "b", b, "error", err)
	d.skipped++
	d.opts.Stats.AddPairsSkipped(1)
	event.Emit(d.opts.Events, event.Event{Type: event.DuplicateSkipped, Path: b, Other: a, Error: err})
}

func (d *Deduplicate) apply(p Pair) error {
	switch d.opts.Action {
	case Remove:
		slog.Info("removing duplicate", "path", p.Drop, "keep", p.Keep)
		return os.Remove(p.Drop)
	case Rename:
		target := RenamedPath(p.Drop, p.Key)
		slog.Info("renaming duplicate", "path", p.Drop, "to", target, "keep", p.Keep)
		return os.Rename(p.Drop, target)
	case Print:
		return writePair(d.opts.Out, p)
	}
	return fmt.Errorf("unknown action %v", d.opts.Action)
}

func (d *Deduplicate) Finish() error {
	slog.Info("hash finished",
		"hashed", d.hashed,
		"unique", d.index.Len(),
		"duplicates", len(d.pairs),
		"resolved", d.resolved,
		"skipped", d.skipped,
	)
	return nil
}

// Pairs returns every duplicate pair formed so far, in aggregation order.
func (d *Deduplicate) Pairs() []Pair {
	return append([]Pair(nil), d.pairs...)
}

// Unique returns the number of distinct contents seen.
func (d *Deduplicate) Unique() int {
	return d.index.Len()
}

// RenamedPath is the name a dropped duplicate is moved to.
func RenamedPath(path string, key ContentKey) string {
	return path + "-" + key.Hex()
}

// order picks the older file as keep. Equal times fall back to path order.
func order(a string, ta time.Time, b string, tb time.Time) (keep, drop string) {
	switch {
	case ta.Before(tb):
		return a, b
	case tb.Before(ta):
		return b, a
	case a < b:
		return a, b
	default:
		return b, a
	}
}

const duplicateBanner = "==================== DUPLICATE ======================"

func writePair(w io.Writer, p Pair) error {
	_, err := fmt.Fprintf(w, "%s\n=> %s (%s)\n=> %s (%s)\n\n",
		duplicateBanner, p.Keep, p.Key.Hex(), p.Drop, p.Key.Hex())
	return err
}

// sameContent compares two files byte by byte.
func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, 64*1024)
	bufB := make([]byte, 64*1024)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		endA := errors.Is(errA, io.EOF) || errors.Is(errA, io.ErrUnexpectedEOF)
		endB := errors.Is(errB, io.EOF) || errors.Is(errB, io.ErrUnexpectedEOF)
		switch {
		case endA && endB:
			return true, nil
		case endA != endB:
			return false, nil
		case errA != nil:
			return false, errA
		case errB != nil:
			return false, errB
		}
	}
}
