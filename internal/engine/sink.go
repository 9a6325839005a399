package engine

import "context"

// Sink is a terminal consumer of classified entries.
//
// Transform is called from many worker goroutines at once and must not
// touch state owned by Aggregate. Aggregate is called from a single
// goroutine, in arrival order, and may keep private mutable state without
// locking. Finish is called exactly once after the last Aggregate call.
type Sink[R any] interface {
	Name() string
	Transform(ctx context.Context, e Entry) (R, error)
	Aggregate(r R)
	Finish() error
}

// Outputter is implemented by sinks that write into the filesystem. The
// walk never descends into or emits any of the returned paths, so a
// destination under a scan root is not collected again.
type Outputter interface {
	Outputs() []string
}
