package ui

import "github.com/bamsammich/colek/internal/event"

// Event is re-exported for presenter signatures.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted       = event.ScanStarted
	ScanComplete      = event.ScanComplete
	WalkFailed        = event.WalkFailed
	FileMatched       = event.FileMatched
	FileCompleted     = event.FileCompleted
	FileFailed        = event.FileFailed
	DuplicateFound    = event.DuplicateFound
	DuplicateResolved = event.DuplicateResolved
	DuplicateSkipped  = event.DuplicateSkipped
)
