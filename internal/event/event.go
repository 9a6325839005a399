package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	WalkFailed
	FileMatched
	FileCompleted
	FileFailed
	DuplicateFound
	DuplicateResolved
	DuplicateSkipped
)

var typeNames = [...]string{
	ScanStarted:       "ScanStarted",
	ScanComplete:      "ScanComplete",
	WalkFailed:        "WalkFailed",
	FileMatched:       "FileMatched",
	FileCompleted:     "FileCompleted",
	FileFailed:        "FileFailed",
	DuplicateFound:    "DuplicateFound",
	DuplicateResolved: "DuplicateResolved",
	DuplicateSkipped:  "DuplicateSkipped",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the pipeline.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // file or directory the event is about
	Other     string // kept path for duplicate events
	Size      int64  // file size
	Total     int64  // total matched files (ScanComplete)
	TotalSize int64  // total matched bytes (ScanComplete)
	Error     error
	WorkerID  int
}

// Emit sends e on ch without blocking, stamping the time. A nil channel
// or a full buffer drops the event.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
