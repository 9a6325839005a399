package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks run statistics using lock-free atomic counters. Scanner
// goroutines, transform workers and the aggregation stage all write to it;
// the presenter only reads.
type Collector struct {
	filesVisited       atomic.Int64
	filesMatched       atomic.Int64
	bytesMatched       atomic.Int64
	filesDone          atomic.Int64
	filesFailed        atomic.Int64
	bytesDone          atomic.Int64
	walkErrors         atomic.Int64
	duplicates         atomic.Int64
	duplicatesResolved atomic.Int64
	pairsSkipped       atomic.Int64
	startTime          time.Time

	// Ring buffer, written only by the presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesVisited       int64
	FilesMatched       int64
	BytesMatched       int64
	FilesDone          int64
	FilesFailed        int64
	BytesDone          int64
	WalkErrors         int64
	Duplicates         int64
	DuplicatesResolved int64
	PairsSkipped       int64
	Elapsed            time.Duration
}

func (c *Collector) AddFilesVisited(n int64)       { c.filesVisited.Add(n) }
func (c *Collector) AddFilesMatched(n int64)       { c.filesMatched.Add(n) }
func (c *Collector) AddBytesMatched(n int64)       { c.bytesMatched.Add(n) }
func (c *Collector) AddFilesDone(n int64)          { c.filesDone.Add(n) }
func (c *Collector) AddFilesFailed(n int64)        { c.filesFailed.Add(n) }
func (c *Collector) AddBytesDone(n int64)          { c.bytesDone.Add(n) }
func (c *Collector) AddWalkErrors(n int64)         { c.walkErrors.Add(n) }
func (c *Collector) AddDuplicates(n int64)         { c.duplicates.Add(n) }
func (c *Collector) AddDuplicatesResolved(n int64) { c.duplicatesResolved.Add(n) }
func (c *Collector) AddPairsSkipped(n int64)       { c.pairsSkipped.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesVisited:       c.filesVisited.Load(),
		FilesMatched:       c.filesMatched.Load(),
		BytesMatched:       c.bytesMatched.Load(),
		FilesDone:          c.filesDone.Load(),
		FilesFailed:        c.filesFailed.Load(),
		BytesDone:          c.bytesDone.Load(),
		WalkErrors:         c.walkErrors.Load(),
		Duplicates:         c.duplicates.Load(),
		DuplicatesResolved: c.duplicatesResolved.Load(),
		PairsSkipped:       c.pairsSkipped.Load(),
		Elapsed:            c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesDone.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"visited=%d matched=%d done=%d failed=%d bytes=%d walk_errors=%d duplicates=%d resolved=%d skipped_pairs=%d",
		s.FilesVisited, s.FilesMatched, s.FilesDone, s.FilesFailed,
		s.BytesDone, s.WalkErrors, s.Duplicates, s.DuplicatesResolved, s.PairsSkipped,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// SparklineData returns up to n throughput samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	out := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		out[i] = float64(c.throughput[idx])
	}
	return out
}
