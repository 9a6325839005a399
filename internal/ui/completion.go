package ui

import (
	"fmt"

	"github.com/bamsammich/colek/internal/stats"
)

// CompletionSummary builds the final summary line from a snapshot.
// Format: done ✓  files 1,204  size 2.1 GiB  avg 641 MB/s  time 3m 17s  errors 0
// Duplicate counts are appended when any were found.
func CompletionSummary(snap stats.Snapshot, styled bool) string {
	st := styler(styled)

	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesDone) / snap.Elapsed.Seconds()
	}

	failed := snap.FilesFailed + snap.WalkErrors
	icon := st.render(styleDone, "✓")
	if failed > 0 {
		icon = st.render(styleFailed, "✗")
	}

	base := fmt.Sprintf("done %s  files %s  size %s  avg %s  time %s",
		icon,
		st.render(styleBright, FormatCount(snap.FilesDone)),
		FormatBytes(snap.BytesDone),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.Duplicates > 0 || snap.PairsSkipped > 0 {
		base += fmt.Sprintf("  duplicates %s  resolved %s",
			st.render(styleDuplicate, FormatCount(snap.Duplicates)),
			FormatCount(snap.DuplicatesResolved))
		if snap.PairsSkipped > 0 {
			base += fmt.Sprintf("  skipped %s", FormatCount(snap.PairsSkipped))
		}
	}

	base += fmt.Sprintf("  errors %d", failed)
	return base
}
