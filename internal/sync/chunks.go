// Package sync implements the synchronization engine: date-range chunking
// under the search result cap, sequential page fetching with rate-limit
// recovery, record normalization, and the merge-and-replace commit.
package sync

import "time"

// allTimeStart bounds an open-ended window on the left. GitHub has no pull
// requests before 2008, so starting there is equivalent to "all time".
var allTimeStart = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

// Window is the requested fetch range. A nil Start means all time; a nil
// End resolves to now at planning time.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Chunk is one [Start, End) sub-range of the window, sized so a single
// search query for it stays under the service's result cap in typical
// repositories.
type Chunk struct {
	Start time.Time
	End   time.Time
}

// PlanChunks splits the window into contiguous, non-overlapping chunks with
// month-aligned interior boundaries, ordered ascending. The union of the
// chunks exactly covers the window. A window inside a single month yields
// one chunk.
//
// Splitting by calendar month is a heuristic: it keeps typical monthly PR
// volume under the cap without pre-counting. The planner does not verify
// the actual result count; the runner detects truncation after the fact.
func PlanChunks(window Window, now time.Time) []Chunk {
	start := allTimeStart
	if window.Start != nil {
		start = window.Start.UTC()
	}
	end := now.UTC()
	if window.End != nil {
		end = window.End.UTC()
	}

	if !start.Before(end) {
		return nil
	}

	var chunks []Chunk
	for cursor := start; cursor.Before(end); {
		next := startOfNextMonth(cursor)
		if next.After(end) {
			next = end
		}
		chunks = append(chunks, Chunk{Start: cursor, End: next})
		cursor = next
	}

	return chunks
}

func startOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
