package booking

import (
	"sort"
	"time"

	"walkly/models"
)

// commitment is an existing claim on a walker's time: a non-cancelled booking
// (with a service location) or a block (no location).
type commitment struct {
	id       string
	kind     string // models.ConflictReasonOverlap for bookings, ConflictReasonBlock for blocks
	start    time.Time
	end      time.Time
	location models.Location
	hasLoc   bool
}

// collectCommitments flattens bookings and blocks into one chronologically
// sorted slice. Recurring blocks are first materialized onto the range.
func collectCommitments(bookings []models.Booking, blocks []models.Block, from, to time.Time) []commitment {
	commitments := make([]commitment, 0, len(bookings)+len(blocks))
	for _, b := range bookings {
		if !b.Occupies() {
			continue
		}
		commitments = append(commitments, commitment{
			id:       b.ID,
			kind:     models.ConflictReasonOverlap,
			start:    b.Start,
			end:      b.End,
			location: b.Location,
			hasLoc:   true,
		})
	}
	for _, bl := range materializeBlocks(blocks, from, to) {
		commitments = append(commitments, commitment{
			id:    bl.ID,
			kind:  models.ConflictReasonBlock,
			start: bl.Start,
			end:   bl.End,
		})
	}
	sort.Slice(commitments, func(i, j int) bool {
		if commitments[i].start.Equal(commitments[j].start) {
			return commitments[i].end.Before(commitments[j].end)
		}
		return commitments[i].start.Before(commitments[j].start)
	})
	return commitments
}

// materializeBlocks projects weekly recurring blocks onto every matching day
// intersecting [from, to) and passes plain blocks through when they intersect.
func materializeBlocks(blocks []models.Block, from, to time.Time) []models.Block {
	var out []models.Block
	for _, bl := range blocks {
		if !bl.Recurring {
			if bl.Start.Before(to) && bl.End.After(from) {
				out = append(out, bl)
			}
			continue
		}
		// Walk week by week from the block's anchor until past the range.
		span := bl.End.Sub(bl.Start)
		for start := bl.Start; start.Before(to); start = start.AddDate(0, 0, 7) {
			end := start.Add(span)
			if end.After(from) {
				inst := bl
				inst.Start = start
				inst.End = end
				out = append(out, inst)
			}
		}
	}
	return out
}

// busyInterval is the union of overlapping or adjacent commitments. It keeps
// the locations of its first and last located members so travel can be
// estimated into and out of it.
type busyInterval struct {
	start, end time.Time
	firstLoc   models.Location
	hasFirst   bool
	lastLoc    models.Location
	hasLast    bool
}

// mergeBusy folds sorted commitments into non-overlapping busy intervals.
// Overlap should not occur by invariant, but merging is done defensively;
// adjacent intervals merge too.
func mergeBusy(commitments []commitment) []busyInterval {
	var busy []busyInterval
	for _, c := range commitments {
		if len(busy) > 0 && !c.start.After(busy[len(busy)-1].end) {
			last := &busy[len(busy)-1]
			if c.end.After(last.end) {
				last.end = c.end
			}
			if c.hasLoc {
				if !last.hasFirst {
					last.firstLoc = c.location
					last.hasFirst = true
				}
				last.lastLoc = c.location
				last.hasLast = true
			}
			continue
		}
		bi := busyInterval{start: c.start, end: c.end}
		if c.hasLoc {
			bi.firstLoc = c.location
			bi.hasFirst = true
			bi.lastLoc = c.location
			bi.hasLast = true
		}
		busy = append(busy, bi)
	}
	return busy
}

// gap is free time between busy intervals inside the working window. prev and
// next point at the bounding busy intervals, nil at the window edges.
type gap struct {
	start, end time.Time
	prev       *busyInterval
	next       *busyInterval
}

// freeGaps computes the free intervals inside [windowStart, windowEnd) left
// by the busy list.
func freeGaps(busy []busyInterval, windowStart, windowEnd time.Time) []gap {
	var gaps []gap
	cursor := windowStart
	var prev *busyInterval

	for i := range busy {
		b := &busy[i]
		if !b.start.Before(windowEnd) {
			break
		}
		if b.end.Before(windowStart) || !b.end.After(cursor) {
			prev = b
			continue
		}
		if b.start.After(cursor) {
			gaps = append(gaps, gap{start: cursor, end: minTime(b.start, windowEnd), prev: prev, next: b})
		}
		cursor = b.end
		prev = b
	}
	if cursor.Before(windowEnd) {
		gaps = append(gaps, gap{start: cursor, end: windowEnd, prev: prev})
	}
	return gaps
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
