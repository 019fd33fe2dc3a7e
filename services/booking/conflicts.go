package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"
)

// Verdict is the per-occurrence outcome of a batch conflict check.
type Verdict struct {
	Index         int    `json:"occurrence_index"`
	OK            bool   `json:"ok"`
	Reason        string `json:"reason,omitempty"`
	ConflictingID string `json:"conflicting_id,omitempty"`
}

// ConflictDetector batch-checks proposed occurrence windows against a
// walker's existing commitments.
type ConflictDetector interface {
	Detect(ctx context.Context, walkerID string, occs []models.Occurrence) ([]Verdict, error)
}

// DefaultConflictDetector evaluates the whole batch against exactly one range
// fetch: sort once, scan, never one query per occurrence.
type DefaultConflictDetector struct {
	Repo   schedulerRepo.SchedulerRepository
	Buffer time.Duration
}

// Detect returns exactly one verdict per input occurrence, in input order.
// An occurrence conflicts when it overlaps a fetched commitment, violates the
// travel buffer against an adjacent commitment, or collides with an earlier
// occurrence in the same batch.
func (d *DefaultConflictDetector) Detect(ctx context.Context, walkerID string, occs []models.Occurrence) ([]Verdict, error) {
	if len(occs) == 0 {
		return []Verdict{}, nil
	}

	minStart, maxEnd := occs[0].Start, occs[0].End
	for _, o := range occs[1:] {
		if o.Start.Before(minStart) {
			minStart = o.Start
		}
		if o.End.After(maxEnd) {
			maxEnd = o.End
		}
	}
	// Widen by the buffer so adjacency violations at the span edges are seen.
	from := minStart.Add(-d.Buffer)
	to := maxEnd.Add(d.Buffer)

	bookings, err := d.Repo.GetBookingsInRange(ctx, walkerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("conflict detection fetch failed: %w", err)
	}
	blocks, err := d.Repo.GetBlocksInRange(ctx, walkerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("conflict detection fetch failed: %w", err)
	}
	commitments := collectCommitments(bookings, blocks, from, to)

	// Commitments are sorted by start, not end, so a long commitment can
	// hide behind a later-starting short one. maxEndBy[i] is the latest end
	// among commitments[0..i] and bounds the backward scan per occurrence.
	maxEndBy := make([]time.Time, len(commitments))
	for i, c := range commitments {
		maxEndBy[i] = c.end
		if i > 0 && maxEndBy[i-1].After(c.end) {
			maxEndBy[i] = maxEndBy[i-1]
		}
	}

	verdicts := make([]Verdict, len(occs))

	// Evaluate in chronological order so in-batch adjacency is checked
	// against the nearest earlier occurrence that survived.
	order := make([]int, len(occs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return occs[order[a]].Start.Before(occs[order[b]].Start)
	})

	var prevOK = -1 // index (into occs) of the last accepted occurrence
	for _, idx := range order {
		occ := occs[idx]
		v := Verdict{Index: idx, OK: true}

		if reason, cid, hit := d.checkCommitments(commitments, maxEndBy, occ); hit {
			v.OK = false
			v.Reason = reason
			v.ConflictingID = cid
		} else if prevOK >= 0 {
			prev := occs[prevOK]
			switch {
			case prev.End.After(occ.Start):
				v.OK = false
				v.Reason = models.ConflictReasonOverlap
				v.ConflictingID = occurrenceRef(prevOK)
			case occ.Start.Sub(prev.End) < d.Buffer:
				v.OK = false
				v.Reason = models.ConflictReasonTravelBuffer
				v.ConflictingID = occurrenceRef(prevOK)
			}
		}

		if v.OK {
			prevOK = idx
		}
		verdicts[idx] = v
	}

	return verdicts, nil
}

// checkCommitments finds a direct overlap or a travel-buffer violation
// against the start-sorted commitment list. maxEndBy must hold, per index,
// the latest end among the commitments up to and including that index.
func (d *DefaultConflictDetector) checkCommitments(commitments []commitment, maxEndBy []time.Time, occ models.Occurrence) (string, string, bool) {
	// First commitment starting at or after the occurrence end.
	succ := sort.Search(len(commitments), func(i int) bool {
		return !commitments[i].start.Before(occ.End)
	})

	// Buffer against the next commitment; only the nearest start matters.
	bufID := ""
	if succ < len(commitments) {
		if c := commitments[succ]; c.start.Sub(occ.End) < d.Buffer {
			bufID = c.id
		}
	}

	// Walk earlier commitments until everything left ends at least a buffer
	// before the occurrence starts. An overlap is reported over a buffer
	// pinch when both exist.
	for i := succ - 1; i >= 0; i-- {
		if occ.Start.Sub(maxEndBy[i]) >= d.Buffer {
			break
		}
		c := commitments[i]
		if c.end.After(occ.Start) {
			return c.kind, c.id, true
		}
		if bufID == "" && occ.Start.Sub(c.end) < d.Buffer {
			bufID = c.id
		}
	}

	if bufID != "" {
		return models.ConflictReasonTravelBuffer, bufID, true
	}
	return "", "", false
}

func occurrenceRef(idx int) string {
	return fmt.Sprintf("occurrence:%d", idx)
}
