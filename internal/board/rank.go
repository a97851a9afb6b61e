// Package board turns the repair store into a rotating sequence of pages
// for the kiosk display.
package board

import (
	"sort"

	"github.com/repairboard/kioskd/internal/repair"
)

// DefaultPageSize is the number of columns on the status board.
const DefaultPageSize = 4

// RankedEntry is a record and its position in the current rotation.
type RankedEntry struct {
	Rank   int           `json:"rank"`
	Record repair.Record `json:"record"`
}

// Rank orders a snapshot for display:
//  1. completed jobs first, by plate;
//  2. then every other job by estimated finish time, unscheduled last.
//
// The sort is stable, so jobs that compare equal keep snapshot order.
func Rank(records []repair.Record) []RankedEntry {
	sorted := make([]repair.Record, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	out := make([]RankedEntry, len(sorted))
	for i, r := range sorted {
		out[i] = RankedEntry{Rank: i, Record: r}
	}
	return out
}

func less(a, b repair.Record) bool {
	aDone := a.Status == repair.StatusCompleted
	bDone := b.Status == repair.StatusCompleted
	switch {
	case aDone && !bDone:
		return true
	case !aDone && bDone:
		return false
	case aDone && bDone:
		return a.Plate < b.Plate
	}
	return a.EstimatedFinish.Compare(b.EstimatedFinish) < 0
}
