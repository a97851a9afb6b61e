// Package summary computes per-status counts and a text listing from the
// board's current rotation, on a cadence independent of the board itself.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/repairboard/kioskd/internal/board"
	"github.com/repairboard/kioskd/internal/repair"
)

const ruleWidth = 50

// Summary is what the monitor hands to its presentation sink.
type Summary struct {
	repair.Counts
	Rotation    uint64    `json:"rotation"`
	Uptime      string    `json:"uptime"`
	Listing     string    `json:"listing"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Compute builds a summary for ranked. It only reads its input.
func Compute(ranked []board.RankedEntry, rotation uint64, uptime time.Duration, now time.Time) Summary {
	var counts repair.Counts
	for _, e := range ranked {
		counts.Add(e.Record.Status)
	}
	return Summary{
		Counts:      counts,
		Rotation:    rotation,
		Uptime:      FormatUptime(uptime),
		Listing:     FormatListing(ranked, uptime),
		GeneratedAt: now,
	}
}

// FormatUptime renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

// FormatListing renders the monitor text: a running-time header, a rule,
// then one line per ranked entry.
func FormatListing(ranked []board.RankedEntry, uptime time.Duration) string {
	var b strings.Builder
	b.WriteString("Running time - ")
	b.WriteString(FormatUptime(uptime))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", ruleWidth))
	b.WriteByte('\n')
	for _, e := range ranked {
		b.WriteString(ListingLine(e))
		b.WriteByte('\n')
	}
	return b.String()
}

func ListingLine(e board.RankedEntry) string {
	r := e.Record
	return fmt.Sprintf("[%d] %s %s - %s (requested: %s, finish: %s)",
		e.Rank, r.Plate, r.Model, r.Status, timeOrNone(r.RequestedTime), timeOrNone(r.EstimatedFinish))
}

func timeOrNone(t repair.TimeOfDay) string {
	if !t.IsSet() {
		return "none"
	}
	return t.String()
}
