package summary

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/repairboard/kioskd/internal/repair"
)

// ConsoleSink prints each summary to a terminal.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (c *ConsoleSink) Publish(_ context.Context, s Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s %d  %s %d  %s %d\n",
		color.New(color.Bold).Sprint("Board"),
		ColorStatus(repair.StatusCompleted), s.Completed,
		ColorStatus(repair.StatusFinalInspection), s.FinalInspection,
		ColorStatus(repair.StatusInProgress), s.InProgress,
	)
	b.WriteString(s.Listing)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

// ColorStatus returns the status name coloured for a terminal.
func ColorStatus(s repair.Status) string {
	switch s {
	case repair.StatusCompleted:
		return color.New(color.FgGreen).Sprint(s)
	case repair.StatusFinalInspection:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgCyan).Sprint(s)
	}
}
