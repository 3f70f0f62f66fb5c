package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/yourusername/winsync/internal/journal"
	"github.com/yourusername/winsync/internal/state"
	"github.com/yourusername/winsync/internal/windowinfo"
)

// PrintWindowInfo prints a snapshot as a property table
func PrintWindowInfo(w io.Writer, info windowinfo.WindowInfo) {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	table.Append("Mode", info.Mode.String())
	table.Append("State", stateColor(string(info.State)))
	table.Append("Last State", string(info.LastState))
	table.Append("Size", info.Size.String())
	table.Append("Minimum Size", info.MinimumSize.String())
	table.Append("Position", fmt.Sprintf("(%d, %d)", info.Position[0], info.Position[1]))
	table.Append("Resizable", yesNo(info.Resizable))

	table.Render()
}

// PrintJournal prints journal entries, newest first
func PrintJournal(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No transitions recorded")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Seq", "Time", "Action", "Detail", "Mode", "State", "Size", "Status")

	for _, e := range entries {
		transition := e.FromState
		if e.ToState != e.FromState {
			transition = e.FromState + " -> " + e.ToState
		}
		table.Append(
			fmt.Sprintf("%d", e.Seq),
			e.At.Format("15:04:05.000"),
			e.Action,
			truncate(e.Detail, 20),
			e.Mode,
			transition,
			e.Size,
			statusColor(e.Status),
		)
	}

	table.Render()

	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(w, "#%d: %s\n", e.Seq, e.Error)
		}
	}
}

// PrintSession prints the persisted session
func PrintSession(w io.Writer, sess *state.Session) {
	s := sess.Snapshot()
	fmt.Fprintf(w, "Session: %s\n", sess.Path())
	fmt.Fprintf(w, "Mode: %s\n", s.Mode)
	fmt.Fprintf(w, "Last State: %s\n", s.LastState)
	if sess.HasEditGeometry() {
		fmt.Fprintf(w, "Edit Size: %s\n", s.EditSize)
		fmt.Fprintf(w, "Edit Minimum Size: %s\n", s.EditMinimumSize)
	}
	fmt.Fprintf(w, "Last Updated: %s\n", s.LastUpdated.Format("2006-01-02 15:04:05"))
}

// Helper functions

func statusColor(status string) string {
	switch status {
	case "ok":
		return color.New(color.FgGreen).Sprint(status)
	case "timed_out":
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}

func stateColor(s string) string {
	if s == "minimized" {
		return color.New(color.Faint).Sprint(s)
	}
	return color.New(color.FgCyan).Sprint(s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
