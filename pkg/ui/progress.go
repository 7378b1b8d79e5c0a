package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// Bar renders current/target as a fixed-width progress bar
func Bar(current, target, width int) string {
	filled := 0
	if target > 0 {
		filled = current * width / target
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, current, target)
}

// JobLine describes how one search term ended
type JobLine struct {
	Class   string
	Term    string
	Count   int
	Target  int
	Aborted bool
	Err     error
}

// PrintJob prints one finished job
func PrintJob(j JobLine) {
	status := Green("[DONE]")
	switch {
	case j.Aborted:
		status = Yellow("[STOPPED: DUPLICATES]")
	case j.Err != nil:
		status = Red("[INCOMPLETE]")
	case j.Count < j.Target:
		status = Yellow("[PARTIAL]")
	}
	fmt.Fprintf(Out, "%s %s %s %s\n", status, Cyan(j.Class), Dim(fmt.Sprintf("%q", j.Term)), Bar(j.Count, j.Target, 20))
}

// SummaryRow is one class in the final summary table
type SummaryRow struct {
	Class  string
	Jobs   int
	Images int
	Target int
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF00FF"))
)

// SummaryTable renders the per-class summary as a bordered table
func SummaryTable(rows []SummaryRow) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("CLASS", "TERMS", "IMAGES", "TARGET", "PROGRESS")

	for _, r := range rows {
		t.Row(r.Class, strconv.Itoa(r.Jobs), strconv.Itoa(r.Images), strconv.Itoa(r.Target), Bar(r.Images, r.Target, 20))
	}

	if colorEnabled {
		t.BorderStyle(borderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
	}
	return t.String()
}

// PrintSummary prints the per-class summary table
func PrintSummary(rows []SummaryRow) {
	PrintHighlight("\n[SCRAPING SUMMARY]")
	fmt.Fprintln(Out, SummaryTable(rows))
}
