package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/ramborogers/netswitch/applier"
)

// ResultView shows the outcome of an apply and every step it attempted.
type ResultView struct {
	styles        *Styles
	width         int
	height        int
	result        applier.Result
	selectedIndex int
	tableOffset   int
	table         table.Model
}

// NewResultView creates a new result view
func NewResultView(styles *Styles) *ResultView {
	return &ResultView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *ResultView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetResult replaces the displayed result and resets scrolling.
func (v *ResultView) SetResult(res applier.Result) {
	v.result = res
	v.selectedIndex = 0
	v.tableOffset = 0
}

// visibleRows is the number of step rows that fit on screen.
func (v *ResultView) visibleRows() int {
	// banner, status, warnings and help
	reserved := 16 + len(v.result.Warnings) + len(v.result.Notes)
	rows := v.height - reserved
	if rows < 3 {
		rows = 3
	}
	if rows > len(v.result.Steps) {
		rows = len(v.result.Steps)
	}
	return rows
}

// Move shifts the selection by delta rows, scrolling as needed.
func (v *ResultView) Move(delta int) {
	n := len(v.result.Steps)
	if n == 0 {
		return
	}
	v.selectedIndex += delta
	if v.selectedIndex < 0 {
		v.selectedIndex = 0
	}
	if v.selectedIndex >= n {
		v.selectedIndex = n - 1
	}

	visible := v.visibleRows()
	if v.selectedIndex < v.tableOffset {
		v.tableOffset = v.selectedIndex
	}
	if v.selectedIndex >= v.tableOffset+visible {
		v.tableOffset = v.selectedIndex - visible + 1
	}
}

// SelectedStep returns the highlighted step.
func (v *ResultView) SelectedStep() (applier.Step, bool) {
	if v.selectedIndex < 0 || v.selectedIndex >= len(v.result.Steps) {
		return applier.Step{}, false
	}
	return v.result.Steps[v.selectedIndex], true
}

// StepStatus is the status column text for a step.
func StepStatus(s applier.Step) string {
	switch {
	case !s.Failed():
		return "ok"
	case s.Advisory:
		return "warning"
	default:
		return "failed"
	}
}

// Render generates the view
func (v *ResultView) Render() string {
	banner := v.styles.RenderBanner()

	var status string
	if v.result.Success {
		msg := "Network configuration applied to " + v.result.Interface
		if len(v.result.Warnings) > 0 {
			msg += " with warnings"
		}
		status = v.styles.Success.Render(msg)
	} else {
		status = v.styles.Error.Render("Network configuration failed: " + v.result.Reason())
	}

	var extra []string
	for _, w := range v.result.Warnings {
		extra = append(extra, v.styles.Warning.Render("! "+shorten(w, 90)))
	}
	for _, n := range v.result.Notes {
		extra = append(extra, v.styles.DescStyle.Render("· "+shorten(n, 90)))
	}

	visible := v.visibleRows()
	steps := v.result.Steps
	start := v.tableOffset
	end := start + visible
	if end > len(steps) {
		end = len(steps)
	}

	var rows []table.Row
	for _, s := range steps[start:end] {
		rows = append(rows, table.Row{
			s.Name,
			shorten(strings.Join(s.Command, " "), 60),
			StepStatus(s),
		})
	}

	columns := []table.Column{
		{Title: "Step", Width: 24},
		{Title: "Command", Width: 62},
		{Title: "Status", Width: 9},
	}

	tableStyle := table.Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Align(lipgloss.Left),
		Selected: lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Align(lipgloss.Left),
		Cell: lipgloss.NewStyle().
			Foreground(secondaryColor).
			Align(lipgloss.Left),
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(visible),
		table.WithStyles(tableStyle),
	)
	if cursor := v.selectedIndex - v.tableOffset; cursor >= 0 && cursor < len(rows) {
		t.SetCursor(cursor)
	}
	v.table = t

	tableView := v.table.View()
	if v.tableOffset > 0 {
		tableView = v.styles.Info.Render("▲") + "\n" + tableView
	}
	if v.tableOffset+visible < len(steps) {
		tableView = tableView + "\n" + v.styles.Info.Render("▼")
	}
	if len(steps) == 0 {
		tableView = v.styles.DescStyle.Render("No commands were run.")
	}

	parts := []string{banner, status}
	parts = append(parts, extra...)
	parts = append(parts, "", tableView,
		v.styles.keyHelp("↑↓", "Select", "↵", "Details", "r", "Profiles", "q", "Quit"))

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Center, parts...))
}

// shorten cuts s to at most width terminal cells, ending in "...".
func shorten(s string, width int) string {
	return truncate.StringWithTail(s, uint(width), "...")
}
