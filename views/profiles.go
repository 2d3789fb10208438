package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProfilesView renders the department/user tree and the selected profile.
type ProfilesView struct {
	styles   *Styles
	width    int
	height   int
	items    []TreeItem
	selected int
	notice   string
}

// NewProfilesView creates a new profile tree view
func NewProfilesView(styles *Styles) *ProfilesView {
	return &ProfilesView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *ProfilesView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetItems updates the tree rows.
func (v *ProfilesView) SetItems(items []TreeItem) {
	v.items = items
}

// SetSelectedIndex updates the highlighted row.
func (v *ProfilesView) SetSelectedIndex(index int) {
	v.selected = index
}

// SetNotice shows a one-line message under the tree, such as a reload error.
func (v *ProfilesView) SetNotice(notice string) {
	v.notice = notice
}

// Render generates the view
func (v *ProfilesView) Render() string {
	banner := v.styles.RenderBanner()

	title := v.styles.DialogText.Copy().
		Bold(true).
		Padding(0, 1).
		Foreground(primaryColor).
		Render("Select Profile")

	var rows []string
	for i, it := range v.items {
		if !it.Selectable() {
			rows = append(rows, v.styles.Info.Render("▾ "+it.Department))
			continue
		}
		if i == v.selected {
			rows = append(rows, v.styles.Selected.Render("  ▶ "+it.User.Name))
		} else {
			rows = append(rows, v.styles.DialogText.Render("    "+it.User.Name))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, v.styles.Warning.Render("No profiles loaded"))
	}
	tree := v.styles.DialogBox.Copy().
		Width(28).
		Align(lipgloss.Left).
		Render(strings.Join(rows, "\n"))

	details := v.renderDetails()

	body := lipgloss.JoinHorizontal(lipgloss.Top, tree, " ", details)

	parts := []string{banner, title, body}
	if v.notice != "" {
		parts = append(parts, v.styles.Warning.Render(v.notice))
	}
	parts = append(parts, v.styles.keyHelp("↑↓", "Select", "↵", "Choose Interface", "q", "Quit"))

	return place(v.width, v.height, lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func (v *ProfilesView) renderDetails() string {
	box := v.styles.DialogBox.Copy().
		BorderForeground(mutedColor).
		Width(44).
		Align(lipgloss.Left)

	if v.selected < 0 || v.selected >= len(v.items) || !v.items[v.selected].Selectable() {
		return box.Render(v.styles.DialogText.Render("No profile selected"))
	}

	it := v.items[v.selected]
	u := it.User
	return box.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		v.styles.Success.Render(it.Department+" / "+u.Name),
		"",
		v.styles.field("IP Address", u.IP),
		v.styles.field("Subnet Mask", u.Netmask),
		v.styles.field("Gateway", u.Gateway),
		v.styles.field("DNS", u.DNS),
		v.styles.field("Secondary DNS", u.SecondaryDNS),
		v.styles.field("MAC Address", u.MAC),
	))
}
