package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ramborogers/netswitch/netinfo"
)

// InterfacesView handles the interface selection screen
type InterfacesView struct {
	styles        *Styles
	width         int
	height        int
	platform      string
	interfaces    []string
	details       []netinfo.Interface
	selectedIndex int
	err           error
}

// NewInterfacesView creates a new interfaces view
func NewInterfacesView(styles *Styles) *InterfacesView {
	return &InterfacesView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *InterfacesView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetInterfaces updates the identifiers the applier accepts and the current
// state used for the details box.
func (v *InterfacesView) SetInterfaces(platform string, ids []string, details []netinfo.Interface) {
	v.platform = platform
	v.interfaces = ids
	v.details = details
}

// SetError shows an enumeration failure instead of the list.
func (v *InterfacesView) SetError(err error) {
	v.err = err
}

// SetSelectedIndex updates the selected interface index
func (v *InterfacesView) SetSelectedIndex(index int) {
	v.selectedIndex = index
}

// Render generates the view
func (v *InterfacesView) Render() string {
	banner := v.styles.RenderBanner()

	title := v.styles.DialogText.Copy().
		Bold(true).
		Padding(0, 1).
		Foreground(primaryColor).
		Align(lipgloss.Center).
		Render("Select Network Interface")

	var listContent []string
	switch {
	case v.err != nil:
		listContent = append(listContent, v.styles.Error.Render("Could not list interfaces: "+v.err.Error()))
	case len(v.interfaces) == 0:
		listContent = append(listContent, v.styles.Warning.Render("No interfaces found"))
	}
	for i, id := range v.interfaces {
		item := id
		if d, ok := netinfo.Lookup(v.details, id); ok {
			item = fmt.Sprintf("%s (%s)", id, d.IPAddress)
		}
		if i == v.selectedIndex {
			listContent = append(listContent, v.styles.Selected.Render("▶")+v.styles.DialogText.Render(" "+item))
		} else {
			listContent = append(listContent, v.styles.DialogText.Render("  "+item))
		}
	}

	list := v.styles.DialogBox.Render(strings.Join(listContent, "\n"))

	parts := []string{banner, title, list}
	if details := v.renderDetails(); details != "" {
		parts = append(parts, details)
	}
	parts = append(parts, v.styles.keyHelp("↑↓", "Select", "↵", "Confirm", "r", "Refresh", "esc", "Back"))

	return place(v.width, v.height, lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func (v *InterfacesView) renderDetails() string {
	if v.selectedIndex < 0 || v.selectedIndex >= len(v.interfaces) {
		return ""
	}
	id := v.interfaces[v.selectedIndex]

	rows := []string{
		v.styles.Success.Render("Current Settings"),
		"",
		v.styles.field("Name", id),
		v.styles.field("Platform", v.platform),
	}
	if d, ok := netinfo.Lookup(v.details, id); ok {
		rows = append(rows,
			v.styles.field("IP Address", d.IPAddress+d.CIDR),
			v.styles.field("Subnet Mask", d.SubnetMask),
			v.styles.field("Gateway", d.Gateway),
			v.styles.field("MAC Address", d.MACAddress),
			v.styles.field("Status", map[bool]string{true: "UP", false: "DOWN"}[d.IsUp]),
		)
	} else {
		rows = append(rows, v.styles.field("Status", "no address details"))
	}

	return v.styles.Box.Copy().
		BorderForeground(mutedColor).
		Padding(1, 2).
		Width(60).
		Align(lipgloss.Left).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
