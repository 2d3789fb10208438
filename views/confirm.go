package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ramborogers/netswitch/applier"
)

// ConfirmView asks before a profile is pushed onto an interface.
type ConfirmView struct {
	styles     *Styles
	width      int
	height     int
	department string
	user       string
	iface      string
	profile    applier.Profile
	problem    error
}

// NewConfirmView creates a new confirmation view
func NewConfirmView(styles *Styles) *ConfirmView {
	return &ConfirmView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *ConfirmView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetTarget updates what is about to be applied.
func (v *ConfirmView) SetTarget(department, user, iface string, p applier.Profile) {
	v.department = department
	v.user = user
	v.iface = iface
	v.profile = p
	v.problem = p.Validate()
}

// CanApply reports whether the profile passed validation.
func (v *ConfirmView) CanApply() bool {
	return v.problem == nil
}

// Render generates the view
func (v *ConfirmView) Render() string {
	banner := v.styles.RenderBanner()

	var content strings.Builder
	content.WriteString(v.styles.DialogText.Copy().Bold(true).Render("Apply Network Profile"))
	content.WriteString("\n\n")
	content.WriteString(v.styles.DialogText.Render("Apply " + v.department + " / " + v.user + " to interface:"))
	content.WriteString("\n")
	content.WriteString(v.styles.Info.Render(v.iface))
	content.WriteString("\n\n")

	p := v.profile
	fields := lipgloss.JoinVertical(
		lipgloss.Left,
		v.styles.field("IP Address", p.IPAddress),
		v.styles.field("Subnet Mask", p.SubnetMask),
		v.styles.field("Gateway", p.Gateway),
		v.styles.field("DNS", p.PrimaryDNS),
		v.styles.field("Secondary DNS", p.SecondaryDNS),
		v.styles.field("MAC Address", p.MACAddress),
	)
	content.WriteString(lipgloss.NewStyle().Align(lipgloss.Left).Render(fields))
	content.WriteString("\n\n")

	var help string
	if v.problem != nil {
		content.WriteString(v.styles.Warning.Render("Please make sure all settings are filled in."))
		content.WriteString("\n")
		content.WriteString(v.styles.Warning.Render(v.problem.Error()))
		content.WriteString("\n\n")
		help = v.styles.keyHelp("esc", "Back")
	} else {
		help = v.styles.keyHelp("↵", "Apply", "esc", "Cancel")
	}
	content.WriteString(help)

	dialog := v.styles.DialogBox.Render(content.String())

	return place(v.width, v.height, lipgloss.JoinVertical(lipgloss.Center, banner, "\n", dialog))
}
