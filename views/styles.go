package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Core colors
var (
	primaryColor    = lipgloss.Color("#39ff14") // Bright digital green
	secondaryColor  = lipgloss.Color("#FFFFFF") // Labels
	accentColor     = lipgloss.Color("#39ff14") // Borders
	highlightColor  = lipgloss.Color("#39ff14") // Values
	warningColor    = lipgloss.Color("#FFD700")
	errorColor      = lipgloss.Color("#FF3131")
	mutedColor      = lipgloss.Color("#444444")
	backgroundColor = lipgloss.Color("#000000")
	boxBgColor      = lipgloss.Color("#000000")

	// Welcome pulse gradient
	pulseColors = []lipgloss.Color{
		lipgloss.Color("#001100"),
		lipgloss.Color("#002200"),
		lipgloss.Color("#003300"),
		lipgloss.Color("#39ff14"),
		lipgloss.Color("#39ff14"),
		lipgloss.Color("#39ff14"),
		lipgloss.Color("#003300"),
		lipgloss.Color("#002200"),
	}
)

// Styles holds all the application styles
type Styles struct {
	Banner     lipgloss.Style
	Box        lipgloss.Style
	Info       lipgloss.Style
	InfoLabel  lipgloss.Style
	Help       lipgloss.Style
	DialogBox  lipgloss.Style
	Selected   lipgloss.Style
	DialogText lipgloss.Style
	KeyStyle   lipgloss.Style
	DescStyle  lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
}

// NewStyles creates a new Styles instance
func NewStyles() *Styles {
	s := &Styles{}

	s.Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(backgroundColor)

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(2, 4).
		Background(boxBgColor).
		Width(50)

	s.Info = lipgloss.NewStyle().
		Foreground(highlightColor).
		Bold(true)

	s.InfoLabel = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Width(15).
		Align(lipgloss.Right)

	s.Help = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Background(boxBgColor).
		Padding(0, 4).
		Align(lipgloss.Center)

	s.DialogBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Background(boxBgColor).
		Width(60).
		Align(lipgloss.Center)

	s.Selected = lipgloss.NewStyle().
		Foreground(primaryColor).
		Background(boxBgColor).
		Bold(true)

	s.DialogText = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Background(boxBgColor)

	s.KeyStyle = lipgloss.NewStyle().
		Foreground(primaryColor)

	s.DescStyle = lipgloss.NewStyle().
		Foreground(secondaryColor)

	s.Label = lipgloss.NewStyle().
		Width(14).
		Align(lipgloss.Right).
		Foreground(primaryColor)

	s.Value = lipgloss.NewStyle().
		Foreground(secondaryColor)

	s.Warning = lipgloss.NewStyle().
		Foreground(warningColor)

	s.Error = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true)

	s.Success = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	return s
}

// RenderBanner creates the standard banner
func (s *Styles) RenderBanner() string {
	banner := []string{
		"───────────────── NetSwitch ─────────────────",
		lipgloss.NewStyle().Foreground(secondaryColor).Render("Network Profile Switcher"),
		"─────────────────────────────────────────────",
	}

	bannerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(backgroundColor).
		Width(50).
		MarginBottom(1).
		Align(lipgloss.Center)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		bannerStyle.Render(banner[0]),
		bannerStyle.Render(banner[1]),
		bannerStyle.Render(banner[2]),
	)
}

// field renders one "label  value" row.
func (s *Styles) field(label, value string) string {
	if value == "" {
		value = "-"
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		s.Label.Render(label),
		"  ",
		s.Value.Render(value),
	)
}

// keyHelp renders "key desc • key desc".
func (s *Styles) keyHelp(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.KeyStyle.Render(pairs[i])+s.DescStyle.Render(" "+pairs[i+1]))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// place centers content on the screen.
func place(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
