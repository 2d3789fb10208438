package views

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// WelcomeView handles the welcome screen
type WelcomeView struct {
	styles     *Styles
	width      int
	height     int
	frame      int
	version    string
	configPath string
	profiles   int
	dryRun     bool
}

// NewWelcomeView creates a new welcome view
func NewWelcomeView(styles *Styles, version string) *WelcomeView {
	return &WelcomeView{
		styles:  styles,
		version: version,
	}
}

// SetDimensions updates the view dimensions
func (v *WelcomeView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetFrame updates the animation frame
func (v *WelcomeView) SetFrame(frame int) {
	v.frame = frame
}

// SetConfig records which profile file is loaded and how many users it holds.
func (v *WelcomeView) SetConfig(path string, profiles int) {
	v.configPath = path
	v.profiles = profiles
}

// SetDryRun marks the session as not touching the system.
func (v *WelcomeView) SetDryRun(dryRun bool) {
	v.dryRun = dryRun
}

// Render generates the view
func (v *WelcomeView) Render() string {
	banner := v.styles.RenderBanner()
	pulse := v.renderPulse()

	mode := "live"
	if v.dryRun {
		mode = "dry run"
	}
	sysInfo := []string{
		v.formatInfoLine("Version", v.version),
		v.formatInfoLine("OS", runtime.GOOS),
		v.formatInfoLine("Architecture", runtime.GOARCH),
		v.formatInfoLine("Profiles", fmt.Sprintf("%d", v.profiles)),
		v.formatInfoLine("Config", filepath.Base(v.configPath)),
		v.formatInfoLine("Mode", mode),
	}

	infoBox := v.styles.Box.Copy().Padding(0, 1).Align(lipgloss.Center).Render(strings.Join(sysInfo, "\n"))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		banner,
		"\n",
		pulse,
		"\n",
		infoBox,
	)

	return place(v.width, v.height, content)
}

func (v *WelcomeView) formatInfoLine(label, value string) string {
	const labelWidth, valueWidth = 15, 16

	if len(value) > valueWidth {
		value = value[:valueWidth-3] + "..."
	}

	paddedLabel := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Align(lipgloss.Right).
		Width(labelWidth).
		Render(label + ":")

	paddedValue := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Align(lipgloss.Left).
		Width(valueWidth).
		Render(value)

	return lipgloss.JoinHorizontal(lipgloss.Left, paddedLabel, " ", paddedValue)
}

// renderPulse draws the animated bar with rolling brightness.
func (v *WelcomeView) renderPulse() string {
	var coloredParts []string
	barWidth := 24
	peakPos := v.frame % barWidth

	for i := 0; i < barWidth; i++ {
		dist := abs(i - peakPos)
		if dist > barWidth/2 {
			dist = barWidth - dist
		}
		style := lipgloss.NewStyle().Foreground(pulseColors[dist%len(pulseColors)])
		coloredParts = append(coloredParts, style.Render("█"))
	}

	return v.styles.Box.Copy().
		Width(56).
		Padding(0, 1).
		Align(lipgloss.Center).
		Render(
			v.styles.DialogText.Copy().Bold(true).Render("Loading Profiles") + "\n" +
				strings.Join(coloredParts, ""),
		)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
