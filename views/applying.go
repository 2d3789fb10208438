package views

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ApplyingView shows a spinner while the platform commands run.
type ApplyingView struct {
	styles  *Styles
	width   int
	height  int
	iface   string
	user    string
	started time.Time
	spinner spinner.Model
}

// NewApplyingView creates a new applying view
func NewApplyingView(styles *Styles) *ApplyingView {
	return &ApplyingView{
		styles: styles,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(primaryColor)),
		),
	}
}

// SetDimensions updates the view dimensions
func (v *ApplyingView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Start resets the view for a new apply and returns the first spinner tick.
func (v *ApplyingView) Start(user, iface string) tea.Cmd {
	v.user = user
	v.iface = iface
	v.started = time.Now()
	return v.spinner.Tick
}

// Update advances the spinner.
func (v *ApplyingView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return cmd
}

// Render generates the view
func (v *ApplyingView) Render() string {
	banner := v.styles.RenderBanner()

	elapsed := time.Since(v.started).Round(time.Second)
	body := lipgloss.JoinVertical(
		lipgloss.Center,
		v.spinner.View()+" "+v.styles.DialogText.Copy().Bold(true).Render("Applying "+v.user+" to "+v.iface),
		"",
		v.styles.DialogText.Render("The interface may drop its link for a few seconds."),
		v.styles.DescStyle.Render("Elapsed: "+elapsed.String()),
	)

	return place(v.width, v.height, lipgloss.JoinVertical(lipgloss.Center, banner, "\n", v.styles.DialogBox.Render(body)))
}
