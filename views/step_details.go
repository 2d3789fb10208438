package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ramborogers/netswitch/applier"
)

// StepDetailsView shows the full command, output and error of one step.
type StepDetailsView struct {
	styles *Styles
	width  int
	height int
	step   applier.Step
}

// NewStepDetailsView creates a new step details view
func NewStepDetailsView(styles *Styles) *StepDetailsView {
	return &StepDetailsView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *StepDetailsView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetStep updates the step being displayed
func (v *StepDetailsView) SetStep(step applier.Step) {
	v.step = step
}

// Render generates the view
func (v *StepDetailsView) Render() string {
	var content strings.Builder

	headerStyle := v.styles.DialogText.Copy().
		Bold(true).
		Foreground(primaryColor)

	blockStyle := v.styles.DialogText.Copy().
		Width(70).
		Align(lipgloss.Left)

	content.WriteString(headerStyle.Render(v.step.Name))
	content.WriteString("\n\n")

	kind := "fatal"
	if v.step.Advisory {
		kind = "advisory"
	}
	content.WriteString(v.styles.field("Status", StepStatus(v.step)))
	content.WriteString("\n")
	content.WriteString(v.styles.field("Kind", kind))
	content.WriteString("\n\n")

	content.WriteString(headerStyle.Render("Command"))
	content.WriteString("\n")
	content.WriteString(blockStyle.Render(strings.Join(v.step.Command, " ")))

	if v.step.Output != "" {
		content.WriteString("\n\n")
		content.WriteString(headerStyle.Render("Output"))
		content.WriteString("\n")
		content.WriteString(blockStyle.Render(v.step.Output))
	}

	if v.step.Error != "" {
		content.WriteString("\n\n")
		content.WriteString(v.styles.Error.Render("Error"))
		content.WriteString("\n")
		content.WriteString(blockStyle.Render(v.step.Error))
	}

	dialog := v.styles.DialogBox.Copy().
		Width(76).
		Align(lipgloss.Left).
		Render(content.String())

	return place(v.width, v.height, lipgloss.JoinVertical(
		lipgloss.Center,
		dialog,
		v.styles.keyHelp("↵/esc", "Back"),
	))
}
