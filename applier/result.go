package applier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ramborogers/netswitch/logging"
)

// Resolution and dispatch errors.
var (
	ErrInterfaceNotFound   = errors.New("interface not found")
	ErrUnsupportedPlatform = errors.New("unsupported operating system")
)

// Step records one attempted external command or file write.
type Step struct {
	Name     string   `json:"name"`
	Command  []string `json:"command"`
	Output   string   `json:"output,omitempty"`
	Error    string   `json:"error,omitempty"`
	Advisory bool     `json:"advisory,omitempty"`
}

// Failed reports whether the step returned an error.
func (s Step) Failed() bool {
	return s.Error != ""
}

// StepError is returned when a command in an apply sequence fails.
type StepError struct {
	Step    string
	Command []string
	Output  string
	Err     error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" && !strings.Contains(msg, out) {
		msg += " (" + out + ")"
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one apply call.
type Result struct {
	Success   bool
	Platform  string
	Interface string
	Err       error
	Warnings  []string
	Notes     []string
	Steps     []Step
}

// Reason returns the fatal error text, or "" on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Commands returns the argv of every attempted step, in order.
func (r Result) Commands() [][]string {
	out := make([][]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, s.Command)
	}
	return out
}

// MarshalJSON renders Err as a string.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success   bool     `json:"success"`
		Platform  string   `json:"platform"`
		Interface string   `json:"interface"`
		Error     string   `json:"error,omitempty"`
		Warnings  []string `json:"warnings,omitempty"`
		Notes     []string `json:"notes,omitempty"`
		Steps     []Step   `json:"steps"`
	}{
		Success:   r.Success,
		Platform:  r.Platform,
		Interface: r.Interface,
		Error:     r.Reason(),
		Warnings:  r.Warnings,
		Notes:     r.Notes,
		Steps:     r.Steps,
	})
}

// run tracks one apply sequence: it executes steps, records them and
// classifies failures as fatal or advisory.
type run struct {
	cmd    CommandExecutor
	log    *logging.Logger
	result Result
}

func newRun(cmd CommandExecutor, log *logging.Logger, platform, iface string) *run {
	return &run{
		cmd: cmd,
		log: log.With("platform", platform, "interface", iface),
		result: Result{
			Platform:  platform,
			Interface: iface,
		},
	}
}

// exec runs one command. A failing advisory step adds a warning; a failing
// fatal step is only returned, the caller aborts with fail.
func (r *run) exec(step string, advisory bool, name string, args ...string) error {
	argv := append([]string{name}, args...)
	r.log.Debug("running step", "step", step, "command", formatCommand(name, args...))

	out, err := r.cmd.RunCommand(name, args...)
	rec := Step{
		Name:     step,
		Command:  argv,
		Output:   strings.TrimSpace(out),
		Advisory: advisory,
	}
	if err == nil {
		r.result.Steps = append(r.result.Steps, rec)
		return nil
	}

	rec.Error = err.Error()
	r.result.Steps = append(r.result.Steps, rec)
	serr := &StepError{Step: step, Command: argv, Output: out, Err: err}
	if advisory {
		r.warn(serr.Error())
	}
	return serr
}

// write records a file replacement as a step.
func (r *run) write(step string, files FileWriter, path string, data []byte) error {
	r.log.Debug("running step", "step", step, "path", path)
	rec := Step{
		Name:    step,
		Command: []string{"write", path},
		Output:  strings.TrimSpace(string(data)),
	}
	if err := files.WriteFile(path, data); err != nil {
		rec.Error = err.Error()
		r.result.Steps = append(r.result.Steps, rec)
		return &StepError{Step: step, Command: rec.Command, Err: err}
	}
	r.result.Steps = append(r.result.Steps, rec)
	return nil
}

func (r *run) warn(msg string) {
	r.log.Warn("advisory step failed", "warning", msg)
	r.result.Warnings = append(r.result.Warnings, msg)
}

func (r *run) note(msg string) {
	r.log.Info(msg)
	r.result.Notes = append(r.result.Notes, msg)
}

func (r *run) fail(err error) Result {
	r.log.Error("apply failed", "error", err)
	r.result.Success = false
	r.result.Err = err
	return r.result
}

func (r *run) succeed() Result {
	r.log.Info("apply finished", "warnings", len(r.result.Warnings))
	r.result.Success = true
	return r.result
}
