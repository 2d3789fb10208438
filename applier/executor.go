package applier

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// CommandExecutor runs an external command with a structured argument list.
type CommandExecutor interface {
	RunCommand(name string, arg ...string) (string, error)
}

// FileWriter replaces the contents of a file.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// Sleeper blocks for d. Tests replace it to avoid real settling delays.
type Sleeper func(d time.Duration)

// DefaultCommandExecutor is the default RealCommandExecutor instance.
var DefaultCommandExecutor CommandExecutor = &RealCommandExecutor{}

// RealCommandExecutor is a concrete implementation of CommandExecutor using os/exec.
type RealCommandExecutor struct{}

// RunCommand runs a command and returns its combined output.
func (r *RealCommandExecutor) RunCommand(name string, arg ...string) (string, error) {
	cmd := exec.Command(name, arg...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command %s %v failed: %w, output: %s", name, arg, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// RealFileWriter writes files directly with os.WriteFile.
type RealFileWriter struct{}

// WriteFile truncates path and writes data to it.
func (RealFileWriter) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// sudoFileWriter stages data in a temp file and installs it with sudo, for
// targets the current user cannot write.
type sudoFileWriter struct {
	cmd CommandExecutor
}

func (w sudoFileWriter) WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp("", "netswitch-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	_, err = w.cmd.RunCommand("sudo", "install", "-m", "0644", tmp.Name(), path)
	return err
}

// DryRunExecutor implements CommandExecutor but only records commands.
type DryRunExecutor struct {
	mu       sync.Mutex
	Commands []string
}

// NewDryRunExecutor creates a new dry run executor.
func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{
		Commands: make([]string, 0),
	}
}

// RunCommand records the command instead of executing it.
func (e *DryRunExecutor) RunCommand(name string, arg ...string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, formatCommand(name, arg...))
	return "", nil
}

// Reset drops all recorded commands.
func (e *DryRunExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = e.Commands[:0]
}

// DryRunFileWriter records file writes.
type DryRunFileWriter struct {
	mu     sync.Mutex
	Writes map[string]string
	Order  []string
}

// WriteFile records the write.
func (w *DryRunFileWriter) WriteFile(path string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Writes == nil {
		w.Writes = make(map[string]string)
	}
	w.Writes[path] = string(data)
	w.Order = append(w.Order, path)
	return nil
}

func formatCommand(name string, arg ...string) string {
	parts := make([]string, 0, len(arg)+1)
	parts = append(parts, name)
	for _, a := range arg {
		if strings.ContainsAny(a, " \t") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
