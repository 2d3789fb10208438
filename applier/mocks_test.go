package applier

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a mock implementation of the CommandExecutor interface.
type MockCommandExecutor struct {
	mock.Mock
}

func (m *MockCommandExecutor) RunCommand(name string, arg ...string) (string, error) {
	// Flatten the variadic args so expectations can list argv entries directly.
	argsSlice := make([]interface{}, 0, len(arg)+1)
	argsSlice = append(argsSlice, name)
	for _, a := range arg {
		argsSlice = append(argsSlice, a)
	}

	args := m.Called(argsSlice...)
	return args.String(0), args.Error(1)
}

// scriptedExecutor records every argv and fails the commands whose joined
// argv contains one of the configured substrings.
type scriptedExecutor struct {
	mu       sync.Mutex
	calls    [][]string
	failures map[string]error
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{failures: make(map[string]error)}
}

func (s *scriptedExecutor) failOn(fragment string) *scriptedExecutor {
	s.failures[fragment] = errors.New("exit status 1")
	return s
}

func (s *scriptedExecutor) RunCommand(name string, arg ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	argv := append([]string{name}, arg...)
	s.calls = append(s.calls, argv)

	joined := strings.Join(argv, " ")
	for fragment, err := range s.failures {
		if strings.Contains(joined, fragment) {
			return "simulated failure", err
		}
	}
	return "", nil
}

func (s *scriptedExecutor) joined() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

// fakeAdapters is a fixed AdapterSource.
type fakeAdapters struct {
	list  []Adapter
	err   error
	calls int
}

func (f *fakeAdapters) Adapters() ([]Adapter, error) {
	f.calls++
	return f.list, f.err
}

// sleepRecorder captures requested settling delays.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}
