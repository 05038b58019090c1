package executor

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/ksyq12/sitectl/internal/errors"
)

// Command describes one external command invocation.
// Arguments are passed as argv and never through a shell.
type Command struct {
	Name       string
	Args       []string
	Stdin      []byte
	Privileged bool // run through the escalation prefix (sudo)
}

// String renders the command line the way an operator would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+2)
	if c.Privileged && !isRoot() {
		parts = append(parts, escalation...)
	}
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// Output holds the captured streams of a finished command.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// CommandExecutor is an interface for executing system commands
type CommandExecutor interface {
	// Run executes cmd and waits for it to finish. A non-zero exit
	// returns an execution error carrying the command line.
	Run(cmd Command) (Output, error)

	// LookPath searches for an executable in the directories named by the PATH
	LookPath(file string) (string, error)
}

// escalation is prepended to privileged commands when not already root.
var escalation = []string{"sudo"}

// isRoot is replaceable in tests.
var isRoot = func() bool { return os.Geteuid() == 0 }

// SystemExecutor implements CommandExecutor using os/exec
type SystemExecutor struct{}

// NewSystemExecutor creates a new SystemExecutor
func NewSystemExecutor() *SystemExecutor {
	return &SystemExecutor{}
}

// Run executes the command, escalating it when requested.
func (e *SystemExecutor) Run(c Command) (Output, error) {
	name, args := c.Name, c.Args
	if c.Privileged && !isRoot() {
		name = escalation[0]
		args = append(append(append([]string{}, escalation[1:]...), c.Name), c.Args...)
	}

	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = stdout.String()
		}
		return out, errors.Execution(c.String(), msg, err)
	}
	return out, nil
}

// LookPath searches for an executable
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// quoteArg single-quotes arguments that a shell would split or expand.
func quoteArg(a string) string {
	if a == "" {
		return "''"
	}
	if !strings.ContainsAny(a, " \t\n'\"$`\\|&;<>()*?[]{}!#~") {
		return a
	}
	return "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
}

// MockExecutor is a mock implementation for testing
type MockExecutor struct {
	RunFunc      func(cmd Command) (Output, error)
	LookPathFunc func(file string) (string, error)
	Calls        []Command
}

// Run records the call and invokes the mock function if set
func (m *MockExecutor) Run(cmd Command) (Output, error) {
	m.Calls = append(m.Calls, cmd)
	if m.RunFunc != nil {
		return m.RunFunc(cmd)
	}
	return Output{}, nil
}

// LookPath calls the mock function
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// CallNames returns "name arg..." for each recorded call, in order.
func (m *MockExecutor) CallNames() []string {
	names := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		names[i] = strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
	}
	return names
}
