package test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"spawnchild/pkg/log"
	"spawnchild/pkg/runner"
)

// Invocation records one call to MockCommandRunner.Run.
type Invocation struct {
	Program string
	Args    []string
	Env     map[string]string
	Options runner.Options
}

// Key returns the "program arg1 arg2" form used to look up responses.
func (i Invocation) Key() string {
	return strings.TrimSpace(i.Program + " " + strings.Join(i.Args, " "))
}

// Response is a pre-configured result for a command key.
type Response struct {
	Stdout string
	Err    error
}

// MockCommandRunner is a shared mock implementation of runner.CommandRunner for testing.
// It records invocations and returns configured responses. Safe for concurrent use.
type MockCommandRunner struct {
	mu          sync.Mutex
	Invocations []Invocation
	Responses   map[string][]Response // Queued responses by command key; the last one repeats
}

// NewMockCommandRunner creates a new MockCommandRunner with initialized maps.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Responses: make(map[string][]Response),
	}
}

// Run records the invocation and returns the next configured response for it.
// Unconfigured commands succeed with empty output.
func (r *MockCommandRunner) Run(program string, args []string, env map[string]string, opts runner.Options) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := Invocation{Program: program, Args: args, Env: env, Options: opts}
	r.Invocations = append(r.Invocations, inv)

	queue := r.Responses[inv.Key()]
	if len(queue) == 0 {
		return "", nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		r.Responses[inv.Key()] = queue[1:]
	}
	return resp.Stdout, resp.Err
}

// SetResponse configures stdout for a command key.
func (r *MockCommandRunner) SetResponse(command, stdout string) {
	r.QueueResponse(command, Response{Stdout: stdout})
}

// SetError configures an error for a command key.
func (r *MockCommandRunner) SetError(command string, err error) {
	r.QueueResponse(command, Response{Err: err})
}

// SetExit configures a failing exit with the given code and stderr.
func (r *MockCommandRunner) SetExit(command string, code int, stderr string) {
	program, _, _ := strings.Cut(command, " ")
	r.SetError(command, &runner.ExecutionError{Program: program, ExitCode: code, Stderr: stderr})
}

// QueueResponse appends a response for a command key. Successive calls
// consume the queue in order.
func (r *MockCommandRunner) QueueResponse(command string, resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses[command] = append(r.Responses[command], resp)
}

// Commands returns the keys of all recorded invocations in call order.
func (r *MockCommandRunner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.Invocations))
	for _, inv := range r.Invocations {
		keys = append(keys, inv.Key())
	}
	return keys
}

// Reset clears all recorded invocations and configured responses.
func (r *MockCommandRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Invocations = nil
	r.Responses = make(map[string][]Response)
}

// MockLogger is a shared mock implementation of Logger for testing.
// It captures logged messages for verification.
type MockLogger struct {
	mu       *sync.Mutex
	messages *[]string
	attrs    []any
	Level    slog.Level
}

// NewMockLogger creates a new MockLogger with the specified level.
func NewMockLogger(level slog.Level) *MockLogger {
	return &MockLogger{
		mu:       &sync.Mutex{},
		messages: &[]string{},
		Level:    level,
	}
}

// Debug captures debug messages.
func (l *MockLogger) Debug(msg string, args ...any) {
	if l.Level <= slog.LevelDebug {
		l.captureMessage("DEBUG", msg, args...)
	}
}

// Info captures info messages.
func (l *MockLogger) Info(msg string, args ...any) {
	if l.Level <= slog.LevelInfo {
		l.captureMessage("INFO", msg, args...)
	}
}

// Warn captures warn messages.
func (l *MockLogger) Warn(msg string, args ...any) {
	if l.Level <= slog.LevelWarn {
		l.captureMessage("WARN", msg, args...)
	}
}

// Error captures error messages.
func (l *MockLogger) Error(msg string, args ...any) {
	if l.Level <= slog.LevelError {
		l.captureMessage("ERROR", msg, args...)
	}
}

// With returns a logger sharing this logger's captured messages.
func (l *MockLogger) With(args ...any) log.Logger {
	attrs := append(append([]any{}, l.attrs...), args...)
	return &MockLogger{mu: l.mu, messages: l.messages, attrs: attrs, Level: l.Level}
}

func (l *MockLogger) captureMessage(level, msg string, args ...any) {
	// Simple string formatting for captured messages
	buf := &bytes.Buffer{}
	buf.WriteString(level)
	buf.WriteString(": ")
	buf.WriteString(msg)
	all := append(append([]any{}, l.attrs...), args...)
	for i := 0; i+1 < len(all); i += 2 {
		buf.WriteString(" ")
		buf.WriteString(fmt.Sprint(all[i]))
		buf.WriteString("=")
		buf.WriteString(fmt.Sprintf("%v", all[i+1]))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = append(*l.messages, buf.String())
}

// Messages returns a copy of all captured messages.
func (l *MockLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), *l.messages...)
}

// Reset clears all captured messages.
func (l *MockLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = []string{}
}

// HasMessage checks if any captured message contains the given substring.
func (l *MockLogger) HasMessage(substring string) bool {
	for _, msg := range l.Messages() {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}

// SlogLogger creates a real slog logger for testing (alternative to mock).
func SlogLogger(level slog.Level) log.Logger {
	buf := &bytes.Buffer{}
	return log.NewSlogLogger(level, buf)
}
