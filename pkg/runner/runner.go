// Package runner launches external programs and captures their output.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"spawnchild/pkg/log"

	"github.com/google/uuid"
)

// CommandRunner defines an interface for running commands.
// This allows for mocking in tests.
type CommandRunner interface {
	Run(program string, args []string, env map[string]string, opts Options) (string, error)
}

// Options controls which streams are echoed to the diagnostic sink.
// The zero value echoes nothing.
type Options struct {
	LogStdout bool
	LogStderr bool
}

// Runner executes programs directly, without a shell. A zero Runner is
// ready to use.
type Runner struct {
	// Logger receives lifecycle events. Defaults to a discarding logger.
	Logger log.Logger
	// Diagnostics receives raw stream chunks when Options asks for them.
	// Defaults to os.Stderr.
	Diagnostics io.Writer
	// Environ returns the inherited environment. Defaults to os.Environ.
	Environ func() []string
}

// New returns a Runner logging to logger.
func New(logger log.Logger) *Runner {
	return &Runner{Logger: logger}
}

// Run starts program with args and the inherited environment overlaid by env.
// A bare program name is looked up on the PATH of that merged environment.
// It returns the captured stdout once both output streams have reached EOF
// and the process has exited with status zero.
//
// A program that cannot be started yields a *LaunchError, a failed read on
// either stream a *StreamError, and a non-zero or signaled exit an
// *ExecutionError carrying the captured stderr. Stdout is not returned on
// failure.
func (r *Runner) Run(program string, args []string, env map[string]string, opts Options) (string, error) {
	logger := r.logger().With("run_id", uuid.New().String(), "program", program)

	childEnv := MergeEnv(r.environ(), env)
	path, err := findExecutable(program, childEnv)
	if err != nil {
		logger.Debug("Subprocess failed to start", "error", err)
		return "", &LaunchError{Program: program, Err: err}
	}

	cmd := exec.Command(path, args...)
	cmd.Args[0] = program
	cmd.Env = childEnv

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", &LaunchError{Program: program, Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		stdoutPipe.Close()
		return "", &LaunchError{Program: program, Err: err}
	}

	logger.Debug("Launching subprocess", "args", args, "env_overlay", len(env))
	if err := cmd.Start(); err != nil {
		stdoutPipe.Close()
		stderrPipe.Close()
		logger.Debug("Subprocess failed to start", "error", err)
		return "", &LaunchError{Program: program, Err: err}
	}
	logger.Debug("Subprocess started", "pid", cmd.Process.Pid)

	sink := &lockedWriter{w: r.diagnostics()}
	var stdout, stderr bytes.Buffer
	var stdoutErr, stderrErr error
	var state *os.ProcessState
	var waitErr error

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		stdoutErr = drain(stdoutPipe, &stdout, tapFor(opts.LogStdout, sink))
	}()
	go func() {
		defer wg.Done()
		stderrErr = drain(stderrPipe, &stderr, tapFor(opts.LogStderr, sink))
	}()
	go func() {
		defer wg.Done()
		state, waitErr = cmd.Process.Wait()
	}()
	wg.Wait()

	if stdoutErr != nil {
		return "", &StreamError{Program: program, Stream: StreamStdout, Err: stdoutErr}
	}
	if stderrErr != nil {
		return "", &StreamError{Program: program, Stream: StreamStderr, Err: stderrErr}
	}
	if waitErr != nil {
		return "", fmt.Errorf("waiting for %s: %w", program, waitErr)
	}

	if !state.Success() {
		execErr := &ExecutionError{
			Program:  program,
			ExitCode: state.ExitCode(),
			Stderr:   stderr.String(),
		}
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			execErr.Signal = ws.Signal().String()
		}
		logger.Debug("Subprocess failed", "exit_code", execErr.ExitCode, "signal", execErr.Signal, "stderr_bytes", stderr.Len())
		if opts.LogStderr {
			logger.Error("Subprocess error exit", "exit_code", execErr.ExitCode, "stderr", execErr.Stderr)
		}
		return "", execErr
	}

	logger.Debug("Subprocess exited", "exit_code", 0, "stdout_bytes", stdout.Len(), "stderr_bytes", stderr.Len())
	return stdout.String(), nil
}

func (r *Runner) logger() log.Logger {
	if r.Logger == nil {
		return log.Discard()
	}
	return r.Logger
}

func (r *Runner) diagnostics() io.Writer {
	if r.Diagnostics == nil {
		return os.Stderr
	}
	return r.Diagnostics
}

func (r *Runner) environ() []string {
	if r.Environ == nil {
		return os.Environ()
	}
	return r.Environ()
}

// ExitCode reports the exit code carried by err, if err is an
// *ExecutionError.
func ExitCode(err error) (int, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.ExitCode, true
	}
	return 0, false
}
