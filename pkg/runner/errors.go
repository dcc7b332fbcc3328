package runner

import "fmt"

// Stream names one of the two captured output streams.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// LaunchError means the program could not be started at all.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExecutionError means the program ran and ended with a non-zero status or
// was killed by a signal. ExitCode is -1 for signaled exits.
type ExecutionError struct {
	Program  string
	ExitCode int
	Signal   string
	Stderr   string
}

// Error returns the captured stderr verbatim.
func (e *ExecutionError) Error() string {
	return e.Stderr
}

// Describe summarizes the failure without the stderr payload.
func (e *ExecutionError) Describe() string {
	if e.Signal != "" {
		return fmt.Sprintf("%s terminated by signal: %s", e.Program, e.Signal)
	}
	return fmt.Sprintf("%s exited with code %d", e.Program, e.ExitCode)
}

// StreamError means reading one of the output streams failed for a reason
// other than end of stream.
type StreamError struct {
	Program string
	Stream  Stream
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("reading %s of %s: %v", e.Stream, e.Program, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
