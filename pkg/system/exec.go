package system

import (
	"io"
	"os"

	"spawnchild/pkg/log"
	"spawnchild/pkg/runner"
)

// CommandRunner defines an interface for running commands.
// This allows for mocking in tests.
// Re-exported from pkg/runner so callers only depend on this package.
type CommandRunner = runner.CommandRunner

// Environ returns the environment inherited by launched programs.
var Environ = os.Environ

// NewLiveCommandRunner returns a CommandRunner that launches real processes,
// echoing tapped stream chunks to diagnostics.
func NewLiveCommandRunner(logger log.Logger, diagnostics io.Writer) CommandRunner {
	return &runner.Runner{
		Logger:      logger,
		Diagnostics: diagnostics,
		Environ:     func() []string { return Environ() },
	}
}
