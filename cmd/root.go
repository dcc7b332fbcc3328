package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"spawnchild/pkg/log"
	"spawnchild/pkg/runner"
	"spawnchild/pkg/system"

	"github.com/spf13/cobra"
)

type loggerKey struct{}

var (
	cfgFile    string
	logLevel   string
	logFormat  string
	jsonOutput bool
	logger     log.Logger
	cmdRunner  system.CommandRunner // nil means launch real processes
	rootCmd    = &cobra.Command{
		Use:   "spawnchild",
		Short: "spawnchild runs external programs and checks what they print",
		Long: `A small harness around external command-line tools. It launches programs
directly (never through a shell), captures stdout and stderr concurrently and
reports success or failure from the exit status.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			format, err := log.ParseFormat(logFormat)
			if err != nil {
				return err
			}
			logger = log.NewSlogLoggerWithFormat(level, format, cmd.ErrOrStderr())
			ctx := context.WithValue(cmd.Context(), loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
	}
)

// exitError carries a process exit status without a message of its own.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints err unless it only carries an exit status, and returns
// the status the process should exit with.
func reportError(w io.Writer, err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if code, ok := runner.ExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}

func loggerFrom(cmd *cobra.Command) log.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(log.Logger); ok {
		return l
	}
	return log.Discard()
}

func commandRunner(cmd *cobra.Command) system.CommandRunner {
	if cmdRunner != nil {
		return cmdRunner
	}
	return system.NewLiveCommandRunner(loggerFrom(cmd), cmd.ErrOrStderr())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}
