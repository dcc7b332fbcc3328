package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"spawnchild/pkg/runner"

	"github.com/spf13/cobra"
)

var (
	runEnv       []string
	runLogStdout bool
	runLogStderr bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] [--] PROGRAM [ARGS...]",
	Short: "Runs a program and prints its standard output",
	Long: `The run command launches PROGRAM with ARGS passed verbatim, no shell involved.
The inherited environment is overlaid with every --env KEY=VALUE.

On exit status zero the captured stdout is printed. Otherwise the captured
stderr is printed unchanged and spawnchild exits with the program's exit code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overlay, err := parseEnvOverlay(runEnv)
		if err != nil {
			return err
		}

		program, programArgs := args[0], args[1:]
		opts := runner.Options{LogStdout: runLogStdout, LogStderr: runLogStderr}

		stdout, runErr := commandRunner(cmd).Run(program, programArgs, overlay, opts)

		if jsonOutput {
			return printRunJSON(cmd, program, programArgs, stdout, runErr)
		}

		var execErr *runner.ExecutionError
		if errors.As(runErr, &execErr) {
			fmt.Fprint(cmd.ErrOrStderr(), execErr.Stderr)
			return &exitError{code: statusFor(execErr)}
		}
		if runErr != nil {
			return runErr
		}

		fmt.Fprint(cmd.OutOrStdout(), stdout)
		return nil
	},
}

func printRunJSON(cmd *cobra.Command, program string, args []string, stdout string, runErr error) error {
	result := resultForJSON{Program: program, Args: args, Stdout: stdout}
	if result.Args == nil {
		result.Args = []string{}
	}

	var status error
	var execErr *runner.ExecutionError
	switch {
	case errors.As(runErr, &execErr):
		result.ExitCode = execErr.ExitCode
		result.Signal = execErr.Signal
		result.Stderr = execErr.Stderr
		status = &exitError{code: statusFor(execErr)}
	case runErr != nil:
		result.ExitCode = -1
		result.Error = runErr.Error()
		status = &exitError{code: 1}
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
	return status
}

// statusFor maps a failed run onto the status spawnchild itself exits with.
func statusFor(execErr *runner.ExecutionError) int {
	if execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}

// parseEnvOverlay turns KEY=VALUE flags into an overlay map. Later flags win.
func parseEnvOverlay(entries []string) (map[string]string, error) {
	overlay := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env value %q, expected KEY=VALUE", entry)
		}
		overlay[key] = value
	}
	return overlay, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SetInterspersed(false)
	runCmd.Flags().StringArrayVarP(&runEnv, "env", "e", nil, "Set an environment variable for the program (KEY=VALUE, repeatable)")
	runCmd.Flags().BoolVar(&runLogStdout, "log-stdout", false, "Echo stdout chunks to stderr as they arrive")
	runCmd.Flags().BoolVar(&runLogStderr, "log-stderr", false, "Echo stderr chunks to stderr as they arrive")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result in JSON format")
}
