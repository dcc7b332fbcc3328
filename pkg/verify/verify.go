// Package verify runs check suites against real programs and compares what
// they print and how they exit with the suite's expectations.
package verify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spawnchild/pkg/log"
	"spawnchild/pkg/model"
	"spawnchild/pkg/runner"
	"spawnchild/pkg/system"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Verifier executes checks through Runner.
type Verifier struct {
	Runner   runner.CommandRunner
	Logger   log.Logger
	Parallel int // Maximum concurrent checks; values below 1 mean 1
}

// Outcome is the result of one check.
type Outcome struct {
	Name     string        `json:"name"`
	RunID    string        `json:"run_id"`
	Passed   bool          `json:"passed"`
	Failures []string      `json:"failures,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Summary counts outcomes.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Run executes every check of suite and returns the outcomes in suite order.
func (v *Verifier) Run(suite *model.Suite) []Outcome {
	parallel := v.Parallel
	if parallel < 1 {
		parallel = 1
	}

	outcomes := make([]Outcome, len(suite.Checks))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, c := range suite.Checks {
		i, c := i, c
		g.Go(func() error {
			outcomes[i] = v.Check(suite, c)
			return nil
		})
	}
	// Check reports failures in its Outcome, never as an error.
	_ = g.Wait()

	return outcomes
}

// Check executes a single check with the suite's environment.
func (v *Verifier) Check(suite *model.Suite, c model.Check) Outcome {
	runID := uuid.New().String()
	logger := v.logger().With("check", c.Name, "run_id", runID)
	start := time.Now()

	logger.Info("Running check", "program", c.Program)

	env := suite.EffectiveEnv(c)
	opts := runner.Options{LogStdout: c.Log.Stdout, LogStderr: c.Log.Stderr}

	stdout, err := v.Runner.Run(c.Program, c.Args, env, opts)
	failures := evaluate(c.Expect, stdout, err)

	if c.Expect.Deterministic && len(failures) == 0 {
		logger.Debug("Re-running check to compare results")
		again, againErr := v.Runner.Run(c.Program, c.Args, env, opts)
		failures = append(failures, compareRuns(stdout, err, again, againErr)...)
	}

	outcome := Outcome{
		Name:     c.Name,
		RunID:    runID,
		Passed:   len(failures) == 0,
		Failures: failures,
		Duration: time.Since(start),
	}

	if outcome.Passed {
		logger.Info("Check passed", "duration", outcome.Duration)
	} else {
		logger.Warn("Check failed", "failures", len(failures))
	}
	return outcome
}

func (v *Verifier) logger() log.Logger {
	if v.Logger == nil {
		return log.Discard()
	}
	return v.Logger
}

// evaluate compares one invocation result with expect and returns a
// human-readable line for every mismatch.
func evaluate(expect model.Expect, stdout string, err error) []string {
	var failures []string

	if err != nil {
		var execErr *runner.ExecutionError
		if !errors.As(err, &execErr) {
			return []string{err.Error()}
		}
		if execErr.Signal != "" {
			return []string{fmt.Sprintf("terminated by signal %s, expected exit code %d", execErr.Signal, expect.ExitCode)}
		}
		if execErr.ExitCode != expect.ExitCode {
			return []string{fmt.Sprintf("exited with code %d, expected %d; stderr:\n%s", execErr.ExitCode, expect.ExitCode, execErr.Stderr)}
		}
		for _, want := range expect.StderrContains {
			if !strings.Contains(execErr.Stderr, want) {
				failures = append(failures, fmt.Sprintf("stderr does not contain %q", want))
			}
		}
		return failures
	}

	if expect.ExitCode != 0 {
		return []string{fmt.Sprintf("exited with code 0, expected %d", expect.ExitCode)}
	}

	want, hasWant, err := expectedStdout(expect)
	if err != nil {
		failures = append(failures, err.Error())
	} else if hasWant && want != stdout {
		failures = append(failures, "stdout differs from expected:\n"+LineDiff(want, stdout))
	}

	for _, sub := range expect.StdoutContains {
		if !strings.Contains(stdout, sub) {
			failures = append(failures, fmt.Sprintf("stdout does not contain %q", sub))
		}
	}

	return failures
}

func expectedStdout(expect model.Expect) (string, bool, error) {
	if expect.Stdout != nil {
		return *expect.Stdout, true, nil
	}
	if expect.StdoutFile != "" {
		content, err := system.ReadFixture(expect.StdoutFile)
		if err != nil {
			return "", false, err
		}
		return content, true, nil
	}
	return "", false, nil
}

// compareRuns reports a failure when two invocations of the same check did
// not produce the same result.
func compareRuns(firstOut string, firstErr error, secondOut string, secondErr error) []string {
	switch {
	case firstErr == nil && secondErr == nil:
		if firstOut != secondOut {
			return []string{"stdout differs between runs:\n" + LineDiff(firstOut, secondOut)}
		}
	case firstErr != nil && secondErr != nil:
		code1, _ := runner.ExitCode(firstErr)
		code2, _ := runner.ExitCode(secondErr)
		if code1 != code2 {
			return []string{fmt.Sprintf("exit code differs between runs: %d then %d", code1, code2)}
		}
		if firstErr.Error() != secondErr.Error() {
			return []string{"stderr differs between runs:\n" + LineDiff(firstErr.Error(), secondErr.Error())}
		}
	default:
		return []string{fmt.Sprintf("second run disagrees with first: %v then %v", describe(firstErr), describe(secondErr))}
	}
	return nil
}

func describe(err error) string {
	if err == nil {
		return "success"
	}
	var execErr *runner.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Describe()
	}
	return err.Error()
}

// Summarize counts passed and failed outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
