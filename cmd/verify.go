package cmd

import (
	"encoding/json"
	"fmt"

	"spawnchild/pkg/config"
	"spawnchild/pkg/verify"

	"github.com/spf13/cobra"
)

var verifyParallel int

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Runs every check of a suite file and reports the results",
	Long: `The verify command loads a check suite (YAML, or TOML for .toml files) and runs
each check's program, comparing its exit code and captured output with the
check's expectations. It fails when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd)

		suite, err := config.LoadSuite(cfgFile, logger)
		if err != nil {
			return err
		}

		v := &verify.Verifier{
			Runner:   commandRunner(cmd),
			Logger:   logger,
			Parallel: verifyParallel,
		}
		outcomes := v.Run(suite)
		summary := verify.Summarize(outcomes)

		if jsonOutput {
			report := reportForJSON{Summary: summary, Outcomes: []outcomeForJSON{}}
			for _, o := range outcomes {
				report.Outcomes = append(report.Outcomes, outcomeForJSON{
					Name:     o.Name,
					RunID:    o.RunID,
					Passed:   o.Passed,
					Failures: o.Failures,
					Duration: o.Duration.String(),
				})
			}
			jsonBytes, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
		} else {
			printOutcomes(cmd.OutOrStdout(), outcomes, summary)
		}

		if summary.Failed > 0 {
			if jsonOutput {
				return &exitError{code: 1}
			}
			return fmt.Errorf("%d of %d checks failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&cfgFile, "config", "./checks.yaml", "suite file to run")
	verifyCmd.Flags().IntVar(&verifyParallel, "parallel", 1, "Maximum number of checks running at once")
	verifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the results in JSON format")
}
