package cmd

import (
	"encoding/json"
	"fmt"

	"spawnchild/pkg/system"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	envOverlay        []string
	envOverriddenOnly bool
)

// envCmd represents the env command
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Prints the environment a program launched by run would receive",
	Long: `The env command merges every --env KEY=VALUE over the inherited environment,
exactly as run does, and prints the result sorted by name in YAML format.
Entries set or replaced by the overlay are marked as overridden.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overlay, err := parseEnvOverlay(envOverlay)
		if err != nil {
			return err
		}

		vars := system.InferEnvironment(overlay)
		if envOverriddenOnly {
			filtered := []system.EnvVar{}
			for _, v := range vars {
				if v.Overridden {
					filtered = append(filtered, v)
				}
			}
			vars = filtered
		}

		if jsonOutput {
			jsonData, err := json.MarshalIndent(vars, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		}

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(vars); err != nil {
			return fmt.Errorf("error marshaling to YAML: %w", err)
		}
		return encoder.Close()
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().StringArrayVarP(&envOverlay, "env", "e", nil, "Overlay an environment variable (KEY=VALUE, repeatable)")
	envCmd.Flags().BoolVar(&envOverriddenOnly, "overridden-only", false, "Only show variables set by the overlay")
	envCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the environment in JSON format")
}
