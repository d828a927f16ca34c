package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fitcoach/pkg/questionnaire"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph.yaml]",
	Short: "Check the configuration and the questionnaire for consistency",
	Long: `Loads the configuration and checks the questionnaire graph: every edge must
point to a known step, every step must be reachable, and skipped fields must
belong to the branch they are skipped on. A custom graph file may be given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration and questionnaire are valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Exits on an invalid configuration.
	loadConfig(cmd)

	path, _ := cmd.Flags().GetString("graph")
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		g, err := questionnaire.DefaultGraph()
		if err != nil {
			return err
		}
		return g.Validate()
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := questionnaire.LoadGraph(f)
	if err != nil {
		return err
	}
	return g.Validate()
}
