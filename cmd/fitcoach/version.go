package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/fitcoach"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fitcoach",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fitcoach version %s\n", strings.TrimSpace(fitcoach.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
