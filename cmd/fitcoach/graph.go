package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fitcoach/internal/presentation/graph"
	"github.com/aretw0/fitcoach/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the questionnaire as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the questionnaire. With --subject, the
path the subject took and their current step are highlighted.`,
	Run: func(cmd *cobra.Command, args []string) {
		subject, _ := cmd.Flags().GetString("subject")

		app := openApp(cmd, modeInteractive)
		defer app.Close()

		var overlay *graph.GraphOverlay
		if subject != "" {
			s, err := app.Dispatcher.Session(cmd.Context(), subject)
			switch {
			case errors.Is(err, domain.ErrSessionNotFound):
				fmt.Fprintf(os.Stderr, "No session for '%s', showing the plain graph\n", subject)
			case err != nil:
				fmt.Printf("Error loading session '%s': %v\n", subject, err)
				os.Exit(1)
			default:
				overlay = graph.OverlayFor(s)
			}
		}

		fmt.Print(graph.GenerateMermaid(app.Graph(), overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("subject", "s", "", "Highlight the progress of this subject")
}
