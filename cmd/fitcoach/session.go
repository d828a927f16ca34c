package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/persistence/middleware"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove the sessions kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(cmd, modeInteractive)
		defer app.Close()

		subjects, err := app.Manager.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(subjects) == 0 {
			fmt.Println("No sessions found.")
			return
		}

		fmt.Println("Sessions:")
		for _, subject := range subjects {
			s, err := app.Dispatcher.Session(cmd.Context(), subject)
			if err != nil {
				fmt.Printf("- %s (unreadable: %v)\n", subject, err)
				continue
			}
			fmt.Printf("- %s\t%s\tupdated %s\n", subject, s.State, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <subject>",
	Short: "Inspect the state of a session",
	Long:  `Prints the session as JSON. Personal answers are masked unless --raw is given.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		subject := args[0]
		raw, _ := cmd.Flags().GetBool("raw")

		app := openApp(cmd, modeInteractive)
		defer app.Close()

		var (
			s   *domain.Session
			err error
		)
		err = app.Dispatcher.WithSubject(cmd.Context(), subject, func(ctx context.Context) error {
			store := app.Store
			if !raw {
				pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
				if err != nil {
					return err
				}
				store = middleware.Chain(store, pii)
			}
			s, err = store.Load(ctx, subject)
			return err
		})
		if errors.Is(err, domain.ErrSessionNotFound) {
			fmt.Printf("No session for '%s'\n", subject)
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", subject, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling session: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <subject>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(cmd, modeInteractive)
		defer app.Close()
		hasError := false

		for _, subject := range args {
			if err := app.Manager.Delete(cmd.Context(), subject); err != nil {
				fmt.Printf("Error removing '%s': %v\n", subject, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", subject)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("raw", false, "Show personal answers unmasked")
}
