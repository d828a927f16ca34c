package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/aretw0/fitcoach/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat [--subject name]",
	Short: "Talk to the coach in the terminal",
	Long: `Starts an interactive conversation. Progress is stored under the subject
name (default: the current OS user), so an interrupted questionnaire resumes
where it stopped.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		subject, _ := cmd.Flags().GetString("subject")
		if subject == "" && len(args) > 0 {
			subject = args[0]
		}
		if subject == "" {
			subject = defaultSubject()
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		width, _ := cmd.Flags().GetInt("width")

		app := openApp(cmd, modeInteractive)
		defer app.Close()

		err := cli.RunChat(cmd.Context(), app, cli.ChatOptions{
			Subject: subject,
			JSON:    jsonMode,
			Width:   width,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func defaultSubject() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("subject", "s", "", "Whose session to use (default: the OS user)")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Int("width", 0, "Word wrap width of rendered plans")

	// Chat is the default when no command is given.
	rootCmd.Run = chatCmd.Run
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
