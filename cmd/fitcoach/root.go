package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fitcoach"
	"github.com/aretw0/fitcoach/internal/config"
	"github.com/aretw0/fitcoach/internal/logging"
	"github.com/aretw0/fitcoach/pkg/questionnaire"
)

var rootCmd = &cobra.Command{
	Use:   "fitcoach",
	Short: "fitcoach is a conversational fitness coach",
	Long: `fitcoach walks a person through a short onboarding questionnaire and
turns the answers into a personal workout plan or meal plan.

Run it as an interactive chat, an HTTP service, or an MCP server.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default $FITCOACH_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().String("graph", "", "Path to a custom questionnaire table (YAML)")
}

// runMode selects where a command logs.
type runMode int

const (
	modeInteractive runMode = iota // Quiet unless --log-level is given
	modeService                    // JSON on stdout
	modeTool                       // Configured format on stderr
)

// loadConfig reads the configuration or exits.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg
}

// newLogger builds the logger of a command.
func newLogger(cmd *cobra.Command, cfg *config.Config, mode runMode) *slog.Logger {
	if mode == modeInteractive && !cmd.Flags().Changed("log-level") {
		return logging.NewNop()
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using info\n", err)
	}
	if mode == modeService {
		return logging.NewJSON(os.Stdout, level)
	}
	return logging.NewFormat(cfg.Log.Format, level)
}

// loadEngine reads the --graph table, nil when the flag is unset.
func loadEngine(cmd *cobra.Command, cfg *config.Config) (*questionnaire.Engine, error) {
	path, _ := cmd.Flags().GetString("graph")
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := questionnaire.LoadGraph(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return questionnaire.NewEngine(g, questionnaire.WithInputLimit(cfg.MaxInputSize)), nil
}

// openApp wires the application or exits.
func openApp(cmd *cobra.Command, mode runMode) *fitcoach.App {
	cfg := loadConfig(cmd)
	opts := []fitcoach.Option{fitcoach.WithLogger(newLogger(cmd, cfg, mode))}

	engine, err := loadEngine(cmd, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading questionnaire: %v\n", err)
		os.Exit(1)
	}
	if engine != nil {
		opts = append(opts, fitcoach.WithEngine(engine))
	}

	app, err := fitcoach.New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing fitcoach: %v\n", err)
		os.Exit(1)
	}
	return app
}
