/*
Copyright © 2025 Assetlift Authors
*/
package cmd

import (
	"os"

	"github.com/assetlift/assetlift/pkg/buildinfo"
	"github.com/assetlift/assetlift/pkg/exitcode"
	"github.com/assetlift/assetlift/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// The factory pattern lets tests build isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assetlift",
		Short: "Extract framework-embedded web assets from compiled assemblies",
		Long: `Assetlift pulls scripts, stylesheets, and static files that component
libraries embed in their compiled assemblies and lays them out under a web
root, ready to be served.

Examples:
   assetlift extract --entrypoint app.dll --refs 'bin/*.dll' --out wwwroot
   assetlift extract --entrypoint app.dll --refs 'bin/*.dll' --out wwwroot --index wwwroot/index.html
   assetlift version --extended`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Wire Cobra's built-in --version to the binary version
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("assetlift {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// Called from init() for production; tests can call it on their own trees.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(extractCmd)
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command. Called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "assetlift",
	}

	if err := logger.Initialize(config); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}
