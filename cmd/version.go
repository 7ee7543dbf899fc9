/*
Copyright © 2025 Assetlift Authors
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/assetlift/assetlift/pkg/buildinfo"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = newVersionCommand()

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show assetlift version information",
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build information")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()
	version := buildinfo.BinaryVersion

	if jsonOutput {
		versionInfo := map[string]interface{}{
			"version":   version,
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		if extended {
			versionInfo["moduleVersion"] = buildinfo.ModuleVersion()
			versionInfo["commit"] = buildinfo.Commit()
		}
		jsonData, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	}

	fmt.Fprintf(out, "assetlift %s\n", version)
	if extended {
		fmt.Fprintf(out, "Module version: %s\n", buildinfo.ModuleVersion())
		if commit := buildinfo.Commit(); commit != "" {
			fmt.Fprintf(out, "Commit: %s\n", commit)
		}
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}
	return nil
}
