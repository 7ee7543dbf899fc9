/*
Copyright © 2025 Assetlift Authors
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/assetlift/assetlift/internal/index"
	"github.com/assetlift/assetlift/pkg/assembly"
	"github.com/assetlift/assetlift/pkg/assembly/cil"
	"github.com/assetlift/assetlift/pkg/config"
	"github.com/assetlift/assetlift/pkg/discover"
	"github.com/assetlift/assetlift/pkg/exitcode"
	"github.com/assetlift/assetlift/pkg/extractor"
	"github.com/assetlift/assetlift/pkg/ignore"
	"github.com/assetlift/assetlift/pkg/logger"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// extractCmd represents the extract command
var extractCmd = newExtractCommand()

// newExtractCommand creates a fresh extract command so tests can run with
// isolated flag state.
func newExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract embedded web assets into an output root",
		Long: `Extract loads the entrypoint assembly and every referenced assembly,
collects their embedded scripts, stylesheets, and static files, and writes
them under <out>/_content/<assembly>/. The manifest of extracted assets is
printed in the selected format.

The _content directory is removed and recreated on every run, so the output
always reflects exactly the current set of assemblies.`,
		RunE: runExtract,
	}
	registerExtractFlags(cmd.Flags())
	return cmd
}

// registerExtractFlags keeps flag registration separate so tests can build
// isolated flag sets.
func registerExtractFlags(flags *pflag.FlagSet) {
	flags.StringP("out", "o", "", "Output root directory (required)")
	flags.String("entrypoint", "", "Path to the entrypoint assembly (required)")
	flags.StringSlice("refs", nil, "Referenced assembly paths or glob patterns")
	flags.String("format", "", "Manifest output format (table|json|yaml|xml|html)")
	flags.String("index", "", "Write an HTML index page referencing extracted assets")
	flags.String("content-dir", "", "Directory name under the output root (default _content)")
	flags.Int("concurrency", 0, "Extract up to N assemblies in parallel (0 or 1 = sequential)")
	flags.Bool("no-ignore", false, "Disable .assetliftignore and built-in skip patterns")
}

func runExtract(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	entrypoint, _ := cmd.Flags().GetString("entrypoint")
	refPatterns, _ := cmd.Flags().GetStringSlice("refs")
	if out == "" {
		return fmt.Errorf("--out is required")
	}
	if entrypoint == "" {
		return fmt.Errorf("--entrypoint is required")
	}

	cfg, err := config.LoadProjectConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyExtractFlags(cmd, cfg)

	refs, err := discover.Assemblies(refPatterns)
	if err != nil {
		return fmt.Errorf("resolving referenced assemblies: %w", err)
	}
	logger.Debug("Resolved referenced assemblies", logger.Int("count", len(refs)))

	skip, err := buildSkipPredicate(cmd, cfg)
	if err != nil {
		return err
	}

	ext := extractor.New(cil.NewLoader(), extractor.Options{
		OutputRoot:  out,
		ContentDir:  cfg.Extract.ContentDir,
		Skip:        skip,
		Concurrency: cfg.Extract.Concurrency,
	})

	manifest, err := ext.Extract(cmd.Context(), entrypoint, refs)
	if err != nil {
		return err
	}

	if indexPath, _ := cmd.Flags().GetString("index"); indexPath != "" {
		if err := writeIndexPage(indexPath, manifest, cfg.Extract.IndexTitle); err != nil {
			return fmt.Errorf("writing index page: %w", err)
		}
		logger.Info("Wrote index page", logger.String("path", indexPath))
	}

	return writeManifest(cmd, cfg, manifest)
}

// applyExtractFlags overlays explicitly set flags onto the loaded config.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("format") {
		cfg.Extract.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("content-dir") {
		cfg.Extract.ContentDir, _ = cmd.Flags().GetString("content-dir")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Extract.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
}

// buildSkipPredicate combines the configured skip patterns, the ignore file
// matcher, and the base-library default into one predicate over assembly
// paths.
func buildSkipPredicate(cmd *cobra.Command, cfg *config.Config) (func(string) bool, error) {
	if noIgnore, _ := cmd.Flags().GetBool("no-ignore"); noIgnore {
		return func(string) bool { return false }, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	matcher, err := ignore.NewMatcher(cwd)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	patterns := cfg.Extract.SkipPatterns
	return func(path string) bool {
		if extractor.SkipBaseLibraries(path) {
			return true
		}
		base := filepath.Base(path)
		for _, pattern := range patterns {
			if ok, err := doublestar.Match(pattern, base); err == nil && ok {
				return true
			}
		}
		return matcher.IsIgnored(path)
	}, nil
}

func writeManifest(cmd *cobra.Command, cfg *config.Config, manifest []extractor.Resource) error {
	out := cmd.OutOrStdout()
	switch cfg.Extract.Format {
	case "", "table":
		return index.RenderTable(out, manifest)
	case "json":
		return index.EncodeJSON(out, manifest)
	case "yaml":
		return index.EncodeYAML(out, manifest)
	case "xml":
		return index.WriteXML(out, manifest)
	case "html":
		return index.WriteHTML(out, manifest, index.HTMLOptions{Title: cfg.Extract.IndexTitle})
	default:
		return fmt.Errorf("unknown manifest format %q (want table, json, yaml, xml, or html)", cfg.Extract.Format)
	}
}

func writeIndexPage(path string, manifest []extractor.Resource, title string) error {
	f, err := os.Create(path) // #nosec G304 -- path comes from the operator's --index flag
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn("Failed to close index page", logger.Err(closeErr))
		}
	}()
	return index.WriteHTML(f, manifest, index.HTMLOptions{Title: title})
}

// exitCodeFor maps well-known failure types to process exit codes.
func exitCodeFor(err error) int {
	var loadErr *assembly.LoadError
	var escapeErr *extractor.PathEscapeError
	switch {
	case errors.As(err, &loadErr):
		return exitcode.LoadError
	case errors.As(err, &escapeErr):
		return exitcode.PathEscapeError
	default:
		return exitcode.GeneralError
	}
}
