// Package extractor materializes framework-embedded web artifacts from
// compiled assemblies into a deterministic output tree. Given an entrypoint
// assembly and the set of assemblies it references, it orders the set so
// dependencies come before dependents, classifies each embedded resource by
// its logical-name prefix, writes recognized resources under a
// collision-safe content directory, and returns the ordered manifest of
// what was written.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/assetlift/assetlift/pkg/assembly"
	"github.com/assetlift/assetlift/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultContentDir is the fixed top-level output folder under which all
// extracted resources are namespaced by owning assembly.
const DefaultContentDir = "_content"

// Resource is one manifest entry: the kind of artifact written and its
// path relative to the output root, always with forward-slash separators
// and never containing a leading separator or traversal segment.
type Resource struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	WebPath string `json:"web_path" yaml:"web_path"`
}

// Options configures an extraction run.
type Options struct {
	// OutputRoot is the directory the content tree is written under. The
	// <OutputRoot>/<ContentDir> subtree is deleted and rebuilt every run.
	OutputRoot string

	// ContentDir overrides DefaultContentDir when non-empty.
	ContentDir string

	// Skip decides whether a referenced assembly path is loaded at all.
	// Defaults to SkipBaseLibraries. Skipping is an optimization, not a
	// correctness requirement.
	Skip func(path string) bool

	// Concurrency bounds per-assembly extraction workers. Values below 2
	// keep the run fully sequential. Manifest order is identical either
	// way: results are slotted by assembly position, and within one
	// assembly resources are always written in enumeration order.
	Concurrency int
}

// Extractor runs the extraction pipeline with a fixed loader and options.
type Extractor struct {
	loader assembly.Loader
	opts   Options
}

// New creates an Extractor. The loader is the external collaborator that
// decodes assembly binaries; the core never parses bytes itself.
func New(loader assembly.Loader, opts Options) *Extractor {
	if opts.ContentDir == "" {
		opts.ContentDir = DefaultContentDir
	}
	if opts.Skip == nil {
		opts.Skip = SkipBaseLibraries
	}
	return &Extractor{loader: loader, opts: opts}
}

// SkipBaseLibraries is the default skip predicate: base-library assemblies
// never carry recognized embedded resources, so loading them is wasted
// work.
func SkipBaseLibraries(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "System.")
}

// Extract runs one extraction: it resets the content tree, loads the
// entrypoint and referenced assemblies, orders the referenced set by the
// dependency-before-dependent rule, writes every recognized resource, and
// returns the accumulated manifest. The entrypoint itself is loaded only to
// establish reference context and is never resource-scanned. On any error
// the run aborts without a manifest; the output tree may be left partially
// written and is rebuilt by the next successful run.
func (e *Extractor) Extract(ctx context.Context, entrypointPath string, referencedPaths []string) ([]Resource, error) {
	contentRoot := filepath.Join(e.opts.OutputRoot, e.opts.ContentDir)
	if err := os.RemoveAll(contentRoot); err != nil {
		return nil, fmt.Errorf("failed to reset content directory %s: %w", contentRoot, err)
	}

	if _, err := e.loader.Load(entrypointPath); err != nil {
		return nil, err
	}

	assemblies := make([]*assembly.Assembly, 0, len(referencedPaths))
	for _, p := range referencedPaths {
		if e.opts.Skip(p) {
			logger.Debug("Skipping assembly", logger.String("path", p))
			continue
		}
		asm, err := e.loader.Load(p)
		if err != nil {
			return nil, err
		}
		assemblies = append(assemblies, asm)
	}

	ordered := orderByReferences(assemblies)

	perAssembly := make([][]Resource, len(ordered))
	if e.opts.Concurrency > 1 {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Concurrency)
		for i, asm := range ordered {
			g.Go(func() error {
				entries, err := e.extractAssembly(asm)
				if err != nil {
					return err
				}
				perAssembly[i] = entries
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, asm := range ordered {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			entries, err := e.extractAssembly(asm)
			if err != nil {
				return nil, err
			}
			perAssembly[i] = entries
		}
	}

	manifest := make([]Resource, 0)
	for _, entries := range perAssembly {
		manifest = append(manifest, entries...)
	}

	logger.Info("Extraction complete",
		logger.Int("assemblies", len(ordered)),
		logger.Int("resources", len(manifest)),
	)

	return manifest, nil
}

// extractAssembly writes every recognized resource of one assembly in
// metadata enumeration order and returns its manifest entries.
func (e *Extractor) extractAssembly(asm *assembly.Assembly) ([]Resource, error) {
	var entries []Resource
	for _, res := range asm.Resources {
		kind, relPath, ok := classify(res.Name)
		if !ok {
			continue
		}
		webPath, err := e.writeResource(asm.Name, relPath, res)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Resource{Kind: kind, WebPath: webPath})
	}
	return entries, nil
}
