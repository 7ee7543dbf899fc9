package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/assetlift/assetlift/pkg/assembly"
	"github.com/assetlift/assetlift/pkg/safeio"
)

// writeResource copies one classified resource to disk under
// <outputRoot>/<contentDir>/<assemblyName>/<relPath> and returns the
// forward-slash web path recorded in the manifest. relPath may use either
// separator since it was embedded on a possibly different OS. Existing
// files are overwritten; the content tree was reset at the start of the
// run, so the same assembly+path pair only occurs once.
func (e *Extractor) writeResource(assemblyName, relPath string, res assembly.Resource) (string, error) {
	// Normalize embedded separators to forward slashes first, then to the
	// host's native separator for the on-disk path.
	slashRel := strings.ReplaceAll(relPath, `\`, "/")
	nativeRel := filepath.FromSlash(slashRel)

	candidate := filepath.Join(e.opts.OutputRoot, e.opts.ContentDir, assemblyName, nativeRel)
	target, err := safeio.EnsureContained(e.opts.OutputRoot, candidate)
	if err != nil {
		if errors.Is(err, safeio.ErrOutsideBase) {
			return "", &PathEscapeError{Assembly: assemblyName, Path: relPath}
		}
		return "", fmt.Errorf("failed to resolve output path for %s: %w", relPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory for %s: %w", relPath, err)
	}

	src, err := res.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open resource %q in assembly %s: %w", res.Name, assemblyName, err)
	}
	defer func() { _ = src.Close() }()

	// #nosec G304 -- target has been verified to be contained within the output root
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	// Downstream consumers (the generated index document) need web-style
	// paths regardless of host OS.
	return path.Join(e.opts.ContentDir, assemblyName, slashRel), nil
}
