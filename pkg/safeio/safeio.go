// Package safeio provides small path-containment helpers used when writing
// extracted artifacts to disk.
package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase reports that a candidate path resolves outside its base
// directory.
var ErrOutsideBase = errors.New("path is outside base directory")

// EnsureContained resolves candidate to an absolute, canonical path and
// verifies it stays within baseDir. It returns the absolute path on
// success and ErrOutsideBase when the candidate escapes the base, which
// guards against traversal segments smuggled into joined path components.
func EnsureContained(baseDir, candidate string) (string, error) {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.New("failed to resolve base directory")
	}
	candAbs, err := filepath.Abs(candidate)
	if err != nil {
		return "", errors.New("failed to resolve candidate path")
	}

	rel, err := filepath.Rel(baseAbs, candAbs)
	if err != nil {
		return "", errors.New("failed to compute relative path")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideBase
	}

	return candAbs, nil
}

// WriteFileContained writes data to path only if path is contained within
// baseDir, creating parent directories as needed.
func WriteFileContained(baseDir, path string, data []byte) error {
	abs, err := EnsureContained(baseDir, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return err
	}
	// #nosec G304 -- abs has been verified to be contained within baseDir
	return os.WriteFile(abs, data, 0o644)
}
