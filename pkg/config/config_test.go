package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "_content", cfg.Extract.ContentDir)
	assert.Equal(t, []string{"System.*"}, cfg.Extract.SkipPatterns)
	assert.Equal(t, 0, cfg.Extract.Concurrency)
	assert.Equal(t, "table", cfg.Extract.Format)
	assert.Equal(t, "assetlift", cfg.Extract.IndexTitle)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `extract:
  content_dir: assets
  format: json
  concurrency: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assetlift.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "assets", cfg.Extract.ContentDir)
	assert.Equal(t, "json", cfg.Extract.Format)
	assert.Equal(t, 4, cfg.Extract.Concurrency)
	// Untouched keys keep their defaults
	assert.Equal(t, []string{"System.*"}, cfg.Extract.SkipPatterns)
}

func TestLoadProjectConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `extract:
  index_title: My Components
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".assetlift.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := LoadProjectConfig()
	require.NoError(t, err)

	assert.Equal(t, "My Components", cfg.Extract.IndexTitle)
	assert.Equal(t, "_content", cfg.Extract.ContentDir)
}

func TestLoadConfigRejectsInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	content := `extract:
  format: csv
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assetlift.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig
	assert.NoError(t, Validate(&cfg))

	bad := defaultConfig
	bad.Extract.ContentDir = ""
	assert.Error(t, Validate(&bad))

	negative := defaultConfig
	negative.Extract.Concurrency = -1
	assert.Error(t, Validate(&negative))
}

func TestGetAssetliftHome(t *testing.T) {
	t.Setenv("ASSETLIFT_HOME", "/custom/home")
	home, err := GetAssetliftHome()
	require.NoError(t, err)
	assert.Equal(t, "/custom/home", home)

	t.Setenv("ASSETLIFT_HOME", "")
	home, err = GetAssetliftHome()
	require.NoError(t, err)
	assert.Contains(t, home, ".assetlift")
}
