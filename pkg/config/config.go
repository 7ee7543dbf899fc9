// Package config loads and validates assetlift configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for assetlift
type Config struct {
	Extract ExtractConfig `mapstructure:"extract" json:"extract"`
}

// ExtractConfig holds extraction configuration
type ExtractConfig struct {
	// ContentDir is the top-level output folder extracted resources are
	// namespaced under.
	ContentDir string `mapstructure:"content_dir" json:"content_dir"`
	// SkipPatterns are glob patterns matched against assembly file names;
	// matching assemblies are never loaded.
	SkipPatterns []string `mapstructure:"skip_patterns" json:"skip_patterns"`
	// Concurrency bounds per-assembly extraction workers; values below 2
	// keep extraction sequential.
	Concurrency int `mapstructure:"concurrency" json:"concurrency"`
	// Format selects the manifest listing format for the extract command.
	Format string `mapstructure:"format" json:"format"`
	// IndexTitle is the document title used when generating the HTML index.
	IndexTitle string `mapstructure:"index_title" json:"index_title"`
}

var defaultConfig = Config{
	Extract: ExtractConfig{
		ContentDir:   "_content",
		SkipPatterns: []string{"System.*"},
		Concurrency:  0,
		Format:       "table",
		IndexTitle:   "assetlift",
	},
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("extract.content_dir", defaultConfig.Extract.ContentDir)
	v.SetDefault("extract.skip_patterns", defaultConfig.Extract.SkipPatterns)
	v.SetDefault("extract.concurrency", defaultConfig.Extract.Concurrency)
	v.SetDefault("extract.format", defaultConfig.Extract.Format)
	v.SetDefault("extract.index_title", defaultConfig.Extract.IndexTitle)

	// Configuration file search paths
	v.SetConfigName("assetlift")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // Current directory
	v.AddConfigPath("$HOME") // Home directory

	// Environment variables
	v.SetEnvPrefix("ASSETLIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (optional); ignore error to use defaults
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadProjectConfig loads configuration with project-file overrides from
// the working directory.
func LoadProjectConfig() (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	projectConfigs := []string{
		".assetlift.yaml",
		".assetlift.yml",
		"assetlift.yaml",
		"assetlift.yml",
	}

	for _, configFile := range projectConfigs {
		if _, err := os.Stat(configFile); err == nil {
			v := viper.New()
			v.SetConfigFile(configFile)

			if err := v.ReadInConfig(); err != nil {
				continue // Try next config file
			}

			if err := v.Unmarshal(config); err != nil {
				continue
			}

			break
		}
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// GetAssetliftHome returns the assetlift home directory
func GetAssetliftHome() (string, error) {
	if home := os.Getenv("ASSETLIFT_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".assetlift"), nil
}
