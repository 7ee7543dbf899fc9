package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/assetlift/assetlift/internal/assets"
	"github.com/xeipuuv/gojsonschema"
)

// Validate checks the effective configuration against the embedded JSON
// Schema so malformed config files fail before any extraction work starts.
func Validate(cfg *Config) error {
	schemaBytes, ok := assets.GetConfigSchema()
	if !ok {
		return fmt.Errorf("embedded config schema is missing")
	}

	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
