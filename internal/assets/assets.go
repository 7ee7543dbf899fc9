// Package assets carries assetlift's embedded schemas and templates.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_schemas
var Schemas embed.FS

//go:embed embedded_templates
var Templates embed.FS

// ConfigSchemaPath is the embedded path to the configuration JSON Schema.
const ConfigSchemaPath = "embedded_schemas/assetlift-config-v1.json"

// IndexTemplatePath is the embedded path to the HTML index template.
const IndexTemplatePath = "embedded_templates/index.html.hbs"

// GetConfigSchema returns the configuration JSON Schema bytes.
func GetConfigSchema() ([]byte, bool) {
	data, err := fs.ReadFile(Schemas, ConfigSchemaPath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// GetIndexTemplate returns the Handlebars source of the HTML index template.
func GetIndexTemplate() (string, bool) {
	data, err := fs.ReadFile(Templates, IndexTemplatePath)
	if err != nil {
		return "", false
	}
	return string(data), true
}
