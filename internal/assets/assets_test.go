package assets

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetConfigSchema(t *testing.T) {
	data, ok := GetConfigSchema()
	if !ok {
		t.Fatal("config schema should be embedded")
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
}

func TestGetIndexTemplate(t *testing.T) {
	tpl, ok := GetIndexTemplate()
	if !ok {
		t.Fatal("index template should be embedded")
	}
	for _, want := range []string{"{{title}}", "{{#each stylesheets}}", "{{#each scripts}}"} {
		if !strings.Contains(tpl, want) {
			t.Errorf("template missing %q", want)
		}
	}
}
