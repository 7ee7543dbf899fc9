package index

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/assetlift/assetlift/pkg/extractor"
	"gopkg.in/yaml.v3"
)

var sampleManifest = []extractor.Resource{
	{Kind: extractor.Stylesheet, WebPath: "_content/Lib.A/theme.css"},
	{Kind: extractor.Script, WebPath: "_content/Lib.B/app.js"},
	{Kind: extractor.StaticFile, WebPath: "_content/Lib.B/fonts/icons.woff2"},
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, sampleManifest); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}

	var decoded []extractor.Resource
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded) != 3 || decoded[0].WebPath != "_content/Lib.A/theme.css" {
		t.Errorf("decoded = %v", decoded)
	}
	if !strings.Contains(buf.String(), `"web_path"`) {
		t.Errorf("expected web_path key:\n%s", buf.String())
	}
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, sampleManifest); err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	var decoded []extractor.Resource
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(decoded) != 3 || decoded[1].Kind != extractor.Script {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, sampleManifest); err != nil {
		t.Fatalf("RenderTable: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"KIND", "WEB PATH", "Stylesheet", "Script", "File", "3 resources"} {
		if !strings.Contains(output, want) {
			t.Errorf("table missing %q:\n%s", want, output)
		}
	}

	// Every row's path column starts at the same offset.
	lines := strings.Split(strings.TrimSpace(output), "\n")
	headerOffset := strings.Index(lines[0], "WEB PATH")
	for _, line := range lines[1:4] {
		if got := strings.Index(line, "_content/"); got != headerOffset {
			t.Errorf("misaligned row (%d != %d): %q", got, headerOffset, line)
		}
	}
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, nil); err != nil {
		t.Fatalf("RenderTable: %v", err)
	}
	if !strings.Contains(buf.String(), "0 resources") {
		t.Errorf("empty table should report zero resources:\n%s", buf.String())
	}
}

func TestPad(t *testing.T) {
	if got := pad("ab", 5); got != "ab   " {
		t.Errorf("pad = %q", got)
	}
	if got := pad("abcdef", 3); got != "abcdef" {
		t.Errorf("pad should never truncate: %q", got)
	}
}
