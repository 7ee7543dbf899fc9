package extractor

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		logicalName string
		wantKind    Kind
		wantPath    string
		wantOK      bool
	}{
		{"script", "blazor:js:app.js", Script, "app.js", true},
		{"stylesheet", "blazor:css:theme.css", Stylesheet, "theme.css", true},
		{"static file", "blazor:file:fonts/icons.woff2", StaticFile, "fonts/icons.woff2", true},
		{"nested script", "blazor:js:dist/vendor/chart.min.js", Script, "dist/vendor/chart.min.js", true},
		{"backslash path", `blazor:css:styles\site.css`, Stylesheet, `styles\site.css`, true},
		{"empty remainder", "blazor:js:", Script, "", true},
		{"unrelated resource", "SomeOtherResource.resx", "", "", false},
		{"similar but distinct prefix", "blazor:json:data.json", "", "", false},
		{"case sensitive", "Blazor:js:app.js", "", "", false},
		{"empty name", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, relPath, ok := classify(tt.logicalName)
			if ok != tt.wantOK {
				t.Fatalf("classify(%q) ok = %v, want %v", tt.logicalName, ok, tt.wantOK)
			}
			if kind != tt.wantKind || relPath != tt.wantPath {
				t.Errorf("classify(%q) = (%q, %q), want (%q, %q)",
					tt.logicalName, kind, relPath, tt.wantKind, tt.wantPath)
			}
		})
	}
}
