package index

import (
	"fmt"
	"io"

	"github.com/assetlift/assetlift/internal/assets"
	"github.com/assetlift/assetlift/pkg/extractor"
	"github.com/aymerick/raymond"
)

// HTMLOptions configures the generated index document.
type HTMLOptions struct {
	// Title is the document title. Defaults to "assetlift".
	Title string
}

// WriteHTML renders the embedded index template with the manifest's
// stylesheets and scripts in manifest order, so a dependency's artifacts
// load before its dependents'.
func WriteHTML(w io.Writer, manifest []extractor.Resource, opts HTMLOptions) error {
	tpl, ok := assets.GetIndexTemplate()
	if !ok {
		return fmt.Errorf("embedded index template is missing")
	}

	title := opts.Title
	if title == "" {
		title = "assetlift"
	}

	var stylesheets, scripts []string
	for _, entry := range manifest {
		switch entry.Kind {
		case extractor.Stylesheet:
			stylesheets = append(stylesheets, entry.WebPath)
		case extractor.Script:
			scripts = append(scripts, entry.WebPath)
		}
	}

	out, err := raymond.Render(tpl, map[string]interface{}{
		"title":       title,
		"stylesheets": stylesheets,
		"scripts":     scripts,
	})
	if err != nil {
		return fmt.Errorf("failed to render index template: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}
