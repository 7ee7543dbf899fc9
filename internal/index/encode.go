// Package index renders extraction manifests for downstream consumers:
// machine-readable JSON/YAML/XML encodings, an aligned text table, and the
// HTML index document that loads the extracted artifacts in order.
package index

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/assetlift/assetlift/pkg/extractor"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// EncodeJSON writes the manifest as indented JSON.
func EncodeJSON(w io.Writer, manifest []extractor.Resource) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(manifest)
}

// EncodeYAML writes the manifest as a YAML document.
func EncodeYAML(w io.Writer, manifest []extractor.Resource) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(manifest); err != nil {
		return err
	}
	return enc.Close()
}

var kindTitle = cases.Title(language.English)

// RenderTable writes the manifest as an aligned two-column table. Column
// widths use display width rather than byte length so assembly names
// outside ASCII keep the table aligned.
func RenderTable(w io.Writer, manifest []extractor.Resource) error {
	const kindHeader = "KIND"
	const pathHeader = "WEB PATH"

	kindWidth := runewidth.StringWidth(kindHeader)
	for _, entry := range manifest {
		if w := runewidth.StringWidth(kindLabel(entry.Kind)); w > kindWidth {
			kindWidth = w
		}
	}

	if _, err := fmt.Fprintf(w, "%s  %s\n", pad(kindHeader, kindWidth), pathHeader); err != nil {
		return err
	}
	for _, entry := range manifest {
		if _, err := fmt.Fprintf(w, "%s  %s\n", pad(kindLabel(entry.Kind), kindWidth), entry.WebPath); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n%d resources\n", len(manifest)); err != nil {
		return err
	}
	return nil
}

func kindLabel(kind extractor.Kind) string {
	return kindTitle.String(string(kind))
}

func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
