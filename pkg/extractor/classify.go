package extractor

import "strings"

// Kind classifies an extracted resource.
type Kind string

const (
	// Script is a JavaScript artifact referenced from the generated index.
	Script Kind = "script"
	// Stylesheet is a CSS artifact referenced from the generated index.
	Stylesheet Kind = "stylesheet"
	// StaticFile is any other static artifact served as-is.
	StaticFile Kind = "file"
)

// Logical-name prefixes recognized in assembly metadata. Matching is
// ordinal and case-sensitive; the prefixes are mutually exclusive by
// construction so match order does not matter.
const (
	prefixScript     = "blazor:js:"
	prefixStylesheet = "blazor:css:"
	prefixStaticFile = "blazor:file:"
)

// classify parses a resource logical name into its kind and embedded
// relative path. Names that match none of the recognized prefixes are not
// an error: most embedded resources in arbitrary assemblies (localization
// data, tooling metadata) are irrelevant and must be skipped silently.
func classify(logicalName string) (Kind, string, bool) {
	switch {
	case strings.HasPrefix(logicalName, prefixScript):
		return Script, logicalName[len(prefixScript):], true
	case strings.HasPrefix(logicalName, prefixStylesheet):
		return Stylesheet, logicalName[len(prefixStylesheet):], true
	case strings.HasPrefix(logicalName, prefixStaticFile):
		return StaticFile, logicalName[len(prefixStaticFile):], true
	default:
		return "", "", false
	}
}
