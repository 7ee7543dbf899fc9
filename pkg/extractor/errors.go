package extractor

import "fmt"

// PathEscapeError reports that a resource's embedded relative path would
// resolve outside the output root. This is a security invariant violation
// and is never silently corrected.
type PathEscapeError struct {
	// Assembly is the declared name of the assembly owning the resource.
	Assembly string
	// Path is the embedded relative path that attempted the escape.
	Path string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("resource path %q in assembly %s resolves outside the output root", e.Path, e.Assembly)
}
