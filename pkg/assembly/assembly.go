// Package assembly defines the read-only view of a compiled assembly's
// metadata that the extraction pipeline consumes, and the Loader interface
// that produces such views from files on disk.
package assembly

import (
	"bytes"
	"fmt"
	"io"
)

// Assembly is a read-only view of one loaded assembly. It carries exactly
// the metadata the extraction pipeline needs: the assembly's own declared
// name, its embedded resources, and the names of the assemblies it
// references. Instances live for the duration of one extraction run and are
// never mutated after loading.
type Assembly struct {
	// Name is the assembly's declared name, unique within one run.
	Name string

	// References lists the declared names of directly referenced assemblies.
	References []string

	// Resources lists the embedded resources in metadata enumeration order.
	Resources []Resource
}

// ReferencesAssembly reports whether a directly references the assembly
// named name.
func (a *Assembly) ReferencesAssembly(name string) bool {
	for _, ref := range a.References {
		if ref == name {
			return true
		}
	}
	return false
}

// Resource is a single embedded resource: an opaque logical name plus a
// byte stream of its content. The content is consumed at most once per run.
type Resource struct {
	// Name is the logical name as stored in assembly metadata.
	Name string

	open func() (io.ReadCloser, error)
}

// NewResource builds a Resource whose content is produced on demand by open.
func NewResource(name string, open func() (io.ReadCloser, error)) Resource {
	return Resource{Name: name, open: open}
}

// BytesResource builds a Resource backed by an in-memory byte slice.
func BytesResource(name string, data []byte) Resource {
	return Resource{
		Name: name,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a reader over the resource content. Callers own the returned
// reader and must close it.
func (r Resource) Open() (io.ReadCloser, error) {
	if r.open == nil {
		return nil, fmt.Errorf("resource %q has no content", r.Name)
	}
	return r.open()
}

// Loader produces an Assembly view from a file path. Implementations must
// return a *LoadError when the file cannot be decoded as an assembly.
type Loader interface {
	Load(path string) (*Assembly, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(path string) (*Assembly, error)

// Load implements Loader.
func (f LoaderFunc) Load(path string) (*Assembly, error) {
	return f(path)
}

// LoadError reports that a file could not be decoded as an assembly.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load assembly %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
