package index

import (
	"io"

	"github.com/assetlift/assetlift/pkg/extractor"
	"github.com/beevik/etree"
)

// WriteXML writes the manifest as an XML asset document in manifest order,
// for build systems that consume XML asset lists rather than JSON.
func WriteXML(w io.Writer, manifest []extractor.Resource) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("StaticAssets")
	for _, entry := range manifest {
		asset := root.CreateElement("Asset")
		asset.CreateAttr("Kind", string(entry.Kind))
		asset.CreateAttr("Path", entry.WebPath)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
