// Package cil loads ECMA-335 (.NET) assemblies for resource extraction.
//
// The reader stays deliberately shallow: it resolves the CLI header from
// the PE image, parses the compressed metadata stream far enough to recover
// the assembly name, its assembly references, and its embedded manifest
// resources, and leaves everything else (type system, IL, signatures)
// untouched.
package cil

import (
	"debug/pe"
	"encoding/binary"
	"fmt"

	"github.com/assetlift/assetlift/pkg/assembly"
)

// comDescriptorIndex is the data-directory slot of the CLI header
// (IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR).
const comDescriptorIndex = 14

// cliHeaderSize is the size of IMAGE_COR20_HEADER.
const cliHeaderSize = 72

// Loader reads managed PE images from disk. It implements assembly.Loader.
type Loader struct{}

// NewLoader returns a Loader for on-disk ECMA-335 assemblies.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the managed assembly at path. Embedded resource payloads are
// copied into memory so the returned Assembly stays usable after the file
// is closed. Any structural problem surfaces as *assembly.LoadError.
func (l *Loader) Load(path string) (*assembly.Assembly, error) {
	asm, err := loadFile(path)
	if err != nil {
		return nil, &assembly.LoadError{Path: path, Err: err}
	}
	return asm, nil
}

func loadFile(path string) (*assembly.Assembly, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img := &image{file: f}

	metaRVA, metaSize, resRVA, resSize, err := img.cliHeader()
	if err != nil {
		return nil, err
	}

	meta, err := img.read(metaRVA, metaSize)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	md, err := parseMetadata(meta)
	if err != nil {
		return nil, err
	}

	asm := &assembly.Assembly{
		Name:       md.assemblyName,
		References: md.references,
	}

	if len(md.resources) > 0 {
		if resSize == 0 {
			return nil, fmt.Errorf("manifest declares embedded resources but the image has no resources directory")
		}
		resData, err := img.read(resRVA, resSize)
		if err != nil {
			return nil, fmt.Errorf("reading resources directory: %w", err)
		}
		for _, entry := range md.resources {
			payload, err := resourcePayload(resData, entry.offset)
			if err != nil {
				return nil, fmt.Errorf("resource %q: %w", entry.name, err)
			}
			asm.Resources = append(asm.Resources, assembly.BytesResource(entry.name, payload))
		}
	}
	return asm, nil
}

// resourcePayload slices one embedded resource out of the CLI resources
// directory: a little-endian u32 length followed by the payload bytes.
func resourcePayload(resData []byte, offset uint32) ([]byte, error) {
	if int64(offset)+4 > int64(len(resData)) {
		return nil, fmt.Errorf("offset %d outside resources directory", offset)
	}
	length := binary.LittleEndian.Uint32(resData[offset:])
	start := int64(offset) + 4
	end := start + int64(length)
	if end > int64(len(resData)) {
		return nil, fmt.Errorf("payload of %d bytes at offset %d overruns resources directory", length, offset)
	}
	return resData[start:end], nil
}

// image wraps a PE file with RVA-based reads.
type image struct {
	file *pe.File
}

// cliHeader locates IMAGE_COR20_HEADER via data directory 14 and returns
// the metadata and resources directory coordinates.
func (img *image) cliHeader() (metaRVA, metaSize, resRVA, resSize uint32, err error) {
	var dirs []pe.DataDirectory
	switch oh := img.file.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		dirs = oh.DataDirectory[:]
	case *pe.OptionalHeader64:
		dirs = oh.DataDirectory[:]
	default:
		return 0, 0, 0, 0, fmt.Errorf("missing PE optional header")
	}
	if len(dirs) <= comDescriptorIndex || dirs[comDescriptorIndex].VirtualAddress == 0 {
		return 0, 0, 0, 0, fmt.Errorf("not a managed assembly (no CLI header)")
	}
	dir := dirs[comDescriptorIndex]
	if dir.Size < cliHeaderSize {
		return 0, 0, 0, 0, fmt.Errorf("CLI header too small (%d bytes)", dir.Size)
	}
	hdr, err := img.read(dir.VirtualAddress, cliHeaderSize)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("reading CLI header: %w", err)
	}
	metaRVA = binary.LittleEndian.Uint32(hdr[8:])
	metaSize = binary.LittleEndian.Uint32(hdr[12:])
	resRVA = binary.LittleEndian.Uint32(hdr[24:])
	resSize = binary.LittleEndian.Uint32(hdr[28:])
	if metaRVA == 0 || metaSize == 0 {
		return 0, 0, 0, 0, fmt.Errorf("CLI header has no metadata directory")
	}
	return metaRVA, metaSize, resRVA, resSize, nil
}

// read copies size bytes starting at the given RVA. Bytes past a section's
// raw data but within its virtual extent read as zero.
func (img *image) read(rva, size uint32) ([]byte, error) {
	for _, s := range img.file.Sections {
		extent := s.VirtualSize
		if extent == 0 {
			extent = s.Size
		}
		if rva < s.VirtualAddress || rva >= s.VirtualAddress+extent {
			continue
		}
		if rva+size > s.VirtualAddress+extent {
			return nil, fmt.Errorf("read of %d bytes at RVA 0x%X crosses section %q", size, rva, s.Name)
		}
		raw, err := s.Data()
		if err != nil {
			return nil, err
		}
		out := make([]byte, size)
		off := int64(rva - s.VirtualAddress)
		if off < int64(len(raw)) {
			copy(out, raw[off:])
		}
		return out, nil
	}
	return nil, fmt.Errorf("RVA 0x%X is not mapped by any section", rva)
}
