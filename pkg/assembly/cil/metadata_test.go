package cil

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/assetlift/assetlift/pkg/assembly"
)

// metadataBuilder assembles synthetic physical metadata for tests.
type metadataBuilder struct {
	strings []byte // #Strings heap, index 0 is the empty string
}

func newMetadataBuilder() *metadataBuilder {
	return &metadataBuilder{strings: []byte{0}}
}

func (b *metadataBuilder) addString(s string) uint16 {
	index := uint16(len(b.strings))
	b.strings = append(b.strings, s...)
	b.strings = append(b.strings, 0)
	return index
}

func le16(buf []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, v)
}

func le32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func le64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

type refRow struct {
	name uint16
}

type resourceRow struct {
	offset uint32
	name   uint16
	impl   uint16 // coded Implementation value
}

// buildTables encodes a #~ stream holding Assembly, AssemblyRef, and
// ManifestResource rows with all heap and coded indexes at 2 bytes.
func buildTables(asmName uint16, refs []refRow, resources []resourceRow) []byte {
	var buf []byte
	buf = le32(buf, 0)            // reserved
	buf = append(buf, 2, 0, 0, 0) // major, minor, heapSizes, reserved
	valid := uint64(1)<<tableAssembly | uint64(1)<<tableAssemblyRef
	if len(resources) > 0 {
		valid |= uint64(1) << tableManifestResource
	}
	buf = le64(buf, valid)
	buf = le64(buf, 0) // sorted
	buf = le32(buf, 1) // Assembly rows
	buf = le32(buf, uint32(len(refs)))
	if len(resources) > 0 {
		buf = le32(buf, uint32(len(resources)))
	}

	// Assembly: HashAlgId, Version x4, Flags, PublicKey, Name, Culture
	buf = le32(buf, 0x8004)
	for i := 0; i < 4; i++ {
		buf = le16(buf, 1)
	}
	buf = le32(buf, 0)
	buf = le16(buf, 0)       // public key blob
	buf = le16(buf, asmName) // name
	buf = le16(buf, 0)       // culture

	// AssemblyRef: Version x4, Flags, PublicKeyOrToken, Name, Culture, Hash
	for _, ref := range refs {
		for i := 0; i < 4; i++ {
			buf = le16(buf, 1)
		}
		buf = le32(buf, 0)
		buf = le16(buf, 0)
		buf = le16(buf, ref.name)
		buf = le16(buf, 0)
		buf = le16(buf, 0)
	}

	// ManifestResource: Offset, Flags, Name, Implementation
	for _, res := range resources {
		buf = le32(buf, res.offset)
		buf = le32(buf, 1) // public
		buf = le16(buf, res.name)
		buf = le16(buf, res.impl)
	}
	return buf
}

// buildMetadata wraps a #~ stream and the string heap in a BSJB root.
func buildMetadata(tables, strings []byte) []byte {
	version := []byte("v4.0.30319\x00\x00") // padded to 4 bytes
	headerSize := 16 + len(version) + 4 +
		(8 + 4) + // "#~\x00\x00"
		(8 + 12) // "#Strings\x00" padded

	var buf []byte
	buf = le32(buf, metadataSignature)
	buf = le16(buf, 1)
	buf = le16(buf, 1)
	buf = le32(buf, 0)
	buf = le32(buf, uint32(len(version)))
	buf = append(buf, version...)
	buf = le16(buf, 0) // flags
	buf = le16(buf, 2) // stream count

	buf = le32(buf, uint32(headerSize))
	buf = le32(buf, uint32(len(tables)))
	buf = append(buf, "#~\x00\x00"...)

	buf = le32(buf, uint32(headerSize+len(tables)))
	buf = le32(buf, uint32(len(strings)))
	buf = append(buf, "#Strings\x00\x00\x00\x00"...)

	buf = append(buf, tables...)
	buf = append(buf, strings...)
	return buf
}

func TestParseMetadata(t *testing.T) {
	b := newMetadataBuilder()
	asmName := b.addString("Lib.A")
	refB := b.addString("Lib.B")
	refSys := b.addString("System.Runtime")
	resCSS := b.addString("blazor:css:theme.css")
	resExternal := b.addString("satellite.resources")

	tables := buildTables(asmName,
		[]refRow{{name: refB}, {name: refSys}},
		[]resourceRow{
			{offset: 0, name: resCSS, impl: 0},
			// tag 1 (AssemblyRef), index 1: lives in another file
			{offset: 64, name: resExternal, impl: 1<<2 | 1},
		})

	md, err := parseMetadata(buildMetadata(tables, b.strings))
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}

	if md.assemblyName != "Lib.A" {
		t.Errorf("assembly name = %q, want Lib.A", md.assemblyName)
	}
	wantRefs := []string{"Lib.B", "System.Runtime"}
	if len(md.references) != len(wantRefs) {
		t.Fatalf("references = %v, want %v", md.references, wantRefs)
	}
	for i, want := range wantRefs {
		if md.references[i] != want {
			t.Errorf("references[%d] = %q, want %q", i, md.references[i], want)
		}
	}
	if len(md.resources) != 1 {
		t.Fatalf("resources = %+v, want one embedded entry", md.resources)
	}
	if md.resources[0].name != "blazor:css:theme.css" || md.resources[0].offset != 0 {
		t.Errorf("resource = %+v, want blazor:css:theme.css at offset 0", md.resources[0])
	}
}

func TestParseMetadataNoResources(t *testing.T) {
	b := newMetadataBuilder()
	asmName := b.addString("Standalone")
	tables := buildTables(asmName, nil, nil)

	md, err := parseMetadata(buildMetadata(tables, b.strings))
	if err != nil {
		t.Fatalf("parseMetadata: %v", err)
	}
	if md.assemblyName != "Standalone" {
		t.Errorf("assembly name = %q, want Standalone", md.assemblyName)
	}
	if len(md.resources) != 0 {
		t.Errorf("resources = %+v, want none", md.resources)
	}
}

func TestParseMetadataRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad signature", le32(nil, 0xDEADBEEF)},
		{"truncated root", le32(nil, metadataSignature)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseMetadata(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCodedSizeThreshold(t *testing.T) {
	ts := &tableStream{}
	if got := ts.codedSize(codedImplementation); got != 2 {
		t.Errorf("codedSize with empty tables = %d, want 2", got)
	}
	// Implementation has 2 tag bits, so 1<<14 rows forces a wide index.
	ts.rows[tableFile] = 1 << 14
	if got := ts.codedSize(codedImplementation); got != 4 {
		t.Errorf("codedSize with 16384 File rows = %d, want 4", got)
	}
}

func TestStringHeap(t *testing.T) {
	heap := stringHeap("\x00Lib.A\x00theme")

	s, err := heap.get(1)
	if err != nil || s != "Lib.A" {
		t.Errorf("get(1) = %q, %v, want Lib.A", s, err)
	}
	if s, err := heap.get(0); err != nil || s != "" {
		t.Errorf("get(0) = %q, %v, want empty string", s, err)
	}
	if _, err := heap.get(100); err == nil {
		t.Error("out-of-range index: expected error")
	}
	if _, err := heap.get(7); err == nil {
		t.Error("unterminated string: expected error")
	}
}

func TestResourcePayload(t *testing.T) {
	var dir []byte
	dir = le32(dir, 3)
	dir = append(dir, "abc"...)
	dir = le32(dir, 2)
	dir = append(dir, "xy"...)

	got, err := resourcePayload(dir, 0)
	if err != nil || string(got) != "abc" {
		t.Errorf("payload at 0 = %q, %v, want abc", got, err)
	}
	got, err = resourcePayload(dir, 7)
	if err != nil || string(got) != "xy" {
		t.Errorf("payload at 7 = %q, %v, want xy", got, err)
	}
	if _, err := resourcePayload(dir, 100); err == nil {
		t.Error("offset past directory: expected error")
	}
	if _, err := resourcePayload(le32(nil, 1000), 0); err == nil {
		t.Error("length overrunning directory: expected error")
	}
}

func TestLoadRejectsNonAssembly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not a PE image"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()
	_, err := loader.Load(path)
	if err == nil {
		t.Fatal("expected error for non-PE file")
	}
	var loadErr *assembly.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error type = %T, want *assembly.LoadError", err)
	}
	if loadErr.Path != path {
		t.Errorf("LoadError.Path = %q, want %q", loadErr.Path, path)
	}
}
