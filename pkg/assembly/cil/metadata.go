package cil

import (
	"encoding/binary"
	"fmt"
)

// Physical metadata layout per ECMA-335 §II.24. Only the tables feeding the
// extraction pipeline are decoded (Assembly, AssemblyRef, ManifestResource),
// but row sizes for every compressed-stream table must be known to locate
// them.

const metadataSignature = 0x424A5342 // "BSJB"

// Metadata table numbers.
const (
	tableModule                 = 0x00
	tableTypeRef                = 0x01
	tableTypeDef                = 0x02
	tableFieldPtr               = 0x03
	tableField                  = 0x04
	tableMethodPtr              = 0x05
	tableMethodDef              = 0x06
	tableParamPtr               = 0x07
	tableParam                  = 0x08
	tableInterfaceImpl          = 0x09
	tableMemberRef              = 0x0A
	tableConstant               = 0x0B
	tableCustomAttribute        = 0x0C
	tableFieldMarshal           = 0x0D
	tableDeclSecurity           = 0x0E
	tableClassLayout            = 0x0F
	tableFieldLayout            = 0x10
	tableStandAloneSig          = 0x11
	tableEventMap               = 0x12
	tableEventPtr               = 0x13
	tableEvent                  = 0x14
	tablePropertyMap            = 0x15
	tablePropertyPtr            = 0x16
	tableProperty               = 0x17
	tableMethodSemantics        = 0x18
	tableMethodImpl             = 0x19
	tableModuleRef              = 0x1A
	tableTypeSpec               = 0x1B
	tableImplMap                = 0x1C
	tableFieldRVA               = 0x1D
	tableENCLog                 = 0x1E
	tableENCMap                 = 0x1F
	tableAssembly               = 0x20
	tableAssemblyProcessor      = 0x21
	tableAssemblyOS             = 0x22
	tableAssemblyRef            = 0x23
	tableAssemblyRefProcessor   = 0x24
	tableAssemblyRefOS          = 0x25
	tableFile                   = 0x26
	tableExportedType           = 0x27
	tableManifestResource       = 0x28
	tableNestedClass            = 0x29
	tableGenericParam           = 0x2A
	tableMethodSpec             = 0x2B
	tableGenericParamConstraint = 0x2C

	tableCount = 0x2D
)

// Column kinds for table schemas.
type colKind int

const (
	colU16 colKind = iota
	colU32
	colString
	colGUID
	colBlob
	colIndex
	colCoded
)

type column struct {
	kind  colKind
	table int       // target table for colIndex
	coded codedKind // coded-index family for colCoded
}

func u16() column          { return column{kind: colU16} }
func u32() column          { return column{kind: colU32} }
func str() column          { return column{kind: colString} }
func guid() column         { return column{kind: colGUID} }
func blob() column         { return column{kind: colBlob} }
func idx(t int) column     { return column{kind: colIndex, table: t} }
func cdx(k codedKind) column { return column{kind: colCoded, coded: k} }

// Coded-index families per ECMA-335 §II.24.2.6.
type codedKind int

const (
	codedTypeDefOrRef codedKind = iota
	codedHasConstant
	codedHasCustomAttribute
	codedHasFieldMarshal
	codedHasDeclSecurity
	codedMemberRefParent
	codedHasSemantics
	codedMethodDefOrRef
	codedMemberForwarded
	codedImplementation
	codedCustomAttributeType
	codedResolutionScope
	codedTypeOrMethodDef
)

// codedMembers lists each family's member tables in tag order; -1 marks an
// unused tag slot.
var codedMembers = map[codedKind][]int{
	codedTypeDefOrRef:    {tableTypeDef, tableTypeRef, tableTypeSpec},
	codedHasConstant:     {tableField, tableParam, tableProperty},
	codedHasCustomAttribute: {
		tableMethodDef, tableField, tableTypeRef, tableTypeDef, tableParam,
		tableInterfaceImpl, tableMemberRef, tableModule, tableDeclSecurity,
		tableProperty, tableEvent, tableStandAloneSig, tableModuleRef,
		tableTypeSpec, tableAssembly, tableAssemblyRef, tableFile,
		tableExportedType, tableManifestResource, tableGenericParam,
		tableGenericParamConstraint, tableMethodSpec,
	},
	codedHasFieldMarshal:     {tableField, tableParam},
	codedHasDeclSecurity:     {tableTypeDef, tableMethodDef, tableAssembly},
	codedMemberRefParent:     {tableTypeDef, tableTypeRef, tableModuleRef, tableMethodDef, tableTypeSpec},
	codedHasSemantics:        {tableEvent, tableProperty},
	codedMethodDefOrRef:      {tableMethodDef, tableMemberRef},
	codedMemberForwarded:     {tableField, tableMethodDef},
	codedImplementation:      {tableFile, tableAssemblyRef, tableExportedType},
	codedCustomAttributeType: {-1, -1, tableMethodDef, tableMemberRef, -1},
	codedResolutionScope:     {tableModule, tableModuleRef, tableAssemblyRef, tableTypeRef},
	codedTypeOrMethodDef:     {tableTypeDef, tableMethodDef},
}

var codedTagBits = map[codedKind]int{
	codedTypeDefOrRef:        2,
	codedHasConstant:         2,
	codedHasCustomAttribute:  5,
	codedHasFieldMarshal:     1,
	codedHasDeclSecurity:     2,
	codedMemberRefParent:     3,
	codedHasSemantics:        1,
	codedMethodDefOrRef:      1,
	codedMemberForwarded:     1,
	codedImplementation:      2,
	codedCustomAttributeType: 3,
	codedResolutionScope:     2,
	codedTypeOrMethodDef:     1,
}

// tableSchemas gives the column layout of every compressed-stream table,
// per ECMA-335 §II.22.
var tableSchemas = map[int][]column{
	tableModule:          {u16(), str(), guid(), guid(), guid()},
	tableTypeRef:         {cdx(codedResolutionScope), str(), str()},
	tableTypeDef:         {u32(), str(), str(), cdx(codedTypeDefOrRef), idx(tableField), idx(tableMethodDef)},
	tableFieldPtr:        {idx(tableField)},
	tableField:           {u16(), str(), blob()},
	tableMethodPtr:       {idx(tableMethodDef)},
	tableMethodDef:       {u32(), u16(), u16(), str(), blob(), idx(tableParam)},
	tableParamPtr:        {idx(tableParam)},
	tableParam:           {u16(), u16(), str()},
	tableInterfaceImpl:   {idx(tableTypeDef), cdx(codedTypeDefOrRef)},
	tableMemberRef:       {cdx(codedMemberRefParent), str(), blob()},
	tableConstant:        {u16(), cdx(codedHasConstant), blob()},
	tableCustomAttribute: {cdx(codedHasCustomAttribute), cdx(codedCustomAttributeType), blob()},
	tableFieldMarshal:    {cdx(codedHasFieldMarshal), blob()},
	tableDeclSecurity:    {u16(), cdx(codedHasDeclSecurity), blob()},
	tableClassLayout:     {u16(), u32(), idx(tableTypeDef)},
	tableFieldLayout:     {u32(), idx(tableField)},
	tableStandAloneSig:   {blob()},
	tableEventMap:        {idx(tableTypeDef), idx(tableEvent)},
	tableEventPtr:        {idx(tableEvent)},
	tableEvent:           {u16(), str(), cdx(codedTypeDefOrRef)},
	tablePropertyMap:     {idx(tableTypeDef), idx(tableProperty)},
	tablePropertyPtr:     {idx(tableProperty)},
	tableProperty:        {u16(), str(), blob()},
	tableMethodSemantics: {u16(), idx(tableMethodDef), cdx(codedHasSemantics)},
	tableMethodImpl:      {idx(tableTypeDef), cdx(codedMethodDefOrRef), cdx(codedMethodDefOrRef)},
	tableModuleRef:       {str()},
	tableTypeSpec:        {blob()},
	tableImplMap:         {u16(), cdx(codedMemberForwarded), str(), idx(tableModuleRef)},
	tableFieldRVA:        {u32(), idx(tableField)},
	tableENCLog:          {u32(), u32()},
	tableENCMap:          {u32()},
	tableAssembly:        {u32(), u16(), u16(), u16(), u16(), u32(), blob(), str(), str()},
	tableAssemblyProcessor: {u32()},
	tableAssemblyOS:        {u32(), u32(), u32()},
	tableAssemblyRef:       {u16(), u16(), u16(), u16(), u32(), blob(), str(), str(), blob()},
	tableAssemblyRefProcessor: {u32(), idx(tableAssemblyRef)},
	tableAssemblyRefOS:        {u32(), u32(), u32(), idx(tableAssemblyRef)},
	tableFile:                 {u32(), str(), blob()},
	tableExportedType:         {u32(), u32(), str(), str(), cdx(codedImplementation)},
	tableManifestResource:     {u32(), u32(), str(), cdx(codedImplementation)},
	tableNestedClass:          {idx(tableTypeDef), idx(tableTypeDef)},
	tableGenericParam:         {u16(), u16(), cdx(codedTypeOrMethodDef), str()},
	tableMethodSpec:           {cdx(codedMethodDefOrRef), blob()},
	tableGenericParamConstraint: {idx(tableGenericParam), cdx(codedTypeDefOrRef)},
}

// metadata is the decoded slice of an assembly's metadata the extraction
// pipeline needs.
type metadata struct {
	assemblyName string
	references   []string
	resources    []resourceEntry
}

// resourceEntry is one embedded manifest resource: its logical name and its
// offset into the CLI resources directory.
type resourceEntry struct {
	name   string
	offset uint32
}

// cursor is a bounds-checked little-endian reader over a byte slice.
type cursor struct {
	data []byte
	pos  int
	err  error
}

func (c *cursor) fail(format string, args ...interface{}) {
	if c.err == nil {
		c.err = fmt.Errorf(format, args...)
	}
}

func (c *cursor) need(n int) bool {
	if c.err != nil {
		return false
	}
	if c.pos+n > len(c.data) {
		c.fail("metadata truncated at offset %d (need %d bytes)", c.pos, n)
		return false
	}
	return true
}

func (c *cursor) u8() uint8 {
	if !c.need(1) {
		return 0
	}
	v := c.data[c.pos]
	c.pos++
	return v
}

func (c *cursor) u16() uint16 {
	if !c.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) u32() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) u64() uint64 {
	if !c.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v
}

func (c *cursor) skip(n int) {
	if c.need(n) {
		c.pos += n
	}
}

// parseMetadata decodes a physical metadata blob (starting at the BSJB
// root) down to the assembly name, referenced assembly names, and embedded
// resource entries.
func parseMetadata(data []byte) (*metadata, error) {
	c := &cursor{data: data}

	if sig := c.u32(); c.err == nil && sig != metadataSignature {
		return nil, fmt.Errorf("bad metadata signature 0x%08X", sig)
	}
	c.skip(8) // version numbers and reserved
	versionLen := int(c.u32())
	c.skip(versionLen) // runtime version string, already 4-byte padded
	c.skip(2)          // flags
	streamCount := int(c.u16())
	if c.err != nil {
		return nil, c.err
	}

	var tablesData, stringsData []byte
	for i := 0; i < streamCount; i++ {
		offset := int(c.u32())
		size := int(c.u32())
		name := c.streamName()
		if c.err != nil {
			return nil, c.err
		}
		if offset < 0 || size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("stream %q extends past metadata end", name)
		}
		switch name {
		case "#~":
			tablesData = data[offset : offset+size]
		case "#-":
			return nil, fmt.Errorf("uncompressed metadata stream is not supported")
		case "#Strings":
			stringsData = data[offset : offset+size]
		}
	}
	if tablesData == nil {
		return nil, fmt.Errorf("metadata has no #~ stream")
	}
	if stringsData == nil {
		return nil, fmt.Errorf("metadata has no #Strings stream")
	}

	return parseTables(tablesData, stringsData)
}

// streamName reads a nul-terminated stream header name padded to a 4-byte
// boundary.
func (c *cursor) streamName() string {
	start := c.pos
	for {
		b := c.u8()
		if c.err != nil {
			return ""
		}
		if b == 0 {
			break
		}
		if c.pos-start >= 32 {
			c.fail("stream name too long")
			return ""
		}
	}
	name := string(c.data[start : c.pos-1])
	for (c.pos-start)%4 != 0 {
		c.skip(1)
	}
	return name
}

// tableStream carries the decoded #~ header plus index-size context.
type tableStream struct {
	rows      [tableCount]uint32
	strLarge  bool
	guidLarge bool
	blobLarge bool
}

func (t *tableStream) indexSize(table int) int {
	if t.rows[table] > 0xFFFF {
		return 4
	}
	return 2
}

func (t *tableStream) codedSize(kind codedKind) int {
	var maxRows uint32
	for _, table := range codedMembers[kind] {
		if table < 0 {
			continue
		}
		if t.rows[table] > maxRows {
			maxRows = t.rows[table]
		}
	}
	if maxRows >= 1<<(16-codedTagBits[kind]) {
		return 4
	}
	return 2
}

func (t *tableStream) colSize(col column) int {
	switch col.kind {
	case colU16:
		return 2
	case colU32:
		return 4
	case colString:
		if t.strLarge {
			return 4
		}
		return 2
	case colGUID:
		if t.guidLarge {
			return 4
		}
		return 2
	case colBlob:
		if t.blobLarge {
			return 4
		}
		return 2
	case colIndex:
		return t.indexSize(col.table)
	default:
		return t.codedSize(col.coded)
	}
}

func (t *tableStream) rowSize(table int) int {
	size := 0
	for _, col := range tableSchemas[table] {
		size += t.colSize(col)
	}
	return size
}

// readCol reads one column value of the given schema column.
func (t *tableStream) readCol(c *cursor, col column) uint32 {
	if t.colSize(col) == 4 {
		return c.u32()
	}
	return uint32(c.u16())
}

// parseTables walks the #~ stream far enough to decode the Assembly,
// AssemblyRef, and ManifestResource tables.
func parseTables(tablesData, stringsData []byte) (*metadata, error) {
	c := &cursor{data: tablesData}

	c.skip(4) // reserved
	c.skip(2) // major/minor version
	heapSizes := c.u8()
	c.skip(1) // reserved
	valid := c.u64()
	c.skip(8) // sorted mask
	if c.err != nil {
		return nil, c.err
	}

	ts := &tableStream{
		strLarge:  heapSizes&0x01 != 0,
		guidLarge: heapSizes&0x02 != 0,
		blobLarge: heapSizes&0x04 != 0,
	}

	for bit := 0; bit < 64; bit++ {
		if valid&(1<<bit) == 0 {
			continue
		}
		count := c.u32()
		if c.err != nil {
			return nil, c.err
		}
		if bit >= tableCount {
			return nil, fmt.Errorf("unsupported metadata table 0x%02X", bit)
		}
		ts.rows[bit] = count
	}

	// Walk the table region, decoding only the tables of interest.
	md := &metadata{}
	heap := stringHeap(stringsData)
	for table := 0; table < tableCount; table++ {
		rows := int(ts.rows[table])
		if rows == 0 {
			continue
		}
		switch table {
		case tableAssembly:
			for i := 0; i < rows; i++ {
				c.skip(16) // hash alg, version, flags
				ts.readCol(c, blob()) // public key
				name := ts.readCol(c, str())
				ts.readCol(c, str()) // culture
				if i == 0 {
					s, err := heap.get(name)
					if err != nil {
						return nil, err
					}
					md.assemblyName = s
				}
			}
		case tableAssemblyRef:
			for i := 0; i < rows; i++ {
				c.skip(12) // version, flags
				ts.readCol(c, blob()) // public key or token
				name := ts.readCol(c, str())
				ts.readCol(c, str())  // culture
				ts.readCol(c, blob()) // hash value
				s, err := heap.get(name)
				if err != nil {
					return nil, err
				}
				md.references = append(md.references, s)
			}
		case tableManifestResource:
			for i := 0; i < rows; i++ {
				offset := c.u32()
				c.skip(4) // flags
				name := ts.readCol(c, str())
				impl := ts.readCol(c, cdx(codedImplementation))
				// Implementation 0 means the resource payload is embedded
				// in this file; anything else points at another file.
				if impl != 0 {
					continue
				}
				s, err := heap.get(name)
				if err != nil {
					return nil, err
				}
				md.resources = append(md.resources, resourceEntry{name: s, offset: offset})
			}
		default:
			c.skip(rows * ts.rowSize(table))
		}
		if c.err != nil {
			return nil, c.err
		}
	}

	if md.assemblyName == "" {
		return nil, fmt.Errorf("no assembly manifest (missing Assembly table)")
	}
	return md, nil
}

// stringHeap reads nul-terminated UTF-8 strings from the #Strings stream.
type stringHeap []byte

func (h stringHeap) get(index uint32) (string, error) {
	if index >= uint32(len(h)) {
		return "", fmt.Errorf("string index %d outside #Strings heap", index)
	}
	end := index
	for end < uint32(len(h)) && h[end] != 0 {
		end++
	}
	if end == uint32(len(h)) {
		return "", fmt.Errorf("unterminated string at index %d", index)
	}
	return string(h[index:end]), nil
}
