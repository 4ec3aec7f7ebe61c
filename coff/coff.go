// Package coff builds COFF object files from a declarative description.
//
// A Description, usually read from YAML with Read or Open, lists the header,
// sections and symbols of an object file, with any field left out. Layout
// resolves every omitted field and file offset and returns a File, which can be
// written as raw bytes or as an annotated hex listing.
package coff

// Sizes of the fixed records, in bytes.
const (
	FileHeaderSize    = 20
	SectionHeaderSize = 40
	SymbolSize        = 18
	RelocationSize    = 10
)

// nameSize is the capacity of an inline section or symbol name.
const nameSize = 8

// A FileHeader is the COFF file header, as it appears in the file.
type FileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// A SectionHeader is an entry in the section table, as it appears in the file.
type SectionHeader struct {
	Name                 [nameSize]byte // inline name, or "/" and a decimal string table offset
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// A SymbolRecord is an entry in the symbol table, as it appears in the file.
type SymbolRecord struct {
	Name               [nameSize]byte // inline name, or zero and a string table offset
	Value              uint32
	SectionNumber      int16
	Type               uint16 // simple type in the low 4 bits, complex type above
	StorageClass       uint8
	NumberOfAuxSymbols uint8
}

// SimpleType returns the simple (base) type of the symbol.
func (r *SymbolRecord) SimpleType() uint16 {
	return r.Type & 0xf
}

// ComplexType returns the complex (derived) type of the symbol.
func (r *SymbolRecord) ComplexType() uint16 {
	return r.Type >> 4
}

// A Relocation is a relocation entry belonging to a section.
type Relocation struct {
	VirtualAddress   uint32
	SymbolTableIndex uint32
	Type             uint16
}

// A Section is a laid-out section: its header, payload and relocations.
type Section struct {
	SectionHeader
	Index       int          // ordinal in the section table
	Data        []byte       // raw payload
	Relocations []Relocation // parsed, but not yet written
}

// A Symbol is a laid-out symbol table entry.
type Symbol struct {
	SymbolRecord
	Index   int    // symbol table index, counting auxiliary slots
	AuxData []byte // raw auxiliary records following the entry
}

// A File is a fully laid-out COFF object file. Every field has a concrete
// value and every offset is known, so the file can be serialized directly.
type File struct {
	FileHeader
	Sections    []*Section
	Symbols     []*Symbol
	StringTable *StringTable
}
