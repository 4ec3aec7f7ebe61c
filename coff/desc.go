package coff

import (
	"fmt"
	"strconv"
)

// An integer is a fixed-size field type in a COFF record.
type integer interface {
	uint8 | uint16 | uint32 | int16
}

// A Value is an optional field in a description. The zero Value is unset.
type Value[T integer] struct {
	v   T
	set bool
}

// Set returns a Value holding v.
func Set[T integer](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Get returns the value and whether it was set.
func (x Value[T]) Get() (T, bool) {
	return x.v, x.set
}

// Or returns the value if it was set, or def otherwise.
func (x Value[T]) Or(def T) T {
	if x.set {
		return x.v
	}
	return def
}

// A Symbolic is an optional field given either as a number or as names from
// a fixed table. A list of names is OR-reduced.
type Symbolic struct {
	num   uint32
	names []string
	set   bool
}

// Num returns a Symbolic holding a number.
func Num(v uint32) Symbolic {
	return Symbolic{num: v, set: true}
}

// Names returns a Symbolic holding flag names.
func Names(names ...string) Symbolic {
	return Symbolic{names: names, set: true}
}

// resolve returns the value of the field, or 0 if unset. The result must fit
// in the given number of bits.
func (s Symbolic) resolve(t flagTable, bits uint) (uint32, error) {
	if !s.set {
		return 0, nil
	}
	v := s.num
	if s.names != nil {
		var err error
		if v, err = t.or(s.names); err != nil {
			return 0, err
		}
	}
	if bits < 32 && v>>bits != 0 {
		return 0, fmt.Errorf("value %#x does not fit in %d bits: %w", v, bits, ErrMalformedInput)
	}
	return v, nil
}

// A Name is an optional section or symbol name, given either as text or as a
// string table offset.
type Name struct {
	text   string
	offset uint32
	isOff  bool
	set    bool
}

// Text returns a Name given as text.
func Text(s string) Name {
	return Name{text: s, set: true}
}

// Offset returns a Name referring to a string table offset.
func Offset(off uint32) Name {
	return Name{offset: off, isOff: true, set: true}
}

func (n Name) String() string {
	if n.isOff {
		return "/" + strconv.FormatUint(uint64(n.offset), 10)
	}
	return n.text
}

// HeaderDesc describes the file header.
type HeaderDesc struct {
	Machine              Symbolic      `yaml:"Machine"`
	NumberOfSections     Value[uint16] `yaml:"NumberOfSections"`
	TimeDateStamp        Value[uint32] `yaml:"TimeDateStamp"`
	PointerToSymbolTable Value[uint32] `yaml:"PointerToSymbolTable"`
	NumberOfSymbols      Value[uint32] `yaml:"NumberOfSymbols"`
	SizeOfOptionalHeader Value[uint16] `yaml:"SizeOfOptionalHeader"`
	Characteristics      Symbolic      `yaml:"Characteristics"`
}

// SectionDesc describes one section.
type SectionDesc struct {
	Index                Value[uint32]    `yaml:"Index"`
	Name                 Name             `yaml:"Name"`
	VirtualSize          Value[uint32]    `yaml:"VirtualSize"`
	VirtualAddress       Value[uint32]    `yaml:"VirtualAddress"`
	SizeOfRawData        Value[uint32]    `yaml:"SizeOfRawData"`
	PointerToRawData     Value[uint32]    `yaml:"PointerToRawData"`
	PointerToRelocations Value[uint32]    `yaml:"PointerToRelocations"`
	PointerToLineNumbers Value[uint32]    `yaml:"PointerToLineNumbers"`
	NumberOfRelocations  Value[uint16]    `yaml:"NumberOfRelocations"`
	NumberOfLineNumbers  Value[uint16]    `yaml:"NumberOfLineNumbers"`
	Characteristics      Symbolic         `yaml:"Characteristics"`
	SectionData          Bytes            `yaml:"SectionData"`
	Relocations          []RelocationDesc `yaml:"Relocations"`
}

// SymbolDesc describes one symbol table entry.
type SymbolDesc struct {
	Index              Value[uint32] `yaml:"Index"`
	Name               Name          `yaml:"Name"`
	Value              Value[uint32] `yaml:"Value"`
	SectionNumber      Value[int16]  `yaml:"SectionNumber"`
	SimpleType         Symbolic      `yaml:"SimpleType"`
	ComplexType        Symbolic      `yaml:"ComplexType"`
	StorageClass       Symbolic      `yaml:"StorageClass"`
	NumberOfAuxSymbols Value[uint8]  `yaml:"NumberOfAuxSymbols"`
	AuxillaryData      Bytes         `yaml:"AuxillaryData"`
}

// RelocationDesc describes one relocation of a section.
type RelocationDesc struct {
	VirtualAddress   Value[uint32] `yaml:"VirtualAddress"`
	SymbolTableIndex Value[uint32] `yaml:"SymbolTableIndex"`
	Type             Value[uint16] `yaml:"Type"`
}

// A Description is the declarative form of an object file. Anything left
// unset is filled in by Layout.
type Description struct {
	Header   HeaderDesc
	Sections []*SectionDesc
	Symbols  []*SymbolDesc
	Strings  []string // interned before any name, in order
}
