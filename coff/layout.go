package coff

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Layout resolves every omitted field in the description and computes every
// file offset. The pass runs in a fixed order: the header first, then the
// sections, then the symbols. Values given in the description are never
// overwritten.
//
// The file header is followed by the optional header, the section table and
// the symbol table. Raw section data is then placed in section order, after
// the symbol table and its auxiliary records.
func Layout(d *Description) (*File, error) {
	f := &File{StringTable: NewStringTable()}
	for _, s := range d.Strings {
		f.StringTable.Add(s)
	}

	h, err := d.Header.resolve(len(d.Sections), len(d.Symbols))
	if err != nil {
		return nil, err
	}
	f.FileHeader = h

	cursor := h.PointerToSymbolTable + h.NumberOfSymbols*SymbolSize
	for _, s := range d.Symbols {
		cursor += uint32(len(s.AuxillaryData))
	}

	for i, sd := range d.Sections {
		s, err := sd.resolve(i, f.StringTable)
		if err != nil {
			return nil, err
		}
		if _, ok := sd.PointerToRawData.Get(); !ok && s.SizeOfRawData != 0 {
			s.PointerToRawData = cursor
			cursor += s.SizeOfRawData
		}
		f.Sections = append(f.Sections, s)
	}

	var index int
	for i, sd := range d.Symbols {
		s, err := sd.resolve(i, index, f.StringTable)
		if err != nil {
			return nil, err
		}
		index += 1 + int(s.NumberOfAuxSymbols)
		f.Symbols = append(f.Symbols, s)
	}
	return f, nil
}

func (d *HeaderDesc) resolve(sections, symbols int) (FileHeader, error) {
	machine, err := d.Machine.resolve(machines, 16)
	if err != nil {
		return FileHeader{}, &LayoutError{Entity: "header", Field: "Machine", Err: err}
	}
	chars, err := d.Characteristics.resolve(fileFlags, 16)
	if err != nil {
		return FileHeader{}, &LayoutError{Entity: "header", Field: "Characteristics", Err: err}
	}
	h := FileHeader{
		Machine:              uint16(machine),
		NumberOfSections:     d.NumberOfSections.Or(uint16(sections)),
		TimeDateStamp:        d.TimeDateStamp.Or(0),
		NumberOfSymbols:      d.NumberOfSymbols.Or(uint32(symbols)),
		SizeOfOptionalHeader: d.SizeOfOptionalHeader.Or(0),
		Characteristics:      uint16(chars),
	}
	h.PointerToSymbolTable = d.PointerToSymbolTable.Or(FileHeaderSize +
		uint32(h.SizeOfOptionalHeader) + uint32(h.NumberOfSections)*SectionHeaderSize)
	return h, nil
}

// resolve returns the laid-out section, except for PointerToRawData, which is
// left for Layout to place. Long names are added to the string table.
func (d *SectionDesc) resolve(index int, st *StringTable) (*Section, error) {
	s := &Section{
		Index: int(d.Index.Or(uint32(index))),
		Data:  d.SectionData,
	}
	name := d.Name.String()
	if !d.Name.isOff && len(name) > nameSize {
		name = Offset(st.Add(name)).String()
	}
	if len(name) > nameSize {
		return nil, &LayoutError{Entity: "section", Index: index, Field: "Name",
			Err: fmt.Errorf("string table offset %s does not fit: %w", name[1:], ErrMalformedInput)}
	}
	copy(s.Name[:], name)

	chars, err := d.Characteristics.resolve(sectionFlags, 32)
	if err != nil {
		return nil, &LayoutError{Entity: "section", Index: index, Field: "Characteristics", Err: err}
	}
	s.VirtualSize = d.VirtualSize.Or(0)
	s.VirtualAddress = d.VirtualAddress.Or(0)
	s.SizeOfRawData = d.SizeOfRawData.Or(uint32(len(d.SectionData)))
	s.PointerToRawData = d.PointerToRawData.Or(0)
	s.PointerToRelocations = d.PointerToRelocations.Or(0)
	s.PointerToLineNumbers = d.PointerToLineNumbers.Or(0)
	s.NumberOfRelocations = d.NumberOfRelocations.Or(0)
	s.NumberOfLineNumbers = d.NumberOfLineNumbers.Or(0)
	s.Characteristics = chars

	for _, r := range d.Relocations {
		s.Relocations = append(s.Relocations, r.resolve())
	}
	return s, nil
}

// resolve fills in the relocation defaults. Relocation offsets are not
// computed.
func (d *RelocationDesc) resolve() Relocation {
	return Relocation{
		VirtualAddress:   d.VirtualAddress.Or(0),
		SymbolTableIndex: d.SymbolTableIndex.Or(0),
		Type:             d.Type.Or(0),
	}
}

// resolve returns the laid-out symbol. pos is the position of the symbol in
// the description and index its symbol table index.
func (d *SymbolDesc) resolve(pos, index int, st *StringTable) (*Symbol, error) {
	s := &Symbol{
		Index:   int(d.Index.Or(uint32(index))),
		AuxData: d.AuxillaryData,
	}
	if s.AuxData == nil {
		s.AuxData = []byte{}
	}
	switch {
	case d.Name.isOff:
		binary.LittleEndian.PutUint32(s.Name[4:], d.Name.offset)
	case len(d.Name.text) > nameSize:
		binary.LittleEndian.PutUint32(s.Name[4:], st.Add(d.Name.text))
	default:
		copy(s.Name[:], d.Name.text)
	}

	fail := func(field string, err error) (*Symbol, error) {
		return nil, &LayoutError{Entity: "symbol", Index: pos, Field: field, Err: err}
	}
	simple, err := d.SimpleType.resolve(simpleTypes, 4)
	if err != nil {
		return fail("SimpleType", err)
	}
	derived, err := d.ComplexType.resolve(complexTypes, 12)
	if err != nil {
		return fail("ComplexType", err)
	}
	class, err := d.StorageClass.resolve(storageClasses, 8)
	if err != nil {
		return fail("StorageClass", err)
	}
	s.Value = d.Value.Or(0)
	s.SectionNumber = d.SectionNumber.Or(0)
	s.Type = uint16(simple | derived<<4)
	s.StorageClass = uint8(class)
	s.NumberOfAuxSymbols = d.NumberOfAuxSymbols.Or(0)
	return s, nil
}

// DecodeName returns the section name, looking up "/N" names in the string
// table.
func (s *Section) DecodeName(st *StringTable) (string, error) {
	name := trimName(s.Name[:])
	if len(name) == 0 || name[0] != '/' {
		return name, nil
	}
	off, err := strconv.ParseUint(name[1:], 10, 32)
	if err != nil {
		return "", fmt.Errorf("section name %q: %w", name, ErrNotFound)
	}
	return st.Resolve(uint32(off))
}

// DecodeName returns the symbol name. A name whose first four bytes are zero
// is a string table offset.
func (s *Symbol) DecodeName(st *StringTable) (string, error) {
	if binary.LittleEndian.Uint32(s.Name[:4]) != 0 {
		return trimName(s.Name[:]), nil
	}
	off := binary.LittleEndian.Uint32(s.Name[4:])
	if off == 0 {
		return "", nil // empty name
	}
	return st.Resolve(off)
}

func trimName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
