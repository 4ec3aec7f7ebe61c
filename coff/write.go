package coff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// A Field is one serialized unit of the file with a label naming it.
type Field struct {
	Data  []byte
	Label string
}

func u8(v uint8) []byte {
	return []byte{v}
}

func u16(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func u32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// =================================================================================================

func (h *FileHeader) fields() []Field {
	return []Field{
		{u16(h.Machine), "Machine"},
		{u16(h.NumberOfSections), "NumberOfSections"},
		{u32(h.TimeDateStamp), "TimeDateStamp"},
		{u32(h.PointerToSymbolTable), "PointerToSymbolTable"},
		{u32(h.NumberOfSymbols), "NumberOfSymbols"},
		{u16(h.SizeOfOptionalHeader), "SizeOfOptionalHeader"},
		{u16(h.Characteristics), "Characteristics"},
	}
}

func (s *Section) headerFields() []Field {
	p := fmt.Sprintf("Section %d ", s.Index)
	return []Field{
		{append([]byte(nil), s.Name[:]...), p + "Name"},
		{u32(s.VirtualSize), p + "VirtualSize"},
		{u32(s.VirtualAddress), p + "VirtualAddress"},
		{u32(s.SizeOfRawData), p + "SizeOfRawData"},
		{u32(s.PointerToRawData), p + "PointerToRawData"},
		{u32(s.PointerToRelocations), p + "PointerToRelocations"},
		{u32(s.PointerToLineNumbers), p + "PointerToLineNumbers"},
		{u16(s.NumberOfRelocations), p + "NumberOfRelocations"},
		{u16(s.NumberOfLineNumbers), p + "NumberOfLineNumbers"},
		{u32(s.Characteristics), p + "Characteristics"},
	}
}

func (s *Section) contentFields() []Field {
	return []Field{{s.Data, fmt.Sprintf("Section %d SectionData", s.Index)}}
}

// relocationFields returns the serialized relocation table of the section.
// Relocation tables are not written yet, so this is always empty.
func (s *Section) relocationFields() []Field {
	return nil
}

func (s *Symbol) fields() []Field {
	p := fmt.Sprintf("Symbol %d ", s.Index)
	return []Field{
		{append([]byte(nil), s.Name[:]...), p + "Name"},
		{u32(s.Value), p + "Value"},
		{u16(uint16(s.SectionNumber)), p + "SectionNumber"},
		{u16(s.Type), p + "Type"},
		{u8(s.StorageClass), p + "StorageClass"},
		{u8(s.NumberOfAuxSymbols), p + "NumberOfAuxSymbols"},
		{s.AuxData, p + "AuxillaryData"},
	}
}

// =================================================================================================

// Fields returns the serialized file as labeled fields, in file order: the
// header, the section table, the symbol table, the section contents, the
// relocation tables and the string table.
func (f *File) Fields() []Field {
	fields := f.FileHeader.fields()
	for _, s := range f.Sections {
		fields = append(fields, s.headerFields()...)
	}
	for _, s := range f.Symbols {
		fields = append(fields, s.fields()...)
	}
	for _, s := range f.Sections {
		fields = append(fields, s.contentFields()...)
	}
	for _, s := range f.Sections {
		fields = append(fields, s.relocationFields()...)
	}
	return append(fields, Field{f.StringTable.Bytes(), "StringTable"})
}

// WriteTo writes the object file to a writer.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var amt int64
	for _, fd := range f.Fields() {
		if len(fd.Data) == 0 {
			continue
		}
		n, err := w.Write(fd.Data)
		amt += int64(n)
		if err != nil {
			return amt, err
		}
	}
	return amt, nil
}

// Bytes returns the object file contents.
func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	f.WriteTo(&buf)
	return buf.Bytes()
}
