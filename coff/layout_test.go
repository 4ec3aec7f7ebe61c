package coff_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"moria.us/yaml2obj/coff"
)

func layout(t *testing.T, d *coff.Description) *coff.File {
	t.Helper()
	f, err := coff.Layout(d)
	if err != nil {
		t.Fatal("Layout:", err)
	}
	return f
}

func TestLayoutMinimal(t *testing.T) {
	f := layout(t, &coff.Description{
		Sections: []*coff.SectionDesc{{
			Name:        coff.Text(".text"),
			SectionData: coff.Bytes{0x90, 0x90, 0x90, 0x90},
		}},
	})
	h := f.FileHeader
	if h.NumberOfSections != 1 {
		t.Errorf("NumberOfSections = %d, expected 1", h.NumberOfSections)
	}
	if h.NumberOfSymbols != 0 {
		t.Errorf("NumberOfSymbols = %d, expected 0", h.NumberOfSymbols)
	}
	const symtab = coff.FileHeaderSize + coff.SectionHeaderSize
	if h.PointerToSymbolTable != symtab {
		t.Errorf("PointerToSymbolTable = %d, expected %d", h.PointerToSymbolTable, symtab)
	}
	s := f.Sections[0]
	if s.SizeOfRawData != 4 {
		t.Errorf("SizeOfRawData = %d, expected 4", s.SizeOfRawData)
	}
	if s.PointerToRawData != symtab {
		t.Errorf("PointerToRawData = %d, expected %d", s.PointerToRawData, symtab)
	}
	if name := string(s.Name[:]); name != ".text\x00\x00\x00" {
		t.Errorf("Name = %q", name)
	}

	b := f.Bytes()
	if len(b) != symtab+4+4 {
		t.Fatalf("got %d bytes, expected %d", len(b), symtab+8)
	}
	if !bytes.Equal(b[symtab:symtab+4], []byte{0x90, 0x90, 0x90, 0x90}) {
		t.Errorf("section data: % x", b[symtab:symtab+4])
	}
}

func TestLayoutHeaderExplicit(t *testing.T) {
	f := layout(t, &coff.Description{
		Header: coff.HeaderDesc{
			NumberOfSections:     coff.Set[uint16](7),
			PointerToSymbolTable: coff.Set[uint32](0x1000),
			NumberOfSymbols:      coff.Set[uint32](3),
			SizeOfOptionalHeader: coff.Set[uint16](0xe0),
			Characteristics:      coff.Names("IMAGE_FILE_EXECUTABLE_IMAGE", "IMAGE_FILE_32BIT_MACHINE"),
		},
		Sections: []*coff.SectionDesc{{SectionData: coff.Bytes{1}}},
	})
	want := coff.FileHeader{
		NumberOfSections:     7,
		PointerToSymbolTable: 0x1000,
		NumberOfSymbols:      3,
		SizeOfOptionalHeader: 0xe0,
		Characteristics:      0x0102,
	}
	if f.FileHeader != want {
		t.Errorf("header:\ngot  %+v\nwant %+v", f.FileHeader, want)
	}
	if p := f.Sections[0].PointerToRawData; p != 0x1000+3*coff.SymbolSize {
		t.Errorf("PointerToRawData = %#x, expected %#x", p, 0x1000+3*coff.SymbolSize)
	}
}

func TestLayoutOptionalHeaderSize(t *testing.T) {
	f := layout(t, &coff.Description{
		Header:   coff.HeaderDesc{SizeOfOptionalHeader: coff.Set[uint16](0x10)},
		Sections: []*coff.SectionDesc{{}, {}},
	})
	if p := f.PointerToSymbolTable; p != 20+0x10+80 {
		t.Errorf("PointerToSymbolTable = %d, expected %d", p, 20+0x10+80)
	}
}

func TestLayoutAppendOnly(t *testing.T) {
	d := &coff.Description{
		Sections: []*coff.SectionDesc{
			{Name: coff.Text(".a"), SectionData: make(coff.Bytes, 10)},
			{Name: coff.Text(".empty")},
			{Name: coff.Text(".b"), SectionData: make(coff.Bytes, 20)},
			{Name: coff.Text(".fixed"), SectionData: make(coff.Bytes, 5), PointerToRawData: coff.Set[uint32](0x400)},
			{Name: coff.Text(".bss"), SizeOfRawData: coff.Set[uint32](8)},
		},
		Symbols: []*coff.SymbolDesc{{}, {}},
	}
	f := layout(t, d)
	base := f.PointerToSymbolTable + f.NumberOfSymbols*coff.SymbolSize
	if base != 20+5*40+2*18 {
		t.Fatalf("base = %d", base)
	}
	want := []uint32{base, 0, base + 10, 0x400, base + 30}
	for i, s := range f.Sections {
		if s.PointerToRawData != want[i] {
			t.Errorf("section %d: PointerToRawData = %d, expected %d", i, s.PointerToRawData, want[i])
		}
	}
}

func TestLayoutAuxData(t *testing.T) {
	f := layout(t, &coff.Description{
		Sections: []*coff.SectionDesc{{SectionData: coff.Bytes{0xcc}}},
		Symbols: []*coff.SymbolDesc{
			{Name: coff.Text(".file"), NumberOfAuxSymbols: coff.Set[uint8](1), AuxillaryData: make(coff.Bytes, 18)},
			{Name: coff.Text("_main")},
		},
	})
	want := uint32(20 + 40 + 2*18 + 18)
	if p := f.Sections[0].PointerToRawData; p != want {
		t.Errorf("PointerToRawData = %d, expected %d", p, want)
	}
	if b := f.Bytes(); b[want] != 0xcc {
		t.Errorf("byte at %d = %#x, expected 0xcc", want, b[want])
	}
}

func TestLayoutSymbolIndex(t *testing.T) {
	f := layout(t, &coff.Description{
		Symbols: []*coff.SymbolDesc{
			{NumberOfAuxSymbols: coff.Set[uint8](0)},
			{NumberOfAuxSymbols: coff.Set[uint8](2)},
			{NumberOfAuxSymbols: coff.Set[uint8](0)},
		},
	})
	want := []int{0, 1, 4}
	for i, s := range f.Symbols {
		if s.Index != want[i] {
			t.Errorf("symbol %d: Index = %d, expected %d", i, s.Index, want[i])
		}
	}
	if f.NumberOfSymbols != 3 {
		t.Errorf("NumberOfSymbols = %d, expected 3", f.NumberOfSymbols)
	}
}

func TestLayoutLongNames(t *testing.T) {
	f := layout(t, &coff.Description{
		Sections: []*coff.SectionDesc{
			{Name: coff.Text(".debug_info")},
			{Name: coff.Text(".text$mn")},
			{Name: coff.Offset(4)},
		},
		Symbols: []*coff.SymbolDesc{
			{Name: coff.Text("a_long_symbol")},
			{Name: coff.Text(".debug_info")},
			{Name: coff.Text("_short")},
			{Name: coff.Offset(30)},
		},
	})
	wantSec := []string{"/4\x00\x00\x00\x00\x00\x00", ".text$mn", "/4\x00\x00\x00\x00\x00\x00"}
	for i, s := range f.Sections {
		if got := string(s.Name[:]); got != wantSec[i] {
			t.Errorf("section %d: Name = %q, expected %q", i, got, wantSec[i])
		}
	}
	for i, s := range f.Sections {
		name, err := s.DecodeName(f.StringTable)
		if err != nil {
			t.Errorf("section %d: DecodeName: %v", i, err)
		} else if want := []string{".debug_info", ".text$mn", ".debug_info"}[i]; name != want {
			t.Errorf("section %d: DecodeName = %q, expected %q", i, name, want)
		}
	}

	wantSym := [][8]byte{
		{0, 0, 0, 0, 16, 0, 0, 0},
		{0, 0, 0, 0, 4, 0, 0, 0},
		{'_', 's', 'h', 'o', 'r', 't', 0, 0},
		{0, 0, 0, 0, 30, 0, 0, 0},
	}
	for i, s := range f.Symbols {
		if s.Name != wantSym[i] {
			t.Errorf("symbol %d: Name = % x, expected % x", i, s.Name, wantSym[i])
		}
	}
	for i, want := range []string{"a_long_symbol", ".debug_info", "_short"} {
		name, err := f.Symbols[i].DecodeName(f.StringTable)
		if err != nil || name != want {
			t.Errorf("symbol %d: DecodeName = %q, %v, expected %q", i, name, err, want)
		}
	}
	// Offset 30 was never interned.
	if _, err := f.Symbols[3].DecodeName(f.StringTable); !errors.Is(err, coff.ErrNotFound) {
		t.Errorf("symbol 3: DecodeName: got %v, expected ErrNotFound", err)
	}
}

func TestLayoutPreinternedStrings(t *testing.T) {
	f := layout(t, &coff.Description{
		Strings:  []string{"first", "second"},
		Sections: []*coff.SectionDesc{{Name: coff.Offset(10)}},
	})
	name, err := f.Sections[0].DecodeName(f.StringTable)
	if err != nil || name != "second" {
		t.Errorf("DecodeName = %q, %v, expected \"second\"", name, err)
	}
	if _, err := (&coff.Section{SectionHeader: coff.SectionHeader{Name: [8]byte{'/', '9'}}}).DecodeName(f.StringTable); !errors.Is(err, coff.ErrNotFound) {
		t.Errorf("DecodeName(/9): got %v, expected ErrNotFound", err)
	}
}

func TestLayoutCharacteristics(t *testing.T) {
	f := layout(t, &coff.Description{
		Sections: []*coff.SectionDesc{
			{Characteristics: coff.Names("IMAGE_SCN_MEM_READ")},
			{Characteristics: coff.Names("IMAGE_SCN_CNT_CODE", "IMAGE_SCN_MEM_EXECUTE", "IMAGE_SCN_MEM_READ")},
			{Characteristics: coff.Num(0x42)},
		},
	})
	want := []uint32{0x40000000, 0x60000020, 0x42}
	for i, s := range f.Sections {
		if s.Characteristics != want[i] {
			t.Errorf("section %d: Characteristics = %#x, expected %#x", i, s.Characteristics, want[i])
		}
	}
	// Characteristics is the last field of the section header.
	b := f.Bytes()
	off := coff.FileHeaderSize + coff.SectionHeaderSize - 4
	if got := b[off : off+4]; !bytes.Equal(got, []byte{0, 0, 0, 0x40}) {
		t.Errorf("serialized characteristics: % x", got)
	}
}

func TestLayoutSymbolFields(t *testing.T) {
	f := layout(t, &coff.Description{
		Header: coff.HeaderDesc{Machine: coff.Names("IMAGE_FILE_MACHINE_AMD64")},
		Symbols: []*coff.SymbolDesc{{
			Name:          coff.Text("_func"),
			Value:         coff.Set[uint32](0x10),
			SectionNumber: coff.Set[int16](1),
			SimpleType:    coff.Names("IMAGE_SYM_TYPE_INT"),
			ComplexType:   coff.Names("IMAGE_SYM_DTYPE_FUNCTION"),
			StorageClass:  coff.Names("IMAGE_SYM_CLASS_EXTERNAL"),
		}},
	})
	if f.Machine != 0x8664 {
		t.Errorf("Machine = %#x", f.Machine)
	}
	s := f.Symbols[0]
	if s.Type != 0x24 || s.SimpleType() != 4 || s.ComplexType() != 2 {
		t.Errorf("Type = %#x", s.Type)
	}
	if s.StorageClass != 2 {
		t.Errorf("StorageClass = %d", s.StorageClass)
	}
	b := f.Bytes()
	off := coff.FileHeaderSize
	want := []byte{'_', 'f', 'u', 'n', 'c', 0, 0, 0, 0x10, 0, 0, 0, 1, 0, 0x24, 0, 2, 0}
	if got := b[off : off+coff.SymbolSize]; !bytes.Equal(got, want) {
		t.Errorf("symbol record:\ngot  % x\nwant % x", got, want)
	}
	if len(s.AuxData) != 0 {
		t.Errorf("AuxData = % x", s.AuxData)
	}
	if v := binary.LittleEndian.Uint32(b[8:]); v != uint32(coff.FileHeaderSize) {
		t.Errorf("PointerToSymbolTable = %d", v)
	}
}

func TestLayoutErrors(t *testing.T) {
	cases := []struct {
		name   string
		desc   *coff.Description
		entity string
		index  int
		field  string
		kind   error
	}{
		{
			"section flag",
			&coff.Description{Sections: []*coff.SectionDesc{{}, {Characteristics: coff.Names("IMAGE_SCN_MEM_READ", "IMAGE_SCN_BOGUS")}}},
			"section", 1, "Characteristics", coff.ErrUnknownFlag,
		},
		{
			"storage class",
			&coff.Description{Symbols: []*coff.SymbolDesc{{StorageClass: coff.Names("IMAGE_SYM_CLASS_NOPE")}}},
			"symbol", 0, "StorageClass", coff.ErrUnknownFlag,
		},
		{
			"simple type too wide",
			&coff.Description{Symbols: []*coff.SymbolDesc{{}, {}, {SimpleType: coff.Num(0x10)}}},
			"symbol", 2, "SimpleType", coff.ErrMalformedInput,
		},
		{
			"section name offset too long",
			&coff.Description{Sections: []*coff.SectionDesc{{Name: coff.Offset(9999999)}, {Name: coff.Offset(10000000)}}},
			"section", 1, "Name", coff.ErrMalformedInput,
		},
		{
			"machine",
			&coff.Description{Header: coff.HeaderDesc{Machine: coff.Names("IMAGE_FILE_MACHINE_Z80")}},
			"header", 0, "Machine", coff.ErrUnknownFlag,
		},
		{
			"file flag",
			&coff.Description{Header: coff.HeaderDesc{Characteristics: coff.Names("IMAGE_SCN_MEM_READ")}},
			"header", 0, "Characteristics", coff.ErrUnknownFlag,
		},
	}
	for _, c := range cases {
		f, err := coff.Layout(c.desc)
		if err == nil {
			t.Errorf("%s: Layout succeeded, expected an error", c.name)
			continue
		}
		if f != nil {
			t.Errorf("%s: Layout returned a file with an error", c.name)
		}
		var le *coff.LayoutError
		if !errors.As(err, &le) {
			t.Errorf("%s: got %T, expected *LayoutError", c.name, err)
			continue
		}
		if le.Entity != c.entity || le.Index != c.index || le.Field != c.field {
			t.Errorf("%s: got %s %d %s, expected %s %d %s", c.name,
				le.Entity, le.Index, le.Field, c.entity, c.index, c.field)
		}
		if !errors.Is(err, c.kind) {
			t.Errorf("%s: error %v is not %v", c.name, err, c.kind)
		}
	}
}
