package coff

import (
	"bufio"
	"strconv"
)

const indentLevel = "  "

const hexDigits = "0123456789abcdef"

// hexLine is the number of bytes per line in a hex listing.
const hexLine = 16

func writeHexStr(w *bufio.Writer, b []byte) {
	d := make([]byte, 4*len(b)+3)
	j := 3*len(b) + 2
	for i, c := range b {
		d[i*3+0] = hexDigits[c>>4]
		d[i*3+1] = hexDigits[c&15]
		d[i*3+2] = ' '
		if 0x20 <= c && c <= 0x7e {
			d[j+i] = c
		} else {
			d[j+i] = '.'
		}
	}
	d[j-2] = ' '
	d[j-1] = '"'
	d[4*len(b)+2] = '"'
	w.Write(d)
}

func writeInt0(w *bufio.Writer, v uint32, sz uint) {
	for i := uint(sz * 2); i > 0; i-- {
		w.WriteByte(hexDigits[(v>>((i-1)*4))&15])
	}
}

func writeInt(w *bufio.Writer, v uint32, sz uint) {
	w.WriteString("0x")
	writeInt0(w, v, sz)
}

// DumpHex writes the object file as an annotated hex listing. Each line holds
// up to 16 bytes as two-digit hex tokens, followed by a "#" comment naming
// the field. Removing the comments and decoding the tokens gives the same
// bytes as WriteTo.
func (f *File) DumpHex(w *bufio.Writer) {
	for _, fd := range f.Fields() {
		for off := 0; off < len(fd.Data); off += hexLine {
			end := off + hexLine
			if end > len(fd.Data) {
				end = len(fd.Data)
			}
			for _, c := range fd.Data[off:end] {
				w.WriteByte(hexDigits[c>>4])
				w.WriteByte(hexDigits[c&15])
				w.WriteByte(' ')
			}
			w.WriteString("# ")
			w.WriteString(fd.Label)
			if off != 0 {
				w.WriteString(" +")
				writeInt(w, uint32(off), 2)
			}
			w.WriteByte('\n')
		}
	}
}

// =================================================================================================

type field struct {
	name string
	data interface{}
	hint string
}

func dumpFields(w *bufio.Writer, prefix string, fields []field) {
	if len(fields) == 0 {
		return
	}
	var (
		minName = int(^uint(0) >> 1)
		maxName int
	)
	for _, f := range fields {
		if len(f.name) > maxName {
			maxName = len(f.name)
		}
		if len(f.name) < minName {
			minName = len(f.name)
		}
	}
	spaces := make([]byte, maxName+2-minName)
	for i := range spaces {
		spaces[i] = ' '
	}
	for _, f := range fields {
		w.WriteString(prefix)
		w.WriteString(f.name)
		w.WriteByte(':')
		w.Write(spaces[:maxName+2-len(f.name)])
		switch v := f.data.(type) {
		case []byte:
			writeHexStr(w, v)
		case uint8:
			writeInt(w, uint32(v), 1)
		case uint16:
			writeInt(w, uint32(v), 2)
		case int16:
			writeInt(w, uint32(uint16(v)), 2)
		case uint32:
			writeInt(w, v, 4)
		default:
			panic("unknown field type for " + f.name)
		}
		if f.hint != "" {
			w.WriteString("  ")
			w.WriteString(f.hint)
		}
		w.WriteByte('\n')
	}
}

func sectionNumber(n int16) string {
	switch n {
	case 0:
		return "IMAGE_SYM_UNDEFINED"
	case -1:
		return "IMAGE_SYM_ABSOLUTE"
	case -2:
		return "IMAGE_SYM_DEBUG"
	default:
		return ""
	}
}

// decodedName returns a hint for a name which was moved to the string table.
func decodedName(name string, err error, inline []byte) string {
	if err != nil {
		return err.Error()
	}
	if name == trimName(inline) {
		return ""
	}
	return strconv.Quote(name)
}

// DumpText writes the file header, in text format, to the writer.
func (h *FileHeader) DumpText(w *bufio.Writer, prefix string) {
	dumpFields(w, prefix, []field{
		{"Machine", h.Machine, machines.name(uint32(h.Machine))},
		{"Number Of Sections", h.NumberOfSections, ""},
		{"Time Date Stamp", h.TimeDateStamp, ""},
		{"Pointer To Symbol Table", h.PointerToSymbolTable, ""},
		{"Number Of Symbols", h.NumberOfSymbols, ""},
		{"Size Of Optional Header", h.SizeOfOptionalHeader, ""},
		{"Characteristics", h.Characteristics, fileFlags.bits(uint32(h.Characteristics), 0)},
	})
}

// DumpText writes the section header, in text format, to the writer.
func (s *Section) DumpText(w *bufio.Writer, prefix string, st *StringTable) {
	name, err := s.DecodeName(st)
	dumpFields(w, prefix, []field{
		{"Name", s.Name[:], decodedName(name, err, s.Name[:])},
		{"Virtual Size", s.VirtualSize, ""},
		{"Virtual Address", s.VirtualAddress, ""},
		{"Size Of Raw Data", s.SizeOfRawData, ""},
		{"Pointer To Raw Data", s.PointerToRawData, ""},
		{"Pointer To Relocations", s.PointerToRelocations, ""},
		{"Pointer To Line Numbers", s.PointerToLineNumbers, ""},
		{"Number Of Relocations", s.NumberOfRelocations, ""},
		{"Number Of Line Numbers", s.NumberOfLineNumbers, ""},
		{"Characteristics", s.Characteristics, sectionFlags.bits(s.Characteristics, scnAlignMask)},
	})
	if len(s.Relocations) != 0 {
		w.WriteString(prefix)
		w.WriteString("Relocations (not written):\n")
		for _, r := range s.Relocations {
			w.WriteString(prefix + indentLevel)
			writeInt(w, r.VirtualAddress, 4)
			w.WriteString(" symbol ")
			w.WriteString(strconv.FormatUint(uint64(r.SymbolTableIndex), 10))
			w.WriteString(" type ")
			writeInt(w, uint32(r.Type), 2)
			w.WriteByte('\n')
		}
	}
}

// DumpText writes the symbol, in text format, to the writer.
func (s *Symbol) DumpText(w *bufio.Writer, prefix string, st *StringTable) {
	name, err := s.DecodeName(st)
	fields := []field{
		{"Name", s.Name[:], decodedName(name, err, s.Name[:])},
		{"Value", s.Value, ""},
		{"Section Number", s.SectionNumber, sectionNumber(s.SectionNumber)},
		{"Simple Type", s.SimpleType(), simpleTypes.name(uint32(s.SimpleType()))},
		{"Complex Type", s.ComplexType(), complexTypes.name(uint32(s.ComplexType()))},
		{"Storage Class", s.StorageClass, storageClasses.name(uint32(s.StorageClass))},
		{"Num Aux Symbols", s.NumberOfAuxSymbols, ""},
	}
	if len(s.AuxData) != 0 {
		fields = append(fields, field{"Aux Data", s.AuxData, ""})
	}
	dumpFields(w, prefix, fields)
}

// DumpText writes the laid-out file, in text format, to the writer.
func (f *File) DumpText(w *bufio.Writer, prefix string) {
	nprefix := prefix + indentLevel
	w.WriteString(prefix)
	w.WriteString("Header:\n")
	f.FileHeader.DumpText(w, nprefix)
	w.WriteByte('\n')
	for _, s := range f.Sections {
		w.WriteString(prefix)
		w.WriteString("Section ")
		w.WriteString(strconv.Itoa(s.Index))
		w.WriteString(":\n")
		s.DumpText(w, nprefix, f.StringTable)
		w.WriteByte('\n')
	}
	for _, s := range f.Symbols {
		w.WriteString(prefix)
		w.WriteString("Symbol ")
		w.WriteString(strconv.Itoa(s.Index))
		w.WriteString(":\n")
		s.DumpText(w, nprefix, f.StringTable)
		w.WriteByte('\n')
	}
	w.WriteString(prefix)
	w.WriteString("String Table:\n")
	for _, name := range f.StringTable.Strings() {
		off, _ := f.StringTable.Lookup(name)
		w.WriteString(nprefix)
		writeInt(w, off, 4)
		w.WriteByte(' ')
		w.WriteString(strconv.Quote(name))
		w.WriteByte('\n')
	}
}
