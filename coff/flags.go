package coff

import (
	"fmt"
	"strings"
)

// A flag is a named constant from the COFF specification.
type flag struct {
	name  string
	value uint32
}

// A flagTable is a fixed set of named constants.
type flagTable []flag

func (t flagTable) lookup(name string) (uint32, error) {
	for _, f := range t {
		if f.name == name {
			return f.value, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownFlag, name)
}

// or returns the bitwise OR of the named flags.
func (t flagTable) or(names []string) (uint32, error) {
	var v uint32
	for _, name := range names {
		f, err := t.lookup(name)
		if err != nil {
			return 0, err
		}
		v |= f
	}
	return v, nil
}

// name returns the name of an enumerated value, or "".
func (t flagTable) name(v uint32) string {
	for _, f := range t {
		if f.value == v {
			return f.name
		}
	}
	return ""
}

// bits returns the names of the flags set in v, joined with "|". The bits in
// field hold an enumerated value, such as the section alignment, rather than
// independent flags.
func (t flagTable) bits(v, field uint32) string {
	var names []string
	for _, f := range t {
		if f.value&field == 0 && f.value&(f.value-1) == 0 && v&f.value != 0 {
			names = append(names, f.name)
		}
	}
	if v&field != 0 {
		if name := t.name(v & field); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

var machines = flagTable{
	{"IMAGE_FILE_MACHINE_UNKNOWN", 0x0},
	{"IMAGE_FILE_MACHINE_AM33", 0x1d3},
	{"IMAGE_FILE_MACHINE_AMD64", 0x8664},
	{"IMAGE_FILE_MACHINE_ARM", 0x1c0},
	{"IMAGE_FILE_MACHINE_ARMNT", 0x1c4},
	{"IMAGE_FILE_MACHINE_ARM64", 0xaa64},
	{"IMAGE_FILE_MACHINE_EBC", 0xebc},
	{"IMAGE_FILE_MACHINE_I386", 0x14c},
	{"IMAGE_FILE_MACHINE_IA64", 0x200},
	{"IMAGE_FILE_MACHINE_M32R", 0x9041},
	{"IMAGE_FILE_MACHINE_MIPS16", 0x266},
	{"IMAGE_FILE_MACHINE_MIPSFPU", 0x366},
	{"IMAGE_FILE_MACHINE_MIPSFPU16", 0x466},
	{"IMAGE_FILE_MACHINE_POWERPC", 0x1f0},
	{"IMAGE_FILE_MACHINE_POWERPCFP", 0x1f1},
	{"IMAGE_FILE_MACHINE_R4000", 0x166},
	{"IMAGE_FILE_MACHINE_SH3", 0x1a2},
	{"IMAGE_FILE_MACHINE_SH3DSP", 0x1a3},
	{"IMAGE_FILE_MACHINE_SH4", 0x1a6},
	{"IMAGE_FILE_MACHINE_SH5", 0x1a8},
	{"IMAGE_FILE_MACHINE_THUMB", 0x1c2},
	{"IMAGE_FILE_MACHINE_WCEMIPSV2", 0x169},
}

var fileFlags = flagTable{
	{"IMAGE_FILE_RELOCS_STRIPPED", 0x0001},
	{"IMAGE_FILE_EXECUTABLE_IMAGE", 0x0002},
	{"IMAGE_FILE_LINE_NUMS_STRIPPED", 0x0004},
	{"IMAGE_FILE_LOCAL_SYMS_STRIPPED", 0x0008},
	{"IMAGE_FILE_AGGRESSIVE_WS_TRIM", 0x0010},
	{"IMAGE_FILE_LARGE_ADDRESS_AWARE", 0x0020},
	{"IMAGE_FILE_BYTES_REVERSED_LO", 0x0080},
	{"IMAGE_FILE_32BIT_MACHINE", 0x0100},
	{"IMAGE_FILE_DEBUG_STRIPPED", 0x0200},
	{"IMAGE_FILE_REMOVABLE_RUN_FROM_SWAP", 0x0400},
	{"IMAGE_FILE_NET_RUN_FROM_SWAP", 0x0800},
	{"IMAGE_FILE_SYSTEM", 0x1000},
	{"IMAGE_FILE_DLL", 0x2000},
	{"IMAGE_FILE_UP_SYSTEM_ONLY", 0x4000},
	{"IMAGE_FILE_BYTES_REVERSED_HI", 0x8000},
}

// scnAlignMask is the alignment field of the section characteristics.
const scnAlignMask = 0x00F00000

var sectionFlags = flagTable{
	{"IMAGE_SCN_TYPE_NO_PAD", 0x00000008},
	{"IMAGE_SCN_CNT_CODE", 0x00000020},
	{"IMAGE_SCN_CNT_INITIALIZED_DATA", 0x00000040},
	{"IMAGE_SCN_CNT_UNINITIALIZED_DATA", 0x00000080},
	{"IMAGE_SCN_LNK_OTHER", 0x00000100},
	{"IMAGE_SCN_LNK_INFO", 0x00000200},
	{"IMAGE_SCN_LNK_REMOVE", 0x00000800},
	{"IMAGE_SCN_LNK_COMDAT", 0x00001000},
	{"IMAGE_SCN_GPREL", 0x00008000},
	{"IMAGE_SCN_MEM_PURGEABLE", 0x00020000},
	{"IMAGE_SCN_MEM_16BIT", 0x00020000},
	{"IMAGE_SCN_MEM_LOCKED", 0x00040000},
	{"IMAGE_SCN_MEM_PRELOAD", 0x00080000},
	{"IMAGE_SCN_ALIGN_1BYTES", 0x00100000},
	{"IMAGE_SCN_ALIGN_2BYTES", 0x00200000},
	{"IMAGE_SCN_ALIGN_4BYTES", 0x00300000},
	{"IMAGE_SCN_ALIGN_8BYTES", 0x00400000},
	{"IMAGE_SCN_ALIGN_16BYTES", 0x00500000},
	{"IMAGE_SCN_ALIGN_32BYTES", 0x00600000},
	{"IMAGE_SCN_ALIGN_64BYTES", 0x00700000},
	{"IMAGE_SCN_ALIGN_128BYTES", 0x00800000},
	{"IMAGE_SCN_ALIGN_256BYTES", 0x00900000},
	{"IMAGE_SCN_ALIGN_512BYTES", 0x00A00000},
	{"IMAGE_SCN_ALIGN_1024BYTES", 0x00B00000},
	{"IMAGE_SCN_ALIGN_2048BYTES", 0x00C00000},
	{"IMAGE_SCN_ALIGN_4096BYTES", 0x00D00000},
	{"IMAGE_SCN_ALIGN_8192BYTES", 0x00E00000},
	{"IMAGE_SCN_LNK_NRELOC_OVFL", 0x01000000},
	{"IMAGE_SCN_MEM_DISCARDABLE", 0x02000000},
	{"IMAGE_SCN_MEM_NOT_CACHED", 0x04000000},
	{"IMAGE_SCN_MEM_NOT_PAGED", 0x08000000},
	{"IMAGE_SCN_MEM_SHARED", 0x10000000},
	{"IMAGE_SCN_MEM_EXECUTE", 0x20000000},
	{"IMAGE_SCN_MEM_READ", 0x40000000},
	{"IMAGE_SCN_MEM_WRITE", 0x80000000},
}

var simpleTypes = flagTable{
	{"IMAGE_SYM_TYPE_NULL", 0},
	{"IMAGE_SYM_TYPE_VOID", 1},
	{"IMAGE_SYM_TYPE_CHAR", 2},
	{"IMAGE_SYM_TYPE_SHORT", 3},
	{"IMAGE_SYM_TYPE_INT", 4},
	{"IMAGE_SYM_TYPE_LONG", 5},
	{"IMAGE_SYM_TYPE_FLOAT", 6},
	{"IMAGE_SYM_TYPE_DOUBLE", 7},
	{"IMAGE_SYM_TYPE_STRUCT", 8},
	{"IMAGE_SYM_TYPE_UNION", 9},
	{"IMAGE_SYM_TYPE_ENUM", 10},
	{"IMAGE_SYM_TYPE_MOE", 11},
	{"IMAGE_SYM_TYPE_BYTE", 12},
	{"IMAGE_SYM_TYPE_WORD", 13},
	{"IMAGE_SYM_TYPE_UINT", 14},
	{"IMAGE_SYM_TYPE_DWORD", 15},
}

var complexTypes = flagTable{
	{"IMAGE_SYM_DTYPE_NULL", 0},
	{"IMAGE_SYM_DTYPE_POINTER", 1},
	{"IMAGE_SYM_DTYPE_FUNCTION", 2},
	{"IMAGE_SYM_DTYPE_ARRAY", 3},
}

var storageClasses = flagTable{
	{"IMAGE_SYM_CLASS_END_OF_FUNCTION", 0xff},
	{"IMAGE_SYM_CLASS_NULL", 0},
	{"IMAGE_SYM_CLASS_AUTOMATIC", 1},
	{"IMAGE_SYM_CLASS_EXTERNAL", 2},
	{"IMAGE_SYM_CLASS_STATIC", 3},
	{"IMAGE_SYM_CLASS_REGISTER", 4},
	{"IMAGE_SYM_CLASS_EXTERNAL_DEF", 5},
	{"IMAGE_SYM_CLASS_LABEL", 6},
	{"IMAGE_SYM_CLASS_UNDEFINED_LABEL", 7},
	{"IMAGE_SYM_CLASS_MEMBER_OF_STRUCT", 8},
	{"IMAGE_SYM_CLASS_ARGUMENT", 9},
	{"IMAGE_SYM_CLASS_STRUCT_TAG", 10},
	{"IMAGE_SYM_CLASS_MEMBER_OF_UNION", 11},
	{"IMAGE_SYM_CLASS_UNION_TAG", 12},
	{"IMAGE_SYM_CLASS_TYPE_DEFINITION", 13},
	{"IMAGE_SYM_CLASS_UNDEFINED_STATIC", 14},
	{"IMAGE_SYM_CLASS_ENUM_TAG", 15},
	{"IMAGE_SYM_CLASS_MEMBER_OF_ENUM", 16},
	{"IMAGE_SYM_CLASS_REGISTER_PARAM", 17},
	{"IMAGE_SYM_CLASS_BIT_FIELD", 18},
	{"IMAGE_SYM_CLASS_BLOCK", 100},
	{"IMAGE_SYM_CLASS_FUNCTION", 101},
	{"IMAGE_SYM_CLASS_END_OF_STRUCT", 102},
	{"IMAGE_SYM_CLASS_FILE", 103},
	{"IMAGE_SYM_CLASS_SECTION", 104},
	{"IMAGE_SYM_CLASS_WEAK_EXTERNAL", 105},
	{"IMAGE_SYM_CLASS_CLR_TOKEN", 107},
}
